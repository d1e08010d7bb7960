package algorithms

import (
	"fmt"

	"cpu-edge-pipeline/internal/core"
	"cpu-edge-pipeline/internal/parallel"
)

// BoxBlur applies a separable box (mean) filter with clamp-to-edge borders.
// The horizontal pass writes un-normalized window sums into the workspace
// scratch buffer; the vertical pass sums those, divides by the kernel area
// with truncation and writes the output. Cost per pixel is O(1) in the radius.
type BoxBlur struct {
	// Radius is the window half-width; the kernel is (2*Radius+1)^2.
	Radius int

	workspace *core.Workspace
}

// NewBoxBlur creates a box blur that resizes and reuses ws across calls.
func NewBoxBlur(radius int, ws *core.Workspace) *BoxBlur {
	return &BoxBlur{
		Radius:    radius,
		workspace: ws,
	}
}

// Apply ensures the workspace matches src and runs the blur on one goroutine.
func (b *BoxBlur) Apply(src, dst *core.FrameBuffer) error {
	return b.ApplyParallel(src, dst, 1)
}

// ApplyParallel ensures the workspace matches src and runs the blur with
// threads workers per pass.
func (b *BoxBlur) ApplyParallel(src, dst *core.FrameBuffer, threads int) error {
	if err := prepareBlur(src, dst, b.Radius); err != nil {
		return err
	}
	if b.workspace == nil {
		return fmt.Errorf("%w: box blur has no workspace", core.ErrInvalidInput)
	}
	b.workspace.EnsureSize(src.Width, src.Height)
	return BoxBlurWorkspace(src, dst, b.Radius, threads, b.workspace)
}

func (b *BoxBlur) GetName() string {
	return StageBlur
}

func (b *BoxBlur) GetDescription() string {
	return fmt.Sprintf("Separable %dx%d box blur with clamp-to-edge borders", 2*b.Radius+1, 2*b.Radius+1)
}

// BoxBlurSeparable blurs src into dst on the calling goroutine with a locally
// allocated scratch buffer.
func BoxBlurSeparable(src, dst *core.FrameBuffer, radius int) error {
	if err := prepareBlur(src, dst, radius); err != nil {
		return err
	}
	scratch := make([]int, src.Width*src.Height)
	blurHorizontal(src, scratch, radius, 0, src.Height)
	blurVertical(scratch, dst, radius, 0, src.Width)
	return nil
}

// BoxBlurParallel is BoxBlurSeparable with both passes split across threads
// workers and a locally allocated scratch buffer.
func BoxBlurParallel(src, dst *core.FrameBuffer, radius, threads int) error {
	if err := prepareBlur(src, dst, radius); err != nil {
		return err
	}
	scratch := make([]int, src.Width*src.Height)
	return blurPasses(src, dst, scratch, radius, threads)
}

// BoxBlurWorkspace blurs with the caller-owned workspace as scratch. The
// workspace must already be sized to src; it is never resized here.
func BoxBlurWorkspace(src, dst *core.FrameBuffer, radius, threads int, ws *core.Workspace) error {
	if err := prepareBlur(src, dst, radius); err != nil {
		return err
	}
	if ws == nil {
		return fmt.Errorf("%w: workspace is nil", core.ErrInvalidInput)
	}
	if w, h := ws.Size(); w != src.Width || h != src.Height || len(ws.Scratch()) != w*h {
		return fmt.Errorf("%w: workspace sized %dx%d, image is %dx%d",
			core.ErrInvalidInput, w, h, src.Width, src.Height)
	}
	return blurPasses(src, dst, ws.Scratch(), radius, threads)
}

// blurPasses runs both passes with a join between them: any output column in
// the vertical pass reads scratch rows written by every horizontal worker.
// A single worker runs both passes inline without allocating.
func blurPasses(src, dst *core.FrameBuffer, scratch []int, radius, threads int) error {
	if threads <= 1 {
		blurHorizontal(src, scratch, radius, 0, src.Height)
		blurVertical(scratch, dst, radius, 0, src.Width)
		return nil
	}

	err := parallel.Run(src.Height, threads, func(r parallel.RowRange) error {
		blurHorizontal(src, scratch, radius, r.Start, r.End)
		return nil
	})
	if err != nil {
		return err
	}

	return parallel.Run(src.Width, threads, func(r parallel.RowRange) error {
		blurVertical(scratch, dst, radius, r.Start, r.End)
		return nil
	})
}

func prepareBlur(src, dst *core.FrameBuffer, radius int) error {
	if err := core.ValidateFrame(src, 1); err != nil {
		return err
	}
	if radius < 1 {
		return fmt.Errorf("%w: radius must be >= 1, got %d", core.ErrInvalidInput, radius)
	}
	if err := checkDistinct(src, dst); err != nil {
		return err
	}
	_, err := dst.Ensure(src.Width, src.Height, 1)
	return err
}

// blurHorizontal stores, for rows [y0, y1), the sum over [x-r, x+r] with
// clamped column indices. The window slides: the sample leaving on the left
// is subtracted and the one entering on the right is added.
func blurHorizontal(src *core.FrameBuffer, scratch []int, radius, y0, y1 int) {
	w := src.Width
	last := w - 1

	for y := y0; y < y1; y++ {
		row := src.Row(y)
		out := scratch[y*w : (y+1)*w]

		sum := 0
		for dx := -radius; dx <= radius; dx++ {
			sum += int(row[clampInt(dx, 0, last)])
		}
		out[0] = sum

		for x := 1; x < w; x++ {
			sum += int(row[min(x+radius, last)]) - int(row[max(x-radius-1, 0)])
			out[x] = sum
		}
	}
}

// blurVertical slides a window down each column in [x0, x1) of the scratch
// buffer and writes sum/area, truncated, to dst.
func blurVertical(scratch []int, dst *core.FrameBuffer, radius, x0, x1 int) {
	w := dst.Width
	h := dst.Height
	last := h - 1
	size := 2*radius + 1
	area := size * size

	for x := x0; x < x1; x++ {
		sum := 0
		for dy := -radius; dy <= radius; dy++ {
			sum += scratch[clampInt(dy, 0, last)*w+x]
		}
		dst.Pix[x] = clampUint8(sum / area)

		for y := 1; y < h; y++ {
			sum += scratch[min(y+radius, last)*w+x] - scratch[max(y-radius-1, 0)*w+x]
			dst.Pix[y*w+x] = clampUint8(sum / area)
		}
	}
}

// BoxBlurDirect is the O(k^2)-per-pixel box filter with clamp-to-edge
// padding. BoxBlurSeparable matches it pixel for pixel.
func BoxBlurDirect(src, dst *core.FrameBuffer, radius int) error {
	if err := prepareBlur(src, dst, radius); err != nil {
		return err
	}

	w, h := src.Width, src.Height
	size := 2*radius + 1
	area := size * size

	for y := 0; y < h; y++ {
		out := dst.Row(y)
		for x := 0; x < w; x++ {
			sum := 0
			for dy := -radius; dy <= radius; dy++ {
				row := src.Row(clampInt(y+dy, 0, h-1))
				for dx := -radius; dx <= radius; dx++ {
					sum += int(row[clampInt(x+dx, 0, w-1)])
				}
			}
			out[x] = clampUint8(sum / area)
		}
	}
	return nil
}
