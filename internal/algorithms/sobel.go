package algorithms

import (
	"math"

	"cpu-edge-pipeline/internal/core"
	"cpu-edge-pipeline/internal/parallel"
)

// Sobel kernels, indexed [row][column].
var (
	sobelX = [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	sobelY = [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// SobelEdgeDetector computes the gradient magnitude of a 1-channel frame.
// Border rows and columns are always 0.
type SobelEdgeDetector struct{}

// NewSobelEdgeDetector creates a new Sobel edge detector
func NewSobelEdgeDetector() *SobelEdgeDetector {
	return &SobelEdgeDetector{}
}

func (s *SobelEdgeDetector) Apply(src, dst *core.FrameBuffer) error {
	return Sobel(src, dst)
}

func (s *SobelEdgeDetector) ApplyParallel(src, dst *core.FrameBuffer, threads int) error {
	return SobelParallel(src, dst, threads)
}

func (s *SobelEdgeDetector) GetName() string {
	return StageSobel
}

func (s *SobelEdgeDetector) GetDescription() string {
	return "Sobel gradient magnitude with zeroed borders"
}

// Sobel writes round(sqrt(Gx^2+Gy^2)), clamped to 255, for interior pixels of
// src into dst and 0 for border pixels.
func Sobel(src, dst *core.FrameBuffer) error {
	if err := prepareSobel(src, dst); err != nil {
		return err
	}
	sobelRows(src, dst, 0, src.Height)
	return nil
}

// SobelParallel is Sobel with rows split across threads workers. Workers only
// read src, so the neighbouring rows they share need no locking.
func SobelParallel(src, dst *core.FrameBuffer, threads int) error {
	if err := prepareSobel(src, dst); err != nil {
		return err
	}
	return parallel.Run(src.Height, threads, func(r parallel.RowRange) error {
		sobelRows(src, dst, r.Start, r.End)
		return nil
	})
}

// GradientMagnitude returns clamp(round(sqrt(gx^2+gy^2)), 0, 255).
func GradientMagnitude(gx, gy int) uint8 {
	m := math.Round(math.Sqrt(float64(gx*gx + gy*gy)))
	if m > 255 {
		return 255
	}
	return uint8(m)
}

func prepareSobel(src, dst *core.FrameBuffer) error {
	if err := core.ValidateFrame(src, 1); err != nil {
		return err
	}
	if err := checkDistinct(src, dst); err != nil {
		return err
	}
	_, err := dst.Ensure(src.Width, src.Height, 1)
	return err
}

func sobelRows(src, dst *core.FrameBuffer, y0, y1 int) {
	w, h := src.Width, src.Height

	for y := y0; y < y1; y++ {
		out := dst.Row(y)
		if y == 0 || y == h-1 || w < 3 {
			clear(out)
			continue
		}

		above := src.Row(y - 1)
		here := src.Row(y)
		below := src.Row(y + 1)
		rows := [3][]uint8{above, here, below}

		out[0] = 0
		out[w-1] = 0
		for x := 1; x < w-1; x++ {
			gx, gy := 0, 0
			for ky := 0; ky < 3; ky++ {
				row := rows[ky]
				for kx := 0; kx < 3; kx++ {
					v := int(row[x+kx-1])
					gx += v * sobelX[ky][kx]
					gy += v * sobelY[ky][kx]
				}
			}
			out[x] = GradientMagnitude(gx, gy)
		}
	}
}
