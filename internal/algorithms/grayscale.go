package algorithms

import (
	"cpu-edge-pipeline/internal/core"
	"cpu-edge-pipeline/internal/parallel"
)

// Luminance weights for channels 0, 1 and 2 (B, G, R in OpenCV order), in
// thousandths. They sum to 1000, so a uniform pixel maps to itself.
const (
	weightCh0 = 114
	weightCh1 = 587
	weightCh2 = 299
)

// GrayscaleConverter maps 3-channel frames to 1-channel luminance.
type GrayscaleConverter struct{}

// NewGrayscaleConverter creates a new grayscale converter
func NewGrayscaleConverter() *GrayscaleConverter {
	return &GrayscaleConverter{}
}

func (g *GrayscaleConverter) Apply(src, dst *core.FrameBuffer) error {
	return Grayscale(src, dst)
}

func (g *GrayscaleConverter) ApplyParallel(src, dst *core.FrameBuffer, threads int) error {
	return GrayscaleParallel(src, dst, threads)
}

func (g *GrayscaleConverter) GetName() string {
	return StageGrayscale
}

func (g *GrayscaleConverter) GetDescription() string {
	return "Weighted luminance conversion of a 3-channel frame"
}

// Luminance returns floor(0.114*c0 + 0.587*c1 + 0.299*c2) clamped to [0, 255].
// The sum is computed exactly in integers.
func Luminance(c0, c1, c2 uint8) uint8 {
	v := weightCh0*int(c0) + weightCh1*int(c1) + weightCh2*int(c2)
	return clampUint8(v / 1000)
}

// Grayscale converts src (3 channels) into dst (reshaped to 1 channel, same size).
func Grayscale(src, dst *core.FrameBuffer) error {
	if err := prepareGrayscale(src, dst); err != nil {
		return err
	}
	grayscaleRows(src, dst, 0, src.Height)
	return nil
}

// GrayscaleParallel is Grayscale with rows split across threads workers.
func GrayscaleParallel(src, dst *core.FrameBuffer, threads int) error {
	if err := prepareGrayscale(src, dst); err != nil {
		return err
	}
	return parallel.Run(src.Height, threads, func(r parallel.RowRange) error {
		grayscaleRows(src, dst, r.Start, r.End)
		return nil
	})
}

func prepareGrayscale(src, dst *core.FrameBuffer) error {
	if err := core.ValidateFrame(src, 3); err != nil {
		return err
	}
	if err := checkDistinct(src, dst); err != nil {
		return err
	}
	_, err := dst.Ensure(src.Width, src.Height, 1)
	return err
}

func grayscaleRows(src, dst *core.FrameBuffer, y0, y1 int) {
	for y := y0; y < y1; y++ {
		in := src.Row(y)
		out := dst.Row(y)
		for x := range out {
			i := x * 3
			out[x] = Luminance(in[i], in[i+1], in[i+2])
		}
	}
}
