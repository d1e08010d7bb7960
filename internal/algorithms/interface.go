// Filter system for the fixed grayscale -> blur -> sobel sequence
package algorithms

import (
	"fmt"

	"cpu-edge-pipeline/internal/core"
)

// Stage names, in pipeline order.
const (
	StageGrayscale = "grayscale"
	StageBlur      = "blur"
	StageSobel     = "sobel"
)

// Filter defines the interface shared by every pipeline stage.
// Apply and ApplyParallel run the identical per-row algorithm and must
// produce bit-identical output. dst is reshaped to the stage's output shape;
// src and dst must be distinct buffers.
type Filter interface {
	Apply(src, dst *core.FrameBuffer) error
	ApplyParallel(src, dst *core.FrameBuffer, threads int) error
	GetName() string
	GetDescription() string
}

// Stages returns the fixed filter sequence for a run. The blur stage uses ws
// as its scratch buffer.
func Stages(radius int, ws *core.Workspace) ([]Filter, error) {
	if radius < 1 {
		return nil, fmt.Errorf("%w: radius must be >= 1, got %d", core.ErrInvalidInput, radius)
	}
	if ws == nil {
		return nil, fmt.Errorf("%w: blur stage needs a workspace", core.ErrInvalidInput)
	}

	return []Filter{
		NewGrayscaleConverter(),
		NewBoxBlur(radius, ws),
		NewSobelEdgeDetector(),
	}, nil
}

// checkDistinct rejects aliased input and output buffers.
func checkDistinct(src, dst *core.FrameBuffer) error {
	if dst == nil {
		return fmt.Errorf("%w: output buffer is nil", core.ErrInvalidInput)
	}
	if src == dst || (len(src.Pix) > 0 && len(dst.Pix) > 0 && &src.Pix[0] == &dst.Pix[0]) {
		return fmt.Errorf("%w: input and output buffers alias", core.ErrInvalidInput)
	}
	return nil
}

func clampUint8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
