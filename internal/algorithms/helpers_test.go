package algorithms

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"cpu-edge-pipeline/internal/core"
)

// Test helper functions shared across filter tests.

// randomFrame returns a frame filled with deterministic pseudo-random samples.
func randomFrame(t *testing.T, rng *rand.Rand, w, h, channels int) *core.FrameBuffer {
	t.Helper()
	fb, err := core.NewFrameBuffer(w, h, channels)
	require.NoError(t, err)
	for i := range fb.Pix {
		fb.Pix[i] = uint8(rng.Intn(256))
	}
	return fb
}

// uniformFrame returns a frame where every sample equals v.
func uniformFrame(t *testing.T, w, h, channels int, v uint8) *core.FrameBuffer {
	t.Helper()
	fb, err := core.NewFrameBuffer(w, h, channels)
	require.NoError(t, err)
	for i := range fb.Pix {
		fb.Pix[i] = v
	}
	return fb
}

// grayFrom builds a 1-channel frame from rows of samples.
func grayFrom(t *testing.T, rows [][]uint8) *core.FrameBuffer {
	t.Helper()
	fb, err := core.NewFrameBuffer(len(rows[0]), len(rows), 1)
	require.NoError(t, err)
	for y, row := range rows {
		copy(fb.Row(y), row)
	}
	return fb
}

// referenceGray computes the luminance formula without the package helpers.
// The weighted sum is an exact integer number of thousandths, so the float
// division below cannot land on the wrong side of an integer.
func referenceGray(src *core.FrameBuffer) []uint8 {
	out := make([]uint8, src.Width*src.Height)
	for i := range out {
		b := int(src.Pix[i*3])
		g := int(src.Pix[i*3+1])
		r := int(src.Pix[i*3+2])
		v := int(math.Floor(float64(114*b+587*g+299*r) / 1000))
		out[i] = uint8(min(max(v, 0), 255))
	}
	return out
}

// referenceSobel convolves interior pixels directly and zeroes the border.
func referenceSobel(src *core.FrameBuffer) []uint8 {
	w, h := src.Width, src.Height
	out := make([]uint8, w*h)
	at := func(x, y int) int { return int(src.Pix[y*w+x]) }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) - 2*at(x-1, y) + 2*at(x+1, y) - at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			m := math.Round(math.Sqrt(float64(gx*gx + gy*gy)))
			out[y*w+x] = uint8(min(m, 255))
		}
	}
	return out
}

// threadCounts returns the worker counts every parallel variant is checked with.
func threadCounts(height int) []int {
	return []int{-2, 0, 1, 2, 3, 8, height, height + 7}
}
