package algorithms

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpu-edge-pipeline/internal/core"
)

func TestGradientMagnitude(t *testing.T) {
	assert.Equal(t, uint8(0), GradientMagnitude(0, 0))
	assert.Equal(t, uint8(5), GradientMagnitude(3, 4))
	assert.Equal(t, uint8(3), GradientMagnitude(2, 2))  // 2.83 rounds up
	assert.Equal(t, uint8(2), GradientMagnitude(1, -2)) // 2.24 rounds down
	assert.Equal(t, uint8(255), GradientMagnitude(-1020, 1020))
}

func TestSobelMatchesDirectConvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(20))

	for _, size := range blurSizes {
		src := randomFrame(t, rng, size.w, size.h, 1)

		got := &core.FrameBuffer{}
		require.NoError(t, Sobel(src, got))
		assert.Equal(t, referenceSobel(src), got.Pix, "size=%dx%d", size.w, size.h)
	}
}

func TestSobelBorderIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	src := randomFrame(t, rng, 13, 9, 1)

	dst := uniformFrame(t, 13, 9, 1, 77)
	require.NoError(t, SobelParallel(src, dst, 4))

	for x := 0; x < 13; x++ {
		assert.Zero(t, dst.Pix[x], "top row x=%d", x)
		assert.Zero(t, dst.Pix[8*13+x], "bottom row x=%d", x)
	}
	for y := 0; y < 9; y++ {
		assert.Zero(t, dst.Pix[y*13], "left column y=%d", y)
		assert.Zero(t, dst.Pix[y*13+12], "right column y=%d", y)
	}
}

func TestSobelStepEdge(t *testing.T) {
	src := grayFrom(t, [][]uint8{
		{0, 0, 100, 100},
		{0, 0, 100, 100},
		{0, 0, 100, 100},
	})

	// Gx = 4*100 at both interior pixels of the middle row, Gy = 0.
	want := []uint8{
		0, 0, 0, 0,
		0, 255, 255, 0,
		0, 0, 0, 0,
	}

	got := &core.FrameBuffer{}
	require.NoError(t, Sobel(src, got))
	assert.Equal(t, want, got.Pix)
}

func TestSobelParallelIsBitIdentical(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	src := randomFrame(t, rng, 29, 21, 1)

	want := &core.FrameBuffer{}
	require.NoError(t, Sobel(src, want))

	for _, threads := range threadCounts(src.Height) {
		got := &core.FrameBuffer{}
		require.NoError(t, SobelParallel(src, got, threads))
		assert.Equal(t, want.Pix, got.Pix, "threads=%d", threads)
	}
}

func TestSobelInvalidInput(t *testing.T) {
	gray := uniformFrame(t, 4, 4, 1, 10)
	color := uniformFrame(t, 4, 4, 3, 10)

	tests := []struct {
		name string
		src  *core.FrameBuffer
		dst  *core.FrameBuffer
	}{
		{"nil input", nil, &core.FrameBuffer{}},
		{"empty input", &core.FrameBuffer{}, &core.FrameBuffer{}},
		{"three channels", color, &core.FrameBuffer{}},
		{"aliased output", gray, gray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Sobel(tt.src, tt.dst), core.ErrInvalidInput)
			assert.ErrorIs(t, SobelParallel(tt.src, tt.dst, 3), core.ErrInvalidInput)
		})
	}
}

func TestUniformFrameThroughAllStages(t *testing.T) {
	src := uniformFrame(t, 4, 4, 3, 100)
	ws := core.NewWorkspace()

	stages, err := Stages(1, ws)
	require.NoError(t, err)
	require.Len(t, stages, 3)

	for _, threads := range []int{1, 2, 4, 9} {
		gray := &core.FrameBuffer{}
		blurred := &core.FrameBuffer{}
		edges := &core.FrameBuffer{}

		require.NoError(t, stages[0].ApplyParallel(src, gray, threads))
		require.NoError(t, stages[1].ApplyParallel(gray, blurred, threads))
		require.NoError(t, stages[2].ApplyParallel(blurred, edges, threads))

		assert.Equal(t, uniformFrame(t, 4, 4, 1, 100).Pix, gray.Pix)
		assert.Equal(t, uniformFrame(t, 4, 4, 1, 100).Pix, blurred.Pix)
		assert.Equal(t, make([]uint8, 16), edges.Pix)
	}
}

func TestStages(t *testing.T) {
	stages, err := Stages(2, core.NewWorkspace())
	require.NoError(t, err)

	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.GetName())
		assert.NotEmpty(t, s.GetDescription())
	}
	assert.Equal(t, []string{StageGrayscale, StageBlur, StageSobel}, names)

	_, err = Stages(0, core.NewWorkspace())
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = Stages(1, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
