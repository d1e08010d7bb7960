package io

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpu-edge-pipeline/internal/core"
)

func randomFrame(t *testing.T, w, h, channels int, seed int64) *core.FrameBuffer {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	fb, err := core.NewFrameBuffer(w, h, channels)
	require.NoError(t, err)
	for i := range fb.Pix {
		fb.Pix[i] = uint8(rng.Intn(256))
	}
	return fb
}

func TestNativeCodecColorRoundTrip(t *testing.T) {
	codec := NewNativeCodec(nil)
	src := randomFrame(t, 13, 7, 3, 1)

	for _, ext := range []string{".png", ".bmp", ".tiff"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "frame"+ext)
			require.NoError(t, codec.Encode(path, src))

			got, err := codec.Decode(path)
			require.NoError(t, err)
			assert.True(t, src.SameShape(got))
			assert.Equal(t, src.Pix, got.Pix)
		})
	}
}

func TestNativeCodecGrayDecodesAsReplicatedColor(t *testing.T) {
	codec := NewNativeCodec(nil)
	src := randomFrame(t, 9, 5, 1, 2)

	path := filepath.Join(t.TempDir(), "edges.png")
	require.NoError(t, codec.Encode(path, src))

	got, err := codec.Decode(path)
	require.NoError(t, err)
	require.Equal(t, 3, got.Channels)

	for i, v := range src.Pix {
		assert.Equal(t, []uint8{v, v, v}, got.Pix[i*3:i*3+3], "pixel %d", i)
	}
}

func TestNativeCodecJPEG(t *testing.T) {
	codec := NewNativeCodec(nil)
	src := randomFrame(t, 16, 16, 3, 3)

	path := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, codec.Encode(path, src))

	got, err := codec.Decode(path)
	require.NoError(t, err)
	assert.True(t, src.SameShape(got))
}

func TestNativeCodecErrors(t *testing.T) {
	codec := NewNativeCodec(nil)
	dir := t.TempDir()
	src := randomFrame(t, 4, 4, 3, 4)

	_, err := codec.Decode(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, core.ErrIOFailure)

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = codec.Decode(garbage)
	assert.ErrorIs(t, err, core.ErrIOFailure)

	err = codec.Encode(filepath.Join(dir, "frame.xyz"), src)
	assert.ErrorIs(t, err, core.ErrIOFailure)

	err = codec.Encode(filepath.Join(dir, "empty.png"), &core.FrameBuffer{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	err = codec.Encode(filepath.Join(dir, "no-such-dir", "frame.png"), src)
	assert.ErrorIs(t, err, core.ErrIOFailure)
}

func TestNativeCodecLeavesNoTempFiles(t *testing.T) {
	codec := NewNativeCodec(nil)
	dir := t.TempDir()

	require.NoError(t, codec.Encode(filepath.Join(dir, "out.png"), randomFrame(t, 3, 3, 1, 5)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.png", entries[0].Name())
}
