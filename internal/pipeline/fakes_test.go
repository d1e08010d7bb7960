package pipeline

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"cpu-edge-pipeline/internal/algorithms"
	"cpu-edge-pipeline/internal/core"
)

type fakeCodec struct {
	inputs    map[string]*core.FrameBuffer
	encoded   map[string]*core.FrameBuffer
	decodes   int
	encodeErr error
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{
		inputs:  make(map[string]*core.FrameBuffer),
		encoded: make(map[string]*core.FrameBuffer),
	}
}

func (c *fakeCodec) Decode(path string) (*core.FrameBuffer, error) {
	c.decodes++
	fb, ok := c.inputs[path]
	if !ok {
		return nil, fmt.Errorf("%w: failed to load image: %s", core.ErrIOFailure, path)
	}
	return fb.Clone(), nil
}

func (c *fakeCodec) Encode(path string, fb *core.FrameBuffer) error {
	if c.encodeErr != nil {
		return c.encodeErr
	}
	c.encoded[path] = fb.Clone()
	return nil
}

type fakeSource struct {
	info   core.VideoInfo
	frames []*core.FrameBuffer
	next   int
	failAt int
	closed bool
}

func (s *fakeSource) Info() core.VideoInfo { return s.info }

func (s *fakeSource) ReadFrame(dst *core.FrameBuffer) (bool, error) {
	if s.next == s.failAt {
		return false, fmt.Errorf("%w: corrupt packet", core.ErrIOFailure)
	}
	if s.next >= len(s.frames) {
		return false, nil
	}
	f := s.frames[s.next]
	s.next++
	if _, err := dst.Ensure(f.Width, f.Height, f.Channels); err != nil {
		return false, err
	}
	copy(dst.Pix, f.Pix)
	return true, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// fakeSink publishes its frames only on a successful Close.
type fakeSink struct {
	info      core.VideoInfo
	written   []*core.FrameBuffer
	failAt    int
	closeErr  error
	closed    bool
	aborted   bool
	published []*core.FrameBuffer
}

func (s *fakeSink) WriteFrame(fb *core.FrameBuffer) error {
	if len(s.written) == s.failAt {
		return fmt.Errorf("%w: failed to write frame", core.ErrIOFailure)
	}
	s.written = append(s.written, fb.Clone())
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	if s.closeErr != nil {
		return s.closeErr
	}
	s.published = s.written
	return nil
}

func (s *fakeSink) Abort() error {
	s.aborted = true
	return nil
}

type fakeBackend struct {
	source  *fakeSource
	sink    *fakeSink
	opens   int
	openErr error
}

func newFakeBackend(info core.VideoInfo, frames ...*core.FrameBuffer) *fakeBackend {
	return &fakeBackend{
		source: &fakeSource{info: info, frames: frames, failAt: -1},
		sink:   &fakeSink{failAt: -1},
	}
}

func (b *fakeBackend) OpenReader(path string) (core.VideoSource, error) {
	b.opens++
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.source, nil
}

func (b *fakeBackend) OpenWriter(path string, info core.VideoInfo) (core.VideoSink, error) {
	b.sink.info = info
	return b.sink, nil
}

func randomColorFrame(t *testing.T, rng *rand.Rand, w, h int) *core.FrameBuffer {
	t.Helper()
	fb, err := core.NewFrameBuffer(w, h, 3)
	require.NoError(t, err)
	for i := range fb.Pix {
		fb.Pix[i] = uint8(rng.Intn(256))
	}
	return fb
}

// expectedEdges runs the three stages with the standalone single-threaded
// functions, independent of FrameProcessor.
func expectedEdges(t *testing.T, src *core.FrameBuffer, radius int) *core.FrameBuffer {
	t.Helper()
	gray, blurred, edges := &core.FrameBuffer{}, &core.FrameBuffer{}, &core.FrameBuffer{}
	require.NoError(t, algorithms.Grayscale(src, gray))
	require.NoError(t, algorithms.BoxBlurSeparable(gray, blurred, radius))
	require.NoError(t, algorithms.Sobel(blurred, edges))
	return edges
}
