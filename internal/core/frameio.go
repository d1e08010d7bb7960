package core

// DefaultFPS is used when a video source does not report a positive rate.
const DefaultFPS = 30.0

// VideoInfo describes an opened video stream.
type VideoInfo struct {
	Width  int
	Height int
	FPS    float64
}

// ImageCodec decodes and encodes still images. Decode returns a 3-channel
// frame (B, G, R); Encode accepts 1- or 3-channel frames.
type ImageCodec interface {
	Decode(path string) (*FrameBuffer, error)
	Encode(path string, fb *FrameBuffer) error
}

// VideoSource yields frames from an opened stream.
type VideoSource interface {
	Info() VideoInfo
	// ReadFrame fills dst with the next 3-channel frame. It returns false at
	// end of stream.
	ReadFrame(dst *FrameBuffer) (bool, error)
	Close() error
}

// VideoSink accepts processed frames in stream order. Nothing appears at the
// destination until Close succeeds.
type VideoSink interface {
	WriteFrame(fb *FrameBuffer) error
	// Close finalises the stream and publishes it at the destination. On
	// failure the destination is left untouched.
	Close() error
	// Abort discards every frame written so far.
	Abort() error
}

// VideoBackend opens video sources and sinks.
type VideoBackend interface {
	OpenReader(path string) (VideoSource, error)
	OpenWriter(path string, info VideoInfo) (VideoSink, error)
}
