package io

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"cpu-edge-pipeline/internal/core"
)

// VideoCodec is the FourCC used for output streams.
const VideoCodec = "mp4v"

// VideoBackend opens OpenCV video captures and writers.
type VideoBackend struct {
	logger logrus.FieldLogger
}

// NewVideoBackend creates a backend; a nil logger discards output.
func NewVideoBackend(logger logrus.FieldLogger) *VideoBackend {
	return &VideoBackend{logger: orDiscard(logger)}
}

// OpenReader opens path for frame-by-frame reading.
func (b *VideoBackend) OpenReader(path string) (core.VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open video %s: %v", core.ErrIOFailure, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: failed to open video: %s", core.ErrIOFailure, path)
	}

	info := core.VideoInfo{
		Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:    capture.Get(gocv.VideoCaptureFPS),
	}
	if info.FPS <= 0 {
		info.FPS = core.DefaultFPS
	}
	if err := core.ValidateDimensions(info.Width, info.Height, 3); err != nil {
		capture.Close()
		return nil, fmt.Errorf("%w: video %s reports %dx%d", core.ErrIOFailure, path, info.Width, info.Height)
	}

	b.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    info.Width,
		"height":   info.Height,
		"fps":      info.FPS,
	}).Info("Video opened")

	return &videoReader{
		capture: capture,
		frame:   gocv.NewMat(),
		info:    info,
	}, nil
}

// OpenWriter creates a color stream with the given geometry and rate. Frames
// go to a sibling temp file that is renamed to path by Close and removed by
// Abort.
func (b *VideoBackend) OpenWriter(path string, info core.VideoInfo) (core.VideoSink, error) {
	tmp := tempPath(path)
	writer, err := gocv.VideoWriterFile(tmp, VideoCodec, info.FPS, info.Width, info.Height, true)
	if err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("%w: failed to open video writer %s: %v", core.ErrIOFailure, path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("%w: failed to open video writer: %s", core.ErrIOFailure, path)
	}

	b.logger.WithFields(logrus.Fields{
		"filepath": path,
		"codec":    VideoCodec,
		"fps":      info.FPS,
	}).Debug("Video writer opened")

	return &videoWriter{
		writer: writer,
		path:   path,
		tmp:    tmp,
		frame:  gocv.NewMat(),
		color:  gocv.NewMat(),
	}, nil
}

// videoReader reuses one Mat for every decoded frame.
type videoReader struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	info    core.VideoInfo
}

func (r *videoReader) Info() core.VideoInfo {
	return r.info
}

func (r *videoReader) ReadFrame(dst *core.FrameBuffer) (bool, error) {
	if !r.capture.Read(&r.frame) || r.frame.Empty() {
		return false, nil
	}
	if r.frame.Channels() != 3 {
		return false, fmt.Errorf("%w: decoded frame has %d channels", core.ErrIOFailure, r.frame.Channels())
	}
	if err := MatToFrame(r.frame, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *videoReader) Close() error {
	r.frame.Close()
	return r.capture.Close()
}

// videoWriter reuses its Mats across frames; 1-channel frames are replicated
// to 3 channels before writing.
type videoWriter struct {
	writer *gocv.VideoWriter
	path   string
	tmp    string
	frame  gocv.Mat
	color  gocv.Mat
	done   bool
}

func (w *videoWriter) WriteFrame(fb *core.FrameBuffer) error {
	if w.done {
		return fmt.Errorf("%w: write after close: %s", core.ErrIOFailure, w.path)
	}
	if err := FrameToMat(fb, &w.frame); err != nil {
		return err
	}

	out := w.frame
	if fb.Channels == 1 {
		if err := GrayToBGR(w.frame, &w.color); err != nil {
			return err
		}
		out = w.color
	}

	if err := w.writer.Write(out); err != nil {
		return fmt.Errorf("%w: failed to write frame: %v", core.ErrIOFailure, err)
	}
	return nil
}

func (w *videoWriter) Close() error {
	if w.done {
		return nil
	}
	if err := w.release(); err != nil {
		os.Remove(w.tmp)
		return fmt.Errorf("%w: failed to finalise video %s: %v", core.ErrIOFailure, w.path, err)
	}
	return commit(w.tmp, w.path)
}

func (w *videoWriter) Abort() error {
	if w.done {
		return nil
	}
	err := w.release()
	if rmErr := os.Remove(w.tmp); rmErr != nil && !os.IsNotExist(rmErr) {
		return fmt.Errorf("%w: %v", core.ErrIOFailure, rmErr)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIOFailure, err)
	}
	return nil
}

func (w *videoWriter) release() error {
	w.done = true
	w.frame.Close()
	w.color.Close()
	return w.writer.Close()
}
