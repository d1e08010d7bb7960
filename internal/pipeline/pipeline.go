// Orchestration of image and video runs
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"cpu-edge-pipeline/internal/core"
	"cpu-edge-pipeline/internal/metrics"
)

// ProgressInterval is how many video frames pass between progress log lines.
const ProgressInterval = 60

// Pipeline connects the frame processor to the image and video collaborators.
type Pipeline struct {
	images core.ImageCodec
	videos core.VideoBackend
	logger logrus.FieldLogger
}

// New creates a pipeline. Either collaborator may be nil if the matching
// run kind is never requested.
func New(images core.ImageCodec, videos core.VideoBackend, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		images: images,
		videos: videos,
		logger: orDiscard(logger),
	}
}

// Request describes one run. Exactly one of ImagePath and VideoPath is set.
type Request struct {
	ImagePath string
	VideoPath string
	OutPath   string
	Config    Config
}

// Run dispatches req to RunImage or RunVideo.
func (p *Pipeline) Run(req Request) (*metrics.RunReport, error) {
	switch {
	case req.ImagePath != "" && req.VideoPath != "":
		return nil, fmt.Errorf("%w: image and video inputs are mutually exclusive", core.ErrConfig)
	case req.OutPath == "":
		return nil, fmt.Errorf("%w: output path is required", core.ErrConfig)
	case req.ImagePath != "":
		return p.RunImage(req.ImagePath, req.OutPath, req.Config)
	case req.VideoPath != "":
		return p.RunVideo(req.VideoPath, req.OutPath, req.Config)
	default:
		return nil, fmt.Errorf("%w: an image or video input is required", core.ErrConfig)
	}
}

// RunImage decodes in, runs every stage and encodes the edge map to out.
// Nothing is written unless every stage succeeds.
func (p *Pipeline) RunImage(in, out string, cfg Config) (*metrics.RunReport, error) {
	proc, err := NewFrameProcessor(cfg, p.logger)
	if err != nil {
		return nil, err
	}
	if p.images == nil {
		return nil, fmt.Errorf("%w: no image codec configured", core.ErrConfig)
	}

	log := p.logger.WithFields(logrus.Fields{
		"input":  in,
		"output": out,
		"mode":   cfg.Mode.String(),
	})
	log.Info("Starting image run")

	src, err := p.images.Decode(in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	edges, err := proc.Process(src)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", in, err)
	}
	total := time.Since(start)

	if err := p.images.Encode(out, edges); err != nil {
		return nil, err
	}

	report := p.newReport("image", cfg, src)
	report.Frames = 1
	report.Stages = proc.Recorder().Totals()
	report.TotalMs = metrics.Milliseconds(total)

	log.WithFields(report.Fields()).Info("Image run completed")
	return report, nil
}

// RunVideo processes in frame by frame and writes a 3-channel edge video to
// out. The processor buffers and workspace are reused for every frame. Any
// failure stops the run and discards the frames written so far, so out only
// appears once the whole stream has been processed.
func (p *Pipeline) RunVideo(in, out string, cfg Config) (report *metrics.RunReport, err error) {
	proc, err := NewFrameProcessor(cfg, p.logger)
	if err != nil {
		return nil, err
	}
	if p.videos == nil {
		return nil, fmt.Errorf("%w: no video backend configured", core.ErrConfig)
	}

	source, err := p.videos.OpenReader(in)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err = errors.Join(err, closeWrapped("video reader", source.Close())); err != nil {
			report = nil
		}
	}()

	info := source.Info()
	if info.FPS <= 0 {
		info.FPS = core.DefaultFPS
	}

	sink, err := p.videos.OpenWriter(out, info)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if abortErr := sink.Abort(); abortErr != nil {
				p.logger.WithError(abortErr).WithField("output", out).Warn("Failed to discard partial video")
			}
			return
		}
		if err = closeWrapped("video writer", sink.Close()); err != nil {
			report = nil
		}
	}()

	log := p.logger.WithFields(logrus.Fields{
		"input":  in,
		"output": out,
		"mode":   cfg.Mode.String(),
	})
	log.WithFields(logrus.Fields{
		"width":  info.Width,
		"height": info.Height,
		"fps":    info.FPS,
	}).Info("Starting video run")

	frame := &core.FrameBuffer{}
	memBefore := metrics.ReadMemory()
	log.WithFields(memBefore.Fields()).Debug("Memory usage before frame loop")
	start := time.Now()
	for index := 0; ; index++ {
		ok, err := source.ReadFrame(frame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}
		if !ok {
			break
		}
		if frame.Width != info.Width || frame.Height != info.Height {
			return nil, fmt.Errorf("%w: frame %d is %dx%d, stream is %dx%d",
				core.ErrInvalidInput, index, frame.Width, frame.Height, info.Width, info.Height)
		}

		edges, err := proc.Process(frame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}
		if err := sink.WriteFrame(edges); err != nil {
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}

		if done := index + 1; done%ProgressInterval == 0 {
			log.WithField("frames", done).Info("Processed frames")
		}
	}
	total := time.Since(start)

	memAfter := metrics.ReadMemory()
	log.WithFields(memAfter.Fields()).
		WithField("mallocs_during_run", memAfter.MallocsSince(memBefore)).
		Debug("Memory usage after frame loop")

	frames := proc.Recorder().Frames()
	report = p.newReport("video", cfg, frame)
	report.Width, report.Height = info.Width, info.Height
	report.Frames = frames
	report.Stages = proc.Recorder().Averages()
	report.TotalMs = metrics.Milliseconds(total)
	report.FPS = metrics.FPS(frames, total)

	log.WithFields(report.Fields()).Info("Video run completed")
	return report, nil
}

func (p *Pipeline) newReport(kind string, cfg Config, src *core.FrameBuffer) *metrics.RunReport {
	r := metrics.NewRunReport(kind)
	r.Mode = cfg.Mode.String()
	r.Width = src.Width
	r.Height = src.Height
	r.Radius = cfg.Radius
	r.Threads = cfg.Threads
	return r
}

func closeWrapped(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("closing %s: %w", what, err)
}

func orDiscard(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger != nil {
		return logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
