package pipeline

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cpu-edge-pipeline/internal/algorithms"
	"cpu-edge-pipeline/internal/core"
	"cpu-edge-pipeline/internal/metrics"
)

// FrameProcessor runs grayscale, blur and sobel over successive frames. The
// intermediate buffers and the blur workspace live as long as the processor,
// so frames of an unchanged size cause no allocation.
//
// A FrameProcessor is not safe for concurrent use.
type FrameProcessor struct {
	config    Config
	stages    []algorithms.Filter
	workspace *core.Workspace
	buffers   []*core.FrameBuffer
	recorder  *metrics.Recorder
	logger    logrus.FieldLogger
	debug     bool
}

// NewFrameProcessor validates cfg and prepares the stage sequence. The GPU
// mode is rejected here, before the caller touches any file.
func NewFrameProcessor(cfg Config, logger logrus.FieldLogger) (*FrameProcessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == ModeGPU {
		return nil, fmt.Errorf("%w: gpu execution is not available in this build", core.ErrUnsupportedMode)
	}

	ws := core.NewWorkspace()
	stages, err := algorithms.Stages(cfg.Radius, ws)
	if err != nil {
		return nil, err
	}

	p := &FrameProcessor{
		config:    cfg,
		stages:    stages,
		workspace: ws,
		buffers:   make([]*core.FrameBuffer, len(stages)),
		logger:    orDiscard(logger),
	}
	p.debug = debugEnabled(p.logger)
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.GetName()
		p.buffers[i] = &core.FrameBuffer{}
	}
	p.recorder = metrics.NewRecorder(names...)

	return p, nil
}

// Process runs every stage on src and returns the edge map. The returned
// buffer belongs to the processor and is overwritten by the next call.
// On error no stage output is returned.
func (p *FrameProcessor) Process(src *core.FrameBuffer) (*core.FrameBuffer, error) {
	in := src
	before := p.workspace.Allocations()

	for i, stage := range p.stages {
		out := p.buffers[i]
		start := time.Now()
		err := p.apply(stage, in, out)
		d := time.Since(start)
		p.recorder.Observe(stage.GetName(), d)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", stage.GetName(), err)
		}

		if p.debug {
			p.logger.WithFields(logrus.Fields{
				"stage": stage.GetName(),
				"ms":    metrics.Milliseconds(d),
			}).Debug("Stage completed")
		}
		in = out
	}

	if after := p.workspace.Allocations(); after != before {
		w, h := p.workspace.Size()
		p.logger.WithFields(logrus.Fields{
			"width":       w,
			"height":      h,
			"allocations": after,
		}).Debug("Blur workspace resized")
	}

	p.recorder.FrameDone()
	return in, nil
}

// debugEnabled reports whether debug entries would be emitted, so the hot
// path can skip building fields that would be dropped.
func debugEnabled(logger logrus.FieldLogger) bool {
	switch l := logger.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return true
}

func (p *FrameProcessor) apply(f algorithms.Filter, src, dst *core.FrameBuffer) error {
	if p.config.Mode == ModeMultiThread {
		return f.ApplyParallel(src, dst, p.config.Threads)
	}
	return f.Apply(src, dst)
}

// Recorder exposes the timings collected so far.
func (p *FrameProcessor) Recorder() *metrics.Recorder {
	return p.recorder
}

// Workspace returns the blur scratch buffer shared by every frame.
func (p *FrameProcessor) Workspace() *core.Workspace {
	return p.workspace
}

// StageNames lists the stages in execution order.
func (p *FrameProcessor) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.GetName()
	}
	return names
}
