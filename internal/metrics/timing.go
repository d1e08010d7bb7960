// Stage timing collection and run reports
package metrics

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// StageTiming is the time one stage took, in milliseconds.
type StageTiming struct {
	Stage        string  `json:"stage"`
	Milliseconds float64 `json:"ms"`
}

// Recorder accumulates per-stage durations across frames. Stages are
// reported in the order they were first observed. A Recorder is used by one
// goroutine at a time.
type Recorder struct {
	order  []string
	totals map[string]time.Duration
	frames int
}

// NewRecorder creates a recorder with the given stages pre-registered, so
// they are reported (as zero) even if never observed.
func NewRecorder(stages ...string) *Recorder {
	r := &Recorder{
		totals: make(map[string]time.Duration, len(stages)),
	}
	for _, s := range stages {
		r.register(s)
	}
	return r
}

func (r *Recorder) register(stage string) {
	if _, ok := r.totals[stage]; ok {
		return
	}
	r.order = append(r.order, stage)
	r.totals[stage] = 0
}

// Observe adds d to the running total of stage.
func (r *Recorder) Observe(stage string, d time.Duration) {
	r.register(stage)
	r.totals[stage] += d
}

// FrameDone marks one complete frame.
func (r *Recorder) FrameDone() {
	r.frames++
}

// Frames returns the number of completed frames.
func (r *Recorder) Frames() int {
	return r.frames
}

// Totals returns the summed time per stage.
func (r *Recorder) Totals() []StageTiming {
	out := make([]StageTiming, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, StageTiming{Stage: s, Milliseconds: Milliseconds(r.totals[s])})
	}
	return out
}

// Averages returns the summed time per stage divided by the frame count.
// With no completed frames every average is 0.
func (r *Recorder) Averages() []StageTiming {
	out := r.Totals()
	for i := range out {
		if r.frames == 0 {
			out[i].Milliseconds = 0
			continue
		}
		out[i].Milliseconds /= float64(r.frames)
	}
	return out
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FPS returns frames per second over total, or 0 when total is not positive.
func FPS(frames int, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(frames) / total.Seconds()
}

// RunReport summarises one image or video run.
type RunReport struct {
	Kind      string        `json:"kind"`
	Mode      string        `json:"mode"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Radius    int           `json:"radius"`
	Threads   int           `json:"threads"`
	Frames    int           `json:"frames"`
	Stages    []StageTiming `json:"stages"`
	TotalMs   float64       `json:"total_ms"`
	FPS       float64       `json:"fps,omitempty"`
	Timestamp string        `json:"timestamp"`
}

// NewRunReport stamps a report with the current time.
func NewRunReport(kind string) *RunReport {
	return &RunReport{
		Kind:      kind,
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
	}
}

// Stage returns the timing recorded for name.
func (r *RunReport) Stage(name string) (StageTiming, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageTiming{}, false
}

// Fields flattens the report for structured logging.
func (r *RunReport) Fields() logrus.Fields {
	fields := logrus.Fields{
		"kind":     r.Kind,
		"mode":     r.Mode,
		"size":     r.sizeString(),
		"radius":   r.Radius,
		"threads":  r.Threads,
		"total_ms": r.TotalMs,
	}
	if r.Kind == "video" {
		fields["frames"] = r.Frames
		fields["avg_fps"] = r.FPS
	}
	for _, s := range r.Stages {
		fields[s.Stage+"_ms"] = s.Milliseconds
	}
	return fields
}

func (r *RunReport) sizeString() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
