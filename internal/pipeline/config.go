// Run configuration and execution modes
package pipeline

import (
	"fmt"
	"strings"

	"cpu-edge-pipeline/internal/core"
)

// Mode selects how each filter stage executes.
type Mode int

const (
	ModeSingleThread Mode = iota
	ModeMultiThread
	// ModeGPU is accepted by the parser but always fails with
	// core.ErrUnsupportedMode when a run starts.
	ModeGPU
)

var modeNames = map[Mode]string{
	ModeSingleThread: "cpu-single",
	ModeMultiThread:  "cpu-mt",
	ModeGPU:          "gpu",
}

// ParseMode maps a command-line mode name to a Mode.
func ParseMode(name string) (Mode, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for m, n := range modeNames {
		if n == needle {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q (want cpu-single, cpu-mt or gpu)", core.ErrConfig, name)
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Config holds the parameters shared by image and video runs.
type Config struct {
	Mode    Mode
	Threads int
	Radius  int
}

// DefaultConfig returns single-threaded execution with 4 threads reserved
// for cpu-mt and a 3x3 blur.
func DefaultConfig() Config {
	return Config{
		Mode:    ModeSingleThread,
		Threads: 4,
		Radius:  1,
	}
}

// Validate checks the configuration without looking at any file.
func (c Config) Validate() error {
	if _, ok := modeNames[c.Mode]; !ok {
		return fmt.Errorf("%w: unknown mode %d", core.ErrConfig, int(c.Mode))
	}
	if c.Radius < 1 {
		return fmt.Errorf("%w: radius must be >= 1, got %d", core.ErrInvalidInput, c.Radius)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("%w: threads must be >= 1, got %d", core.ErrInvalidInput, c.Threads)
	}
	return nil
}

// KernelSize is the blur window width, 2*Radius+1.
func (c Config) KernelSize() int {
	return 2*c.Radius + 1
}
