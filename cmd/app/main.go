// CPU Edge Pipeline
// Grayscale, box blur and Sobel edge detection over images and video.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"cpu-edge-pipeline/internal/core"
	frameio "cpu-edge-pipeline/internal/io"
	"cpu-edge-pipeline/internal/pipeline"
)

const (
	AppName    = "cpu-edge-pipeline"
	AppVersion = "1.0.0"
)

// Image backends selectable with -io.
const (
	backendOpenCV = "opencv"
	backendNative = "native"
)

type options struct {
	request pipeline.Request
	backend string
	debug   bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		return 1
	}

	logger := initLogger(opts.debug, stdout)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": opts.debug,
		"io":         opts.backend,
	}).Info("Starting CPU edge pipeline")

	var images core.ImageCodec = frameio.NewImageLoader(logger)
	if opts.backend == backendNative {
		images = frameio.NewNativeCodec(logger)
	}
	p := pipeline.New(images, frameio.NewVideoBackend(logger), logger)

	report, err := p.Run(opts.request)
	if err != nil {
		logger.WithError(err).Error("Run failed")
		return 1
	}

	logger.WithFields(logrus.Fields{
		"kind":     report.Kind,
		"total_ms": report.TotalMs,
	}).Info("Application finished")
	return 0
}

// parseFlags builds the run request. Configuration problems are reported as
// core.ErrConfig after printing usage.
func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := pipeline.DefaultConfig()
	imagePath := fs.String("image", "", "Input image path")
	videoPath := fs.String("video", "", "Input video path")
	outPath := fs.String("out", "", "Output path for the edge map")
	modeName := fs.String("mode", "", "Execution mode: cpu-single, cpu-mt or gpu")
	threads := fs.Int("threads", defaults.Threads, "Worker count for cpu-mt (values below 1 become 1)")
	radius := fs.Int("radius", defaults.Radius, "Box blur radius; the kernel is 2*radius+1 wide")
	backend := fs.String("io", backendOpenCV, "Image codec: opencv or native")
	debug := fs.Bool("debug", false, "Enable debug mode with verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s (-image PATH | -video PATH) -out PATH -mode MODE [options]\n", AppName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fail := func(format string, a ...any) (*options, error) {
		fs.Usage()
		return nil, fmt.Errorf("%w: %s", core.ErrConfig, fmt.Sprintf(format, a...))
	}

	switch {
	case *imagePath == "" && *videoPath == "":
		return fail("one of -image or -video is required")
	case *imagePath != "" && *videoPath != "":
		return fail("-image and -video are mutually exclusive")
	case *outPath == "":
		return fail("-out is required")
	case *modeName == "":
		return fail("-mode is required")
	}
	if fs.NArg() > 0 {
		return fail("unexpected arguments: %v", fs.Args())
	}

	mode, err := pipeline.ParseMode(*modeName)
	if err != nil {
		fs.Usage()
		return nil, err
	}
	if *backend != backendOpenCV && *backend != backendNative {
		return fail("unknown -io backend %q", *backend)
	}
	if err := checkOutputDir(*outPath); err != nil {
		return nil, err
	}

	return &options{
		request: pipeline.Request{
			ImagePath: *imagePath,
			VideoPath: *videoPath,
			OutPath:   *outPath,
			Config: pipeline.Config{
				Mode:    mode,
				Threads: max(*threads, 1),
				Radius:  *radius,
			},
		},
		backend: *backend,
		debug:   *debug,
	}, nil
}

func checkOutputDir(out string) error {
	dir := filepath.Dir(out)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: output directory %s: %v", core.ErrConfig, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: output directory %s is not a directory", core.ErrConfig, dir)
	}
	return nil
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
