// OpenCV-backed image loading and saving
package io

import (
	"fmt"
	stdio "io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"cpu-edge-pipeline/internal/core"
)

var supportedImageFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// ImageLoader handles image file operations through OpenCV.
type ImageLoader struct {
	logger logrus.FieldLogger
}

// NewImageLoader creates a loader; a nil logger discards output.
func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: orDiscard(logger),
	}
}

// Decode loads path as a 3-channel B, G, R frame.
func (il *ImageLoader) Decode(path string) (*core.FrameBuffer, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if !isSupportedImageFormat(path) {
		return nil, fmt.Errorf("%w: unsupported image format: %s", core.ErrIOFailure, path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: failed to load image: %s", core.ErrIOFailure, path)
	}

	fb := &core.FrameBuffer{}
	if err := MatToFrame(mat, fb); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    fb.Width,
		"height":   fb.Height,
		"channels": fb.Channels,
	}).Info("Image loaded successfully")

	return fb, nil
}

// Encode writes fb to path. The file appears only once it is complete.
func (il *ImageLoader) Encode(path string, fb *core.FrameBuffer) error {
	il.logger.WithField("filepath", path).Debug("Saving image")

	if fb.Empty() {
		return fmt.Errorf("%w: cannot save empty image", core.ErrInvalidInput)
	}
	if !isSupportedImageFormat(path) {
		return fmt.Errorf("%w: unsupported image format: %s", core.ErrIOFailure, path)
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if err := FrameToMat(fb, &mat); err != nil {
		return err
	}

	err := writeAtomically(path, func(tmp string) error {
		if !gocv.IMWrite(tmp, mat) {
			return fmt.Errorf("%w: failed to save image: %s", core.ErrIOFailure, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    fb.Width,
		"height":   fb.Height,
		"channels": fb.Channels,
	}).Info("Image saved successfully")

	return nil
}

// SupportedFormats lists the extensions Decode and Encode accept.
func (il *ImageLoader) SupportedFormats() []string {
	return slices.Clone(supportedImageFormats)
}

func isSupportedImageFormat(path string) bool {
	return slices.Contains(supportedImageFormats, strings.ToLower(filepath.Ext(path)))
}

// writeAtomically lets write produce a sibling temp file with the same
// extension, then renames it over path. On failure the temp file is removed.
func writeAtomically(path string, write func(tmp string) error) error {
	tmp := tempPath(path)

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return commit(tmp, path)
}

// tempPath names the sibling file a write goes to before it is published.
// It keeps the extension so encoders still pick the format from it.
func tempPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, ".tmp-"+base)
}

// commit renames tmp over path, removing tmp if that fails.
func commit(tmp, path string) error {
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", core.ErrIOFailure, err)
	}
	return nil
}

func orDiscard(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger != nil {
		return logger
	}
	l := logrus.New()
	l.SetOutput(stdio.Discard)
	return l
}
