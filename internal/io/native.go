package io

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"cpu-edge-pipeline/internal/core"
)

// NativeCodec decodes and encodes images in pure Go. It decodes PNG, JPEG,
// GIF, BMP, TIFF and WebP and encodes PNG, JPEG, BMP and TIFF.
type NativeCodec struct {
	logger      logrus.FieldLogger
	jpegQuality int
}

// NewNativeCodec creates a codec; a nil logger discards output.
func NewNativeCodec(logger logrus.FieldLogger) *NativeCodec {
	return &NativeCodec{
		logger:      orDiscard(logger),
		jpegQuality: 95,
	}
}

// Decode loads path as a 3-channel B, G, R frame, the same layout OpenCV uses.
func (c *NativeCodec) Decode(path string) (*core.FrameBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open image: %v", core.ErrIOFailure, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image %s: %v", core.ErrIOFailure, path, err)
	}

	fb, err := imageToFrame(img)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"filepath": path,
		"format":   format,
		"width":    fb.Width,
		"height":   fb.Height,
	}).Info("Image loaded successfully")

	return fb, nil
}

// Encode writes fb to path in the format named by its extension.
func (c *NativeCodec) Encode(path string, fb *core.FrameBuffer) error {
	if fb.Empty() {
		return fmt.Errorf("%w: cannot save empty image", core.ErrInvalidInput)
	}
	if err := core.ValidateFrame(fb, fb.Channels); err != nil {
		return err
	}

	img := frameToImage(fb)
	ext := strings.ToLower(filepath.Ext(path))

	var encode func(f *os.File) error
	switch ext {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: c.jpegQuality}) }
	case ".bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File) error { return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}) }
	default:
		return fmt.Errorf("%w: unsupported image format: %s", core.ErrIOFailure, path)
	}

	err := writeAtomically(path, func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrIOFailure, err)
		}
		if err := encode(f); err != nil {
			f.Close()
			return fmt.Errorf("%w: failed to encode %s: %v", core.ErrIOFailure, path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("%w: %v", core.ErrIOFailure, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    fb.Width,
		"height":   fb.Height,
		"channels": fb.Channels,
	}).Info("Image saved successfully")

	return nil
}

func imageToFrame(img image.Image) (*core.FrameBuffer, error) {
	b := img.Bounds()
	fb, err := core.NewFrameBuffer(b.Dx(), b.Dy(), 3)
	if err != nil {
		return nil, err
	}

	for y := 0; y < fb.Height; y++ {
		row := fb.Row(y)
		for x := 0; x < fb.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			row[x*3] = c.B
			row[x*3+1] = c.G
			row[x*3+2] = c.R
		}
	}
	return fb, nil
}

func frameToImage(fb *core.FrameBuffer) image.Image {
	rect := image.Rect(0, 0, fb.Width, fb.Height)

	if fb.Channels == 1 {
		gray := image.NewGray(rect)
		copy(gray.Pix, fb.Pix)
		return gray
	}

	out := image.NewNRGBA(rect)
	for y := 0; y < fb.Height; y++ {
		in := fb.Row(y)
		px := out.Pix[y*out.Stride : y*out.Stride+fb.Width*4]
		for x := 0; x < fb.Width; x++ {
			px[x*4] = in[x*3+2]
			px[x*4+1] = in[x*3+1]
			px[x*4+2] = in[x*3]
			px[x*4+3] = 0xff
		}
	}
	return out
}
