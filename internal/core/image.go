// Core frame data structure shared by every filter stage
package core

import (
	"fmt"
)

// MaxDimension bounds width and height to keep buffer sizes sane.
const MaxDimension = 16384

// FrameBuffer is a row-major grid of 8-bit samples.
// Pix holds exactly Width*Height*Channels bytes; Stride is Width*Channels.
type FrameBuffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewFrameBuffer allocates a zeroed buffer with the given shape.
func NewFrameBuffer(width, height, channels int) (*FrameBuffer, error) {
	if err := ValidateDimensions(width, height, channels); err != nil {
		return nil, err
	}
	return &FrameBuffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// Empty reports whether the buffer holds no samples.
func (fb *FrameBuffer) Empty() bool {
	return fb == nil || fb.Width <= 0 || fb.Height <= 0 || len(fb.Pix) == 0
}

// Stride returns the number of bytes per row.
func (fb *FrameBuffer) Stride() int {
	return fb.Width * fb.Channels
}

// Row returns the samples of row y.
func (fb *FrameBuffer) Row(y int) []uint8 {
	stride := fb.Stride()
	return fb.Pix[y*stride : (y+1)*stride]
}

// SameShape reports whether fb and other have identical width, height and channels.
func (fb *FrameBuffer) SameShape(other *FrameBuffer) bool {
	return fb.Width == other.Width && fb.Height == other.Height && fb.Channels == other.Channels
}

// Ensure shapes fb to width x height x channels. The backing array is reused
// when it is large enough, so repeated calls with the same shape never allocate.
// It reports whether a new backing array was allocated.
func (fb *FrameBuffer) Ensure(width, height, channels int) (bool, error) {
	if err := ValidateDimensions(width, height, channels); err != nil {
		return false, err
	}

	size := width * height * channels
	allocated := false
	if cap(fb.Pix) < size {
		fb.Pix = make([]uint8, size)
		allocated = true
	} else {
		fb.Pix = fb.Pix[:size]
	}

	fb.Width = width
	fb.Height = height
	fb.Channels = channels
	return allocated, nil
}

// Clone returns a deep copy of the buffer.
func (fb *FrameBuffer) Clone() *FrameBuffer {
	pix := make([]uint8, len(fb.Pix))
	copy(pix, fb.Pix)
	return &FrameBuffer{
		Width:    fb.Width,
		Height:   fb.Height,
		Channels: fb.Channels,
		Pix:      pix,
	}
}

func (fb *FrameBuffer) String() string {
	if fb == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%dx%dx%d", fb.Width, fb.Height, fb.Channels)
}

// ValidateDimensions validates a buffer shape for basic requirements.
func ValidateDimensions(width, height, channels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid dimensions: %dx%d", ErrInvalidInput, width, height)
	}

	if channels != 1 && channels != 3 {
		return fmt.Errorf("%w: unsupported channel count: %d", ErrInvalidInput, channels)
	}

	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: image too large: %dx%d (max: %d)", ErrInvalidInput, width, height, MaxDimension)
	}

	return nil
}

// ValidateFrame checks that fb is non-empty, consistent and has the wanted channel count.
func ValidateFrame(fb *FrameBuffer, channels int) error {
	if fb.Empty() {
		return fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}

	if fb.Channels != channels {
		return fmt.Errorf("%w: expected %d-channel image, got %d", ErrInvalidInput, channels, fb.Channels)
	}

	if err := ValidateDimensions(fb.Width, fb.Height, fb.Channels); err != nil {
		return err
	}

	if len(fb.Pix) != fb.Width*fb.Height*fb.Channels {
		return fmt.Errorf("%w: buffer holds %d bytes, shape %s needs %d",
			ErrInvalidInput, len(fb.Pix), fb, fb.Width*fb.Height*fb.Channels)
	}

	return nil
}
