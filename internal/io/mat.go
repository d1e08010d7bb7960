package io

import (
	"fmt"

	"gocv.io/x/gocv"

	"cpu-edge-pipeline/internal/core"
)

// MatToFrame copies an 8-bit 1- or 3-channel Mat into dst, reshaping dst only
// when the shape changed.
func MatToFrame(mat gocv.Mat, dst *core.FrameBuffer) error {
	if mat.Empty() {
		return fmt.Errorf("%w: mat is empty", core.ErrInvalidInput)
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3:
	default:
		return fmt.Errorf("%w: unsupported mat type: %v", core.ErrInvalidInput, mat.Type())
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	if _, err := dst.Ensure(mat.Cols(), mat.Rows(), mat.Channels()); err != nil {
		return err
	}
	if len(data) < len(dst.Pix) {
		return fmt.Errorf("%w: mat holds %d bytes, need %d", core.ErrInvalidInput, len(data), len(dst.Pix))
	}

	copy(dst.Pix, data)
	return nil
}

// FrameToMat copies fb into dst, recreating dst only when its shape or type
// does not match. dst must have been created with gocv.NewMat or similar.
func FrameToMat(fb *core.FrameBuffer, dst *gocv.Mat) error {
	if fb.Empty() {
		return fmt.Errorf("%w: frame is empty", core.ErrInvalidInput)
	}
	if err := core.ValidateFrame(fb, fb.Channels); err != nil {
		return err
	}

	mt := gocv.MatTypeCV8UC1
	if fb.Channels == 3 {
		mt = gocv.MatTypeCV8UC3
	}

	if dst.Empty() || dst.Rows() != fb.Height || dst.Cols() != fb.Width || dst.Type() != mt {
		dst.Close()
		*dst = gocv.NewMatWithSize(fb.Height, fb.Width, mt)
	}

	data, err := dst.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	copy(data, fb.Pix)
	return nil
}

// GrayToBGR replicates a 1-channel Mat into 3 channels for writers that only
// accept color frames.
func GrayToBGR(gray gocv.Mat, dst *gocv.Mat) error {
	if gray.Channels() != 1 {
		return fmt.Errorf("%w: expected 1-channel mat, got %d", core.ErrInvalidInput, gray.Channels())
	}
	if err := gocv.CvtColor(gray, dst, gocv.ColorGrayToBGR); err != nil {
		return fmt.Errorf("%w: gray to BGR conversion: %v", core.ErrIOFailure, err)
	}
	return nil
}
