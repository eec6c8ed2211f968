// Package fuif ties the range coder, MANIAC context tree, channel coder,
// transform pipeline and container together into a single Encode/Decode
// API over a plain multi-channel raster.
package fuif

import "errors"

var (
	// ErrInvalidOptions is returned by EncodeOptions.Validate for an
	// out-of-range or internally inconsistent knob.
	ErrInvalidOptions = errors.New("fuif: invalid options")
	// ErrInvalidRaster is returned when a Raster's channel count or
	// dimensions can't back a valid image.
	ErrInvalidRaster = errors.New("fuif: invalid raster")
)
