package fuif

import (
	"github.com/rs/zerolog"

	"github.com/cloudinary/fuif/internal/channelcoder"
)

// Colorspace selects the forward color decorrelation transform Encode
// applies to the first three planes, mirroring the reference CLI's
// implicit choice between YCoCg (default, lossless) and YCbCr.
type Colorspace int

const (
	// ColorNone leaves the planes as given (e.g. already-gray, or CMYK).
	ColorNone Colorspace = iota
	// ColorYCoCg is the lossless integer Y/Co/Cg transform (spec.md §4.9
	// id 1); it runs only when selected explicitly.
	ColorYCoCg
	// ColorYCbCr is the lossy BT.601 float transform (id 0), used only
	// alongside a lossy pipeline (quantize/DCT).
	ColorYCbCr
)

// EncodeOptions controls how Encode builds and codes the transform
// pipeline. The zero value is a valid, fully lossless encode with the
// default squeeze step: Colorspace defaults to ColorNone, so no color
// transform runs and every plane keeps its own color space — set Colorspace explicitly to
// ColorYCoCg (lossless) or ColorYCbCr (lossy) to decorrelate a 3+-plane
// Raster.
type EncodeOptions struct {
	// Colorspace picks the color decorrelation transform; ColorNone (the
	// zero value) disables it regardless of plane count.
	Colorspace Colorspace

	// Quantize gives a per-channel divisor (1 = lossless) applied right
	// after the color transform; a nil slice means lossless.
	Quantize []int32

	// Squeeze carries an explicit squeeze parameter list (axis/beginc/endc
	// triples, spec.md §4.10); nil requests the default schedule, which
	// is a single squeeze step along the image's larger dimension
	// (vertical when width and height are equal). It does not continue
	// squeezing down to an 8px LQIP.
	Squeeze []int32
	// DisableSqueeze skips the squeeze transform entirely — the image has
	// no progressive LQIP/1:16/.../1:2 levels below "full" in that case.
	DisableSqueeze bool

	// Predictor gives the per-channel predictor id (0..6, spec.md §4.7);
	// a shorter slice's last entry covers every remaining channel, nil
	// means predictor 0 everywhere.
	Predictor []int
	// MaxGroup caps how many channels one channel-group may span.
	MaxGroup int
	// MaxProperties caps how many reference properties (two per prior
	// channel) contribute to a channel-group's context.
	MaxProperties int
	// TrainingRepeats scales the MANIAC training pass: total rows visited
	// per channel is TrainingRepeats*channel.H. 0 defaults to 0.5.
	TrainingRepeats float64
	// ForceUncompressed skips MANIAC training/coding entirely and writes
	// every channel-group through the uniform-range fallback coder (-U).
	ForceUncompressed bool

	// Logger receives Encode's debug events: one per transform applied
	// and one with the encoded size. A nil Logger is a no-op.
	Logger *zerolog.Logger
}

// Validate checks that every numeric option is in range, the way
// BaseOptions.Validate rejects an out-of-range Quality.
func (o *EncodeOptions) Validate() error {
	switch o.Colorspace {
	case ColorNone, ColorYCoCg, ColorYCbCr:
	default:
		return ErrInvalidOptions
	}
	for _, q := range o.Quantize {
		if q < 0 {
			return ErrInvalidOptions
		}
	}
	for _, p := range o.Predictor {
		if p < 0 || p > 6 {
			return ErrInvalidOptions
		}
	}
	if o.MaxGroup < 0 {
		return ErrInvalidOptions
	}
	if o.MaxProperties < 0 {
		return ErrInvalidOptions
	}
	if o.TrainingRepeats < 0 {
		return ErrInvalidOptions
	}
	if len(o.Squeeze)%3 != 0 {
		return ErrInvalidOptions
	}
	return nil
}

func (o EncodeOptions) channelCoder() channelcoder.EncodeOptions {
	return channelcoder.EncodeOptions{
		MaxProperties:     o.MaxProperties,
		NbRepeats:         o.TrainingRepeats,
		ForceUncompressed: o.ForceUncompressed,
	}
}

func (o EncodeOptions) log() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// DecodeOptions controls a partial ("responsive") decode. MaxProperties
// is not among them: it is frozen into the bitstream's own header at
// encode time (spec.md §6) and read back from there, not re-supplied by
// the caller.
type DecodeOptions struct {
	// Preview selects a responsive truncation level: -1 (default) for
	// the full image, 0 for the LQIP, 1..4 for 1:16 .. 1:2.
	Preview int

	Logger *zerolog.Logger
}

func (o DecodeOptions) log() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
