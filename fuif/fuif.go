package fuif

import (
	"fmt"

	"github.com/cloudinary/fuif/internal/container"
	"github.com/cloudinary/fuif/internal/transform"
)

// Encode builds a transform pipeline from opts, runs it forward over
// raster's planes, and codes the result into a complete FUIF file. The
// pipeline order is fixed by spec.md §4.9: color-space, subsample, DCT,
// quantize, palette, squeeze, match, permute, approximate — this package
// only ever exercises the prefix a given EncodeOptions asks for
// (color-space, quantize, squeeze), since palette/DCT/match/permute/
// approximate have no corresponding option here yet (see DESIGN.md).
func Encode(raster *Raster, opts EncodeOptions) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	img, err := raster.toImage()
	if err != nil {
		return nil, err
	}

	log := opts.log()

	var transforms []transform.Transform
	if cs, ok := colorTransformID(opts.Colorspace, len(img.Channels)); ok {
		t := transform.New(cs, nil)
		if err := t.Apply(img, false); err != nil {
			return nil, fmt.Errorf("fuif: color transform: %w", err)
		}
		transforms = append(transforms, t)
		log.Debug().Str("transform", t.Name()).Msg("applied")
	}

	if len(opts.Quantize) > 0 {
		t := transform.New(transform.Quantize, opts.Quantize)
		if err := t.Apply(img, false); err != nil {
			return nil, fmt.Errorf("fuif: quantize: %w", err)
		}
		transforms = append(transforms, t)
		log.Debug().Str("transform", t.Name()).Msg("applied")
	}

	if !opts.DisableSqueeze {
		t := transform.New(transform.Squeeze, opts.Squeeze)
		if err := t.Apply(img, false); err != nil {
			return nil, fmt.Errorf("fuif: squeeze: %w", err)
		}
		transforms = append(transforms, t)
		log.Debug().Str("transform", t.Name()).Msg("applied")
	}

	groupOpts := container.GroupOptions{
		MaxGroup:  opts.MaxGroup,
		Predictor: opts.Predictor,
		Encode:    opts.channelCoder(),
	}
	data, err := container.Encode(img, transforms, groupOpts)
	if err != nil {
		return nil, fmt.Errorf("fuif: %w", err)
	}
	log.Debug().Int("bytes", len(data)).Int("transforms", len(transforms)).Msg("encoded")
	return data, nil
}

// colorTransformID resolves Colorspace into the transform id Encode
// should apply, and reports false when no color transform applies:
// ColorNone (including an unset, zero-value Colorspace), or fewer than
// 3 planes.
func colorTransformID(cs Colorspace, nbChannels int) (int, bool) {
	if nbChannels < 3 {
		return 0, false
	}
	switch cs {
	case ColorYCbCr:
		return transform.YCbCr, true
	case ColorYCoCg:
		return transform.YCoCg, true
	case ColorNone:
		return 0, false
	default:
		return transform.YCoCg, true
	}
}

// Decode reads a complete (or truncated) FUIF file back into a Result
// holding the reconstructed Raster.
func Decode(data []byte, opts DecodeOptions) (*Result, error) {
	log := opts.log()
	res, err := container.Decode(data, container.DecodeOptions{
		Preview: opts.Preview,
	})
	if err != nil {
		return nil, fmt.Errorf("fuif: %w", err)
	}
	log.Debug().Bool("incomplete", res.Incomplete).Msg("decoded")
	return &Result{Raster: fromImage(res.Image), Incomplete: res.Incomplete}, nil
}

// Result is what Decode returns: the reconstructed raster plus whether
// decoding stopped early because the input was truncated.
type Result struct {
	Raster     *Raster
	Incomplete bool
}
