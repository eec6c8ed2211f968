package container

import (
	"fmt"

	"github.com/cloudinary/fuif/internal/imagemodel"
	"github.com/cloudinary/fuif/internal/transform"
	"github.com/cloudinary/fuif/internal/varint"
)

// Encode writes img (already decorrelated/subsampled/whatever transforms
// the caller wants applied — see transform.Transform.Apply) as a complete
// FUIF file: magic, header, transform list, and channel-group payloads.
// transforms is recorded in forward-apply order; Decode reverses it.
func Encode(img *imagemodel.Image, transforms []transform.Transform, groupOpts GroupOptions) ([]byte, error) {
	img.RecomputeMinMax()

	maxProperties := groupOpts.Encode.MaxProperties
	if maxProperties <= 0 {
		maxProperties = 16
	}
	img.MaxProperties = maxProperties

	h := Header{
		Animation:     img.IsAnimation(),
		NbChannels:    img.RealNbChannels,
		BitDepth:      bitDepthFor(img.MaxVal),
		W:             img.W,
		H:             img.H,
		NbFrames:      img.NbFrames,
		Den:           img.Den,
		Num:           img.Num,
		Loops:         img.Loops,
		ColorModel:    img.ColorModel,
		MaxProperties: img.MaxProperties,
	}

	var buf []byte
	buf = WriteHeader(buf, h)
	if h.NbChannels < 1 {
		return buf, nil
	}

	var body []byte
	body = WriteTransformList(body, transforms)

	body, offsets := EncodeChannels(body, img, groupOpts)
	if img.Error {
		return nil, fmt.Errorf("container: %w", ErrCorruptStream)
	}

	relative := 0
	for _, off := range offsets {
		delta := (off - relative + truncationOffsetResolution - 1) / truncationOffsetResolution
		buf = varint.Append(buf, uint64(delta))
		relative = off
	}

	buf = append(buf, body...)
	return buf, nil
}

// DecodeOptions controls a partial ("responsive") decode.
type DecodeOptions struct {
	// Preview selects a responsive truncation level: -1 for the full
	// image (default), 0 for the LQIP, 1..4 for 1:16 .. 1:2.
	Preview int
	Group   GroupOptions
}

// Result is what Decode returns: the reconstructed image, in its
// original (pre-transform) domain, plus whether decoding stopped early
// because of truncated input.
type Result struct {
	Image      *imagemodel.Image
	Incomplete bool
}

// Decode reads a complete FUIF file back into a Result. A truncated
// input is not an error: channels past the truncation point are left
// zero-filled and Incomplete is set, per spec.md §7.
func Decode(data []byte, opts DecodeOptions) (*Result, error) {
	h, pos, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	img := imagemodel.NewImage(h.W, h.H, (int32(1)<<uint(h.BitDepth))-1)
	img.NbFrames = h.NbFrames
	img.Den = h.Den
	img.Num = h.Num
	img.Loops = h.Loops
	img.ColorModel = h.ColorModel
	img.MaxProperties = h.MaxProperties
	img.NbChannels = h.NbChannels
	img.RealNbChannels = h.NbChannels

	if h.NbChannels < 1 {
		return &Result{Image: img}, nil
	}

	var rawOffsets [nbTruncationOffsets]uint64
	for s := range rawOffsets {
		v, n, err := varint.Read(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("%w: truncation offset %d: %v", ErrMalformedHeader, s, err)
		}
		pos += n
		rawOffsets[s] = v
	}
	relative := uint64(0)
	var offsets [nbTruncationOffsets]int
	for s, v := range rawOffsets {
		relative = v*truncationOffsetResolution + relative
		offsets[s] = int(relative)
	}
	bodyStart := pos

	for i := 0; i < h.NbChannels; i++ {
		img.Channels = append(img.Channels, imagemodel.NewChannel(img.W, img.H, i))
		img.Channels[i].MaxVal = img.MaxVal
	}

	transforms, n, err := ReadTransformList(data[pos:])
	if err != nil {
		return nil, err
	}
	pos += n

	for i, t := range transforms {
		params, err := t.MetaApply(img)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTransform, err)
		}
		transforms[i].Params = params
	}
	if img.Error {
		return nil, fmt.Errorf("container: %w", ErrCorruptStream)
	}

	bytesToLoad := 0
	if opts.Preview >= 0 && opts.Preview < nbTruncationOffsets {
		bytesToLoad = offsets[opts.Preview] + bodyStart
	}
	bodyBudget := 0
	if bytesToLoad > 0 {
		bodyBudget = bytesToLoad - pos
	}

	// The header's max_properties is authoritative — it was frozen into
	// the bitstream at encode time, so a caller-supplied GroupOptions
	// never needs to (and must not) override it.
	group := opts.Group
	group.Encode.MaxProperties = img.MaxProperties

	consumed, err := DecodeChannels(data[pos:], img, group, bodyBudget)
	incomplete := consumed < len(data[pos:]) && (err != nil || (bytesToLoad > 0 && pos+consumed >= bytesToLoad))
	if err != nil {
		incomplete = true
	}

	for i := len(transforms) - 1; i >= 0; i-- {
		if applyErr := transforms[i].Apply(img, true); applyErr != nil {
			return nil, fmt.Errorf("container: inverse transform %s: %w", transforms[i].Name(), applyErr)
		}
	}
	img.Clamp()

	return &Result{Image: img, Incomplete: incomplete}, nil
}
