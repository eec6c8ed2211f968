// Package transform implements the reversible channel transforms that
// sit between the raw raster and the channel coder: color decorrelation,
// chroma subsampling, the 8x8 DCT, quantization, palettization, Haar-like
// squeeze, 2D block matching, channel permutation, and lossy-to-lossless
// approximation. Every transform is its own forward/inverse pair operating
// on an *imagemodel.Image in place.
package transform

import (
	"errors"
	"fmt"

	"github.com/cloudinary/fuif/internal/imagemodel"
)

// Transform ids, matching the container's transform-list encoding.
const (
	YCbCr            = 0
	YCoCg            = 1
	ChromaSubsample  = 3
	DCT              = 4
	Quantize         = 5
	Palette          = 6
	Squeeze          = 7
	Match2D          = 8
	Permute          = 9
	Approximate      = 10
)

var (
	// ErrUnknownTransform is returned when an id has no registered handler.
	ErrUnknownTransform = errors.New("transform: unknown id")
	// ErrInvalidParameters is returned when a transform's parameter list
	// fails its own shape check (wrong length, out-of-range channel refs).
	ErrInvalidParameters = errors.New("transform: invalid parameters")
)

// transformName mirrors the container's human-readable transform names,
// used only for diagnostics.
var transformName = map[int]string{
	YCbCr:           "YCbCr",
	YCoCg:           "YCoCg",
	ChromaSubsample: "ChromaSubsample",
	DCT:             "DCT",
	Quantize:        "Quantize",
	Palette:         "Palette",
	Squeeze:         "Squeeze",
	Match2D:         "2DMatch",
	Permute:         "Permute",
	Approximate:     "Approximate",
}

// handler is what each transform file registers: MetaApply adjusts the
// channel list's shape (dimensions, shifts, inserted/removed channels)
// without touching sample values; Apply does the actual forward or
// inverse sample-level work.
type handler struct {
	hasParameters bool
	metaApply     func(img *imagemodel.Image, params []int32) ([]int32, error)
	apply         func(img *imagemodel.Image, inverse bool, params []int32) error
}

var registry = map[int]handler{}

func register(id int, h handler) {
	registry[id] = h
}

// Transform is a tagged (id, parameters) pair dispatching to the
// module-level forward/inverse functions for that id.
type Transform struct {
	ID     int
	Params []int32
}

// New returns a Transform for the given id and parameter list.
func New(id int, params []int32) Transform {
	return Transform{ID: id, Params: params}
}

// Name returns the transform's diagnostic name.
func (t Transform) Name() string {
	if n, ok := transformName[t.ID]; ok {
		return n
	}
	return "unknown"
}

// HasParameters reports whether this transform's id carries an explicit
// parameter list in the container's transform-list encoding (some ids,
// like Permute, can instead carry their parameters in a meta-channel).
func (t Transform) HasParameters() bool {
	h, ok := registry[t.ID]
	if !ok {
		return false
	}
	return h.hasParameters
}

// MetaApply adjusts img's channel shapes/count for this transform,
// without touching sample data, and returns the (possibly defaulted)
// parameter list that Apply must be called with. The decoder calls
// MetaApply for every transform, in forward order, before any sample
// data is decoded; the encoder calls Apply directly, without MetaApply.
func (t Transform) MetaApply(img *imagemodel.Image) ([]int32, error) {
	h, ok := registry[t.ID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownTransform, t.ID)
	}
	if h.metaApply == nil {
		return t.Params, nil
	}
	return h.metaApply(img, t.Params)
}

// Apply runs the transform forward (inverse=false) or backward
// (inverse=true) against img's current channel data.
func (t Transform) Apply(img *imagemodel.Image, inverse bool) error {
	h, ok := registry[t.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownTransform, t.ID)
	}
	return h.apply(img, inverse, t.Params)
}
