package container

import (
	"github.com/cloudinary/fuif/internal/channelcoder"
	"github.com/cloudinary/fuif/internal/imagemodel"
)

// GroupOptions controls how channels are clumped into channel-groups and
// how each group is coded.
type GroupOptions struct {
	// MaxGroup caps how many channels one group may span; 0 means
	// unbounded (only dimension-matching splits a group).
	MaxGroup int
	// Predictor gives the per-channel predictor id (spec.md §6 "-P"); a
	// shorter slice's last entry covers every remaining channel, an empty
	// slice means predictor 0 everywhere.
	Predictor []int
	Encode    channelcoder.EncodeOptions
}

func (o GroupOptions) predictorFor(i int) int {
	if len(o.Predictor) == 0 {
		return 0
	}
	if i < len(o.Predictor) {
		return o.Predictor[i]
	}
	return o.Predictor[len(o.Predictor)-1]
}

// groupEnd picks the last channel index of the group starting at i: every
// channel up to MaxGroup, cut short as soon as dimensions stop matching
// channel i's. Both EncodeChannels and DecodeChannels call this so they
// agree on group boundaries independently of what the group's own header
// says — the header's `(endc-beginc)` field is then just a redundant
// cross-check, the way the reference decoder never needs to recompute it.
//
// This is a deliberate simplification of the reference encoder's grouping
// rule, which additionally cuts groups at "downscale" boundaries so that
// the five responsive truncation offsets fall on fine-grained cut points.
// Dimension-matching plus MaxGroup already guarantees every group is a
// valid, independently decodable unit; only the granularity of responsive
// truncation is coarser. See DESIGN.md.
func (o GroupOptions) groupEnd(img *imagemodel.Image, i int) int {
	ch := img.Channels[i]
	j := i
	limit := len(img.Channels) - 1
	if o.MaxGroup > 0 && i+o.MaxGroup-1 < limit {
		limit = i + o.MaxGroup - 1
	}
	for j < limit && img.Channels[j+1].W == ch.W && img.Channels[j+1].H == ch.H {
		j++
	}
	return j
}

// EncodeChannels writes every non-empty channel of img as a sequence of
// channel-group payloads, returning the extended buffer and, for each of
// the five responsive levels, the byte offset (relative to the start of
// this body) at which decoding may stop and still yield a valid partial
// raster.
func EncodeChannels(buf []byte, img *imagemodel.Image, opts GroupOptions) (out []byte, offsets [nbTruncationOffsets]int) {
	n := len(img.Channels)
	level := 0
	for i := 0; i < n; {
		ch := img.Channels[i]
		if ch.W*ch.H <= 0 {
			i++
			continue
		}
		j := opts.groupEnd(img, i)
		predictor := opts.predictorFor(i)
		blob, err := channelcoder.EncodeGroup(img, i, j, predictor, opts.Encode)
		if err != nil {
			img.Error = true
			return buf, offsets
		}
		buf = append(buf, blob...)
		for level < nbTruncationOffsets && i*nbTruncationOffsets/max(n, 1) <= level {
			offsets[level] = len(buf)
			level++
		}
		i = j + 1
	}
	for ; level < nbTruncationOffsets; level++ {
		offsets[level] = len(buf)
	}
	return buf, offsets
}

// DecodeChannels reads channel-group payloads back from data, stopping
// cleanly at a group boundary once bytesToLoad is exceeded (or data runs
// out), per spec.md §7's truncation model: channels past the cutoff stay
// zero-filled and the image is still returned successfully.
func DecodeChannels(data []byte, img *imagemodel.Image, opts GroupOptions, bytesToLoad int) (consumed int, err error) {
	n := len(img.Channels)
	pos := 0
	for i := 0; i < n; {
		if bytesToLoad > 0 && pos >= bytesToLoad {
			break
		}
		if pos >= len(data) {
			break
		}
		ch := img.Channels[i]
		if ch.W*ch.H <= 0 {
			i++
			continue
		}
		j := opts.groupEnd(img, i)
		read, _, derr := channelcoder.DecodeGroup(data[pos:], img, i, j, opts.Encode.MaxProperties)
		if derr != nil {
			return pos, derr
		}
		pos += read
		i = j + 1
	}
	return pos, nil
}
