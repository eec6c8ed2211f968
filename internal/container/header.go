// Package container implements the FUIF file format: magic bytes, the
// varint top-level header, the transform list, and the sequence of
// channel-group payloads (internal/channelcoder) that make up the body.
package container

import (
	"fmt"

	"github.com/cloudinary/fuif/internal/imagemodel"
	"github.com/cloudinary/fuif/internal/varint"
)

const stillMagic = "FUIF"
const animMagic = "FUAF"

// nbTruncationOffsets is the number of responsive truncation points
// written after the basic header: LQIP, 1:16, 1:8, 1:4, 1:2.
const nbTruncationOffsets = 5

// truncationOffsetResolution rounds every delta-encoded offset to this
// many bytes, trading precision for a smaller header.
const truncationOffsetResolution = 1

// Header holds every field the container's top-level header carries,
// ahead of the transform list and channel-group payloads.
type Header struct {
	Animation     bool
	NbChannels    int
	BitDepth      int
	W, H          int
	NbFrames      int
	Den           int32
	Num           []int32
	Loops         int32
	ColorModel    imagemodel.ColorModel
	MaxProperties int
}

// bitDepthFor returns the smallest bit depth whose (2^n - 1) covers maxVal.
func bitDepthFor(maxVal int32) int {
	depth, m := 1, int32(1)
	for m < maxVal {
		depth++
		m = m*2 + 1
	}
	return depth
}

// WriteHeader appends buf with the magic and every fixed-format field of
// the top-level header (spec §6), in encode order.
func WriteHeader(buf []byte, h Header) []byte {
	if h.Animation {
		buf = append(buf, animMagic...)
	} else {
		buf = append(buf, stillMagic...)
	}
	buf = varint.Append(buf, uint64(h.NbChannels+'0'))
	buf = varint.Append(buf, uint64(h.BitDepth+'&'))
	buf = varint.Append(buf, uint64(h.W-1))
	buf = varint.Append(buf, uint64(h.H-1))
	if h.Animation {
		buf = varint.Append(buf, uint64(h.NbFrames-2))
		buf = varint.Append(buf, uint64(h.Den-1))
		if len(h.Num) == 0 {
			buf = varint.Append(buf, 0)
		} else {
			for _, n := range h.Num {
				buf = varint.Append(buf, uint64(n))
			}
		}
		buf = varint.Append(buf, uint64(h.Loops))
	}
	buf = varint.Append(buf, uint64(h.ColorModel.Pack()))
	buf = varint.Append(buf, uint64(h.MaxProperties))
	return buf
}

// ReadHeader parses the fixed-format header fields starting at data[0].
func ReadHeader(data []byte) (h Header, consumed int, err error) {
	if len(data) < 4 {
		return h, 0, ErrMalformedHeader
	}
	magic := string(data[:4])
	switch magic {
	case stillMagic:
		h.Animation = false
	case animMagic:
		h.Animation = true
	default:
		return h, 0, fmt.Errorf("%w: bad magic %q", ErrMalformedHeader, magic)
	}
	pos := 4

	nbCh, err := readVarint(data, &pos)
	if err != nil {
		return h, 0, err
	}
	h.NbChannels = int(nbCh) - '0'

	bd, err := readVarint(data, &pos)
	if err != nil {
		return h, 0, err
	}
	h.BitDepth = int(bd) - '&'

	w, err := readVarint(data, &pos)
	if err != nil {
		return h, 0, err
	}
	h.W = int(w) + 1

	hh, err := readVarint(data, &pos)
	if err != nil {
		return h, 0, err
	}
	h.H = int(hh) + 1

	h.NbFrames = 1
	if h.Animation {
		nf, err := readVarint(data, &pos)
		if err != nil {
			return h, 0, err
		}
		h.NbFrames = int(nf) + 2

		den, err := readVarint(data, &pos)
		if err != nil {
			return h, 0, err
		}
		h.Den = int32(den) + 1

		numerator, err := readVarint(data, &pos)
		if err != nil {
			return h, 0, err
		}
		if numerator != 0 {
			h.Num = append(h.Num, int32(numerator))
			for i := 1; i < h.NbFrames; i++ {
				n, err := readVarint(data, &pos)
				if err != nil {
					return h, 0, err
				}
				h.Num = append(h.Num, int32(n))
			}
		}

		loops, err := readVarint(data, &pos)
		if err != nil {
			return h, 0, err
		}
		h.Loops = int32(loops)
	}

	cm, err := readVarint(data, &pos)
	if err != nil {
		return h, 0, err
	}
	h.ColorModel = imagemodel.UnpackColorModel(int32(cm))

	mp, err := readVarint(data, &pos)
	if err != nil {
		return h, 0, err
	}
	h.MaxProperties = int(mp)

	if h.NbChannels < 0 || h.W <= 0 || h.H <= 0 {
		return h, 0, fmt.Errorf("%w: nonsensical dimensions", ErrMalformedHeader)
	}
	return h, pos, nil
}

func readVarint(data []byte, pos *int) (uint64, error) {
	v, n, err := varint.Read(data[*pos:])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	*pos += n
	return v, nil
}
