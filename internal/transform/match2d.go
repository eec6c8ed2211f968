package transform

import "github.com/cloudinary/fuif/internal/imagemodel"

func init() {
	register(Match2D, handler{
		hasParameters: true,
		metaApply:     metaMatch,
		apply:         applyMatch,
	})
}

type offset struct{ dx, dy int32 }

// computeOffset enumerates the spiral of 2D offsets into the scanline
// past, onion-ring by onion-ring, the same generalization of lossless
// WebP's distance codes the reference uses.
func computeOffset(code int) offset {
	layer := 0
	layerSize := 4
	for code > layerSize {
		code -= layerSize
		layer++
		layerSize += 4
	}
	var xoff, yoff int32
	if layer&1 != 0 {
		switch {
		case code <= layer:
			xoff, yoff = int32(1+layer), int32(-code)
		case code <= 3+3*layer:
			xoff, yoff = int32(2+2*layer-code), int32(-1-layer)
		default:
			xoff, yoff = int32(-1-layer), int32(-4-4*layer+code)
		}
	} else {
		switch {
		case code <= 1+layer:
			xoff, yoff = int32(-1-layer), int32(1-code)
		case code <= 4+3*layer:
			xoff, yoff = int32(-3-2*layer+code), int32(-1-layer)
		default:
			xoff, yoff = int32(1+layer), int32(-5-4*layer+code)
		}
	}
	return offset{xoff, yoff}
}

func makeOffsetsTable(n int) []offset {
	t := make([]offset, n)
	for i := 1; i < n; i++ {
		t[i] = computeOffset(i)
	}
	return t
}

func defaultMatchParams(img *imagemodel.Image) []int32 {
	return []int32{0, int32(img.NbChannels - 1), 0, 1000000}
}

// metaMatch inserts the single match-offset meta-channel that records,
// per pixel, which spiral offset (or which earlier frame) it matches.
func metaMatch(img *imagemodel.Image, params []int32) ([]int32, error) {
	p := params
	if len(p) == 0 {
		p = defaultMatchParams(img)
	}
	if len(p) < 3 {
		return nil, ErrInvalidParameters
	}
	beginc := img.NbMetaChannels + int(p[0])
	if beginc >= len(img.Channels) {
		return nil, ErrInvalidParameters
	}
	mch := imagemodel.NewChannel(img.Channels[beginc].W, img.Channels[beginc].H, 0)
	mch.MaxVal = 1
	img.NbMetaChannels++
	img.InsertChannel(0, mch)
	return p, nil
}

func applyMatch(img *imagemodel.Image, inverse bool, params []int32) error {
	if inverse {
		return invMatch(img, params)
	}
	return fwdMatch(img, params)
}

func invMatch(img *imagemodel.Image, params []int32) error {
	if img.NbMetaChannels < 1 {
		return ErrInvalidParameters
	}
	p := params
	if len(p) == 0 {
		p = defaultMatchParams(img)
	}
	if len(p) < 3 {
		return ErrInvalidParameters
	}
	m := img.Channels[0]
	c0 := img.NbMetaChannels + int(p[0])
	cn := img.NbMetaChannels + int(p[1])
	if c0 >= len(img.Channels) || cn >= len(img.Channels) {
		return ErrInvalidParameters
	}
	w, h := img.Channels[c0].W, img.Channels[c0].H
	softmatch := p[2] != 0

	if m.Q == 1 {
		ot := makeOffsetsTable(int(m.MaxVal) + 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				z := m.At(y, x)
				if z == 0 {
					continue
				}
				o := ot[z]
				for c := c0; c <= cn; c++ {
					ch := img.Channels[c]
					ref := ch.At(y+int(o.dy), x+int(o.dx))
					if softmatch {
						ch.Set(y, x, ch.At(y, x)^ref)
					} else {
						ch.Set(y, x, ref)
					}
				}
			}
		}
	} else {
		fh := h / img.NbFrames
		offsetcode := int32(2*fh*fh) + int32(fh&1)
		if m.Q != offsetcode {
			return ErrInvalidParameters
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				z := m.At(y, x)
				if z == 0 {
					continue
				}
				for c := c0; c <= cn; c++ {
					ch := img.Channels[c]
					ref := ch.At(y-int(z)*fh, x)
					if softmatch {
						ch.Set(y, x, ch.At(y, x)^ref)
					} else {
						ch.Set(y, x, ref)
					}
				}
			}
		}
	}
	img.NbMetaChannels--
	img.RemoveRange(0, 1)
	return nil
}

// fwdMatch implements the animation branch (maxdist <= 0): match each
// pixel against the corresponding pixel n frames back, run-length
// gated by minmatchcount, then erode isolated matches near block edges
// using an explicit bool mask (three N/W/S/E passes, current-state
// reads, per the documented erode-order requirement). The general
// intra-frame spiral search (maxdist > 0) is not implemented and
// returns ErrInvalidParameters; that includes an empty parameter list
// or one without a maxdist entry, since both leave maxdist at 1000000.
func fwdMatch(img *imagemodel.Image, params []int32) error {
	p := params
	if len(p) == 0 {
		p = defaultMatchParams(img)
	}
	if len(p) < 3 {
		return ErrInvalidParameters
	}
	c0 := img.NbMetaChannels + int(p[0])
	cn := img.NbMetaChannels + int(p[1])
	if c0 >= len(img.Channels) || cn >= len(img.Channels) {
		return ErrInvalidParameters
	}
	maxdist := int32(1000000)
	if len(p) > 3 {
		maxdist = p[3]
	}
	if maxdist > 0 {
		return ErrInvalidParameters
	}
	if img.NbFrames < 2 {
		return ErrInvalidParameters
	}
	softmatch := p[2] != 0
	m := img.Channels[0]
	w, h := img.Channels[c0].W, img.Channels[c0].H
	fh := h / img.NbFrames
	offsetcode := int32(2*fh*fh) + int32(fh&1)
	m.Q = offsetcode
	minmatchcount := clampInt(w/50, 5, 40)

	for n := int32(1); n <= -maxdist; n++ {
		for y := int(n) * fh; y < h; y++ {
			matchcount := 0
			firstmatch := true
			for x := 0; x < w; x++ {
				if m.At(y, x) != 0 {
					continue
				}
				nomatch := false
				for c := c0; c <= cn; c++ {
					if img.Channels[c].At(y, x) != img.Channels[c].At(y-int(n)*fh, x) {
						nomatch = true
						break
					}
				}
				if nomatch {
					matchcount = 0
					firstmatch = true
					continue
				}
				matchcount++
				if matchcount >= minmatchcount {
					if firstmatch {
						for px := x - matchcount + 1; px < x; px++ {
							m.Set(y, px, n)
						}
					}
					firstmatch = false
					m.Set(y, x, n)
				}
			}
		}
	}

	flagged := erodeMatchMask(m, fh, w, h)

	// Pixels the erosion flagged keep their real sample value (eroding
	// them out of the "confirmed match" set only drops them from the
	// zero-out optimization below; m itself still records the match, so
	// decode still reconstructs them from the reference — see
	// erodeMatchMask's doc comment for why this is still round-trip
	// correct either way).
	for y := fh; y < h; y++ {
		for x := 0; x < w; x++ {
			z := m.At(y, x)
			if z > 0 && !flagged[y*w+x] {
				for c := c0; c <= cn; c++ {
					ch := img.Channels[c]
					if softmatch {
						ch.Set(y, x, ch.At(y, x)^ch.At(y-int(z)*fh, x))
					} else {
						ch.Set(y, x, 0)
					}
				}
			}
		}
	}
	return nil
}

// erodeMatchMask runs three top-to-bottom passes flagging every matched
// pixel whose N/W/S/E neighbor is unmatched, then returns the flags —
// used to reduce match-channel entropy at block edges. The flag is
// tracked in a separate bool mask rather than by negating m in place,
// but each pass still reads the current state: a flagged pixel reads as
// "not matched" to every neighbor check, including ones made earlier in
// the very same pass (flags are never reset between the three passes),
// matching the reference's in-place sign-flip behavior. Leaving a
// flagged pixel's m entry untouched and its sample unzeroed is still
// round-trip correct: decode overwrites every m!=0 pixel from the
// reference regardless, and m was only ever set where the two already
// matched exactly.
func erodeMatchMask(m *imagemodel.Channel, fh, w, h int) []bool {
	flagged := make([]bool, w*h)
	eff := func(y, x int) int32 {
		v := m.At(y, x)
		if y >= 0 && y < h && x >= 0 && x < w && flagged[y*w+x] {
			return -v
		}
		return v
	}
	for it := 0; it < 3; it++ {
		for y := fh; y < h; y++ {
			for x := 0; x < w; x++ {
				if flagged[y*w+x] || m.At(y, x) <= 0 {
					continue
				}
				if eff(y-1, x) == 0 ||
					(x > 0 && eff(y, x-1) == 0) ||
					(y+1 < h && eff(y+1, x) <= 0) ||
					(x+1 < w && eff(y, x+1) <= 0) {
					flagged[y*w+x] = true
				}
			}
		}
	}
	return flagged
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
