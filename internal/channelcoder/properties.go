package channelcoder

import (
	"math/bits"

	"github.com/cloudinary/fuif/internal/imagemodel"
	"github.com/cloudinary/fuif/internal/maniac"
)

// NonRefProperties is the count of fixed per-pixel properties computed
// from the current channel alone (neighbors, location, gradients, FFV1
// context terms), independent of how many reference channels precede the
// group.
const NonRefProperties = 13

// slog is the signed log-like property term: sgn(x)*(32-clz(|x|)), i.e.
// one more than the floor-log2 magnitude, carrying the sign of x.
func slog(x int32) int32 {
	if x == 0 {
		return 0
	}
	if x > 0 {
		return int32(bits.Len32(uint32(x)))
	}
	return -int32(bits.Len32(uint32(-x)))
}

// InitPropertyRanges computes the PropertyRange vector for the
// channel-group [beginc,endc]: two entries per eligible prior channel
// (up to maxProperties of them), followed by the 13 fixed local-property
// ranges derived from the group's own value range and dimensions.
func InitPropertyRanges(img *imagemodel.Image, beginc, endc, maxProperties int) maniac.Ranges {
	var pr maniac.Ranges
	offset := 0
	for j := beginc - 1; j >= 0 && offset < maxProperties; j-- {
		rc := img.Channels[j]
		if rc.MinVal == rc.MaxVal {
			continue
		}
		if rc.HShift < 0 {
			continue
		}
		minv, maxv := rc.MinVal, rc.MaxVal
		if minv > 0 {
			minv = 0
		}
		if maxv < 0 {
			maxv = 0
		}
		amax := maxv
		if -minv > amax {
			amax = -minv
		}
		pr = append(pr, maniac.Range{Lo: 0, Hi: maniac.Abs(amax)})
		pr = append(pr, maniac.Range{Lo: slog(minv), Hi: slog(maxv)})
		offset += 2
	}

	minval := imagemodel.LargestVal
	maxval := imagemodel.SmallestVal
	maxh, maxw := 0, 0
	for j := beginc; j <= endc; j++ {
		ch := img.Channels[j]
		if ch.MinVal < minval {
			minval = ch.MinVal
		}
		if ch.MaxVal > maxval {
			maxval = ch.MaxVal
		}
		if ch.H > maxh {
			maxh = ch.H
		}
		if ch.W > maxw {
			maxw = ch.W
		}
	}
	if minval > 0 {
		minval = 0
	}
	if maxval < 0 {
		maxval = 0
	}

	absBound := maniac.Abs(minval)
	if maniac.Abs(maxval) > absBound {
		absBound = maniac.Abs(maxval)
	}
	diffLo := minval + minval - maxval
	diffHi := maxval + maxval - minval
	ffvLo, ffvHi := slog(minval-maxval), slog(maxval-minval)

	pr = append(pr,
		maniac.Range{Lo: 0, Hi: absBound},
		maniac.Range{Lo: 0, Hi: absBound},
		maniac.Range{Lo: slog(minval), Hi: slog(maxval)},
		maniac.Range{Lo: slog(minval), Hi: slog(maxval)},
		maniac.Range{Lo: 0, Hi: int32(maxh - 1)},
		maniac.Range{Lo: 0, Hi: int32(maxw - 1)},
		maniac.Range{Lo: diffLo, Hi: diffHi},
		maniac.Range{Lo: diffLo, Hi: diffHi},
		maniac.Range{Lo: ffvLo, Hi: ffvHi},
		maniac.Range{Lo: ffvLo, Hi: ffvHi},
		maniac.Range{Lo: ffvLo, Hi: ffvHi},
		maniac.Range{Lo: ffvLo, Hi: ffvHi},
		maniac.Range{Lo: ffvLo, Hi: ffvHi},
	)
	return pr
}

// precomputeReferenceRow fills, for every column of row y of ch, the
// |v| and slog(v) reference properties contributed by each eligible
// prior channel, accounting for the two channels' relative hshift/vshift
// (nearest-neighbor upsample when the reference is smaller, subsample
// when it's larger; edge columns/rows clamp to the reference's last).
func precomputeReferenceRow(img *imagemodel.Image, beginc int, ch *imagemodel.Channel, y, maxProperties, nRefCols int) [][]int32 {
	refs := make([][]int32, ch.W)
	buf := make([]int32, ch.W*nRefCols)
	for x := range refs {
		refs[x] = buf[x*nRefCols : (x+1)*nRefCols]
	}
	if nRefCols == 0 {
		return refs
	}
	offset := 0
	oy := y << uint(ch.VShift)
	for j := beginc - 1; j >= 0 && offset < maxProperties; j-- {
		rc := img.Channels[j]
		if rc.MinVal == rc.MaxVal {
			continue
		}
		if rc.HShift < 0 {
			continue
		}
		ry := oy >> uint(rc.VShift)
		if ry >= rc.H {
			ry = rc.H - 1
		}
		for x := 0; x < ch.W; x++ {
			ox := x << uint(ch.HShift)
			rx := ox >> uint(rc.HShift)
			if rx >= rc.W {
				rx = rc.W - 1
			}
			v := rc.At(ry, rx)
			refs[x][offset] = maniac.Abs(v)
			refs[x][offset+1] = slog(v)
		}
		offset += 2
	}
	return refs
}

// neighbors reads the causal samples a pixel's properties and predictor
// depend on, applying the documented edge fallbacks: a missing topleft
// falls back to left, a missing topright to top, and so on; left and top
// themselves fall back to ch.Zero via Channel.At's own edge behavior.
func neighbors(ch *imagemodel.Channel, y, x int) (left, top, topleft, topright, leftleft, toptop int32) {
	left = ch.At(y, x-1)
	top = ch.At(y-1, x)
	topleft = left
	if x > 0 && y > 0 {
		topleft = ch.At(y-1, x-1)
	}
	topright = top
	if x+1 < ch.W && y > 0 {
		topright = ch.At(y-1, x+1)
	}
	leftleft = left
	if x > 1 {
		leftleft = ch.At(y, x-2)
	}
	toptop = top
	if y > 1 {
		toptop = ch.At(y-2, x)
	}
	return
}

// localProperties writes the 13 fixed per-pixel properties into out, in
// the order the bitstream fixes them.
func localProperties(y, x int, left, top, topleft, topright, leftleft, toptop int32, out []int32) {
	out[0] = maniac.Abs(top)
	out[1] = maniac.Abs(left)
	out[2] = slog(top)
	out[3] = slog(left)
	out[4] = int32(y)
	out[5] = int32(x)
	out[6] = left + top - topleft
	out[7] = topleft + topright - top
	out[8] = slog(left - topleft)
	out[9] = slog(topleft - top)
	out[10] = slog(top - topright)
	out[11] = slog(top - toptop)
	out[12] = slog(left - leftleft)
}

// fillProperties assembles the full property vector for pixel (y,x) of
// ch into props (reference columns first, then the 13 local ones) and
// returns the predictor's guess for that pixel.
func fillProperties(props []int32, ch *imagemodel.Channel, y, x, predictor int, refs []int32) int32 {
	copy(props, refs)
	left, top, topleft, topright, leftleft, toptop := neighbors(ch, y, x)
	localProperties(y, x, left, top, topleft, topright, leftleft, toptop, props[len(refs):])
	return Predict(predictor, left, top, topleft, topright, ch.Zero, ch.MinVal, ch.MaxVal)
}
