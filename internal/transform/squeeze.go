package transform

import "github.com/cloudinary/fuif/internal/imagemodel"

func init() {
	register(Squeeze, handler{
		hasParameters: true,
		metaApply:     metaSqueeze,
		apply:         applySqueeze,
	})
}

// maxFirstPreviewSize is the LQIP dimension bound (8 pixels).
// defaultSqueezeParams does not consult it: the default schedule is a
// single squeeze step regardless of image size.
const maxFirstPreviewSize = 8

// smoothTendency estimates C-D for a Haar-style lifting step so the
// decoded halves stay monotone with their neighbors, avoiding ringing.
func smoothTendency(b, a, n int32) int32 {
	var diff int32
	switch {
	case b >= a && a >= n:
		diff = (4*b - 3*n - a + 6) / 12
		if diff-(diff&1) > 2*(b-a) {
			diff = 2*(b-a) + 1
		}
		if diff+(diff&1) > 2*(a-n) {
			diff = 2 * (a - n)
		}
	case b <= a && a <= n:
		diff = (4*b - 3*n - a - 6) / 12
		if diff+(diff&1) < 2*(b-a) {
			diff = 2*(b-a) - 1
		}
		if diff-(diff&1) < 2*(a-n) {
			diff = 2 * (a - n)
		}
	}
	return diff
}

func reconstructA(avg, diff int32) int32 {
	var adj int32
	if diff > 0 {
		adj = -(diff & 1)
	} else {
		adj = diff & 1
	}
	return ((avg << 1) + diff + adj) >> 1
}

// defaultSqueezeParams produces one squeeze step, horizontal on wide
// images and vertical otherwise, covering channels
// [nb_meta_channels, nb_meta_channels+nb_channels-1]. The direction is
// taken from the image's own W/H, which squeezing never changes, so the
// forward pass, MetaApply and the inverse pass all derive the same list.
func defaultSqueezeParams(img *imagemodel.Image) []int32 {
	beginc := int32(img.NbMetaChannels)
	endc := int32(img.NbMetaChannels + img.NbChannels - 1)
	if endc < beginc {
		return nil
	}
	w := img.W
	h := img.H
	var params []int32
	if w > h {
		params = append(params, 1, beginc, endc)
	} else {
		params = append(params, 0, beginc, endc)
	}
	return params
}

func metaSqueeze(img *imagemodel.Image, params []int32) ([]int32, error) {
	p := params
	if len(p) == 0 {
		p = defaultSqueezeParams(img)
	}
	if len(p)%3 != 0 {
		return nil, ErrInvalidParameters
	}
	for i := 0; i+2 < len(p); i += 3 {
		horizontal := p[i]&1 != 0
		inPlace := p[i]&2 == 0
		beginc, endc := int(p[i+1]), int(p[i+2])
		var offset int
		if inPlace {
			offset = endc + 1
		} else {
			offset = img.NbMetaChannels + img.NbChannels
		}
		for c := beginc; c <= endc; c++ {
			ch := img.Channels[c]
			dummy := imagemodel.NewChannel(0, 0, ch.Component)
			dummy.HCShift, dummy.VCShift = ch.HCShift, ch.VCShift
			if horizontal {
				w := ch.W
				ch.W = (w + 1) / 2
				ch.HShift++
				ch.HCShift++
				dummy.W = w - (w+1)/2
				dummy.H = ch.H
			} else {
				h := ch.H
				ch.H = (h + 1) / 2
				ch.VShift++
				ch.VCShift++
				dummy.H = h - (h+1)/2
				dummy.W = ch.W
			}
			dummy.HShift, dummy.VShift = ch.HShift, ch.VShift
			dummy.Data = make([]int32, dummy.W*dummy.H)
			img.InsertChannel(offset+c-beginc, dummy)
		}
	}
	return p, nil
}

func applySqueeze(img *imagemodel.Image, inverse bool, params []int32) error {
	p := params
	if len(p) == 0 {
		p = defaultSqueezeParams(img)
	}
	if len(p)%3 != 0 {
		return ErrInvalidParameters
	}
	if inverse {
		for i := len(p) - 3; i >= 0; i -= 3 {
			horizontal := p[i]&1 != 0
			inPlace := p[i]&2 == 0
			beginc, endc := int(p[i+1]), int(p[i+2])
			var offset int
			if inPlace {
				offset = endc + 1
			} else {
				offset = img.NbMetaChannels + img.NbChannels
			}
			for c := beginc; c <= endc; c++ {
				rc := offset + c - beginc
				if horizontal {
					invHSqueeze(img, c, rc)
				} else {
					invVSqueeze(img, c, rc)
				}
			}
			img.RemoveRange(offset, offset+(endc-beginc+1))
		}
		return nil
	}
	for i := 0; i+2 < len(p); i += 3 {
		horizontal := p[i]&1 != 0
		inPlace := p[i]&2 == 0
		beginc, endc := int(p[i+1]), int(p[i+2])
		var offset int
		if inPlace {
			offset = endc + 1
		} else {
			offset = img.NbMetaChannels + img.NbChannels
		}
		for c := beginc; c <= endc; c++ {
			rc := offset + c - beginc
			if horizontal {
				fwdHSqueeze(img, c, rc)
			} else {
				fwdVSqueeze(img, c, rc)
			}
		}
	}
	return nil
}

func fwdHSqueeze(img *imagemodel.Image, c, rc int) {
	chin := img.Channels[c]
	outW := (chin.W + 1) / 2
	chout := imagemodel.NewChannel(outW, chin.H, chin.Component)
	chout.MinVal, chout.MaxVal, chout.Q = chin.MinVal, chin.MaxVal, chin.Q
	chout.HShift, chout.VShift = chin.HShift+1, chin.VShift
	chout.HCShift, chout.VCShift = chin.HCShift+1, chin.VCShift

	residW := chin.W - outW
	resid := imagemodel.NewChannel(residW, chout.H, chin.Component)
	resid.MinVal, resid.MaxVal, resid.Q = chout.MinVal-chout.MaxVal, chout.MaxVal-chout.MinVal, 1
	resid.HShift, resid.VShift = chin.HShift+1, chin.VShift
	resid.HCShift, resid.VCShift = chin.HCShift, chin.VCShift

	for y := 0; y < chout.H; y++ {
		for x := 0; x < residW; x++ {
			a := chin.At(y, x*2)
			b := gt32(a, chin.At(y, x*2+1))
			bb := chin.At(y, x*2+1)
			avg := (a + bb + b) >> 1
			chout.Set(y, x, avg)
			diff := a - bb
			nextAvg := avg
			if x+1 < residW {
				a2 := chin.At(y, x*2+2)
				b2 := chin.At(y, x*2+3)
				nextAvg = (a2 + b2 + gt32(a2, b2)) >> 1
			} else if chin.W&1 != 0 {
				nextAvg = chin.At(y, x*2+2)
			}
			left := avg
			if x > 0 {
				left = chin.At(y, x*2-1)
			}
			tendency := smoothTendency(left, avg, nextAvg)
			resid.Set(y, x, diff-tendency)
		}
		if chin.W&1 != 0 {
			x := chout.W - 1
			chout.Set(y, x, chin.At(y, x*2))
		}
	}
	img.Channels[c] = chout
	img.InsertChannel(rc, resid)
}

func invHSqueeze(img *imagemodel.Image, c, rc int) {
	chin := img.Channels[c]
	chinResid := img.Channels[rc]
	chout := imagemodel.NewChannel(chin.W+chinResid.W, chin.H, chin.Component)
	chout.MinVal, chout.MaxVal, chout.Q = chin.MinVal, chin.MaxVal, chin.Q
	chout.HShift, chout.VShift = chin.HShift-1, chin.VShift
	chout.HCShift, chout.VCShift = chin.HCShift-1, chin.VCShift

	for y := 0; y < chin.H; y++ {
		avg := chin.At(y, 0)
		nextAvg := avg
		if chin.W > 1 {
			nextAvg = chin.At(y, 1)
		}
		tendency := smoothTendency(avg, avg, nextAvg)
		diff := chinResid.At(y, 0) + tendency
		a := reconstructA(avg, diff)
		b := a - diff
		chout.Set(y, 0, a)
		chout.SetDiscard(y, 1, b)
		for x := 1; x < chinResid.W; x++ {
			diffMinusTendency := chinResid.At(y, x)
			avg := chin.At(y, x)
			nextAvg := avg
			if x+1 < chin.W {
				nextAvg = chin.At(y, x+1)
			}
			left := chout.At(y, (x<<1)-1)
			tendency := smoothTendency(left, avg, nextAvg)
			diff := diffMinusTendency + tendency
			a := reconstructA(avg, diff)
			chout.Set(y, x<<1, a)
			chout.Set(y, (x<<1)+1, a-diff)
		}
		if chout.W&1 != 0 {
			chout.Set(y, chout.W-1, chin.At(y, chin.W-1))
		}
	}
	chout.MinVal, chout.MaxVal = chout.ActualMinMax()
	img.Channels[c] = chout
}

func fwdVSqueeze(img *imagemodel.Image, c, rc int) {
	chin := img.Channels[c]
	outH := (chin.H + 1) / 2
	chout := imagemodel.NewChannel(chin.W, outH, chin.Component)
	chout.MinVal, chout.MaxVal, chout.Q = chin.MinVal, chin.MaxVal, chin.Q
	chout.HShift, chout.VShift = chin.HShift, chin.VShift+1
	chout.HCShift, chout.VCShift = chin.HCShift, chin.VCShift+1

	residH := chin.H - outH
	resid := imagemodel.NewChannel(chin.W, residH, chin.Component)
	resid.MinVal, resid.MaxVal, resid.Q = chout.MinVal-chout.MaxVal, chout.MaxVal-chout.MinVal, 1
	resid.HShift, resid.VShift = chin.HShift, chin.VShift+1
	resid.HCShift, resid.VCShift = chin.HCShift, chin.VCShift

	for y := 0; y < residH; y++ {
		for x := 0; x < chout.W; x++ {
			a := chin.At(y*2, x)
			b := chin.At(y*2+1, x)
			avg := (a + b + gt32(a, b)) >> 1
			chout.Set(y, x, avg)
			diff := a - b
			nextAvg := avg
			if y+1 < residH {
				a2 := chin.At(y*2+2, x)
				b2 := chin.At(y*2+3, x)
				nextAvg = (a2 + b2 + gt32(a2, b2)) >> 1
			} else if chin.H&1 != 0 {
				nextAvg = chin.At(y*2+2, x)
			}
			top := avg
			if y > 0 {
				top = chin.At(y*2-1, x)
			}
			tendency := smoothTendency(top, avg, nextAvg)
			resid.Set(y, x, diff-tendency)
		}
	}
	if chin.H&1 != 0 {
		y := chout.H - 1
		for x := 0; x < chout.W; x++ {
			chout.Set(y, x, chin.At(y*2, x))
		}
	}
	img.Channels[c] = chout
	img.InsertChannel(rc, resid)
}

func invVSqueeze(img *imagemodel.Image, c, rc int) {
	chin := img.Channels[c]
	chinResid := img.Channels[rc]
	chout := imagemodel.NewChannel(chin.W, chin.H+chinResid.H, chin.Component)
	chout.MinVal, chout.MaxVal, chout.Q = chin.MinVal, chin.MaxVal, chin.Q
	chout.HShift, chout.VShift = chin.HShift, chin.VShift-1
	chout.HCShift, chout.VCShift = chin.HCShift, chin.VCShift-1

	for x := 0; x < chin.W; x++ {
		avg := chin.At(0, x)
		nextAvg := avg
		if chin.H > 1 {
			nextAvg = chin.At(1, x)
		}
		tendency := smoothTendency(avg, avg, nextAvg)
		diff := chinResid.At(0, x) + tendency
		a := reconstructA(avg, diff)
		chout.Set(0, x, a)
		chout.SetDiscard(1, x, a-diff)
	}
	for y := 1; y < chinResid.H; y++ {
		for x := 0; x < chin.W; x++ {
			diffMinusTendency := chinResid.At(y, x)
			avg := chin.At(y, x)
			nextAvg := avg
			if y+1 < chin.H {
				nextAvg = chin.At(y+1, x)
			}
			top := chout.At((y<<1)-1, x)
			tendency := smoothTendency(top, avg, nextAvg)
			diff := diffMinusTendency + tendency
			a := reconstructA(avg, diff)
			chout.Set(y<<1, x, a)
			chout.Set((y<<1)+1, x, a-diff)
		}
	}
	if chout.H&1 != 0 {
		y := chin.H - 1
		for x := 0; x < chin.W; x++ {
			chout.Set(y<<1, x, chin.At(y, x))
		}
	}
	chout.MinVal, chout.MaxVal = chout.ActualMinMax()
	img.Channels[c] = chout
}

func gt32(a, b int32) int32 {
	if a > b {
		return 1
	}
	return 0
}
