package transform

import "github.com/cloudinary/fuif/internal/imagemodel"

func init() {
	register(YCoCg, handler{apply: applyYCoCg})
}

// applyYCoCg is the fully lossless integer color transform:
// Y = ((R+B)>>1 + G) >> 1, Co = R-B, Cg = G - (R+B)>>1.
func applyYCoCg(img *imagemodel.Image, inverse bool, _ []int32) error {
	if len(img.Channels) < 3 {
		return ErrInvalidParameters
	}
	r, g, b := img.Channels[0], img.Channels[1], img.Channels[2]

	if !inverse {
		for i := range r.Data {
			rv, gv, bv := r.Data[i], g.Data[i], b.Data[i]
			rb := (rv + bv) >> 1
			y := (rb + gv) >> 1
			co := rv - bv
			cg := gv - rb
			r.Data[i] = y
			g.Data[i] = co
			b.Data[i] = cg
		}
	} else {
		for i := range r.Data {
			y, co, cg := r.Data[i], g.Data[i], b.Data[i]
			gv := clampSample(y-((-cg)>>1), img.MaxVal)
			bv := clampSample(y+((1-cg)>>1)-(co>>1), img.MaxVal)
			rv := clampSample(co+bv, img.MaxVal)
			r.Data[i] = rv
			g.Data[i] = gv
			b.Data[i] = bv
		}
		for _, ch := range []*imagemodel.Channel{r, g, b} {
			ch.MinVal, ch.MaxVal = 0, img.MaxVal
		}
	}
	return nil
}

// clampSample restricts v to [0, maxVal], the raw sample range of the
// reconstructed R/G/B channels — not the coded Y/Co/Cg channels' own
// (unrelated) [MinVal,MaxVal] bounds.
func clampSample(v, maxVal int32) int32 {
	if v < 0 {
		return 0
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
