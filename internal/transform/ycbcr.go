package transform

import "github.com/cloudinary/fuif/internal/imagemodel"

func init() {
	register(YCbCr, handler{apply: applyYCbCr})
}

// JPEG-style BT.601 coefficients, matched term-for-term against the
// reference forward/inverse pair rather than derived from kr/kg/kb so
// rounding behaves identically.
func applyYCbCr(img *imagemodel.Image, inverse bool, _ []int32) error {
	if len(img.Channels) < 3 {
		return ErrInvalidParameters
	}
	r, g, b := img.Channels[0], img.Channels[1], img.Channels[2]
	half := float64((img.MaxVal + 1) / 2)

	if !inverse {
		for i := range r.Data {
			rv, gv, bv := float64(r.Data[i]), float64(g.Data[i]), float64(b.Data[i])
			y := 0.299*rv + 0.587*gv + 0.114*bv
			cb := half - 0.168736*rv - 0.331264*gv + 0.5*bv
			cr := half + 0.5*rv - 0.418688*gv - 0.081312*bv
			r.Data[i] = clampImage(y, img)
			g.Data[i] = clampImage(cb, img)
			b.Data[i] = clampImage(cr, img)
		}
	} else {
		for i := range r.Data {
			yy := float64(r.Data[i])
			cb := float64(g.Data[i]) - half
			cr := float64(b.Data[i]) - half
			rv := yy + 1.402*cr + 0.5
			gv := yy - 0.344136*cb - 0.714136*cr + 0.5
			bv := yy + 1.772*cb + 0.5
			r.Data[i] = clampImage(rv, img)
			g.Data[i] = clampImage(gv, img)
			b.Data[i] = clampImage(bv, img)
		}
		for _, ch := range []*imagemodel.Channel{r, g, b} {
			ch.MinVal, ch.MaxVal = 0, img.MaxVal
		}
	}
	return nil
}

func clampImage(v float64, img *imagemodel.Image) int32 {
	iv := int32(v)
	if iv < 0 {
		iv = 0
	}
	if iv > img.MaxVal {
		iv = img.MaxVal
	}
	return iv
}
