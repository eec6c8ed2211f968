package transform

import "github.com/cloudinary/fuif/internal/imagemodel"

func init() {
	register(ChromaSubsample, handler{
		hasParameters: true,
		metaApply:     metaSubsample,
		apply:         applySubsample,
	})
}

// expandSubsampleParams turns the single-value 4:2:0/4:2:2/4:4:0/4:1:1
// shorthand into the full (c1, c2, srh, srv) tuple form.
func expandSubsampleParams(params []int32) []int32 {
	if len(params) != 1 {
		return params
	}
	switch params[0] {
	case 0: // 4:2:0
		return []int32{1, 2, 2, 2}
	case 1: // 4:2:2
		return []int32{1, 2, 2, 1}
	case 2: // 4:4:0
		return []int32{1, 2, 1, 2}
	case 3: // 4:1:1
		return []int32{1, 2, 4, 1}
	default:
		return params
	}
}

func metaSubsample(img *imagemodel.Image, params []int32) ([]int32, error) {
	p := expandSubsampleParams(params)
	if len(p)%4 != 0 {
		return nil, ErrInvalidParameters
	}
	for i := 0; i+3 < len(p); i += 4 {
		c1, c2, srh, srv := p[i], p[i+1], p[i+2], p[i+3]
		for c := c1; c <= c2; c++ {
			ch := img.Channels[c]
			ch.W = (ch.W + int(srh) - 1) / int(srh)
			ch.H = (ch.H + int(srv) - 1) / int(srv)
			ch.Data = make([]int32, ch.W*ch.H)
			if srh != 1 {
				ch.HShift++
				ch.HCShift++
			}
			if srv != 1 {
				ch.VShift++
				ch.VCShift++
			}
		}
	}
	return p, nil
}

// applySubsample only implements the inverse (upscale) direction: lossy
// forward subsampling of already-decorrelated pixel data has no encoder
// here, matching the reference's own fwd_subsample, which is a stub
// because subsampling only pays off on already-4:2:0 source material
// (JPEG/YUV ingest) that this codec does not originate.
func applySubsample(img *imagemodel.Image, inverse bool, params []int32) error {
	if !inverse {
		return ErrInvalidParameters
	}
	p := expandSubsampleParams(params)
	if len(p)%4 != 0 {
		return ErrInvalidParameters
	}
	metaIdx := img.NbMetaChannels
	for i := 0; i+3 < len(p); i += 4 {
		c1, c2, srh, srv := int(p[i]), int(p[i+1]), int(p[i+2]), int(p[i+3])
		for c := c1; c <= c2; c++ {
			ch := img.Channels[c]
			refW, refH := img.Channels[metaIdx].W, img.Channels[metaIdx].H
			if ch.W >= refW && ch.H >= refH {
				continue
			}
			img.Channels[c] = upscaleChannel(ch, srh, srv)
		}
	}
	return nil
}

func upscaleChannel(ch *imagemodel.Channel, srh, srv int) *imagemodel.Channel {
	ow, oh := ch.W, ch.H
	out := imagemodel.NewChannel(ow*srh, oh*srv, ch.Component)
	out.MinVal, out.MaxVal, out.Q = ch.MinVal, ch.MaxVal, ch.Q
	out.HShift, out.VShift = ch.HShift-1, ch.VShift
	out.HCShift, out.VCShift = ch.HCShift-1, ch.VCShift

	if srv <= 2 && srh <= 2 {
		if srh == 2 {
			for y := 0; y < oh; y++ {
				for x := 0; x < ow; x++ {
					left := x
					if left > 0 {
						left = x - 1
					}
					right := x + 1
					if right >= ow {
						right = x
					}
					out.Set(y*srv, x*srh, (3*ch.At(y, x)+ch.At(y, left)+1)>>2)
					out.Set(y*srv, x*srh+1, (3*ch.At(y, x)+ch.At(y, right)+2)>>2)
				}
			}
		} else {
			for y := 0; y < oh; y++ {
				for x := 0; x < ow; x++ {
					out.Set(y*srv, x, ch.At(y, x))
				}
			}
		}
		if srv == 2 {
			orig := make([]int32, len(out.Data))
			copy(orig, out.Data)
			get := func(y, x int) int32 {
				if y < 0 || y >= out.H || x < 0 || x >= out.W {
					return 0
				}
				return orig[y*out.W+x]
			}
			for y := 0; y < oh; y++ {
				for x := 0; x < ow*srh; x++ {
					top := y*srv - srv
					if y == 0 {
						top = 0
					}
					bot := (y + 1) * srv
					if y+1 >= oh {
						bot = y * srv
					}
					out.Set(y*srv, x, (3*get(y*srv, x)+get(top, x)+1)>>2)
					out.Set(y*srv+1, x, (3*get(y*srv, x)+get(bot, x)+2)>>2)
				}
			}
		}
	} else {
		for y := 0; y < oh*srv; y++ {
			for x := 0; x < ow*srh; x++ {
				out.Set(y, x, ch.At(y/srv, x/srh))
			}
		}
	}
	return out
}
