package transform

import "github.com/cloudinary/fuif/internal/imagemodel"

func init() {
	register(Quantize, handler{
		hasParameters: true,
		apply:         applyQuantize,
	})
}

// applyQuantize divides (forward) or multiplies (inverse) every channel's
// samples and range by that channel's per-channel factor, which is
// carried in the channel's own Q field rather than in the parameter list
// (the parameter list only exists to seed Q when the transform is first
// applied).
func applyQuantize(img *imagemodel.Image, inverse bool, params []int32) error {
	if !inverse {
		for i, q := range params {
			if i >= len(img.Channels) || q <= 0 {
				continue
			}
			ch := img.Channels[i]
			ch.MinVal = truncDiv(ch.MinVal, q)
			ch.MaxVal = truncDiv(ch.MaxVal, q)
			for j, v := range ch.Data {
				ch.Data[j] = truncDiv(v, q)
			}
			ch.Q = q
		}
		return nil
	}
	for _, ch := range img.Channels {
		q := ch.Q
		if q <= 1 {
			continue
		}
		ch.MinVal *= q
		ch.MaxVal *= q
		for j, v := range ch.Data {
			ch.Data[j] = v * q
		}
		ch.Q = 1
	}
	return nil
}

// truncDiv matches the reference's "rounded_div", which despite its name
// is a plain truncating integer division.
func truncDiv(n, d int32) int32 {
	return n / d
}
