package transform

import "github.com/cloudinary/fuif/internal/imagemodel"

func init() {
	register(Approximate, handler{
		hasParameters: true,
		metaApply:     metaApproximate,
		apply:         applyApproximate,
	})
}

// approxDivisor returns the actual divisor (q_param+1) for channel c,
// where q_param is taken from params[c+2-beginc] if present, else the
// last parameter supplied (a channel range can share one trailing q).
func approxDivisor(params []int32, beginc, c int32) int32 {
	idx := c + 2 - beginc
	if int(idx) < len(params) {
		return params[idx] + 1
	}
	return params[len(params)-1] + 1
}

// metaApproximate appends one remainder channel, cloned from its source
// channel's shape, for every source channel whose divisor is not 1 (q
// param nonzero). Appended channels land at the end of the channel list
// in beginc..endc order, which is where Apply expects to find them.
func metaApproximate(img *imagemodel.Image, params []int32) ([]int32, error) {
	if len(params) < 3 {
		return nil, ErrInvalidParameters
	}
	beginc, endc := params[0], params[1]
	if beginc < 0 || endc >= int32(len(img.Channels)) || beginc > endc {
		return nil, ErrInvalidParameters
	}
	for c := beginc; c <= endc; c++ {
		if approxDivisor(params, beginc, c) == 1 {
			continue
		}
		src := img.Channels[c]
		rem := imagemodel.NewChannel(src.W, src.H, src.Component)
		rem.HShift, rem.VShift = src.HShift, src.VShift
		rem.HCShift, rem.VCShift = src.HCShift, src.VCShift
		img.Channels = append(img.Channels, rem)
	}
	return params, nil
}

func applyApproximate(img *imagemodel.Image, inverse bool, params []int32) error {
	if len(params) < 3 {
		return ErrInvalidParameters
	}
	beginc, endc := params[0], params[1]

	if !inverse {
		offset := len(img.Channels) - countApproxRemainders(params, beginc, endc)
		i := 0
		for c := beginc; c <= endc; c++ {
			q := approxDivisor(params, beginc, c)
			if q == 1 {
				continue
			}
			ch := img.Channels[c]
			rem := img.Channels[offset+i]
			i++
			for j, p := range ch.Data {
				quotient := p / q
				r := p % q
				if r < 0 {
					quotient--
					r += q
				}
				ch.Data[j] = quotient
				rem.Data[j] = r
			}
			ch.MinVal = truncDiv(ch.MinVal, q)
			ch.MaxVal = truncDiv(ch.MaxVal, q)
			rem.MinVal, rem.MaxVal = 0, q-1
			rem.Q = ch.Q
		}
		return nil
	}

	offset := len(img.Channels) - countApproxRemainders(params, beginc, endc)
	i := 0
	for c := beginc; c <= endc; c++ {
		q := approxDivisor(params, beginc, c)
		if q == 1 {
			continue
		}
		ch := img.Channels[c]
		rem := img.Channels[offset+i]
		i++
		if len(rem.Data) == 0 {
			ch.Q = rem.Q
		} else {
			ch.Q = rem.Q
		}
		for j, p := range ch.Data {
			v := p * q
			if len(rem.Data) != 0 {
				v += rem.Data[j]
			}
			ch.Data[j] = v
		}
	}
	img.Channels = img.Channels[:offset]
	return nil
}

func countApproxRemainders(params []int32, beginc, endc int32) int {
	n := 0
	for c := beginc; c <= endc; c++ {
		if approxDivisor(params, beginc, c) != 1 {
			n++
		}
	}
	return n
}
