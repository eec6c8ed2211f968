package transform

import "github.com/cloudinary/fuif/internal/imagemodel"

func init() {
	register(Permute, handler{
		hasParameters: true,
		apply:         applyPermute,
	})
}

// applyPermute reorders channels [0, len(params)) so new position i holds
// the channel that used to be at params[i]. It is its own inverse given
// the inverse permutation, which Apply computes from params directly so
// callers always pass the forward mapping.
//
// Only the explicit-parameter form is implemented: a permutation carried
// in a meta-channel (the alternative the format allows when parameters
// are empty or params[0]==-1) has no encoder in this codebase, since
// nothing here ever emits that form.
func applyPermute(img *imagemodel.Image, inverse bool, params []int32) error {
	if len(params) == 0 || params[0] == -1 {
		return ErrInvalidParameters
	}
	n := len(params)
	if n > len(img.Channels) {
		return ErrInvalidParameters
	}
	mapping := params
	if inverse {
		mapping = invertPermutation(params)
	}
	permuted := make([]*imagemodel.Channel, n)
	for i, old := range mapping {
		if old < 0 || int(old) >= len(img.Channels) {
			return ErrInvalidParameters
		}
		permuted[i] = img.Channels[old]
	}
	copy(img.Channels[:n], permuted)
	return nil
}

func invertPermutation(params []int32) []int32 {
	inv := make([]int32, len(params))
	for i, old := range params {
		inv[old] = int32(i)
	}
	return inv
}
