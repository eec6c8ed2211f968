package transform

import (
	"sort"

	"github.com/cloudinary/fuif/internal/imagemodel"
)

func init() {
	register(Palette, handler{
		hasParameters: true,
		metaApply:     metaPalette,
		apply:         applyPalette,
	})
}

// metaPalette replaces [begin_c, end_c] with one index channel plus a
// palette meta-channel shaped (nb_colors wide, nb tall), used by the
// decoder to size the two channels before the channel coder fills them.
func metaPalette(img *imagemodel.Image, params []int32) ([]int32, error) {
	if len(params) != 3 {
		return nil, ErrInvalidParameters
	}
	beginc := img.NbMetaChannels + int(params[0])
	endc := img.NbMetaChannels + int(params[1])
	if beginc > endc || endc >= len(img.Channels) {
		return nil, ErrInvalidParameters
	}
	nb := endc - beginc + 1
	nbColors := params[2]

	img.NbMetaChannels++
	img.NbChannels -= nb - 1
	img.RemoveRange(beginc+1, endc+1)

	pch := imagemodel.NewChannel(int(nbColors), nb, 0)
	pch.MaxVal = 1
	pch.HShift = -1
	img.InsertChannel(0, pch)
	return params, nil
}

// applyPalette builds (forward) or expands (inverse) a color palette for
// channels [begin_c, end_c]. Forward fails (returns ErrInvalidParameters)
// if the image uses more than nb_colors distinct colors.
func applyPalette(img *imagemodel.Image, inverse bool, params []int32) error {
	if len(params) != 3 {
		return ErrInvalidParameters
	}
	if inverse {
		return invPalette(img, params)
	}
	return fwdPalette(img, params)
}

func fwdPalette(img *imagemodel.Image, params []int32) error {
	beginc := img.NbMetaChannels + int(params[0])
	endc := img.NbMetaChannels + int(params[1])
	if beginc > endc || endc >= len(img.Channels) {
		return ErrInvalidParameters
	}
	nb := endc - beginc + 1
	maxColors := int(params[2])

	w, h := img.Channels[beginc].W, img.Channels[beginc].H
	seen := map[string]bool{}
	var palette [][]int32
	color := make([]int32, nb)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < nb; c++ {
				color[c] = img.Channels[beginc+c].At(y, x)
			}
			key := colorKey(color)
			if !seen[key] {
				seen[key] = true
				entry := make([]int32, nb)
				copy(entry, color)
				palette = append(palette, entry)
				if len(palette) > maxColors {
					return ErrInvalidParameters
				}
			}
		}
	}
	sort.Slice(palette, func(i, j int) bool { return lessColor(palette[i], palette[j]) })
	nbColors := len(palette)
	index := make(map[string]int32, nbColors)
	for i, p := range palette {
		index[colorKey(p)] = int32(i)
	}

	pch := imagemodel.NewChannel(nbColors, nb, 0)
	pch.MaxVal = 1
	pch.HShift = -1
	for i := 0; i < nb; i++ {
		for x := 0; x < nbColors; x++ {
			pch.Set(i, x, palette[x][i])
		}
	}

	idxCh := imagemodel.NewChannel(w, h, img.Channels[beginc].Component)
	idxCh.MinVal, idxCh.MaxVal = 0, int32(nbColors-1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < nb; c++ {
				color[c] = img.Channels[beginc+c].At(y, x)
			}
			idxCh.Set(y, x, index[colorKey(color)])
		}
	}

	img.NbMetaChannels++
	img.NbChannels -= nb - 1
	img.Channels[beginc] = idxCh
	img.RemoveRange(beginc+1, endc+1)
	img.InsertChannel(0, pch)
	return nil
}

func invPalette(img *imagemodel.Image, params []int32) error {
	if img.NbMetaChannels < 1 {
		return ErrInvalidParameters
	}
	nb := img.Channels[0].H
	c0 := img.NbMetaChannels + int(params[0])
	if c0 >= len(img.Channels) {
		return ErrInvalidParameters
	}
	w, h := img.Channels[c0].W, img.Channels[c0].H
	palette := img.Channels[0]

	for i := 1; i < nb; i++ {
		ch := imagemodel.NewChannel(w, h, int(params[0])+i)
		img.InsertChannel(c0+i, ch)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := img.Channels[c0].At(y, x)
			if idx < 0 {
				idx = 0
			}
			if idx >= int32(palette.W) {
				idx = int32(palette.W) - 1
			}
			for c := 0; c < nb; c++ {
				img.Channels[c0+c].Set(y, x, palette.At(c, int(idx)))
			}
		}
	}
	img.NbChannels += nb - 1
	img.NbMetaChannels--
	img.RemoveRange(0, 1)
	return nil
}

func colorKey(c []int32) string {
	b := make([]byte, 0, len(c)*5)
	for _, v := range c {
		b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v), ',')
	}
	return string(b)
}

func lessColor(a, b []int32) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
