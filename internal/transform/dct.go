package transform

import (
	"math"

	"github.com/cloudinary/fuif/internal/imagemodel"
)

func init() {
	register(DCT, handler{
		hasParameters: true,
		metaApply:     metaDCT,
		apply:         applyDCT,
	})
}

// jpegZigzag is the standard JPEG zigzag scan order for an 8x8 block,
// giving each of the 64 DCT coefficients a fixed subchannel slot so low
// frequencies (which matter most) come first in the channel list.
var jpegZigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

var dctCos [8][8]float64

func init() {
	for u := 0; u < 8; u++ {
		for x := 0; x < 8; x++ {
			dctCos[u][x] = math.Cos(float64((2*x+1)*u) * math.Pi / 16)
		}
	}
}

func dctAlpha(u int) float64 {
	if u == 0 {
		return 1 / math.Sqrt2
	}
	return 1
}

// forwardDCT8x8 computes the separable 2-D DCT-II of an 8x8 block,
// writing coefficients in zigzag order.
func forwardDCT8x8(block [64]float64, out *[64]float64) {
	var tmp [8][8]float64
	for y := 0; y < 8; y++ {
		for u := 0; u < 8; u++ {
			var sum float64
			for x := 0; x < 8; x++ {
				sum += block[y*8+x] * dctCos[u][x]
			}
			tmp[y][u] = sum * dctAlpha(u) / 2
		}
	}
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			var sum float64
			for y := 0; y < 8; y++ {
				sum += tmp[y][u] * dctCos[v][y]
			}
			out[jpegZigzag[v*8+u]] = sum * dctAlpha(v) / 2
		}
	}
}

// inverseDCT8x8 is forwardDCT8x8's inverse (DCT-III), reading
// coefficients from zigzag order.
func inverseDCT8x8(coef [64]float64, block *[64]float64) {
	var natural [64]float64
	for i, z := range jpegZigzag {
		natural[i] = coef[z]
	}
	var tmp [8][8]float64
	for v := 0; v < 8; v++ {
		for x := 0; x < 8; x++ {
			var sum float64
			for u := 0; u < 8; u++ {
				sum += dctAlpha(u) * natural[v*8+u] * dctCos[u][x]
			}
			tmp[v][x] = sum / 2
		}
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			var sum float64
			for v := 0; v < 8; v++ {
				sum += dctAlpha(v) * tmp[v][x] * dctCos[v][y]
			}
			block[y*8+x] = sum / 2
		}
	}
}

func metaDCT(img *imagemodel.Image, params []int32) ([]int32, error) {
	if len(params) != 2 {
		return nil, ErrInvalidParameters
	}
	beginc, endc := int(params[0]), int(params[1])
	if beginc > endc || endc >= len(img.Channels) {
		return nil, ErrInvalidParameters
	}
	for c := endc; c >= beginc; c-- {
		ch := img.Channels[c]
		bw, bh := (ch.W+7)/8, (ch.H+7)/8
		subs := make([]*imagemodel.Channel, 64)
		for k := 0; k < 64; k++ {
			sc := imagemodel.NewChannel(bw, bh, ch.Component)
			sc.HShift, sc.VShift = ch.HShift+3, ch.VShift+3
			subs[k] = sc
		}
		img.RemoveChannel(c)
		for k := 63; k >= 0; k-- {
			img.InsertChannel(c, subs[k])
		}
	}
	return params, nil
}

func applyDCT(img *imagemodel.Image, inverse bool, params []int32) error {
	if len(params) != 2 {
		return ErrInvalidParameters
	}
	beginc, endc := int(params[0]), int(params[1])

	if !inverse {
		for c := endc; c >= beginc; c-- {
			ch := img.Channels[c]
			bw, bh := (ch.W+7)/8, (ch.H+7)/8
			subs := make([]*imagemodel.Channel, 64)
			for k := 0; k < 64; k++ {
				sc := imagemodel.NewChannel(bw, bh, ch.Component)
				sc.HShift, sc.VShift = ch.HShift+3, ch.VShift+3
				subs[k] = sc
			}
			for by := 0; by < bh; by++ {
				for bx := 0; bx < bw; bx++ {
					var block [64]float64
					for y := 0; y < 8; y++ {
						for x := 0; x < 8; x++ {
							block[y*8+x] = float64(ch.At(by*8+y, bx*8+x))
						}
					}
					var coef [64]float64
					forwardDCT8x8(block, &coef)
					for k := 0; k < 64; k++ {
						subs[k].Set(by, bx, int32(math.Round(coef[k])))
					}
				}
			}
			img.RemoveChannel(c)
			for k := 63; k >= 0; k-- {
				img.InsertChannel(c, subs[k])
			}
		}
		return nil
	}

	for c := endc; c >= beginc; c-- {
		first := img.Channels[c]
		bw, bh := first.W, first.H
		out := imagemodel.NewChannel(bw*8, bh*8, first.Component)
		out.HShift, out.VShift = first.HShift-3, first.VShift-3
		for by := 0; by < bh; by++ {
			for bx := 0; bx < bw; bx++ {
				var coef [64]float64
				for k := 0; k < 64; k++ {
					coef[k] = float64(img.Channels[c+k].At(by, bx))
				}
				var block [64]float64
				inverseDCT8x8(coef, &block)
				for y := 0; y < 8; y++ {
					for x := 0; x < 8; x++ {
						out.Set(by*8+y, bx*8+x, int32(math.Round(block[y*8+x])))
					}
				}
			}
		}
		img.RemoveRange(c, c+64)
		img.InsertChannel(c, out)
	}
	return nil
}
