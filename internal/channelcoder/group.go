// Package channelcoder implements the near-lossless predictive channel
// coder: the scanline walk over a channel-group that computes context
// properties, predicts each pixel, and codes the residual through a
// MANIAC tree (trained, then frozen, then used for the final pass).
package channelcoder

import (
	"math/bits"
	"math/rand"

	"github.com/cloudinary/fuif/internal/imagemodel"
	"github.com/cloudinary/fuif/internal/maniac"
	"github.com/cloudinary/fuif/internal/rac"
	"github.com/cloudinary/fuif/internal/varint"
)

// trainingSeed fixes the PRNG the training pass draws rows from, so that
// encode(I) is byte-identical across runs for the same input and options.
const trainingSeed = 1

// defaultZeroChance is the zero-bit chance (in 4096ths) used for every
// group except predictor-0 compressed ones, which derive their own from
// the fraction of zero samples in the group's first non-constant channel.
const defaultZeroChance uint16 = maniac.ZeroChance

// EncodeOptions controls how EncodeGroup trains its tree and whether it
// ever falls back to the uncompressed path.
type EncodeOptions struct {
	// MaxProperties caps how many reference properties (two per prior
	// channel) contribute to this group's context.
	MaxProperties int
	// NbRepeats scales the training pass: total rows visited per channel
	// is NbRepeats*channel.H, need not be an integer.
	NbRepeats float64
	// ForceUncompressed skips training/compression entirely (-U).
	ForceUncompressed bool
}

// EncodeGroup codes channels [beginc,endc] of img into a self-contained
// byte blob: a plain-varint header, optionally a serialized MANIAC tree,
// then the RAC-coded (or uncompressed) residual stream, flushed at the
// end. It implements the §4.8 rollback policy: if the trained encoding
// isn't strictly smaller than the uncompressed-size estimate, the group
// is re-emitted with compress_flag=0.
func EncodeGroup(img *imagemodel.Image, beginc, endc, predictor int, opts EncodeOptions) ([]byte, error) {
	if err := checkBitDepths(img, beginc, endc, predictor); err != nil {
		return nil, err
	}
	if !opts.ForceUncompressed {
		blob, bitsWritten, allConstant, err := encodeGroupBody(img, beginc, endc, predictor, true, opts)
		if err != nil {
			return nil, err
		}
		if allConstant || bitsWritten < uncompressedEstimateBits(img, beginc, endc) {
			return blob, nil
		}
	}
	blob, _, _, err := encodeGroupBody(img, beginc, endc, predictor, false, opts)
	return blob, err
}

func checkBitDepths(img *imagemodel.Image, beginc, endc, predictor int) error {
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		maxav := maniac.Abs(ch.MaxVal)
		if -ch.MinVal > maxav {
			maxav = -ch.MinVal
		}
		if predictor > 0 {
			if span := ch.MaxVal - ch.MinVal; span > maxav {
				maxav = span
			}
			if d := maniac.Abs(ch.MinVal - ch.MaxVal); d > maxav {
				maxav = d
			}
		}
		if maniac.Ilog2(maxav)+1 > maniac.Bits {
			return ErrBitDepthOverflow
		}
	}
	return nil
}

// ceilLog2 returns ceil(log2(x)) for x >= 1.
func ceilLog2(x int32) int32 {
	if x <= 1 {
		return 0
	}
	return int32(bits.Len32(uint32(x - 1)))
}

// uncompressedEstimateBits is the §4.8 rollback formula's right-hand
// side: the bit count a uniform fixed-width encoding of every channel
// would need, plus a flat 16-bit allowance for the group's own header.
func uncompressedEstimateBits(img *imagemodel.Image, beginc, endc int) uint64 {
	var total uint64
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		if ch.MinVal == ch.MaxVal {
			continue
		}
		perSample := uint64(ceilLog2(ch.MaxVal-ch.MinVal)) + 1
		total += perSample * uint64(ch.W*ch.H)
	}
	return total + 16
}

// encodeGroupBody writes the header and, unless every channel in the
// range is constant, the coded payload. It returns the bits written by
// the payload alone (0 for an all-constant group, which never opens a
// RAC stream at all) so EncodeGroup can apply the rollback policy.
func encodeGroupBody(img *imagemodel.Image, beginc, endc, predictor int, compress bool, opts EncodeOptions) (blob []byte, bitsWritten uint64, allConstant bool, err error) {
	header, _, _, firstReal := buildGroupHeader(img, beginc, endc, predictor, compress)
	if firstReal > endc {
		for i := beginc; i <= endc; i++ {
			img.Channels[i].SetZero()
		}
		return header, 0, true, nil
	}

	for i := beginc; i <= endc; i++ {
		img.Channels[i].SetZero()
	}

	maxProperties := opts.MaxProperties
	if maxProperties <= 0 {
		maxProperties = 16
	}

	zeroChance := defaultZeroChance
	if predictor == 0 && compress {
		zeroChance, header = appendZeroChanceByte(header, img.Channels[firstReal])
	}

	enc := rac.NewEncoder()

	if !compress {
		encodeUncompressed(enc, img, beginc, endc)
		enc.Flush()
		return append(header, enc.Bytes()...), uint64(enc.Len()) * 8, false, nil
	}

	ranges := InitPropertyRanges(img, beginc, endc, maxProperties)
	nRefCols := len(ranges) - NonRefProperties

	tree := maniac.NewTree(ranges, zeroChance)
	rng := rand.New(rand.NewSource(trainingSeed))
	nbRepeats := opts.NbRepeats
	if nbRepeats == 0 {
		nbRepeats = 0.5
	}
	trainPass(tree, img, beginc, endc, predictor, maxProperties, nbRepeats, rng)

	divisor := int32(0)
	for i := beginc; i <= endc; i++ {
		divisor += int32(img.Channels[i].W * img.Channels[i].H)
	}
	tree.Simplify(divisor, maniac.MinSubtreeSize)
	frozen := tree.Freeze()

	meta := maniac.NewMetaPropertySymbolCoder()
	meta.Write(enc, frozen)

	fc := maniac.NewFinalCoder(frozen, zeroChance)
	encodeFinalPass(enc, fc, img, beginc, endc, predictor, maxProperties, nRefCols)

	enc.Flush()
	return append(header, enc.Bytes()...), uint64(enc.Len()) * 8, false, nil
}

// buildGroupHeader writes the fixed-format varint header (spec.md §4.8
// item 1-4) and returns the group's global min/max and the index of its
// first non-constant channel (> endc if every channel is constant).
func buildGroupHeader(img *imagemodel.Image, beginc, endc, predictor int, compress bool) (header []byte, globalMin, globalMax int32, firstReal int) {
	tag := int64(endc-beginc) << 4
	tag |= int64(predictor) << 1
	if compress {
		tag |= 1
	}
	header = varint.Append(header, uint64(tag))

	globalMin = imagemodel.LargestVal
	globalMax = imagemodel.SmallestVal
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		if ch.W*ch.H <= 0 {
			continue
		}
		if ch.MinVal < globalMin {
			globalMin = ch.MinVal
		}
		if ch.MaxVal > globalMax {
			globalMax = ch.MaxVal
		}
	}
	if globalMin <= 0 {
		header = varint.Append(header, uint64(1-globalMin))
	} else {
		header = varint.Append(header, 0)
		header = varint.Append(header, uint64(globalMin))
	}
	header = varint.Append(header, uint64(globalMax-globalMin))

	firstReal = endc + 1
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		if ch.W*ch.H <= 0 {
			continue
		}
		minv, maxv := ch.MinVal, ch.MaxVal
		if endc > beginc && globalMin < globalMax {
			header = varint.Append(header, uint64(minv-globalMin))
			header = varint.Append(header, uint64(maxv-minv))
		}
		if minv != maxv && firstReal > endc {
			firstReal = i
		}
		if minv == 0 && maxv == 0 {
			continue
		}
		header = varint.Append(header, uint64(ch.Q))
	}
	return header, globalMin, globalMax, firstReal
}

// appendZeroChanceByte scans ch for the fraction of zero samples and
// appends the scaled byte (in [1,127]) the decoder uses to seed every
// leaf's zero-bit chance instead of the flat default.
func appendZeroChanceByte(header []byte, ch *imagemodel.Channel) (uint16, []byte) {
	var zeroes uint64
	for _, v := range ch.Data {
		if v == 0 {
			zeroes++
		}
	}
	pixels := uint64(ch.W * ch.H)
	rounded := int64(1)
	if pixels > 0 {
		rounded = int64(zeroes * 128 / pixels)
	}
	if rounded < 1 {
		rounded = 1
	}
	if rounded > 127 {
		rounded = 127
	}
	header = varint.Append(header, uint64(rounded))
	return uint16(rounded * 32), header
}

func encodeUncompressed(enc *rac.Encoder, img *imagemodel.Image, beginc, endc int) {
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		for y := 0; y < ch.H; y++ {
			for x := 0; x < ch.W; x++ {
				maniac.EncodeUniformInt(enc, ch.MinVal, ch.MaxVal, ch.At(y, x))
			}
		}
	}
}

func decodeUncompressed(dec *rac.Decoder, img *imagemodel.Image, beginc, endc int) {
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		for y := 0; y < ch.H; y++ {
			for x := 0; x < ch.W; x++ {
				ch.Set(y, x, maniac.DecodeUniformInt(dec, ch.MinVal, ch.MaxVal))
			}
		}
	}
}

func trainPass(tree *maniac.Tree, img *imagemodel.Image, beginc, endc, predictor, maxProperties int, nbRepeats float64, rng *rand.Rand) {
	nRefCols := len(tree.Range) - NonRefProperties
	props := make([]int32, len(tree.Range))
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		if ch.MinVal == ch.MaxVal {
			continue
		}
		limit := int(nbRepeats * float64(ch.H))
		for rowsLearned := 1; rowsLearned <= limit; rowsLearned++ {
			y := rng.Intn(ch.H)
			refs := precomputeReferenceRow(img, beginc, ch, y, maxProperties, nRefCols)
			for x := 0; x < ch.W; x++ {
				guess := fillProperties(props, ch, y, x, predictor, refs[x])
				val := ch.At(y, x) - guess
				tree.TrainSymbol(props, ch.MinVal-guess, ch.MaxVal-guess, val)
			}
		}
	}
}

func encodeFinalPass(enc *rac.Encoder, fc *maniac.FinalCoder, img *imagemodel.Image, beginc, endc, predictor, maxProperties, nRefCols int) {
	props := make([]int32, nRefCols+NonRefProperties)
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		if ch.MinVal == ch.MaxVal {
			continue
		}
		if isFastPath(fc, predictor, ch) {
			for y := 0; y < ch.H; y++ {
				for x := 0; x < ch.W; x++ {
					fc.EncodeSymbol(enc, nil, ch.MinVal, ch.MaxVal, ch.At(y, x))
				}
			}
			continue
		}
		for y := 0; y < ch.H; y++ {
			refs := precomputeReferenceRow(img, beginc, ch, y, maxProperties, nRefCols)
			for x := 0; x < ch.W; x++ {
				guess := fillProperties(props, ch, y, x, predictor, refs[x])
				val := ch.At(y, x) - guess
				fc.EncodeSymbol(enc, props, ch.MinVal-guess, ch.MaxVal-guess, val)
			}
		}
	}
}

func decodeFinalPass(dec *rac.Decoder, fc *maniac.FinalCoder, img *imagemodel.Image, beginc, endc, predictor, maxProperties, nRefCols int) {
	props := make([]int32, nRefCols+NonRefProperties)
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		if ch.MinVal == ch.MaxVal {
			continue
		}
		if isFastPath(fc, predictor, ch) {
			for y := 0; y < ch.H; y++ {
				for x := 0; x < ch.W; x++ {
					ch.Set(y, x, fc.DecodeSymbol(dec, nil, ch.MinVal, ch.MaxVal))
				}
			}
			continue
		}
		for y := 0; y < ch.H; y++ {
			refs := precomputeReferenceRow(img, beginc, ch, y, maxProperties, nRefCols)
			for x := 0; x < ch.W; x++ {
				guess := fillProperties(props, ch, y, x, predictor, refs[x])
				val := fc.DecodeSymbol(dec, props, ch.MinVal-guess, ch.MaxVal-guess)
				ch.Set(y, x, guess+val)
			}
		}
	}
}

// isFastPath is the §4.8 mandatory shortcut: a single-leaf tree under
// predictor 0 on a zero-based channel never needs properties, since the
// tree has nowhere else to navigate and the guess is always 0.
func isFastPath(fc *maniac.FinalCoder, predictor int, ch *imagemodel.Channel) bool {
	return fc.Tree.NumLeaves == 1 && predictor == 0 && ch.Zero == 0
}

// DecodeGroup reads one group's byte blob back, starting at data[0], and
// returns how many bytes it consumed. Channels [beginc,endc] must already
// exist with the right dimensions (via the transform pipeline's
// meta_apply pass); their MinVal/MaxVal/Q/Zero and sample data are filled
// in here.
func DecodeGroup(data []byte, img *imagemodel.Image, beginc, endc int, maxProperties int) (consumed int, predictor int, err error) {
	pos := 0
	tag, err := readVarintAt(data, &pos)
	if err != nil {
		return 0, 0, ErrInvalidGroup
	}
	groupEndc := beginc + int(tag>>4)
	if groupEndc != endc {
		return 0, 0, ErrInvalidGroup
	}
	predictor = int((tag >> 1) & 7)
	compress := tag&1 != 0

	globalMin, err := readVarintAt(data, &pos)
	if err != nil {
		return 0, 0, ErrInvalidGroup
	}
	var trueGlobalMin int32
	if globalMin == 0 {
		gm, err := readVarintAt(data, &pos)
		if err != nil {
			return 0, 0, ErrInvalidGroup
		}
		trueGlobalMin = int32(gm)
	} else {
		trueGlobalMin = 1 - int32(globalMin)
	}
	spread, err := readVarintAt(data, &pos)
	if err != nil {
		return 0, 0, ErrInvalidGroup
	}
	trueGlobalMax := trueGlobalMin + int32(spread)

	firstReal := endc + 1
	for i := beginc; i <= endc; i++ {
		ch := img.Channels[i]
		minv, maxv := trueGlobalMin, trueGlobalMax
		if endc > beginc && trueGlobalMin < trueGlobalMax {
			dlo, err := readVarintAt(data, &pos)
			if err != nil {
				return 0, 0, ErrInvalidGroup
			}
			dspan, err := readVarintAt(data, &pos)
			if err != nil {
				return 0, 0, ErrInvalidGroup
			}
			minv = trueGlobalMin + int32(dlo)
			maxv = minv + int32(dspan)
		}
		ch.MinVal, ch.MaxVal = minv, maxv
		if minv != maxv && firstReal > endc {
			firstReal = i
		}
		ch.Q = 1
		if minv == 0 && maxv == 0 {
			continue
		}
		q, err := readVarintAt(data, &pos)
		if err != nil {
			return 0, 0, ErrInvalidGroup
		}
		ch.Q = int32(q)
	}

	for i := beginc; i <= endc; i++ {
		img.Channels[i].SetZero()
	}

	for i := beginc; i <= endc; i++ {
		if ch := img.Channels[i]; ch.MinVal == ch.MaxVal {
			fillConstant(ch, ch.MinVal)
		}
	}
	if firstReal > endc {
		return pos, predictor, nil
	}

	if maxProperties <= 0 {
		maxProperties = 16
	}

	zeroChance := defaultZeroChance
	if predictor == 0 && compress {
		zc, err := readVarintAt(data, &pos)
		if err != nil {
			return 0, 0, ErrInvalidGroup
		}
		zeroChance = uint16(zc * 32)
	}

	dec := rac.NewDecoder(data[pos:])

	if !compress {
		decodeUncompressed(dec, img, beginc, endc)
		return pos + dec.BytesConsumed(), predictor, nil
	}

	ranges := InitPropertyRanges(img, beginc, endc, maxProperties)
	nRefCols := len(ranges) - NonRefProperties

	meta := maniac.NewMetaPropertySymbolCoder()
	frozen := meta.Read(dec, ranges)

	fc := maniac.NewFinalCoder(frozen, zeroChance)
	decodeFinalPass(dec, fc, img, beginc, endc, predictor, maxProperties, nRefCols)

	return pos + dec.BytesConsumed(), predictor, nil
}

func fillConstant(ch *imagemodel.Channel, v int32) {
	for i := range ch.Data {
		ch.Data[i] = v
	}
}

func readVarintAt(data []byte, pos *int) (uint64, error) {
	v, n, err := varint.Read(data[*pos:])
	if err != nil {
		return 0, err
	}
	*pos += n
	return v, nil
}
