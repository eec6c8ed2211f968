package maniac

import "github.com/cloudinary/fuif/internal/rac"

// BitType names which of a SymbolChance's four probability slots a coded
// bit belongs to.
type BitType int

const (
	BitZero BitType = iota
	BitSign
	BitExp
	BitMant
)

// SymbolChance is the probability vector for coding one signed integer:
// a zero flag, a sign bit, a unary exponent, and a mantissa.
type SymbolChance struct {
	Zero BitChance
	Sign BitChance
	Exp  []BitChance
	Mant []BitChance
}

// MantChance is the default initial probability for every mantissa bit.
const MantChance uint16 = 1024

// NewSymbolChance returns a freshly seeded SymbolChance. zeroChance seeds
// the zero flag (and, through the geometric-distribution assumption,
// the exponent bits); every other slot starts at its spec default.
func NewSymbolChance(zeroChance uint16) *SymbolChance {
	sc := &SymbolChance{
		Zero: NewBitChance(zeroChance),
		Sign: NewBitChance(0x800),
		Exp:  make([]BitChance, Bits-1),
		Mant: make([]BitChance, Bits),
	}
	rp := int32(0x1000) - int32(zeroChance)
	for i := range sc.Exp {
		if rp < 0x100 {
			rp = 0x100
		}
		if rp > 0xf00 {
			rp = 0xf00
		}
		sc.Exp[i] = NewBitChance(uint16(0x1000 - rp))
		rp = (rp*rp + 0x800) >> 12
	}
	for i := range sc.Mant {
		sc.Mant[i] = NewBitChance(MantChance)
	}
	return sc
}

// clone returns a deep copy, used when a leaf splits and both children
// start from the parent's adapted state.
func (sc *SymbolChance) clone() *SymbolChance {
	out := &SymbolChance{
		Zero: sc.Zero,
		Sign: sc.Sign,
		Exp:  append([]BitChance(nil), sc.Exp...),
		Mant: append([]BitChance(nil), sc.Mant...),
	}
	return out
}

func (sc *SymbolChance) ptr(typ BitType, idx int) *BitChance {
	switch typ {
	case BitZero:
		return &sc.Zero
	case BitSign:
		return &sc.Sign
	case BitExp:
		return &sc.Exp[idx]
	case BitMant:
		return &sc.Mant[idx]
	default:
		panic("maniac: invalid BitType")
	}
}

// codeInt walks the zero/sign/exponent/mantissa decomposition of a value
// in [minV, maxV] (which must straddle or touch zero: minV <= 0 <= maxV),
// calling code once per bit position. code must return the actual bit
// coded; callers that already know the value (encoding, or the training
// dry run) pass it via guess and have code simply echo it back after
// recording it, while a decoding caller ignores guess and returns the bit
// it read off the wire. This single walk drives encode, decode, and
// training-pass simulation from one piece of logic.
func codeInt(minV, maxV int32, val *int32, code func(typ BitType, idx int, guess bool) bool) int32 {
	if minV == maxV {
		return minV
	}
	haveVal := val != nil
	var v int32
	if haveVal {
		v = *val
	}

	isZero := haveVal && v == 0
	isZero = code(BitZero, 0, isZero)
	if isZero {
		return 0
	}

	canBePositive := maxV > 0
	canBeNegative := minV < 0
	var positive bool
	if canBePositive && canBeNegative {
		if haveVal {
			positive = v > 0
		}
		positive = code(BitSign, 0, positive)
	} else {
		positive = canBePositive
	}

	amax := maxV
	if !positive {
		amax = -minV
	}
	emax := Ilog2(amax)

	var a int32
	if haveVal {
		a = v
		if a < 0 {
			a = -a
		}
	}

	e := emax
	for i := 0; i < emax; i++ {
		guess := haveVal && Ilog2(a) == i
		stop := code(BitExp, i, guess)
		if stop {
			e = i
			break
		}
	}

	base := int32(1) << uint(e)
	remainingMax := amax - base

	var mantissa int32
	for pos := e - 1; pos >= 0; pos-- {
		bitVal := int32(1) << uint(pos)
		if mantissa+bitVal > remainingMax {
			continue
		}
		guess := haveVal && (a-base)&bitVal != 0
		bit := code(BitMant, pos, guess)
		if bit {
			mantissa |= bitVal
		}
	}

	mag := base + mantissa
	if !positive {
		return -mag
	}
	return mag
}

// EncodeInt codes val through the range coder, adapting sc via table.
func EncodeInt(enc *rac.Encoder, sc *SymbolChance, table *Table, minV, maxV, val int32) {
	codeInt(minV, maxV, &val, func(typ BitType, idx int, guess bool) bool {
		bc := sc.ptr(typ, idx)
		enc.EncodeBit(bc.Get12Bit(), guess)
		bc.Put(guess, table)
		return guess
	})
}

// DecodeInt decodes one integer in [minV, maxV], adapting sc via table.
func DecodeInt(dec *rac.Decoder, sc *SymbolChance, table *Table, minV, maxV int32) int32 {
	return codeInt(minV, maxV, nil, func(typ BitType, idx int, _ bool) bool {
		bc := sc.ptr(typ, idx)
		bit := dec.DecodeBit(bc.Get12Bit())
		bc.Put(bit, table)
		return bit
	})
}

// EncodeUniformInt codes val under a fixed 50% chance at every bit
// position: no adaptive state, used for the uncompressed fallback path
// and for header fields carried inside the coded stream.
func EncodeUniformInt(enc *rac.Encoder, minV, maxV, val int32) {
	codeInt(minV, maxV, &val, func(_ BitType, _ int, guess bool) bool {
		enc.EncodeBit(0x800, guess)
		return guess
	})
}

// DecodeUniformInt is EncodeUniformInt's mirror.
func DecodeUniformInt(dec *rac.Decoder, minV, maxV int32) int32 {
	return codeInt(minV, maxV, nil, func(_ BitType, _ int, _ bool) bool {
		return dec.DecodeBit(0x800)
	})
}

// simSink is one (chance, table, cost accumulator) target updated by a
// training-pass dry run of codeInt: no bits are actually emitted.
type simSink struct {
	sc    *SymbolChance
	table *Table
	cost  *uint64
}

// SimulateInt dry-runs codeInt against val, updating every sink's chance
// state and adding the per-bit coding cost to its accumulator, without
// writing to any range coder. Used by the training pass to keep the
// real chance and every candidate property's virtual chances current.
func SimulateInt(sinks []simSink, minV, maxV, val int32) {
	codeInt(minV, maxV, &val, func(typ BitType, idx int, guess bool) bool {
		for _, s := range sinks {
			bc := s.sc.ptr(typ, idx)
			*s.cost += uint64(bc.Estimate(guess))
			bc.Put(guess, s.table)
		}
		return guess
	})
}
