// Package rac implements the 24-bit carry-propagating range coder that
// drives every bit coded by the MANIAC entropy stage.
//
// The coder's only primitive is a binary decision under a 12-bit
// probability: EncodeBit/DecodeBit take a "chance" in [1, 4095], the
// probability (in 4096ths) that the next bit is 0. Probability adaptation
// itself lives one layer up, in the maniac package's BitChance.
package rac

const (
	topValue      = uint32(1) << 24
	chanceBits    = 12
	chanceDivisor = uint32(1) << chanceBits
)

// Encoder writes bits through the range coder into an in-memory byte
// buffer. The caller must call Flush to drain the final bytes before
// reading Bytes.
type Encoder struct {
	low       uint64
	rng       uint32
	cache     byte
	cacheSize uint64
	started   bool
	out       []byte
}

// NewEncoder returns a fresh Encoder ready to accept EncodeBit calls.
func NewEncoder() *Encoder {
	return &Encoder{
		rng:       0xFFFFFFFF,
		cacheSize: 1,
		cache:     0xFF, // never emitted: shiftLow's first carry-settle consumes it
	}
}

// EncodeBit codes one bit under the given 12-bit chance of a 0 bit.
func (e *Encoder) EncodeBit(chance12 uint16, bit bool) {
	bound := (e.rng >> chanceBits) * uint32(chance12)
	if !bit {
		e.rng = bound
	} else {
		e.low += uint64(bound)
		e.rng -= bound
	}
	for e.rng < topValue {
		e.rng <<= 8
		e.shiftLow()
	}
}

// shiftLow emits the settled top byte of low, propagating any pending
// carry into previously buffered 0xFF bytes.
func (e *Encoder) shiftLow() {
	if uint32(e.low>>32) != 0 || e.low < 0xFF000000 {
		carry := byte(e.low >> 32)
		if e.started {
			e.out = append(e.out, e.cache+carry)
		}
		e.started = true
		for ; e.cacheSize > 1; e.cacheSize-- {
			e.out = append(e.out, 0xFF+carry)
		}
		e.cache = byte(e.low >> 24)
	} else {
		e.cacheSize++
	}
	e.low = (e.low << 8) & 0xFFFFFFFF
}

// Flush drains the coder's pending state, appending the final bytes
// needed for a decoder to recover every bit written so far.
func (e *Encoder) Flush() {
	for i := 0; i < 5; i++ {
		e.shiftLow()
	}
}

// Bytes returns the bytes written so far. Call Flush first to guarantee
// every coded bit is recoverable by a Decoder.
func (e *Encoder) Bytes() []byte {
	return e.out
}

// Len reports how many bytes have been emitted so far.
func (e *Encoder) Len() int {
	return len(e.out)
}

// Decoder reads bits back out of a byte slice produced by Encoder.
//
// Reading past the end of data yields zero bits rather than an error,
// per the truncation model in spec.md §4.1: callers detect truncation via
// an external byte-count gate, not via the decoder.
type Decoder struct {
	data []byte
	pos  int
	code uint32
	rng  uint32
}

// NewDecoder returns a Decoder reading from data.
func NewDecoder(data []byte) *Decoder {
	d := &Decoder{data: data, rng: 0xFFFFFFFF}
	for i := 0; i < 4; i++ {
		d.code = d.code<<8 | uint32(d.readByte())
	}
	return d
}

func (d *Decoder) readByte() byte {
	if d.pos < len(d.data) {
		b := d.data[d.pos]
		d.pos++
		return b
	}
	d.pos++
	return 0
}

// DecodeBit decodes one bit under the given 12-bit chance of a 0 bit.
func (d *Decoder) DecodeBit(chance12 uint16) bool {
	bound := (d.rng >> chanceBits) * uint32(chance12)
	var bit bool
	if d.code < bound {
		d.rng = bound
	} else {
		d.code -= bound
		d.rng -= bound
		bit = true
	}
	for d.rng < topValue {
		d.rng <<= 8
		d.code = d.code<<8 | uint32(d.readByte())
	}
	return bit
}

// BytesConsumed reports how many input bytes have been pulled from data,
// including the four bytes consumed by NewDecoder's priming read.
func (d *Decoder) BytesConsumed() int {
	return d.pos
}

// Truncated reports whether the decoder has read past the end of data,
// i.e. whether any bit it produced may have come from a synthesized zero.
func (d *Decoder) Truncated() bool {
	return d.pos > len(d.data)
}
