package maniac

// Bits is the maximum number of magnitude bits a coded symbol can need.
// Squeeze residuals stacked on top of a YCoCg transform of 16-bit input
// can reach 17-bit absolute values; Bits leaves one bit of headroom.
const Bits = 18

// ZeroChance is the default 12-bit probability (in 4096ths) that a fresh
// BitChance's next bit is 0.
const ZeroChance uint16 = 1024

// DefaultCutoff and DefaultAlpha parameterize the adaptation table used
// everywhere a BitChance is built in this package, training pass and
// final pass alike: spec.md only commits to one explicit numeric default
// for the table (the one used in the final pass), so the same table is
// reused for training rather than guessing an unstated second value.
const (
	DefaultCutoff = 2
	DefaultAlpha  = uint32(0x0d000000)
)

// Table holds the precomputed state-transition table for a 12-bit
// BitChance: NewChance[p][0] is the new chance after observing a 0 when
// the chance of 0 was p, NewChance[p][1] is the new chance after a 1.
type Table struct {
	NewChance [4096][2]uint16
}

// BuildTable constructs the transition table for the given cutoff and
// alpha, following the fixed-point recurrence used to seed and then
// extend the table across the full probability range.
func BuildTable(cutoff int, alpha uint32) *Table {
	var t Table
	maxP := uint32(4096 - cutoff)
	const one = int64(1) << 32

	var lastP8 uint32
	p := one / 2
	for i := 0; i < 2048; i++ {
		p8 := uint32((int64(4096)*p + one/2) >> 32)
		if p8 <= lastP8 {
			p8 = lastP8 + 1
		}
		if lastP8 != 0 && lastP8 < 4096 && p8 <= maxP {
			t.NewChance[lastP8][0] = uint16(p8)
		}
		p += ((one - p) * int64(alpha) + one/2) >> 32
		lastP8 = p8
	}

	lo := uint32(4096) - maxP
	for i := lo; i <= maxP; i++ {
		if t.NewChance[i][0] != 0 {
			continue
		}
		p := (int64(i)*one + 2048) / 4096
		p += ((one - p) * int64(alpha) + one/2) >> 32
		p8 := uint32((int64(4096)*p + one/2) >> 32)
		if p8 <= i {
			p8 = i + 1
		}
		if p8 > maxP {
			p8 = maxP
		}
		t.NewChance[i][0] = uint16(p8)
	}

	for i := uint32(1); i < 4096; i++ {
		t.NewChance[i][1] = 4096 - t.NewChance[4096-i][0]
	}
	return &t
}

// DefaultTable is the table built from DefaultCutoff/DefaultAlpha, shared
// by every BitChance unless a caller has a specific reason to build its
// own (none currently do).
var DefaultTable = BuildTable(DefaultCutoff, DefaultAlpha)

// BitChance is a single adaptive binary probability, expressed as the
// 12-bit chance (in 4096ths) that the next bit is 0.
type BitChance struct {
	chance uint16
}

// NewBitChance returns a BitChance seeded at the given initial chance.
func NewBitChance(initial uint16) BitChance {
	return BitChance{chance: initial}
}

// Get12Bit returns the current chance of a 0 bit, in 4096ths.
func (b BitChance) Get12Bit() uint16 {
	return b.chance
}

// Put records an observed bit and updates the chance via table.
func (b *BitChance) Put(bit bool, table *Table) {
	if bit {
		b.chance = table.NewChance[b.chance][1]
	} else {
		b.chance = table.NewChance[b.chance][0]
	}
}

// Estimate returns the coding cost, in units of 65536/12 bits, of the
// given bit under the chance's current (pre-update) probability.
func (b BitChance) Estimate(bit bool) uint32 {
	if bit {
		return log4kTable[4096-b.chance]
	}
	return log4kTable[b.chance]
}

var log4kTable [4097]uint32

func init() {
	const base = uint32(65535) << 16 / 12
	for i := 1; i <= 4096; i++ {
		log4kTable[i] = (log4kEstimate(i, base) + (1 << 15)) >> 16
	}
}

// log4kEstimate computes base * -log2(x/4096) via repeated squaring,
// the same fixed-point technique used to build cost tables for
// context-based entropy coders without floating point.
func log4kEstimate(x int, base uint32) uint32 {
	nbits := bitLen(x)
	y := uint64(x) << uint(32-nbits)
	res := base * uint32(13-nbits)
	add := base
	for add > 1 && (y&0x7FFFFFFF) != 0 {
		y = (y*y + 0x40000000) >> 31
		add >>= 1
		if (y >> 32) != 0 {
			res -= add
			y >>= 1
		}
	}
	return res
}

func bitLen(x int) int {
	n := 0
	for x > 0 {
		x >>= 1
		n++
	}
	return n
}
