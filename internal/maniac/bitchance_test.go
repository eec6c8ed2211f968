package maniac

import "testing"

func TestBuildTableMonotonic(t *testing.T) {
	tbl := BuildTable(DefaultCutoff, DefaultAlpha)
	for p := DefaultCutoff + 1; p < 4096-DefaultCutoff; p++ {
		if tbl.NewChance[p][1] >= uint16(p) {
			t.Fatalf("chance %d: observing a 1 should push the chance of 0 down, got %d", p, tbl.NewChance[p][1])
		}
		if tbl.NewChance[p][0] <= uint16(p) {
			t.Fatalf("chance %d: observing a 0 should push the chance of 0 up, got %d", p, tbl.NewChance[p][0])
		}
	}
}

func TestBitChanceAdaptsTowardObservedBit(t *testing.T) {
	bc := NewBitChance(ZeroChance)
	for i := 0; i < 200; i++ {
		bc.Put(true, DefaultTable)
	}
	if bc.Get12Bit() >= ZeroChance {
		t.Fatalf("chance of 0 should have dropped after repeated 1s, got %d", bc.Get12Bit())
	}

	bc2 := NewBitChance(ZeroChance)
	for i := 0; i < 200; i++ {
		bc2.Put(false, DefaultTable)
	}
	if bc2.Get12Bit() <= ZeroChance {
		t.Fatalf("chance of 0 should have risen after repeated 0s, got %d", bc2.Get12Bit())
	}
}

func TestEstimateCheaperWhenLikely(t *testing.T) {
	bc := NewBitChance(3600)
	cheap := bc.Estimate(false)
	expensive := bc.Estimate(true)
	if cheap >= expensive {
		t.Fatalf("coding the likely bit should cost less: cheap=%d expensive=%d", cheap, expensive)
	}
}

func TestLog4kTableMonotonicDecreasing(t *testing.T) {
	for p := 1; p < 4096; p++ {
		if log4kTable[p] < log4kTable[p+1] {
			t.Fatalf("log4k cost should be non-increasing as probability rises: p=%d -> %d, p=%d -> %d",
				p, log4kTable[p], p+1, log4kTable[p+1])
		}
	}
}
