package maniac

import (
	"math/rand"
	"testing"

	"github.com/cloudinary/fuif/internal/rac"
)

func TestTreeSplitsOnInformativeProperty(t *testing.T) {
	prange := Ranges{{-255, 255}, {-255, 255}}
	tree := NewTree(prange, ZeroChance)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 4000; i++ {
		p0 := int32(rng.Intn(511) - 255)
		p1 := int32(rng.Intn(511) - 255)
		var val int32
		if p0 > 0 {
			val = 1
		} else {
			val = -1
		}
		tree.TrainSymbol([]int32{p0, p1}, -255, 255, val)
	}

	split := false
	for _, n := range tree.Inner {
		if n.Property != -1 {
			split = true
			break
		}
	}
	if !split {
		t.Fatalf("expected the tree to split on the informative property")
	}
}

func TestTreeSerializeRoundTrip(t *testing.T) {
	prange := Ranges{{-255, 255}, {-100, 100}, {0, 50}}
	tree := NewTree(prange, ZeroChance)

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 6000; i++ {
		p := []int32{
			int32(rng.Intn(511) - 255),
			int32(rng.Intn(201) - 100),
			int32(rng.Intn(51)),
		}
		var val int32
		if p[0] > 10 {
			val = 3
		} else if p[2] > 25 {
			val = -3
		} else {
			val = 0
		}
		tree.TrainSymbol(p, -255, 255, val)
	}
	tree.Simplify(1, MinSubtreeSize)
	frozen := tree.Freeze()

	enc := rac.NewEncoder()
	w := NewMetaPropertySymbolCoder()
	w.Write(enc, frozen)
	enc.Flush()

	dec := rac.NewDecoder(enc.Bytes())
	r := NewMetaPropertySymbolCoder()
	decoded := r.Read(dec, prange)

	if decoded.NumLeaves != frozen.NumLeaves {
		t.Fatalf("leaf count mismatch: got %d want %d", decoded.NumLeaves, frozen.NumLeaves)
	}

	for i := 0; i < 500; i++ {
		p := []int32{
			int32(rng.Intn(511) - 255),
			int32(rng.Intn(201) - 100),
			int32(rng.Intn(51)),
		}
		if frozen.Navigate(p) != decoded.Navigate(p) {
			t.Fatalf("navigate mismatch for properties %v", p)
		}
	}
}

func TestFinalCoderRoundTrip(t *testing.T) {
	prange := Ranges{{-255, 255}, {-255, 255}}
	tree := NewTree(prange, ZeroChance)

	rng := rand.New(rand.NewSource(21))
	type sample struct {
		props []int32
		val   int32
	}
	var samples []sample
	for i := 0; i < 3000; i++ {
		p := []int32{int32(rng.Intn(511) - 255), int32(rng.Intn(511) - 255)}
		val := p[0]/4 + p[1]/8
		if val < -255 {
			val = -255
		}
		if val > 255 {
			val = 255
		}
		samples = append(samples, sample{p, val})
		tree.TrainSymbol(p, -255, 255, val)
	}
	tree.Simplify(1, MinSubtreeSize)
	frozen := tree.Freeze()

	enc := rac.NewEncoder()
	fc := NewFinalCoder(frozen, ZeroChance)
	for _, s := range samples {
		fc.EncodeSymbol(enc, s.props, -255, 255, s.val)
	}
	enc.Flush()

	dec := rac.NewDecoder(enc.Bytes())
	fc2 := NewFinalCoder(frozen, ZeroChance)
	for i, s := range samples {
		got := fc2.DecodeSymbol(dec, s.props, -255, 255)
		if got != s.val {
			t.Fatalf("sample %d: got %d want %d", i, got, s.val)
		}
	}
}
