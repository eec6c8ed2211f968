package rac

import (
	"math/rand"
	"testing"
)

func TestRoundTripFixedChance(t *testing.T) {
	bits := []bool{true, false, false, true, true, true, false, false, false, true}
	enc := NewEncoder()
	for _, b := range bits {
		enc.EncodeBit(2048, b)
	}
	enc.Flush()

	dec := NewDecoder(enc.Bytes())
	for i, want := range bits {
		got := dec.DecodeBit(2048)
		if got != want {
			t.Fatalf("bit %d: got %v, want %v", i, got, want)
		}
	}
}

func TestRoundTripVariedChances(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	type coded struct {
		bit    bool
		chance uint16
	}
	var seq []coded
	for i := 0; i < 5000; i++ {
		c := uint16(1 + rng.Intn(4095))
		b := rng.Intn(4096) < int(c)
		seq = append(seq, coded{b, c})
	}

	enc := NewEncoder()
	for _, c := range seq {
		enc.EncodeBit(c.chance, c.bit)
	}
	enc.Flush()

	dec := NewDecoder(enc.Bytes())
	for i, c := range seq {
		got := dec.DecodeBit(c.chance)
		if got != c.bit {
			t.Fatalf("bit %d: got %v, want %v (chance %d)", i, got, c.bit, c.chance)
		}
	}
}

func TestTruncationYieldsZeroBits(t *testing.T) {
	enc := NewEncoder()
	for i := 0; i < 64; i++ {
		enc.EncodeBit(2048, i%3 == 0)
	}
	enc.Flush()
	full := enc.Bytes()

	dec := NewDecoder(full[:len(full)/2])
	for i := 0; i < 64; i++ {
		dec.DecodeBit(2048)
	}
	if !dec.Truncated() {
		t.Fatalf("expected decoder to report truncation after reading past short input")
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	mk := func() []byte {
		enc := NewEncoder()
		for i := 0; i < 1000; i++ {
			enc.EncodeBit(uint16(1+(i*37)%4094), i%7 == 0)
		}
		enc.Flush()
		return enc.Bytes()
	}
	a := mk()
	b := mk()
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("byte %d differs: %x vs %x", i, a[i], b[i])
		}
	}
}
