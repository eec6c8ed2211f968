package container

import (
	"testing"

	"github.com/cloudinary/fuif/internal/imagemodel"
)

func TestHeaderRoundTripStill(t *testing.T) {
	h := Header{
		NbChannels:    3,
		BitDepth:      8,
		W:             64,
		H:             32,
		NbFrames:      1,
		ColorModel:    imagemodel.ColorModel{Kind: 0, Profile: 0},
		MaxProperties: 16,
	}
	buf := WriteHeader(nil, h)
	got, consumed, err := ReadHeader(buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if consumed != len(buf) {
		t.Fatalf("consumed %d, want %d", consumed, len(buf))
	}
	if got.NbChannels != h.NbChannels || got.BitDepth != h.BitDepth || got.W != h.W || got.H != h.H || got.MaxProperties != h.MaxProperties {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestHeaderRoundTripAnimation(t *testing.T) {
	h := Header{
		Animation:     true,
		NbChannels:    3,
		BitDepth:      8,
		W:             16,
		H:             32,
		NbFrames:      4,
		Den:           30,
		Num:           []int32{1, 1, 1, 1},
		Loops:         0,
		ColorModel:    imagemodel.ColorModel{Kind: 1, Profile: 2},
		MaxProperties: 8,
	}
	buf := WriteHeader(nil, h)
	got, consumed, err := ReadHeader(buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if consumed != len(buf) {
		t.Fatalf("consumed %d, want %d", consumed, len(buf))
	}
	if !got.Animation || got.NbFrames != h.NbFrames || got.Den != h.Den || len(got.Num) != len(h.Num) || got.Loops != h.Loops {
		t.Fatalf("got %+v, want %+v", got, h)
	}
	if got.ColorModel != h.ColorModel {
		t.Fatalf("colormodel: got %+v want %+v", got.ColorModel, h.ColorModel)
	}
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	buf := append([]byte("XXXX"), WriteHeader(nil, Header{NbChannels: 1, BitDepth: 8, W: 1, H: 1})[4:]...)
	_, _, err := ReadHeader(buf)
	if err == nil {
		t.Fatalf("expected error for bad magic")
	}
}
