package container

import (
	"testing"

	"github.com/cloudinary/fuif/internal/transform"
)

func TestTransformListRoundTrip(t *testing.T) {
	list := []transform.Transform{
		transform.New(transform.YCoCg, nil),
		transform.New(transform.Quantize, []int32{1, 2, 2}),
	}
	buf := WriteTransformList(nil, list)
	got, consumed, err := ReadTransformList(buf)
	if err != nil {
		t.Fatalf("ReadTransformList: %v", err)
	}
	if consumed != len(buf) {
		t.Fatalf("consumed %d, want %d", consumed, len(buf))
	}
	if len(got) != len(list) {
		t.Fatalf("got %d transforms, want %d", len(got), len(list))
	}
	for i := range list {
		if got[i].ID != list[i].ID {
			t.Fatalf("transform %d: id %d != %d", i, got[i].ID, list[i].ID)
		}
	}
}

func TestTransformListEmpty(t *testing.T) {
	buf := WriteTransformList(nil, nil)
	got, consumed, err := ReadTransformList(buf)
	if err != nil {
		t.Fatalf("ReadTransformList: %v", err)
	}
	if len(got) != 0 || consumed != len(buf) {
		t.Fatalf("got %d transforms, consumed %d, want 0/%d", len(got), consumed, len(buf))
	}
}
