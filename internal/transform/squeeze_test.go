package transform

import (
	"testing"

	"github.com/cloudinary/fuif/internal/imagemodel"
)

func testImage(w, h int, maxVal int32, fill func(c, i int) int32) *imagemodel.Image {
	img := imagemodel.NewImage(w, h, maxVal)
	for c := 0; c < 3; c++ {
		ch := imagemodel.NewChannel(w, h, c)
		for i := range ch.Data {
			ch.Data[i] = fill(c, i)
		}
		ch.MinVal, ch.MaxVal = ch.ActualMinMax()
		img.Channels = append(img.Channels, ch)
	}
	img.NbChannels = 3
	img.RealNbChannels = 3
	return img
}

func rampFill(c, i int) int32 {
	return int32((i*7 + c*31) % 256)
}

func squeezeRoundTrip(t *testing.T, w, h int, params []int32) {
	t.Helper()
	img := testImage(w, h, 255, rampFill)
	want := testImage(w, h, 255, rampFill)

	tr := New(Squeeze, params)
	if err := tr.Apply(img, false); err != nil {
		t.Fatalf("%dx%d forward: %v", w, h, err)
	}
	if err := tr.Apply(img, true); err != nil {
		t.Fatalf("%dx%d inverse: %v", w, h, err)
	}

	if len(img.Channels) != len(want.Channels) {
		t.Fatalf("%dx%d: got %d channels after round trip, want %d", w, h, len(img.Channels), len(want.Channels))
	}
	for c := range want.Channels {
		got, exp := img.Channels[c], want.Channels[c]
		if got.W != exp.W || got.H != exp.H {
			t.Fatalf("%dx%d channel %d: got %dx%d want %dx%d", w, h, c, got.W, got.H, exp.W, exp.H)
		}
		for i := range exp.Data {
			if got.Data[i] != exp.Data[i] {
				t.Fatalf("%dx%d channel %d sample %d: got %d want %d", w, h, c, i, got.Data[i], exp.Data[i])
			}
		}
	}
}

func TestSqueezeRoundTripDefaultParams(t *testing.T) {
	for _, dims := range [][2]int{{8, 8}, {9, 7}, {16, 4}, {4, 16}} {
		squeezeRoundTrip(t, dims[0], dims[1], nil)
	}
}

// TestSqueezeRoundTripOddUnpairedElement covers the shape that used to
// panic: a dimension of 1 leaves the last element with no neighbor to
// pair against, and the reconstructed second half of that pair has
// nowhere valid to land.
func TestSqueezeRoundTripOddUnpairedElement(t *testing.T) {
	cases := []struct {
		w, h   int
		params []int32
	}{
		{1, 1, nil},
		{1, 4, []int32{1, 0, 2}}, // forced horizontal split of a width-1 channel
		{4, 1, []int32{0, 0, 2}}, // forced vertical split of a height-1 channel
		{1, 5, nil},
		{5, 1, nil},
		{3, 3, nil},
	}
	for _, c := range cases {
		squeezeRoundTrip(t, c.w, c.h, c.params)
	}
}

func TestSqueezeForwardHalvesDimensions(t *testing.T) {
	img := testImage(9, 7, 255, rampFill)
	tr := New(Squeeze, []int32{1, 0, 2}) // horizontal, in place
	if err := tr.Apply(img, false); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if got, want := img.Channels[0].W, 5; got != want {
		t.Fatalf("squeezed width: got %d want %d", got, want)
	}
	if got, want := len(img.Channels), 6; got != want {
		t.Fatalf("channel count after insert: got %d want %d", got, want)
	}
}
