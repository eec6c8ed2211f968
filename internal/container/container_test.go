package container

import (
	"testing"

	"github.com/cloudinary/fuif/internal/channelcoder"
	"github.com/cloudinary/fuif/internal/imagemodel"
	"github.com/cloudinary/fuif/internal/transform"
)

func rgbImage(w, h int, maxVal int32) *imagemodel.Image {
	img := imagemodel.NewImage(w, h, maxVal)
	img.MaxProperties = 16
	img.ColorModel = imagemodel.ColorModel{Kind: 0, Profile: 0}
	seed := int32(7)
	for c := 0; c < 3; c++ {
		ch := imagemodel.NewChannel(w, h, c)
		ch.MinVal, ch.MaxVal = 0, maxVal
		for i := range ch.Data {
			seed = seed*1103515245 + 12345
			v := (seed >> 8) % (maxVal + 1)
			if v < 0 {
				v += maxVal + 1
			}
			ch.Data[i] = v
		}
		img.Channels = append(img.Channels, ch)
	}
	img.NbChannels = 3
	img.RealNbChannels = 3
	return img
}

// applyForward runs each transform forward in place, the way the
// reference encoder's do_transform does: straight to Apply, with no
// MetaApply call (that only runs on the decode side, to size channels
// before their sample data is filled in by the channel coder).
func applyForward(t *testing.T, img *imagemodel.Image, transforms []transform.Transform) {
	t.Helper()
	for _, tr := range transforms {
		if err := tr.Apply(img, false); err != nil {
			t.Fatalf("Apply(%s): %v", tr.Name(), err)
		}
	}
}

func TestContainerRoundTripYCoCgQuantize(t *testing.T) {
	img := rgbImage(6, 5, 255)
	transforms := []transform.Transform{
		transform.New(transform.YCoCg, nil),
		transform.New(transform.Quantize, []int32{1, 1, 1}),
	}
	applyForward(t, img, transforms)

	groupOpts := GroupOptions{Encode: channelcoder.EncodeOptions{MaxProperties: 16}}
	data, err := Encode(img, transforms, groupOpts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	res, err := Decode(data, DecodeOptions{Preview: -1, Group: groupOpts})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Incomplete {
		t.Fatalf("unexpected incomplete decode")
	}
	got := res.Image
	if got.W != img.W || got.H != img.H {
		t.Fatalf("dims: got %dx%d want %dx%d", got.W, got.H, img.W, img.H)
	}
	if len(got.Channels) != 3 {
		t.Fatalf("got %d channels, want 3", len(got.Channels))
	}

	// Recover the original RGB for comparison: decode gave us back
	// post-inverse-transform samples, which should equal the pre-transform
	// RGB data captured before applyForward mutated img in place.
	want := rgbImage(6, 5, 255)
	for c := 0; c < 3; c++ {
		for i := range want.Channels[c].Data {
			if got.Channels[c].Data[i] != want.Channels[c].Data[i] {
				t.Fatalf("channel %d sample %d: got %d want %d", c, i, got.Channels[c].Data[i], want.Channels[c].Data[i])
			}
		}
	}
}

func TestContainerRoundTripYCoCgQuantizeSqueeze(t *testing.T) {
	img := rgbImage(7, 5, 255)
	want := rgbImage(7, 5, 255)
	transforms := []transform.Transform{
		transform.New(transform.YCoCg, nil),
		transform.New(transform.Quantize, []int32{1, 1, 1}),
		transform.New(transform.Squeeze, nil),
	}
	applyForward(t, img, transforms)

	groupOpts := GroupOptions{Encode: channelcoder.EncodeOptions{MaxProperties: 16}}
	data, err := Encode(img, transforms, groupOpts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	res, err := Decode(data, DecodeOptions{Preview: -1, Group: groupOpts})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Incomplete {
		t.Fatalf("unexpected incomplete decode")
	}
	got := res.Image
	if len(got.Channels) != 3 {
		t.Fatalf("got %d channels, want 3", len(got.Channels))
	}
	for c := 0; c < 3; c++ {
		for i := range want.Channels[c].Data {
			if got.Channels[c].Data[i] != want.Channels[c].Data[i] {
				t.Fatalf("channel %d sample %d: got %d want %d", c, i, got.Channels[c].Data[i], want.Channels[c].Data[i])
			}
		}
	}
}

// TestContainerRoundTripSqueezeOddDimension exercises the odd-dimension
// edge of squeeze directly: a 1-wide and a 1-tall channel both leave one
// element unpaired in the horizontal and vertical split respectively, the
// case invHSqueeze/invVSqueeze must discard rather than panic on.
func TestContainerRoundTripSqueezeOddDimension(t *testing.T) {
	for _, dims := range [][2]int{{1, 1}, {1, 5}, {5, 1}, {3, 3}} {
		w, h := dims[0], dims[1]
		img := rgbImage(w, h, 255)
		want := rgbImage(w, h, 255)
		transforms := []transform.Transform{
			transform.New(transform.Squeeze, nil),
		}
		applyForward(t, img, transforms)

		groupOpts := GroupOptions{Encode: channelcoder.EncodeOptions{MaxProperties: 16}}
		data, err := Encode(img, transforms, groupOpts)
		if err != nil {
			t.Fatalf("%dx%d: Encode: %v", w, h, err)
		}
		res, err := Decode(data, DecodeOptions{Preview: -1, Group: groupOpts})
		if err != nil {
			t.Fatalf("%dx%d: Decode: %v", w, h, err)
		}
		got := res.Image
		for c := 0; c < 3; c++ {
			for i := range want.Channels[c].Data {
				if got.Channels[c].Data[i] != want.Channels[c].Data[i] {
					t.Fatalf("%dx%d channel %d sample %d: got %d want %d", w, h, c, i, got.Channels[c].Data[i], want.Channels[c].Data[i])
				}
			}
		}
	}
}

// TestContainerRoundTripSqueezeForcedHorizontalOnWidthOne forces a
// horizontal squeeze step on a width-1 image, the one shape
// defaultSqueezeParams' direction choice (split along the larger
// dimension) never exercises on its own.
func TestContainerRoundTripSqueezeForcedHorizontalOnWidthOne(t *testing.T) {
	w, h := 1, 4
	img := rgbImage(w, h, 255)
	want := rgbImage(w, h, 255)
	squeezeParams := []int32{1, int32(img.NbMetaChannels), int32(img.NbMetaChannels + img.NbChannels - 1)}
	transforms := []transform.Transform{
		transform.New(transform.Squeeze, squeezeParams),
	}
	applyForward(t, img, transforms)

	groupOpts := GroupOptions{Encode: channelcoder.EncodeOptions{MaxProperties: 16}}
	data, err := Encode(img, transforms, groupOpts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	res, err := Decode(data, DecodeOptions{Preview: -1, Group: groupOpts})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := res.Image
	for c := 0; c < 3; c++ {
		for i := range want.Channels[c].Data {
			if got.Channels[c].Data[i] != want.Channels[c].Data[i] {
				t.Fatalf("channel %d sample %d: got %d want %d", c, i, got.Channels[c].Data[i], want.Channels[c].Data[i])
			}
		}
	}
}

func TestContainerRoundTripConstantImage(t *testing.T) {
	img := imagemodel.NewImage(4, 4, 255)
	img.MaxProperties = 16
	for c := 0; c < 3; c++ {
		ch := imagemodel.NewChannel(4, 4, c)
		ch.MinVal, ch.MaxVal = int32(c*10), int32(c*10)
		for i := range ch.Data {
			ch.Data[i] = int32(c * 10)
		}
		img.Channels = append(img.Channels, ch)
	}
	img.NbChannels = 3
	img.RealNbChannels = 3

	groupOpts := GroupOptions{Encode: channelcoder.EncodeOptions{MaxProperties: 16}}
	data, err := Encode(img, nil, groupOpts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	res, err := Decode(data, DecodeOptions{Preview: -1, Group: groupOpts})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for c := 0; c < 3; c++ {
		for i, v := range res.Image.Channels[c].Data {
			if v != int32(c*10) {
				t.Fatalf("channel %d sample %d: got %d want %d", c, i, v, c*10)
			}
		}
	}
}
