package channelcoder

import (
	"testing"

	"github.com/cloudinary/fuif/internal/imagemodel"
)

func rampChannel(w, h int, maxVal int32) *imagemodel.Channel {
	ch := imagemodel.NewChannel(w, h, 0)
	ch.MaxVal = maxVal
	ch.MinVal = 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := int32((y*w + x)) % (maxVal + 1)
			ch.Set(y, x, v)
		}
	}
	return ch
}

func constantChannel(w, h int, v int32) *imagemodel.Channel {
	ch := imagemodel.NewChannel(w, h, 0)
	ch.MinVal, ch.MaxVal = v, v
	for i := range ch.Data {
		ch.Data[i] = v
	}
	return ch
}

func newSingleChannelImage(ch *imagemodel.Channel) *imagemodel.Image {
	img := imagemodel.NewImage(ch.W, ch.H, ch.MaxVal)
	img.Channels = []*imagemodel.Channel{ch}
	img.NbChannels = 1
	img.RealNbChannels = 1
	return img
}

func roundTrip(t *testing.T, img *imagemodel.Image, predictor int, opts EncodeOptions) *imagemodel.Image {
	t.Helper()
	blob, err := EncodeGroup(img, 0, 0, predictor, opts)
	if err != nil {
		t.Fatalf("EncodeGroup: %v", err)
	}

	out := imagemodel.NewImage(img.W, img.H, img.MaxVal)
	outCh := imagemodel.NewChannel(img.Channels[0].W, img.Channels[0].H, 0)
	out.Channels = []*imagemodel.Channel{outCh}

	consumed, gotPredictor, err := DecodeGroup(blob, out, 0, 0, 16)
	if err != nil {
		t.Fatalf("DecodeGroup: %v", err)
	}
	if consumed != len(blob) {
		t.Fatalf("consumed %d bytes, want %d", consumed, len(blob))
	}
	if gotPredictor != predictor {
		t.Fatalf("predictor: got %d want %d", gotPredictor, predictor)
	}
	return out
}

func assertSameSamples(t *testing.T, want, got *imagemodel.Channel) {
	t.Helper()
	if want.W != got.W || want.H != got.H {
		t.Fatalf("dimension mismatch: %dx%d vs %dx%d", want.W, want.H, got.W, got.H)
	}
	for y := 0; y < want.H; y++ {
		for x := 0; x < want.W; x++ {
			wv, gv := want.At(y, x), got.At(y, x)
			if wv != gv {
				t.Fatalf("(%d,%d): got %d want %d", y, x, gv, wv)
			}
		}
	}
}

func TestRoundTripAllPredictors(t *testing.T) {
	for predictor := 0; predictor <= 6; predictor++ {
		ch := rampChannel(8, 8, 255)
		img := newSingleChannelImage(ch)
		out := roundTrip(t, img, predictor, EncodeOptions{NbRepeats: 1})
		assertSameSamples(t, ch, out.Channels[0])
	}
}

func TestRoundTripFastPath(t *testing.T) {
	ch := imagemodel.NewChannel(4, 4, 0)
	ch.MinVal, ch.MaxVal = 0, 1
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			ch.Set(y, x, int32((x+y)%2))
		}
	}
	img := newSingleChannelImage(ch)
	out := roundTrip(t, img, 0, EncodeOptions{NbRepeats: 1})
	assertSameSamples(t, ch, out.Channels[0])
}

func TestConstantGroupHasNoPayload(t *testing.T) {
	ch := constantChannel(16, 16, 42)
	img := newSingleChannelImage(ch)
	blob, err := EncodeGroup(img, 0, 0, 2, EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeGroup: %v", err)
	}
	// tag + 0 marker + globalMin (42 is positive) + (spread varint) + the
	// channel's Q varint (minv==maxv==42 != 0) == the whole blob: the
	// group as a whole never opens a RAC stream.
	out := imagemodel.NewImage(ch.W, ch.H, ch.MaxVal)
	outCh := imagemodel.NewChannel(ch.W, ch.H, 0)
	out.Channels = []*imagemodel.Channel{outCh}
	consumed, _, err := DecodeGroup(blob, out, 0, 0, 16)
	if err != nil {
		t.Fatalf("DecodeGroup: %v", err)
	}
	if consumed != len(blob) {
		t.Fatalf("consumed %d, want %d", consumed, len(blob))
	}
	assertSameSamples(t, ch, out.Channels[0])
}

func TestForceUncompressedRoundTrips(t *testing.T) {
	ch := rampChannel(6, 6, 1000)
	img := newSingleChannelImage(ch)
	out := roundTrip(t, img, 2, EncodeOptions{ForceUncompressed: true})
	assertSameSamples(t, ch, out.Channels[0])
}

func TestRollbackPicksSmaller(t *testing.T) {
	// High-entropy noise-like data should make the uncompressed estimate
	// competitive or better; this only checks the result round-trips
	// regardless of which path EncodeGroup picked.
	ch := imagemodel.NewChannel(10, 10, 0)
	ch.MinVal, ch.MaxVal = -128, 127
	seed := int32(17)
	for i := range ch.Data {
		seed = seed*1103515245 + 12345
		ch.Data[i] = (seed >> 8) & 0xff
		if ch.Data[i] > 127 {
			ch.Data[i] -= 256
		}
	}
	img := newSingleChannelImage(ch)
	out := roundTrip(t, img, 1, EncodeOptions{NbRepeats: 0.5})
	assertSameSamples(t, ch, out.Channels[0])
}
