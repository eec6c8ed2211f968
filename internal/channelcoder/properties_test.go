package channelcoder

import (
	"testing"

	"github.com/cloudinary/fuif/internal/imagemodel"
)

func TestSlogZero(t *testing.T) {
	if slog(0) != 0 {
		t.Fatalf("slog(0) = %d, want 0", slog(0))
	}
}

func TestSlogSignAndMagnitude(t *testing.T) {
	cases := []struct{ in, want int32 }{
		{1, 1}, {2, 2}, {3, 2}, {4, 3}, {-1, -1}, {-4, -3},
	}
	for _, c := range cases {
		if got := slog(c.in); got != c.want {
			t.Fatalf("slog(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestInitPropertyRangesSingleChannel(t *testing.T) {
	ch := imagemodel.NewChannel(4, 3, 0)
	ch.MinVal, ch.MaxVal = 0, 255
	img := imagemodel.NewImage(4, 3, 255)
	img.Channels = []*imagemodel.Channel{ch}

	ranges := InitPropertyRanges(img, 0, 0, 16)
	if len(ranges) != NonRefProperties {
		t.Fatalf("single channel with no predecessors should have exactly the 13 fixed properties, got %d", len(ranges))
	}
	// Location ranges (indices 4,5) must match H-1 and W-1.
	if ranges[4].Hi != int32(ch.H-1) {
		t.Fatalf("y-range hi = %d, want %d", ranges[4].Hi, ch.H-1)
	}
	if ranges[5].Hi != int32(ch.W-1) {
		t.Fatalf("x-range hi = %d, want %d", ranges[5].Hi, ch.W-1)
	}
}

func TestInitPropertyRangesSkipsConstantReference(t *testing.T) {
	constCh := imagemodel.NewChannel(4, 3, 0)
	constCh.MinVal, constCh.MaxVal = 7, 7
	target := imagemodel.NewChannel(4, 3, 1)
	target.MinVal, target.MaxVal = 0, 255
	img := imagemodel.NewImage(4, 3, 255)
	img.Channels = []*imagemodel.Channel{constCh, target}

	ranges := InitPropertyRanges(img, 1, 1, 16)
	if len(ranges) != NonRefProperties {
		t.Fatalf("constant predecessor must not contribute reference properties, got %d extra", len(ranges)-NonRefProperties)
	}
}

func TestNeighborsEdgeFallback(t *testing.T) {
	ch := imagemodel.NewChannel(3, 3, 0)
	ch.MinVal, ch.MaxVal = 0, 100
	for i := range ch.Data {
		ch.Data[i] = int32(i + 1)
	}
	ch.SetZero()

	left, top, topleft, topright, leftleft, toptop := neighbors(ch, 0, 0)
	if left != ch.Zero || top != ch.Zero {
		t.Fatalf("top-left corner should fall back to Zero: left=%d top=%d zero=%d", left, top, ch.Zero)
	}
	if topleft != left || topright != top || leftleft != left || toptop != top {
		t.Fatalf("corner fallbacks should mirror left/top: topleft=%d topright=%d leftleft=%d toptop=%d", topleft, topright, leftleft, toptop)
	}
}
