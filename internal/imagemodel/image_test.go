package imagemodel

import "testing"

func TestChannelEdgeReadsReturnZero(t *testing.T) {
	c := NewChannel(3, 3, 0)
	c.Zero = -7
	if got := c.At(-1, 0); got != -7 {
		t.Fatalf("got %d, want zero sentinel -7", got)
	}
	if got := c.At(0, 3); got != -7 {
		t.Fatalf("got %d, want zero sentinel -7", got)
	}
}

func TestChannelIsConstant(t *testing.T) {
	c := NewChannel(2, 2, 0)
	c.MinVal, c.MaxVal = 5, 5
	if !c.IsConstant() {
		t.Fatalf("expected constant channel")
	}
	c.MaxVal = 6
	if c.IsConstant() {
		t.Fatalf("expected non-constant channel")
	}
}

func TestChannelClamp(t *testing.T) {
	c := NewChannel(2, 1, 0)
	c.MinVal, c.MaxVal = 0, 10
	c.Set(0, 0, -5)
	c.Set(0, 1, 20)
	c.Clamp()
	if c.At(0, 0) != 0 || c.At(0, 1) != 10 {
		t.Fatalf("clamp failed: %v", c.Data)
	}
}

func TestImageInsertRemoveChannel(t *testing.T) {
	img := NewImage(4, 4, 255)
	a := NewChannel(4, 4, 0)
	b := NewChannel(4, 4, 1)
	img.Channels = []*Channel{a, b}

	mid := NewChannel(4, 4, 9)
	img.InsertChannel(1, mid)
	if len(img.Channels) != 3 || img.Channels[1] != mid {
		t.Fatalf("insert failed: %v", img.Channels)
	}

	img.RemoveChannel(1)
	if len(img.Channels) != 2 || img.Channels[0] != a || img.Channels[1] != b {
		t.Fatalf("remove failed: %v", img.Channels)
	}
}

func TestColorModelPackRoundTrip(t *testing.T) {
	cases := []ColorModel{
		{Kind: 0, Profile: 0, Custom: false},
		{Kind: 2, Profile: 4, Custom: true},
		{Kind: 1, Profile: 9, Custom: false},
	}
	for _, cm := range cases {
		got := UnpackColorModel(cm.Pack())
		if got != cm {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, cm)
		}
	}
}
