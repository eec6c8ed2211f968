package imagemodel

// ColorModel packs the 6-bit colormodel field from the container header:
// a coarse kind (RGB/CMYK/CIE/reserved) and an ICC profile id, with an
// escape bit for a custom (out-of-band) profile.
type ColorModel struct {
	Kind    int // 0=RGB, 1=CMYK, 2=CIE, 3=reserved
	Profile int // 0=sRGB, 1=DCI-P3, 2=Rec.2020, 3=AdobeRGB-1998, 4=ProPhoto
	Custom  bool
}

// Pack encodes the ColorModel into the 6-bit field layout: bits 4-5 are
// Kind, bits 0-3 are Profile, bit 6 is Custom.
func (cm ColorModel) Pack() int32 {
	v := int32(cm.Kind&0x3)<<4 | int32(cm.Profile&0xf)
	if cm.Custom {
		v |= 1 << 6
	}
	return v
}

// UnpackColorModel is Pack's inverse.
func UnpackColorModel(v int32) ColorModel {
	return ColorModel{
		Kind:    int((v >> 4) & 0x3),
		Profile: int(v & 0xf),
		Custom:  v&(1<<6) != 0,
	}
}

// Image is the ordered sequence of channels plus the metadata that
// survives the whole transform pipeline.
type Image struct {
	Channels []*Channel

	// NbMetaChannels counts the leading channels holding auxiliary data
	// (palettes, permutation maps, match offsets) rather than pixels.
	NbMetaChannels int
	// NbChannels is the logical component count after reversing every
	// transform except palette.
	NbChannels int
	// RealNbChannels is the component count after reversing palette too.
	RealNbChannels int

	W, H       int
	MaxVal     int32
	ColorModel ColorModel

	NbFrames int
	Den      int32
	Num      []int32
	Loops    int32

	MaxProperties int

	Error bool
}

// NewImage returns an empty single-frame image of the given dimensions
// and maximum sample value (maxVal, typically 2^bitDepth - 1).
func NewImage(w, h int, maxVal int32) *Image {
	return &Image{
		W: w, H: h,
		MaxVal:   maxVal,
		NbFrames: 1,
		Den:      1,
	}
}

// IsAnimation reports whether the image holds more than one frame,
// stored as a vertical filmstrip of height NbFrames*frameHeight.
func (img *Image) IsAnimation() bool {
	return img.NbFrames > 1
}

// FrameHeight returns the height of a single frame.
func (img *Image) FrameHeight() int {
	if img.NbFrames <= 0 {
		return img.H
	}
	return img.H / img.NbFrames
}

// InsertChannel inserts ch at position idx, used by transforms (squeeze,
// DCT, palette) that grow the channel list.
func (img *Image) InsertChannel(idx int, ch *Channel) {
	img.Channels = append(img.Channels, nil)
	copy(img.Channels[idx+1:], img.Channels[idx:])
	img.Channels[idx] = ch
}

// RemoveChannel deletes the channel at idx, used only by inverse
// transforms collapsing auxiliary channels back into pixel data.
func (img *Image) RemoveChannel(idx int) {
	img.Channels = append(img.Channels[:idx], img.Channels[idx+1:]...)
}

// RemoveRange deletes channels [lo, hi), used by transforms (palette,
// 2DMatch) that collapse several channels into one in a single step.
func (img *Image) RemoveRange(lo, hi int) {
	img.Channels = append(img.Channels[:lo], img.Channels[hi:]...)
}

// Clamp clamps every channel's samples to its own [MinVal, MaxVal],
// required before handing a decoded image to a renderer.
func (img *Image) Clamp() {
	for _, ch := range img.Channels {
		ch.Clamp()
	}
}

// RecomputeMinMax rescans every channel's actual samples and resets
// MinVal/MaxVal to match. Color transforms like YCbCr/YCoCg mutate
// samples without tracking the new range themselves (unlike Squeeze,
// Palette or Quantize, which compute it analytically in their forward
// Apply), so
// the encoder calls this once forward transforms have run and before
// handing the image to the channel coder.
func (img *Image) RecomputeMinMax() {
	for _, ch := range img.Channels {
		ch.MinVal, ch.MaxVal = ch.ActualMinMax()
	}
}
