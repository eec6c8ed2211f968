package fuif

import "github.com/cloudinary/fuif/internal/imagemodel"

// Plane is one channel of a decoded raster: a W×H grid of integer
// samples plus the component id an external raster reader/writer needs
// to map it back to R/G/B/alpha/whatever. Producing and consuming
// Planes — PNG/PAM decoding, preview rendering, and so on — is the
// external collaborator's job (spec §1); this package only ever reads
// and writes Plane.Data.
type Plane struct {
	W, H      int
	Component int
	Data      []int32
}

// Raster is the plain multi-channel image Encode consumes and Decode
// produces: one Plane per component, all sharing W×H (animations stack
// frames vertically into a taller Raster, per Frames/FrameHeight).
type Raster struct {
	W, H   int
	MaxVal int32

	ColorModel imagemodel.ColorModel

	// Frames is the frame count for an animated Raster (1 for a still
	// image); H is Frames*FrameHeight, stacked top to bottom.
	Frames int
	// Den/Num give the animation's frame duration as Num[i]/Den seconds;
	// a nil Num means every frame shares the same duration.
	Den  int32
	Num  []int32
	Loops int32

	Planes []Plane
}

// toImage builds the internal working Image from a Raster, validating
// that every plane's shape matches the raster it claims to belong to.
func (r *Raster) toImage() (*imagemodel.Image, error) {
	if r.W <= 0 || r.H <= 0 || len(r.Planes) == 0 {
		return nil, ErrInvalidRaster
	}
	img := imagemodel.NewImage(r.W, r.H, r.MaxVal)
	img.ColorModel = r.ColorModel
	img.NbFrames = r.Frames
	if img.NbFrames < 1 {
		img.NbFrames = 1
	}
	img.Den = r.Den
	if img.Den == 0 {
		img.Den = 1
	}
	img.Num = r.Num
	img.Loops = r.Loops
	img.NbChannels = len(r.Planes)
	img.RealNbChannels = len(r.Planes)

	for _, p := range r.Planes {
		if p.W != r.W || p.H != r.H || len(p.Data) != p.W*p.H {
			return nil, ErrInvalidRaster
		}
		ch := imagemodel.NewChannel(p.W, p.H, p.Component)
		ch.MaxVal = r.MaxVal
		copy(ch.Data, p.Data)
		ch.MinVal, ch.MaxVal = ch.ActualMinMax()
		img.Channels = append(img.Channels, ch)
	}
	return img, nil
}

// fromImage converts a fully inverse-transformed Image (real_nb_channels
// channels, each back at the raster's W×H) into the Raster an external
// sink consumes.
func fromImage(img *imagemodel.Image) *Raster {
	r := &Raster{
		W: img.W, H: img.H, MaxVal: img.MaxVal,
		ColorModel: img.ColorModel,
		Frames:     img.NbFrames, Den: img.Den, Num: img.Num, Loops: img.Loops,
	}
	for _, ch := range img.Channels {
		data := make([]int32, len(ch.Data))
		copy(data, ch.Data)
		r.Planes = append(r.Planes, Plane{W: ch.W, H: ch.H, Component: ch.Component, Data: data})
	}
	return r
}
