// Command fuif demonstrates the package's Encode/Decode round trip on a
// couple of synthetic rasters. It is not a flag-parsing CLI (file ingest
// and a command surface are both out of scope for this module).
package main

import (
	"fmt"
	"log"

	"github.com/cloudinary/fuif"
)

func main() {
	losslessExample()
	lossyExample()
}

func losslessExample() {
	fmt.Println("=== Lossless RGB gradient ===")

	width, height := 64, 64
	raster := gradientRaster(width, height)

	data, err := fuif.Encode(raster, fuif.EncodeOptions{})
	if err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
	fmt.Printf("Original size: %d bytes\n", 3*width*height)
	fmt.Printf("Compressed size: %d bytes\n", len(data))
	fmt.Printf("Compression ratio: %.2fx\n", float64(3*width*height)/float64(len(data)))

	res, err := fuif.Decode(data, fuif.DecodeOptions{Preview: -1})
	if err != nil {
		log.Fatalf("Decode failed: %v", err)
	}
	fmt.Printf("Decoded: %dx%d, %d planes, incomplete=%v\n",
		res.Raster.W, res.Raster.H, len(res.Raster.Planes), res.Incomplete)
	fmt.Printf("Maximum pixel error: %d\n\n", maxError(raster, res.Raster))
}

func lossyExample() {
	fmt.Println("=== Lossy YCbCr + quantize ===")

	width, height := 64, 64
	raster := gradientRaster(width, height)

	opts := fuif.EncodeOptions{
		Colorspace:     fuif.ColorYCbCr,
		Quantize:       []int32{1, 2, 2},
		DisableSqueeze: true,
	}
	data, err := fuif.Encode(raster, opts)
	if err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
	fmt.Printf("Compressed size: %d bytes (ratio %.2fx)\n",
		len(data), float64(3*width*height)/float64(len(data)))

	res, err := fuif.Decode(data, fuif.DecodeOptions{Preview: -1})
	if err != nil {
		log.Fatalf("Decode failed: %v", err)
	}
	fmt.Printf("Decoded: %dx%d, max error: %d\n", res.Raster.W, res.Raster.H, maxError(raster, res.Raster))

	preview, err := fuif.Decode(data, fuif.DecodeOptions{Preview: 0})
	if err != nil {
		log.Fatalf("Preview decode failed: %v", err)
	}
	fmt.Printf("LQIP preview: %dx%d\n", preview.Raster.W, preview.Raster.H)
}

// gradientRaster builds a diagonal RGB gradient, the same shape as the
// teacher's grayscale/RGB gradient fixtures.
func gradientRaster(w, h int) *fuif.Raster {
	planes := make([]fuif.Plane, 3)
	for c := range planes {
		data := make([]int32, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				switch c {
				case 0:
					data[y*w+x] = int32(x * 4 % 256)
				case 1:
					data[y*w+x] = int32(y * 4 % 256)
				default:
					data[y*w+x] = int32((x + y) * 2 % 256)
				}
			}
		}
		planes[c] = fuif.Plane{W: w, H: h, Component: c, Data: data}
	}
	return &fuif.Raster{W: w, H: h, MaxVal: 255, Planes: planes}
}

func maxError(a, b *fuif.Raster) int32 {
	var max int32
	for c := range a.Planes {
		if c >= len(b.Planes) {
			break
		}
		pa, pb := a.Planes[c].Data, b.Planes[c].Data
		for i := range pa {
			if i >= len(pb) {
				break
			}
			diff := pa[i] - pb[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > max {
				max = diff
			}
		}
	}
	return max
}
