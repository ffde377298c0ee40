package converter

import (
	"bytes"
	"fmt"
	"image"

	// Registered codecs for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Raster is a dense rectangular grid of RGBA samples in row-major order,
// 4 bytes per pixel. It is the decoded in-memory form of a source image.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// DecodeImage decodes PNG, JPEG or GIF data into a raster.
func DecodeImage(data []byte) (*Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts any image into a raster, normalizing to 8-bit RGBA.
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)

	return &Raster{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    rgba.Pix,
	}
}

// At returns the sample at (x, y). Coordinates must be in range.
func (r *Raster) At(x, y int) PixelSample {
	i := (y*r.Width + x) * 4
	return PixelSample{
		X: x, Y: y,
		R: r.Pix[i],
		G: r.Pix[i+1],
		B: r.Pix[i+2],
		A: r.Pix[i+3],
	}
}

// Resample shrinks the raster to the given percentage of its size, flooring
// both dimensions. 100 returns the receiver unchanged; this exists purely to
// bound output size for large images.
func (r *Raster) Resample(percent int) *Raster {
	if percent >= 100 {
		return r
	}
	w, h := resampledSize(r.Width, r.Height, percent)

	src := &image.RGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	return &Raster{Width: w, Height: h, Pix: dst.Pix}
}
