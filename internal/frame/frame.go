// Package frame turns decoded photos and camera frames into the square pixel
// grids the classifier accepts.
package frame

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/Brownie44l1/edge-classifier/internal/model"
)

// Decode reads a JPEG or PNG and applies its EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return img, nil
}

// Prepare crops the centre square of img and scales it to size x size.
func Prepare(img image.Image, size int) (model.Pixels, error) {
	if size <= 0 {
		return model.Pixels{}, fmt.Errorf("invalid target size %d", size)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return model.Pixels{}, fmt.Errorf("image is empty")
	}

	side := min(bounds.Dx(), bounds.Dy())
	square := imaging.CropCenter(img, side, side)
	if side != size {
		return Pack(resize.Resize(uint(size), uint(size), square, resize.Lanczos3)), nil
	}
	return Pack(square), nil
}

// Pack converts img into non-premultiplied 0xAARRGGBB values in row-major
// order.
func Pack(img image.Image) model.Pixels {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	px := model.Pixels{
		Width:  width,
		Height: height,
		Data:   make([]uint32, 0, width*height),
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			px.Data = append(px.Data, uint32(c.A)<<24|uint32(c.R)<<16|uint32(c.G)<<8|uint32(c.B))
		}
	}
	return px
}
