package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPack(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0xFF, G: 0x00, B: 0x80, A: 0xFF})

	px := Pack(img)
	assert.Equal(t, 2, px.Width)
	assert.Equal(t, 1, px.Height)
	assert.Equal(t, []uint32{0xFF102030, 0xFFFF0080}, px.Data)
}

func TestPackTranslucent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	px := Pack(img)
	assert.Equal(t, []uint32{0x80C86432}, px.Data)
}

func TestPackOffsetBounds(t *testing.T) {
	img := solid(4, 4, color.NRGBA{R: 1, G: 2, B: 3, A: 0xFF})
	sub := img.SubImage(image.Rect(1, 1, 3, 4))

	px := Pack(sub)
	assert.Equal(t, 2, px.Width)
	assert.Equal(t, 3, px.Height)
	assert.Len(t, px.Data, 6)
	for _, v := range px.Data {
		assert.Equal(t, uint32(0xFF010203), v)
	}
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		size int
	}{
		{name: "landscape", w: 64, h: 32, size: 16},
		{name: "portrait", w: 20, h: 50, size: 8},
		{name: "already sized", w: 8, h: 8, size: 8},
		{name: "upscale", w: 4, h: 4, size: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, err := Prepare(solid(tt.w, tt.h, color.NRGBA{R: 200, G: 100, B: 50, A: 0xFF}), tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.size, px.Width)
			assert.Equal(t, tt.size, px.Height)
			assert.Len(t, px.Data, tt.size*tt.size)
		})
	}
}

func TestPrepareKeepsCentre(t *testing.T) {
	// Red left and right bands are cropped away, leaving the blue centre.
	img := solid(30, 10, color.NRGBA{R: 0xFF, A: 0xFF})
	for y := 0; y < 10; y++ {
		for x := 10; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 0xFF, A: 0xFF})
		}
	}

	px, err := Prepare(img, 10)
	require.NoError(t, err)
	for _, v := range px.Data {
		assert.Equal(t, uint32(0xFF0000FF), v)
	}
}

func TestPrepareRejectsBadInput(t *testing.T) {
	_, err := Prepare(solid(4, 4, color.NRGBA{}), 0)
	require.Error(t, err)

	_, err = Prepare(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 4)
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(3, 2, color.NRGBA{R: 9, A: 0xFF})))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	_, err = Decode(strings.NewReader("definitely not a png"))
	require.Error(t, err)
}
