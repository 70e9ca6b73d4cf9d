package model

import "fmt"

// Encode lays out an InputSize x InputSize pixel grid as the NHWC input
// tensor of a batch of one, R then G then B per pixel. Resizing is the
// caller's job.
func Encode(px Pixels, cfg ClassifierConfig) (InputTensorBuffer, error) {
	cd, err := cfg.Mode.codec()
	if err != nil {
		return nil, ShapeError("encode", err)
	}
	if px.Width != cfg.InputSize || px.Height != cfg.InputSize {
		return nil, ShapeError("encode", fmt.Errorf("expected %dx%d pixels, got %dx%d",
			cfg.InputSize, cfg.InputSize, px.Width, px.Height))
	}
	if len(px.Data) != px.Width*px.Height {
		return nil, ShapeError("encode", fmt.Errorf("pixel data has %d values, want %d",
			len(px.Data), px.Width*px.Height))
	}

	width := cd.elementWidth()
	buf := make(InputTensorBuffer, cfg.TensorLen())
	off := 0
	for row := 0; row < cfg.InputSize; row++ {
		for col := 0; col < cfg.InputSize; col++ {
			v := px.Data[row*cfg.InputSize+col]
			for _, c := range [pixelChannels]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)} {
				cd.putChannel(buf[off:off+width], c, cfg)
				off += width
			}
		}
	}
	return buf, nil
}
