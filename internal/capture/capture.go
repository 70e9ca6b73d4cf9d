//go:build gocv
// +build gocv

// Package capture reads frames from a local camera.
package capture

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

type Camera struct {
	device string
	webcam *gocv.VideoCapture
	mat    gocv.Mat
}

// Open opens a camera by index ("0") or by URL/file path.
func Open(device string) (*Camera, error) {
	webcam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", device, err)
	}
	return &Camera{
		device: device,
		webcam: webcam,
		mat:    gocv.NewMat(),
	}, nil
}

// Read grabs the next frame.
func (c *Camera) Read() (image.Image, error) {
	if ok := c.webcam.Read(&c.mat); !ok {
		return nil, fmt.Errorf("camera %s closed", c.device)
	}
	if c.mat.Empty() {
		return nil, errors.New("empty frame")
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

func (c *Camera) Close() error {
	_ = c.mat.Close()
	return c.webcam.Close()
}
