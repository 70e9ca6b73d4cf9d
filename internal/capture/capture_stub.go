//go:build !gocv
// +build !gocv

package capture

import (
	"errors"
	"image"
)

type Camera struct{}

// Open returns an error if the binary is built without the gocv tag.
func Open(string) (*Camera, error) {
	return nil, errors.New("gocv build tag is not enabled")
}

func (c *Camera) Read() (image.Image, error) {
	return nil, errors.New("gocv build tag is not enabled")
}

func (c *Camera) Close() error {
	return nil
}
