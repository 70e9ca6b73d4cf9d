package model

import (
	"fmt"
	"strconv"
)

const (
	batchSize     = 1
	pixelChannels = 3
	unknownLabel  = "unknown"
)

type ClassifierConfig struct {
	InputSize           int
	Mode                NumericMode
	ImageMean           float32
	ImageStd            float32
	MaxResults          int
	ConfidenceThreshold float32
}

// DefaultClassifierConfig returns the settings of a 224x224 quantized
// MobileNet-style classifier.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		InputSize:           224,
		Mode:                Quantized,
		ImageMean:           128,
		ImageStd:            128.0,
		MaxResults:          3,
		ConfidenceThreshold: 0.1,
	}
}

func (c ClassifierConfig) Validate() error {
	if c.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", c.InputSize)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive, got %d", c.MaxResults)
	}
	if c.ImageStd == 0 {
		return fmt.Errorf("image std must not be zero")
	}
	if _, err := c.Mode.codec(); err != nil {
		return err
	}
	return nil
}

// TensorLen is the byte length of the input tensor for this configuration.
func (c ClassifierConfig) TensorLen() int {
	cd, err := c.Mode.codec()
	if err != nil {
		return 0
	}
	return batchSize * c.InputSize * c.InputSize * pixelChannels * cd.elementWidth()
}

// Pixels is a row-major grid of packed 0xAARRGGBB values.
type Pixels struct {
	Width  int
	Height int
	Data   []uint32
}

// InputTensorBuffer is the raw input tensor handed to an Engine.
type InputTensorBuffer []byte

// RawScores holds one inference output for a batch of one. Bytes is set for
// Quantized, Floats for Float.
type RawScores struct {
	Mode   NumericMode
	Bytes  []byte
	Floats []float32
}

func (s RawScores) Len() int {
	if s.Mode == Float {
		return len(s.Floats)
	}
	return len(s.Bytes)
}

type Recognition struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
	Quantized  bool    `json:"isQuantizedSource"`
}

func newRecognition(index int, label string, confidence float32, mode NumericMode) Recognition {
	return Recognition{
		ID:         strconv.Itoa(index),
		Label:      label,
		Confidence: confidence,
		Quantized:  mode == Quantized,
	}
}

func (r Recognition) String() string {
	return fmt.Sprintf("[%s] %s (%.1f%%)", r.ID, r.Label, r.Confidence*100)
}
