package model

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// NumericMode selects the element type of both the input tensor and the raw
// output scores.
type NumericMode uint8

const (
	// Quantized models take and return unsigned 8-bit values.
	Quantized NumericMode = iota
	// Float models take mean/std normalized float32 values and return
	// probabilities in [0,1].
	Float
)

func (m NumericMode) String() string {
	switch m {
	case Quantized:
		return "quantized"
	case Float:
		return "float"
	default:
		return "unknown"
	}
}

// ParseNumericMode accepts "quantized"/"quant"/"uint8" and "float"/"float32".
func ParseNumericMode(s string) (NumericMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quantized", "quant", "uint8":
		return Quantized, nil
	case "float", "float32":
		return Float, nil
	default:
		return 0, fmt.Errorf("unknown numeric mode %q", s)
	}
}

func (m NumericMode) MarshalText() ([]byte, error) {
	if _, err := m.codec(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

func (m *NumericMode) UnmarshalText(text []byte) error {
	parsed, err := ParseNumericMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// numericCodec holds everything that differs between the two modes. The
// encoder and the ranker share the same control flow and only call into it.
type numericCodec interface {
	elementWidth() int
	putChannel(dst []byte, channel uint8, cfg ClassifierConfig)
	confidence(scores RawScores, i int) float32
}

func (m NumericMode) codec() (numericCodec, error) {
	switch m {
	case Quantized:
		return quantizedCodec{}, nil
	case Float:
		return floatCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown numeric mode %d", uint8(m))
	}
}

type quantizedCodec struct{}

func (quantizedCodec) elementWidth() int { return 1 }

func (quantizedCodec) putChannel(dst []byte, channel uint8, _ ClassifierConfig) {
	dst[0] = channel
}

func (quantizedCodec) confidence(scores RawScores, i int) float32 {
	return float32(scores.Bytes[i]) / 255.0
}

type floatCodec struct{}

func (floatCodec) elementWidth() int { return 4 }

func (floatCodec) putChannel(dst []byte, channel uint8, cfg ClassifierConfig) {
	v := (float32(channel) - cfg.ImageMean) / cfg.ImageStd
	binary.NativeEndian.PutUint32(dst, math.Float32bits(v))
}

func (floatCodec) confidence(scores RawScores, i int) float32 {
	return scores.Floats[i]
}
