package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(size int, mode NumericMode) ClassifierConfig {
	cfg := DefaultClassifierConfig()
	cfg.InputSize = size
	cfg.Mode = mode
	return cfg
}

func decodeFloats(t *testing.T, buf InputTensorBuffer) []float32 {
	t.Helper()
	require.Zero(t, len(buf)%4)
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(buf[i*4:]))
	}
	return out
}

func TestEncodeQuantized(t *testing.T) {
	px := Pixels{Width: 2, Height: 2, Data: []uint32{
		0xFF102030, 0x00405060,
		0x80FFFFFF, 0xFF000000,
	}}

	buf, err := Encode(px, testConfig(2, Quantized))
	require.NoError(t, err)
	assert.Equal(t, InputTensorBuffer{
		0x10, 0x20, 0x30,
		0x40, 0x50, 0x60,
		0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00,
	}, buf)
}

func TestEncodeFloat(t *testing.T) {
	px := Pixels{Width: 1, Height: 1, Data: []uint32{0xFF8000FF}}

	buf, err := Encode(px, testConfig(1, Float))
	require.NoError(t, err)
	require.Len(t, buf, 12)

	values := decodeFloats(t, buf)
	assert.Equal(t, float32(0), values[0])
	assert.Equal(t, float32(-1), values[1])
	assert.InDelta(t, 0.9922, values[2], 1e-4)
	assert.Equal(t, float32(0.9921875), values[2])
}

func TestEncodeRowMajor(t *testing.T) {
	// Distinct red values make the pixel order visible in the output.
	px := Pixels{Width: 3, Height: 3, Data: make([]uint32, 9)}
	for i := range px.Data {
		px.Data[i] = uint32(i) << 16
	}

	buf, err := Encode(px, testConfig(3, Quantized))
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		assert.Equal(t, byte(i), buf[i*3], "pixel %d", i)
	}
}

func TestEncodeBufferLength(t *testing.T) {
	px := Pixels{Width: 224, Height: 224, Data: make([]uint32, 224*224)}

	quant, err := Encode(px, testConfig(224, Quantized))
	require.NoError(t, err)
	assert.Len(t, quant, 224*224*3)

	float, err := Encode(px, testConfig(224, Float))
	require.NoError(t, err)
	assert.Len(t, float, 224*224*3*4)
}

func TestEncodeShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		px   Pixels
	}{
		{name: "wrong width", px: Pixels{Width: 3, Height: 2, Data: make([]uint32, 6)}},
		{name: "wrong height", px: Pixels{Width: 2, Height: 1, Data: make([]uint32, 2)}},
		{name: "short data", px: Pixels{Width: 2, Height: 2, Data: make([]uint32, 3)}},
		{name: "empty", px: Pixels{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := Encode(tt.px, testConfig(2, Quantized))
			require.ErrorIs(t, err, ErrShape)
			assert.Nil(t, buf)
		})
	}
}
