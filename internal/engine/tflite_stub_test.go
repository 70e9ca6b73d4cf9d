//go:build !tflite
// +build !tflite

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/edge-classifier/internal/model"
)

func TestOpenTFLiteWithoutTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobilenet_quant_v1_224.tflite")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0o644))

	e, err := OpenTFLite(path, model.DefaultClassifierConfig(), 1001, Options{}, discardLogger())
	require.ErrorIs(t, err, model.ErrResource)
	require.Nil(t, e)
}
