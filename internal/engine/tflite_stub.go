//go:build !tflite
// +build !tflite

package engine

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/edge-classifier/internal/model"
)

// OpenTFLite fails when the binary is built without the tflite tag.
func OpenTFLite(modelPath string, _ model.ClassifierConfig, _ int, _ Options, _ logrus.FieldLogger) (model.Engine, error) {
	return nil, model.ResourceError("open model", errors.New("tflite build tag is not enabled, cannot open "+modelPath))
}
