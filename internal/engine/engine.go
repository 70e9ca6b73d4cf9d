// Package engine adapts inference runtimes to model.Engine.
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/edge-classifier/internal/model"
)

const (
	ONNXName   = "onnx"
	TFLiteName = "tflite"
)

type Options struct {
	// ONNXLibrary is the path of the onnxruntime shared library. Empty uses
	// the library's default lookup.
	ONNXLibrary string
	// Threads limits intra-op parallelism. Zero keeps the runtime default.
	Threads int
}

// Opener returns the opener for the named runtime.
func Opener(name string, opts Options, log logrus.FieldLogger) (model.EngineOpener, error) {
	switch strings.ToLower(name) {
	case ONNXName, "":
		log = log.WithField("component", "onnx")
		return func(modelPath string, cfg model.ClassifierConfig, numClasses int) (model.Engine, error) {
			e, err := OpenONNX(modelPath, cfg, numClasses, opts, log)
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	case TFLiteName:
		log = log.WithField("component", "tflite")
		return func(modelPath string, cfg model.ClassifierConfig, numClasses int) (model.Engine, error) {
			return OpenTFLite(modelPath, cfg, numClasses, opts, log)
		}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q (supported: %s, %s)", name, ONNXName, TFLiteName)
	}
}

func statModel(path string, log logrus.FieldLogger) error {
	info, err := os.Stat(path)
	if err != nil {
		return model.ResourceError("open model", err)
	}
	if info.IsDir() {
		return model.ResourceError("open model", fmt.Errorf("%s is a directory", path))
	}
	log.Infof("Loading model %s (%s)", path, units.HumanSize(float64(info.Size())))
	return nil
}

// classDim returns the class count declared by the last output dimension.
func classDim(dims []int64) (int, error) {
	if len(dims) == 0 {
		return 0, model.ResourceError("open model", errors.New("output has no dimensions"))
	}
	declared := int(dims[len(dims)-1])
	if declared <= 0 {
		return 0, model.ResourceError("open model", fmt.Errorf("output class dimension is dynamic (%d)", declared))
	}
	return declared, nil
}

func checkClasses(declared, numClasses int) error {
	if declared != numClasses {
		return model.InferenceError("run", fmt.Errorf("model declares %d output classes but %d labels are loaded", declared, numClasses))
	}
	return nil
}

// readFloats decodes native-endian float32 values from src into dst.
func readFloats(dst []float32, src []byte) error {
	if len(src) != 4*len(dst) {
		return fmt.Errorf("input has %d bytes, tensor expects %d", len(src), 4*len(dst))
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.NativeEndian.Uint32(src[i*4:]))
	}
	return nil
}
