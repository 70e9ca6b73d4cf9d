//go:build tflite
// +build tflite

package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mattn/go-tflite"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/edge-classifier/internal/model"
)

// TFLite runs a TensorFlow Lite classifier. The model file is memory-mapped
// by the runtime and never re-read.
type TFLite struct {
	mu          sync.Mutex
	mode        model.NumericMode
	numClasses  int
	declared    int
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	closed      bool
}

// OpenTFLite loads a .tflite model whose single input is [1,S,S,3] of uint8
// (quantized) or float32 and whose single output is [1,N].
func OpenTFLite(modelPath string, cfg model.ClassifierConfig, numClasses int, opts Options, log logrus.FieldLogger) (model.Engine, error) {
	if err := statModel(modelPath, log); err != nil {
		return nil, err
	}

	e := &TFLite{mode: cfg.Mode, numClasses: numClasses}
	e.model = tflite.NewModelFromFile(modelPath)
	if e.model == nil {
		return nil, model.ResourceError("open model", fmt.Errorf("cannot load tflite model %s", modelPath))
	}
	e.options = tflite.NewInterpreterOptions()
	if opts.Threads > 0 {
		e.options.SetNumThread(opts.Threads)
	}
	e.interpreter = tflite.NewInterpreter(e.model, e.options)
	if e.interpreter == nil {
		e.destroy()
		return nil, model.ResourceError("open model", errors.New("cannot create tflite interpreter"))
	}
	if status := e.interpreter.AllocateTensors(); status != tflite.OK {
		e.destroy()
		return nil, model.ResourceError("open model", fmt.Errorf("allocate tensors: status %v", status))
	}

	in := e.interpreter.GetInputTensor(0)
	wantType := tflite.UInt8
	if cfg.Mode == model.Float {
		wantType = tflite.Float32
	}
	if in.Type() != wantType {
		e.destroy()
		return nil, model.ResourceError("open model", fmt.Errorf("model input is %v, %s mode needs %v", in.Type(), cfg.Mode, wantType))
	}
	if int(in.ByteSize()) != cfg.TensorLen() {
		e.destroy()
		return nil, model.ResourceError("open model", fmt.Errorf("model input is %d bytes, configuration encodes %d", in.ByteSize(), cfg.TensorLen()))
	}

	out := e.interpreter.GetOutputTensor(0)
	dims := make([]int64, out.NumDims())
	for i := range dims {
		dims[i] = int64(out.Dim(i))
	}
	declared, err := classDim(dims)
	if err != nil {
		e.destroy()
		return nil, err
	}
	e.declared = declared
	if e.declared != numClasses {
		log.Warnf("Model declares %d classes but %d labels are loaded; inference will fail", e.declared, numClasses)
	}

	log.WithFields(logrus.Fields{
		"classes": e.declared,
		"mode":    cfg.Mode,
	}).Info("TFLite interpreter created")
	return e, nil
}

func (e *TFLite) Run(input model.InputTensorBuffer) (model.RawScores, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return model.RawScores{}, model.InferenceError("tflite run", model.ErrReleased)
	}
	if err := checkClasses(e.declared, e.numClasses); err != nil {
		return model.RawScores{}, err
	}

	in := e.interpreter.GetInputTensor(0)
	if len(input) != int(in.ByteSize()) {
		return model.RawScores{}, model.InferenceError("tflite run", fmt.Errorf("input has %d bytes, tensor expects %d", len(input), in.ByteSize()))
	}
	if status := in.CopyFromBuffer(input); status != tflite.OK {
		return model.RawScores{}, model.InferenceError("tflite run", fmt.Errorf("copy input: status %v", status))
	}
	if status := e.interpreter.Invoke(); status != tflite.OK {
		return model.RawScores{}, model.InferenceError("tflite run", fmt.Errorf("invoke: status %v", status))
	}

	out := e.interpreter.GetOutputTensor(0)
	scores := model.RawScores{Mode: e.mode}
	if e.mode == model.Float {
		scores.Floats = slices.Clone(out.Float32s())
	} else {
		scores.Bytes = slices.Clone(out.UInt8s())
	}
	return scores, nil
}

func (e *TFLite) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.destroy()
	return nil
}

func (e *TFLite) destroy() {
	if e.interpreter != nil {
		e.interpreter.Delete()
		e.interpreter = nil
	}
	if e.options != nil {
		e.options.Delete()
		e.options = nil
	}
	if e.model != nil {
		e.model.Delete()
		e.model = nil
	}
}
