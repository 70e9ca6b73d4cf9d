package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/edge-classifier/internal/model"
)

var ortMu sync.Mutex

func initializeEnvironment(library string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// ShutdownONNX tears down the process-wide ONNX environment. Call it once all
// ONNX engines are closed.
func ShutdownONNX() error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// ONNX runs an NHWC image classifier through ONNX Runtime. Input and output
// tensors are allocated once and bound to the session.
type ONNX struct {
	mu         sync.Mutex
	mode       model.NumericMode
	numClasses int
	declared   int
	session    *ort.AdvancedSession

	inU8   *ort.Tensor[uint8]
	outU8  *ort.Tensor[uint8]
	inF32  *ort.Tensor[float32]
	outF32 *ort.Tensor[float32]

	closed bool
}

func OpenONNX(modelPath string, cfg model.ClassifierConfig, numClasses int, opts Options, log logrus.FieldLogger) (*ONNX, error) {
	if err := statModel(modelPath, log); err != nil {
		return nil, err
	}
	if err := initializeEnvironment(opts.ONNXLibrary); err != nil {
		return nil, model.ResourceError("open model", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, model.ResourceError("open model", fmt.Errorf("failed to read model io: %w", err))
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, model.ResourceError("open model", fmt.Errorf("unexpected io (in:%d out:%d)", len(inputs), len(outputs)))
	}
	declared, err := classDim(outputs[0].Dimensions)
	if err != nil {
		return nil, err
	}
	if declared != numClasses {
		log.Warnf("Model declares %d classes but %d labels are loaded; inference will fail", declared, numClasses)
	}

	e := &ONNX{
		mode:       cfg.Mode,
		numClasses: numClasses,
		declared:   declared,
	}

	inputShape := ort.NewShape(1, int64(cfg.InputSize), int64(cfg.InputSize), 3)
	outputShape := ort.NewShape(1, int64(declared))
	var in, out ort.ArbitraryTensor
	switch cfg.Mode {
	case model.Quantized:
		if e.inU8, err = ort.NewEmptyTensor[uint8](inputShape); err == nil {
			in = e.inU8
			if e.outU8, err = ort.NewEmptyTensor[uint8](outputShape); err == nil {
				out = e.outU8
			}
		}
	case model.Float:
		if e.inF32, err = ort.NewEmptyTensor[float32](inputShape); err == nil {
			in = e.inF32
			if e.outF32, err = ort.NewEmptyTensor[float32](outputShape); err == nil {
				out = e.outF32
			}
		}
	default:
		err = fmt.Errorf("unsupported numeric mode %s", cfg.Mode)
	}
	if err != nil {
		e.destroy()
		return nil, model.ResourceError("open model", fmt.Errorf("failed to create tensors: %w", err))
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		e.destroy()
		return nil, model.ResourceError("open model", fmt.Errorf("failed to create session options: %w", err))
	}
	defer func() {
		if err := options.Destroy(); err != nil {
			log.Warnf("Failed to destroy session options: %v", err)
		}
	}()
	if opts.Threads > 0 {
		if err := options.SetIntraOpNumThreads(opts.Threads); err != nil {
			log.Warnf("Failed to set intra-op threads: %v", err)
		}
	}

	e.session, err = ort.NewAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.ArbitraryTensor{in}, []ort.ArbitraryTensor{out},
		options)
	if err != nil {
		e.destroy()
		return nil, model.ResourceError("open model", fmt.Errorf("failed to create ONNX session: %w", err))
	}

	log.WithFields(logrus.Fields{
		"input":   inputs[0].Name,
		"output":  outputs[0].Name,
		"classes": declared,
		"mode":    cfg.Mode,
	}).Info("ONNX session created")
	return e, nil
}

func (e *ONNX) Run(input model.InputTensorBuffer) (model.RawScores, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return model.RawScores{}, model.InferenceError("onnx run", model.ErrReleased)
	}
	if err := checkClasses(e.declared, e.numClasses); err != nil {
		return model.RawScores{}, err
	}

	switch e.mode {
	case model.Quantized:
		dst := e.inU8.GetData()
		if len(input) != len(dst) {
			return model.RawScores{}, model.InferenceError("onnx run", fmt.Errorf("input has %d bytes, tensor expects %d", len(input), len(dst)))
		}
		copy(dst, input)
	case model.Float:
		if err := readFloats(e.inF32.GetData(), input); err != nil {
			return model.RawScores{}, model.InferenceError("onnx run", err)
		}
	}

	if err := e.session.Run(); err != nil {
		return model.RawScores{}, model.InferenceError("onnx run", fmt.Errorf("inference failed: %w", err))
	}

	scores := model.RawScores{Mode: e.mode}
	if e.mode == model.Float {
		scores.Floats = slices.Clone(e.outF32.GetData())
	} else {
		scores.Bytes = slices.Clone(e.outU8.GetData())
	}
	return scores, nil
}

func (e *ONNX) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.destroy()
}

func (e *ONNX) destroy() error {
	var errs []error
	if e.session != nil {
		errs = append(errs, e.session.Destroy())
		e.session = nil
	}
	if e.inU8 != nil {
		errs = append(errs, e.inU8.Destroy())
		e.inU8 = nil
	}
	if e.outU8 != nil {
		errs = append(errs, e.outU8.Destroy())
		e.outU8 = nil
	}
	if e.inF32 != nil {
		errs = append(errs, e.inF32.Destroy())
		e.inF32 = nil
	}
	if e.outF32 != nil {
		errs = append(errs, e.outF32.Destroy())
		e.outF32 = nil
	}
	return errors.Join(errs...)
}
