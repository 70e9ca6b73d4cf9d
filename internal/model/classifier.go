package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine runs one forward pass of a loaded model. Implementations need not be
// safe for concurrent use; the Classifier serializes calls to Run.
type Engine interface {
	// Run maps an input tensor to the raw per-class scores of a batch of
	// one. It must fail with ErrReleased once Close has been called.
	Run(input InputTensorBuffer) (RawScores, error)
	// Close releases the model handle. Calling it again is a no-op.
	Close() error
}

// EngineOpener opens the model at modelPath for the given configuration.
// numClasses is the number of loaded labels the engine output must match.
type EngineOpener func(modelPath string, cfg ClassifierConfig, numClasses int) (Engine, error)

type State uint8

const (
	Uninitialized State = iota
	Ready
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Classifier drives encode, run and rank over a single engine handle.
type Classifier struct {
	cfg  ClassifierConfig
	open EngineOpener
	log  logrus.FieldLogger

	mu      sync.Mutex
	state   State
	loading bool
	engine  Engine
	labels  LabelList
}

func New(cfg ClassifierConfig, open EngineOpener, log logrus.FieldLogger) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}
	if open == nil {
		return nil, errors.New("engine opener is required")
	}
	return &Classifier{
		cfg:  cfg,
		open: open,
		log:  log,
	}, nil
}

func (c *Classifier) Config() ClassifierConfig {
	return c.cfg
}

func (c *Classifier) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Labels returns a copy of the loaded labels, or nil before Load succeeds.
func (c *Classifier) Labels() LabelList {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.labels == nil {
		return nil
	}
	return append(LabelList(nil), c.labels...)
}

// Load reads the labels and opens the model. It blocks on I/O and is meant
// to run in the background; Classify is rejected until it returns nil. A
// failed Load leaves the classifier uninitialized so it can be retried.
func (c *Classifier) Load(ctx context.Context, modelPath, labelPath string) error {
	c.mu.Lock()
	switch {
	case c.state == Closed:
		c.mu.Unlock()
		return StateError("load", errors.New("classifier is closed"))
	case c.state == Ready:
		c.mu.Unlock()
		return StateError("load", errors.New("classifier is already loaded"))
	case c.loading:
		c.mu.Unlock()
		return StateError("load", errors.New("load already in progress"))
	}
	c.loading = true
	c.mu.Unlock()

	start := time.Now()
	engine, labels, err := c.openResources(ctx, modelPath, labelPath)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		return err
	}
	if c.state == Closed {
		_ = engine.Close()
		return StateError("load", errors.New("classifier closed while loading"))
	}
	c.engine = engine
	c.labels = labels
	c.state = Ready

	c.log.WithFields(logrus.Fields{
		"model":    modelPath,
		"labels":   len(labels),
		"mode":     c.cfg.Mode,
		"duration": time.Since(start),
	}).Info("Classifier ready")
	return nil
}

func (c *Classifier) openResources(ctx context.Context, modelPath, labelPath string) (Engine, LabelList, error) {
	labels, err := LoadLabelFile(labelPath)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, ResourceError("load", err)
	}

	engine, err := c.open(modelPath, c.cfg, len(labels))
	if err != nil {
		var kindErr *Error
		if !errors.As(err, &kindErr) {
			err = ResourceError("open model", err)
		}
		return nil, nil, err
	}
	return engine, labels, nil
}

// Classify runs the full pipeline on a pixel grid already sized to the
// configured input size. Concurrent calls are serialized.
func (c *Classifier) Classify(px Pixels) ([]Recognition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Ready {
		return nil, StateError("classify", fmt.Errorf("classifier is %s", c.state))
	}

	start := time.Now()
	input, err := Encode(px, c.cfg)
	if err != nil {
		return nil, err
	}

	scores, err := c.engine.Run(input)
	if err != nil {
		if errors.Is(err, ErrReleased) {
			c.log.Warn("Engine handle released underneath classifier, closing")
			c.state = Closed
			c.engine = nil
		}
		if !errors.Is(err, ErrInference) {
			err = InferenceError("run", err)
		}
		return nil, err
	}
	if scores.Mode != c.cfg.Mode {
		return nil, InferenceError("run", fmt.Errorf("engine returned %s scores for a %s classifier", scores.Mode, c.cfg.Mode))
	}

	results := Rank(scores, c.labels, c.cfg)
	c.log.WithFields(logrus.Fields{
		"results":  len(results),
		"duration": time.Since(start),
	}).Debug("Classified frame")
	return results, nil
}

// Close releases the engine. It is safe to call more than once.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return nil
	}
	c.state = Closed
	if c.engine == nil {
		return nil
	}
	err := c.engine.Close()
	c.engine = nil
	if err != nil {
		return fmt.Errorf("failed to release engine: %w", err)
	}
	return nil
}
