package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/edge-classifier/internal/config"
	"github.com/Brownie44l1/edge-classifier/internal/engine"
	"github.com/Brownie44l1/edge-classifier/internal/model"
)

// openEngine is replaced in tests.
var openEngine = engine.Opener

type globalOptions struct {
	configPath string
	modelPath  string
	labelPath  string
	engine     string
	mode       string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "classify",
		Short:         "Classify images with an on-device model",
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv("CLASSIFIER_CONFIG"), "Path to a YAML config file")
	flags.StringVar(&opts.modelPath, "model", "", "Path to the model file")
	flags.StringVar(&opts.labelPath, "labels", "", "Path to the labels file")
	flags.StringVar(&opts.engine, "engine", "", "Inference engine (onnx or tflite)")
	flags.StringVar(&opts.mode, "mode", "", "Numeric mode (quantized or float)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newPredictCmd(opts),
		newShellCmd(opts),
		newWatchCmd(opts),
		newLabelsCmd(opts),
	)
	return rootCmd
}

func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.modelPath != "" {
		cfg.ModelPath = o.modelPath
	}
	if o.labelPath != "" {
		cfg.LabelPath = o.labelPath
	}
	if o.engine != "" {
		cfg.Engine = o.engine
	}
	if o.mode != "" {
		mode, err := model.ParseNumericMode(o.mode)
		if err != nil {
			return nil, err
		}
		cfg.NumericMode = mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if o.verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return cfg, nil
}

// openClassifier loads the configured model and returns a ready classifier
// together with its teardown.
func (o *globalOptions) openClassifier(ctx context.Context) (*model.Classifier, *config.Config, func(), error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, nil, err
	}
	clsCfg, err := cfg.Classifier()
	if err != nil {
		return nil, nil, nil, err
	}
	open, err := openEngine(cfg.Engine, engine.Options{
		ONNXLibrary: cfg.ONNXLibrary,
		Threads:     cfg.Threads,
	}, log)
	if err != nil {
		return nil, nil, nil, err
	}

	classifier, err := model.New(clsCfg, open, log.WithField("component", "classifier"))
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := classifier.Close(); err != nil {
			log.Warnf("Failed to close classifier: %v", err)
		}
		if err := engine.ShutdownONNX(); err != nil {
			log.Warnf("Failed to destroy ONNX environment: %v", err)
		}
	}
	if err := classifier.Load(ctx, cfg.ModelPath, cfg.LabelPath); err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("failed to load model: %w", err)
	}
	return classifier, cfg, closeFn, nil
}
