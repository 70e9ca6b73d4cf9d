package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Brownie44l1/edge-classifier/internal/model"
)

type Config struct {
	ModelPath   string `yaml:"model_path"`
	LabelPath   string `yaml:"label_path"`
	Engine      string `yaml:"engine"`
	ONNXLibrary string `yaml:"onnx_library"`
	Threads     int    `yaml:"threads"`

	InputSize           int               `yaml:"input_size"`
	NumericMode         model.NumericMode `yaml:"numeric_mode"`
	ImageMean           float32           `yaml:"image_mean"`
	ImageStd            float32           `yaml:"image_std"`
	MaxResults          int               `yaml:"max_results"`
	ConfidenceThreshold float32           `yaml:"confidence_threshold"`

	Port           string   `yaml:"port"`
	LogLevel       string   `yaml:"log_level"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	CameraDevice   string   `yaml:"camera_device"`
}

func Default() *Config {
	cls := model.DefaultClassifierConfig()
	return &Config{
		ModelPath:           "models/mobilenet_quant_v1_224.onnx",
		LabelPath:           "models/labels.txt",
		Engine:              "onnx",
		InputSize:           cls.InputSize,
		NumericMode:         cls.Mode,
		ImageMean:           cls.ImageMean,
		ImageStd:            cls.ImageStd,
		MaxResults:          cls.MaxResults,
		ConfidenceThreshold: cls.ConfidenceThreshold,
		Port:                "8080",
		LogLevel:            "info",
		AllowedOrigins:      []string{"*"},
		CameraDevice:        "0",
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and CLASSIFIER_* variables, in
// that order of precedence.
func Load(path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("CLASSIFIER_MODEL", &c.ModelPath)
	setString("CLASSIFIER_LABELS", &c.LabelPath)
	setString("CLASSIFIER_ENGINE", &c.Engine)
	setString("ONNXRUNTIME_LIB", &c.ONNXLibrary)
	setString("CLASSIFIER_LOG_LEVEL", &c.LogLevel)
	setString("CLASSIFIER_CAMERA", &c.CameraDevice)
	setString("PORT", &c.Port)

	if v := os.Getenv("CLASSIFIER_ORIGINS"); v != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, trimmed)
			}
		}
	}

	if v := os.Getenv("CLASSIFIER_NUMERIC_MODE"); v != "" {
		mode, err := model.ParseNumericMode(v)
		if err != nil {
			return fmt.Errorf("CLASSIFIER_NUMERIC_MODE: %w", err)
		}
		c.NumericMode = mode
	}

	ints := map[string]*int{
		"CLASSIFIER_INPUT_SIZE":  &c.InputSize,
		"CLASSIFIER_MAX_RESULTS": &c.MaxResults,
		"CLASSIFIER_THREADS":     &c.Threads,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s must be an integer: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float32{
		"CLASSIFIER_THRESHOLD":  &c.ConfidenceThreshold,
		"CLASSIFIER_IMAGE_MEAN": &c.ImageMean,
		"CLASSIFIER_IMAGE_STD":  &c.ImageStd,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return fmt.Errorf("%s must be a number: %w", key, err)
			}
			*dst = float32(f)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model_path is required")
	}
	if c.LabelPath == "" {
		return errors.New("label_path is required")
	}
	if _, err := c.Classifier(); err != nil {
		return err
	}
	return nil
}

// Classifier returns the immutable classifier settings.
func (c *Config) Classifier() (model.ClassifierConfig, error) {
	cls := model.ClassifierConfig{
		InputSize:           c.InputSize,
		Mode:                c.NumericMode,
		ImageMean:           c.ImageMean,
		ImageStd:            c.ImageStd,
		MaxResults:          c.MaxResults,
		ConfidenceThreshold: c.ConfidenceThreshold,
	}
	if err := cls.Validate(); err != nil {
		return model.ClassifierConfig{}, fmt.Errorf("invalid classifier config: %w", err)
	}
	return cls, nil
}
