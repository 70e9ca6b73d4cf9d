package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/edge-classifier/internal/engine"
	"github.com/Brownie44l1/edge-classifier/internal/model"
)

type fixedEngine struct {
	scores model.RawScores
}

func (e *fixedEngine) Run(model.InputTensorBuffer) (model.RawScores, error) {
	return e.scores, nil
}

func (e *fixedEngine) Close() error { return nil }

type fixture struct {
	dir    string
	model  string
	labels string
	image  string
}

func setup(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	log.SetOutput(io.Discard)

	orig := openEngine
	t.Cleanup(func() {
		openEngine = orig
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.InfoLevel)
	})
	openEngine = func(name string, _ engine.Options, _ logrus.FieldLogger) (model.EngineOpener, error) {
		return func(string, model.ClassifierConfig, int) (model.Engine, error) {
			return &fixedEngine{scores: model.RawScores{Mode: model.Quantized, Bytes: []byte{5, 230, 40}}}, nil
		}, nil
	}

	f := fixture{
		dir:    dir,
		model:  filepath.Join(dir, "mobilenet.onnx"),
		labels: filepath.Join(dir, "labels.txt"),
		image:  filepath.Join(dir, "frame.png"),
	}
	require.NoError(t, os.WriteFile(f.model, []byte("model"), 0o644))
	require.NoError(t, os.WriteFile(f.labels, []byte("cat\ndog\nfish\n"), 0o644))

	img := image.NewNRGBA(image.Rect(0, 0, 300, 260))
	for y := 0; y < 260; y++ {
		for x := 0; x < 300; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 0xFF})
		}
	}
	out, err := os.Create(f.image)
	require.NoError(t, err)
	require.NoError(t, png.Encode(out, img))
	require.NoError(t, out.Close())
	return f
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestPredict(t *testing.T) {
	f := setup(t)

	out, err := run(t, "predict", "--model", f.model, "--labels", f.labels, f.image)
	require.NoError(t, err)
	assert.Contains(t, out, f.image+":")
	assert.Contains(t, out, "[1] dog (90.2%)")
	assert.Contains(t, out, "[2] fish (15.7%)")
	assert.NotContains(t, out, "cat")
}

func TestPredictJSON(t *testing.T) {
	f := setup(t)

	out, err := run(t, "predict", "--json", "--model", f.model, "--labels", f.labels, f.image, f.image)
	require.NoError(t, err)

	var got []imageResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	require.Len(t, got[0].Results, 2)
	assert.Equal(t, "dog", got[0].Results[0].Label)
	assert.Equal(t, got[0], got[1])
}

func TestPredictErrors(t *testing.T) {
	f := setup(t)

	_, err := run(t, "predict", "--model", f.model, "--labels", f.labels, filepath.Join(f.dir, "missing.png"))
	require.Error(t, err)

	_, err = run(t, "predict", "--model", f.model, "--labels", filepath.Join(f.dir, "missing.txt"), f.image)
	require.ErrorIs(t, err, model.ErrResource)

	_, err = run(t, "predict", "--model", f.model, "--labels", f.labels, "--mode", "int4", f.image)
	require.Error(t, err)

	_, err = run(t, "predict")
	require.Error(t, err)
}

func TestLabels(t *testing.T) {
	f := setup(t)

	out, err := run(t, "labels", "--labels", f.labels)
	require.NoError(t, err)
	assert.Equal(t, "0\tcat\n1\tdog\n2\tfish\n", out)
}

func TestWatchRejectsBadInterval(t *testing.T) {
	f := setup(t)

	_, err := run(t, "watch", "--model", f.model, "--labels", f.labels, "--interval", "0s")
	require.Error(t, err)
}

func TestLogLevelFromConfig(t *testing.T) {
	f := setup(t)

	t.Setenv("CLASSIFIER_LOG_LEVEL", "warn")
	_, err := run(t, "labels", "--model", f.model, "--labels", f.labels)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	_, err = run(t, "labels", "--model", f.model, "--labels", f.labels, "--verbose")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	t.Setenv("CLASSIFIER_LOG_LEVEL", "chatty")
	_, err = run(t, "labels", "--model", f.model, "--labels", f.labels)
	require.Error(t, err)
}
