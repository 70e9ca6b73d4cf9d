package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/edge-classifier/internal/config"
	"github.com/Brownie44l1/edge-classifier/internal/engine"
	"github.com/Brownie44l1/edge-classifier/internal/handlers"
	"github.com/Brownie44l1/edge-classifier/internal/model"
)

var log = logrus.New()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       string
		modelPath  string
		labelPath  string
	)

	cmd := &cobra.Command{
		Use:          "classifier-server",
		Short:        "Serve on-device image classification over HTTP",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("model") {
				cfg.ModelPath = modelPath
			}
			if cmd.Flags().Changed("labels") {
				cfg.LabelPath = labelPath
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CLASSIFIER_CONFIG"), "Path to a YAML config file")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on")
	cmd.Flags().StringVar(&modelPath, "model", "", "Path to the model file")
	cmd.Flags().StringVar(&labelPath, "labels", "", "Path to the labels file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	clsCfg, err := cfg.Classifier()
	if err != nil {
		return err
	}
	open, err := engine.Opener(cfg.Engine, engine.Options{
		ONNXLibrary: cfg.ONNXLibrary,
		Threads:     cfg.Threads,
	}, log)
	if err != nil {
		return err
	}

	classifier, err := model.New(clsCfg, open, log.WithField("component", "classifier"))
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.ShutdownONNX(); err != nil {
			log.Warnf("Failed to destroy ONNX environment: %v", err)
		}
	}()
	defer func() {
		if err := classifier.Close(); err != nil {
			log.Warnf("Failed to close classifier: %v", err)
		}
	}()

	mux := http.NewServeMux()
	handlers.NewHandler(classifier, log.WithField("component", "http")).Routes(mux)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.CORS(cfg.AllowedOrigins, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// The listener is up while the model loads; /health reports "loading"
	// and predictions get 503 until then.
	g.Go(func() error {
		log.Infof("Loading model from: %s", cfg.ModelPath)
		if err := classifier.Load(gctx, cfg.ModelPath, cfg.LabelPath); err != nil {
			return fmt.Errorf("failed to initialize classifier: %w", err)
		}
		log.Infof("Model loaded: %s (%s, %d classes)", cfg.ModelPath, clsCfg.Mode, len(classifier.Labels()))
		return nil
	})

	g.Go(func() error {
		log.Infof("Server starting on port %s", cfg.Port)
		log.Info("Endpoints:")
		log.Info("  GET  /health        - Classifier state")
		log.Info("  POST /predict       - Classify a sized pixel grid")
		log.Info("  POST /predict/image - Classify an uploaded JPEG/PNG")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Infoln("Shutting down the server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Infoln("Classifier server stopped")
	return err
}
