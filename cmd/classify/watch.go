package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/edge-classifier/internal/capture"
	"github.com/Brownie44l1/edge-classifier/internal/frame"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		device   string
		frames   int
		interval time.Duration
	)
	c := &cobra.Command{
		Use:   "watch",
		Short: "Classify frames from a camera (requires the gocv build tag)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			classifier, cfg, closeFn, err := opts.openClassifier(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if device == "" {
				device = cfg.CameraDevice
			}
			cam, err := capture.Open(device)
			if err != nil {
				return err
			}
			defer func() {
				_ = cam.Close()
			}()
			log.Infof("Watching camera %s", device)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for n := 0; frames <= 0 || n < frames; n++ {
				img, err := cam.Read()
				if err != nil {
					return err
				}
				px, err := frame.Prepare(img, cfg.InputSize)
				if err != nil {
					return err
				}
				results, err := classifier.Classify(px)
				if err != nil {
					return err
				}
				printResults(cmd.OutOrStdout(), fmt.Sprintf("frame %d", n), results)

				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
			return nil
		},
	}
	c.Flags().StringVar(&device, "device", "", "Camera index, file or stream URL (default from config)")
	c.Flags().IntVar(&frames, "frames", 0, "Stop after this many frames (0 runs until interrupted)")
	c.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Delay between frames")
	return c
}
