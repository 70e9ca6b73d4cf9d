package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/edge-classifier/internal/frame"
	"github.com/Brownie44l1/edge-classifier/internal/model"
)

type imageResult struct {
	Image   string              `json:"image"`
	Results []model.Recognition `json:"results"`
}

func newPredictCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "predict IMAGE [IMAGE...]",
		Short: "Classify one or more JPEG/PNG files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, _, closeFn, err := opts.openClassifier(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			all := make([]imageResult, 0, len(args))
			for _, path := range args {
				results, err := classifyFile(classifier, path)
				if err != nil {
					return err
				}
				all = append(all, imageResult{Image: path, Results: results})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}
			for _, r := range all {
				printResults(cmd.OutOrStdout(), r.Image, r.Results)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return c
}

func classifyFile(classifier *model.Classifier, path string) ([]model.Recognition, error) {
	img, err := frame.Open(path)
	if err != nil {
		return nil, err
	}
	px, err := frame.Prepare(img, classifier.Config().InputSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	results, err := classifier.Classify(px)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}

func printResults(w io.Writer, name string, results []model.Recognition) {
	fmt.Fprintf(w, "%s:\n", name)
	if len(results) == 0 {
		fmt.Fprintln(w, "  no confident match")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r)
	}
}
