package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/edge-classifier/internal/model"
)

func newLabelsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "Print the class index table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			labels, err := model.LoadLabelFile(cfg.LabelPath)
			if err != nil {
				return err
			}
			for i, label := range labels {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, label)
			}
			return nil
		},
	}
}
