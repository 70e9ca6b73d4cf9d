package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

func newShellCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Load the model once and classify image paths typed at the prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, _, closeFn, err := opts.openClassifier(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			rl, err := readline.NewEx(&readline.Config{
				Prompt: "image> ",
				Stdout: cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			defer func() {
				_ = rl.Close()
			}()

			out := cmd.OutOrStdout()
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				paths, err := shellwords.Parse(line)
				if err != nil {
					fmt.Fprintf(out, "invalid input: %v\n", err)
					continue
				}
				if len(paths) == 0 {
					continue
				}
				switch paths[0] {
				case ":q", "exit", "quit":
					return nil
				}

				for _, path := range paths {
					results, err := classifyFile(classifier, path)
					if err != nil {
						fmt.Fprintln(out, err)
						continue
					}
					printResults(out, path, results)
				}
			}
		},
	}
}
