package main

import (
	"fmt"
	"io"
	"os"

	"github.com/CTAG07/wordchain/pkg/markov"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		order     int
		skipEmpty bool
		trimSpace bool
	)

	cmd := &cobra.Command{
		Use:   "train NAME FILE",
		Short: "Train a model from a word list (one word per line, - for stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			if !cmd.Flags().Changed("order") {
				order = a.config.Training.Order
			}
			if !cmd.Flags().Changed("skip-empty") {
				skipEmpty = a.config.Training.SkipEmptyLines
			}
			if !cmd.Flags().Changed("trim") {
				trimSpace = a.config.Training.TrimSpace
			}

			var r io.Reader
			if path == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open word list: %w", err)
				}
				defer f.Close()
				r = f
			}

			scanner := markov.NewWordScanner(r, markov.WithSkipEmpty(skipEmpty), markov.WithTrimSpace(trimSpace))
			m, err := markov.NewModel(order, scanner.Words())
			if err != nil {
				return err
			}
			if err = scanner.Err(); err != nil {
				return fmt.Errorf("failed to read word list: %w", err)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			info, err := store.SaveModel(cmd.Context(), name, m)
			if err != nil {
				return fmt.Errorf("failed to save model %q: %w", name, err)
			}

			stats := m.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "trained model %q (order %d) from %s words: %s contexts, %s transitions\n",
				info.Name, info.Order,
				humanize.Comma(int64(scanner.Count())),
				humanize.Comma(int64(stats.Contexts)),
				humanize.Comma(int64(stats.Transitions)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&order, "order", "o", 0, "maximum context length (default from config)")
	cmd.Flags().BoolVar(&skipEmpty, "skip-empty", false, "ignore empty lines instead of training on them")
	cmd.Flags().BoolVar(&trimSpace, "trim", false, "strip surrounding white space from every line")
	return cmd
}
