package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/CTAG07/wordchain/pkg/markov"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		lengthMin int
		lengthMax int
		count     int
		seed      uint64
	)

	cmd := &cobra.Command{
		Use:   "generate NAME",
		Short: "Generate words from a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min") {
				lengthMin = a.config.Generation.LengthMin
			}
			if !cmd.Flags().Changed("max") {
				lengthMax = a.config.Generation.LengthMax
			}
			if !cmd.Flags().Changed("count") {
				count = a.config.Generation.Count
			}

			_, m, err := a.loadModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var src markov.Source
			if cmd.Flags().Changed("seed") {
				src = rand.New(rand.NewPCG(seed, seed))
			}

			words, err := m.GenerateStream(cmd.Context(), lengthMin, lengthMax, count, src)
			if err != nil {
				return fmt.Errorf("cannot generate with min %d and max %d: %w", lengthMin, lengthMax, err)
			}
			out := cmd.OutOrStdout()
			for w := range words {
				fmt.Fprintln(out, w)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&lengthMin, "min", 0, "minimum word length (default from config)")
	cmd.Flags().IntVar(&lengthMax, "max", 0, "maximum word length, must be greater than --min (default from config)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of words to generate, 0 streams until interrupted (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible output")
	return cmd
}
