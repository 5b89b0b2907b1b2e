package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			stats, err := store.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get store stats: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tORDER\tCONTEXTS\tTRANSITIONS")
			for _, info := range stats.Models {
				s := stats.Stats[info.Id]
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", info.Name, info.Order,
					humanize.Comma(int64(s.Contexts)), humanize.Comma(int64(s.Transitions)))
			}
			if err = tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d model(s), %s transitions\n",
				len(stats.Models), humanize.Comma(int64(stats.TotalTransitions)))
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats NAME",
		Short: "Show statistics for a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, m, err := a.loadModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			stats := m.Stats()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model:            %s\n", info.Name)
			fmt.Fprintf(out, "order:            %d\n", stats.Order)
			fmt.Fprintf(out, "contexts:         %s\n", humanize.Comma(int64(stats.Contexts)))
			fmt.Fprintf(out, "transitions:      %s\n", humanize.Comma(int64(stats.Transitions)))
			fmt.Fprintf(out, "starting symbols: %d\n", stats.StartingSymbols)
			fmt.Fprintf(out, "alphabet:         %d\n", stats.Alphabet)

			orders := make([]int, 0, len(stats.ContextsByOrder))
			for k := range stats.ContextsByOrder {
				orders = append(orders, k)
			}
			slices.Sort(orders)
			for _, k := range orders {
				fmt.Fprintf(out, "  order %d:        %s contexts\n", k, humanize.Comma(int64(stats.ContextsByOrder[k])))
			}
			return nil
		},
	}
}

func newPruneCmd(a *app) *cobra.Command {
	var (
		minProb float64
		into    string
	)

	cmd := &cobra.Command{
		Use:   "prune NAME",
		Short: "Drop low-probability transitions from a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minProb < 0 || minProb > 1 {
				return fmt.Errorf("--min-prob must be between 0 and 1, got %g", minProb)
			}
			_, m, err := a.loadModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			target := args[0]
			if into != "" {
				target = into
			}

			pruned := m.Prune(minProb)
			if _, err = a.store.SaveModel(cmd.Context(), target, pruned); err != nil {
				return fmt.Errorf("failed to save model %q: %w", target, err)
			}

			before, after := m.Stats(), pruned.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %q into %q: %s -> %s transitions, %s -> %s contexts\n",
				args[0], target,
				humanize.Comma(int64(before.Transitions)), humanize.Comma(int64(after.Transitions)),
				humanize.Comma(int64(before.Contexts)), humanize.Comma(int64(after.Contexts)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&minProb, "min-prob", 0.01, "transitions below this probability are dropped")
	cmd.Flags().StringVar(&into, "into", "", "save the pruned model under a new name instead of replacing it")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove a stored model",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.modelInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err = a.store.RemoveModel(cmd.Context(), info); err != nil {
				return fmt.Errorf("failed to remove model %q: %w", info.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed model %q\n", info.Name)
			return nil
		},
	}
}
