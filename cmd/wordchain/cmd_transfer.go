package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Export a stored model as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.modelInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return a.store.ExportModel(cmd.Context(), info, cmd.OutOrStdout())
			}

			var buf bytes.Buffer
			if err = a.store.ExportModel(cmd.Context(), info, &buf); err != nil {
				return err
			}
			if err = atomic.WriteFile(out, &buf); err != nil {
				return fmt.Errorf("failed to write export file: %w", err)
			}
			a.logger.Info("Export written", "model_name", info.Name, "path", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "file to write the export to (default stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a model from a JSON export (- for stdin), replacing any model with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			info, err := store.ImportModel(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported model %q (order %d)\n", info.Name, info.Order)
			return nil
		},
	}
}
