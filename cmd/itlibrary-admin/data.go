package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prn-tf/itlibrary/internal/service"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the bundled defaults for any missing document",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Init.Initialize(cmd.Context())
			if err != nil {
				return fmt.Errorf("initializing store: %w", err)
			}
			if len(out.Seeded) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Store already initialized.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded: %s\n", strings.Join(out.Seeded, ", "))
			fmt.Fprintf(cmd.OutOrStdout(), "Reconciled subjects: %d\n", out.Reconciled)
			return nil
		},
	}
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every subject's resource count",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			changed, err := a.Catalog.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reconciled subjects: %d\n", changed)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all collections as one JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if output == "" || output == "-" {
				return a.Transfer.WriteExport(cmd.Context(), cmd.OutOrStdout())
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := a.Transfer.WriteExport(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringP("output", "o", "", "file to write (default stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace collections from an export document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireAdmin(cmd, a); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			out, err := a.Transfer.ReadImport(cmd.Context(), f)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced: %s\n", strings.Join(out.Replaced, ", "))
			}
			return report(cmd, err, service.MsgImported)
		},
	}
}
