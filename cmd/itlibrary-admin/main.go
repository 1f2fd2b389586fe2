// Package main is the entry point for the IT library admin CLI.
// It seeds, inspects, backs up and edits the catalog documents directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prn-tf/itlibrary/internal/app"
	"github.com/prn-tf/itlibrary/internal/auth"
	"github.com/prn-tf/itlibrary/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "itlibrary-admin",
		Short:        "Administer the IT library catalog",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "path to config file")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newReconcileCmd(),
		newExportCmd(),
		newImportCmd(),
		newSubjectsCmd(),
		newResourcesCmd(),
		newUsersCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
	)
	return root
}

// openApp builds the App for cmd. The caller must defer a.Close().
func openApp(cmd *cobra.Command) (*app.App, error) {
	path, _ := cmd.Flags().GetString("config")
	a, err := app.New(cmd.Context(), path)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// requireAdmin checks that the remembered session belongs to an admin.
// Run "login" first to remember one.
func requireAdmin(cmd *cobra.Command, a *app.App) error {
	if _, err := auth.RequireAdmin(a.Gate.Resume(cmd.Context())); err != nil {
		return report(cmd, err, "")
	}
	return nil
}

// report prints the user-facing outcome of a mutation and returns err.
func report(cmd *cobra.Command, err error, okMessage string) error {
	res := service.NewResult(err, okMessage)
	if res.Success {
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), res.Message)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "IT Library Admin CLI\n")
			fmt.Fprintf(out, "Version: %s\n", Version)
			fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}
