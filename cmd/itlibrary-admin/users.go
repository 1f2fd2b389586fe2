package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/prn-tf/itlibrary/internal/service"
)

// users command
func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tSTAGE\tCREATED\tNAME")
			for _, u := range a.Users.Users(cmd.Context()) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Stage, u.CreatedAt, u.FullName)
			}
			return w.Flush()
		},
	}

	register := &cobra.Command{
		Use:   "register <username> [password]",
		Short: "Create an account",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fullName, _ := cmd.Flags().GetString("name")
			stage, _ := cmd.Flags().GetString("stage")
			password, err := passwordArg(cmd, args, 1)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			_, err = a.Users.Register(cmd.Context(), service.RegisterInput{
				FullName: fullName,
				Username: args[0],
				Password: password,
				Stage:    stage,
			})
			return report(cmd, err, service.MsgRegistered)
		},
	}
	register.Flags().String("name", "", "full name")
	register.Flags().String("stage", "1", "study stage or \"admin\"")

	cmd.AddCommand(list, register)
	return cmd
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> [password]",
		Short: "Log in and remember the current user",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd, args, 1)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.Gate.Resume(cmd.Context())
			route, err := a.Gate.Login(cmd.Context(), sess, args[0], password)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Route: %s\n", route)
			}
			return report(cmd, err, service.MsgLoggedIn)
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Gate.Logout(cmd.Context(), a.Gate.Resume(cmd.Context()))
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the remembered current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			u := a.Gate.CurrentUser(a.Gate.Resume(cmd.Context()))
			if u == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) stage %s\n", u.Username, u.FullName, u.Stage)
			return nil
		},
	}
}
