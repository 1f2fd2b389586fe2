package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/service"
)

// subjects command
func newSubjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "Manage subjects",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List subjects",
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, _ := cmd.Flags().GetString("stage")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			subjects := a.Catalog.Subjects(cmd.Context())
			if cmd.Flags().Changed("stage") {
				subjects = a.Catalog.SubjectsByStage(cmd.Context(), stage)
			}
			if len(subjects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No subjects found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTAGE\tRESOURCES\tNAME")
			for _, s := range subjects {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Stage, s.ResourcesCount, s.Name)
			}
			return w.Flush()
		},
	}
	list.Flags().String("stage", "", "only subjects of this stage")

	add := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Add a subject",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, _ := cmd.Flags().GetString("stage")
			description, _ := cmd.Flags().GetString("description")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireAdmin(cmd, a); err != nil {
				return err
			}

			_, err = a.Catalog.AddSubject(cmd.Context(), service.AddSubjectInput{
				ID:          args[0],
				Name:        args[1],
				Stage:       stage,
				Description: description,
			})
			return report(cmd, err, service.MsgSubjectAdded)
		},
	}
	add.Flags().String("stage", "1", "study stage")
	add.Flags().String("description", "", "description")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subject and all its resources",
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

			out, err := a.Catalog.DeleteSubject(cmd.Context(), args[0])
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed resources: %d\n", out.RemovedResources)
			}
			return report(cmd, err, service.MsgSubjectDeleted)
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

// resources command
func newResourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Manage resources",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			resources := a.Catalog.Resources(cmd.Context())
			if subject != "" {
				resources = a.Catalog.ResourcesBySubject(cmd.Context(), subject)
			}
			if len(resources) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No resources found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUBJECT\tTYPE\tUPLOADED\tTITLE")
			for _, r := range resources {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.SubjectID, r.Type, r.UploadDate, r.Title)
			}
			return w.Flush()
		},
	}
	list.Flags().String("subject", "", "only resources of this subject")

	add := &cobra.Command{
		Use:   "add <subject-id> <title>",
		Short: "Attach a resource to a subject",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			id, _ := flags.GetString("id")
			typ, _ := flags.GetString("type")
			url, _ := flags.GetString("url")
			description, _ := flags.GetString("description")
			size, _ := flags.GetString("size")
			uploaded, _ := flags.GetString("date")

			var date domain.Date
			if uploaded != "" {
				var err error
				if date, err = domain.ParseDate(uploaded); err != nil {
					return err
				}
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireAdmin(cmd, a); err != nil {
				return err
			}

			created, err := a.Catalog.AddResource(cmd.Context(), service.AddResourceInput{
				ID:          id,
				SubjectID:   args[0],
				Title:       args[1],
				Type:        typ,
				URL:         url,
				Description: description,
				UploadDate:  date,
				Size:        size,
			})
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Resource ID: %s\n", created.ID)
			}
			return report(cmd, err, service.MsgResourceAdded)
		},
	}
	add.Flags().String("id", "", "resource id (generated when empty)")
	add.Flags().String("type", "pdf", "file type")
	add.Flags().String("url", "#", "download URL")
	add.Flags().String("description", "", "description")
	add.Flags().String("size", "", "display size, e.g. \"2.4 MB\"")
	add.Flags().String("date", "", "upload date YYYY-MM-DD (default today)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a resource",
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

			_, err = a.Catalog.DeleteResource(cmd.Context(), args[0])
			return report(cmd, err, service.MsgResourceDeleted)
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}
