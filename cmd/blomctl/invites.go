package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blomstudio/blom/internal/app"
)

func invitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "Create and inspect course invites",
	}
	cmd.AddCommand(invitesCreateCmd(), invitesListCmd())
	return cmd
}

func invitesCreateCmd() *cobra.Command {
	var course, email string
	var days int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue an invite and email the link",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(loadConfig())
			if err != nil {
				return err
			}
			defer a.Close()

			invite, c, err := a.InviteService.Create(cmd.Context(), course, email, days)
			if err != nil {
				return err
			}

			fmt.Printf("invite created for %q\n", c.Title)
			fmt.Printf("  token:      %s\n", invite.Token)
			fmt.Printf("  expires at: %s\n", invite.ExpiresAt.Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&course, "course", "", "course slug or id (required)")
	cmd.Flags().StringVar(&email, "email", "", "recipient email (required)")
	cmd.Flags().IntVar(&days, "days", 0, "days until expiry (default from config)")
	cmd.MarkFlagRequired("course")
	cmd.MarkFlagRequired("email")
	return cmd
}

func invitesListCmd() *cobra.Command {
	var course string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invites for a course",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(loadConfig())
			if err != nil {
				return err
			}
			defer a.Close()

			invites, err := a.InviteService.ListByCourse(cmd.Context(), course)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tSTATUS\tEXPIRES\tTOKEN")
			for _, invite := range invites {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					invite.Email,
					invite.Status(),
					invite.ExpiresAt.Format("2006-01-02"),
					invite.Token,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&course, "course", "", "course slug or id (required)")
	cmd.MarkFlagRequired("course")
	return cmd
}
