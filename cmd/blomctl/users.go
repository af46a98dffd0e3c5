package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blomstudio/blom/internal/app"
	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Export and import user accounts",
	}
	cmd.AddCommand(usersExportCmd(), usersImportCmd())
	return cmd
}

func usersExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all users as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(loadConfig())
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := a.UserRepository.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			err = enc.Encode(users)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "exported %d users\n", len(users))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func usersImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import users from a JSON export, skipping existing emails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var users []*model.User
			err = json.Unmarshal(data, &users)
			if err != nil {
				return fmt.Errorf("invalid export file: %w", err)
			}

			a, err := app.New(loadConfig())
			if err != nil {
				return err
			}
			defer a.Close()

			created, skipped := 0, 0
			for _, user := range users {
				_, err := a.UserRepository.ByEmail(cmd.Context(), user.Email)
				if err == nil {
					skipped++
					continue
				}
				if !errors.Is(err, repository.ErrUserNotFound) {
					return fmt.Errorf("failed to check %s: %w", user.Email, err)
				}

				err = a.UserRepository.Create(cmd.Context(), user)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", user.Email, err)
				}
				created++
			}

			fmt.Fprintf(os.Stderr, "imported %d users, skipped %d existing\n", created, skipped)
			return nil
		},
	}

	return cmd
}
