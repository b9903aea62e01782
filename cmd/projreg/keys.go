package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rpggio/projreg/internal/repository"
)

func newKeysCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys for the HTTP transports",
	}
	cmd.AddCommand(newKeysAddCmd(opts))
	return cmd
}

type keyOutput struct {
	Principal string `json:"principal"`
	Token     string `json:"token"`
}

func newKeysAddCmd(opts *rootOptions) *cobra.Command {
	var principal, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Mint a bearer token for a principal. The token is shown once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if principal == "" {
				return errors.New("--principal is required")
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				if a.apiKeys == nil {
					return fmt.Errorf("db driver %q does not store api keys", a.cfg.DB.Driver)
				}
				token := uuid.NewString()
				if err := a.apiKeys.Add(cmd.Context(), token, principal, description); err != nil {
					if errors.Is(err, repository.ErrConflict) {
						return errors.New("token collision, retry")
					}
					return err
				}
				return printOutput(cmd.OutOrStdout(), opts.output, keyOutput{Principal: principal, Token: token})
			})
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "principal the token authenticates as")
	cmd.Flags().StringVar(&description, "description", "", "free-form note stored with the key")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Opening a SQL store applies migrations.
			return opts.withApp(cmd.Context(), func(a *app) error {
				a.logger.Info("migrations applied", "driver", a.cfg.DB.Driver)
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return err
			})
		},
	}
}
