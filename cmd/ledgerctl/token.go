package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"inventory-engine/internal/config"
	"inventory-engine/pkg/jwt"
)

func newTokenCommand() *cobra.Command {
	var (
		actor string
		role  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an actor token for the mutating API routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor == "" {
				actor = uuid.NewString()
			} else if _, err := uuid.Parse(actor); err != nil {
				return fmt.Errorf("--actor: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer).GenerateActorToken(actor, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "actor %s, expires in %s\n", actor, ttl)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "actor id (random when empty)")
	cmd.Flags().StringVar(&role, "role", "operator", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")

	return cmd
}
