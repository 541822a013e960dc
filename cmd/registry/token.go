package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexuscrm/registry/pkg/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue an admin API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = a.cfg.Auth.TokenTTL
			}
			issuer, err := auth.NewTokenIssuer(a.cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("%w (set auth.jwt_secret or REGISTRY_AUTH_JWT_SECRET)", err)
			}
			token, err := issuer.GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	return cmd
}
