package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"provenance/internal/platform/config"
	"provenance/internal/platform/token"
	"provenance/pkg/domain"
)

// newTokenCmd issues a bearer token for local testing.
func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Issue a bearer token that authenticates as address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := domain.ParseAddress(args[0])
			if err != nil {
				return fmt.Errorf("parse address: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			signed, err := token.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer).Issue(address, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return err
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default TOKEN_TTL)")
	return cmd
}
