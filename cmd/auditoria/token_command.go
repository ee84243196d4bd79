package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/auditoria/auditoria/pkg/config"
	"github.com/auditoria/auditoria/pkg/jwt"
)

func newTokenCommand() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg jwt.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			if ttl > 0 {
				cfg.TTL = ttl
			}
			if cmd.Flags().Changed("admin") {
				role = cfg.AdminRole
			}

			tokens, err := jwt.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(userID, email, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id carried as the recipient")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", "", "Role claim")
	cmd.Flags().Bool("admin", false, "Use the configured admin role")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_TTL)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
