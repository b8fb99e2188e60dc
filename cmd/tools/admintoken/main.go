package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"walletpay/internal/config"
	"walletpay/pkg/utils"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		secret  string
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admintoken",
		Short: "Mint an operator JWT for the walletpay admin routes",
		Long: `Signs an HS256 token with JWT_SECRET (or --secret) that the
/api/payments/admin routes accept as a Bearer token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
			}
			if secret == "" {
				return errors.New("no secret: set JWT_SECRET or pass --secret")
			}

			token, err := utils.CreateOperatorToken([]byte(secret), subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "operator", "Operator identity stored in sub")
	cmd.Flags().StringVarP(&role, "role", "r", "admin", "Operator role")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")

	return cmd
}
