package main

import (
	"fmt"
	"time"

	"SalonAssistant/internal/entity"
	jwtPkg "SalonAssistant/pkg/jwt"

	"github.com/spf13/cobra"
)

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator.ID, "id", "op-1", "operator id")
	tokenCmd.Flags().StringVar(&tokenOperator.Name, "name", "Resepsiyon", "operator name")
	tokenCmd.Flags().StringVar(&tokenOperator.Role, "role", "operator", "operator role")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

var (
	tokenOperator entity.Operator
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an operator token for the protected endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, expiresAt, err := jwtPkg.SignOperator(tokenOperator, tokenTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
		return nil
	},
}
