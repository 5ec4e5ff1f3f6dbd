package commands

import (
	"fmt"
	"time"

	"lockbox/config"
	"lockbox/models"
	"lockbox/utils"

	"github.com/spf13/cobra"
)

// TokenCmd signs a bearer token for local testing against the API.
func TokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token [userId] [host|rent]",
		Short: "Issue a signed bearer token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := models.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("role must be host or rent, got %q", args[1])
			}
			secret, err := jwtSecret(config.AppConfig)
			if err != nil {
				return err
			}
			token, err := utils.GenerateToken(secret, models.Actor{UserID: args[0], Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
