package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/app"
)

func newCreateUserCmd() *cobra.Command {
	var (
		username    string
		displayName string
		password    string
		roles       []string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account, e.g. the first administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				password = os.Getenv("KOLOMONI_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("--password or KOLOMONI_PASSWORD is required")
			}
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			res, err := app.CreateUser(cmd.Context(), log, cfg, app.CreateUserInput{
				Username:    username,
				DisplayName: displayName,
				Password:    password,
				Roles:       roles,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) seq=%d\n", res.User.Username, res.User.ID, res.Seq)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name (defaults to the username)")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringSliceVar(&roles, "role", []string{"user"}, "role to grant; repeatable (user, administrator)")
	return cmd
}
