package main

import (
	"fmt"

	"github.com/aretw0/arbiter/pkg/adapters/redis"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd <login> <password>",
	Short: "Register a player password",
	Long: `With Redis configured, stores the password hash in Redis. Otherwise prints
a line to paste under "credentials:" in the configuration file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		login, password := args[0], args[1]

		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()

		if creds, ok := st.credentials.(*redis.Credentials); ok {
			if err := creds.SetPassword(cmd.Context(), login, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password set for %s\n", login)
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %q\n", login, hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}
