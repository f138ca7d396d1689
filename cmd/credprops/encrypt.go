package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/szaher/credprops/internal/config"
	"github.com/szaher/credprops/internal/secrets"
	"github.com/szaher/credprops/internal/settings"
)

func newEncryptCmd() *cobra.Command {
	var (
		master   bool
		security string
	)

	cmd := &cobra.Command{
		Use:   "encrypt <password>",
		Short: "Encrypt a server password or the master password",
		Long: `Encrypts a server password with the master password from the security file.
With --master, encrypts a master password for storage in the security file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				token string
				err   error
			)
			if master {
				token, err = secrets.EncryptMaster(args[0])
			} else {
				token, err = encryptWithSecurity(security, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&master, "master", false, "Encrypt a master password")
	cmd.Flags().StringVar(&security, "security", "", "Path to the security file (default ~/.m2/settings-security.yaml)")

	return cmd
}

func encryptWithSecurity(path, plain string) (string, error) {
	if path == "" {
		path = config.Default().Security
	}
	sec, err := settings.LoadSecurity(path)
	if err != nil {
		return "", err
	}
	token, err := secrets.NewMasterDispatcher(sec.Master).Encrypt(plain)
	if err != nil {
		return "", fmt.Errorf("encrypting with master password from %s: %w", path, err)
	}
	return token, nil
}
