// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/toeirei/chatlocked/internal/config"
	"github.com/toeirei/chatlocked/internal/crypto/keygen"
	"github.com/toeirei/chatlocked/internal/i18n"
)

func newKeygenCmd(a *app) *cobra.Command {
	var (
		derive    bool
		email     string
		secretKey string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a secret key or derive an encryption key",
		Long: `Without flags, prints a new random secret key.
With --derive, derives the session encryption key from --email, --secret-key
and the password, exactly as unlock does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !derive {
				sk, err := keygen.GenerateSecretKey()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, sk)
				return nil
			}

			if email == "" || secretKey == "" {
				return errors.New("--derive needs --email and --secret-key")
			}
			password, err := a.readPassword(cmd)
			if err != nil {
				return err
			}
			key, err := keygen.DeriveEncryptionKey(a.cfg.Keygen.PBKDF2Iterations, email, password, secretKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&derive, "derive", false, "Derive an encryption key instead of generating a secret key")
	cmd.Flags().StringVar(&email, "email", "", "Account email used as salt")
	cmd.Flags().StringVar(&secretKey, "secret-key", "", "Account secret key used as salt")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if write {
				if err := config.WriteConfigFile(&a.cfg, false); err != nil {
					return err
				}
				path, err := config.GetConfigPath(false)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.config_written", path))
				return nil
			}
			data, err := yaml.Marshal(&a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Write the effective configuration to the user config file")
	return cmd
}
