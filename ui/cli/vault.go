// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/chatlocked/internal/core"
	"github.com/toeirei/chatlocked/internal/form"
	"github.com/toeirei/chatlocked/internal/i18n"
)

// withVault opens the vault with the user's password, runs fn and locks the
// vault again.
func (a *app) withVault(cmd *cobra.Command, fn func(svc *core.Service) error) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	password, err := a.readPassword(cmd)
	if err != nil {
		return err
	}
	if err := svc.Vault.Init(cmd.Context(), password); err != nil {
		return err
	}
	defer svc.Lock(cmd.Context())
	return fn(svc)
}

func newSetupCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the account in a new vault",
		Long: `Creates a vault protected by your password, generates your secret key and
stores your email, the secret key and a fresh session encryption key in it.
The secret key is printed once. Keep it safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if email == "" {
				if email, err = a.prompt(cmd, i18n.T("cli.email_prompt")); err != nil {
					return err
				}
			}
			password, err := a.readPassword(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			secretKey, err := svc.Setup(ctx, form.SetupForm{Email: email, Password: password})
			if err != nil {
				return err
			}
			defer svc.Lock(ctx)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("cli.setup_done", svc.Vault.VaultPath()))
			fmt.Fprintln(out, i18n.T("cli.secret_key", secretKey))
			fmt.Fprintln(out, i18n.T("cli.secret_key_warning"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted when empty)")
	return cmd
}

func newUnlockCmd(a *app) *cobra.Command {
	var printKey bool
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the vault and refresh the session encryption key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			password, err := a.readPassword(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := svc.Login(ctx, form.LoginForm{Password: password}); err != nil {
				return err
			}
			defer svc.Lock(ctx)

			keys, err := svc.Keys(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("cli.unlocked"))
			if keys.Email != nil {
				fmt.Fprintln(out, i18n.T("tui.session.email", *keys.Email))
			}
			if printKey && keys.EncryptionKey != nil {
				fmt.Fprintln(out, i18n.T("cli.encryption_key", *keys.EncryptionKey))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printKey, "print-key", false, "Print the derived session encryption key")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the record stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(cmd, func(svc *core.Service) error {
				value, err := svc.Vault.GetRecord(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a record and save the vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl < 0 {
				return fmt.Errorf("--ttl must not be negative")
			}
			return a.withVault(cmd, func(svc *core.Service) error {
				ctx := cmd.Context()
				if err := svc.Vault.InsertRecord(ctx, args[0], args[1], ttl); err != nil {
					return err
				}
				if err := svc.Vault.Save(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.record_saved", args[0]))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Record lifetime, e.g. 1h (0 keeps it until deleted)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a record and save the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(cmd, func(svc *core.Service) error {
				ctx := cmd.Context()
				if _, err := svc.Vault.DeleteRecord(ctx, args[0]); err != nil {
					return err
				}
				if err := svc.Vault.Save(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.record_deleted", args[0]))
				return nil
			})
		},
	}
}

func newLockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Remove the session encryption key from the vault",
		Long: `Opens the vault and locks it again, which removes a session encryption key
left behind by an earlier session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.withVault(cmd, func(svc *core.Service) error { return nil })
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.locked"))
			return nil
		},
	}
}
