// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/toeirei/chatlocked/internal/core"
	"github.com/toeirei/chatlocked/internal/crypto/envelope"
	"github.com/toeirei/chatlocked/internal/form"
)

// withSession logs in like unlock does, so the session encryption key is
// fresh, runs fn and locks the vault again.
func (a *app) withSession(cmd *cobra.Command, fn func(svc *core.Service) error) error {
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
	return fn(svc)
}

func newEncryptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <text>",
		Short: "Encrypt text with the session encryption key",
		Long: `Unlocks the vault and encrypts text under the session encryption key.
The encrypted document is printed as JSON and can be opened with decrypt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(svc *core.Service) error {
				doc, err := svc.EncryptText(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			})
		},
	}
}

func newDecryptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <document-json|->",
		Short: "Decrypt a document made by encrypt",
		Long: `Unlocks the vault and prints the text of an encrypted document.
Pass "-" to read the document from standard input after the password.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(svc *core.Service) error {
				raw := []byte(args[0])
				if args[0] == "-" {
					var err error
					if raw, err = a.readRest(cmd); err != nil {
						return err
					}
				}
				var doc envelope.Document
				if err := json.Unmarshal(raw, &doc); err != nil {
					return fmt.Errorf("invalid document: %w", err)
				}
				text, err := svc.DecryptText(cmd.Context(), &doc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

// readRest returns what is left on standard input, after any prompted lines.
func (a *app) readRest(cmd *cobra.Command) ([]byte, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(cmd.InOrStdin())
	}
	return io.ReadAll(a.reader)
}
