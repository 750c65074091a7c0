// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/chatlocked/internal/i18n"
	"golang.org/x/term"
)

// passwordEnv is read when --password is not given.
const passwordEnv = "CHATLOCKED_PASSWORD"

func isConfigNotFound(err error) bool {
	return errors.As(err, &viper.ConfigFileNotFoundError{})
}

// readPassword returns the vault password from --password, the environment
// or the terminal, in that order. Without a terminal a line is read from
// stdin.
func (a *app) readPassword(cmd *cobra.Command) (string, error) {
	if a.password != "" {
		return a.password, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), i18n.T("cli.password_prompt"))
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", errors.New(i18n.T("cli.error_read_password", err))
		}
		return string(b), nil
	}

	line, err := a.readLine(cmd)
	if err != nil {
		return "", errors.New(i18n.T("cli.error_read_password", err))
	}
	return line, nil
}

// prompt writes label to stderr and reads one line of input.
func (a *app) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := a.readLine(cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) readLine(cmd *cobra.Command) (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(cmd.InOrStdin())
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
