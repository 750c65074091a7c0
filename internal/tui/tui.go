// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tui provides the terminal user interface for ChatLocked. The
// top-level model switches between the login, setup and unlocked session
// views. Vault operations run as commands; while one is in flight every
// key except ctrl+c is ignored.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/chatlocked/internal/core"
	"github.com/toeirei/chatlocked/internal/crypto/seal"
	"github.com/toeirei/chatlocked/internal/form"
	"github.com/toeirei/chatlocked/internal/i18n"
	"github.com/toeirei/chatlocked/internal/logging"
	"github.com/toeirei/chatlocked/internal/vault"
)

// Service is the part of core.Service the UI drives.
type Service interface {
	Setup(ctx context.Context, f form.SetupForm) (string, error)
	Login(ctx context.Context, f form.LoginForm) error
	Keys(ctx context.Context) (core.KeyData, error)
	Lock(ctx context.Context)
}

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

type viewState int

const (
	loginView viewState = iota
	setupView
	sessionView
)

type loginDoneMsg struct{ err error }

type setupDoneMsg struct {
	secretKey string
	err       error
}

type keysLoadedMsg struct {
	keys core.KeyData
	err  error
}

type lockedMsg struct{}

type copiedMsg struct{ err error }

type sessionKeyMap struct {
	NewVault  key.Binding
	Reveal    key.Binding
	Copy      key.Binding
	Lock      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var sessionKeys = sessionKeyMap{
	NewVault:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new vault")),
	Reveal:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reveal")),
	Copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	Lock:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lock")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
}

// mainModel is the top-level model of the TUI.
type mainModel struct {
	ctx   context.Context
	svc   Service
	state viewState

	login inputForm[form.LoginForm]
	setup inputForm[form.SetupForm]

	keys         core.KeyData
	newSecretKey string // shown once right after setup
	reveal       bool

	busy   bool
	err    error
	status string
	width  int
}

func newMainModel(ctx context.Context, svc Service) mainModel {
	m := mainModel{
		ctx:   ctx,
		svc:   svc,
		login: newInputForm[form.LoginForm](textField("password", true)),
		setup: newInputForm[form.SetupForm](textField("email", false), textField("password", true)),
	}
	m.login.Focus()
	return m
}

func (m mainModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loginDoneMsg:
		m.busy = false
		m.login.ClearSecrets()
		if msg.err != nil {
			m.err = msg.err
			return m, m.login.Focus()
		}
		m.err = nil
		m.login.Blur()
		m.state = sessionView
		return m.loadKeys()

	case setupDoneMsg:
		m.busy = false
		m.setup.ClearSecrets()
		if msg.err != nil {
			m.err = msg.err
			return m, m.setup.Focus()
		}
		m.err = nil
		m.setup.Reset()
		m.setup.Blur()
		m.newSecretKey = msg.secretKey
		m.state = sessionView
		return m.loadKeys()

	case keysLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.keys = msg.keys
		return m, nil

	case lockedMsg:
		m.busy = false
		m.state = loginView
		m.keys = core.KeyData{}
		m.newSecretKey = ""
		m.reveal = false
		m.err = nil
		m.status = i18n.T("tui.locked")
		return m, m.login.Reset()

	case copiedMsg:
		if msg.err != nil {
			logging.Warnf("clipboard: %v", msg.err)
			m.status = i18n.T("tui.copy_failed", msg.err)
		} else {
			m.status = i18n.T("tui.copied")
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, sessionKeys.ForceQuit) {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.state {
		case loginView:
			return m.updateLogin(msg)
		case setupView:
			return m.updateSetup(msg)
		case sessionView:
			return m.updateSession(msg)
		}
	}

	return m, nil
}

func (m mainModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, sessionKeys.NewVault) {
		m.login.Blur()
		m.state = setupView
		m.err, m.status = nil, ""
		return m, m.setup.Focus()
	}

	cmd, action := m.login.Update(msg)
	switch action {
	case actionSubmit:
		data, err := m.login.Get()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.busy, m.err, m.status = true, nil, ""
		ctx, svc := m.ctx, m.svc
		return m, func() tea.Msg { return loginDoneMsg{err: svc.Login(ctx, data)} }
	case actionCancel:
		return m, tea.Quit
	}
	return m, cmd
}

func (m mainModel) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, action := m.setup.Update(msg)
	switch action {
	case actionSubmit:
		data, err := m.setup.Get()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.busy, m.err, m.status = true, nil, ""
		ctx, svc := m.ctx, m.svc
		return m, func() tea.Msg {
			sk, err := svc.Setup(ctx, data)
			return setupDoneMsg{secretKey: sk, err: err}
		}
	case actionCancel:
		m.setup.Blur()
		m.state = loginView
		m.err = nil
		return m, m.login.Focus()
	}
	return m, cmd
}

func (m mainModel) updateSession(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, sessionKeys.Reveal):
		m.reveal = !m.reveal
	case key.Matches(msg, sessionKeys.Copy):
		if m.keys.SecretKey == nil {
			return m, nil
		}
		secret := *m.keys.SecretKey
		return m, func() tea.Msg { return copiedMsg{err: copyToClipboard(secret)} }
	case key.Matches(msg, sessionKeys.Lock):
		m.busy, m.status = true, ""
		ctx, svc := m.ctx, m.svc
		return m, func() tea.Msg {
			svc.Lock(ctx)
			return lockedMsg{}
		}
	case key.Matches(msg, sessionKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m mainModel) loadKeys() (tea.Model, tea.Cmd) {
	m.busy = true
	ctx, svc := m.ctx, m.svc
	return m, func() tea.Msg {
		k, err := svc.Keys(ctx)
		return keysLoadedMsg{keys: k, err: err}
	}
}

func (m mainModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(i18n.T("tui.title")))
	b.WriteString("\n")

	var help string
	switch m.state {
	case loginView:
		b.WriteString(headingStyle.Render(i18n.T("tui.login.heading")))
		b.WriteString("\n")
		b.WriteString(m.login.View())
		help = i18n.T("tui.login.help")
	case setupView:
		b.WriteString(headingStyle.Render(i18n.T("tui.setup.heading")))
		b.WriteString("\n")
		b.WriteString(m.setup.View())
		help = i18n.T("tui.setup.help")
	case sessionView:
		b.WriteString(headingStyle.Render(i18n.T("tui.session.heading")))
		b.WriteString("\n")
		b.WriteString(m.sessionView())
		help = i18n.T("tui.session.help")
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(errorText(m.err)))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(successStyle.Render(m.status))
		b.WriteString("\n")
	}

	var right string
	if m.busy {
		right = i18n.T("tui.busy")
	}
	b.WriteString(helpStyle.Render(AlignFooter(help, right, m.width-4)))
	return docStyle.Render(b.String())
}

func (m mainModel) sessionView() string {
	var lines []string
	if m.keys.Email != nil {
		lines = append(lines, i18n.T("tui.session.email", *m.keys.Email))
	}
	if m.keys.SecretKey != nil {
		sk := *m.keys.SecretKey
		if !m.reveal {
			sk = maskSecret(sk)
		}
		lines = append(lines, i18n.T("tui.session.secret_key", sk))
	}
	if m.keys.EncryptionKey != nil {
		lines = append(lines, i18n.T("tui.session.key_active"))
	} else {
		lines = append(lines, specialStyle.Render(i18n.T("tui.session.key_expired")))
	}
	if m.newSecretKey != "" {
		lines = append(lines, secretBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			i18n.T("tui.setup.secret_key_notice"),
			m.newSecretKey,
		)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// errorText turns known errors into localized messages.
func errorText(err error) string {
	var fe form.FieldErrors
	switch {
	case errors.As(err, &fe):
		return fe.Error()
	case errors.Is(err, core.ErrNotSetUp):
		return i18n.T("errors.not_set_up")
	case errors.Is(err, seal.ErrDecrypt), errors.Is(err, vault.ErrWrongPassword):
		return i18n.T("errors.wrong_password")
	default:
		return i18n.T("tui.error", err)
	}
}

// Run starts the TUI and locks the vault when it exits.
func Run(ctx context.Context, svc Service) error {
	_, err := tea.NewProgram(
		newMainModel(ctx, svc),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	).Run()
	svc.Lock(ctx)
	return err
}
