// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/chatlocked/internal/form"
	"github.com/toeirei/chatlocked/internal/i18n"
)

type formAction int

const (
	actionNone formAction = iota
	actionNext
	actionPrev
	actionSubmit
	actionCancel
)

type formKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

var defaultFormKeyMap = formKeyMap{
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "previous"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
}

type formField struct {
	id     string
	label  string
	secret bool
	input  textinput.Model
}

// textField returns a field decoded under id. Secret fields echo bullets.
func textField(id string, secret bool) formField {
	t := textinput.New()
	t.Prompt = "> "
	t.CharLimit = 256
	t.Width = 40
	t.Cursor.Style = lipgloss.NewStyle().Foreground(colorFocus)
	if secret {
		t.EchoMode = textinput.EchoPassword
		t.EchoCharacter = '•'
	}
	return formField{id: id, label: i18n.T("field." + id), secret: secret, input: t}
}

// inputForm is a column of text fields whose values decode into T. Enter
// moves to the next field and submits on the last one.
type inputForm[T any] struct {
	fields []formField
	active int
	keys   formKeyMap
}

func newInputForm[T any](fields ...formField) inputForm[T] {
	return inputForm[T]{fields: fields, keys: defaultFormKeyMap}
}

func (f *inputForm[T]) Focus() tea.Cmd {
	return f.fields[f.active].input.Focus()
}

func (f *inputForm[T]) Blur() {
	f.fields[f.active].input.Blur()
}

func (f *inputForm[T]) Update(msg tea.Msg) (tea.Cmd, formAction) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(kmsg, f.keys.Cancel):
			return nil, actionCancel
		case key.Matches(kmsg, f.keys.Submit):
			if f.active == len(f.fields)-1 {
				return nil, actionSubmit
			}
			return f.changeActive(1), actionNext
		case key.Matches(kmsg, f.keys.Next):
			return f.changeActive(1), actionNext
		case key.Matches(kmsg, f.keys.Prev):
			return f.changeActive(-1), actionPrev
		}
	}

	var cmd tea.Cmd
	f.fields[f.active].input, cmd = f.fields[f.active].input.Update(msg)
	return cmd, actionNone
}

func (f *inputForm[T]) changeActive(delta int) tea.Cmd {
	f.fields[f.active].input.Blur()
	f.active = (f.active + delta + len(f.fields)) % len(f.fields)
	return f.fields[f.active].input.Focus()
}

// Values returns the raw field values keyed by field id.
func (f inputForm[T]) Values() map[string]any {
	values := make(map[string]any, len(f.fields))
	for _, field := range f.fields {
		values[field.id] = field.input.Value()
	}
	return values
}

// Get decodes and validates the current values.
func (f *inputForm[T]) Get() (T, error) {
	return form.Parse[T](f.Values())
}

// Reset clears every field and focuses the first one.
func (f *inputForm[T]) Reset() tea.Cmd {
	for i := range f.fields {
		f.fields[i].input.Reset()
	}
	return f.changeActive(-f.active)
}

// ClearSecrets empties the secret fields only.
func (f *inputForm[T]) ClearSecrets() {
	for i := range f.fields {
		if f.fields[i].secret {
			f.fields[i].input.Reset()
		}
	}
}

func (f inputForm[T]) View() string {
	rows := make([]string, 0, len(f.fields))
	for i, field := range f.fields {
		label := labelStyle.Render(field.label)
		if i == f.active && field.input.Focused() {
			label = focusedLabelStyle.Render(field.label)
		}
		rows = append(rows, lipgloss.JoinVertical(lipgloss.Left, label, field.input.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
