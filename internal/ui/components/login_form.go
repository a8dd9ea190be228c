// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/todo-tui/internal/session"
	"github.com/jeranaias/todo-tui/internal/ui/i18n"
	"github.com/jeranaias/todo-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN FORM COMPONENT
// =============================================================================

// Form fields, in tab order.
const (
	FieldUser = iota
	FieldName
	FieldToken
	fieldCount
)

// LoginSubmitMsg carries the session entered in the form.
type LoginSubmitMsg struct {
	Session session.Session
}

// LoginForm collects the user id, display name and token. Pasting a JWT
// into the token field fills in the empty identity fields from its claims.
type LoginForm struct {
	theme  *styles.Theme
	loc    *i18n.Locale
	now    func() time.Time
	inputs []textinput.Model
	focus  int
	err    string
	notice string
	width  int
}

// NewLoginForm creates a form focused on the user id field. now stamps
// sessions built from tokens without an iat claim.
func NewLoginForm(theme *styles.Theme, loc *i18n.Locale, now func() time.Time) LoginForm {
	f := LoginForm{
		theme:  theme,
		loc:    loc,
		now:    now,
		inputs: make([]textinput.Model, fieldCount),
		width:  60,
	}
	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Prompt = ""
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
		ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
		ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.FocusRing)
		f.inputs[i] = ti
	}
	f.inputs[FieldToken].CharLimit = 8192
	f.inputs[FieldToken].EchoMode = textinput.EchoPassword
	f.inputs[FieldToken].EchoCharacter = '*'
	f.inputs[FieldToken].Placeholder = loc.T(i18n.TokenHint)
	f.SetWidth(f.width)
	f.inputs[FieldUser].Focus()
	return f
}

// SetWidth sets the form width.
func (f *LoginForm) SetWidth(width int) {
	f.width = width
	inputWidth := width - 14
	if inputWidth < 20 {
		inputWidth = 20
	}
	if inputWidth > 60 {
		inputWidth = 60
	}
	for i := range f.inputs {
		f.inputs[i].Width = inputWidth
	}
}

// Focused returns the index of the focused field.
func (f LoginForm) Focused() int {
	return f.focus
}

// Value returns the text of a field.
func (f LoginForm) Value(field int) string {
	return f.inputs[field].Value()
}

// SetValue sets the text of a field.
func (f *LoginForm) SetValue(field int, value string) {
	f.inputs[field].SetValue(value)
}

// Err returns the validation message on display, if any.
func (f LoginForm) Err() string {
	return f.err
}

// SetError shows msg under the form.
func (f *LoginForm) SetError(msg string) {
	f.err = msg
}

// SetNotice shows an informational line above the fields, e.g. why the
// previous session ended.
func (f *LoginForm) SetNotice(msg string) {
	f.notice = msg
}

// Reset clears every field and message and focuses the user id.
func (f *LoginForm) Reset() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.err = ""
	f.notice = ""
	return f.setFocus(FieldUser)
}

func (f *LoginForm) setFocus(field int) tea.Cmd {
	f.focus = (field + fieldCount) % fieldCount
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blinking.
func (f LoginForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation and submission and forwards everything else to
// the focused input.
func (f LoginForm) Update(msg tea.Msg) (LoginForm, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "down":
			return f, f.setFocus(f.focus + 1)
		case "shift+tab", "up":
			return f, f.setFocus(f.focus - 1)
		case "enter":
			sess, err := f.Submit()
			if err != nil {
				f.err = err.Error()
				return f, nil
			}
			f.err = ""
			return f, func() tea.Msg { return LoginSubmitMsg{Session: sess} }
		}
	}

	before := f.inputs[FieldToken].Value()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	if f.focus == FieldToken && f.inputs[FieldToken].Value() != before {
		f.fillFromToken()
	}
	return f, cmd
}

// fillFromToken copies identity claims into empty fields when the token
// field holds a JWT.
func (f *LoginForm) fillFromToken() {
	token := f.inputs[FieldToken].Value()
	if !session.LooksLikeJWT(token) {
		return
	}
	sess, err := session.FromToken(token, f.now())
	if err != nil {
		return
	}
	if strings.TrimSpace(f.inputs[FieldUser].Value()) == "" {
		f.inputs[FieldUser].SetValue(sess.UserID)
	}
	if strings.TrimSpace(f.inputs[FieldName].Value()) == "" {
		f.inputs[FieldName].SetValue(sess.DisplayName)
	}
}

// Submit validates the fields and returns the session they describe.
// Typed fields win over token claims.
func (f LoginForm) Submit() (session.Session, error) {
	sess := session.FromInput(
		f.inputs[FieldUser].Value(),
		f.inputs[FieldName].Value(),
		f.inputs[FieldToken].Value(),
		f.now(),
	)

	switch {
	case sess.UserID == "":
		return session.Session{}, errors.New(f.loc.T(i18n.UserRequired))
	case sess.Token == "":
		return session.Session{}, errors.New(f.loc.T(i18n.TokenRequired))
	}
	return sess, nil
}

// View renders the form.
func (f LoginForm) View() string {
	t := f.theme
	labels := []string{i18n.UserID, i18n.DisplayName, i18n.Token}

	parts := []string{t.FormTitle.Render(f.loc.T(i18n.SignIn))}
	if f.notice != "" {
		parts = append(parts, styles.RenderInfo(f.notice), "")
	}
	for i, key := range labels {
		label, box := t.Label, t.Input
		if i == f.focus {
			label, box = t.LabelFocused, t.InputFocused
		}
		parts = append(parts, label.Render(f.loc.T(key)), box.Render(f.inputs[i].View()))
	}
	if f.err != "" {
		parts = append(parts, "", styles.RenderError(f.err))
	}
	parts = append(parts, "", t.FormHint.Render(f.loc.T(i18n.FormHelp)))

	align := t.TextAlign()
	return t.FormBox.Render(lipgloss.JoinVertical(align, parts...))
}
