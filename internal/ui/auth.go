// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// AUTH FORM
// =============================================================================

// authMode is which face of the form is showing.
type authMode int

const (
	authSignIn authMode = iota
	authSignUp
)

// Field indexes into authForm.fields.
const (
	fieldName = iota
	fieldEmail
	fieldPassword
)

// authForm is the sign-in / sign-up screen state. Sign-in uses the email
// and password fields; sign-up adds the name field.
type authForm struct {
	mode    authMode
	fields  [3]textinput.Model
	focused int
	errText string
}

func newAuthForm() authForm {
	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 80

	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 200

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 200
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return authForm{
		mode:   authSignIn,
		fields: [3]textinput.Model{name, email, password},
	}
}

// visibleFields lists the active field indexes for the current mode.
func (f *authForm) visibleFields() []int {
	if f.mode == authSignUp {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

// focusFirst puts the cursor on the first visible field.
func (f *authForm) focusFirst() {
	visible := f.visibleFields()
	f.setFocus(visible[0])
}

func (f *authForm) setFocus(idx int) {
	f.focused = idx
	for i := range f.fields {
		if i == idx {
			f.fields[i].Focus()
		} else {
			f.fields[i].Blur()
		}
	}
}

// cycleFocus moves to the next visible field, wrapping.
func (f *authForm) cycleFocus() {
	visible := f.visibleFields()
	for pos, idx := range visible {
		if idx == f.focused {
			f.setFocus(visible[(pos+1)%len(visible)])
			return
		}
	}
	f.setFocus(visible[0])
}

// toggleMode flips between sign-in and sign-up, keeping typed values.
func (f *authForm) toggleMode() {
	if f.mode == authSignIn {
		f.mode = authSignUp
	} else {
		f.mode = authSignIn
	}
	f.errText = ""
	f.focusFirst()
}

// values returns the current name, email, and password.
func (f *authForm) values() (name, email, password string) {
	return f.fields[fieldName].Value(),
		f.fields[fieldEmail].Value(),
		f.fields[fieldPassword].Value()
}

// update forwards a message to the focused field.
func (f *authForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focused], cmd = f.fields[f.focused].Update(msg)
	return cmd
}

// reset clears the password after a failed attempt, keeping name and email.
func (f *authForm) resetPassword() {
	f.fields[fieldPassword].SetValue("")
}
