package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cinex/internal/views"
)

type authMode int

const (
	modeLogin authMode = iota
	modeSignup
)

func (m authMode) String() string {
	if m == modeSignup {
		return "Sign Up"
	}
	return "Sign In"
}

// authScreen is the login/signup form.
type authScreen struct {
	mode       authMode
	inputs     []textinput.Model
	focus      int
	submitting bool
	err        string
}

func newAuthScreen(mode authMode) *authScreen {
	s := &authScreen{mode: mode}
	s.build()
	return s
}

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func (s *authScreen) build() {
	if s.mode == modeSignup {
		s.inputs = []textinput.Model{
			newInput("Email", false),
			newInput("Username", false),
			newInput("Password", true),
			newInput("Confirm Password", true),
		}
	} else {
		s.inputs = []textinput.Model{
			newInput("Email", false),
			newInput("Password", true),
		}
	}
	s.focus = 0
	s.err = ""
}

func (s *authScreen) switchMode() {
	if s.mode == modeLogin {
		s.mode = modeSignup
	} else {
		s.mode = modeLogin
	}
	s.build()
}

func (s *authScreen) lastField() bool {
	return s.focus == len(s.inputs)-1
}

// move shifts focus by delta, wrapping around.
func (s *authScreen) move(delta int) tea.Cmd {
	s.focus = (s.focus + delta + len(s.inputs)) % len(s.inputs)
	return s.focusCurrent()
}

func (s *authScreen) focusCurrent() tea.Cmd {
	var cmd tea.Cmd
	for i := range s.inputs {
		if i == s.focus {
			cmd = s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
	return cmd
}

func (s *authScreen) values() []string {
	values := make([]string, len(s.inputs))
	for i, in := range s.inputs {
		values[i] = in.Value()
	}
	return values
}

func (s *authScreen) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return cmd
}

func (s *authScreen) view(sp spinner.Model) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(s.mode.String()))
	b.WriteString("\n")
	for _, in := range s.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	if s.mode == modeSignup {
		b.WriteString(styles.help.Render(fmt.Sprintf("Passwords must match and be at least %d characters", views.MinPasswordLength)))
		b.WriteString("\n")
	}
	if s.submitting {
		b.WriteString(sp.View() + " Submitting...\n")
	}
	if s.err != "" {
		b.WriteString(styles.err.Render(s.err) + "\n")
	}
	return b.String()
}
