package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/utils"
)

// LoginTUIOpts wires the sign-in flow into the TUI. Start launches the
// provider sign-in for a submitted email; consent details and the
// final outcome arrive on the events channel it is handed.
type LoginTUIOpts struct {
	Email      string
	ServerURL  string
	DataDir    string
	ConfigPath string
	Note       string // optional note shown under the header
	Start      func(ctx context.Context, email string, events chan<- tea.Msg)
}

type consentMsg struct{ info creds.ConsentInfo }
type signInDoneMsg struct{ err error }

type loginStep int

const (
	stepEmail loginStep = iota
	stepConsent
)

// loginModel holds the sign-in screen's state.
type loginModel struct {
	opts *LoginTUIOpts
	ctx  context.Context

	email  textinput.Model
	spin   spinner.Model
	events chan tea.Msg

	step    loginStep
	consent creds.ConsentInfo

	busy    bool
	status  string // shown next to the spinner
	errMsg  string // shown under the input
	lastErr error  // raw error for the caller
	done    bool
}

func newLoginModel(ctx context.Context, opts *LoginTUIOpts) loginModel {
	in := textinput.New()
	in.Placeholder = "you@example.com"
	in.CharLimit = 254
	in.Width = 40
	in.PromptStyle = green
	in.TextStyle = green
	in.PlaceholderStyle = gray
	in.SetValue(opts.Email)
	in.Focus()

	return loginModel{
		opts:   opts,
		ctx:    ctx,
		email:  in,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(cyan)),
		events: make(chan tea.Msg, 4),
	}
}

func (m loginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// nextEvent relays the next sign-in event into the program.
func (m loginModel) nextEvent() tea.Msg {
	return <-m.events
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case consentMsg:
		m.step = stepConsent
		m.consent = msg.info
		m.status = "Waiting for approval..."
		return m, m.nextEvent

	case signInDoneMsg:
		return m.finishSignIn(msg.err)
	}

	return m, nil
}

func (m loginModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		// Sign-in has no per-attempt cancel once it is in flight, so
		// both keys abandon the whole login.
		return m, tea.Quit

	case tea.KeyEnter:
		if m.step == stepEmail && !m.busy {
			return m.beginSignIn()
		}
		return m, nil
	}

	if !m.email.Focused() {
		return m, nil
	}
	// Typing again means a retry, drop the stale error.
	m.errMsg = ""
	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	return m, cmd
}

// beginSignIn validates the address and kicks off the sign-in.
func (m loginModel) beginSignIn() (tea.Model, tea.Cmd) {
	addr := strings.TrimSpace(m.email.Value())
	if err := utils.ValidateEmail(addr); err != nil {
		m.errMsg = err.Error()
		return m, nil
	}

	m.errMsg = ""
	m.lastErr = nil
	m.busy = true
	m.status = "Starting sign-in..."
	m.email.Blur()

	m.opts.Start(m.ctx, addr, m.events)
	return m, m.nextEvent
}

func (m loginModel) finishSignIn(err error) (tea.Model, tea.Cmd) {
	m.busy = false
	m.status = ""

	if err != nil {
		// Back to the address prompt so the user can fix a typo or retry.
		m.lastErr = err
		m.errMsg = err.Error()
		m.step = stepEmail
		m.email.Focus()
		return m, textinput.Blink
	}

	m.done = true
	return m, tea.Quit
}

// kv renders an aligned "label   value" line.
func kv(label, value string) string {
	return gray.Render(fmt.Sprintf("%-8s", label)) + value + "\n"
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(cyan.Bold(true).Render(utils.Art))
	b.WriteString("\n")
	b.WriteString(kv("Cloud", green.Render(m.opts.ServerURL)))
	b.WriteString(kv("Data", green.Render(m.opts.DataDir)))
	b.WriteString(kv("Config", green.Render(m.opts.ConfigPath)))
	if m.opts.Note != "" {
		b.WriteString("\n" + yellow.Render(m.opts.Note) + "\n")
	}
	b.WriteString("\n")

	switch m.step {
	case stepEmail:
		b.WriteString("Enter the email of your Forked account\n\n")
		b.WriteString(m.email.View())

	case stepConsent:
		b.WriteString("Approve this device to finish signing in:\n\n")
		b.WriteString(kv("Visit", cyan.Render(m.consent.VerificationURL)))
		b.WriteString(kv("Code", green.Bold(true).Render(m.consent.UserCode)))
		if m.consent.ExpiresIn > 0 {
			b.WriteString(gray.Render(fmt.Sprintf("The code expires in %s.", m.consent.ExpiresIn.Round(time.Second))))
			b.WriteString("\n")
		}
	}

	if m.busy {
		b.WriteString("\n\n" + m.spin.View() + " " + m.status)
	}
	if m.errMsg != "" {
		b.WriteString("\n\n" + red.Bold(true).Render("ERROR: ") + red.Render(m.errMsg))
	}
	b.WriteString("\n\n")
	b.WriteString(gray.Render("Enter submits. Esc or Ctrl+C quits."))
	b.WriteString("\n")
	return b.String()
}

// RunLoginTUI runs the interactive sign-in. It returns nil only when
// the provider confirmed the grant.
func RunLoginTUI(ctx context.Context, opts LoginTUIOpts) error {
	program := tea.NewProgram(newLoginModel(ctx, &opts), tea.WithAltScreen(), tea.WithContext(ctx))
	model, err := program.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("login TUI: %w", err)
	}

	fm, ok := model.(loginModel)
	if !ok || !fm.done {
		if ok && fm.lastErr != nil {
			return fm.lastErr
		}
		return errors.New("sign-in cancelled")
	}
	return nil
}
