// Package tui is the interactive terminal chat for a verification session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/report"
	"github.com/ppiankov/verdict/internal/session"
)

const newClaimCommand = "/new"

// Intents is the part of a session the UI drives
type Intents interface {
	SubmitClaim(ctx context.Context, text string) bool
	AskQuestion(ctx context.Context, text string) bool
}

// Options configures the chat model
type Options struct {
	NoColor bool
}

// Model is the chat UI
type Model struct {
	ctx     context.Context
	intents Intents
	feed    *Feed
	state   session.State
	input   textinput.Model
	spinner spinner.Model
	styles  styles
	notice  string
	width   int
}

// NewModel creates a chat model showing initial and driving intents
func NewModel(ctx context.Context, intents Intents, feed *Feed, initial session.State, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter a claim to verify"
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Width = 80
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		intents: intents,
		feed:    feed,
		state:   initial,
		input:   ti,
		spinner: sp,
		styles:  newStyles(opts.NoColor),
	}
	m.input.Placeholder = m.placeholder()
	return m
}

// Init starts the cursor, the spinner and the snapshot feed
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForState(m.feed))
}

// Update handles keys, snapshots and spinner ticks
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m = m.submit(m.input.Value())
			return m, nil
		}

	case stateMsg:
		m.state = msg.State
		m.input.Placeholder = m.placeholder()
		return m, waitForState(m.feed)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 20)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit routes text to a claim or a question depending on the phase.
// "/new <claim>" always starts a new verification.
func (m Model) submit(text string) Model {
	text = strings.TrimSpace(text)
	if text == "" {
		return m
	}

	var accepted bool
	if claim, ok := newClaim(text); ok {
		if claim == "" {
			m.notice = "Usage: /new <claim>"
			return m
		}
		accepted = m.intents.SubmitClaim(m.ctx, claim)
	} else {
		accepted = m.route(text)
	}

	if !accepted {
		m.notice = m.rejection()
		return m
	}
	m.notice = ""
	m.input.Reset()
	return m
}

// newClaim extracts the claim of a "/new" command. ok is false for other input.
func newClaim(text string) (claim string, ok bool) {
	rest, found := strings.CutPrefix(text, newClaimCommand)
	if !found {
		return "", false
	}
	if rest != "" && !unicode.IsSpace(rune(rest[0])) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// route sends text as a question when a verdict is ready, otherwise as a claim
func (m Model) route(text string) bool {
	switch {
	case m.state.Phase == session.PhaseReady:
		return m.intents.AskQuestion(m.ctx, text)
	default:
		return m.intents.SubmitClaim(m.ctx, text)
	}
}

func (m Model) rejection() string {
	switch {
	case m.state.Phase == session.PhaseVerifying:
		return "A verification is already running."
	case m.state.Pending != nil:
		return "Wait for the current answer."
	default:
		return "Nothing to send."
	}
}

func (m Model) placeholder() string {
	if m.state.Phase == session.PhaseReady {
		return "Ask about this verdict, or /new <claim>"
	}
	return "Enter a claim to verify"
}

// View renders the session and the input line
func (m Model) View() string {
	parts := []string{m.styles.title.Render("verdict")}

	if m.state.ClaimText != "" {
		parts = append(parts, m.styles.label.Render("Claim: ")+m.state.ClaimText)
	}

	switch m.state.Phase {
	case session.PhaseVerifying:
		parts = append(parts, m.spinner.View()+" Verifying claim...")
	case session.PhaseFailed:
		parts = append(parts, m.styles.err.Render(fmt.Sprintf("✗ Verification failed: %v", m.state.Failure)))
	case session.PhaseReady:
		parts = append(parts, m.renderVerdict(m.state.Verdict), m.renderTranscript())
		if m.state.Pending != nil {
			parts = append(parts, m.spinner.View()+" Thinking...")
		}
		if m.state.DialogueError != nil {
			parts = append(parts, m.styles.err.Render(fmt.Sprintf("✗ %v", m.state.DialogueError)))
		}
	}

	if m.notice != "" {
		parts = append(parts, m.styles.notice.Render(m.notice))
	}
	parts = append(parts, m.input.View(), m.styles.help.Render("enter: send • /new <claim>: verify another claim • esc: quit"))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderVerdict(v *model.Verdict) string {
	if v == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.decision(v.Label).Render(v.Label.Display()))
	fmt.Fprintf(&b, "  confidence %s\n", report.Percent(v.Confidence))

	for i, ev := range v.Evidence {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, ev.Title, ev.Source)
		fmt.Fprintf(&b, "   %s\n", m.styles.quote.Render(ev.SentenceText))
		fmt.Fprintf(&b, "   %s\n", m.styles.link.Render(ev.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderTranscript() string {
	lines := make([]string, 0, len(m.state.Transcript))
	for _, turn := range m.state.Transcript {
		if turn.Role == model.RoleUser {
			lines = append(lines, m.styles.label.Render("You: ")+turn.Text)
			continue
		}
		lines = append(lines, m.styles.bot.Render("Bot: ")+turn.Text)
	}
	return strings.Join(lines, "\n")
}

// Run starts the chat for s and blocks until the user quits
func Run(ctx context.Context, s *session.Session, opts Options) error {
	feed := NewFeed()
	unsubscribe := s.Subscribe(feed.Observe)
	defer unsubscribe()

	p := tea.NewProgram(NewModel(ctx, s, feed, s.Snapshot(), opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}
