package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/session"
)

type fakeIntents struct {
	accept    bool
	claims    []string
	questions []string
}

func (f *fakeIntents) SubmitClaim(ctx context.Context, text string) bool {
	f.claims = append(f.claims, text)
	return f.accept
}

func (f *fakeIntents) AskQuestion(ctx context.Context, text string) bool {
	f.questions = append(f.questions, text)
	return f.accept
}

func readyState() session.State {
	return session.State{
		Phase:     session.PhaseReady,
		ClaimText: "The sky is green.",
		Verdict: &model.Verdict{
			QueryID:    "q_1",
			Label:      model.LabelRefutes,
			Confidence: 0.931,
			Evidence: []model.EvidenceItem{
				{Title: "Sky", Source: "wikipedia", SentenceText: "The sky appears blue.", URL: "https://en.wikipedia.org/wiki/Sky"},
			},
		},
		Transcript: []model.DialogueTurn{
			{Role: model.RoleUser, Text: "Why?"},
			{Role: model.RoleAssistant, Text: "Scattering."},
		},
	}
}

func newTestModel(intents Intents, state session.State) Model {
	return NewModel(context.Background(), intents, NewFeed(), state, Options{NoColor: true})
}

func enter(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model)
}

func TestSubmit_ClaimWhenIdle(t *testing.T) {
	intents := &fakeIntents{accept: true}
	m := enter(t, newTestModel(intents, session.State{}), "  The sky is green.  ")

	if len(intents.claims) != 1 || intents.claims[0] != "The sky is green." {
		t.Fatalf("expected one trimmed claim, got %v", intents.claims)
	}
	if m.input.Value() != "" {
		t.Error("input should be cleared after an accepted claim")
	}
}

func TestSubmit_QuestionWhenReady(t *testing.T) {
	intents := &fakeIntents{accept: true}
	enter(t, newTestModel(intents, readyState()), "Why is it blue?")

	if len(intents.questions) != 1 || len(intents.claims) != 0 {
		t.Fatalf("expected a question, got claims=%v questions=%v", intents.claims, intents.questions)
	}
}

func TestSubmit_NewClaimCommand(t *testing.T) {
	intents := &fakeIntents{accept: true}
	enter(t, newTestModel(intents, readyState()), "/new Water is wet.")

	if len(intents.claims) != 1 || intents.claims[0] != "Water is wet." {
		t.Fatalf("expected new claim, got %v", intents.claims)
	}
}

func TestSubmit_NewCommandWithoutClaim(t *testing.T) {
	intents := &fakeIntents{accept: true}
	m := enter(t, newTestModel(intents, readyState()), "  /new  ")

	if len(intents.claims) != 0 || len(intents.questions) != 0 {
		t.Fatalf("bare /new must not be sent, got claims=%v questions=%v", intents.claims, intents.questions)
	}
	if !strings.Contains(m.View(), "Usage: /new <claim>") {
		t.Errorf("expected usage notice:\n%s", m.View())
	}
}

func TestNewClaim(t *testing.T) {
	tests := []struct {
		in    string
		claim string
		ok    bool
	}{
		{in: "/new Water is wet.", claim: "Water is wet.", ok: true},
		{in: "/new", claim: "", ok: true},
		{in: "/new\tTabbed claim", claim: "Tabbed claim", ok: true},
		{in: "/newest results?", ok: false},
		{in: "What is /new?", ok: false},
	}
	for _, tt := range tests {
		claim, ok := newClaim(tt.in)
		if claim != tt.claim || ok != tt.ok {
			t.Errorf("newClaim(%q) = %q, %v; want %q, %v", tt.in, claim, ok, tt.claim, tt.ok)
		}
	}
}

func TestSubmit_Blank(t *testing.T) {
	intents := &fakeIntents{accept: true}
	enter(t, newTestModel(intents, session.State{}), "   ")

	if len(intents.claims) != 0 {
		t.Error("blank input must not be sent")
	}
}

func TestSubmit_Rejected(t *testing.T) {
	intents := &fakeIntents{accept: false}
	state := session.State{Phase: session.PhaseVerifying, ClaimText: "first"}
	m := enter(t, newTestModel(intents, state), "second")

	if m.input.Value() != "second" {
		t.Error("rejected input should stay in the box")
	}
	if !strings.Contains(m.View(), "A verification is already running.") {
		t.Errorf("expected rejection notice:\n%s", m.View())
	}
}

func TestView_Ready(t *testing.T) {
	view := newTestModel(&fakeIntents{}, readyState()).View()

	for _, want := range []string{"Claim: The sky is green.", "Refuted", "93.1%", "1. Sky (wikipedia)", "https://en.wikipedia.org/wiki/Sky", "You: Why?", "Bot: Scattering."} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q\n%s", want, view)
		}
	}
}

func TestView_Pending(t *testing.T) {
	state := readyState()
	state.Pending = &session.PendingQuestion{Text: "How?"}
	state.DialogueError = errors.New("dialogue failed")

	view := newTestModel(&fakeIntents{}, state).View()
	if !strings.Contains(view, "Thinking...") || !strings.Contains(view, "dialogue failed") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestView_Failed(t *testing.T) {
	state := session.State{Phase: session.PhaseFailed, ClaimText: "x", Failure: errors.New("backend down")}
	view := newTestModel(&fakeIntents{}, state).View()

	if !strings.Contains(view, "Verification failed: backend down") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestUpdate_StateMsg(t *testing.T) {
	m := newTestModel(&fakeIntents{}, session.State{})

	next, cmd := m.Update(stateMsg{State: readyState()})
	if next.(Model).state.Phase != session.PhaseReady {
		t.Error("snapshot not applied")
	}
	if cmd == nil {
		t.Error("expected the model to keep waiting on the feed")
	}
}

func TestUpdate_Quit(t *testing.T) {
	_, cmd := newTestModel(&fakeIntents{}, session.State{}).Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestFeed_CoalescesSnapshots(t *testing.T) {
	feed := NewFeed()
	feed.Observe(session.State{Phase: session.PhaseVerifying})
	feed.Observe(session.State{Phase: session.PhaseReady})

	done := make(chan tea.Msg, 1)
	go func() { done <- waitForState(feed)() }()

	select {
	case msg := <-done:
		if msg.(stateMsg).State.Phase != session.PhaseReady {
			t.Errorf("expected latest snapshot, got %v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("feed did not deliver")
	}
}
