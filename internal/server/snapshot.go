package server

import (
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/report"
	"github.com/ppiankov/verdict/internal/session"
)

// Snapshot is the wire form of a session state
type Snapshot struct {
	ID              string               `json:"id"`
	Phase           string               `json:"phase"`
	Claim           string               `json:"claim,omitempty"`
	Verdict         *model.Verdict       `json:"verdict,omitempty"`
	Decision        string               `json:"decision,omitempty"`
	ConfidenceText  string               `json:"confidence_text,omitempty"`
	Transcript      []model.DialogueTurn `json:"transcript"`
	PendingQuestion string               `json:"pending_question,omitempty"`
	Error           string               `json:"error,omitempty"`
	DialogueError   string               `json:"dialogue_error,omitempty"`
	CanSubmit       bool                 `json:"can_submit"`
	CanAsk          bool                 `json:"can_ask"`
	Epoch           uint64               `json:"epoch"`
}

func newSnapshot(id string, state session.State) Snapshot {
	snap := Snapshot{
		ID:         id,
		Phase:      state.Phase.String(),
		Claim:      state.ClaimText,
		Verdict:    state.Verdict,
		Transcript: state.Transcript,
		CanSubmit:  state.CanSubmit(),
		CanAsk:     state.CanAsk(),
		Epoch:      state.Epoch,
	}
	if snap.Transcript == nil {
		snap.Transcript = []model.DialogueTurn{}
	}
	if state.Verdict != nil {
		snap.Decision = state.Verdict.Label.Display()
		snap.ConfidenceText = report.Percent(state.Verdict.Confidence)
	}
	if state.Pending != nil {
		snap.PendingQuestion = state.Pending.Text
	}
	if state.Failure != nil {
		snap.Error = state.Failure.Error()
	}
	if state.DialogueError != nil {
		snap.DialogueError = state.DialogueError.Error()
	}
	return snap
}
