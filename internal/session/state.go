package session

import (
	"slices"

	"github.com/ppiankov/verdict/internal/model"
)

// Phase is the lifecycle stage of a session
type Phase int

const (
	// PhaseIdle means no claim has been submitted yet
	PhaseIdle Phase = iota
	// PhaseVerifying means a verification call is in flight
	PhaseVerifying
	// PhaseReady means a verdict is present and dialogue is enabled
	PhaseReady
	// PhaseFailed means the last verification failed
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseVerifying:
		return "verifying"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PendingQuestion is a question whose answer has not arrived yet.
// Grounding is captured from the verdict that was current when it was asked.
type PendingQuestion struct {
	Text      string
	Grounding model.Grounding
	Epoch     uint64
}

// State is an immutable snapshot of a session.
// Transcript is non-empty only when Verdict is present.
type State struct {
	Phase      Phase
	ClaimText  string
	Verdict    *model.Verdict
	Transcript []model.DialogueTurn

	// Pending is set in PhaseReady while a dialogue call is in flight
	Pending *PendingQuestion

	// Failure is the reason of the last verification failure (PhaseFailed only)
	Failure error

	// DialogueError is the last dialogue failure. Cleared by the next accepted question.
	DialogueError error

	// Epoch increments on every accepted claim submission
	Epoch uint64
}

// CanSubmit reports whether a claim submission would be accepted
func (s State) CanSubmit() bool {
	return s.Phase != PhaseVerifying
}

// CanAsk reports whether a question would be accepted
func (s State) CanAsk() bool {
	return s.Phase == PhaseReady && s.Verdict != nil && s.Pending == nil
}

// Clone returns a copy whose slices do not alias s
func (s State) Clone() State {
	out := s
	out.Transcript = slices.Clone(s.Transcript)
	if s.Verdict != nil {
		v := *s.Verdict
		v.Evidence = slices.Clone(s.Verdict.Evidence)
		out.Verdict = &v
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}
