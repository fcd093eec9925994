package session

import "github.com/ppiankov/verdict/internal/model"

// EventKind identifies the type of session event.
type EventKind int

const (
	// EventSubmitClaim is the user intent to verify Text.
	EventSubmitClaim EventKind = iota
	// EventVerified delivers a verdict for the submission of Epoch.
	EventVerified
	// EventVerificationFailed delivers a verification failure for Epoch.
	EventVerificationFailed
	// EventAskQuestion is the user intent to ask Text about the current verdict.
	EventAskQuestion
	// EventAnswered delivers an answer for a question grounded on QueryID.
	EventAnswered
	// EventDialogueFailed delivers a dialogue failure for a question grounded on QueryID.
	EventDialogueFailed
)

func (k EventKind) String() string {
	switch k {
	case EventSubmitClaim:
		return "submit_claim"
	case EventVerified:
		return "verified"
	case EventVerificationFailed:
		return "verification_failed"
	case EventAskQuestion:
		return "ask_question"
	case EventAnswered:
		return "answered"
	case EventDialogueFailed:
		return "dialogue_failed"
	default:
		return "unknown"
	}
}

// Event is an input to Reduce.
type Event struct {
	Kind    EventKind
	Text    string
	Verdict *model.Verdict
	Answer  *model.Answer
	Err     error
	QueryID string
	Epoch   uint64
}

// EffectKind tells the runtime what to do after a transition.
type EffectKind int

const (
	// EffectNone means the transition was applied and nothing needs to run.
	EffectNone EffectKind = iota
	// EffectIgnored means the event was rejected and the state is unchanged.
	EffectIgnored
	// EffectDiscarded means a stale result was dropped and the state is unchanged.
	EffectDiscarded
	// EffectVerify requests a verification call for Claim.
	EffectVerify
	// EffectAsk requests a dialogue call for Question bound to Grounding.
	EffectAsk
)

// Effect is the side effect requested by a transition.
type Effect struct {
	Kind      EffectKind
	Claim     string
	Question  string
	Grounding model.Grounding
	Epoch     uint64
}

// Applied reports whether the transition changed the state
func (e Effect) Applied() bool {
	return e.Kind != EffectIgnored && e.Kind != EffectDiscarded
}
