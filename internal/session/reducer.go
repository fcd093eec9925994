package session

import (
	"slices"
	"strings"

	"github.com/ppiankov/verdict/internal/model"
)

// Reduce applies event to state and returns the next state with the effect to run.
// It never mutates the input: transcripts are copied on append.
func Reduce(state State, event Event) (State, Effect) {
	switch event.Kind {
	case EventSubmitClaim:
		return submitClaim(state, event)
	case EventVerified:
		return verified(state, event)
	case EventVerificationFailed:
		return verificationFailed(state, event)
	case EventAskQuestion:
		return askQuestion(state, event)
	case EventAnswered:
		return answered(state, event)
	case EventDialogueFailed:
		return dialogueFailed(state, event)
	default:
		return state, Effect{Kind: EffectIgnored}
	}
}

// submitClaim clears verdict and transcript together and starts verification
func submitClaim(state State, event Event) (State, Effect) {
	claim, ok := model.NewClaim(event.Text)
	if !ok || !state.CanSubmit() {
		return state, Effect{Kind: EffectIgnored}
	}

	next := State{
		Phase:     PhaseVerifying,
		ClaimText: claim.String(),
		Epoch:     state.Epoch + 1,
	}

	return next, Effect{Kind: EffectVerify, Claim: claim.String(), Epoch: next.Epoch}
}

func verified(state State, event Event) (State, Effect) {
	if state.Phase != PhaseVerifying || event.Epoch != state.Epoch || event.Verdict == nil {
		return state, Effect{Kind: EffectDiscarded}
	}

	state.Phase = PhaseReady
	state.Verdict = event.Verdict
	state.Transcript = nil
	state.Failure = nil

	return state, Effect{}
}

func verificationFailed(state State, event Event) (State, Effect) {
	if state.Phase != PhaseVerifying || event.Epoch != state.Epoch {
		return state, Effect{Kind: EffectDiscarded}
	}

	state.Phase = PhaseFailed
	state.Verdict = nil
	state.Transcript = nil
	state.Failure = event.Err

	return state, Effect{}
}

// askQuestion appends the user turn and captures grounding from the current verdict
func askQuestion(state State, event Event) (State, Effect) {
	question := strings.TrimSpace(event.Text)
	if question == "" || !state.CanAsk() {
		return state, Effect{Kind: EffectIgnored}
	}

	grounding := state.Verdict.Grounding()

	state.Transcript = appendTurn(state.Transcript, model.RoleUser, question)
	state.Pending = &PendingQuestion{
		Text:      question,
		Grounding: grounding,
		Epoch:     state.Epoch,
	}
	state.DialogueError = nil

	return state, Effect{
		Kind:      EffectAsk,
		Question:  question,
		Grounding: grounding,
		Epoch:     state.Epoch,
	}
}

func answered(state State, event Event) (State, Effect) {
	if !current(state, event) || event.Answer == nil {
		return state, Effect{Kind: EffectDiscarded}
	}

	state.Transcript = appendTurn(state.Transcript, model.RoleAssistant, event.Answer.Text)
	state.Pending = nil

	return state, Effect{}
}

// dialogueFailed keeps the transcript as it was; the user's question stays
func dialogueFailed(state State, event Event) (State, Effect) {
	if !current(state, event) {
		return state, Effect{Kind: EffectDiscarded}
	}

	state.Pending = nil
	state.DialogueError = event.Err

	return state, Effect{}
}

// current reports whether a dialogue result still belongs to the session's verdict
func current(state State, event Event) bool {
	return state.Phase == PhaseReady &&
		state.Verdict != nil &&
		state.Pending != nil &&
		state.Verdict.QueryID == event.QueryID &&
		state.Epoch == event.Epoch
}

func appendTurn(transcript []model.DialogueTurn, role model.Role, text string) []model.DialogueTurn {
	return append(slices.Clip(transcript), model.DialogueTurn{Role: role, Text: text})
}
