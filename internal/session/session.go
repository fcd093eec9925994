// Package session orchestrates one verification lifecycle: a claim, its verdict
// and the grounded dialogue about that verdict.
//
// Transitions are computed by the pure Reduce function. Session is the runtime
// around it: it serializes events, runs the requested backend calls in
// goroutines and notifies observers after every applied transition.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/ppiankov/verdict/internal/logging"
	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/model"
)

// Verifier submits claims for verification
type Verifier interface {
	SubmitClaim(ctx context.Context, claim string) (*model.Verdict, error)
}

// Responder answers questions grounded on a verdict
type Responder interface {
	AskQuestion(ctx context.Context, grounding model.Grounding, question string) (*model.Answer, error)
}

// Observer receives a snapshot after every applied transition.
// Observers run synchronously in transition order and must not call back into the session.
type Observer func(State)

// Option configures a Session
type Option func(*Session)

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records discarded dialogue results on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithObserver subscribes fn before any transition happens
func WithObserver(fn Observer) Option {
	return func(s *Session) { s.subscribe(fn) }
}

type subscription struct {
	id int
	fn Observer
}

// Session holds the state of one verification lifecycle
type Session struct {
	mu        sync.Mutex
	settled   *sync.Cond
	state     State
	inflight  int
	observers []subscription
	nextID    int

	verifier  Verifier
	responder Responder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates an idle session
func New(verifier Verifier, responder Responder, opts ...Option) *Session {
	s := &Session{
		verifier:  verifier,
		responder: responder,
		logger:    logging.Discard(),
	}
	s.settled = sync.NewCond(&s.mu)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SubmitClaim starts verifying text. It returns false when the claim is blank
// or a verification is already in flight; nothing is sent in that case.
// ctx bounds the backend call, not the method.
func (s *Session) SubmitClaim(ctx context.Context, text string) bool {
	return s.dispatch(ctx, Event{Kind: EventSubmitClaim, Text: text})
}

// AskQuestion asks text about the current verdict. It returns false when the
// question is blank, no verdict is present or another question is pending.
func (s *Session) AskQuestion(ctx context.Context, text string) bool {
	return s.dispatch(ctx, Event{Kind: EventAskQuestion, Text: text})
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn and returns a function that removes it
func (s *Session) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.subscribe(fn)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.observers = slices.DeleteFunc(s.observers, func(sub subscription) bool {
				return sub.id == id
			})
		})
	}
}

func (s *Session) subscribe(fn Observer) int {
	s.nextID++
	s.observers = append(s.observers, subscription{id: s.nextID, fn: fn})
	return s.nextID
}

// Wait blocks until no backend call is in flight
func (s *Session) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inflight > 0 {
		s.settled.Wait()
	}
}

func (s *Session) dispatch(ctx context.Context, event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	effect := s.apply(event)

	switch effect.Kind {
	case EffectVerify:
		s.inflight++
		go s.verify(ctx, effect)
	case EffectAsk:
		s.inflight++
		go s.ask(ctx, effect)
	}

	return effect.Applied()
}

// settle applies a result event and marks its call as finished
func (s *Session) settle(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(event)

	s.inflight--
	s.settled.Broadcast()
}

// apply runs one transition. Callers hold s.mu.
func (s *Session) apply(event Event) Effect {
	next, effect := Reduce(s.state, event)

	switch effect.Kind {
	case EffectIgnored:
		s.logger.Debug("event ignored", "event", event.Kind.String(), "phase", s.state.Phase.String())
		return effect
	case EffectDiscarded:
		s.logger.Info("stale result discarded", "event", event.Kind.String(), "query_id", event.QueryID, "epoch", event.Epoch)
		if event.Kind == EventAnswered || event.Kind == EventDialogueFailed {
			s.metrics.Discarded()
		}
		return effect
	}

	s.state = next
	s.logger.Debug("transition", "event", event.Kind.String(), "phase", next.Phase.String(), "epoch", next.Epoch)

	for _, sub := range s.observers {
		sub.fn(next.Clone())
	}

	return effect
}

func (s *Session) verify(ctx context.Context, effect Effect) {
	verdict, err := s.verifier.SubmitClaim(ctx, effect.Claim)
	if err == nil && verdict == nil {
		err = errors.New("verifier returned no verdict")
	}
	if err != nil {
		s.settle(Event{Kind: EventVerificationFailed, Err: err, Epoch: effect.Epoch})
		return
	}
	s.settle(Event{Kind: EventVerified, Verdict: verdict, Epoch: effect.Epoch})
}

func (s *Session) ask(ctx context.Context, effect Effect) {
	answer, err := s.responder.AskQuestion(ctx, effect.Grounding, effect.Question)
	if err == nil && answer == nil {
		err = errors.New("responder returned no answer")
	}
	if err != nil {
		s.settle(Event{Kind: EventDialogueFailed, Err: err, QueryID: effect.Grounding.QueryID, Epoch: effect.Epoch})
		return
	}
	s.settle(Event{Kind: EventAnswered, Answer: answer, QueryID: effect.Grounding.QueryID, Epoch: effect.Epoch})
}
