package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/backend"
	"github.com/ppiankov/verdict/internal/logging"
	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/model"
)

// temperature matches the low-variance setting used for explanations
const temperature = 0.2

// ErrCitationLeak is returned when an answer cites a URL outside the verdict's evidence
var ErrCitationLeak = errors.New("citation leak")

// Explainer answers grounded questions with a local LLM provider.
// It satisfies the same contract as backend.DialogueClient.
type Explainer struct {
	provider Provider
	index    *Index
	config   Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Explainer
type Option func(*Explainer)

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Explainer) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records dialogue outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Explainer) { e.metrics = m }
}

// NewExplainer creates an explainer over provider and index
func NewExplainer(provider Provider, index *Index, config Config, opts ...Option) *Explainer {
	e := &Explainer{
		provider: provider,
		index:    index,
		config:   config,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the evidence index the explainer reads from
func (e *Explainer) Index() *Index {
	return e.index
}

// AskQuestion answers question from the evidence indexed for grounding.QueryID.
// Provider errors and citation leaks are *backend.DialogueFailure.
func (e *Explainer) AskQuestion(ctx context.Context, grounding model.Grounding, question string) (*model.Answer, error) {
	text := strings.TrimSpace(question)
	if text == "" {
		return nil, backend.ErrBlankInput
	}

	verdict, ok := e.index.Get(grounding.QueryID)
	if !ok {
		e.logger.Info("explain index miss", "query_id", grounding.QueryID)
		return &model.Answer{Text: AnswerIndexMissing}, nil
	}

	passages := SelectPassages(verdict.Evidence, text, passagesPerQuestion)
	if len(passages) == 0 {
		return &model.Answer{Text: AnswerNoEvidence}, nil
	}

	start := time.Now()
	resp, err := e.provider.Complete(ctx, CompletionRequest{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(grounding, passages, text),
		MaxTokens:   e.config.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, e.fail(start, backend.CauseTransport, fmt.Errorf("%s: %w", e.provider.Name(), err))
	}

	if resp.Text == "" {
		return nil, e.fail(start, backend.CauseMalformed, errors.New("empty answer"))
	}

	if e.config.StrictEvidence {
		if cited, ok := CheckCitations(resp.Text, verdict.EvidenceURLs()); !ok {
			return nil, e.fail(start, backend.CauseMalformed, fmt.Errorf("%w: answer cited %s", ErrCitationLeak, cited))
		}
	}

	e.metrics.Observe(metrics.OpDialogue, metrics.OutcomeSuccess, time.Since(start))
	e.logger.Debug("question explained",
		"query_id", grounding.QueryID, "provider", e.provider.Name(), "model", resp.Model, "tokens", resp.TokensUsed)

	return &model.Answer{Text: resp.Text}, nil
}

func (e *Explainer) fail(start time.Time, cause backend.Cause, err error) error {
	outcome := metrics.OutcomeTransport
	if cause == backend.CauseMalformed {
		outcome = metrics.OutcomeMalformed
	}
	e.metrics.Observe(metrics.OpDialogue, outcome, time.Since(start))
	e.logger.Warn("explain failed", "provider", e.provider.Name(), "error", err)
	return &backend.DialogueFailure{Cause: cause, Err: err}
}
