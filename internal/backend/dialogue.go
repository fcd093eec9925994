package backend

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/model"
)

// DialogueClient asks grounded follow-up questions at the chat endpoint
type DialogueClient struct {
	ex *exchange
}

// NewDialogueClient creates a client for cfg.BaseURL + cfg.ChatPath
func NewDialogueClient(cfg model.BackendConfig, opts ...Option) *DialogueClient {
	return &DialogueClient{
		ex: newExchange(metrics.OpDialogue, cfg, cfg.ChatPath, cfg.ChatTimeout, opts),
	}
}

// AskQuestion sends question bound to grounding. The caller guarantees grounding
// refers to the verdict it currently holds. Failures are *DialogueFailure.
func (c *DialogueClient) AskQuestion(ctx context.Context, grounding model.Grounding, question string) (*model.Answer, error) {
	text := strings.TrimSpace(question)
	if text == "" {
		return nil, ErrBlankInput
	}

	start := time.Now()

	body, status, failure := c.ex.post(ctx, chatRequest{
		QueryID:    grounding.QueryID,
		Question:   text,
		Label:      grounding.Label.String(),
		Confidence: grounding.Confidence,
	})
	if failure != nil {
		c.ex.finish(start, failure)
		return nil, failure.dialogue()
	}

	answer, err := decodeAnswer(body)
	if err != nil {
		failure = &exchangeError{cause: CauseMalformed, status: status, err: err}
		c.ex.finish(start, failure)
		return nil, failure.dialogue()
	}

	c.ex.finish(start, nil)
	c.ex.logger.Debug("question answered", "query_id", grounding.QueryID, "answer_len", len(answer.Text))

	return answer, nil
}
