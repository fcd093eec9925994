package backend

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/model"
)

// VerificationClient submits claims to the verify endpoint
type VerificationClient struct {
	ex *exchange
}

// NewVerificationClient creates a client for cfg.BaseURL + cfg.VerifyPath
func NewVerificationClient(cfg model.BackendConfig, opts ...Option) *VerificationClient {
	return &VerificationClient{
		ex: newExchange(metrics.OpVerify, cfg, cfg.VerifyPath, cfg.VerifyTimeout, opts),
	}
}

// SubmitClaim verifies claim and returns a validated Verdict.
// Any failure is a *VerificationFailure; no partial verdict is returned.
func (c *VerificationClient) SubmitClaim(ctx context.Context, claim string) (*model.Verdict, error) {
	text := strings.TrimSpace(claim)
	if text == "" {
		return nil, ErrBlankInput
	}

	start := time.Now()

	body, status, failure := c.ex.post(ctx, verifyRequest{Claim: text})
	if failure != nil {
		c.ex.finish(start, failure)
		return nil, failure.verification()
	}

	verdict, err := decodeVerdict(body, text)
	if err != nil {
		failure = &exchangeError{cause: CauseMalformed, status: status, err: err}
		c.ex.finish(start, failure)
		return nil, failure.verification()
	}

	c.ex.finish(start, nil)
	c.ex.logger.Info("claim verified",
		"query_id", verdict.QueryID, "label", verdict.Label.String(), "confidence", verdict.Confidence, "evidence", len(verdict.Evidence))

	return verdict, nil
}
