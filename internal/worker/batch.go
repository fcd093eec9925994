package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/verdict/internal/session"
)

// ClaimJob verifies one claim in its own session and asks the follow-up questions
type ClaimJob struct {
	Claim     string
	Questions []string
	Verifier  session.Verifier
	Responder session.Responder
	Options   []session.Option
}

// Execute runs the claim job
func (j *ClaimJob) Execute(ctx context.Context) Result {
	s := session.New(j.Verifier, j.Responder, j.Options...)

	if !s.SubmitClaim(ctx, j.Claim) {
		return &ClaimResult{Claim: j.Claim, Error: errors.New("claim rejected")}
	}
	s.Wait()

	state := s.Snapshot()
	if state.Phase == session.PhaseFailed {
		return &ClaimResult{Claim: j.Claim, State: state, Error: state.Failure}
	}

	for _, question := range j.Questions {
		if !s.AskQuestion(ctx, question) {
			continue
		}
		s.Wait()
	}

	return &ClaimResult{Claim: j.Claim, State: s.Snapshot()}
}

// ClaimResult represents the result of a claim job
type ClaimResult struct {
	Claim string
	State session.State
	Error error
}

// GetError returns the error from the claim result
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple claims concurrently
type BatchProcessor struct {
	verifier    session.Verifier
	responder   session.Responder
	concurrency int
	questions   []string
	options     []session.Option
}

// NewBatchProcessor creates a new batch processor. questions are asked about every verdict.
func NewBatchProcessor(verifier session.Verifier, responder session.Responder, concurrency int, questions []string, opts ...session.Option) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		responder:   responder,
		concurrency: concurrency,
		questions:   questions,
		options:     opts,
	}
}

// ProcessClaims verifies claims concurrently. Results follow input order.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	jobs := make([]Job, len(claims))
	for i, claim := range claims {
		jobs[i] = &ClaimJob{
			Claim:     claim,
			Questions: b.questions,
			Verifier:  b.verifier,
			Responder: b.responder,
			Options:   b.options,
		}
	}

	results := NewPool(b.concurrency).Run(ctx, jobs)

	claimResults := make([]*ClaimResult, len(results))
	for i, result := range results {
		if cr, ok := result.(*ClaimResult); ok {
			claimResults[i] = cr
			continue
		}
		claimResults[i] = &ClaimResult{Claim: claims[i], Error: result.GetError()}
	}

	return claimResults
}

// ProcessFile reads claims from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads claims from a file (one per line).
// Blank lines and lines starting with # are skipped; duplicates are dropped.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
