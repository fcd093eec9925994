package worker

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/session"
)

// MockVerifier implements session.Verifier
type MockVerifier struct {
	ShouldError bool
}

func (m *MockVerifier) SubmitClaim(ctx context.Context, claim string) (*model.Verdict, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("verify error")
	}
	return &model.Verdict{
		QueryID:    "q_" + strings.ReplaceAll(claim, " ", "_"),
		Claim:      claim,
		Label:      model.LabelSupports,
		Confidence: 0.8,
	}, nil
}

// MockResponder implements session.Responder
type MockResponder struct{}

func (m *MockResponder) AskQuestion(ctx context.Context, g model.Grounding, question string) (*model.Answer, error) {
	return &model.Answer{Text: g.QueryID + ": " + question}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "claims")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	processor := NewBatchProcessor(&MockVerifier{}, &MockResponder{}, 2, []string{"Why?"})

	claims := []string{"The sky is green", "Water is wet", "Cats are mammals"}
	results := processor.ProcessClaims(context.Background(), claims)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Claim, res.Error)
			continue
		}
		if res.Claim != claims[i] {
			t.Errorf("result %d: expected claim %q, got %q", i, claims[i], res.Claim)
		}
		if res.State.Phase != session.PhaseReady || res.State.Verdict == nil {
			t.Errorf("expected ready state with verdict, got %+v", res.State)
			continue
		}
		// Each claim has its own session, so answers are grounded on its own verdict
		if len(res.State.Transcript) != 2 || !strings.HasPrefix(res.State.Transcript[1].Text, res.State.Verdict.QueryID) {
			t.Errorf("unexpected transcript for %s: %+v", res.Claim, res.State.Transcript)
		}
	}
}

func TestBatchProcessor_ProcessClaims_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockVerifier{ShouldError: true}, &MockResponder{}, 2, nil)

	results := processor.ProcessClaims(context.Background(), []string{"The sky is green"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].State.Verdict != nil {
		t.Error("expected no verdict on error")
	}
	if results[0].State.Phase != session.PhaseFailed {
		t.Errorf("expected failed phase, got %s", results[0].State.Phase)
	}
}

func TestBatchProcessor_ProcessClaims_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockVerifier{}, &MockResponder{}, 2, nil)

	results := processor.ProcessClaims(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessClaims_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockVerifier{}, &MockResponder{}, 1, nil)
	results := processor.ProcessClaims(ctx, []string{"a", "b", "c"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res == nil || res.Claim == "" {
			t.Errorf("result %d missing claim: %+v", i, res)
		}
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	content := `The sky is green.
# comment
Water is wet.

The sky is green.
  Cats are mammals.   `

	claims, err := ReadClaimsFromFile(writeTemp(t, content))
	if err != nil {
		t.Fatalf("ReadClaimsFromFile failed: %v", err)
	}

	expected := []string{"The sky is green.", "Water is wet.", "Cats are mammals."}
	if len(claims) != len(expected) {
		t.Fatalf("expected %d claims, got %d: %v", len(expected), len(claims), claims)
	}

	for i, claim := range claims {
		if claim != expected[i] {
			t.Errorf("expected claim %q at index %d, got %q", expected[i], i, claim)
		}
	}
}

func TestReadClaimsFromFile_NonExistent(t *testing.T) {
	_, err := ReadClaimsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestClaimResult_GetError(t *testing.T) {
	r1 := &ClaimResult{Claim: "claim", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("verify failed")
	r2 := &ClaimResult{Claim: "claim", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "claim one\nclaim two\n# comment\n\nclaim three\n")

	processor := NewBatchProcessor(&MockVerifier{}, &MockResponder{}, 2, nil)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockVerifier{}, &MockResponder{}, 2, nil)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
