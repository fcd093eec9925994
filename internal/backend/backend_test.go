package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/model"
)

const refutesBody = `{
  "query_id": "q_20250101_120000_abc123",
  "claim": "The sky is green.",
  "label": "REFUTES",
  "confidence": 0.93,
  "evidence": [
    {"sentence_id": "s1", "document_id": "d1", "title": "Sky", "source": "wikipedia",
     "sentence_text": "The sky appears <b>blue</b> &amp; bright.", "url": "https://en.wikipedia.org/wiki/Sky"},
    {"title": "Rayleigh scattering", "source": "scholar",
     "sentence_text": "Short wavelengths scatter more.", "url": "https://www.britannica.com/science/Rayleigh-scattering"},
    {"title": "Colour", "source": "gnews",
     "sentence_text": "Observers report a blue sky.", "url": "https://www.bbc.co.uk/news/science"}
  ]
}`

func testConfig(baseURL string) model.BackendConfig {
	cfg := model.DefaultConfig().Backend
	cfg.BaseURL = baseURL
	cfg.VerifyTimeout = 5 * time.Second
	cfg.ChatTimeout = 5 * time.Second
	cfg.UserAgent = "verdict-test"
	return cfg
}

func TestSubmitClaim_Success(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/api/verify" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		if got := r.Header.Get("User-Agent"); got != "verdict-test" {
			t.Errorf("unexpected User-Agent %q", got)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["claim"] != "The sky is green." {
			t.Errorf("claim not trimmed: %q", req["claim"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, refutesBody)
	}))
	defer server.Close()

	client := NewVerificationClient(testConfig(server.URL))
	verdict, err := client.SubmitClaim(context.Background(), "  The sky is green.  ")
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 request, got %d", calls.Load())
	}
	if verdict.QueryID != "q_20250101_120000_abc123" {
		t.Errorf("unexpected query id %q", verdict.QueryID)
	}
	if verdict.Label != model.LabelRefutes {
		t.Errorf("expected REFUTES, got %s", verdict.Label)
	}
	if verdict.Confidence != 0.93 {
		t.Errorf("expected confidence 0.93, got %v", verdict.Confidence)
	}

	wantOrder := []string{"Sky", "Rayleigh scattering", "Colour"}
	if len(verdict.Evidence) != len(wantOrder) {
		t.Fatalf("expected %d evidence items, got %d", len(wantOrder), len(verdict.Evidence))
	}
	for i, title := range wantOrder {
		if verdict.Evidence[i].Title != title {
			t.Errorf("evidence %d: expected %q, got %q", i, title, verdict.Evidence[i].Title)
		}
	}
	if got := verdict.Evidence[0].SentenceText; got != "The sky appears blue & bright." {
		t.Errorf("markup not normalized: %q", got)
	}
	if verdict.Evidence[0].SentenceID != "s1" || verdict.Evidence[0].DocumentID != "d1" {
		t.Errorf("backend references not carried: %+v", verdict.Evidence[0])
	}
}

func TestSubmitClaim_BlankMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewVerificationClient(testConfig(server.URL))
	for _, claim := range []string{"", "   ", "\n\t"} {
		if _, err := client.SubmitClaim(context.Background(), claim); !errors.Is(err, ErrBlankInput) {
			t.Errorf("claim %q: expected ErrBlankInput, got %v", claim, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("expected no requests, got %d", calls.Load())
	}
}

func TestSubmitClaim_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCause  Cause
		wantStatus int
		wantErr    error
	}{
		{name: "server error", status: 500, body: `{"detail":"boom"}`, wantCause: CauseStatus, wantStatus: 500},
		{name: "not found", status: 404, body: ``, wantCause: CauseStatus, wantStatus: 404},
		{name: "not json", status: 200, body: `<html>oops</html>`, wantCause: CauseMalformed, wantStatus: 200},
		{name: "backend error field", status: 200, body: `{"query_id":"q1","claim":"x","error":"NLI failed"}`, wantCause: CauseMalformed, wantStatus: 200},
		{name: "missing query id", status: 200, body: `{"label":"SUPPORTS","confidence":0.5,"evidence":[]}`, wantCause: CauseMalformed, wantStatus: 200},
		{name: "missing confidence", status: 200, body: `{"query_id":"q1","label":"SUPPORTS","evidence":[]}`, wantCause: CauseMalformed, wantStatus: 200},
		{name: "unknown label", status: 200, body: `{"query_id":"q1","label":"MAYBE","confidence":0.5,"evidence":[]}`, wantCause: CauseMalformed, wantStatus: 200, wantErr: model.ErrUnknownLabel},
		{name: "lowercase label", status: 200, body: `{"query_id":"q1","label":"supports","confidence":0.5,"evidence":[]}`, wantCause: CauseMalformed, wantStatus: 200, wantErr: model.ErrUnknownLabel},
		{name: "confidence above one", status: 200, body: `{"query_id":"q1","label":"SUPPORTS","confidence":1.5,"evidence":[]}`, wantCause: CauseMalformed, wantStatus: 200, wantErr: model.ErrConfidenceRange},
		{name: "negative confidence", status: 200, body: `{"query_id":"q1","label":"REFUTES","confidence":-0.1,"evidence":[]}`, wantCause: CauseMalformed, wantStatus: 200, wantErr: model.ErrConfidenceRange},
		{name: "relative evidence url", status: 200, body: `{"query_id":"q1","label":"REFUTES","confidence":0.5,"evidence":[{"title":"t","url":"/wiki/Sky"}]}`, wantCause: CauseMalformed, wantStatus: 200, wantErr: model.ErrBadURL},
		{name: "missing evidence url", status: 200, body: `{"query_id":"q1","label":"REFUTES","confidence":0.5,"evidence":[{"title":"t"}]}`, wantCause: CauseMalformed, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			verdict, err := NewVerificationClient(testConfig(server.URL)).SubmitClaim(context.Background(), "claim")
			if verdict != nil {
				t.Fatalf("expected no verdict, got %+v", verdict)
			}

			var failure *VerificationFailure
			if !errors.As(err, &failure) {
				t.Fatalf("expected *VerificationFailure, got %T (%v)", err, err)
			}
			if failure.Cause != tt.wantCause {
				t.Errorf("expected cause %s, got %s (%v)", tt.wantCause, failure.Cause, failure.Err)
			}
			if failure.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, failure.StatusCode)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSubmitClaim_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := NewVerificationClient(testConfig(addr)).SubmitClaim(context.Background(), "The sky is green.")

	var failure *VerificationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *VerificationFailure, got %v", err)
	}
	if failure.Cause != CauseTransport || failure.StatusCode != 0 {
		t.Errorf("expected transport failure without status, got %s/%d", failure.Cause, failure.StatusCode)
	}
}

func TestSubmitClaim_OversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, refutesBody)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxBodyBytes = 64

	_, err := NewVerificationClient(cfg).SubmitClaim(context.Background(), "claim")
	var failure *VerificationFailure
	if !errors.As(err, &failure) || failure.Cause != CauseMalformed {
		t.Fatalf("expected malformed failure, got %v", err)
	}
}

func TestSubmitClaim_Metrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, refutesBody)
	}))
	defer server.Close()

	m := metrics.New(prometheus.NewRegistry())
	client := NewVerificationClient(testConfig(server.URL), WithMetrics(m))

	if _, err := client.SubmitClaim(context.Background(), "claim"); err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.OpVerify, metrics.OutcomeSuccess)); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
}

func TestAskQuestion_Success(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.QueryID != "q1" || req.Label != "REFUTES" || req.Confidence != 0.93 || req.Question != "Why?" {
			t.Errorf("grounding not carried: %+v", req)
		}
		_, _ = fmt.Fprint(w, `{"answer":"Because evidence sources ..."}`)
	}))
	defer server.Close()

	client := NewDialogueClient(testConfig(server.URL))
	grounding := model.Grounding{QueryID: "q1", Label: model.LabelRefutes, Confidence: 0.93}

	answer, err := client.AskQuestion(context.Background(), grounding, " Why? ")
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}
	if answer.Text != "Because evidence sources ..." {
		t.Errorf("unexpected answer %q", answer.Text)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 request, got %d", calls.Load())
	}
}

func TestAskQuestion_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCause Cause
	}{
		{name: "server error", status: 503, body: ``, wantCause: CauseStatus},
		{name: "empty answer", status: 200, body: `{"answer":"   "}`, wantCause: CauseMalformed},
		{name: "missing answer", status: 200, body: `{}`, wantCause: CauseMalformed},
		{name: "garbage", status: 200, body: `not json`, wantCause: CauseMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewDialogueClient(testConfig(server.URL)).AskQuestion(context.Background(), model.Grounding{QueryID: "q1", Label: model.LabelSupports}, "Why?")

			var failure *DialogueFailure
			if !errors.As(err, &failure) {
				t.Fatalf("expected *DialogueFailure, got %T (%v)", err, err)
			}
			if failure.Cause != tt.wantCause {
				t.Errorf("expected cause %s, got %s", tt.wantCause, failure.Cause)
			}
		})
	}
}

func TestAskQuestion_BlankMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	_, err := NewDialogueClient(testConfig(server.URL)).AskQuestion(context.Background(), model.Grounding{QueryID: "q1"}, "  ")
	if !errors.Is(err, ErrBlankInput) {
		t.Errorf("expected ErrBlankInput, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no requests, got %d", calls.Load())
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://127.0.0.1:8000", "/api/verify", "http://127.0.0.1:8000/api/verify"},
		{"http://127.0.0.1:8000/", "api/chat", "http://127.0.0.1:8000/api/chat"},
		{"http://host/prefix", "/api/verify", "http://host/prefix/api/verify"},
		{"http://host", "https://other/api/verify", "https://other/api/verify"},
		{"", "/api/verify", "http://127.0.0.1:8000/api/verify"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  The sky appears <b>blue</b> &amp; bright. ", "The sky appears blue & bright."},
		{"values <5mm and >2mm", "values <5mm and >2mm"},
		{"if a < b and b > c then a < c", "if a < b and b > c then a < c"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"<script>alert(1)</script>Safe", "Safe"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := plainText(tt.in); got != tt.want {
			t.Errorf("plainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
