package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ppiankov/verdict/internal/model"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	policy   = bluemonday.StrictPolicy()
)

type verifyRequest struct {
	Claim string `json:"claim"`
}

// verifyResponse mirrors the backend verify payload.
// Confidence is a pointer so a missing value is distinguishable from 0.
type verifyResponse struct {
	QueryID    string        `json:"query_id" validate:"required"`
	Claim      string        `json:"claim"`
	Label      string        `json:"label" validate:"required"`
	Confidence *float64      `json:"confidence" validate:"required"`
	Evidence   []evidenceDTO `json:"evidence" validate:"dive"`
	Error      string        `json:"error"`
}

type evidenceDTO struct {
	SentenceID   string `json:"sentence_id"`
	SentenceText string `json:"sentence_text"`
	DocumentID   string `json:"document_id"`
	Source       string `json:"source"`
	Title        string `json:"title"`
	URL          string `json:"url" validate:"required"`
}

type chatRequest struct {
	QueryID    string  `json:"query_id"`
	Question   string  `json:"question"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type chatResponse struct {
	Answer *string `json:"answer" validate:"required"`
	Error  string  `json:"error"`
}

// decodeVerdict turns a verify response body into a validated Verdict.
// claim is used when the backend does not echo it.
func decodeVerdict(body []byte, claim string) (*model.Verdict, error) {
	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	// The backend reports NLI failures in a 2xx body
	if resp.Error != "" {
		return nil, fmt.Errorf("backend error: %s", resp.Error)
	}

	if err := validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("validate verify response: %w", err)
	}

	label, err := model.ParseLabel(resp.Label)
	if err != nil {
		return nil, err
	}

	verdict := &model.Verdict{
		QueryID:    resp.QueryID,
		Claim:      claim,
		Label:      label,
		Confidence: *resp.Confidence,
		Evidence:   make([]model.EvidenceItem, 0, len(resp.Evidence)),
	}
	if echoed := strings.TrimSpace(resp.Claim); echoed != "" {
		verdict.Claim = echoed
	}

	for _, ev := range resp.Evidence {
		verdict.Evidence = append(verdict.Evidence, model.EvidenceItem{
			Title:        plainText(ev.Title),
			Source:       plainText(ev.Source),
			SentenceText: plainText(ev.SentenceText),
			URL:          strings.TrimSpace(ev.URL),
			SentenceID:   ev.SentenceID,
			DocumentID:   ev.DocumentID,
		})
	}

	if err := verdict.Validate(); err != nil {
		return nil, err
	}

	return verdict, nil
}

// decodeAnswer turns a chat response body into an Answer
func decodeAnswer(body []byte) (*model.Answer, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("backend error: %s", resp.Error)
	}

	if err := validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("validate chat response: %w", err)
	}

	text := plainText(*resp.Answer)
	if text == "" {
		return nil, errors.New("empty answer")
	}

	return &model.Answer{Text: text}, nil
}

// htmlTag matches an opening, closing or self-closing element tag.
// Comparisons such as "<5mm" or "a < b" do not match.
var htmlTag = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9-]*(\s[^<>]*)?/?>`)

// plainText strips markup from backend strings and collapses surrounding whitespace.
// Text without element tags is only unescaped, so angle brackets in prose survive.
func plainText(s string) string {
	if s == "" {
		return ""
	}
	if htmlTag.MatchString(s) {
		s = policy.Sanitize(s)
	}
	return strings.TrimSpace(html.UnescapeString(s))
}
