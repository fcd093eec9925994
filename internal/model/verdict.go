package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	// ErrUnknownLabel is returned when a backend label is outside the closed set
	ErrUnknownLabel = errors.New("unknown verdict label")

	// ErrConfidenceRange is returned when confidence is outside [0, 1]
	ErrConfidenceRange = errors.New("confidence out of range [0, 1]")

	// ErrBadURL is returned when an evidence URL is not an absolute http(s) reference
	ErrBadURL = errors.New("malformed evidence url")
)

// Label is the verdict classification. The zero value is not a valid label.
type Label int

const (
	labelInvalid Label = iota
	LabelSupports
	LabelRefutes
	LabelNotEnoughInfo
)

// ParseLabel converts a wire label into a Label.
// Values outside SUPPORTS, REFUTES and NOT_ENOUGH_INFO are rejected.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "SUPPORTS":
		return LabelSupports, nil
	case "REFUTES":
		return LabelRefutes, nil
	case "NOT_ENOUGH_INFO":
		return LabelNotEnoughInfo, nil
	default:
		return labelInvalid, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
	}
}

// String returns the wire form of the label
func (l Label) String() string {
	switch l {
	case LabelSupports:
		return "SUPPORTS"
	case LabelRefutes:
		return "REFUTES"
	case LabelNotEnoughInfo:
		return "NOT_ENOUGH_INFO"
	default:
		return "INVALID"
	}
}

// Display returns the human-readable form of the label
func (l Label) Display() string {
	switch l {
	case LabelSupports:
		return "Supported"
	case LabelRefutes:
		return "Refuted"
	case LabelNotEnoughInfo:
		return "Not Enough Information"
	default:
		return "Unknown"
	}
}

// Valid reports whether l is one of the three known labels
func (l Label) Valid() bool {
	return l >= LabelSupports && l <= LabelNotEnoughInfo
}

// MarshalText implements encoding.TextMarshaler
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, ErrUnknownLabel
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Verdict is the canonical result of a verification request
type Verdict struct {
	QueryID    string         `json:"query_id"`        // Correlates later dialogue turns
	Claim      string         `json:"claim,omitempty"` // Claim text the verdict refers to
	Label      Label          `json:"label"`           // Closed enumeration
	Confidence float64        `json:"confidence"`      // 0.0 <= confidence <= 1.0
	Evidence   []EvidenceItem `json:"evidence"`        // Backend rank order, preserved
}

// Validate checks the verdict invariants
func (v Verdict) Validate() error {
	if strings.TrimSpace(v.QueryID) == "" {
		return errors.New("missing query id")
	}
	if !v.Label.Valid() {
		return ErrUnknownLabel
	}
	if err := CheckConfidence(v.Confidence); err != nil {
		return err
	}
	for i, ev := range v.Evidence {
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("evidence %d: %w", i, err)
		}
	}
	return nil
}

// Grounding returns the context a follow-up question about this verdict must carry
func (v Verdict) Grounding() Grounding {
	return Grounding{
		QueryID:    v.QueryID,
		Label:      v.Label,
		Confidence: v.Confidence,
	}
}

// EvidenceURLs returns the evidence URLs in rank order
func (v Verdict) EvidenceURLs() []string {
	urls := make([]string, 0, len(v.Evidence))
	for _, ev := range v.Evidence {
		urls = append(urls, ev.URL)
	}
	return urls
}

// CheckConfidence rejects values outside [0, 1]. NaN is rejected too.
func CheckConfidence(c float64) error {
	if !(c >= 0 && c <= 1) {
		return fmt.Errorf("%w: %v", ErrConfidenceRange, c)
	}
	return nil
}

// EvidenceItem is a single cited passage supporting a verdict
type EvidenceItem struct {
	Title        string `json:"title"`
	Source       string `json:"source"`                // e.g. "wikipedia", "scholar", "gnews"
	SentenceText string `json:"sentence_text"`
	URL          string `json:"url"`
	SentenceID   string `json:"sentence_id,omitempty"` // Backend sentence reference (optional)
	DocumentID   string `json:"document_id,omitempty"` // Backend document reference (optional)
}

// Validate checks that the URL is a well-formed absolute http(s) reference
func (e EvidenceItem) Validate() error {
	u, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrBadURL, e.URL)
	}
	return nil
}

// Domain returns the registrable domain of the evidence URL (e.g. "wikipedia.org").
// Falls back to the host when the public suffix list has no answer.
func (e EvidenceItem) Domain() string {
	u, err := url.Parse(e.URL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
