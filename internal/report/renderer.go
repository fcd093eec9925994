// Package report renders a verification session for people and machines.
//
// A Report is built from a session snapshot: the claim, the verdict with its
// evidence tiered by authority, and the follow-up transcript. It can be written
// as JSON, as Markdown, or as a short terminal summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/session"
)

// Report is the rendered form of a session
type Report struct {
	Claim       string               `json:"claim"`
	QueryID     string               `json:"query_id,omitempty"`
	Label       model.Label          `json:"label,omitempty"`
	Decision    string               `json:"decision,omitempty"`
	Confidence  float64              `json:"confidence"`
	Evidence    []Evidence           `json:"evidence"`
	Transcript  []model.DialogueTurn `json:"transcript,omitempty"`
	Error       string               `json:"error,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Evidence is one evidence item with its rank, domain and authority tier
type Evidence struct {
	Rank         int    `json:"rank"`
	Title        string `json:"title"`
	Source       string `json:"source"`
	SentenceText string `json:"sentence_text"`
	URL          string `json:"url"`
	Domain       string `json:"domain"`
	Tier         Tier   `json:"tier"`
}

// Renderer writes reports
type Renderer struct {
	includeFooter bool
	classifier    *AuthorityClassifier
}

// NewRenderer creates a renderer. A nil classifier uses the default authority lists.
func NewRenderer(includeFooter bool, classifier *AuthorityClassifier) *Renderer {
	if classifier == nil {
		classifier = NewAuthorityClassifier(nil)
	}
	return &Renderer{includeFooter: includeFooter, classifier: classifier}
}

// Build creates a report from a session snapshot
func (r *Renderer) Build(state session.State) *Report {
	rep := &Report{
		Claim:       state.ClaimText,
		Evidence:    []Evidence{},
		GeneratedAt: time.Now().UTC(),
	}

	if state.Phase == session.PhaseFailed && state.Failure != nil {
		rep.Error = state.Failure.Error()
	}

	v := state.Verdict
	if v == nil {
		return rep
	}

	if v.Claim != "" {
		rep.Claim = v.Claim
	}
	rep.QueryID = v.QueryID
	rep.Label = v.Label
	rep.Decision = v.Label.Display()
	rep.Confidence = v.Confidence
	for i, ev := range v.Evidence {
		rep.Evidence = append(rep.Evidence, Evidence{
			Rank:         i + 1,
			Title:        ev.Title,
			Source:       ev.Source,
			SentenceText: ev.SentenceText,
			URL:          ev.URL,
			Domain:       ev.Domain(),
			Tier:         r.classifier.Classify(ev.URL),
		})
	}
	rep.Transcript = append(rep.Transcript, state.Transcript...)

	return rep
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(rep *Report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(rep *Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(rep)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(rep *Report) string {
	var b strings.Builder

	b.WriteString("# Claim Verification\n\n")
	fmt.Fprintf(&b, "**Claim:** %s\n\n", rep.Claim)

	if rep.Error != "" {
		fmt.Fprintf(&b, "**Verification failed:** %s\n", rep.Error)
		r.footer(&b, rep)
		return b.String()
	}
	if rep.QueryID == "" {
		b.WriteString("_No verdict yet._\n")
		r.footer(&b, rep)
		return b.String()
	}

	b.WriteString("## Verdict\n\n")
	fmt.Fprintf(&b, "- **Decision:** %s\n", rep.Decision)
	fmt.Fprintf(&b, "- **Confidence:** %s (%.4f)\n", Percent(rep.Confidence), rep.Confidence)
	fmt.Fprintf(&b, "- **Query ID:** `%s`\n\n", rep.QueryID)

	b.WriteString("## Evidence\n\n")
	if len(rep.Evidence) == 0 {
		b.WriteString("No evidence returned.\n\n")
	}
	for _, ev := range rep.Evidence {
		fmt.Fprintf(&b, "%d. **%s** (%s, %s, %s)\n", ev.Rank, ev.Title, ev.Source, ev.Domain, ev.Tier)
		fmt.Fprintf(&b, "   > %s\n", ev.SentenceText)
		fmt.Fprintf(&b, "   <%s>\n\n", ev.URL)
	}

	if len(rep.Transcript) > 0 {
		b.WriteString("## Follow-up\n\n")
		for _, turn := range rep.Transcript {
			who := "Q"
			if turn.Role == model.RoleAssistant {
				who = "A"
			}
			fmt.Fprintf(&b, "**%s:** %s\n\n", who, turn.Text)
		}
	}

	r.footer(&b, rep)
	return b.String()
}

func (r *Renderer) footer(b *strings.Builder, rep *Report) {
	if !r.includeFooter {
		return
	}
	fmt.Fprintf(b, "\n---\n_Generated by verdict at %s. Answers are limited to the evidence above._\n",
		rep.GeneratedAt.Format(time.RFC3339))
}

// RenderSummary prints a short summary of the report to w
func (r *Renderer) RenderSummary(w io.Writer, rep *Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Claim:       %s\n", rep.Claim)
	if rep.Error != "" {
		fmt.Fprintf(w, "✗ %s\n", rep.Error)
		return
	}
	if rep.QueryID == "" {
		return
	}
	fmt.Fprintf(w, "Decision:    %s\n", rep.Decision)
	fmt.Fprintf(w, "Confidence:  %s\n", Percent(rep.Confidence))
	fmt.Fprintf(w, "Evidence:    %d items\n", len(rep.Evidence))
	for _, ev := range rep.Evidence {
		fmt.Fprintf(w, "  %d. [%s] %s - %s\n", ev.Rank, ev.Tier, ev.Title, ev.URL)
	}
	for _, turn := range rep.Transcript {
		prefix := "You"
		if turn.Role == model.RoleAssistant {
			prefix = "Bot"
		}
		fmt.Fprintf(w, "%s: %s\n", prefix, turn.Text)
	}
}

// Percent formats a confidence as a percentage with one decimal
func Percent(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}
