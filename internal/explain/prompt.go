package explain

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/verdict/internal/model"
)

// SystemPrompt holds the rules every explanation follows
const SystemPrompt = `You are an evidence grounded explainability assistant.

A fact verification system has already produced a final decision.

Rules:
- Do not change or override the decision.
- Do not introduce external knowledge.
- Do not hallucinate information.
- Use only the retrieved evidence.
- Only cite URLs that appear in the evidence.
- If evidence is insufficient, clearly say so.

Your role is explanation only.`

// Canned answers that need no model call
const (
	AnswerIndexMissing = "Explainability index not available for this query."
	AnswerNoEvidence   = "The available evidence does not answer this question."
)

// passagesPerQuestion is how many evidence items back one answer
const passagesPerQuestion = 3

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]>"']+`)

// SelectPassages returns up to k evidence items ranked by word overlap with
// question. Ties keep the backend's rank order.
func SelectPassages(evidence []model.EvidenceItem, question string, k int) []model.EvidenceItem {
	if k <= 0 || len(evidence) == 0 {
		return nil
	}

	terms := tokenize(question)

	type scored struct {
		item  model.EvidenceItem
		score int
		rank  int
	}
	items := make([]scored, len(evidence))
	for i, ev := range evidence {
		words := tokenize(ev.Title + " " + ev.SentenceText)
		score := 0
		for term := range terms {
			if _, ok := words[term]; ok {
				score++
			}
		}
		items[i] = scored{item: ev, score: score, rank: i}
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].score > items[b].score
	})

	if k > len(items) {
		k = len(items)
	}
	out := make([]model.EvidenceItem, k)
	for i := 0; i < k; i++ {
		out[i] = items[i].item
	}
	return out
}

// BuildPrompt renders the decision, the evidence passages and the question
func BuildPrompt(grounding model.Grounding, passages []model.EvidenceItem, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Final decision: %s\n", grounding.Label)
	fmt.Fprintf(&b, "Confidence: %.4f\n\n", grounding.Confidence)
	b.WriteString("Evidence:\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.SentenceText)
		fmt.Fprintf(&b, "(Source: %s, Title: %s, URL: %s)\n\n", p.Source, p.Title, p.URL)
	}
	b.WriteString("User question:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer using only the evidence above.")

	return b.String()
}

// ExtractURLs returns the distinct http(s) URLs in text, in order of appearance
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, u := range matches {
		u = strings.TrimRight(u, ".,;:!?")
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	return unique
}

// CheckCitations returns the first cited URL that is not in allowed
func CheckCitations(text string, allowed []string) (string, bool) {
	for _, cited := range ExtractURLs(text) {
		if !slices.Contains(allowed, cited) {
			return cited, false
		}
	}
	return "", true
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {}, "this": {}, "that": {},
	"with": {}, "from": {}, "what": {}, "why": {}, "how": {}, "does": {}, "did": {}, "is": {},
	"it": {}, "of": {}, "to": {}, "in": {}, "on": {}, "a": {}, "an": {}, "be": {}, "its": {},
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}
