package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/report"
	"github.com/ppiankov/verdict/internal/session"
	"github.com/ppiankov/verdict/internal/worker"
)

var (
	concurrency    int
	outputDir      string
	batchTimeout   time.Duration
	batchQuestions []string
	// noFooter is defined in verify.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple claims from a file in parallel",
	Long: `Batch verifies multiple claims concurrently:
- Read claims from input file (one per line, # comments and blank lines skipped)
- Verify claims in parallel with configurable worker count
- Ask the same follow-up questions about every verdict
- Generate individual JSON and Markdown reports for each claim

Example:
  verdict batch claims.txt
  verdict batch claims.txt --concurrency 4 --output-dir ./reports
  verdict batch claims.txt --ask "Which source is most relevant?"`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./verdict-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringArrayVar(&batchQuestions, "ask", nil, "follow-up question asked about every verdict (repeatable)")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	claims, err := worker.ReadClaimsFromFile(file)
	if err != nil {
		return fmt.Errorf("read claims: %w", err)
	}
	sizeExplainIndex(cfg, len(claims))

	st, err := newStack(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Verdict Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s (%d claims)\n", file, len(claims))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Questions:    %d per claim\n", len(batchQuestions))
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Backend:      %s\n", cfg.Backend.BaseURL)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(st.verifier, st.responder, cfg.Concurrency.Workers, batchQuestions, st.sessionOptions()...)

	fmt.Fprintf(os.Stderr, "⚙️  Verifying claims with %d workers...\n\n", cfg.Concurrency.Workers)
	results := processor.ProcessClaims(ctx, claims)

	renderer := st.renderer()
	successCount := 0
	failureCount := 0
	used := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Claim, result.Error)
			if result.State.Phase != session.PhaseFailed {
				continue
			}
		} else {
			successCount++
		}

		slug := uniqueSlug(used, slugify(result.Claim))
		rep := renderer.Build(result.State)

		if err := renderer.RenderJSON(rep, filepath.Join(outputDir, slug+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Claim, err)
			continue
		}
		if err := renderer.RenderMarkdown(rep, filepath.Join(outputDir, slug+".md")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Claim, err)
			continue
		}

		if result.Error == nil {
			fmt.Fprintf(os.Stderr, "✓ %s (%s, %s)\n", result.Claim, rep.Decision, report.Percent(rep.Confidence))
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sizeExplainIndex lets the explain index hold every verdict of the batch.
// Evicting a verdict before its questions are asked would answer them from a miss.
func sizeExplainIndex(cfg *model.Config, claims int) {
	if cfg.Explain.MaxQueries > 0 && cfg.Explain.MaxQueries < claims {
		cfg.Explain.MaxQueries = claims
	}
}

// slugify turns a claim into a file name: lowercase words joined by dashes
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(truncate(slug, 80), "-")
	}
	if slug == "" {
		slug = "claim"
	}
	return slug
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// uniqueSlug appends a counter when two claims map to the same slug
func uniqueSlug(used map[string]int, slug string) string {
	used[slug]++
	if n := used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
