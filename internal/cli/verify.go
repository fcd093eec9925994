package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ppiankov/verdict/internal/report"
	"github.com/ppiankov/verdict/internal/session"
)

var (
	outJSON    string
	outMD      string
	asks       []string
	outFormat  string
	noFooter   bool
	runTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single claim and optionally ask follow-up questions",
	Long: `Verify submits one claim to the verification backend and prints the verdict:
- Decision (Supported, Refuted or Not Enough Information)
- Confidence score
- Evidence passages in backend rank order

Follow-up questions given with --ask are asked in order, each grounded in
the verdict. Reports can be written as JSON and Markdown.

Example:
  verdict verify "The Eiffel Tower is in Berlin."
  verdict verify "Water boils at 50C at sea level." --ask "What temperature is cited?"
  verdict verify "The sky is green." --json report.json --md report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringArrayVar(&asks, "ask", nil, "follow-up question (repeatable)")
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	verifyCmd.Flags().StringVar(&outFormat, "format", "", "stdout format: text or json (default from config)")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	verifyCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall timeout including follow-up questions")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if outFormat != "" {
		cfg.Output.Format = outFormat
	}

	st, err := newStack(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Backend: %s\n", cfg.Backend.BaseURL)
		fmt.Fprintln(os.Stderr)
	}

	s := session.New(st.verifier, st.responder, append(st.sessionOptions(), session.WithObserver(progress(cfg.Output.Verbose)))...)

	state, err := verifyAndAsk(ctx, s, args[0], asks)
	if err != nil {
		return err
	}

	renderer := st.renderer()
	rep := renderer.Build(state)

	if outJSON != "" {
		if err := renderer.RenderJSON(rep, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(rep, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	if err := printReport(renderer, rep, cfg.Output.Format); err != nil {
		return err
	}

	if state.Phase == session.PhaseFailed {
		return fmt.Errorf("verification failed: %w", state.Failure)
	}
	return nil
}

// verifyAndAsk drives s through one claim and its questions and returns the final state.
// Dialogue failures are reported on stderr; the remaining questions are still asked.
func verifyAndAsk(ctx context.Context, s *session.Session, claim string, questions []string) (session.State, error) {
	if !s.SubmitClaim(ctx, claim) {
		return session.State{}, fmt.Errorf("claim is blank")
	}
	s.Wait()

	state := s.Snapshot()
	if state.Phase != session.PhaseReady {
		return state, nil
	}

	for _, q := range questions {
		if !s.AskQuestion(ctx, q) {
			fmt.Fprintf(os.Stderr, "✗ Skipped blank question\n")
			continue
		}
		s.Wait()
		if st := s.Snapshot(); st.DialogueError != nil {
			fmt.Fprintf(os.Stderr, "✗ %q: %v\n", q, st.DialogueError)
		}
	}

	return s.Snapshot(), nil
}

func printReport(renderer *report.Renderer, rep *report.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	}
	renderer.RenderSummary(os.Stdout, rep)
	return nil
}
