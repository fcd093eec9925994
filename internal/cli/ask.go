package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ppiankov/verdict/internal/model"
)

var (
	askQueryID    string
	askLabel      string
	askConfidence float64
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question about an existing verdict",
	Long: `Ask sends a single follow-up question grounded on a verdict produced
earlier, identified by its query id, label and confidence.

Example:
  verdict ask --query-id q_20250101_120000_ab12cd --label REFUTES --confidence 0.93 "Why?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askQueryID, "query-id", "", "query id of the verdict")
	askCmd.Flags().StringVar(&askLabel, "label", "", "verdict label (SUPPORTS, REFUTES, NOT_ENOUGH_INFO)")
	askCmd.Flags().Float64Var(&askConfidence, "confidence", 0, "verdict confidence in [0, 1]")
	_ = askCmd.MarkFlagRequired("query-id")
	_ = askCmd.MarkFlagRequired("label")
}

func runAsk(cmd *cobra.Command, args []string) error {
	grounding, err := parseGrounding(askQueryID, askLabel, askConfidence)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := newStack(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	timeout := cfg.Backend.ChatTimeout * 3 / 2
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	answer, err := st.responder.AskQuestion(ctx, grounding, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	fmt.Println(answer.Text)
	return nil
}

func parseGrounding(queryID, label string, confidence float64) (model.Grounding, error) {
	if model.IsBlank(queryID) {
		return model.Grounding{}, fmt.Errorf("query id is required")
	}
	l, err := model.ParseLabel(strings.ToUpper(strings.TrimSpace(label)))
	if err != nil {
		return model.Grounding{}, err
	}
	if err := model.CheckConfidence(confidence); err != nil {
		return model.Grounding{}, err
	}
	return model.Grounding{QueryID: strings.TrimSpace(queryID), Label: l, Confidence: confidence}, nil
}
