package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/verdict/internal/backend"
	"github.com/ppiankov/verdict/internal/explain"
	"github.com/ppiankov/verdict/internal/logging"
	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/report"
	"github.com/ppiankov/verdict/internal/session"
	"github.com/ppiankov/verdict/internal/worker"
)

// stack holds the clients every command shares
type stack struct {
	cfg       *model.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	verifier  *backend.VerificationClient
	responder session.Responder
	index     *explain.Index
}

// newStack wires the backend clients, or the local explainer when explain.provider is set
func newStack(cfg *model.Config, reg prometheus.Registerer) (*stack, error) {
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	m := metrics.New(reg)
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	opts := []backend.Option{
		backend.WithLimiter(limiter),
		backend.WithMetrics(m),
		backend.WithLogger(logger),
	}

	st := &stack{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		verifier: backend.NewVerificationClient(cfg.Backend, opts...),
	}

	explainCfg := explain.ConfigFromModel(cfg.Explain, cfg.Backend)
	provider, err := explain.NewProvider(explainCfg)
	if err != nil {
		return nil, fmt.Errorf("create explain provider: %w", err)
	}

	if provider == nil {
		st.responder = backend.NewDialogueClient(cfg.Backend, opts...)
		return st, nil
	}

	st.index = explain.NewIndex(cfg.Explain.IndexTTL, cfg.Explain.MaxQueries)
	st.responder = explain.NewExplainer(provider, st.index, explainCfg,
		explain.WithLogger(logger), explain.WithMetrics(m))
	logger.Info("answering questions locally", "provider", provider.Name(), "model", cfg.Explain.Model)

	return st, nil
}

// sessionOptions returns the options every session of this process uses
func (s *stack) sessionOptions() []session.Option {
	opts := []session.Option{
		session.WithLogger(s.logger),
		session.WithMetrics(s.metrics),
	}
	if s.index != nil {
		opts = append(opts, session.WithObserver(s.index.Observer()))
	}
	return opts
}

// newSession creates an idle session wired to the stack
func (s *stack) newSession() *session.Session {
	return session.New(s.verifier, s.responder, s.sessionOptions()...)
}

// renderer creates a report renderer from the output and authority settings
func (s *stack) renderer() *report.Renderer {
	return report.NewRenderer(s.cfg.Output.IncludeFooter, report.NewAuthorityClassifier(&s.cfg.Authority))
}

// progress prints phase changes to stderr when verbose
func progress(enabled bool) session.Observer {
	last := session.PhaseIdle
	pending := false
	return func(state session.State) {
		if !enabled {
			return
		}
		if state.Phase != last {
			last = state.Phase
			switch state.Phase {
			case session.PhaseVerifying:
				fmt.Fprintf(os.Stderr, "⚙️  Verifying claim...\n")
			case session.PhaseReady:
				fmt.Fprintf(os.Stderr, "✓ Verdict received (%d evidence items)\n", len(state.Verdict.Evidence))
			case session.PhaseFailed:
				fmt.Fprintf(os.Stderr, "✗ Verification failed\n")
			}
		}
		if state.Pending != nil && !pending {
			fmt.Fprintf(os.Stderr, "⚙️  Asking: %s\n", state.Pending.Text)
		}
		pending = state.Pending != nil
	}
}
