package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verdict/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host verification sessions over HTTP",
	Long: `Serve runs an HTTP session host for browser or service clients.

Routes:
  POST   /v1/sessions                create a session
  GET    /v1/sessions/:id            current snapshot
  POST   /v1/sessions/:id/claim      submit a claim {"claim": "..."}
  POST   /v1/sessions/:id/question   ask a question {"question": "..."}
  GET    /v1/sessions/:id/events     snapshots as server-sent events
  DELETE /v1/sessions/:id            close a session
  GET    /healthz, /metrics

Example:
  verdict serve --addr 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, err := newStack(cfg, reg)
	if err != nil {
		return err
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(cfg.Server, st.newSession,
		server.WithLogger(st.logger),
		server.WithMetrics(st.metrics, reg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Serving sessions on http://%s (backend %s)\n", cfg.Server.Addr, cfg.Backend.BaseURL)
	return srv.Run(ctx)
}
