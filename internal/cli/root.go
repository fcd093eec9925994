package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verdict/internal/model"
)

// version is set at build time with -ldflags "-X github.com/ppiankov/verdict/internal/cli.version=..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Verdict - claim verification with grounded follow-up questions",
	Long: `Verdict submits a factual claim to a verification backend and shows the
result: SUPPORTS, REFUTES or NOT_ENOUGH_INFO, a confidence score and the
evidence passages behind it.

You can then ask follow-up questions about that verdict. Answers are
grounded in the verdict's own evidence; they never re-decide the claim.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of verdict.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("verdict %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verdict/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("backend", "", "verification backend base URL")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("backend.base_url", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.verdict")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// VERDICT_BACKEND_BASE_URL overrides backend.base_url
	viper.SetEnvPrefix("VERDICT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so VERDICT_* env vars resolve without a config file
func setDefaults(cfg *model.Config) {
	defaults := map[string]any{
		"backend.base_url":                  cfg.Backend.BaseURL,
		"backend.verify_path":               cfg.Backend.VerifyPath,
		"backend.chat_path":                 cfg.Backend.ChatPath,
		"backend.verify_timeout":            cfg.Backend.VerifyTimeout,
		"backend.chat_timeout":              cfg.Backend.ChatTimeout,
		"backend.user_agent":                cfg.Backend.UserAgent,
		"backend.max_body_bytes":            cfg.Backend.MaxBodyBytes,
		"backend.http_proxy":                cfg.Backend.HTTPProxy,
		"backend.https_proxy":               cfg.Backend.HTTPSProxy,
		"backend.no_proxy":                  cfg.Backend.NoProxy,
		"rate_limiting.requests_per_second": cfg.RateLimiting.RequestsPerSecond,
		"rate_limiting.burst_size":          cfg.RateLimiting.BurstSize,
		"explain.provider":                  cfg.Explain.Provider,
		"explain.model":                     cfg.Explain.Model,
		"explain.api_key":                   cfg.Explain.APIKey,
		"explain.base_url":                  cfg.Explain.BaseURL,
		"explain.timeout":                   cfg.Explain.Timeout,
		"explain.max_tokens":                cfg.Explain.MaxTokens,
		"explain.strict_evidence":           cfg.Explain.StrictEvidence,
		"explain.index_ttl":                 cfg.Explain.IndexTTL,
		"explain.max_queries":               cfg.Explain.MaxQueries,
		"server.addr":                       cfg.Server.Addr,
		"server.allow_origins":              cfg.Server.AllowOrigins,
		"server.session_ttl":                cfg.Server.SessionTTL,
		"concurrency.workers":               cfg.Concurrency.Workers,
		"authority.primary_domains":         cfg.Authority.PrimaryDomains,
		"authority.secondary_domains":       cfg.Authority.SecondaryDomains,
		"output.verbose":                    cfg.Output.Verbose,
		"output.format":                     cfg.Output.Format,
		"output.include_footer":             cfg.Output.IncludeFooter,
		"log.level":                         cfg.Log.Level,
		"log.format":                        cfg.Log.Format,
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// loadConfig resolves the configuration from defaults, file, env and flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyProviderEnv(&cfg.Explain)

	return cfg, nil
}

// applyProviderEnv fills explain credentials from the provider's usual env vars
func applyProviderEnv(e *model.ExplainConfig) {
	switch strings.ToLower(e.Provider) {
	case "openai":
		if e.APIKey == "" {
			e.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "groq":
		if e.APIKey == "" {
			e.APIKey = os.Getenv("GROQ_API_KEY")
		}
	case "anthropic", "claude":
		if e.APIKey == "" {
			e.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if e.BaseURL == "" {
			e.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}
