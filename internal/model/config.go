package model

import (
	"runtime"
	"time"
)

// Config holds the complete verdict configuration.
// Loaded from defaults, then ~/.verdict/config.yaml, then VERDICT_* env vars, then flags.
type Config struct {
	Backend      BackendConfig      `yaml:"backend" mapstructure:"backend"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Explain      ExplainConfig      `yaml:"explain" mapstructure:"explain"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Authority    AuthorityConfig    `yaml:"authority" mapstructure:"authority"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// BackendConfig configures the verification and dialogue backend
type BackendConfig struct {
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	VerifyPath    string        `yaml:"verify_path" mapstructure:"verify_path"`
	ChatPath      string        `yaml:"chat_path" mapstructure:"chat_path"`
	VerifyTimeout time.Duration `yaml:"verify_timeout" mapstructure:"verify_timeout"` // Retrieval + NLI is slow
	ChatTimeout   time.Duration `yaml:"chat_timeout" mapstructure:"chat_timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RateLimitingConfig throttles outbound backend requests per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ExplainConfig configures the optional local grounded explainer.
// An empty Provider means follow-up questions go to the backend chat endpoint.
type ExplainConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, ""
	Model          string        `yaml:"model" mapstructure:"model"`
	APIKey         string        `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int           `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictEvidence bool          `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	IndexTTL       time.Duration `yaml:"index_ttl" mapstructure:"index_ttl"`
	MaxQueries     int           `yaml:"max_queries" mapstructure:"max_queries"`
}

// ServerConfig configures the HTTP session host
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	AllowOrigins []string      `yaml:"allow_origins" mapstructure:"allow_origins"`
	SessionTTL   time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// AuthorityConfig lists domains used to tier evidence sources
type AuthorityConfig struct {
	PrimaryDomains   []string `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string `yaml:"secondary_domains" mapstructure:"secondary_domains"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	Format        string `yaml:"format" mapstructure:"format"` // text, json
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:       "http://127.0.0.1:8000",
			VerifyPath:    "/api/verify",
			ChatPath:      "/api/chat",
			VerifyTimeout: 5 * time.Minute,
			ChatTimeout:   60 * time.Second,
			UserAgent:     "verdict/0.1 (+https://github.com/ppiankov/verdict)",
			MaxBodyBytes:  4_000_000,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Explain: ExplainConfig{
			Provider:       "",
			Timeout:        30,
			MaxTokens:      1024,
			StrictEvidence: true,
			IndexTTL:       30 * time.Minute,
			MaxQueries:     3,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			SessionTTL:   30 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"nih.gov", "who.int", "europa.eu", "un.org", "nature.com", "science.org",
				"doi.org", "arxiv.org", "semanticscholar.org", "pubmed.ncbi.nlm.nih.gov",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "reuters.com", "apnews.com", "bbc.co.uk",
				"bbc.com", "nytimes.com", "theguardian.com",
			},
		},
		Output: OutputConfig{
			Verbose:       false,
			Format:        "text",
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
