package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/seanblong/websearch/internal/provider"
	"github.com/seanblong/websearch/pkg/models"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Specification struct {
	Provider      string              `yaml:"provider"`
	APIKey        string              `yaml:"apiKey" envconfig:"PERPLEXITY_API_KEY"`
	BaseURL       string              `yaml:"baseURL" envconfig:"PERPLEXITY_BASE_URL"`
	Timeout       time.Duration       `yaml:"timeout"`
	SkipTLSVerify bool                `yaml:"skipTLSVerify" split_words:"true"`
	LogLevel      string              `yaml:"logLevel" split_words:"true"`
	Search        SearchSpecification `yaml:"search"`
	Server        ServerSpecification `yaml:"server"`
	Auth          AuthSpecification   `yaml:"auth"`

	flags *pflag.FlagSet `ignored:"true"`
}

// SearchSpecification holds the default request parameters. Zero MaxTokens
// leaves max_tokens out of the request.
type SearchSpecification struct {
	MaxResults       int      `yaml:"maxResults" split_words:"true"`
	MaxTokensPerPage int      `yaml:"maxTokensPerPage" split_words:"true"`
	MaxTokens        int      `yaml:"maxTokens" split_words:"true"`
	DomainFilter     []string `yaml:"domainFilter" split_words:"true"`
	RecencyFilter    string   `yaml:"recencyFilter" split_words:"true"`
}

type ServerSpecification struct {
	Transport string `yaml:"transport"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
}

type AuthSpecification struct {
	Enabled   bool   `yaml:"enabled"`
	JwtSecret string `yaml:"jwtSecret" split_words:"true"`
}

const envPrefix = "WEBSEARCH"

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

func (s *Specification) Usage() {
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// ClientConfig returns the upstream client settings.
func (s *Specification) ClientConfig() *provider.ClientConfig {
	return &provider.ClientConfig{
		Provider:      provider.Provider(s.Provider),
		APIKey:        s.APIKey,
		BaseURL:       s.BaseURL,
		Timeout:       s.Timeout,
		SkipTLSVerify: s.SkipTLSVerify,
	}
}

// Request builds a search request for query carrying these defaults.
func (s SearchSpecification) Request(query string) models.SearchRequest {
	req := models.SearchRequest{
		Query:               query,
		MaxResults:          s.MaxResults,
		MaxTokensPerPage:    s.MaxTokensPerPage,
		SearchDomainFilter:  s.DomainFilter,
		SearchRecencyFilter: s.RecencyFilter,
	}
	if s.MaxTokens > 0 {
		maxTokens := s.MaxTokens
		req.MaxTokens = &maxTokens
	}
	return req
}

// Load => defaults < YAML < .env < env < flags.
// configPath may be ""; if so we auto-discover. args are the command line
// arguments without the program name; positional arguments stay available
// through fs.Args().
func Load(configPath string, fs *pflag.FlagSet, args []string) (Specification, error) {
	var cfg Specification

	// set defaults (lowest precedence)
	setDefaults(&cfg)
	bindFlags(fs, &cfg, args)

	// config file
	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"config/websearch.yaml",
				"config/config.yaml",
				"./websearch.yaml",
				"./config.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the process
	if err := loadEnvFile(os.Getenv(envPrefix + "_ENV_FILE")); err != nil {
		return Specification{}, err
	}

	// env overrides config file
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	// flags override everything
	if err := fs.Parse(args); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	if err := validate(&cfg); err != nil {
		return Specification{}, err
	}
	return cfg, nil
}

// ---------- helpers ----------

func validate(cfg *Specification) error {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch cfg.Provider {
	case "perplexity", "stub":
	default:
		return fmt.Errorf("unsupported provider %q (expected perplexity or stub)", cfg.Provider)
	}

	cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))
	switch cfg.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unsupported server transport %q (expected stdio or http)", cfg.Server.Transport)
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.JwtSecret) == "" {
		return fmt.Errorf("%s_AUTH_JWT_SECRET is required when auth is enabled", envPrefix)
	}
	if !strings.HasPrefix(cfg.Server.Path, "/") {
		cfg.Server.Path = "/" + cfg.Server.Path
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	return nil
}

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

// loadEnvFile loads path, or ./.env when path is empty and the file exists.
func loadEnvFile(path string) error {
	if path == "" {
		if !fileExists(".env") {
			return nil
		}
		path = ".env"
	} else if !fileExists(path) {
		return fmt.Errorf("env file not found: %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification, args []string) {
	fs.String("config", "", "Path to config file")

	// If --config is provided on the command line, capture it now so
	// config discovery (which runs before flags.Parse) can use it.
	for i, a := range args {
		if a == "--config" {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.String("provider", c.Provider, "Search provider (perplexity|stub)")
	fs.String("api-key", c.APIKey, "Perplexity API key (default from PERPLEXITY_API_KEY)")
	fs.String("base-url", c.BaseURL, "Perplexity API base URL")
	fs.Duration("timeout", c.Timeout, "Upstream request timeout")
	fs.Bool("skip-tls-verify", c.SkipTLSVerify, "Skip TLS certificate verification for upstream calls")

	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")

	fs.Int("max-results", c.Search.MaxResults, "Maximum number of results (1-20)")
	fs.Int("max-tokens-per-page", c.Search.MaxTokensPerPage, "Maximum tokens extracted per page")
	fs.Int("max-tokens", c.Search.MaxTokens, "Maximum tokens across all results (0 leaves the upstream default)")
	fs.StringSlice("domain", c.Search.DomainFilter, "Restrict results to these domains (repeatable)")
	fs.String("recency", c.Search.RecencyFilter, "Recency filter (day|week|month|year)")

	fs.String("transport", c.Server.Transport, "MCP transport (stdio|http)")
	fs.Int("port", c.Server.Port, "MCP HTTP server port")
	fs.String("path", c.Server.Path, "MCP HTTP endpoint path")

	fs.Bool("auth-enabled", c.Auth.Enabled, "Require a bearer JWT on the MCP HTTP endpoint")
	fs.String("auth-jwt-secret", c.Auth.JwtSecret, "JWT secret for signing tokens")

	// Used later for usage/help
	// create a shallow copy of fs (so Usage can be called safely without mutating caller)
	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			*dst = v
		}
	}
	setDur := func(name string, dst *time.Duration) {
		if fs.Changed(name) {
			v, _ := fs.GetDuration(name)
			*dst = v
		}
	}
	setSlice := func(name string, dst *[]string) {
		if fs.Changed(name) {
			v, _ := fs.GetStringSlice(name)
			*dst = v
		}
	}

	// (We ignore --config here; it's for discovery.)
	setStr("provider", &c.Provider)
	setStr("api-key", &c.APIKey)
	setStr("base-url", &c.BaseURL)
	setDur("timeout", &c.Timeout)
	setBool("skip-tls-verify", &c.SkipTLSVerify)

	setStr("log-level", &c.LogLevel)

	setInt("max-results", &c.Search.MaxResults)
	setInt("max-tokens-per-page", &c.Search.MaxTokensPerPage)
	setInt("max-tokens", &c.Search.MaxTokens)
	setSlice("domain", &c.Search.DomainFilter)
	setStr("recency", &c.Search.RecencyFilter)

	setStr("transport", &c.Server.Transport)
	setInt("port", &c.Server.Port)
	setStr("path", &c.Server.Path)

	// Auth flags
	setBool("auth-enabled", &c.Auth.Enabled)
	setStr("auth-jwt-secret", &c.Auth.JwtSecret)
}

func setDefaults(c *Specification) {
	c.Provider = "perplexity"
	c.BaseURL = "https://api.perplexity.ai"
	c.Timeout = 30 * time.Second
	c.LogLevel = "info"
	c.Search.MaxResults = 10
	c.Search.MaxTokensPerPage = 2048
	c.Server.Transport = TransportStdio
	c.Server.Port = 8080
	c.Server.Path = "/mcp"
	c.Auth.Enabled = false
}
