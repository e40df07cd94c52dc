package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/websearch/internal/auth"
	"github.com/seanblong/websearch/internal/config"
	"github.com/seanblong/websearch/internal/mcpserver"
	"github.com/seanblong/websearch/internal/provider"
	"github.com/seanblong/websearch/internal/search"
	"github.com/spf13/pflag"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("websearch-mcp", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	issueToken := fs.String("issue-token", "", "Print a signed bearer token for this subject and exit")
	tokenTTL := fs.Duration("token-ttl", auth.DefaultTokenTTL, "Lifetime of tokens printed by --issue-token")
	showVersion := fs.Bool("version", false, "Print the version and exit")

	cfg, err := config.Load("", fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	// Set up logging; stdout carries the stdio transport.
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level '%s': %v\n", cfg.LogLevel, err)
		return 1
	}
	logger := zerolog.New(stderr).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	auth.InitializeAuth(cfg.Auth.JwtSecret, cfg.Auth.Enabled)

	if *issueToken != "" {
		// Signing only needs the secret; the guard may be off on this host.
		auth.InitializeAuth(cfg.Auth.JwtSecret, true)
		token, err := auth.GenerateJWT(*issueToken, *tokenTTL)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to issue token: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, token)
		return 0
	}

	client, err := provider.NewClient(cfg.ClientConfig())
	if err != nil {
		logger.Error().Err(err).Msg("failed to create search client")
		return 1
	}
	if cfg.Provider == string(provider.ProviderPerplexity) && cfg.APIKey == "" {
		logger.Warn().Msg("PERPLEXITY_API_KEY is not set; search_web calls will fail until it is configured")
	}

	logger.Info().
		Str("provider", cfg.Provider).
		Str("transport", cfg.Server.Transport).
		Str("log_level", cfg.LogLevel).
		Bool("auth_enabled", cfg.Auth.Enabled).
		Dur("timeout", cfg.Timeout).
		Msg("starting websearch mcp server")

	tool := mcpserver.NewSearchTool(search.NewService(client), cfg.Search)
	server := mcpserver.NewServer(tool, mcpserver.Info{Name: "websearch", Version: version})

	start := time.Now()
	if err := mcpserver.Serve(ctx, server, cfg.Server, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("mcp server stopped")
		return 1
	}
	logger.Info().Dur("uptime", time.Since(start)).Msg("mcp server stopped")
	return 0
}
