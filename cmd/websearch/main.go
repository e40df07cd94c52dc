package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/websearch/internal/config"
	"github.com/seanblong/websearch/internal/provider"
	"github.com/seanblong/websearch/internal/render"
	"github.com/seanblong/websearch/internal/search"
	"github.com/spf13/pflag"
)

const usageLine = "Usage: websearch [flags] <query words...> [max_results]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("websearch", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, fs) }

	format := fs.String("format", "json", "Output format (json|text)")
	raw := fs.Bool("raw", false, "Print the upstream response without normalization")
	maxSources := fs.Int("max-sources", render.DefaultMaxSources, "Sources shown in text output")
	maxChunks := fs.Int("max-chunks", render.DefaultMaxChunks, "Chunks shown in text output")

	cfg, err := config.Load("", fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid log level '%s': %v\n", cfg.LogLevel, err)
		return 1
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	query, maxResults, ok := parseQuery(fs.Args(), fs.Changed("max-results"))
	if query == "" {
		usage(stderr, fs)
		return 1
	}
	if ok {
		// Zero would otherwise fall back to the default.
		if maxResults < 1 || maxResults > search.MaxResultsLimit {
			err := &search.ValidationError{Field: "max_results", Message: fmt.Sprintf("must be between 1 and %d, got %d", search.MaxResultsLimit, maxResults)}
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg.Search.MaxResults = maxResults
	}

	*format = strings.ToLower(*format)
	if *format != "json" && *format != "text" {
		fmt.Fprintf(stderr, "Error: unsupported format %q (expected json or text)\n", *format)
		return 1
	}

	client, err := provider.NewClient(cfg.ClientConfig())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	log.Debug().Str("provider", cfg.Provider).Str("query", query).Int("max_results", cfg.Search.MaxResults).Msg("searching")

	svc := search.NewService(client)
	req := cfg.Search.Request(query)

	if *raw {
		resp, err := svc.Raw(ctx, req)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if err := writeJSON(stdout, resp); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	bundle, err := svc.Search(ctx, req)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *format == "text" {
		err = render.Text(stdout, bundle, render.Options{MaxSources: *maxSources, MaxChunks: *maxChunks})
	} else {
		err = writeJSON(stdout, bundle)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// parseQuery joins the positional words into a query. A trailing all-digit
// word is taken as max_results unless the flag was given explicitly; ok
// reports whether that happened.
func parseQuery(words []string, maxResultsFlag bool) (query string, maxResults int, ok bool) {
	if len(words) > 1 && !maxResultsFlag {
		last := words[len(words)-1]
		if isDigits(last) {
			if n, err := strconv.Atoi(last); err == nil {
				return strings.Join(words[:len(words)-1], " "), n, true
			}
		}
	}
	return strings.TrimSpace(strings.Join(words, " ")), 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, usageLine)
	fmt.Fprintln(w)
	fmt.Fprint(w, fs.FlagUsages())
}
