// Package render formats a search bundle for terminal output.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/seanblong/websearch/internal/normalize"
	"github.com/seanblong/websearch/pkg/models"
)

const (
	DefaultMaxSources = 20
	DefaultMaxChunks  = 20

	ruleWidth = 70
)

// Options limits how many sources and chunks are printed. Zero means the
// default limit; the summary always covers every chunk.
type Options struct {
	MaxSources int
	MaxChunks  int
}

func (o Options) withDefaults() Options {
	if o.MaxSources <= 0 {
		o.MaxSources = DefaultMaxSources
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = DefaultMaxChunks
	}
	return o
}

// Text writes a human readable rendering of b to w.
func Text(w io.Writer, b models.Bundle, opts Options) error {
	opts = opts.withDefaults()
	bw := bufio.NewWriter(w)

	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)

	fmt.Fprintf(bw, "\n%s\n", heavy)
	fmt.Fprintf(bw, "SEARCH RESULTS: %s\n", b.Query)
	fmt.Fprintf(bw, "%s\n", heavy)

	if len(b.Sources) == 0 {
		fmt.Fprint(bw, "\nNo sources found\n")
	} else {
		fmt.Fprintf(bw, "\nSOURCES (%d found, showing %d)\n", len(b.Sources), min(len(b.Sources), opts.MaxSources))
		fmt.Fprintf(bw, "%s\n", light)
		for i, s := range b.Sources[:min(len(b.Sources), opts.MaxSources)] {
			fmt.Fprintf(bw, "\n%d. %s\n", i+1, s.Title)
			fmt.Fprintf(bw, "   URL: %s\n", orNA(s.URL))
			if s.Date != "" {
				fmt.Fprintf(bw, "   Date: %s\n", s.Date)
			}
		}
	}

	if len(b.Chunks) == 0 {
		fmt.Fprint(bw, "\nNo chunks available\n")
		return bw.Flush()
	}

	fmt.Fprintf(bw, "\nCHUNKS (%d found, showing %d)\n", len(b.Chunks), min(len(b.Chunks), opts.MaxChunks))
	fmt.Fprintf(bw, "%s\n", light)
	for i, c := range b.Chunks[:min(len(b.Chunks), opts.MaxChunks)] {
		fmt.Fprintf(bw, "\n--- Chunk %d ---\n", i+1)
		fmt.Fprintf(bw, "Title: %s\n", c.Title)
		fmt.Fprintf(bw, "URL: %s\n", orNA(c.URL))
		if c.Date != "" {
			fmt.Fprintf(bw, "Date: %s\n", c.Date)
		}
		fmt.Fprintf(bw, "Length: %s characters (~%s tokens)\n", humanize.Comma(int64(c.ChunkLength)), humanize.Comma(int64(c.ChunkTokens)))
		fmt.Fprintf(bw, "\n%s\n", c.Chunk)
	}

	sum := normalize.Summarize(b)
	fmt.Fprint(bw, "\nSummary:\n")
	fmt.Fprintf(bw, "   Total characters: %s\n", humanize.Comma(int64(sum.TotalChars)))
	fmt.Fprintf(bw, "   Total tokens (approx): %s\n", humanize.Comma(int64(sum.TotalTokens)))
	fmt.Fprintf(bw, "   Average per chunk: %s characters (~%s tokens)\n", humanize.Comma(int64(sum.AvgChars)), humanize.Comma(int64(sum.AvgTokens)))

	return bw.Flush()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
