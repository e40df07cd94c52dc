// Package normalize reshapes raw upstream search hits into the sources,
// chunks and results views returned to callers.
package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/seanblong/websearch/pkg/models"
)

const untitled = "Untitled"

// excerptField extracts one candidate excerpt from a raw result.
type excerptField struct {
	name    string
	extract func(models.RawResult) string
}

// excerptFields are checked in order; the first non-empty value wins.
var excerptFields = []excerptField{
	{name: "chunks", extract: func(r models.RawResult) string { return r.Chunks.Join() }},
	{name: "chunk", extract: func(r models.RawResult) string { return r.Chunk.Join() }},
	{name: "snippet", extract: func(r models.RawResult) string { return r.Snippet }},
}

// Excerpt returns the excerpt text of r and the field it came from, or two
// empty strings when r carries no excerpt.
func Excerpt(r models.RawResult) (text, field string) {
	for _, f := range excerptFields {
		if v := f.extract(r); v != "" {
			return v, f.name
		}
	}
	return "", ""
}

// Length is the character count of s in code points.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// Tokens approximates the token count of s as its number of
// whitespace-separated words. It is not a model tokenizer.
func Tokens(s string) int {
	return len(strings.Fields(s))
}

// Normalize builds a Bundle from raw results. It never fails: missing fields
// fall back to defaults and the output preserves input order one-to-one.
func Normalize(query string, raw []models.RawResult) models.Bundle {
	b := models.Bundle{
		Query:   query,
		Sources: make([]models.Source, 0, len(raw)),
		Chunks:  make([]models.Chunk, 0, len(raw)),
		Results: make([]models.ResultItem, 0, len(raw)),
	}

	for _, r := range raw {
		title := r.Title
		if title == "" {
			title = untitled
		}
		url := r.URL
		date := r.Date
		if date == "" {
			date = r.LastUpdated
		}

		b.Sources = append(b.Sources, models.Source{Title: title, URL: url, Date: date})

		text, _ := Excerpt(r)
		item := models.ResultItem{Title: title, URL: url}
		if date != "" {
			d := date
			item.Date = &d
		}

		if text != "" {
			b.Chunks = append(b.Chunks, models.Chunk{
				Title:       title,
				URL:         url,
				Source:      url,
				Chunk:       text,
				ChunkLength: Length(text),
				ChunkTokens: Tokens(text),
				Date:        date,
			})

			c, n, tok := text, Length(text), Tokens(text)
			item.Chunk = &c
			item.ChunkLength = &n
			item.ChunkTokens = &tok
		}

		b.Results = append(b.Results, item)
	}

	b.TotalSources = len(b.Sources)
	b.TotalChunks = len(b.Chunks)
	return b
}

// Summary holds aggregate excerpt sizes for a bundle.
type Summary struct {
	TotalChars  int
	TotalTokens int
	AvgChars    int
	AvgTokens   int
	ChunkCount  int
	SourceCount int
}

// Summarize totals the chunk sizes of b. Averages use integer division and
// are zero when b has no chunks.
func Summarize(b models.Bundle) Summary {
	s := Summary{ChunkCount: len(b.Chunks), SourceCount: len(b.Sources)}
	for _, c := range b.Chunks {
		s.TotalChars += c.ChunkLength
		s.TotalTokens += c.ChunkTokens
	}
	if s.ChunkCount > 0 {
		s.AvgChars = s.TotalChars / s.ChunkCount
		s.AvgTokens = s.TotalTokens / s.ChunkCount
	}
	return s
}
