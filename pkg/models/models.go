package models

import (
	"encoding/json"
	"strings"
)

// Recency filters accepted by the upstream search endpoint.
const (
	RecencyDay   = "day"
	RecencyWeek  = "week"
	RecencyMonth = "month"
	RecencyYear  = "year"
)

// SearchRequest is the JSON body sent to the search endpoint. Optional
// fields are omitted from the payload when unset.
type SearchRequest struct {
	Query               string   `json:"query"`
	MaxResults          int      `json:"max_results"`
	MaxTokensPerPage    int      `json:"max_tokens_per_page"`
	MaxTokens           *int     `json:"max_tokens,omitempty"`
	SearchDomainFilter  []string `json:"search_domain_filter,omitempty"`
	SearchRecencyFilter string   `json:"search_recency_filter,omitempty"`
}

// SearchResponse is the subset of the upstream response we consume.
type SearchResponse struct {
	ID      string      `json:"id,omitempty"`
	Results []RawResult `json:"results"`
}

// RawResult is a single upstream hit. Every field may be missing.
type RawResult struct {
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Snippet     string   `json:"snippet,omitempty"`
	Chunk       TextList `json:"chunk,omitempty"`
	Chunks      TextList `json:"chunks,omitempty"`
	Date        string   `json:"date,omitempty"`
	LastUpdated string   `json:"last_updated,omitempty"`
}

// TextList decodes either a JSON string or an array of strings. Any other
// shape decodes as empty, and non-string array entries are dropped.
type TextList []string

func (t *TextList) UnmarshalJSON(b []byte) error {
	*t = nil

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != "" {
			*t = TextList{s}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	for _, item := range items {
		var entry string
		if err := json.Unmarshal(item, &entry); err == nil {
			*t = append(*t, entry)
		}
	}
	return nil
}

// Join concatenates the non-empty entries separated by a blank line.
func (t TextList) Join() string {
	parts := make([]string, 0, len(t))
	for _, s := range t {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Source identifies a page returned by a search.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// Chunk is a non-empty excerpt with derived size metadata. ChunkTokens is a
// whitespace word count, not a model tokenizer count.
type Chunk struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Chunk       string `json:"chunk"`
	ChunkLength int    `json:"chunk_length"`
	ChunkTokens int    `json:"chunk_tokens"`
	Date        string `json:"date,omitempty"`
}

// ResultItem pairs a source with its (possibly missing) excerpt. Unlike
// Source, a missing date is encoded as null rather than omitted.
type ResultItem struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Chunk       *string `json:"chunk"`
	Date        *string `json:"date"`
	ChunkLength *int    `json:"chunk_length,omitempty"`
	ChunkTokens *int    `json:"chunk_tokens,omitempty"`
}

// Bundle is the normalized view of one search call.
type Bundle struct {
	Query        string       `json:"query"`
	Sources      []Source     `json:"sources"`
	Chunks       []Chunk      `json:"chunks"`
	Results      []ResultItem `json:"results"`
	TotalSources int          `json:"total_sources"`
	TotalChunks  int          `json:"total_chunks"`
}
