package provider

import (
	"context"
	"errors"
	"time"

	"github.com/seanblong/websearch/pkg/models"
)

// Client issues a single search call against an upstream search API.
type Client interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}

// Provider is enumeration of supported search providers
type Provider string

const (
	ProviderPerplexity Provider = "perplexity"
	ProviderStub       Provider = "stub"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultTimeout = 30 * time.Second
)

// ClientConfig holds configuration for search clients
type ClientConfig struct {
	Provider      Provider
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	SkipTLSVerify bool
}

// NewClient creates a new search client based on configuration
func NewClient(config *ClientConfig) (Client, error) {
	if config == nil {
		return nil, errors.New("client config is required")
	}

	switch config.Provider {
	case ProviderPerplexity:
		return NewPerplexityClient(config), nil
	case ProviderStub:
		return NewStubClient(nil), nil
	default:
		return nil, errors.New("unsupported provider: " + string(config.Provider))
	}
}

// StubClient returns canned results without touching the network.
type StubClient struct {
	results []models.RawResult
}

// NewStubClient creates a StubClient. A nil slice selects a small built-in
// result set.
func NewStubClient(results []models.RawResult) *StubClient {
	if results == nil {
		results = []models.RawResult{
			{
				Title:   "Stub result",
				URL:     "https://example.com/stub",
				Snippet: "Offline stub result for local runs.",
				Date:    "2025-01-01",
			},
			{
				URL:         "https://example.com/no-excerpt",
				LastUpdated: "2024-06-01",
			},
		}
	}
	return &StubClient{results: results}
}

// Search returns at most req.MaxResults of the canned results.
func (s *StubClient) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}
	n := len(s.results)
	if req.MaxResults > 0 && req.MaxResults < n {
		n = req.MaxResults
	}
	out := make([]models.RawResult, n)
	copy(out, s.results[:n])
	return &models.SearchResponse{Results: out}, nil
}
