package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/seanblong/websearch/internal/normalize"
	"github.com/seanblong/websearch/internal/provider"
	"github.com/seanblong/websearch/pkg/models"
)

const (
	DefaultMaxResults       = 10
	DefaultMaxTokensPerPage = 2048

	MaxResultsLimit = 20
	MaxTokensLimit  = 1000000
	MaxDomains      = 20
)

var recencyFilters = map[string]bool{
	models.RecencyDay:   true,
	models.RecencyWeek:  true,
	models.RecencyMonth: true,
	models.RecencyYear:  true,
}

// ValidationError reports a request parameter the upstream would reject.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Service struct {
	Client provider.Client
}

// NewService creates a new search service backed by the provided client
func NewService(client provider.Client) *Service {
	return &Service{
		Client: client,
	}
}

// ApplyDefaults fills zero-valued required numeric parameters.
func ApplyDefaults(req models.SearchRequest) models.SearchRequest {
	if req.MaxResults == 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.MaxTokensPerPage == 0 {
		req.MaxTokensPerPage = DefaultMaxTokensPerPage
	}
	return req
}

// Validate checks req against the ranges the search endpoint accepts.
func Validate(req models.SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if req.MaxResults < 1 || req.MaxResults > MaxResultsLimit {
		return &ValidationError{Field: "max_results", Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxResultsLimit, req.MaxResults)}
	}
	if req.MaxTokensPerPage < 1 {
		return &ValidationError{Field: "max_tokens_per_page", Message: fmt.Sprintf("must be positive, got %d", req.MaxTokensPerPage)}
	}
	if req.MaxTokens != nil && (*req.MaxTokens < 1 || *req.MaxTokens > MaxTokensLimit) {
		return &ValidationError{Field: "max_tokens", Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxTokensLimit, *req.MaxTokens)}
	}
	if req.SearchRecencyFilter != "" && !recencyFilters[req.SearchRecencyFilter] {
		return &ValidationError{Field: "search_recency_filter", Message: fmt.Sprintf("must be one of day, week, month, year, got %q", req.SearchRecencyFilter)}
	}
	if len(req.SearchDomainFilter) > MaxDomains {
		return &ValidationError{Field: "search_domain_filter", Message: fmt.Sprintf("at most %d domains, got %d", MaxDomains, len(req.SearchDomainFilter))}
	}
	for _, d := range req.SearchDomainFilter {
		if strings.TrimSpace(d) == "" {
			return &ValidationError{Field: "search_domain_filter", Message: "contains an empty domain"}
		}
	}
	return nil
}

// Raw runs the search and returns the upstream payload as received.
func (s *Service) Raw(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	req = ApplyDefaults(req)
	if err := Validate(req); err != nil {
		return nil, err
	}

	resp, err := s.Client.Search(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("query", req.Query).Msg("search failed")
		return nil, err
	}
	if resp == nil {
		resp = &models.SearchResponse{}
	}
	if resp.Results == nil {
		resp.Results = []models.RawResult{}
	}
	return resp, nil
}

// Search runs the search and normalizes the results. Either the whole bundle
// is returned or an error; there are no partial results.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (models.Bundle, error) {
	resp, err := s.Raw(ctx, req)
	if err != nil {
		return models.Bundle{}, err
	}

	b := normalize.Normalize(req.Query, resp.Results)
	log.Debug().Str("query", req.Query).Int("sources", b.TotalSources).Int("chunks", b.TotalChunks).Msg("search normalized")
	return b, nil
}
