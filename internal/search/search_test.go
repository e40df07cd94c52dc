package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seanblong/websearch/internal/provider"
	"github.com/seanblong/websearch/pkg/models"
)

// MockClient implements the provider.Client interface for testing
type MockClient struct {
	SearchFunc func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
	calls      []models.SearchRequest
}

func (m *MockClient) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	m.calls = append(m.calls, req)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, req)
	}
	return &models.SearchResponse{Results: []models.RawResult{}}, nil
}

func intPtr(i int) *int { return &i }

func TestNewService(t *testing.T) {
	client := &MockClient{}
	svc := NewService(client)
	if svc.Client != client {
		t.Error("NewService should keep the provided client")
	}
}

func TestApplyDefaults(t *testing.T) {
	got := ApplyDefaults(models.SearchRequest{Query: "q"})
	if got.MaxResults != 10 {
		t.Errorf("Expected MaxResults 10, got %d", got.MaxResults)
	}
	if got.MaxTokensPerPage != 2048 {
		t.Errorf("Expected MaxTokensPerPage 2048, got %d", got.MaxTokensPerPage)
	}
	if got.MaxTokens != nil {
		t.Errorf("Expected MaxTokens to stay unset, got %d", *got.MaxTokens)
	}

	kept := ApplyDefaults(models.SearchRequest{Query: "q", MaxResults: 3, MaxTokensPerPage: 512})
	if kept.MaxResults != 3 || kept.MaxTokensPerPage != 512 {
		t.Errorf("Explicit values should be kept, got %+v", kept)
	}
}

func TestValidate(t *testing.T) {
	valid := models.SearchRequest{Query: "q", MaxResults: 10, MaxTokensPerPage: 2048}

	tests := []struct {
		name      string
		mutate    func(*models.SearchRequest)
		wantField string
	}{
		{"valid", func(r *models.SearchRequest) {}, ""},
		{"blank query", func(r *models.SearchRequest) { r.Query = "   " }, "query"},
		{"max_results zero", func(r *models.SearchRequest) { r.MaxResults = 0 }, "max_results"},
		{"max_results too large", func(r *models.SearchRequest) { r.MaxResults = 21 }, "max_results"},
		{"max_results upper bound", func(r *models.SearchRequest) { r.MaxResults = 20 }, ""},
		{"negative tokens per page", func(r *models.SearchRequest) { r.MaxTokensPerPage = -1 }, "max_tokens_per_page"},
		{"max_tokens zero", func(r *models.SearchRequest) { r.MaxTokens = intPtr(0) }, "max_tokens"},
		{"max_tokens too large", func(r *models.SearchRequest) { r.MaxTokens = intPtr(1000001) }, "max_tokens"},
		{"max_tokens set", func(r *models.SearchRequest) { r.MaxTokens = intPtr(25000) }, ""},
		{"recency ok", func(r *models.SearchRequest) { r.SearchRecencyFilter = "month" }, ""},
		{"recency bad", func(r *models.SearchRequest) { r.SearchRecencyFilter = "decade" }, "search_recency_filter"},
		{"empty domain", func(r *models.SearchRequest) { r.SearchDomainFilter = []string{"go.dev", ""} }, "search_domain_filter"},
		{"too many domains", func(r *models.SearchRequest) { r.SearchDomainFilter = make([]string, 21) }, "search_domain_filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := Validate(req)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected *ValidationError, got %T: %v", err, err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, ve.Field)
			}
		})
	}
}

func TestService_Search(t *testing.T) {
	client := &MockClient{
		SearchFunc: func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
			return &models.SearchResponse{Results: []models.RawResult{
				{Title: "A", URL: "https://a", Snippet: "hello world foo", Date: "2024-01-01"},
				{URL: "https://b", LastUpdated: "2023-06-01"},
			}}, nil
		},
	}
	svc := NewService(client)

	got, err := svc.Search(context.Background(), models.SearchRequest{Query: " raw query "})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(client.calls) != 1 {
		t.Fatalf("Expected one upstream call, got %d", len(client.calls))
	}
	sent := client.calls[0]
	if sent.MaxResults != 10 || sent.MaxTokensPerPage != 2048 {
		t.Errorf("Expected defaults to be applied, got %+v", sent)
	}

	if got.Query != " raw query " {
		t.Errorf("Expected query to pass through unchanged, got %q", got.Query)
	}
	if got.TotalSources != 2 || got.TotalChunks != 1 {
		t.Errorf("Expected 2 sources and 1 chunk, got %d and %d", got.TotalSources, got.TotalChunks)
	}
	if got.Chunks[0].ChunkLength != 15 || got.Chunks[0].ChunkTokens != 3 {
		t.Errorf("Unexpected chunk sizes: %+v", got.Chunks[0])
	}
	if got.Sources[1].Title != "Untitled" || got.Sources[1].Date != "2023-06-01" {
		t.Errorf("Unexpected second source: %+v", got.Sources[1])
	}
}

func TestService_SearchNilResults(t *testing.T) {
	client := &MockClient{
		SearchFunc: func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
			return &models.SearchResponse{}, nil
		},
	}

	got, err := NewService(client).Search(context.Background(), models.SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Sources == nil || got.Chunks == nil || got.Results == nil {
		t.Error("Expected empty, non-nil collections")
	}
	if got.TotalSources != 0 || got.TotalChunks != 0 {
		t.Errorf("Expected zero totals, got %d and %d", got.TotalSources, got.TotalChunks)
	}
}

func TestService_SearchNilResponse(t *testing.T) {
	client := &MockClient{
		SearchFunc: func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
			return nil, nil
		},
	}
	svc := NewService(client)

	raw, err := svc.Raw(context.Background(), models.SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if raw == nil || raw.Results == nil || len(raw.Results) != 0 {
		t.Errorf("Expected an empty raw response, got %+v", raw)
	}

	got, err := svc.Search(context.Background(), models.SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Query != "q" || got.TotalSources != 0 || got.Sources == nil {
		t.Errorf("Expected an empty bundle for 'q', got %+v", got)
	}
}

func TestService_SearchValidationSkipsUpstream(t *testing.T) {
	client := &MockClient{}
	_, err := NewService(client).Search(context.Background(), models.SearchRequest{Query: ""})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Errorf("Expected no upstream calls, got %d", len(client.calls))
	}
}

func TestService_SearchPropagatesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"missing key", provider.ErrMissingAPIKey},
		{"not enabled", &provider.StatusError{Code: 404}},
		{"server error", &provider.StatusError{Code: 502, Body: "bad gateway"}},
		{"network", &provider.TransportError{Err: errors.New("dial tcp: connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockClient{
				SearchFunc: func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
					return nil, tt.err
				},
			}

			got, err := NewService(client).Search(context.Background(), models.SearchRequest{Query: "q"})
			if !errors.Is(err, tt.err) {
				t.Errorf("Expected %v, got %v", tt.err, err)
			}
			if got.Sources != nil || got.TotalSources != 0 {
				t.Errorf("Expected no partial bundle, got %+v", got)
			}
		})
	}
}

func TestService_Raw(t *testing.T) {
	client := &MockClient{
		SearchFunc: func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
			return &models.SearchResponse{ID: "r1", Results: []models.RawResult{{Title: "t", Snippet: "s"}}}, nil
		},
	}

	resp, err := NewService(client).Raw(context.Background(), models.SearchRequest{Query: "q", MaxResults: 3})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.ID != "r1" || len(resp.Results) != 1 || resp.Results[0].Snippet != "s" {
		t.Errorf("Expected raw upstream payload, got %+v", resp)
	}
	if client.calls[0].MaxResults != 3 {
		t.Errorf("Expected MaxResults 3, got %d", client.calls[0].MaxResults)
	}
}

func TestService_WithStubProvider(t *testing.T) {
	svc := NewService(provider.NewStubClient(nil))

	got, err := svc.Search(context.Background(), models.SearchRequest{Query: "offline"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.TotalSources != 2 || got.TotalChunks != 1 {
		t.Errorf("Expected 2 sources and 1 chunk from stub, got %d and %d", got.TotalSources, got.TotalChunks)
	}
	if !strings.Contains(got.Chunks[0].Chunk, "stub") {
		t.Errorf("Unexpected stub chunk %q", got.Chunks[0].Chunk)
	}
}
