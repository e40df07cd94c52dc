package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/websearch/internal/config"
	"github.com/seanblong/websearch/internal/search"
	"github.com/seanblong/websearch/pkg/models"
)

const ToolSearchWeb = "search_web"

const instructions = "Provides web search for current events, news, information verification, and up-to-date content. " +
	"Use this for any query about recent developments, facts that need verification, or information that may be after the knowledge cutoff."

const toolDescription = `Search the web for current information, news, and verified facts.

Use this tool whenever you need:
- Current events, news, or recent developments
- Information that may be after your knowledge cutoff date
- Verification of facts, claims, or information
- Up-to-date data, statistics, or research findings
- Latest updates on any topic, person, or organization

Returns sources, text excerpts (chunks) and per-result metadata from relevant pages.`

// Info identifies the server to MCP clients.
type Info struct {
	Name    string
	Version string
}

// SearchArgs are the search_web tool arguments. Unset optional values fall
// back to the configured search defaults.
type SearchArgs struct {
	Query               string   `json:"query" jsonschema:"What to search for, e.g. latest AI developments or weather in Toronto"`
	MaxResults          *int     `json:"max_results,omitempty" jsonschema:"How many results to return (1-20, default 10)"`
	MaxTokens           *int     `json:"max_tokens,omitempty" jsonschema:"Total content length across all results; higher values return more text"`
	MaxTokensPerPage    *int     `json:"max_tokens_per_page,omitempty" jsonschema:"Content length per result; higher values return longer excerpts (default 2048)"`
	SearchDomainFilter  []string `json:"search_domain_filter,omitempty" jsonschema:"Limit results to specific websites, e.g. wikipedia.org"`
	SearchRecencyFilter *string  `json:"search_recency_filter,omitempty" jsonschema:"Only recent content: day, week, month or year"`
}

// SearchTool binds the search service to the search_web tool.
type SearchTool struct {
	svc      *search.Service
	defaults config.SearchSpecification
}

func NewSearchTool(svc *search.Service, defaults config.SearchSpecification) *SearchTool {
	return &SearchTool{svc: svc, defaults: defaults}
}

// NewServer creates an MCP server with search_web registered.
func NewServer(tool *SearchTool, info Info) *mcp.Server {
	if info.Name == "" {
		info.Name = "websearch"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    info.Name,
		Version: info.Version,
	}, &mcp.ServerOptions{
		Instructions: instructions,
	})
	tool.RegisterTools(server)
	return server
}

// RegisterTools registers search_web with server.
func (s *SearchTool) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolSearchWeb,
		Description: toolDescription,
	}, s.handleSearch)
}

// Request merges args over the configured defaults.
func (s *SearchTool) Request(args SearchArgs) models.SearchRequest {
	req := s.defaults.Request(args.Query)
	if args.MaxResults != nil {
		req.MaxResults = *args.MaxResults
	}
	if args.MaxTokens != nil {
		req.MaxTokens = args.MaxTokens
	}
	if args.MaxTokensPerPage != nil {
		req.MaxTokensPerPage = *args.MaxTokensPerPage
	}
	if len(args.SearchDomainFilter) > 0 {
		req.SearchDomainFilter = args.SearchDomainFilter
	}
	if args.SearchRecencyFilter != nil {
		req.SearchRecencyFilter = *args.SearchRecencyFilter
	}
	return req
}

func (s *SearchTool) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, models.Bundle, error) {
	start := time.Now()
	req := s.Request(args)

	log.Debug().
		Str("tool", ToolSearchWeb).
		Str("query", req.Query).
		Int("max_results", req.MaxResults).
		Strs("domains", req.SearchDomainFilter).
		Str("recency", req.SearchRecencyFilter).
		Msg("tool call received")

	bundle, err := s.svc.Search(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolSearchWeb).Dur("dur", time.Since(start)).Msg("tool call failed")
		return nil, models.Bundle{}, err
	}

	text, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, models.Bundle{}, fmt.Errorf("encode results: %w", err)
	}

	log.Info().
		Str("tool", ToolSearchWeb).
		Int("sources", bundle.TotalSources).
		Int("chunks", bundle.TotalChunks).
		Dur("dur", time.Since(start)).
		Msg("tool call served")

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
	}, bundle, nil
}
