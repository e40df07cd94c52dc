package provider

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/websearch/pkg/models"
)

const searchPath = "/search"

type PerplexityClient struct {
	config *ClientConfig
	http   *resty.Client
}

func NewPerplexityClient(config *ClientConfig) *PerplexityClient {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetHeader("User-Agent", "websearch/1.0").
		SetTimeout(config.Timeout).
		SetRetryCount(0)

	// Corporate proxies sometimes re-sign TLS.
	if config.SkipTLSVerify {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &PerplexityClient{
		config: config,
		http:   httpClient,
	}
}

// Search posts req to the search endpoint and decodes the response.
func (c *PerplexityClient) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if strings.TrimSpace(c.config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + searchPath
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.config.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(req).
		Post(endpoint)
	if err != nil {
		log.Debug().Err(err).Str("provider", string(ProviderPerplexity)).Str("endpoint", endpoint).Msg("search request failed")
		return nil, &TransportError{Err: err}
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		log.Debug().Str("provider", string(ProviderPerplexity)).Int("status", resp.StatusCode()).Msg("search API returned an error")
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	var out models.SearchResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	log.Debug().
		Str("provider", string(ProviderPerplexity)).
		Int("status", resp.StatusCode()).
		Int("results", len(out.Results)).
		Dur("dur", time.Since(start)).
		Msg("search completed")

	return &out, nil
}
