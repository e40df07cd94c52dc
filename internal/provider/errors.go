package provider

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingAPIKey is returned before any network call when no API key
	// is configured.
	ErrMissingAPIKey = errors.New("PERPLEXITY_API_KEY is not set; set it in the environment, a .env file or the config file")

	// ErrSearchNotEnabled matches a StatusError for an upstream 404, which the
	// search endpoint returns when the key has no search access.
	ErrSearchNotEnabled = errors.New("search API is not enabled for this API key or account; check your Perplexity API subscription")
)

// TransportError wraps a network-level failure (timeout, DNS, refused).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error calling Perplexity API: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

// NotEnabled reports whether the status means search is not available for
// the credential.
func (e *StatusError) NotEnabled() bool {
	return e.Code == http.StatusNotFound
}

func (e *StatusError) Error() string {
	if e.NotEnabled() {
		return ErrSearchNotEnabled.Error()
	}
	return fmt.Sprintf("Perplexity API error: %d - %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrSearchNotEnabled && e.NotEnabled()
}
