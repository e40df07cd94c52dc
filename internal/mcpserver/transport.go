package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/seanblong/websearch/internal/auth"
	"github.com/seanblong/websearch/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Handler exposes server over streamable HTTP at path, with /healthz and
// access logging. The MCP endpoint sits behind the optional auth guard.
func Handler(server *mcp.Server, path string, logger zerolog.Logger) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{Stateless: true})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	mux.Handle(path, auth.OptionalAuthMiddleware(streamable))

	return hlog.NewHandler(logger)(
		hlog.RequestIDHandler("req_id", "Request-Id")(
			hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
				hlog.FromRequest(r).Info().Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Int("size", size).Dur("dur", dur).Msg("http")
			})(mux),
		),
	)
}

// Serve runs server on the configured transport until ctx is cancelled or
// the transport fails.
func Serve(ctx context.Context, server *mcp.Server, cfg config.ServerSpecification, logger zerolog.Logger) error {
	switch cfg.Transport {
	case config.TransportStdio:
		logger.Info().Msg("mcp server listening on stdio")
		return server.Run(ctx, &mcp.StdioTransport{})
	case config.TransportHTTP:
		return serveHTTP(ctx, server, cfg, logger)
	default:
		return fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}

func serveHTTP(ctx context.Context, server *mcp.Server, cfg config.ServerSpecification, logger zerolog.Logger) error {
	s := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           Handler(server, cfg.Path, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", s.Addr).Str("path", cfg.Path).Bool("auth_enabled", auth.IsAuthEnabled()).Msg("mcp server listening")
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down mcp server")
		return s.Shutdown(shutdownCtx)
	}
}
