package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/lexsearch/internal/config"
	"github.com/sha1n/lexsearch/internal/httpapi"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 10 * time.Second

// StartHTTPServer serves the API until ctx is done, then shuts down gracefully
func StartHTTPServer(ctx context.Context, services *Services, settings *config.Settings) error {
	srv := NewHTTPServer(services, settings)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening (HTTP)", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// NewHTTPServer creates the HTTP server with the API routes and the MCP SSE endpoint
func NewHTTPServer(services *Services, settings *config.Settings) *http.Server {
	api := &httpapi.Handler{Searcher: services.Engine}
	if services.Summarizer != nil {
		api.Summarizer = services.Summarizer
	}
	if services.Documents != nil {
		api.Documents = services.Documents
	}

	mux := http.NewServeMux()
	api.Register(mux)

	if services.MCP != nil {
		// Factory function returns the server instance for each request
		sseHandler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
			return services.MCP
		}, nil)
		mux.Handle("/sse", sseHandler)
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Handler:           httpapi.WithRequestID(httpapi.WithLogging(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
