package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	resthttp "github.com/aretw0/toolguide/pkg/adapters/http"
	"github.com/aretw0/toolguide/pkg/adapters/mcp"
)

// ServeMCP exposes the tool catalogue over MCP on stdio or SSE.
func ServeMCP(ctx context.Context, rt *Runtime, transport string, port int) error {
	srv := mcp.NewServer(rt.Tools, rt.Engine, mcp.WithLogger(rt.Logger))
	switch transport {
	case "stdio":
		rt.Logger.Info("Serving MCP on stdio")
		return srv.ServeStdio()
	case "sse":
		rt.Logger.Info("Serving MCP over SSE", "port", port)
		return srv.ServeSSE(ctx, port)
	}
	return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
}

// ServeHTTP runs the REST API until ctx is done.
func ServeHTTP(ctx context.Context, rt *Runtime, port, maxInput int) error {
	handler, err := resthttp.NewHandler(rt.Engine,
		resthttp.WithStreams(rt.Streams),
		resthttp.WithGatherer(rt.Registry),
		resthttp.WithLogger(rt.Logger),
		resthttp.WithMaxInputSize(maxInput),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.Logger.Info("Serving HTTP", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rt.Logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}
