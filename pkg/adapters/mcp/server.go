package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/toolguide"
	"github.com/aretw0/toolguide/internal/logging"
	"github.com/aretw0/toolguide/internal/presentation/graph"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	GuidesURI        = "toolguide://guides"
	GuideGraphURI    = "toolguide://guides/{name}/graph"
	SessionGraphURI  = "toolguide://sessions/{id}/graph"
	guideGraphPrefix = "toolguide://guides/"
)

// Guides is the read side of the engine exposed as resources.
type Guides interface {
	Guides() []*domain.Guide
	Guide(name string) (*domain.Guide, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
}

// GuideInfo is the JSON shape of a guide in the guides resource.
type GuideInfo struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Initial     domain.StateName    `json:"initial"`
	States      []domain.StateName  `json:"states"`
	Transitions []domain.Transition `json:"transitions"`
}

// Server wraps the tool catalogue and exposes it as an MCP Server.
type Server struct {
	tools     *tools.Toolbox
	guides    Guides
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(tb *tools.Toolbox, guides Guides, opts ...Option) *Server {
	s := &Server{
		tools:  tb,
		guides: guides,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("toolguide-mcp", strings.TrimSpace(toolguide.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server (in-process clients, tests).
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	for _, t := range s.tools.Tools() {
		opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
		for _, p := range t.Params {
			props := []mcp.PropertyOption{mcp.Description(p.Description)}
			if p.Required {
				props = append(props, mcp.Required())
			}
			switch p.Type {
			case tools.TypeObject:
				opts = append(opts, mcp.WithObject(p.Name, props...))
			default:
				opts = append(opts, mcp.WithString(p.Name, props...))
			}
		}
		s.mcpServer.AddTool(mcp.NewTool(t.Name, opts...), s.handler(t.Name))
	}
}

// handler adapts a catalogue tool. Bad arguments become tool errors the
// model can read; infrastructure failures fail the request.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.tools.Call(ctx, name, request.GetArguments())
		if errors.Is(err, tools.ErrInvalidArguments) || errors.Is(err, tools.ErrUnknownTool) {
			s.logger.Warn("MCP tool call rejected", "tool", name, "err", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err != nil {
			s.logger.Error("MCP tool call failed", "tool", name, "err", err)
			return nil, fmt.Errorf("%s failed: %w", name, err)
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

func (s *Server) registerResources() {
	// EXPOSE: toolguide://guides
	s.mcpServer.AddResource(mcp.NewResource(GuidesURI, "Registered guides",
		mcp.WithResourceDescription("Every guide with its states and declared transitions"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		var infos []GuideInfo
		for _, g := range s.guides.Guides() {
			infos = append(infos, GuideInfo{
				Name:        g.Name,
				Description: g.Description,
				Initial:     g.Initial,
				States:      g.States,
				Transitions: g.Transitions,
			})
		}
		jsonBytes, err := json.Marshal(infos)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GuidesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: toolguide://guides/{name}/graph
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(GuideGraphURI, "Guide state diagram",
		mcp.WithTemplateDescription("Mermaid flowchart of a guide's protocol"),
		mcp.WithTemplateMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		name := templateArg(request, "name")
		g, err := s.guides.Guide(name)
		if err != nil {
			return nil, err
		}
		return mermaid(request.Params.URI, graph.GenerateMermaid(g, nil)), nil
	})

	// EXPOSE: toolguide://sessions/{id}/graph
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(SessionGraphURI, "Session progress diagram",
		mcp.WithTemplateDescription("Mermaid flowchart of a session's guide, highlighting its current state"),
		mcp.WithTemplateMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		sess, err := s.guides.Session(ctx, templateArg(request, "id"))
		if err != nil {
			return nil, err
		}
		g, err := s.guides.Guide(sess.Guide)
		if err != nil {
			return nil, err
		}
		return mermaid(request.Params.URI, graph.GenerateMermaid(g, graph.OverlayFor(g, sess))), nil
	})
}

func mermaid(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/vnd.mermaid",
			Text:     text,
		},
	}
}

// templateArg reads a URI template variable; matched values arrive as a list.
func templateArg(request mcp.ReadResourceRequest, name string) string {
	switch v := request.Params.Arguments[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
