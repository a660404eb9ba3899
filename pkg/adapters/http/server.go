package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/toolguide"
	"github.com/aretw0/toolguide/internal/logging"
	"github.com/aretw0/toolguide/internal/presentation/graph"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/observability"
	"github.com/aretw0/toolguide/pkg/runner"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// Engine is the guide runtime as seen by the REST adapter.
type Engine interface {
	Guides() []*domain.Guide
	Guide(name string) (*domain.Guide, error)
	Start(ctx context.Context, guide string) (domain.Response, error)
	Continue(ctx context.Context, guide, sessionID string, in domain.Input) (domain.Response, error)
	Get(ctx context.Context, guide, sessionID string) (map[string]any, bool, error)
	Cancel(ctx context.Context, guide, sessionID string) (domain.Response, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
}

// ContinueRequest is the body of POST /guides/{guide}/sessions/{id}/continue.
type ContinueRequest struct {
	Text   *string        `json:"text,omitempty"`
	Report map[string]any `json:"report,omitempty"`
}

// GuideSummary is the JSON shape of a guide in GET /guides.
type GuideSummary struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Initial     domain.StateName   `json:"initial"`
	States      []domain.StateName `json:"states"`
}

// Server serves the guides over REST.
type Server struct {
	Engine  Engine
	Streams *observability.StreamManager

	spec         *openapi3.T
	router       routers.Router
	gatherer     prometheus.Gatherer
	logger       *slog.Logger
	maxInputSize int
}

// Option configures the Server.
type Option func(*Server)

// WithStreams sets the stream manager feeding GET /events. The same manager's
// hooks must be registered on the engine for events to flow.
func WithStreams(sm *observability.StreamManager) Option {
	return func(s *Server) {
		if sm != nil {
			s.Streams = sm
		}
	}
}

// WithGatherer sets the registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxInputSize sets the byte limit for answers and reports.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInputSize = n
		}
	}
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
}

// NewServer builds the server and its request validator.
func NewServer(engine Engine, opts ...Option) (*Server, error) {
	s := &Server{
		Engine:       engine,
		Streams:      observability.NewStreamManager(),
		gatherer:     prometheus.DefaultGatherer,
		logger:       logging.NewNop(),
		maxInputSize: runner.MaxInputSize(),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAPI router: %w", err)
	}
	s.spec = doc
	s.router = router
	return s, nil
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s, err := NewServer(engine, opts...)
	if err != nil {
		return nil, err
	}
	return s.Handler(), nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.validateRequest)

		r.Get("/health", s.Health)
		r.Get("/info", s.Info)
		r.Get("/events", s.SubscribeEvents)
		r.Get("/guides", s.ListGuides)
		r.Get("/guides/{guide}/graph", s.GuideGraph)
		r.Post("/guides/{guide}/sessions", s.StartSession)
		r.Get("/guides/{guide}/sessions/{id}", s.GetSession)
		r.Delete("/guides/{guide}/sessions/{id}", s.CancelSession)
		r.Post("/guides/{guide}/sessions/{id}/continue", s.ContinueSession)
	})
	return r
}

// validateRequest checks requests against the OpenAPI document. Paths the
// document does not describe fall through to the router.
func (s *Server) validateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := s.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options:    &openapi3filter.Options{MultiError: false},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			s.logger.Warn("Request rejected by OpenAPI validation", "path", r.URL.Path, "err", err)
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return err.Error()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>toolguide API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0)
	for _, g := range s.Engine.Guides() {
		names = append(names, g.Name)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":     strings.TrimSpace(toolguide.Version),
		"api_version": s.spec.Info.Version,
		"guides":      names,
	})
}

// ListGuides handles GET /guides.
func (s *Server) ListGuides(w http.ResponseWriter, r *http.Request) {
	out := make([]GuideSummary, 0)
	for _, g := range s.Engine.Guides() {
		out = append(out, GuideSummary{
			Name:        g.Name,
			Description: g.Description,
			Initial:     g.Initial,
			States:      g.States,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GuideGraph handles GET /guides/{guide}/graph.
func (s *Server) GuideGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.guide(w, r)
	if !ok {
		return
	}

	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		sess, err := s.Engine.Session(r.Context(), id)
		if errors.Is(err, domain.ErrSessionNotFound) || (err == nil && sess.Guide != g.Name) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("session %s not found", id))
			return
		}
		if err != nil {
			s.internalError(w, "Graph: session load failed", err)
			return
		}
		overlay = graph.OverlayFor(g, sess)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(g, overlay)))
}

// StartSession handles POST /guides/{guide}/sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	g, ok := s.guide(w, r)
	if !ok {
		return
	}
	resp, err := s.Engine.Start(r.Context(), g.Name)
	if err != nil {
		s.internalError(w, "Start failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ContinueSession handles POST /guides/{guide}/sessions/{id}/continue.
// Rejected answers come back as payloads with status 200, like every
// other protocol outcome.
func (s *Server) ContinueSession(w http.ResponseWriter, r *http.Request) {
	g, ok := s.guide(w, r)
	if !ok {
		return
	}

	var body ContinueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("Continue: invalid request body", "err", err)
		return
	}

	var in domain.Input
	switch {
	case body.Report != nil:
		report, err := runner.SanitizeReport(body.Report, s.maxInputSize)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in = domain.ReportInput(report)
	case body.Text != nil:
		text, err := runner.SanitizeInputWithLimit(*body.Text, s.maxInputSize)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in = domain.TextInput(text)
	default:
		writeError(w, http.StatusBadRequest, "either text or report is required")
		return
	}

	resp, err := s.Engine.Continue(r.Context(), g.Name, chi.URLParam(r, "id"), in)
	if err != nil {
		s.internalError(w, "Continue failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /guides/{guide}/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	g, ok := s.guide(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	view, found, err := s.Engine.Get(r.Context(), g.Name, id)
	if err != nil {
		s.internalError(w, "Get failed", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("session %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CancelSession handles DELETE /guides/{guide}/sessions/{id}.
func (s *Server) CancelSession(w http.ResponseWriter, r *http.Request) {
	g, ok := s.guide(w, r)
	if !ok {
		return
	}
	resp, err := s.Engine.Cancel(r.Context(), g.Name, chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, "Cancel failed", err)
		return
	}
	if resp.Status == domain.StatusError {
		writeError(w, http.StatusNotFound, resp.Message)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles GET /events (SSE). Without session_id the
// stream carries the events of every session.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: subscribed", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) guide(w http.ResponseWriter, r *http.Request) (*domain.Guide, bool) {
	name := chi.URLParam(r, "guide")
	g, err := s.Engine.Guide(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return g, true
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "err", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
