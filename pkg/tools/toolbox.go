package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/toolguide/internal/logging"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/triage/clinic"
	"github.com/aretw0/toolguide/pkg/runner"
)

// ErrUnknownTool is returned when calling a tool that is not in the box.
var ErrUnknownTool = errors.New("unknown tool")

// ErrInvalidArguments wraps argument problems reported back to the caller.
var ErrInvalidArguments = errors.New("invalid arguments")

// Groups.
const (
	GroupPizza  = "pizza"
	GroupTriage = "triage"
	GroupClinic = "clinic"
)

// Engine is the subset of the guide engine the guide tools call.
type Engine interface {
	Start(ctx context.Context, guide string) (domain.Response, error)
	Continue(ctx context.Context, guide, sessionID string, in domain.Input) (domain.Response, error)
	Get(ctx context.Context, guide, sessionID string) (map[string]any, bool, error)
	Cancel(ctx context.Context, guide, sessionID string) (domain.Response, error)
}

// ParamType is the JSON type of a tool argument.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeObject ParamType = "object"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Tool is a named operation with a JSON-shaped result.
type Tool struct {
	Name        string
	Group       string
	Description string
	Params      []Param
	Call        func(ctx context.Context, args map[string]any) (any, error)
}

// InputSchema renders the JSON Schema of the tool arguments.
func (t Tool) InputSchema() map[string]any {
	props := make(map[string]any, len(t.Params))
	required := []string{}
	for _, p := range t.Params {
		props[p.Name] = map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Toolbox holds the tool catalogue.
type Toolbox struct {
	engine   Engine
	db       *clinic.Database
	logger   *slog.Logger
	maxInput int

	tools map[string]Tool
}

// Option configures a Toolbox.
type Option func(*Toolbox)

// WithDatabase sets the clinic database behind the clinic tools.
func WithDatabase(db *clinic.Database) Option {
	return func(tb *Toolbox) {
		if db != nil {
			tb.db = db
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(tb *Toolbox) {
		if logger != nil {
			tb.logger = logger
		}
	}
}

// WithMaxInputSize overrides the limit applied to text and report arguments.
func WithMaxInputSize(limit int) Option {
	return func(tb *Toolbox) {
		if limit > 0 {
			tb.maxInput = limit
		}
	}
}

// New builds the full catalogue over engine.
func New(engine Engine, opts ...Option) *Toolbox {
	tb := &Toolbox{
		engine:   engine,
		db:       clinic.NewDatabase(),
		logger:   logging.NewNop(),
		maxInput: runner.MaxInputSize(),
		tools:    make(map[string]Tool),
	}
	for _, opt := range opts {
		opt(tb)
	}
	for _, t := range tb.pizzaTools() {
		tb.add(t)
	}
	for _, t := range tb.triageTools() {
		tb.add(t)
	}
	for _, t := range tb.clinicTools() {
		tb.add(t)
	}
	return tb
}

func (tb *Toolbox) add(t Tool) {
	tb.tools[t.Name] = t
}

// Database returns the clinic database behind the clinic tools.
func (tb *Toolbox) Database() *clinic.Database {
	return tb.db
}

// Tools lists the tools of the given groups (all when none given), sorted by name.
func (tb *Toolbox) Tools(groups ...string) []Tool {
	want := make(map[string]bool, len(groups))
	for _, g := range groups {
		want[g] = true
	}
	out := make([]Tool, 0, len(tb.tools))
	for _, t := range tb.tools {
		if len(want) == 0 || want[t.Group] {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tool looks up a tool by name.
func (tb *Toolbox) Tool(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Call runs a tool. Argument problems come back wrapped in ErrInvalidArguments.
func (tb *Toolbox) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	t, ok := tb.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	for _, p := range t.Params {
		if _, present := args[p.Name]; p.Required && !present {
			return nil, fmt.Errorf("%w: %s requires %q", ErrInvalidArguments, name, p.Name)
		}
	}
	tb.logger.Debug("Tool call", "tool", name)
	result, err := t.Call(ctx, args)
	if err != nil {
		tb.logger.Warn("Tool call failed", "tool", name, "err", err)
		return nil, err
	}
	return result, nil
}

func stringArg(args map[string]any, key, fallback string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidArguments, key)
	}
	if s == "" {
		return fallback, nil
	}
	return s, nil
}

// objectArg accepts either a JSON object or a string holding one; hosts differ.
func objectArg(args map[string]any, key string) (map[string]any, error) {
	switch v := args[key].(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		obj, err := parseObject(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidArguments, key, err)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %q must be an object", ErrInvalidArguments, key)
	}
}
