package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/tools"
)

// DefaultModel is used when LLMConfig.Model is empty.
const DefaultModel = openai.ChatModelGPT4oMini

// ErrNoChoices is returned when the API answers without a completion.
var ErrNoChoices = errors.New("completion returned no choices")

const systemPrompt = `You are an emergency department triage agent.

You MUST follow the triage guide. Call start_triage first. Every guide response
names a task: perform exactly that task with the clinic tools, then report the
structured result with continue_triage. Never skip a task and never decide the
triage level yourself. When the guide returns status "emergency_save_required",
call save_triage_record with the triage_data it gave you and report the record.
Stop when the guide returns status "complete" or "emergency" and summarize the
outcome for the patient.`

// Catalogue lists the tools an LLM agent may call.
type Catalogue interface {
	Caller
	Tools(groups ...string) []tools.Tool
}

// LLMConfig configures the chat completions client.
type LLMConfig struct {
	APIKey     string
	Model      string
	BaseURL    string       // Optional (OpenAI-compatible servers, tests)
	HTTPClient *http.Client // Optional (tests)
	MaxRetries int
}

// LLM is a triage agent driven by a chat completions model.
type LLM struct {
	client   openai.Client
	model    string
	tools    Catalogue
	logger   *slog.Logger
	observer Observer
	maxSteps int
}

// NewLLM creates an LLM agent over the triage and clinic tools of the catalogue.
func NewLLM(cfg LLMConfig, catalogue Catalogue, opts ...Option) *LLM {
	o := applyOptions(opts)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	return &LLM{
		client:   openai.NewClient(reqOpts...),
		model:    cfg.Model,
		tools:    catalogue,
		logger:   o.logger,
		observer: o.observer,
		maxSteps: o.maxSteps,
	}
}

func (a *LLM) emit(out *Outcome, e Event) {
	out.Transcript = append(out.Transcript, e)
	if a.observer != nil {
		a.observer(e)
	}
}

func (a *LLM) toolParams() []openai.ChatCompletionToolUnionParam {
	list := a.tools.Tools(tools.GroupTriage, tools.GroupClinic)
	params := make([]openai.ChatCompletionToolUnionParam, 0, len(list))
	for _, t := range list {
		params = append(params, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.InputSchema()),
		}))
	}
	return params
}

// Run triages a patient who opens with statement. Each model turn may call
// several tools; the run ends when the model answers without tool calls.
func (a *LLM) Run(ctx context.Context, statement string) (Outcome, error) {
	var out Outcome
	a.emit(&out, Event{Kind: EventPatient, Text: statement})

	params := openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("A patient has arrived and says: " + statement),
		},
		Tools: a.toolParams(),
	}

	for turn := 0; turn < a.maxSteps; turn++ {
		completion, err := a.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return out, fmt.Errorf("chat completion failed: %w", err)
		}
		if len(completion.Choices) == 0 {
			return out, ErrNoChoices
		}
		msg := completion.Choices[0].Message
		params.Messages = append(params.Messages, msg.ToParam())

		if len(msg.ToolCalls) == 0 {
			out.Summary = msg.Content
			a.emit(&out, Event{Kind: EventAgent, Text: msg.Content})
			a.logger.Info("Agent finished", "session_id", out.SessionID, "status", out.Final.Status)
			return out, nil
		}

		for _, call := range msg.ToolCalls {
			content := a.execute(ctx, &out, call.Function.Name, call.Function.Arguments)
			params.Messages = append(params.Messages, openai.ToolMessage(content, call.ID))
		}
	}
	return out, fmt.Errorf("%w: %d", ErrTooManySteps, a.maxSteps)
}

// execute runs one tool call and renders its result for the model. Tool
// failures go back to the model as {"error": ...} so it can correct itself.
func (a *LLM) execute(ctx context.Context, out *Outcome, name, rawArgs string) string {
	var args map[string]any
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			a.emit(out, Event{Kind: EventToolCall, Tool: name, Error: err.Error()})
			return errorJSON(fmt.Errorf("arguments are not a JSON object: %w", err))
		}
	}

	result, err := a.tools.Call(ctx, name, args)
	e := Event{Kind: EventToolCall, Tool: name, Args: args, Result: result}
	if err != nil {
		e.Error = err.Error()
		a.emit(out, e)
		a.logger.Warn("Agent tool call failed", "tool", name, "err", err)
		return errorJSON(err)
	}
	a.emit(out, e)

	if resp, ok := result.(domain.Response); ok {
		if resp.SessionID != "" {
			out.SessionID = resp.SessionID
		}
		out.Final = resp
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errorJSON(err)
	}
	return string(raw)
}

func errorJSON(err error) string {
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(raw)
}
