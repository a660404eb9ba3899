package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/toolguide/internal/logging"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/triage"
	"github.com/aretw0/toolguide/pkg/guides/triage/clinic"
)

// DefaultMaxSteps bounds how many reports an agent files in one session.
const DefaultMaxSteps = 20

// ErrTooManySteps is returned when the guide never reaches a final status.
var ErrTooManySteps = errors.New("agent exceeded maximum steps")

// Caller runs a named tool.
type Caller interface {
	Call(ctx context.Context, name string, args map[string]any) (any, error)
}

// Scripted is a deterministic triage agent.
type Scripted struct {
	tools    Caller
	patient  clinic.InterviewSimulator
	logger   *slog.Logger
	observer Observer
	maxSteps int
}

// Option configures an agent.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer Observer
	maxSteps int
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver streams transcript events while the agent runs.
func WithObserver(fn Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: logging.NewNop(), maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewScripted creates a scripted agent over the tool catalogue.
func NewScripted(caller Caller, opts ...Option) *Scripted {
	o := applyOptions(opts)
	return &Scripted{
		tools:    caller,
		logger:   o.logger,
		observer: o.observer,
		maxSteps: o.maxSteps,
	}
}

// run is the state of one scripted session.
type run struct {
	*Scripted
	scenario string
	outcome  Outcome
}

func (r *run) emit(e Event) {
	r.outcome.Transcript = append(r.outcome.Transcript, e)
	if r.observer != nil {
		r.observer(e)
	}
}

func (r *run) call(ctx context.Context, name string, args map[string]any) (any, error) {
	result, err := r.tools.Call(ctx, name, args)
	e := Event{Kind: EventToolCall, Tool: name, Args: args, Result: result}
	if err != nil {
		e.Error = err.Error()
	}
	r.emit(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}

func (r *run) ask(question string) string {
	answer := r.patient.Answer(r.scenario, question)
	r.emit(Event{Kind: EventPatient, Text: answer})
	return answer
}

// Run triages the patient of the given interview scenario from start to finish.
func (s *Scripted) Run(ctx context.Context, scenario string) (Outcome, error) {
	r := &run{Scripted: s, scenario: scenario}

	result, err := r.call(ctx, "start_triage", nil)
	if err != nil {
		return r.outcome, err
	}
	resp := result.(domain.Response)
	r.outcome.SessionID = resp.SessionID
	s.logger.Info("Triage started", "session_id", resp.SessionID, "scenario", scenario)

	for step := 0; ; step++ {
		if resp.Status.Final() || resp.Status == domain.StatusError {
			r.outcome.Final = resp
			s.logger.Info("Triage finished", "session_id", resp.SessionID, "status", resp.Status)
			return r.outcome, nil
		}
		if step >= s.maxSteps {
			r.outcome.Final = resp
			return r.outcome, fmt.Errorf("%w: %d", ErrTooManySteps, s.maxSteps)
		}

		report, err := r.perform(ctx, resp)
		if err != nil {
			return r.outcome, err
		}
		result, err := r.call(ctx, "continue_triage", map[string]any{
			"session_id": resp.SessionID,
			"report":     report,
		})
		if err != nil {
			return r.outcome, err
		}
		resp = result.(domain.Response)
	}
}

// perform carries out the task the guide asked for and builds the report.
func (r *run) perform(ctx context.Context, resp domain.Response) (map[string]any, error) {
	switch resp.Task {
	case triage.TaskScreenRedFlags:
		initial := r.ask(clinic.QuestionInitial)
		answer := r.ask(clinic.QuestionRedFlags)
		history, err := r.call(ctx, "check_medical_history", map[string]any{"symptoms": initial})
		if err != nil {
			return nil, err
		}
		historyMap, err := asMap(history)
		if err != nil {
			return nil, err
		}
		medical := historyMap["medical_history"]
		result, err := r.call(ctx, "classify_symptoms", map[string]any{
			"patient_statement": initial + ". " + answer,
			"medical_history":   medical,
		})
		if err != nil {
			return nil, err
		}
		classification, err := asMap(result)
		if err != nil {
			return nil, err
		}
		detected := append([]any{}, anySlice(classification["critical_symptoms"])...)
		detected = append(detected, anySlice(classification["moderate_symptoms"])...)
		return map[string]any{
			"symptoms_detected": detected,
			"patient_statement": initial,
			"classification":    classification,
			"medical_history":   medical,
		}, nil

	case triage.TaskGatherChiefComplaint:
		answer := r.ask(clinic.QuestionComplaint)
		return map[string]any{"chief_complaint": answer, "symptom_description": answer}, nil

	case triage.TaskCheckMedicalHistory:
		r.ask(clinic.QuestionHistory)
		result, err := r.call(ctx, "check_medical_history", map[string]any{
			"symptoms": r.patient.Answer(r.scenario, clinic.QuestionComplaint),
		})
		if err != nil {
			return nil, err
		}
		report, err := asMap(result)
		if err != nil {
			return nil, err
		}
		medical, _ := report["medical_history"].(map[string]any)
		highRisk := []any{}
		if risky, _ := medical["high_risk"].(bool); risky {
			highRisk = anySlice(medical["chronic_conditions"])
		}
		report["high_risk_conditions"] = highRisk
		return report, nil

	case triage.TaskGetVitalSigns:
		result, err := r.call(ctx, "get_vitals", map[string]any{
			"patient_id": clinic.DefaultPatientID,
			"scenario":   clinic.VitalsScenario(r.scenario),
		})
		if err != nil {
			return nil, err
		}
		return asMap(result)

	case triage.TaskAssessSeverity:
		return map[string]any{"assessment": "All protocol data collected; requesting triage level."}, nil

	case triage.TaskSaveTriageRecord:
		data, _ := resp.Extra["triage_data"].(map[string]any)
		result, err := r.call(ctx, "save_triage_record", map[string]any{"triage_data": data})
		if err != nil {
			return nil, err
		}
		saved, err := asMap(result)
		if err != nil {
			return nil, err
		}
		return map[string]any{"record_id": saved["record_id"], "status": saved["status"]}, nil
	}
	return nil, fmt.Errorf("agent cannot perform task %q", resp.Task)
}

func anySlice(v any) []any {
	s, _ := v.([]any)
	if s == nil {
		return []any{}
	}
	return s
}
