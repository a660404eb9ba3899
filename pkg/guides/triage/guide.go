// Package triage implements the medical triage guide: an agent protocol where
// the guide hands out one mandatory task at a time and the agent reports the
// structured result back.
//
// This is demonstration code with fake clinical rules, not medical software.
package triage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/toolguide/pkg/domain"
)

// Name is the registry name of the guide.
const Name = "triage"

// States.
const (
	StateRedFlagScreening   domain.StateName = "RED_FLAG_SCREENING"
	StateChiefComplaint     domain.StateName = "CHIEF_COMPLAINT"
	StateMedicalHistory     domain.StateName = "MEDICAL_HISTORY"
	StateVitalSigns         domain.StateName = "VITAL_SIGNS"
	StateSeverityAssessment domain.StateName = "SEVERITY_ASSESSMENT"
	StateSaveRecord         domain.StateName = "SAVE_RECORD"
)

// Tasks handed to the agent.
const (
	TaskScreenRedFlags       = "screen_red_flags"
	TaskGatherChiefComplaint = "gather_chief_complaint"
	TaskCheckMedicalHistory  = "check_medical_history"
	TaskGetVitalSigns        = "get_vital_signs"
	TaskAssessSeverity       = "assess_severity"
	TaskSaveTriageRecord     = "save_triage_record"
	TaskEmergencyResponse    = "emergency_response"
)

// DecisionEmergencyEscalation marks the emergency branch.
const DecisionEmergencyEscalation = "EMERGENCY_ESCALATION"

const emergencyMessage = "🚨 EMERGENCY: Based on your symptoms, you need immediate medical attention.\n\n" +
	"Please do ONE of the following RIGHT NOW:\n" +
	"1. Call 911 (or your local emergency number)\n" +
	"2. Go to the nearest Emergency Department\n" +
	"3. If with someone, have them drive you to the ER\n\n" +
	"Do NOT wait. Do NOT drive yourself if symptoms worsen."

// step describes what the agent must do while a session sits in a state.
type step struct {
	task     string
	required []string
	protocol string
}

var stepInfo = map[domain.StateName]step{
	StateRedFlagScreening: {
		task:     TaskScreenRedFlags,
		required: []string{"symptoms_present", "symptom_details"},
		protocol: "Emergency Department Triage Protocol - Red Flag Screening (Mandatory)",
	},
	StateChiefComplaint: {
		task:     TaskGatherChiefComplaint,
		required: []string{"chief_complaint", "symptom_description"},
		protocol: "Standard Triage - Chief Complaint",
	},
	StateMedicalHistory: {
		task:     TaskCheckMedicalHistory,
		required: []string{"medical_history", "medications", "allergies"},
		protocol: "Standard Triage - Medical History Review",
	},
	StateVitalSigns: {
		task:     TaskGetVitalSigns,
		required: []string{"blood_pressure", "heart_rate", "temperature", "respiratory_rate", "oxygen_saturation"},
		protocol: "Standard Triage - Vital Signs (Mandatory)",
	},
	StateSeverityAssessment: {
		task:     TaskAssessSeverity,
		protocol: "Final Triage Assessment",
	},
	StateSaveRecord: {
		task:     TaskSaveTriageRecord,
		required: []string{"record_id", "status"},
		protocol: "Emergency Escalation Protocol - Record Saving",
	},
}

// TaskFor returns the task the agent must perform in state.
func TaskFor(state domain.StateName) string {
	return stepInfo[state].task
}

// stepHandler runs with the decoded record and a schema-valid, JSON-normalized report.
type stepHandler func(ctx context.Context, s *domain.Session, rec *Record, report map[string]any) (domain.Response, error)

// New returns the triage guide. Reports are validated against the schema of
// the current state; nonconforming reports are bounced back to the agent.
func New() (*domain.Guide, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}

	wrap := func(state domain.StateName, h stepHandler) domain.Handler {
		return func(ctx context.Context, s *domain.Session, in domain.Input) (domain.Response, error) {
			problems, err := v.Validate(state, in.Report)
			if err != nil {
				return domain.Response{}, err
			}
			if len(problems) > 0 {
				return rejected(state, problems), nil
			}
			report, err := normalizedReport(in.Report)
			if err != nil {
				return domain.Response{}, err
			}

			var rec Record
			if err := s.DecodeData(&rec); err != nil {
				return domain.Response{}, fmt.Errorf("corrupt triage data: %w", err)
			}
			resp, err := h(ctx, s, &rec, report)
			if err != nil {
				return domain.Response{}, err
			}
			if err := s.EncodeData(rec); err != nil {
				return domain.Response{}, err
			}
			return resp, nil
		}
	}

	return &domain.Guide{
		Name:          Name,
		Description:   "Emergency department triage protocol: red flags first, then complaint, history, vitals and assessment.",
		Noun:          "triage",
		CancelMessage: "Triage session cancelled.",
		Initial:       domain.StateStart,
		States: []domain.StateName{
			domain.StateStart,
			StateRedFlagScreening,
			StateChiefComplaint,
			StateMedicalHistory,
			StateVitalSigns,
			StateSeverityAssessment,
			StateSaveRecord,
			domain.StateComplete,
		},
		Transitions: []domain.Transition{
			{From: domain.StateStart, To: StateRedFlagScreening, Label: "start"},
			{From: StateRedFlagScreening, To: StateChiefComplaint, Label: "no red flags"},
			{From: StateRedFlagScreening, To: StateSaveRecord, Label: "emergency"},
			{From: StateChiefComplaint, To: StateMedicalHistory, Label: "complaint"},
			{From: StateMedicalHistory, To: StateVitalSigns, Label: "history"},
			{From: StateVitalSigns, To: StateSeverityAssessment, Label: "vitals"},
			{From: StateSeverityAssessment, To: domain.StateComplete, Label: "assessed"},
			{From: StateSaveRecord, To: domain.StateComplete, Label: "record saved"},
		},
		Begin: begin,
		Handlers: map[domain.StateName]domain.Handler{
			StateRedFlagScreening:   wrap(StateRedFlagScreening, handleRedFlags),
			StateChiefComplaint:     wrap(StateChiefComplaint, handleChiefComplaint),
			StateMedicalHistory:     wrap(StateMedicalHistory, handleMedicalHistory),
			StateVitalSigns:         wrap(StateVitalSigns, handleVitalSigns),
			StateSeverityAssessment: wrap(StateSeverityAssessment, handleSeverityAssessment),
			StateSaveRecord:         wrap(StateSaveRecord, handleSaveRecord),
		},
		Snapshot: View,
	}, nil
}

// MustNew is New for package-level wiring; the embedded schemas always compile.
func MustNew() *domain.Guide {
	g, err := New()
	if err != nil {
		panic(err)
	}
	return g
}

func normalizedReport(report map[string]any) (map[string]any, error) {
	doc, err := normalize(report)
	if err != nil {
		return nil, err
	}
	m, _ := doc.(map[string]any)
	return m, nil
}

func rejected(state domain.StateName, problems []string) domain.Response {
	st := stepInfo[state]
	return domain.Response{
		Status:               domain.StatusInProgress,
		Task:                 st.task,
		StayInState:          true,
		InstructionsForAgent: "The report does not match the protocol for this step. Fix the listed problems and report again.",
		RequiredData:         st.required,
		Protocol:             st.protocol,
	}.With("validation_errors", problems)
}

func instruct(state domain.StateName, instructions string) domain.Response {
	st := stepInfo[state]
	return domain.Response{
		Status:               domain.StatusInProgress,
		Task:                 st.task,
		InstructionsForAgent: instructions,
		RequiredData:         st.required,
		Protocol:             st.protocol,
	}
}

func begin(ctx context.Context, s *domain.Session) domain.Response {
	s.State = StateRedFlagScreening
	s.AddStep("triage_started", map[string]any{"session_id": s.ID})

	r := instruct(StateRedFlagScreening,
		"CRITICAL: Before anything else, screen for emergency symptoms. This is mandatory protocol.")
	r.Prompt = "Before we begin, I need to ask about any immediate concerns:\n\n" +
		"Are you experiencing any of the following RIGHT NOW:\n" +
		"- Severe chest pain or pressure\n" +
		"- Difficulty breathing or shortness of breath\n" +
		"- Loss of consciousness or fainting\n" +
		"- Severe bleeding\n" +
		"- Signs of stroke (face drooping, arm weakness, speech difficulty)\n" +
		"- Severe allergic reaction (swelling, difficulty swallowing)\n\n" +
		"Please answer yes or no, and describe any symptoms."
	return r
}

func handleRedFlags(ctx context.Context, s *domain.Session, rec *Record, report map[string]any) (domain.Response, error) {
	var r RedFlagReport
	if err := domain.DecodeMap(report, &r); err != nil {
		return domain.Response{}, err
	}
	rec.RedFlagsChecked = true

	severity := r.Classification.Severity
	if severity == "" {
		severity = "unknown"
	}
	redFlags := nonNil(r.Classification.CriticalSymptoms)
	s.AddStep("red_flag_screening", map[string]any{
		"symptoms_detected": nonNil(r.SymptomsDetected),
		"severity":          severity,
		"red_flags":         redFlags,
	})

	if !r.Classification.RequiresEmergencyProtocol {
		s.State = StateChiefComplaint
		s.AddStep("red_flag_screening_passed", map[string]any{"result": "no_red_flags"})

		resp := instruct(StateChiefComplaint,
			"Red flag screening passed. Now gather the chief complaint. Ask the patient what brought them in today.")
		resp.Prompt = "Thank you. Now, what brings you in today? What is the main issue you're experiencing?"
		return resp, nil
	}

	rec.HasRedFlags = true
	rec.RedFlagDetails = redFlags
	rec.Level = LevelImmediate
	rec.Recommendation = LevelImmediate.Recommendation()

	s.AddStep("emergency_escalation_activated", map[string]any{
		"decision":     DecisionEmergencyEscalation,
		"triage_level": LevelImmediate.String(),
		"red_flags":    redFlags,
		"reason":       "Critical symptoms detected by classifier",
	})
	s.State = StateSaveRecord

	patientID := "P001"
	if id, ok := r.MedicalHistory["patient_id"].(string); ok && id != "" {
		patientID = id
	}
	recordSeverity := r.Classification.Severity
	if recordSeverity == "" {
		recordSeverity = "critical"
	}

	resp := instruct(StateSaveRecord,
		"Emergency triage completed. Save the triage record to patient file before final response.")
	resp.Status = domain.StatusEmergencySaveRequired
	resp.Decision = DecisionEmergencyEscalation
	resp.RequiredData = nil
	return resp.
		With("triage_level", LevelImmediate.String()).
		With("red_flags_detected", redFlags).
		With("triage_data", map[string]any{
			"patient_id":   patientID,
			"complaint":    r.PatientStatement,
			"severity":     recordSeverity,
			"triage_level": LevelImmediate.String(),
			"red_flags":    redFlags,
		}).
		With("audit_trail", steps(s)).
		With("emergency_message", emergencyMessage), nil
}

func handleChiefComplaint(ctx context.Context, s *domain.Session, rec *Record, report map[string]any) (domain.Response, error) {
	rec.ChiefComplaint, _ = report["chief_complaint"].(string)
	s.AddStep("chief_complaint_gathered", report)
	s.State = StateMedicalHistory

	resp := instruct(StateMedicalHistory,
		"Use available tools to check patient's medical history. "+
			"Look for: chronic conditions, medications, allergies, previous similar episodes. "+
			"This helps assess risk factors.")
	resp.Prompt = "I'm checking your medical history. Do you have any chronic conditions, take any medications, or have any allergies I should know about?"
	return resp, nil
}

func handleMedicalHistory(ctx context.Context, s *domain.Session, rec *Record, report map[string]any) (domain.Response, error) {
	var r HistoryReport
	if err := domain.DecodeMap(report, &r); err != nil {
		return domain.Response{}, err
	}
	rec.MedicalHistory = r.MedicalHistory
	s.AddStep("medical_history_checked", report)

	if len(r.HighRiskConditions) > 0 {
		rec.SeverityScore += 2
	}
	s.State = StateVitalSigns

	resp := instruct(StateVitalSigns,
		"MANDATORY: Obtain vital signs. Use available monitoring tools. "+
			"Required: Blood pressure, heart rate, temperature, respiratory rate, oxygen saturation. "+
			"Flag any critical values immediately.")
	resp.Prompt = "Now I need to check your vital signs. This is a required step for proper assessment."
	return resp, nil
}

func handleVitalSigns(ctx context.Context, s *domain.Session, rec *Record, report map[string]any) (domain.Response, error) {
	var r VitalsReport
	if err := domain.DecodeMap(report, &r); err != nil {
		return domain.Response{}, err
	}
	critical := nonNil(r.CriticalValues)

	rec.Vitals = r.Vitals
	rec.VitalsCritical = len(critical) > 0
	s.AddStep("vital_signs_obtained", map[string]any{
		"vitals":          r.Vitals,
		"critical_values": critical,
	})
	if rec.VitalsCritical {
		rec.SeverityScore += 3
	}
	s.State = StateSeverityAssessment

	resp := instruct(StateSeverityAssessment,
		"All required data collected. Now assess overall severity and determine "+
			"appropriate triage level and care recommendation.")
	return resp.With("data_for_assessment", map[string]any{
		"red_flags":       nonNil(rec.RedFlagDetails),
		"chief_complaint": rec.ChiefComplaint,
		"medical_history": rec.MedicalHistory,
		"vitals":          rec.Vitals,
		"severity_score":  rec.SeverityScore,
	}), nil
}

func handleSeverityAssessment(ctx context.Context, s *domain.Session, rec *Record, report map[string]any) (domain.Response, error) {
	rec.Level = Assess(rec.SeverityScore, rec.VitalsCritical)
	rec.Recommendation = rec.Level.Recommendation()

	s.AddStep("triage_completed", map[string]any{
		"triage_level":   rec.Level.String(),
		"recommendation": rec.Recommendation,
	})
	s.State = domain.StateComplete

	resp := domain.Response{
		Status:  domain.StatusComplete,
		Message: FinalMessage(rec),
	}
	return resp.
		With("triage_level", rec.Level.String()).
		With("recommendation", rec.Recommendation).
		With("protocol_compliance", map[string]any{
			"all_steps_completed": true,
			"red_flags_screened":  rec.RedFlagsChecked,
			"vitals_obtained":     len(rec.Vitals) > 0,
			"history_reviewed":    len(rec.MedicalHistory) > 0,
		}).
		With("audit_trail", steps(s)), nil
}

func handleSaveRecord(ctx context.Context, s *domain.Session, rec *Record, report map[string]any) (domain.Response, error) {
	var r SaveReport
	if err := domain.DecodeMap(report, &r); err != nil {
		return domain.Response{}, err
	}
	s.AddStep("triage_record_saved", map[string]any{
		"record_id": r.RecordID,
		"status":    r.Status,
	})
	s.State = domain.StateComplete

	resp := domain.Response{
		Status:               domain.StatusEmergency,
		Decision:             DecisionEmergencyEscalation,
		Task:                 TaskEmergencyResponse,
		InstructionsForAgent: "Triage record saved. Emergency protocol complete.",
		Message:              emergencyMessage,
		Protocol:             "Emergency Escalation Protocol - Complete",
	}
	return resp.
		With("triage_level", rec.Level.String()).
		With("red_flags_detected", nonNil(rec.RedFlagDetails)).
		With("audit_trail", steps(s)), nil
}

// FinalMessage renders the patient-facing summary of a completed assessment.
func FinalMessage(rec *Record) string {
	vitals := "Within normal limits"
	if rec.VitalsCritical {
		vitals = "Critical values detected"
	}
	history := "Reviewed"
	if highRisk, _ := rec.MedicalHistory["high_risk"].(bool); highRisk {
		history = "Risk factors present"
	}
	return fmt.Sprintf(`TRIAGE ASSESSMENT COMPLETE

Triage Level: %s
Recommendation: %s

Based on:
- Symptoms: %s
- Vital signs: %s
- Medical history: %s

Next Steps:
%s

⚠️ If symptoms worsen or new severe symptoms develop, seek emergency care immediately.

Protocol Compliance: All required steps completed ✓`,
		rec.Level, rec.Recommendation, rec.ChiefComplaint, vitals, history, rec.Level.NextSteps())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ReportJSON is a convenience for hosts that receive reports as JSON text.
func ReportJSON(raw string) (map[string]any, error) {
	var report map[string]any
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("report must be a JSON object: %w", err)
	}
	return report, nil
}
