package triage_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/toolguide/internal/runtime"
	"github.com/aretw0/toolguide/pkg/adapters/file"
	"github.com/aretw0/toolguide/pkg/adapters/memory"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/triage"
	"github.com/aretw0/toolguide/pkg/ports"
	"github.com/aretw0/toolguide/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, store ports.SessionStore) *runtime.Engine {
	t.Helper()
	eng := runtime.NewEngine(session.NewManager(store))
	g, err := triage.New()
	require.NoError(t, err)
	require.NoError(t, eng.Register(g))
	return eng
}

func report(t *testing.T, eng *runtime.Engine, id string, r map[string]any) domain.Response {
	t.Helper()
	resp, err := eng.Continue(context.Background(), triage.Name, id, domain.ReportInput(r))
	require.NoError(t, err)
	return resp
}

func stepNames(t *testing.T, resp domain.Response) []string {
	t.Helper()
	trail, ok := resp.Extra["audit_trail"].([]domain.AuditStep)
	require.True(t, ok, "audit_trail missing")
	names := make([]string, len(trail))
	for i, s := range trail {
		names[i] = s.Step
	}
	return names
}

func TestTriage_Start(t *testing.T) {
	eng := newEngine(t, memory.NewStore())

	resp, err := eng.Start(context.Background(), triage.Name)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, resp.Status)
	assert.Equal(t, triage.TaskScreenRedFlags, resp.Task)
	assert.Equal(t, []string{"symptoms_present", "symptom_details"}, resp.RequiredData)
	assert.Equal(t, "Emergency Department Triage Protocol - Red Flag Screening (Mandatory)", resp.Protocol)
	assert.Contains(t, resp.InstructionsForAgent, "CRITICAL")
	assert.Contains(t, resp.Prompt, "Severe chest pain or pressure")
}

func TestTriage_StandardPath(t *testing.T) {
	stores := map[string]ports.SessionStore{
		"memory": memory.NewStore(),
		"file":   file.New(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			eng := newEngine(t, store)
			ctx := context.Background()

			start, err := eng.Start(ctx, triage.Name)
			require.NoError(t, err)
			id := start.SessionID

			resp := report(t, eng, id, map[string]any{
				"symptoms_detected": []string{},
				"patient_statement": "No, none of those symptoms",
				"classification":    map[string]any{"severity": "low", "requires_emergency_protocol": false},
			})
			assert.Equal(t, triage.TaskGatherChiefComplaint, resp.Task)
			assert.Equal(t, "Thank you. Now, what brings you in today? What is the main issue you're experiencing?", resp.Prompt)

			resp = report(t, eng, id, map[string]any{"chief_complaint": "Just a headache, nothing severe"})
			assert.Equal(t, triage.TaskCheckMedicalHistory, resp.Task)

			resp = report(t, eng, id, map[string]any{
				"medical_history":      map[string]any{"patient_id": "P001", "high_risk": true},
				"high_risk_conditions": []string{"hypertension"},
			})
			assert.Equal(t, triage.TaskGetVitalSigns, resp.Task)
			assert.Len(t, resp.RequiredData, 5)

			resp = report(t, eng, id, map[string]any{
				"vitals":          map[string]any{"heart_rate": map[string]any{"bpm": 72, "status": "NORMAL"}},
				"critical_values": []string{},
			})
			assert.Equal(t, triage.TaskAssessSeverity, resp.Task)
			data, ok := resp.Extra["data_for_assessment"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, 2, data["severity_score"])

			resp = report(t, eng, id, map[string]any{})
			assert.Equal(t, domain.StatusComplete, resp.Status)
			assert.Equal(t, triage.LevelSemiUrgent.String(), resp.Extra["triage_level"])
			assert.Equal(t, "Urgent Care - within 60 minutes", resp.Extra["recommendation"])
			assert.Contains(t, resp.Message, "Medical history: Risk factors present")
			assert.Contains(t, resp.Message, "Vital signs: Within normal limits")
			assert.Contains(t, resp.Message, "Visit Urgent Care within 1 hour")

			compliance := resp.Extra["protocol_compliance"].(map[string]any)
			assert.Equal(t, true, compliance["red_flags_screened"])
			assert.Equal(t, true, compliance["vitals_obtained"])
			assert.Equal(t, true, compliance["history_reviewed"])

			assert.Equal(t, []string{
				"triage_started",
				"red_flag_screening",
				"red_flag_screening_passed",
				"chief_complaint_gathered",
				"medical_history_checked",
				"vital_signs_obtained",
				"triage_completed",
			}, stepNames(t, resp))

			view, found, err := eng.Get(ctx, triage.Name, id)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "COMPLETE", view["state"])
			assert.Equal(t, triage.LevelSemiUrgent.String(), view["triage_level"])
		})
	}
}

func TestTriage_EmergencyPath(t *testing.T) {
	eng := newEngine(t, memory.NewStore())
	ctx := context.Background()

	start, err := eng.Start(ctx, triage.Name)
	require.NoError(t, err)
	id := start.SessionID

	resp := report(t, eng, id, map[string]any{
		"symptoms_detected": []string{"chest pain"},
		"patient_statement": "Yes, severe chest pain and some difficulty breathing",
		"classification": map[string]any{
			"severity":                    "critical",
			"critical_symptoms":           []string{"chest pain", "difficulty breathing"},
			"requires_emergency_protocol": true,
		},
		"medical_history": map[string]any{"patient_id": "P001"},
	})
	assert.Equal(t, domain.StatusEmergencySaveRequired, resp.Status)
	assert.Equal(t, triage.DecisionEmergencyEscalation, resp.Decision)
	assert.Equal(t, triage.TaskSaveTriageRecord, resp.Task)
	assert.Equal(t, triage.LevelImmediate.String(), resp.Extra["triage_level"])
	assert.Contains(t, resp.Extra["emergency_message"], "Call 911")

	triageData := resp.Extra["triage_data"].(map[string]any)
	assert.Equal(t, "P001", triageData["patient_id"])
	assert.Equal(t, "Yes, severe chest pain and some difficulty breathing", triageData["complaint"])
	assert.Equal(t, []string{"triage_started", "red_flag_screening", "emergency_escalation_activated"}, stepNames(t, resp))

	resp = report(t, eng, id, map[string]any{"record_id": "TRIAGE-1234", "status": "saved"})
	assert.Equal(t, domain.StatusEmergency, resp.Status)
	assert.Equal(t, triage.TaskEmergencyResponse, resp.Task)
	assert.Equal(t, []string{"chest pain", "difficulty breathing"}, resp.Extra["red_flags_detected"])
	assert.Contains(t, resp.Message, "EMERGENCY")

	view, found, err := eng.Get(ctx, triage.Name, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "COMPLETE", view["state"])
	assert.Equal(t, "IMMEDIATE EMERGENCY CARE REQUIRED", view["recommendation"])
}

func TestTriage_InvalidReportStaysInState(t *testing.T) {
	eng := newEngine(t, memory.NewStore())
	ctx := context.Background()

	start, err := eng.Start(ctx, triage.Name)
	require.NoError(t, err)

	resp := report(t, eng, start.SessionID, map[string]any{
		"classification": map[string]any{"requires_emergency_protocol": "maybe"},
	})
	assert.Equal(t, domain.StatusInProgress, resp.Status)
	assert.True(t, resp.StayInState)
	assert.Equal(t, triage.TaskScreenRedFlags, resp.Task)
	problems, ok := resp.Extra["validation_errors"].([]string)
	require.True(t, ok)
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0], "/classification/requires_emergency_protocol")

	resp, err = eng.Continue(ctx, triage.Name, start.SessionID, domain.TextInput("no red flags"))
	require.NoError(t, err)
	assert.True(t, resp.StayInState, "a missing report is rejected too")

	view, _, err := eng.Get(ctx, triage.Name, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, string(triage.StateRedFlagScreening), view["state"])
}

func TestTriage_CancelAndUnknownSession(t *testing.T) {
	eng := newEngine(t, memory.NewStore())
	ctx := context.Background()

	start, err := eng.Start(ctx, triage.Name)
	require.NoError(t, err)

	resp, err := eng.Cancel(ctx, triage.Name, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Triage session cancelled.", resp.Message)

	resp = report(t, eng, start.SessionID, map[string]any{})
	assert.Equal(t, domain.StatusError, resp.Status)
	assert.Equal(t, "Session "+start.SessionID+" not found. Please start a new triage.", resp.Message)
}

func TestTriage_ResponsesAreFlatJSON(t *testing.T) {
	eng := newEngine(t, memory.NewStore())
	start, err := eng.Start(context.Background(), triage.Name)
	require.NoError(t, err)

	raw, err := json.Marshal(start)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "screen_red_flags", m["task"])
	assert.Contains(t, m, "instructions_for_agent")
	assert.NotContains(t, m, "instructions_for_ai")
}
