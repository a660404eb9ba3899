package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/toolguide/internal/runtime"
	"github.com/aretw0/toolguide/pkg/adapters/memory"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/pizza"
	"github.com/aretw0/toolguide/pkg/guides/triage"
	"github.com/aretw0/toolguide/pkg/guides/triage/clinic"
	"github.com/aretw0/toolguide/pkg/session"
	"github.com/aretw0/toolguide/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolbox(t *testing.T, opts ...tools.Option) *tools.Toolbox {
	t.Helper()
	eng := runtime.NewEngine(session.NewManager(memory.NewStore()))
	require.NoError(t, eng.Register(pizza.New()))
	require.NoError(t, eng.Register(triage.MustNew()))
	return tools.New(eng, opts...)
}

func TestToolbox_Catalogue(t *testing.T) {
	tb := newToolbox(t)

	var names []string
	for _, tool := range tb.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{
		"cancel_pizza_order", "cancel_triage", "check_medical_history", "classify_symptoms",
		"continue_pizza_order", "continue_triage", "get_order_status", "get_triage_session",
		"get_vitals", "save_triage_record", "start_pizza_order", "start_triage",
	}, names)

	assert.Len(t, tb.Tools(tools.GroupClinic), 4)
	assert.Len(t, tb.Tools(tools.GroupTriage, tools.GroupClinic), 8)

	cont, ok := tb.Tool("continue_triage")
	require.True(t, ok)
	schema := cont.InputSchema()
	assert.Equal(t, []string{"session_id", "report"}, schema["required"])
}

func TestToolbox_PizzaFlow(t *testing.T) {
	tb := newToolbox(t)
	ctx := context.Background()

	out, err := tb.Call(ctx, "start_pizza_order", nil)
	require.NoError(t, err)
	start := out.(domain.Response)
	require.NotEmpty(t, start.SessionID)

	for _, answer := range []string{"regular", "meat", "bacon, ham", "small"} {
		_, err := tb.Call(ctx, "continue_pizza_order", map[string]any{"session_id": start.SessionID, "user_response": answer})
		require.NoError(t, err)
	}

	out, err = tb.Call(ctx, "get_order_status", map[string]any{"session_id": start.SessionID})
	require.NoError(t, err)
	status := out.(map[string]any)
	assert.Equal(t, "found", status["status"])
	order := status["order"].(map[string]any)
	assert.Equal(t, "Regular", order["crust"])

	out, err = tb.Call(ctx, "cancel_pizza_order", map[string]any{"session_id": start.SessionID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, out.(domain.Response).Status)

	out, err = tb.Call(ctx, "get_order_status", map[string]any{"session_id": start.SessionID})
	require.NoError(t, err)
	assert.Equal(t, "Order "+start.SessionID+" not found", out.(map[string]any)["message"])
}

func TestToolbox_ArgumentErrors(t *testing.T) {
	tb := newToolbox(t, tools.WithMaxInputSize(8))
	ctx := context.Background()

	_, err := tb.Call(ctx, "nope", nil)
	assert.ErrorIs(t, err, tools.ErrUnknownTool)

	_, err = tb.Call(ctx, "continue_pizza_order", map[string]any{"session_id": "abc"})
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)

	_, err = tb.Call(ctx, "continue_pizza_order", map[string]any{"session_id": "abc", "user_response": 42})
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)

	_, err = tb.Call(ctx, "continue_pizza_order", map[string]any{"session_id": "abc", "user_response": "far too long for the limit"})
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)

	_, err = tb.Call(ctx, "continue_triage", map[string]any{"session_id": "abc", "report": "not json"})
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)
}

func TestToolbox_EmergencyTriageWithClinicTools(t *testing.T) {
	records := clinic.NewMemoryRecords()
	db := clinic.NewDatabase(clinic.WithRecordStore(records), clinic.WithRecordIDs(func() string { return "TRIAGE-1234" }))
	tb := newToolbox(t, tools.WithDatabase(db))
	ctx := context.Background()

	out, err := tb.Call(ctx, "start_triage", nil)
	require.NoError(t, err)
	id := out.(domain.Response).SessionID

	out, err = tb.Call(ctx, "classify_symptoms", map[string]any{"patient_statement": "severe chest pain"})
	require.NoError(t, err)
	classification := out.(clinic.Classification)
	require.True(t, classification.RequiresEmergencyProtocol)

	// Reports arrive as JSON over the wire.
	raw, err := json.Marshal(map[string]any{"classification": classification, "patient_statement": "severe chest pain"})
	require.NoError(t, err)
	out, err = tb.Call(ctx, "continue_triage", map[string]any{"session_id": id, "report": string(raw)})
	require.NoError(t, err)
	resp := out.(domain.Response)
	require.Equal(t, domain.StatusEmergencySaveRequired, resp.Status)

	out, err = tb.Call(ctx, "save_triage_record", map[string]any{"triage_data": resp.Extra["triage_data"]})
	require.NoError(t, err)
	saved := out.(clinic.SavedRecord)
	assert.Equal(t, "TRIAGE-1234", saved.RecordID)
	assert.Equal(t, "P001", saved.PatientID)

	out, err = tb.Call(ctx, "continue_triage", map[string]any{
		"session_id": id,
		"report":     map[string]any{"record_id": saved.RecordID, "status": saved.Status},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmergency, out.(domain.Response).Status)

	out, err = tb.Call(ctx, "get_triage_session", map[string]any{"session_id": id})
	require.NoError(t, err)
	view := out.(map[string]any)["session"].(map[string]any)
	assert.Equal(t, triage.LevelImmediate.String(), view["triage_level"])

	_, found, err := records.Get(ctx, "TRIAGE-1234")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestToolbox_ClinicLookups(t *testing.T) {
	tb := newToolbox(t)
	ctx := context.Background()

	out, err := tb.Call(ctx, "check_medical_history", map[string]any{"symptoms": "mild headache"})
	require.NoError(t, err)
	history := out.(map[string]any)
	assert.Equal(t, "P002", history["medical_history"].(clinic.History).PatientID)
	assert.Equal(t, []string{}, history["allergies"])

	out, err = tb.Call(ctx, "get_vitals", map[string]any{"scenario": "critical"})
	require.NoError(t, err)
	vitals := out.(map[string]any)
	assert.Len(t, vitals["critical_values"], 3)
}
