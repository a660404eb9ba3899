package tools

import (
	"context"
	"fmt"

	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/triage/clinic"
)

func (tb *Toolbox) clinicTools() []Tool {
	classifier := clinic.SymptomClassifier{}
	monitor := clinic.VitalsMonitor{}

	return []Tool{
		{
			Name:        "classify_symptoms",
			Group:       GroupClinic,
			Description: "Classify a patient statement by severity and flag critical symptoms that require the emergency protocol.",
			Params: []Param{
				{Name: "patient_statement", Type: TypeString, Description: "What the patient said, verbatim", Required: true},
				{Name: "medical_history", Type: TypeObject, Description: "Result of check_medical_history, if already known"},
			},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				statement, err := stringArg(args, "patient_statement", "")
				if err != nil {
					return nil, err
				}
				raw, err := objectArg(args, "medical_history")
				if err != nil {
					return nil, err
				}
				var history clinic.History
				if err := domain.DecodeMap(raw, &history); err != nil {
					return nil, fmt.Errorf("%w: medical_history: %v", ErrInvalidArguments, err)
				}
				return classifier.Classify(statement, history), nil
			},
		},
		{
			Name:        "check_medical_history",
			Group:       GroupClinic,
			Description: "Look up the patient's chronic conditions, risk factors, allergies and medications relevant to the symptoms.",
			Params: []Param{
				{Name: "symptoms", Type: TypeString, Description: "The chief complaint or symptoms", Required: true},
				{Name: "patient_id", Type: TypeString, Description: "Patient ID (defaults to the patient matched by symptoms)"},
			},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				symptoms, err := stringArg(args, "symptoms", "")
				if err != nil {
					return nil, err
				}
				history := tb.db.CheckConditions(symptoms)
				patientID, err := stringArg(args, "patient_id", history.PatientID)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"medical_history": history,
					"allergies":       tb.db.Allergies(patientID),
					"medications":     tb.db.Medications(patientID),
				}, nil
			},
		},
		{
			Name:        "get_vitals",
			Group:       GroupClinic,
			Description: "Read the patient's vital signs from the bedside monitor and list critical values.",
			Params: []Param{
				{Name: "patient_id", Type: TypeString, Description: "Patient ID (default P001)"},
				{Name: "scenario", Type: TypeString, Description: "Simulation scenario: normal, elevated or critical"},
			},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				patientID, err := stringArg(args, "patient_id", clinic.DefaultPatientID)
				if err != nil {
					return nil, err
				}
				scenario, err := stringArg(args, "scenario", clinic.ScenarioNormal)
				if err != nil {
					return nil, err
				}
				vitals := monitor.Read(patientID, scenario)
				return map[string]any{
					"vitals":          vitals,
					"critical_values": monitor.Assess(vitals),
				}, nil
			},
		},
		{
			Name:        "save_triage_record",
			Group:       GroupClinic,
			Description: "Save a triage record to the patient file. Required by the emergency protocol before the final response.",
			Params: []Param{
				{Name: "patient_id", Type: TypeString, Description: "Patient ID (default P001)"},
				{Name: "triage_data", Type: TypeObject, Description: "The triage_data object returned by the guide", Required: true},
			},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				raw, err := objectArg(args, "triage_data")
				if err != nil {
					return nil, err
				}
				var data clinic.TriageData
				if err := domain.DecodeMap(raw, &data); err != nil {
					return nil, fmt.Errorf("%w: triage_data: %v", ErrInvalidArguments, err)
				}
				fallback := data.PatientID
				if fallback == "" {
					fallback = clinic.DefaultPatientID
				}
				patientID, err := stringArg(args, "patient_id", fallback)
				if err != nil {
					return nil, err
				}
				return tb.db.SaveTriageRecord(ctx, patientID, data)
			},
		},
	}
}
