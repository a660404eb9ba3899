package triage

import (
	"github.com/aretw0/toolguide/pkg/domain"
)

// Record is the data collected by the triage guide.
type Record struct {
	RedFlagsChecked bool     `mapstructure:"red_flags_checked"`
	HasRedFlags     bool     `mapstructure:"has_red_flags"`
	RedFlagDetails  []string `mapstructure:"red_flag_details"`

	ChiefComplaint string         `mapstructure:"chief_complaint"`
	MedicalHistory map[string]any `mapstructure:"medical_history"`

	Vitals         map[string]any `mapstructure:"vitals"`
	VitalsCritical bool           `mapstructure:"vitals_critical"`

	SeverityScore  int    `mapstructure:"severity_score"`
	Level          Level  `mapstructure:"triage_level"`
	Recommendation string `mapstructure:"recommendation"`
}

// Classification is the output of the symptom classifier as reported by the agent.
type Classification struct {
	Severity                  string   `mapstructure:"severity"`
	CriticalSymptoms          []string `mapstructure:"critical_symptoms"`
	ModerateSymptoms          []string `mapstructure:"moderate_symptoms"`
	RiskFactors               []string `mapstructure:"risk_factors"`
	Recommendation            string   `mapstructure:"recommendation"`
	RequiresEmergencyProtocol bool     `mapstructure:"requires_emergency_protocol"`
}

// RedFlagReport is reported in RED_FLAG_SCREENING.
type RedFlagReport struct {
	SymptomsDetected []string       `mapstructure:"symptoms_detected"`
	PatientStatement string         `mapstructure:"patient_statement"`
	Classification   Classification `mapstructure:"classification"`
	MedicalHistory   map[string]any `mapstructure:"medical_history"`
}

// HistoryReport is reported in MEDICAL_HISTORY.
type HistoryReport struct {
	MedicalHistory     map[string]any `mapstructure:"medical_history"`
	HighRiskConditions []string       `mapstructure:"high_risk_conditions"`
}

// VitalsReport is reported in VITAL_SIGNS.
type VitalsReport struct {
	Vitals         map[string]any `mapstructure:"vitals"`
	CriticalValues []string       `mapstructure:"critical_values"`
}

// SaveReport is reported in SAVE_RECORD, after the record tool ran.
type SaveReport struct {
	RecordID string `mapstructure:"record_id"`
	Status   string `mapstructure:"status"`
}

// View is the public form of a triage session.
func View(s *domain.Session) map[string]any {
	var rec Record
	_ = s.DecodeData(&rec)

	view := map[string]any{
		"session_id":     s.ID,
		"state":          string(s.State),
		"triage_level":   nil,
		"recommendation": nil,
		"protocol_steps": steps(s),
	}
	if rec.Level.Valid() {
		view["triage_level"] = rec.Level.String()
	}
	if rec.Recommendation != "" {
		view["recommendation"] = rec.Recommendation
	}
	return view
}

func steps(s *domain.Session) []domain.AuditStep {
	if s.Steps == nil {
		return []domain.AuditStep{}
	}
	return s.Steps
}
