package clinic

import "strings"

// Severity values returned by the classifier.
const (
	SeverityCritical     = "critical"
	SeverityModerateHigh = "moderate-high"
	SeverityModerate     = "moderate"
	SeverityLow          = "low"
)

var criticalSymptoms = []string{
	"chest pain", "crushing chest pain", "severe chest pain",
	"difficulty breathing", "shortness of breath", "cannot breathe",
	"severe bleeding", "uncontrolled bleeding",
	"altered consciousness", "confusion", "unresponsive",
	"severe head injury", "stroke symptoms",
	"severe abdominal pain", "suspected heart attack",
}

var moderateSymptoms = []string{
	"persistent cough", "fever", "vomiting",
	"moderate pain", "dizziness", "weakness",
	"rash", "swelling",
}

// Classification is the classifier's verdict on a patient statement.
type Classification struct {
	Severity                  string   `json:"severity" mapstructure:"severity"`
	CriticalSymptoms          []string `json:"critical_symptoms" mapstructure:"critical_symptoms"`
	ModerateSymptoms          []string `json:"moderate_symptoms" mapstructure:"moderate_symptoms"`
	RiskFactors               []string `json:"risk_factors" mapstructure:"risk_factors"`
	Recommendation            string   `json:"recommendation" mapstructure:"recommendation"`
	RequiresEmergencyProtocol bool     `json:"requires_emergency_protocol" mapstructure:"requires_emergency_protocol"`
}

// SymptomClassifier is a keyword-based stand-in for a clinical decision support system.
type SymptomClassifier struct{}

// Classify grades a patient statement, taking risk factors from history into account.
func (SymptomClassifier) Classify(statement string, history History) Classification {
	lower := strings.ToLower(statement)

	c := Classification{
		CriticalSymptoms: matching(lower, criticalSymptoms),
		ModerateSymptoms: matching(lower, moderateSymptoms),
		RiskFactors:      []string{},
	}
	if history.HighRisk {
		c.RiskFactors = append(c.RiskFactors, "high-risk medical history")
	}
	if history.CardiacHistory {
		c.RiskFactors = append(c.RiskFactors, "cardiac history")
	}
	c.RiskFactors = append(c.RiskFactors, history.ChronicConditions...)

	switch {
	case len(c.CriticalSymptoms) > 0:
		c.Severity, c.Recommendation = SeverityCritical, "immediate_emergency_care"
	case len(c.ModerateSymptoms) > 0 && len(c.RiskFactors) > 0:
		c.Severity, c.Recommendation = SeverityModerateHigh, "urgent_evaluation"
	case len(c.ModerateSymptoms) > 0:
		c.Severity, c.Recommendation = SeverityModerate, "prompt_evaluation"
	default:
		c.Severity, c.Recommendation = SeverityLow, "routine_assessment"
	}
	c.RequiresEmergencyProtocol = len(c.CriticalSymptoms) > 0
	return c
}

func matching(statement string, symptoms []string) []string {
	found := []string{}
	for _, symptom := range symptoms {
		if strings.Contains(statement, symptom) {
			found = append(found, symptom)
		}
	}
	return found
}
