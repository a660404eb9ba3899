package triage

import "fmt"

// Level is a standard emergency triage level, 1 (most urgent) to 5.
type Level int

const (
	LevelImmediate  Level = 1
	LevelEmergency  Level = 2
	LevelUrgent     Level = 3
	LevelSemiUrgent Level = 4
	LevelNonUrgent  Level = 5
)

var levelLabels = map[Level]string{
	LevelImmediate:  "Level 1 - Immediate (Life-threatening)",
	LevelEmergency:  "Level 2 - Emergency (10 min)",
	LevelUrgent:     "Level 3 - Urgent (30 min)",
	LevelSemiUrgent: "Level 4 - Semi-urgent (60 min)",
	LevelNonUrgent:  "Level 5 - Non-urgent (120 min)",
}

func (l Level) String() string {
	if label, ok := levelLabels[l]; ok {
		return label
	}
	return fmt.Sprintf("Level %d", int(l))
}

// Valid reports whether l is one of the five defined levels.
func (l Level) Valid() bool {
	_, ok := levelLabels[l]
	return ok
}

// Recommendation is the care setting that matches the level.
func (l Level) Recommendation() string {
	switch l {
	case LevelImmediate:
		return "IMMEDIATE EMERGENCY CARE REQUIRED"
	case LevelEmergency:
		return "Emergency Department - within 10 minutes"
	case LevelUrgent:
		return "Urgent Care or ED - within 30 minutes"
	case LevelSemiUrgent:
		return "Urgent Care - within 60 minutes"
	}
	return "Primary care or telehealth - within 24 hours"
}

// NextSteps is the patient-facing instruction for the level.
func (l Level) NextSteps() string {
	switch l {
	case LevelImmediate:
		return "Call 911 or go to Emergency Department IMMEDIATELY"
	case LevelEmergency:
		return "Go to Emergency Department within 10 minutes"
	case LevelUrgent:
		return "Visit Urgent Care or ED within 30 minutes"
	case LevelSemiUrgent:
		return "Visit Urgent Care within 1 hour"
	}
	return "Schedule appointment with primary care or use telehealth within 24 hours"
}

// Assess maps the accumulated severity score to a level.
// Critical vitals always mean at least an emergency.
func Assess(score int, vitalsCritical bool) Level {
	switch {
	case score >= 5 || vitalsCritical:
		return LevelEmergency
	case score >= 3:
		return LevelUrgent
	case score >= 2:
		return LevelSemiUrgent
	}
	return LevelNonUrgent
}
