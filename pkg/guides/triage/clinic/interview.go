package clinic

import "sort"

// Interview scenarios.
const (
	ChestPainEmergency = "chest_pain_emergency"
	MinorIssue         = "minor_issue"
)

// Questions a simulated patient can answer.
const (
	QuestionInitial   = "initial"
	QuestionRedFlags  = "red_flags"
	QuestionComplaint = "complaint"
	QuestionHistory   = "history"
)

var interviews = map[string]map[string]string{
	ChestPainEmergency: {
		QuestionInitial:   "I have severe chest pain that started 30 minutes ago",
		QuestionRedFlags:  "Yes, severe chest pain and some difficulty breathing",
		QuestionComplaint: "Crushing chest pain, radiating to left arm",
		QuestionHistory:   "I have high blood pressure and high cholesterol",
	},
	MinorIssue: {
		QuestionInitial:   "I have a mild headache for the past 2 hours",
		QuestionRedFlags:  "No, none of those symptoms",
		QuestionComplaint: "Just a headache, nothing severe",
		QuestionHistory:   "No chronic conditions, generally healthy",
	},
}

// InterviewSimulator plays the patient in scripted demos.
type InterviewSimulator struct{}

// Answer returns the scripted answer. Unknown scenarios fall back to the minor issue.
func (InterviewSimulator) Answer(scenario, question string) string {
	script, ok := interviews[scenario]
	if !ok {
		script = interviews[MinorIssue]
	}
	if answer, ok := script[question]; ok {
		return answer
	}
	return "I don't know"
}

// Scenarios lists the available interview scenarios.
func Scenarios() []string {
	names := make([]string, 0, len(interviews))
	for name := range interviews {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VitalsScenario is the monitor scenario that goes with an interview.
func VitalsScenario(interview string) string {
	if interview == ChestPainEmergency {
		return ScenarioCritical
	}
	return ScenarioNormal
}
