package clinic

// Vitals scenarios.
const (
	ScenarioNormal   = "normal"
	ScenarioElevated = "elevated"
	ScenarioCritical = "critical"
)

// Reading statuses.
const (
	StatusNormal           = "NORMAL"
	StatusElevated         = "ELEVATED"
	StatusSlightlyElevated = "SLIGHTLY_ELEVATED"
	StatusCritical         = "CRITICAL"
	StatusLow              = "LOW"
)

// BloodPressure reading.
type BloodPressure struct {
	Systolic  int    `json:"systolic" mapstructure:"systolic"`
	Diastolic int    `json:"diastolic" mapstructure:"diastolic"`
	Unit      string `json:"unit" mapstructure:"unit"`
	Status    string `json:"status" mapstructure:"status"`
}

// HeartRate reading.
type HeartRate struct {
	BPM    int    `json:"bpm" mapstructure:"bpm"`
	Unit   string `json:"unit" mapstructure:"unit"`
	Status string `json:"status" mapstructure:"status"`
}

// RespiratoryRate reading.
type RespiratoryRate struct {
	Rate   int    `json:"rate" mapstructure:"rate"`
	Unit   string `json:"unit" mapstructure:"unit"`
	Status string `json:"status" mapstructure:"status"`
}

// Measurement is a generic value reading (temperature, saturation).
type Measurement struct {
	Value  float64 `json:"value" mapstructure:"value"`
	Unit   string  `json:"unit" mapstructure:"unit"`
	Status string  `json:"status" mapstructure:"status"`
}

// Vitals is a full set of vital signs.
type Vitals struct {
	BloodPressure    BloodPressure   `json:"blood_pressure" mapstructure:"blood_pressure"`
	HeartRate        HeartRate       `json:"heart_rate" mapstructure:"heart_rate"`
	RespiratoryRate  RespiratoryRate `json:"respiratory_rate" mapstructure:"respiratory_rate"`
	Temperature      Measurement     `json:"temperature" mapstructure:"temperature"`
	OxygenSaturation Measurement     `json:"oxygen_saturation" mapstructure:"oxygen_saturation"`
	Timestamp        string          `json:"timestamp" mapstructure:"timestamp"`
}

const vitalsTimestamp = "2024-11-11T16:30:00Z"

// VitalsMonitor simulates bedside monitoring equipment.
type VitalsMonitor struct{}

// Read returns the vitals of the given scenario. Unknown scenarios read normal.
func (VitalsMonitor) Read(patientID, scenario string) Vitals {
	switch scenario {
	case ScenarioCritical:
		return Vitals{
			BloodPressure:    BloodPressure{180, 110, "mmHg", StatusCritical},
			HeartRate:        HeartRate{120, "bpm", StatusCritical},
			RespiratoryRate:  RespiratoryRate{28, "breaths/min", StatusElevated},
			Temperature:      Measurement{98.6, "°F", StatusNormal},
			OxygenSaturation: Measurement{92, "%", StatusLow},
			Timestamp:        vitalsTimestamp,
		}
	case ScenarioElevated:
		return Vitals{
			BloodPressure:    BloodPressure{145, 92, "mmHg", StatusElevated},
			HeartRate:        HeartRate{95, "bpm", StatusNormal},
			RespiratoryRate:  RespiratoryRate{18, "breaths/min", StatusNormal},
			Temperature:      Measurement{99.2, "°F", StatusSlightlyElevated},
			OxygenSaturation: Measurement{96, "%", StatusNormal},
			Timestamp:        vitalsTimestamp,
		}
	}
	return Vitals{
		BloodPressure:    BloodPressure{120, 80, "mmHg", StatusNormal},
		HeartRate:        HeartRate{72, "bpm", StatusNormal},
		RespiratoryRate:  RespiratoryRate{16, "breaths/min", StatusNormal},
		Temperature:      Measurement{98.6, "°F", StatusNormal},
		OxygenSaturation: Measurement{98, "%", StatusNormal},
		Timestamp:        vitalsTimestamp,
	}
}

// Assess lists the critical findings in a set of vitals.
func (VitalsMonitor) Assess(v Vitals) []string {
	findings := []string{}
	if v.BloodPressure.Status == StatusCritical {
		findings = append(findings, "Severely elevated blood pressure")
	}
	if v.HeartRate.Status == StatusCritical {
		findings = append(findings, "Tachycardia (elevated heart rate)")
	}
	if v.OxygenSaturation.Status == StatusLow {
		findings = append(findings, "Low oxygen saturation")
	}
	return findings
}
