package clinic

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// Patient is a record of the simulated patient database.
type Patient struct {
	ID             string   `json:"patient_id"`
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Conditions     []string `json:"conditions"`
	CardiacHistory bool     `json:"cardiac_history"`
	PreviousMI     bool     `json:"previous_mi"`
	Medications    []string `json:"medications"`
	Allergies      []string `json:"allergies"`
	LastVisit      string   `json:"last_visit"`
}

var patients = map[string]Patient{
	"P001": {
		ID:             "P001",
		Name:           "Test Patient",
		Age:            55,
		Conditions:     []string{"hypertension", "high cholesterol"},
		CardiacHistory: true,
		Medications:    []string{"lisinopril", "atorvastatin"},
		Allergies:      []string{"penicillin"},
		LastVisit:      "2024-09-15",
	},
	"P002": {
		ID:          "P002",
		Name:        "Test Patient 2",
		Age:         32,
		Conditions:  []string{},
		Medications: []string{},
		Allergies:   []string{},
		LastVisit:   "2024-10-01",
	},
}

// DefaultPatientID is used when the agent does not know who it is talking to.
const DefaultPatientID = "P001"

// History is the risk profile looked up for a complaint.
type History struct {
	PatientID         string   `json:"patient_id" mapstructure:"patient_id"`
	ChronicConditions []string `json:"chronic_conditions" mapstructure:"chronic_conditions"`
	CardiacHistory    bool     `json:"cardiac_history" mapstructure:"cardiac_history"`
	PreviousMI        bool     `json:"previous_mi" mapstructure:"previous_mi"`
	RiskFactors       []string `json:"risk_factors" mapstructure:"risk_factors"`
	HighRisk          bool     `json:"high_risk" mapstructure:"high_risk"`
}

// TriageData is what the guide asks the agent to file after an emergency.
type TriageData struct {
	PatientID   string   `json:"patient_id" mapstructure:"patient_id"`
	Complaint   string   `json:"complaint" mapstructure:"complaint"`
	Severity    string   `json:"severity" mapstructure:"severity"`
	TriageLevel string   `json:"triage_level" mapstructure:"triage_level"`
	RedFlags    []string `json:"red_flags" mapstructure:"red_flags"`
}

// SavedRecord is the receipt of a saved triage record.
type SavedRecord struct {
	Status    string     `json:"status"`
	PatientID string     `json:"patient_id"`
	RecordID  string     `json:"record_id"`
	SavedData TriageData `json:"saved_data"`
	Message   string     `json:"message"`
}

// RecordStore persists saved triage records.
type RecordStore interface {
	Put(ctx context.Context, rec SavedRecord) error
	Get(ctx context.Context, recordID string) (SavedRecord, bool, error)
}

// MemoryRecords is the default RecordStore.
type MemoryRecords struct {
	mu      sync.RWMutex
	records map[string]SavedRecord
}

// NewMemoryRecords creates an empty in-memory record store.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{records: make(map[string]SavedRecord)}
}

func (m *MemoryRecords) Put(ctx context.Context, rec SavedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.RecordID] = rec
	return nil
}

func (m *MemoryRecords) Get(ctx context.Context, recordID string) (SavedRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[recordID]
	return rec, ok, nil
}

// Database simulates the medical records system.
type Database struct {
	records  RecordStore
	recordID func() string
}

// DatabaseOption configures a Database.
type DatabaseOption func(*Database)

// WithRecordStore sets where saved triage records go.
func WithRecordStore(store RecordStore) DatabaseOption {
	return func(d *Database) {
		if store != nil {
			d.records = store
		}
	}
}

// WithRecordIDs overrides record ID generation.
func WithRecordIDs(fn func() string) DatabaseOption {
	return func(d *Database) {
		if fn != nil {
			d.recordID = fn
		}
	}
}

// NewDatabase creates a Database backed by memory unless configured otherwise.
func NewDatabase(opts ...DatabaseOption) *Database {
	d := &Database{
		records: NewMemoryRecords(),
		recordID: func() string {
			return fmt.Sprintf("TRIAGE-%d", 1000+rand.IntN(9000))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var cardiacWords = []string{"chest", "pain", "cardiac", "heart"}

// CheckConditions returns the risk profile relevant to the described symptoms.
func (d *Database) CheckConditions(symptoms string) History {
	lower := strings.ToLower(symptoms)
	for _, word := range cardiacWords {
		if strings.Contains(lower, word) {
			return History{
				PatientID:         "P001",
				ChronicConditions: []string{"hypertension", "high cholesterol"},
				CardiacHistory:    true,
				RiskFactors:       []string{"age > 50", "hypertension", "family history"},
				HighRisk:          true,
			}
		}
	}
	return History{
		PatientID:         "P002",
		ChronicConditions: []string{},
		RiskFactors:       []string{},
	}
}

// Patient looks up a patient record.
func (d *Database) Patient(id string) (Patient, bool) {
	p, ok := patients[id]
	return p, ok
}

// Allergies lists a patient's known allergies. Unknown patients have none.
func (d *Database) Allergies(patientID string) []string {
	if p, ok := patients[patientID]; ok {
		return p.Allergies
	}
	return []string{}
}

// Medications lists a patient's current medications. Unknown patients have none.
func (d *Database) Medications(patientID string) []string {
	if p, ok := patients[patientID]; ok {
		return p.Medications
	}
	return []string{}
}

// SaveTriageRecord files a triage encounter in the patient's record.
func (d *Database) SaveTriageRecord(ctx context.Context, patientID string, data TriageData) (SavedRecord, error) {
	if data.RedFlags == nil {
		data.RedFlags = []string{}
	}
	data.PatientID = patientID
	rec := SavedRecord{
		Status:    "saved",
		PatientID: patientID,
		RecordID:  d.recordID(),
		SavedData: data,
		Message:   "Triage record saved to patient file",
	}
	if err := d.records.Put(ctx, rec); err != nil {
		return SavedRecord{}, fmt.Errorf("failed to save triage record: %w", err)
	}
	return rec, nil
}

// Record fetches a previously saved triage record.
func (d *Database) Record(ctx context.Context, recordID string) (SavedRecord, bool, error) {
	return d.records.Get(ctx, recordID)
}
