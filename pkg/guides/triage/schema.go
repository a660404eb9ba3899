package triage

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[domain.StateName]string{
	StateRedFlagScreening:   "red_flag_screening.json",
	StateChiefComplaint:     "chief_complaint.json",
	StateMedicalHistory:     "medical_history.json",
	StateVitalSigns:         "vital_signs.json",
	StateSeverityAssessment: "severity_assessment.json",
	StateSaveRecord:         "save_record.json",
}

// Validator checks agent reports against the JSON Schema of each state.
type Validator struct {
	schemas map[domain.StateName]*jsonschema.Schema
}

// NewValidator compiles the embedded report schemas.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	v := &Validator{schemas: make(map[domain.StateName]*jsonschema.Schema, len(schemaFiles))}
	for state, name := range schemaFiles {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[state] = schema
	}
	return v, nil
}

// Schema returns the raw JSON Schema of the report expected in state.
func Schema(state domain.StateName) (json.RawMessage, bool) {
	name, ok := schemaFiles[state]
	if !ok {
		return nil, false
	}
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// Validate returns the list of problems with report, empty when it conforms.
// States without a schema accept any report.
func (v *Validator) Validate(state domain.StateName, report map[string]any) ([]string, error) {
	schema, ok := v.schemas[state]
	if !ok {
		return nil, nil
	}

	doc, err := normalize(report)
	if err != nil {
		return nil, err
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("failed to validate report: %w", err)
	}
	problems := leafErrors(ve, nil)
	sort.Strings(problems)
	return problems, nil
}

// normalize turns Go values (typed slices, ints) into the generic JSON form
// the validator understands.
func normalize(report map[string]any) (any, error) {
	if report == nil {
		report = map[string]any{}
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("report is not JSON-encodable: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func leafErrors(ve *jsonschema.ValidationError, out []string) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, fmt.Sprintf("%s: %s", loc, strings.TrimSpace(ve.Message)))
	}
	for _, cause := range ve.Causes {
		out = leafErrors(cause, out)
	}
	return out
}
