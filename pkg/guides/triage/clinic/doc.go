// Package clinic provides the simulated clinical systems a triage agent calls:
// a symptom classifier, a patient records database, a vitals monitor and
// scripted patient interviews.
//
// Every value returned here is fake demo data.
package clinic
