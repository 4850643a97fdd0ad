// Package radiomics holds the per-timepoint feature tables extracted from
// segmentation workbooks, the SUV-threshold row parser, and the delta
// feature builder.
package radiomics

import (
	"sort"

	"github.com/oncostat/deltarad/pkg/errors"
)

// Timepoint names used throughout the pipeline.
const (
	TimepointA = "A"
	TimepointB = "B"
)

// Table maps patient -> feature -> value for one timepoint. Accessors
// return patients and features in sorted order, so any derivation from a
// Table is deterministic regardless of insertion order.
type Table struct {
	values map[string]map[string]float64
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{values: make(map[string]map[string]float64)}
}

// Set records a feature value for a patient.
func (t *Table) Set(patient, feature string, value float64) {
	row, ok := t.values[patient]
	if !ok {
		row = make(map[string]float64)
		t.values[patient] = row
	}
	row[feature] = value
}

// SetRow records all feature values for a patient at once.
func (t *Table) SetRow(patient string, features map[string]float64) {
	for name, value := range features {
		t.Set(patient, name, value)
	}
}

// Value returns the value for (patient, feature) and whether it exists.
func (t *Table) Value(patient, feature string) (float64, bool) {
	row, ok := t.values[patient]
	if !ok {
		return 0, false
	}
	v, ok := row[feature]
	return v, ok
}

// HasPatient reports whether the patient has any entry.
func (t *Table) HasPatient(patient string) bool {
	_, ok := t.values[patient]
	return ok
}

// Row returns a copy of the patient's feature map, or nil if absent.
func (t *Table) Row(patient string) map[string]float64 {
	row, ok := t.values[patient]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Patients returns all patient identifiers in sorted order.
func (t *Table) Patients() []string {
	out := make([]string, 0, len(t.values))
	for p := range t.values {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Features returns the union of feature names across patients, sorted.
func (t *Table) Features() []string {
	seen := make(map[string]struct{})
	for _, row := range t.values {
		for name := range row {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NumPatients returns the number of patients with at least one entry.
func (t *Table) NumPatients() int {
	return len(t.values)
}

// ColumnValues returns the feature's value for each of the given patients in
// order. Patients without the feature produce an error; callers that accept
// absence should check Value directly.
func (t *Table) ColumnValues(feature string, patients []string) ([]float64, error) {
	out := make([]float64, len(patients))
	for i, p := range patients {
		v, ok := t.Value(p, feature)
		if !ok {
			return nil, errors.Newf("patient %s has no value for feature %q", p, feature)
		}
		out[i] = v
	}
	return out, nil
}
