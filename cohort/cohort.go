// Package cohort holds the patient records of the study, the fixed
// train/test split, and the feature-configuration assembler that joins
// clinical variables with radiomics blocks into aligned matrices.
package cohort

import (
	"sort"

	"github.com/oncostat/deltarad/pkg/errors"
)

// Split marks a patient's membership in the fixed train/test split. The
// assignment is made once, stratified by outcome, and never changes during
// a run.
type Split int

const (
	SplitUnassigned Split = iota
	SplitTrain
	SplitTest
)

func (s Split) String() string {
	switch s {
	case SplitTrain:
		return "train"
	case SplitTest:
		return "test"
	default:
		return "unassigned"
	}
}

// Patient is one study subject: clinical variables, the binary short-term
// outcome label, and the event/time-to-event pair for survival analysis.
type Patient struct {
	ID       string
	Clinical map[string]float64
	Label    int
	Time     float64
	Event    bool
	Split    Split
}

// Cohort is the immutable patient collection. Patients are held in sorted
// ID order so every derivation (matrices, survival vectors) is
// deterministic.
type Cohort struct {
	patients     []Patient
	clinicalVars []string
}

// New validates and builds a Cohort. Every patient must have a unique ID
// and a value for every clinical variable; clinical variables are always
// present for all patients, unlike radiomics blocks.
func New(patients []Patient, clinicalVars []string) (*Cohort, error) {
	if len(patients) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "cohort.New")
	}

	vars := make([]string, len(clinicalVars))
	copy(vars, clinicalVars)
	sort.Strings(vars)

	sorted := make([]Patient, len(patients))
	copy(sorted, patients)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	seen := make(map[string]struct{}, len(sorted))
	for _, p := range sorted {
		if _, dup := seen[p.ID]; dup {
			return nil, errors.Newf("duplicate patient identifier %q", p.ID)
		}
		seen[p.ID] = struct{}{}

		for _, v := range vars {
			if _, ok := p.Clinical[v]; !ok {
				return nil, errors.Newf("patient %s is missing clinical variable %q", p.ID, v)
			}
		}
		if p.Label != 0 && p.Label != 1 {
			return nil, errors.Newf("patient %s has non-binary outcome label %d", p.ID, p.Label)
		}
	}

	return &Cohort{patients: sorted, clinicalVars: vars}, nil
}

// Patients returns a copy of all patient records in ID order.
func (c *Cohort) Patients() []Patient {
	out := make([]Patient, len(c.patients))
	copy(out, c.patients)
	return out
}

// SplitPatients returns the patients of one split, in ID order.
func (c *Cohort) SplitPatients(s Split) []Patient {
	var out []Patient
	for _, p := range c.patients {
		if p.Split == s {
			out = append(out, p)
		}
	}
	return out
}

// ClinicalVars returns the clinical variable names, sorted.
func (c *Cohort) ClinicalVars() []string {
	out := make([]string, len(c.clinicalVars))
	copy(out, c.clinicalVars)
	return out
}

// Len returns the cohort size.
func (c *Cohort) Len() int {
	return len(c.patients)
}

// SurvivalData returns the time-to-event vector, event indicators, and
// patient IDs for one split, aligned index-by-index.
func (c *Cohort) SurvivalData(s Split) (times []float64, events []bool, ids []string) {
	for _, p := range c.patients {
		if p.Split != s {
			continue
		}
		times = append(times, p.Time)
		events = append(events, p.Event)
		ids = append(ids, p.ID)
	}
	return times, events, ids
}
