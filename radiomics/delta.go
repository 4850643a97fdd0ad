package radiomics

import (
	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
)

// BuildDelta computes the delta table B - A over the patients present in
// both timepoint tables and the features present in both. A patient or
// feature present at only one timepoint is excluded and reported through the
// warning sink; asymmetry is a data-quality signal, not something to resolve
// silently. Identical inputs always produce an identical delta table.
func BuildDelta(a, b *Table) *Table {
	logger := log.GetLoggerWithName("radiomics.delta")
	delta := NewTable()

	// Patients in exactly one table are excluded with a warning.
	for _, p := range a.Patients() {
		if !b.HasPatient(p) {
			errors.Warn(errors.NewTimepointAsymmetryWarning(p, TimepointA, TimepointB))
		}
	}
	for _, p := range b.Patients() {
		if !a.HasPatient(p) {
			errors.Warn(errors.NewTimepointAsymmetryWarning(p, TimepointB, TimepointA))
		}
	}

	shared := sharedFeatures(a, b)

	for _, p := range a.Patients() {
		if !b.HasPatient(p) {
			continue
		}
		for _, f := range shared {
			va, okA := a.Value(p, f)
			vb, okB := b.Value(p, f)
			if !okA || !okB {
				// Feature known at both timepoints overall, but missing for
				// this patient at one of them. Propagate as absence.
				continue
			}
			delta.Set(p, f, vb-va)
		}
	}

	logger.Info("delta table built",
		log.SamplesKey, delta.NumPatients(),
		log.FeaturesKey, len(shared),
	)
	return delta
}

// sharedFeatures returns features present in both tables, warning on each
// feature that only one timepoint carries.
func sharedFeatures(a, b *Table) []string {
	featB := make(map[string]struct{})
	for _, f := range b.Features() {
		featB[f] = struct{}{}
	}
	featA := make(map[string]struct{})
	for _, f := range a.Features() {
		featA[f] = struct{}{}
	}

	var shared []string
	for _, f := range a.Features() {
		if _, ok := featB[f]; ok {
			shared = append(shared, f)
		} else {
			errors.Warn(errors.NewFeatureAsymmetryWarning(f, TimepointA, TimepointB))
		}
	}
	for _, f := range b.Features() {
		if _, ok := featA[f]; !ok {
			errors.Warn(errors.NewFeatureAsymmetryWarning(f, TimepointB, TimepointA))
		}
	}
	return shared
}
