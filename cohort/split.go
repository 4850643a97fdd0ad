package cohort

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/oncostat/deltarad/pkg/errors"
)

// AssignStratifiedSplit returns a copy of the patients with train/test
// membership assigned, stratified by outcome label so both classes appear in
// both splits in roughly the requested proportion. The assignment is a pure
// function of (patients, testFraction, seed): patients are processed in
// sorted ID order and shuffled with a seeded PCG, so repeated runs produce
// the identical split.
func AssignStratifiedSplit(patients []Patient, testFraction float64, seed uint64) ([]Patient, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.NewValidationError("testFraction", "must be in (0, 1)", testFraction)
	}

	out := make([]Patient, len(patients))
	copy(out, patients)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	byLabel := make(map[int][]int)
	for i := range out {
		byLabel[out[i].Label] = append(byLabel[out[i].Label], i)
	}

	labels := make([]int, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	rng := rand.New(rand.NewPCG(seed, seed))
	for _, label := range labels {
		indices := byLabel[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(math.Round(testFraction * float64(len(indices))))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(indices) {
			return nil, errors.Newf("class %d has only %d patients; cannot hold out %d for testing",
				label, len(indices), nTest)
		}

		for k, idx := range indices {
			if k < nTest {
				out[idx].Split = SplitTest
			} else {
				out[idx].Split = SplitTrain
			}
		}
	}

	return out, nil
}
