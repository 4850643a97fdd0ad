package cohort

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splitFixture(n0, n1 int) []Patient {
	var out []Patient
	for i := 0; i < n0; i++ {
		out = append(out, Patient{ID: fmt.Sprintf("N-%03d", i), Label: 0, Clinical: map[string]float64{}})
	}
	for i := 0; i < n1; i++ {
		out = append(out, Patient{ID: fmt.Sprintf("R-%03d", i), Label: 1, Clinical: map[string]float64{}})
	}
	return out
}

func TestAssignStratifiedSplitProportions(t *testing.T) {
	// Mirrors the study cohort: 30 patients, 24 train / 6 test.
	patients, err := AssignStratifiedSplit(splitFixture(15, 15), 0.2, 42)
	require.NoError(t, err)

	counts := map[int]map[Split]int{0: {}, 1: {}}
	for _, p := range patients {
		counts[p.Label][p.Split]++
	}
	for label := 0; label <= 1; label++ {
		assert.Equal(t, 3, counts[label][SplitTest], "class %d test count", label)
		assert.Equal(t, 12, counts[label][SplitTrain], "class %d train count", label)
	}
}

func TestAssignStratifiedSplitBothClassesInBothSplits(t *testing.T) {
	patients, err := AssignStratifiedSplit(splitFixture(20, 10), 0.2, 7)
	require.NoError(t, err)

	seen := map[Split]map[int]bool{SplitTrain: {}, SplitTest: {}}
	for _, p := range patients {
		seen[p.Split][p.Label] = true
	}
	for _, s := range []Split{SplitTrain, SplitTest} {
		assert.True(t, seen[s][0] && seen[s][1], "split %s must hold both classes", s)
	}
}

func TestAssignStratifiedSplitDeterministic(t *testing.T) {
	a, err := AssignStratifiedSplit(splitFixture(12, 8), 0.25, 99)
	require.NoError(t, err)
	b, err := AssignStratifiedSplit(splitFixture(12, 8), 0.25, 99)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, a[i].Split, b[i].Split, "patient %s", a[i].ID)
	}
}

func TestAssignStratifiedSplitRejectsTinyClass(t *testing.T) {
	// One patient of class 1: holding out one for test leaves none to train.
	_, err := AssignStratifiedSplit(splitFixture(10, 1), 0.2, 1)
	assert.Error(t, err)
}

func TestAssignStratifiedSplitRejectsBadFraction(t *testing.T) {
	for _, frac := range []float64{0, 1, -0.5, 1.5} {
		_, err := AssignStratifiedSplit(splitFixture(5, 5), frac, 1)
		assert.Error(t, err, "fraction %v", frac)
	}
}
