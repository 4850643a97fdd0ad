package classify

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CVFold is one train/validation split of a cross-validation scheme.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedKFold splits samples into k folds preserving per-class
// proportions. Shuffling is driven by a seeded PCG generator, so the same
// seed always yields the same folds.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewStratifiedKFold creates a stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split generates stratified train/validation indices for each fold.
func (skf *StratifiedKFold) Split(y mat.Matrix) []CVFold {
	nSamples, _ := y.Dims()

	// Group indices by class, iterating in ascending label order so fold
	// assignment is deterministic.
	classIndices := make(map[int][]int)
	var labels []int
	for i := 0; i < nSamples; i++ {
		label := int(y.At(i, 0))
		if _, seen := classIndices[label]; !seen {
			labels = append(labels, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}
	sort.Ints(labels)

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(skf.Seed, skf.Seed))
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]CVFold, skf.NSplits)

	// Deal each class across the folds.
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && currentIdx < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[currentIdx])
				currentIdx++
			}
		}
	}

	for i := 0; i < skf.NSplits; i++ {
		testSet := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds
}
