package classify

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// treeNode is one node of a fitted decision tree. Leaves carry the weighted
// class distribution; internal nodes split on feature <= threshold.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode

	// leaf state: weighted count per class index
	isLeaf bool
	counts []float64
}

// decisionTree is a CART classifier on weighted gini impurity. It is the
// base learner of the random forest and is not exported on its own.
type decisionTree struct {
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int // features sampled per split; 0 means all
	classWeights   map[int]float64
	classes        []int
	classIndex     map[int]int
	root           *treeNode
	rng            *rand.Rand
}

func newDecisionTree(maxDepth, minSamplesLeaf, maxFeatures int, rng *rand.Rand) *decisionTree {
	return &decisionTree{
		maxDepth:       maxDepth,
		minSamplesLeaf: minSamplesLeaf,
		maxFeatures:    maxFeatures,
		rng:            rng,
	}
}

func (t *decisionTree) fit(X *mat.Dense, labels []int, classes []int, classWeights map[int]float64) {
	t.classes = classes
	t.classWeights = classWeights
	t.classIndex = make(map[int]int, len(classes))
	for i, c := range classes {
		t.classIndex[c] = i
	}

	indices := make([]int, len(labels))
	for i := range indices {
		indices[i] = i
	}
	t.root = t.grow(X, labels, indices, 0)
}

func (t *decisionTree) grow(X *mat.Dense, labels, indices []int, depth int) *treeNode {
	counts := t.weightedCounts(labels, indices)

	if depth >= t.maxDepth || len(indices) < 2*t.minSamplesLeaf || pure(counts) {
		return &treeNode{isLeaf: true, counts: counts}
	}

	feature, threshold, ok := t.bestSplit(X, labels, indices)
	if !ok {
		return &treeNode{isLeaf: true, counts: counts}
	}

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < t.minSamplesLeaf || len(rightIdx) < t.minSamplesLeaf {
		return &treeNode{isLeaf: true, counts: counts}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(X, labels, leftIdx, depth+1),
		right:     t.grow(X, labels, rightIdx, depth+1),
	}
}

// bestSplit searches candidate thresholds (midpoints between consecutive
// distinct values) over a feature subset, minimizing weighted gini.
func (t *decisionTree) bestSplit(X *mat.Dense, labels, indices []int) (feature int, threshold float64, ok bool) {
	_, nFeatures := X.Dims()

	candidates := make([]int, nFeatures)
	for i := range candidates {
		candidates[i] = i
	}
	if t.maxFeatures > 0 && t.maxFeatures < nFeatures {
		t.rng.Shuffle(nFeatures, func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:t.maxFeatures]
		sort.Ints(candidates)
	}

	bestGini := math.Inf(1)
	for _, f := range candidates {
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, X.At(i, f))
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			thr := (values[v] + values[v-1]) / 2

			leftCounts := make([]float64, len(t.classes))
			rightCounts := make([]float64, len(t.classes))
			for _, i := range indices {
				w := t.classWeights[labels[i]]
				ci := t.classIndex[labels[i]]
				if X.At(i, f) <= thr {
					leftCounts[ci] += w
				} else {
					rightCounts[ci] += w
				}
			}

			leftW, rightW := sum(leftCounts), sum(rightCounts)
			g := (leftW*gini(leftCounts) + rightW*gini(rightCounts)) / (leftW + rightW)
			if g < bestGini {
				bestGini = g
				feature = f
				threshold = thr
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (t *decisionTree) weightedCounts(labels, indices []int) []float64 {
	counts := make([]float64, len(t.classes))
	for _, i := range indices {
		counts[t.classIndex[labels[i]]] += t.classWeights[labels[i]]
	}
	return counts
}

// predictProba returns the weighted class distribution at the sample's leaf.
func (t *decisionTree) predictProba(row []float64) []float64 {
	node := t.root
	for !node.isLeaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	total := sum(node.counts)
	proba := make([]float64, len(node.counts))
	if total == 0 {
		return proba
	}
	for i, c := range node.counts {
		proba[i] = c / total
	}
	return proba
}

func gini(counts []float64) float64 {
	total := sum(counts)
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

func pure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func sum(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v
	}
	return s
}
