// Package classify provides the binary outcome classifiers evaluated by the
// study harness: RBF-kernel SVM, random forest, k-nearest neighbors and
// logistic regression, plus the preprocessing pipeline and the stratified
// grid search that tunes them.
package classify

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
)

// SVC is a binary support vector classifier with an RBF kernel, trained by
// sequential minimal optimization. Class imbalance is handled by scaling the
// box constraint per class ("balanced" weighting), so the minority class is
// not sacrificed to the margin.
type SVC struct {
	model.BaseEstimator

	c       float64
	gamma   float64 // <= 0 means "scale": 1 / (n_features * var(X))
	tol     float64
	maxIter int
	seed    uint64

	// fitted state
	supportX   *mat.Dense
	alphas     []float64
	signs      []float64 // +1 / -1 per support vector
	bias       float64
	gammaUsed  float64
	classes    []int
	classViews map[int]float64 // class label -> sign
}

// SVCOption is a functional option for SVC.
type SVCOption func(*SVC)

// NewSVC creates an RBF-kernel support vector classifier.
func NewSVC(opts ...SVCOption) *SVC {
	s := &SVC{
		c:       1.0,
		gamma:   0, // resolved from the data at fit time
		tol:     1e-3,
		maxIter: 1000,
		seed:    42,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithSVCC sets the box constraint C.
func WithSVCC(c float64) SVCOption {
	return func(s *SVC) { s.c = c }
}

// WithSVCGamma sets the RBF kernel width. A non-positive value selects the
// "scale" heuristic from the training data.
func WithSVCGamma(gamma float64) SVCOption {
	return func(s *SVC) { s.gamma = gamma }
}

// WithSVCSeed sets the seed for the optimizer's working-pair selection.
func WithSVCSeed(seed uint64) SVCOption {
	return func(s *SVC) { s.seed = seed }
}

// WithSVCMaxIter sets the pass limit for the optimizer.
func WithSVCMaxIter(maxIter int) SVCOption {
	return func(s *SVC) { s.maxIter = maxIter }
}

// Fit trains the classifier. y must hold exactly two distinct integer
// labels.
func (s *SVC) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "SVC.Fit")
	}
	yr, _ := y.Dims()
	if yr != rows {
		return errors.NewDimensionError("SVC.Fit", rows, yr, 0)
	}

	classes, err := binaryClasses(y, "SVC.Fit")
	if err != nil {
		return err
	}
	s.classes = classes
	s.classViews = map[int]float64{classes[0]: -1, classes[1]: +1}

	signs := make([]float64, rows)
	counts := map[int]int{}
	for i := 0; i < rows; i++ {
		label := int(y.At(i, 0))
		signs[i] = s.classViews[label]
		counts[label]++
	}

	// Balanced per-class box constraints: C_i = C * n / (2 * n_class).
	cPerSample := make([]float64, rows)
	for i := 0; i < rows; i++ {
		label := int(y.At(i, 0))
		cPerSample[i] = s.c * float64(rows) / (2.0 * float64(counts[label]))
	}

	s.gammaUsed = s.gamma
	if s.gammaUsed <= 0 {
		s.gammaUsed = scaleGamma(X)
	}

	Xd := mat.DenseCopyOf(X)
	kernel := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		kernel[i] = make([]float64, rows)
		for j := 0; j <= i; j++ {
			k := rbf(Xd.RawRowView(i), Xd.RawRowView(j), s.gammaUsed)
			kernel[i][j] = k
			kernel[j][i] = k
		}
	}

	alphas := make([]float64, rows)
	bias := 0.0
	rng := rand.New(rand.NewPCG(s.seed, s.seed))

	decision := func(i int) float64 {
		f := bias
		for k := 0; k < rows; k++ {
			if alphas[k] != 0 {
				f += alphas[k] * signs[k] * kernel[k][i]
			}
		}
		return f
	}

	// Simplified SMO: sweep samples, pair each KKT violator with a second
	// index drawn from the seeded generator.
	passes := 0
	for iter := 0; iter < s.maxIter && passes < 3; iter++ {
		changed := 0
		for i := 0; i < rows; i++ {
			ei := decision(i) - signs[i]
			if !((signs[i]*ei < -s.tol && alphas[i] < cPerSample[i]) ||
				(signs[i]*ei > s.tol && alphas[i] > 0)) {
				continue
			}

			j := rng.IntN(rows - 1)
			if j >= i {
				j++
			}
			ej := decision(j) - signs[j]

			var lo, hi float64
			if signs[i] != signs[j] {
				lo = math.Max(0, alphas[j]-alphas[i])
				hi = math.Min(cPerSample[j], cPerSample[j]+alphas[j]-alphas[i])
			} else {
				lo = math.Max(0, alphas[i]+alphas[j]-cPerSample[j])
				hi = math.Min(cPerSample[j], alphas[i]+alphas[j])
			}
			if lo >= hi {
				continue
			}

			eta := 2*kernel[i][j] - kernel[i][i] - kernel[j][j]
			if eta >= 0 {
				continue
			}

			oldAi, oldAj := alphas[i], alphas[j]
			alphas[j] = clamp(oldAj-signs[j]*(ei-ej)/eta, lo, hi)
			if math.Abs(alphas[j]-oldAj) < 1e-7 {
				continue
			}
			alphas[i] = oldAi + signs[i]*signs[j]*(oldAj-alphas[j])

			b1 := bias - ei - signs[i]*(alphas[i]-oldAi)*kernel[i][i] -
				signs[j]*(alphas[j]-oldAj)*kernel[i][j]
			b2 := bias - ej - signs[i]*(alphas[i]-oldAi)*kernel[i][j] -
				signs[j]*(alphas[j]-oldAj)*kernel[j][j]
			switch {
			case alphas[i] > 0 && alphas[i] < cPerSample[i]:
				bias = b1
			case alphas[j] > 0 && alphas[j] < cPerSample[j]:
				bias = b2
			default:
				bias = (b1 + b2) / 2
			}
			changed++
		}
		if changed == 0 {
			passes++
		} else {
			passes = 0
		}
	}

	// Keep only the support vectors.
	nSupport := 0
	for _, a := range alphas {
		if a > 0 {
			nSupport++
		}
	}
	s.supportX = mat.NewDense(maxInt(nSupport, 1), cols, nil)
	s.alphas = make([]float64, 0, nSupport)
	s.signs = make([]float64, 0, nSupport)
	idx := 0
	for i, a := range alphas {
		if a > 0 {
			s.supportX.SetRow(idx, Xd.RawRowView(i))
			s.alphas = append(s.alphas, a)
			s.signs = append(s.signs, signs[i])
			idx++
		}
	}
	s.bias = bias

	log.GetLoggerWithName("classify").Debug("svm trained",
		log.SamplesKey, rows,
		"support_vectors", nSupport,
		"gamma", s.gammaUsed)

	s.SetFitted()
	return nil
}

// DecisionFunction returns the signed margin distance for each sample.
func (s *SVC) DecisionFunction(X mat.Matrix) ([]float64, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SVC", "DecisionFunction")
	}
	rows, _ := X.Dims()
	Xd := mat.DenseCopyOf(X)

	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		f := s.bias
		for k := range s.alphas {
			f += s.alphas[k] * s.signs[k] * rbf(s.supportX.RawRowView(k), Xd.RawRowView(i), s.gammaUsed)
		}
		out[i] = f
	}
	return out, nil
}

// Predict returns the predicted class labels as an n x 1 matrix.
func (s *SVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	decisions, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	pred := mat.NewDense(len(decisions), 1, nil)
	for i, f := range decisions {
		if f >= 0 {
			pred.Set(i, 0, float64(s.classes[1]))
		} else {
			pred.Set(i, 0, float64(s.classes[0]))
		}
	}
	return pred, nil
}

// PredictProba maps the decision value through a logistic link. The scores
// order samples correctly for ranking metrics; they are not calibrated
// posterior probabilities.
func (s *SVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	decisions, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	proba := mat.NewDense(len(decisions), 2, nil)
	for i, f := range decisions {
		p := 1.0 / (1.0 + math.Exp(-f))
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

// Classes returns the class labels in ascending order.
func (s *SVC) Classes() []int {
	out := make([]int, len(s.classes))
	copy(out, s.classes)
	return out
}

// GetParams returns the classifier's hyperparameters.
func (s *SVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"model": "svm_rbf",
		"C":     s.c,
		"gamma": s.gamma,
	}
}

func rbf(a, b []float64, gamma float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return math.Exp(-gamma * d)
}

// scaleGamma reproduces the "scale" heuristic: 1 / (n_features * var(X)).
func scaleGamma(X mat.Matrix) float64 {
	rows, cols := X.Dims()
	n := float64(rows * cols)

	mean := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			mean += X.At(i, j)
		}
	}
	mean /= n

	variance := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := X.At(i, j) - mean
			variance += d * d
		}
	}
	variance /= n

	if variance < 1e-12 {
		return 1.0
	}
	return 1.0 / (float64(cols) * variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// binaryClasses extracts the two distinct integer labels from y, ascending.
func binaryClasses(y mat.Matrix, op string) ([]int, error) {
	rows, _ := y.Dims()
	seen := map[int]bool{}
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = true
	}
	if len(seen) != 2 {
		return nil, errors.NewValueError(op, "expected exactly two classes in y")
	}
	classes := make([]int, 0, 2)
	for label := range seen {
		classes = append(classes, label)
	}
	if classes[0] > classes[1] {
		classes[0], classes[1] = classes[1], classes[0]
	}
	return classes, nil
}
