// Package metrics provides the classification metrics used to score outcome
// models: accuracy, balanced accuracy, F1 and ROC-AUC.
package metrics

import (
	"sort"

	"github.com/oncostat/deltarad/pkg/errors"
)

// Accuracy computes the fraction of correctly predicted labels.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if err := checkLabels(yTrue, yPred, "Accuracy"); err != nil {
		return 0, err
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// BalancedAccuracy computes the mean per-class recall. In an imbalanced
// cohort this is the scoring metric: a model predicting the majority class
// everywhere scores 0.5, not the majority prevalence.
func BalancedAccuracy(yTrue, yPred []int) (float64, error) {
	if err := checkLabels(yTrue, yPred, "BalancedAccuracy"); err != nil {
		return 0, err
	}

	total := make(map[int]int)
	hit := make(map[int]int)
	for i, label := range yTrue {
		total[label]++
		if yPred[i] == label {
			hit[label]++
		}
	}

	classes := make([]int, 0, len(total))
	for label := range total {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	sum := 0.0
	for _, label := range classes {
		sum += float64(hit[label]) / float64(total[label])
	}
	return sum / float64(len(classes)), nil
}

// F1Score computes the F1 score of the positive class. A degenerate case
// with no predicted and no actual positives scores 0.
func F1Score(yTrue, yPred []int, positive int) (float64, error) {
	if err := checkLabels(yTrue, yPred, "F1Score"); err != nil {
		return 0, err
	}

	var tp, fp, fn int
	for i := range yTrue {
		switch {
		case yPred[i] == positive && yTrue[i] == positive:
			tp++
		case yPred[i] == positive && yTrue[i] != positive:
			fp++
		case yPred[i] != positive && yTrue[i] == positive:
			fn++
		}
	}
	if 2*tp+fp+fn == 0 {
		return 0, nil
	}
	return 2 * float64(tp) / float64(2*tp+fp+fn), nil
}

// ROCAUC computes the area under the ROC curve from positive-class scores.
// When yTrue contains a single class the area is undefined: the second
// return value is false, a warning is emitted, and callers must not fold the
// zero value into aggregates.
func ROCAUC(yTrue []int, scores []float64, positive int) (float64, bool, error) {
	if len(yTrue) == 0 {
		return 0, false, errors.NewValueError("ROCAUC", "empty input")
	}
	if len(scores) != len(yTrue) {
		return 0, false, errors.NewDimensionError("ROCAUC", len(yTrue), len(scores), 0)
	}

	nPos, nNeg := 0, 0
	for _, label := range yTrue {
		if label == positive {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in y_true"))
		return 0, false, nil
	}

	// Rank-sum formulation: AUC = (U statistic) / (nPos * nNeg), with tied
	// scores assigned their average rank.
	type scored struct {
		score float64
		pos   bool
	}
	items := make([]scored, len(scores))
	for i := range scores {
		items[i] = scored{score: scores[i], pos: yTrue[i] == positive}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].score < items[j].score })

	rankSum := 0.0
	i := 0
	for i < len(items) {
		j := i
		for j < len(items) && items[j].score == items[i].score {
			j++
		}
		// Ranks are 1-based; ties share the average rank of the run.
		avgRank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			if items[k].pos {
				rankSum += avgRank
			}
		}
		i = j
	}

	u := rankSum - float64(nPos)*float64(nPos+1)/2.0
	return u / (float64(nPos) * float64(nNeg)), true, nil
}

func checkLabels(yTrue, yPred []int, op string) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty input")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}
