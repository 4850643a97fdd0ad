package classify

import (
	"github.com/oncostat/deltarad/core/model"
)

// ModelSpec names a model family together with its hyperparameter grid and
// a constructor. The evaluation harness iterates these specs against every
// feature configuration.
type ModelSpec struct {
	Name  string
	Grid  []ParamSet
	Build func(seed uint64, params ParamSet) model.Classifier
}

// DefaultModels returns the study's model families with their search grids.
// Grid order is fixed so tie-breaking in the search is reproducible.
func DefaultModels() []ModelSpec {
	return []ModelSpec{
		{
			Name: "svm_rbf",
			Grid: []ParamSet{
				{"C": 0.1}, {"C": 1}, {"C": 10},
				{"C": 1, "gamma": 0.01}, {"C": 1, "gamma": 0.1},
			},
			Build: func(seed uint64, params ParamSet) model.Classifier {
				opts := []SVCOption{WithSVCSeed(seed)}
				if c, ok := params["C"]; ok {
					opts = append(opts, WithSVCC(c))
				}
				if gamma, ok := params["gamma"]; ok {
					opts = append(opts, WithSVCGamma(gamma))
				}
				return NewSVC(opts...)
			},
		},
		{
			Name: "random_forest",
			Grid: []ParamSet{
				{"max_depth": 3, "min_samples_leaf": 2},
				{"max_depth": 5, "min_samples_leaf": 2},
				{"max_depth": 8, "min_samples_leaf": 1},
			},
			Build: func(seed uint64, params ParamSet) model.Classifier {
				opts := []RandomForestOption{
					WithForestSeed(seed),
					WithForestEstimators(100),
				}
				if depth, ok := params["max_depth"]; ok {
					opts = append(opts, WithForestMaxDepth(int(depth)))
				}
				if leaf, ok := params["min_samples_leaf"]; ok {
					opts = append(opts, WithForestMinSamplesLeaf(int(leaf)))
				}
				return NewRandomForest(opts...)
			},
		},
		{
			Name: "knn",
			Grid: []ParamSet{
				{"n_neighbors": 3}, {"n_neighbors": 5}, {"n_neighbors": 7},
			},
			Build: func(_ uint64, params ParamSet) model.Classifier {
				return NewKNeighborsClassifier(WithKNNNeighbors(int(params["n_neighbors"])))
			},
		},
		{
			Name: "logistic_regression",
			Grid: []ParamSet{
				{"C": 0.1}, {"C": 1}, {"C": 10},
			},
			Build: func(_ uint64, params ParamSet) model.Classifier {
				return NewLogisticRegression(WithLogisticC(params["C"]))
			},
		},
	}
}
