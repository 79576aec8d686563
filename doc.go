// Package scigo is an ensemble classification library for Go with a
// scikit-learn-like API.
//
// An EnsembleClassifier trains many logistic regressions on sampled subsets
// of the training data, optionally prunes them on a validation split, and
// merges their class scores with an output combiner.
//
// # Installation
//
//	go get github.com/YuminosukeSato/scigo-ensemble
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scigo-ensemble/sklearn/ensemble"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(6, 2, []float64{0, 0, 0, 1, 1, 0, 5, 5, 5, 6, 6, 5})
//	    y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
//
//	    clf, err := ensemble.NewEnsembleClassifier(
//	        ensemble.WithNumModels(10),
//	        ensemble.WithOutputCombiner(ensemble.NewClassifierAverage()),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := clf.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    proba, err := clf.PredictProba(mat.NewDense(1, 2, []float64{5, 5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(proba))
//	}
//
// # Packages
//
//   - sklearn/ensemble: EnsembleClassifier and its components (subset
//     selectors, feature selectors, sub-model selectors, output combiners)
//   - sklearn/linear_model: LogisticRegression, the base learner
//   - preprocessing: MinMaxScaler used for feature normalization
//   - metrics: accuracy and log-loss metrics used to rank sub-models
//   - core/model: estimator interfaces, fitted state and gob persistence
//   - core/parallel: worker pools for parallel training
//   - internal/dataset: CSV frames with named columns
//   - pkg/errors: typed errors and warnings
//   - pkg/log: structured logging on zerolog
//
// The cmd/ensemble command trains and applies ensembles on CSV files.
package scigo
