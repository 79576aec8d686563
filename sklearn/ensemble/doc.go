// Package ensemble implements a multi-class ensemble classifier.
//
// An ensemble is a set of base learners (multi-class logistic regressions),
// each trained on a sample of the training set. Training proceeds in four
// pluggable stages:
//
//   - a SubsetSelector draws one training subset (rows and feature columns)
//     per model: BootstrapSelector, RandomPartitionSelector or
//     AllInstanceSelector, each paired with a FeatureSelector;
//   - the base learners are trained, sequentially or on a bounded worker pool,
//     optionally in consecutive batches of the training rows;
//   - a SubModelSelector prunes the trained models: ClassifierAllSelector,
//     ClassifierBestPerformanceSelector or ClassifierBestDiverseSelector;
//   - an OutputCombiner merges the surviving models' class scores:
//     ClassifierAverage, ClassifierMedian, ClassifierVoting,
//     ClassifierWeightedAverage or ClassifierStacking.
//
// Example:
//
//	clf, err := ensemble.NewEnsembleClassifier(
//	    ensemble.WithNumModels(20),
//	    ensemble.WithOutputCombiner(ensemble.NewClassifierVoting()),
//	    ensemble.WithTrainParallel(true),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := clf.Fit(X, y); err != nil {
//	    return err
//	}
//	proba, err := clf.PredictProba(XTest)
package ensemble
