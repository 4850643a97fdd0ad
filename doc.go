// Package deltarad implements a delta-radiomics outcome study: it asks
// whether the change in PET radiomics features between two imaging
// timepoints improves short-term outcome prediction beyond clinical
// variables alone.
//
// The pipeline reads per-patient segmentation workbooks, extracts the
// SUV-threshold row for each timepoint, builds a delta feature block
// (timepoint B minus timepoint A over their shared patients and features),
// and assembles four feature configurations over one fixed cohort:
// clinical only, clinical plus timepoint A, clinical plus timepoint B, and
// clinical plus delta. Features are screened with univariate Cox
// proportional hazards models, and a grid of classifiers (RBF-kernel SVM,
// random forest, k-nearest neighbors, logistic regression) is tuned by
// stratified cross-validation and evaluated on a held-out test split.
//
// Every random draw flows from one seed, so a rerun with the same inputs
// and seed reproduces every result record exactly.
//
// # Packages
//
//   - radiomics: segmentation tables, timepoint readers, delta features
//   - cohort: clinical table, train/test split, configuration assembly
//   - survival: univariate Cox screening with PH-assumption checks
//   - classify: classifiers, preprocessing pipeline, grid search
//   - eval: the model-by-configuration evaluation harness
//   - cmd/deltarad: the study runner
package deltarad
