// Command deltarad runs the delta-radiomics outcome study end to end: it
// reads the per-patient segmentation workbooks and the clinical table,
// builds the timepoint and delta feature tables, screens features with
// univariate Cox models, evaluates the model-by-configuration grid and
// writes the result records as JSON.
package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/oncostat/deltarad/classify"
	"github.com/oncostat/deltarad/cohort"
	"github.com/oncostat/deltarad/config"
	"github.com/oncostat/deltarad/eval"
	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
	"github.com/oncostat/deltarad/radiomics"
	"github.com/oncostat/deltarad/survival"
)

func main() {
	// Configuration may come from the environment alone; a missing .env
	// file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.SetupLogger("info")
		log.GetLogger().Error("configuration failed", log.ErrAttr(err))
		os.Exit(1)
	}

	log.SetupLogger(cfg.LogLevel)
	errors.SetZerologWarnFunc(log.NewZerologWarnSink(os.Stderr))
	logger := log.GetLoggerWithName("deltarad")

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("run failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	// Clinical table and train/test split.
	patients, clinicalVars, err := cohort.ReadClinicalTable(cohort.ClinicalConfig{
		Path:  cfg.Data.ClinicalFile,
		Sheet: cfg.Data.Sheet,
	})
	if err != nil {
		return err
	}
	if unassigned(patients) {
		patients, err = cohort.AssignStratifiedSplit(patients, cfg.Study.TestFraction, cfg.Study.Seed)
		if err != nil {
			return err
		}
	}
	study, err := cohort.New(patients, clinicalVars)
	if err != nil {
		return err
	}
	logger.Info("cohort loaded",
		log.SamplesKey, study.Len(),
		"train", len(study.SplitPatients(cohort.SplitTrain)),
		"test", len(study.SplitPatients(cohort.SplitTest)))

	// Radiomics tables for both timepoints, then the delta block.
	tables, err := radiomics.ReadCohortTables(radiomics.ReaderConfig{
		DataDir:         cfg.Data.PatientDir,
		Threshold:       cfg.Study.Threshold,
		FeatureStartCol: cfg.Data.FeatureStartCol,
		Sheet:           cfg.Data.Sheet,
	})
	if err != nil {
		return err
	}
	delta := radiomics.BuildDelta(tables.A, tables.B)

	// Univariate Cox screen of the delta features on the training split.
	times, events, ids := study.SurvivalData(cohort.SplitTrain)
	screened := screenable(delta, ids)
	if len(screened) > 0 {
		records, err := survival.ScreenTable(delta, screened, subsetFloats(times, ids, screened), subsetEvents(events, ids, screened))
		if err != nil {
			return err
		}
		reportScreen(logger, records)
	}

	// Model-by-configuration evaluation grid.
	assembler := cohort.NewAssembler(study, tables.A, tables.B, delta)
	harness := eval.NewHarness(assembler, cfg.Study.Folds, cfg.Study.Seed)
	harness.Models = classify.DefaultModels()

	results, err := harness.Run(ctx)
	if err != nil {
		return err
	}
	return writeResults(cfg.Data.OutputFile, results)
}

func unassigned(patients []cohort.Patient) bool {
	for _, p := range patients {
		if p.Split == cohort.SplitUnassigned {
			return true
		}
	}
	return false
}

// screenable keeps the training patients the delta table actually covers;
// single-timepoint patients have no delta row to screen.
func screenable(delta *radiomics.Table, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if delta.HasPatient(id) {
			out = append(out, id)
		}
	}
	return out
}

func subsetFloats(values []float64, ids, keep []string) []float64 {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	out := make([]float64, len(keep))
	for i, id := range keep {
		out[i] = values[index[id]]
	}
	return out
}

func subsetEvents(events []bool, ids, keep []string) []int {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	out := make([]int, len(keep))
	for i, id := range keep {
		if events[index[id]] {
			out[i] = 1
		}
	}
	return out
}

func reportScreen(logger log.Logger, records []survival.ScreenRecord) {
	for _, r := range records {
		if !r.Converged() {
			logger.Warn("cox fit failed",
				log.FeatureKey, r.Feature,
				log.ErrAttr(r.Err))
			continue
		}
		logger.Info("cox fit",
			log.FeatureKey, r.Feature,
			"hr", r.Result.HR,
			"ci_lower", r.Result.CILower,
			"ci_upper", r.Result.CIUpper,
			"p_value", r.Result.PValue,
			"ph_violation", r.Result.PHViolation)
	}
}

func writeResults(path string, results []eval.Result) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create output file")
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
