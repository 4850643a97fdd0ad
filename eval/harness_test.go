package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/oncostat/deltarad/classify"
	"github.com/oncostat/deltarad/cohort"
	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/radiomics"
)

// studyFixture builds a 30-patient cohort (24 train / 6 test) with radiomics
// blocks carrying a signal aligned with the outcome.
func studyFixture(t *testing.T) *cohort.Assembler {
	t.Helper()

	tableA := radiomics.NewTable()
	tableB := radiomics.NewTable()

	patients := make([]cohort.Patient, 0, 30)
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("pt%02d", i)
		label := 0
		if i%3 == 0 {
			label = 1
		}
		split := cohort.SplitTrain
		if i >= 24 {
			split = cohort.SplitTest
		}

		patients = append(patients, cohort.Patient{
			ID:       id,
			Clinical: map[string]float64{"age": 50 + float64(i), "sex": float64(i % 2)},
			Label:    label,
			Time:     float64(5 + i),
			Event:    label == 1,
			Split:    split,
		})

		signal := float64(label)*3.0 + 0.1*float64(i%5)
		tableA.Set(id, "glcm_entropy", 1.0+signal)
		tableA.Set(id, "volume", 10.0+signal)
		tableB.Set(id, "glcm_entropy", 1.5+2*signal)
		tableB.Set(id, "volume", 12.0+2*signal)
	}

	c, err := cohort.New(patients, []string{"age", "sex"})
	if err != nil {
		t.Fatalf("cohort.New failed: %v", err)
	}
	delta := radiomics.BuildDelta(tableA, tableB)
	return cohort.NewAssembler(c, tableA, tableB, delta)
}

// knnOnly keeps harness tests fast: one cheap model family, two candidates.
func knnOnly() []classify.ModelSpec {
	return []classify.ModelSpec{{
		Name: "knn",
		Grid: []classify.ParamSet{{"n_neighbors": 3}, {"n_neighbors": 5}},
		Build: func(_ uint64, params classify.ParamSet) model.Classifier {
			return classify.NewKNeighborsClassifier(
				classify.WithKNNNeighbors(int(params["n_neighbors"])))
		},
	}}
}

func TestHarnessFullGrid(t *testing.T) {
	h := NewHarness(studyFixture(t), 3, 42)
	h.Models = knnOnly()

	results, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// One model family times four configurations.
	if len(results) != 4 {
		t.Fatalf("got %d records, want 4", len(results))
	}

	wantConfigs := cohort.AllConfigurations()
	for i, r := range results {
		if r.Configuration() != wantConfigs[i] {
			t.Errorf("record %d configuration = %s, want %s", i, r.Configuration(), wantConfigs[i])
		}
		if r.Model() != "knn" {
			t.Errorf("record %d model = %s, want knn", i, r.Model())
		}
		if r.RunID() != results[0].RunID() {
			t.Error("records from one run must share a run ID")
		}
		if r.TrainSize() != 24 || r.TestSize() != 6 {
			t.Errorf("record %d sizes = %d/%d, want 24/6", i, r.TrainSize(), r.TestSize())
		}
		if len(r.Predictions()) != 6 {
			t.Errorf("record %d has %d predictions, want 6", i, len(r.Predictions()))
		}
		if _, ok := r.Metric("balanced_accuracy"); !ok {
			t.Errorf("record %d is missing balanced_accuracy", i)
		}
		if est := r.Estimator(); est == nil {
			t.Errorf("record %d carries no fitted pipeline", i)
		} else if len(est.Classes()) != 2 {
			t.Errorf("record %d pipeline is not fitted: classes = %v", i, est.Classes())
		}
	}
}

// Two model families against four configurations must yield exactly eight
// records, none missing, even when one configuration's radiomics block is
// entirely absent.
func TestHarnessTwoModelEightRecords(t *testing.T) {
	h := NewHarness(studyFixture(t), 3, 42)
	h.Models = []classify.ModelSpec{
		knnOnly()[0],
		{
			Name: "logistic_regression",
			Grid: []classify.ParamSet{{"C": 1}},
			Build: func(_ uint64, params classify.ParamSet) model.Classifier {
				return classify.NewLogisticRegression(classify.WithLogisticC(params["C"]))
			},
		},
	}

	results, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 8 {
		t.Fatalf("got %d records, want 8 (2 models x 4 configurations)", len(results))
	}

	seen := map[string]bool{}
	for _, r := range results {
		seen[r.Model()+"/"+string(r.Configuration())] = true
	}
	for _, name := range []string{"knn", "logistic_regression"} {
		for _, config := range cohort.AllConfigurations() {
			if !seen[name+"/"+string(config)] {
				t.Errorf("missing record for %s/%s", name, config)
			}
		}
	}
}

func TestHarnessDeterministicRerun(t *testing.T) {
	run := func() []Result {
		h := NewHarness(studyFixture(t), 3, 42)
		h.Models = knnOnly()
		results, err := h.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return results
	}

	first, second := run(), run()
	for i := range first {
		fm, sm := first[i].Metrics(), second[i].Metrics()
		for name := range fm {
			if fm[name] != sm[name] {
				t.Errorf("record %d metric %s differs: %g vs %g", i, name, fm[name], sm[name])
			}
		}
		fAUC, fDef := first[i].AUC()
		sAUC, sDef := second[i].AUC()
		if fAUC != sAUC || fDef != sDef {
			t.Errorf("record %d AUC differs across reruns", i)
		}
		if first[i].Params().String() != second[i].Params().String() {
			t.Errorf("record %d chose different hyperparameters across reruns", i)
		}
		fp, sp := first[i].Predictions(), second[i].Predictions()
		for j := range fp {
			if fp[j] != sp[j] {
				t.Errorf("record %d prediction %d differs across reruns", i, j)
			}
		}
	}
}

// A single-class test split leaves ROC-AUC undefined; the record must carry
// the flag and serialize the area as null.
func TestHarnessUndefinedAUC(t *testing.T) {
	tableA := radiomics.NewTable()
	patients := make([]cohort.Patient, 0, 16)
	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("pt%02d", i)
		// Test patients (the last four) are all negatives.
		label := 0
		split := cohort.SplitTest
		if i < 12 {
			split = cohort.SplitTrain
			if i%2 == 0 {
				label = 1
			}
		}
		patients = append(patients, cohort.Patient{
			ID:       id,
			Clinical: map[string]float64{"age": float64(40 + i)},
			Label:    label,
			Time:     float64(i + 1),
			Event:    label == 1,
			Split:    split,
		})
		tableA.Set(id, "volume", float64(label)*2+0.1*float64(i))
	}

	c, err := cohort.New(patients, []string{"age"})
	if err != nil {
		t.Fatalf("cohort.New failed: %v", err)
	}

	h := NewHarness(cohort.NewAssembler(c, tableA, nil, nil), 3, 7)
	h.Models = knnOnly()
	h.Configurations = []cohort.Configuration{cohort.ConfigClinicalA}

	results, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d records, want 1", len(results))
	}

	if _, defined := results[0].AUC(); defined {
		t.Error("AUC must be undefined on a single-class test split")
	}

	raw, err := json.Marshal(results[0])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["roc_auc"] != nil {
		t.Errorf("serialized roc_auc = %v, want null", decoded["roc_auc"])
	}
}

func TestResultImmutability(t *testing.T) {
	h := NewHarness(studyFixture(t), 3, 42)
	h.Models = knnOnly()
	h.Configurations = []cohort.Configuration{cohort.ConfigClinical}

	results, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	r := results[0]

	// Mutating accessor copies must not touch the record.
	r.Metrics()["balanced_accuracy"] = -1
	r.Params()["C"] = 999
	preds := r.Predictions()
	if len(preds) > 0 {
		preds[0].PatientID = "tampered"
	}

	if v, _ := r.Metric("balanced_accuracy"); v == -1 {
		t.Error("metrics map leaked by reference")
	}
	if _, ok := r.Params()["C"]; ok {
		t.Error("params map leaked by reference")
	}
	if len(r.Predictions()) > 0 && r.Predictions()[0].PatientID == "tampered" {
		t.Error("predictions slice leaked by reference")
	}
}
