package cohort

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
	"github.com/oncostat/deltarad/radiomics"
)

// Configuration names a feature-set configuration: the clinical variables
// alone, or clinical plus exactly one radiomics block.
type Configuration string

const (
	ConfigClinical      Configuration = "clinical"
	ConfigClinicalA     Configuration = "clin+A"
	ConfigClinicalB     Configuration = "clin+B"
	ConfigClinicalDelta Configuration = "clin+delta"
)

// AllConfigurations returns the four configurations in their canonical
// order.
func AllConfigurations() []Configuration {
	return []Configuration{ConfigClinical, ConfigClinicalA, ConfigClinicalB, ConfigClinicalDelta}
}

// blockPrefix namespaces radiomics columns so the same feature name at
// different timepoints stays distinguishable.
func blockPrefix(cfg Configuration) string {
	switch cfg {
	case ConfigClinicalA:
		return "a_"
	case ConfigClinicalB:
		return "b_"
	case ConfigClinicalDelta:
		return "delta_"
	default:
		return ""
	}
}

// FeatureMatrix is one assembled design matrix for a (configuration, split)
// pair. Rows follow the cohort's sorted patient order; missing radiomics
// blocks appear as NaN markers for the downstream imputer, never as dropped
// rows.
type FeatureMatrix struct {
	Configuration Configuration
	Split         Split
	PatientIDs    []string
	Columns       []string
	X             *mat.Dense
	Y             *mat.Dense // n x 1 outcome labels
}

// Missing returns the number of NaN markers in X.
func (m *FeatureMatrix) Missing() int {
	n := 0
	r, c := m.X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(m.X.At(i, j)) {
				n++
			}
		}
	}
	return n
}

// Assembler joins the clinical table with the radiomics blocks into the
// four feature configurations.
type Assembler struct {
	cohort *Cohort
	blocks map[Configuration]*radiomics.Table
}

// NewAssembler builds an assembler over the cohort and the three radiomics
// tables. Any of the tables may be nil; the matching configuration then
// omits that block's columns entirely and degenerates to the clinical
// feature set.
func NewAssembler(c *Cohort, tableA, tableB, delta *radiomics.Table) *Assembler {
	return &Assembler{
		cohort: c,
		blocks: map[Configuration]*radiomics.Table{
			ConfigClinicalA:     tableA,
			ConfigClinicalB:     tableB,
			ConfigClinicalDelta: delta,
		},
	}
}

// Assemble produces the feature matrix for one configuration and split.
// Every configuration built from the same split has the identical row count
// and patient ordering: a patient lacking the radiomics block receives NaN
// markers in those columns and is resolved later by the pipeline's imputer.
// Dropping the patient instead would make the 2x4 comparison grid
// incomparable.
func (a *Assembler) Assemble(cfg Configuration, split Split) (*FeatureMatrix, error) {
	logger := log.GetLoggerWithName("cohort.assembler")

	patients := a.cohort.SplitPatients(split)
	if len(patients) == 0 {
		return nil, errors.Newf("split %s has no patients", split)
	}

	columns := make([]string, 0)
	for _, v := range a.cohort.ClinicalVars() {
		columns = append(columns, v)
	}

	var block *radiomics.Table
	var blockFeatures []string
	if cfg != ConfigClinical {
		block = a.blocks[cfg]
		if block != nil {
			blockFeatures = block.Features()
		}
		prefix := blockPrefix(cfg)
		for _, f := range blockFeatures {
			columns = append(columns, prefix+f)
		}
	}

	nRows := len(patients)
	nCols := len(columns)
	X := mat.NewDense(nRows, nCols, nil)
	Y := mat.NewDense(nRows, 1, nil)
	ids := make([]string, nRows)

	nClinical := len(a.cohort.ClinicalVars())
	for i, p := range patients {
		ids[i] = p.ID
		Y.Set(i, 0, float64(p.Label))

		for j, v := range a.cohort.ClinicalVars() {
			X.Set(i, j, p.Clinical[v])
		}

		for k, f := range blockFeatures {
			v, ok := block.Value(p.ID, f)
			if !ok {
				v = math.NaN()
			}
			X.Set(i, nClinical+k, v)
		}
	}

	m := &FeatureMatrix{
		Configuration: cfg,
		Split:         split,
		PatientIDs:    ids,
		Columns:       columns,
		X:             X,
		Y:             Y,
	}

	logger.Debug("configuration assembled",
		log.ConfigurationKey, string(cfg),
		log.SplitKey, split.String(),
		log.SamplesKey, nRows,
		log.FeaturesKey, nCols,
		log.MissingKey, m.Missing(),
	)
	return m, nil
}
