package survival

import (
	"sort"
	"sync"

	"github.com/oncostat/deltarad/core/parallel"
	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
	"github.com/oncostat/deltarad/radiomics"
)

// ScreenRecord pairs a feature with either its fitted model or the fit
// failure. Non-converged features stay in the report so the screen over a
// feature set is complete rather than silently truncated.
type ScreenRecord struct {
	Feature string
	Result  *CoxResult
	Err     error
}

// Converged reports whether the fit produced a usable estimate.
func (r *ScreenRecord) Converged() bool {
	return r.Err == nil && r.Result != nil
}

// ScreenTable fits a univariate Cox model to every feature of the table for
// the given patients, in parallel. Records come back sorted by feature name
// so repeated runs produce identical output. Patients must all be present in
// the table; times and events are aligned with the patients slice.
func ScreenTable(table *radiomics.Table, patients []string, times []float64, events []int) ([]ScreenRecord, error) {
	if len(patients) == 0 {
		return nil, errors.NewValueError("ScreenTable", "no patients")
	}
	if len(times) != len(patients) || len(events) != len(patients) {
		return nil, errors.NewDimensionError("ScreenTable", len(patients), len(times), 0)
	}

	features := table.Features()
	records := make([]ScreenRecord, len(features))

	var mu sync.Mutex
	failed := 0

	parallel.Parallelize(len(features), func(start, end int) {
		for i := start; i < end; i++ {
			feature := features[i]
			records[i].Feature = feature

			x, err := table.ColumnValues(feature, patients)
			if err != nil {
				records[i].Err = err
				continue
			}
			result, err := FitUnivariate(feature, x, times, events)
			if err != nil {
				records[i].Err = err
				mu.Lock()
				failed++
				mu.Unlock()
				continue
			}
			records[i].Result = result
		}
	})

	sort.Slice(records, func(i, j int) bool { return records[i].Feature < records[j].Feature })

	log.GetLoggerWithName("survival").Info("univariate screen complete",
		log.FeaturesKey, len(features),
		"converged", len(features)-failed,
		"failed", failed)

	return records, nil
}
