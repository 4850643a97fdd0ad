package radiomics

import (
	"strconv"
	"strings"

	"github.com/oncostat/deltarad/pkg/errors"
)

// SegmentationRow is one row of a per-patient source table: the SUV
// threshold the segmentation was computed at, plus the feature values
// extracted from that segmentation.
type SegmentationRow struct {
	Threshold float64
	Features  map[string]float64
}

// SegmentationTable is the raw per-patient table for one timepoint, one row
// per segmentation threshold.
type SegmentationTable struct {
	Patient   string
	Timepoint string
	Rows      []SegmentationRow
}

// SelectRow returns the features of the unique row whose threshold equals
// the target exactly. It returns MissingRowError when no row matches and
// AmbiguousRowError when more than one does; the caller decides whether to
// treat the patient as missing at this timepoint. Absence must propagate as
// absence, never as a synthetic zero row.
func (t *SegmentationTable) SelectRow(threshold float64) (map[string]float64, error) {
	var match map[string]float64
	count := 0
	for _, row := range t.Rows {
		if row.Threshold == threshold {
			count++
			match = row.Features
		}
	}
	switch {
	case count == 0:
		return nil, errors.NewMissingRowError(t.Patient, t.Timepoint, threshold)
	case count > 1:
		return nil, errors.NewAmbiguousRowError(t.Patient, t.Timepoint, threshold, count)
	}
	return match, nil
}

// ParseThreshold extracts the numeric SUV threshold from a segmentation
// label cell. Accepts a bare number ("2.5") or the labeled form the source
// workbooks use ("suv2.5", "SUV 2.5").
func ParseThreshold(label string) (float64, bool) {
	s := strings.TrimSpace(strings.ToLower(label))
	s = strings.TrimPrefix(s, "suv")
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
