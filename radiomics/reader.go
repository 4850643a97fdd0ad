package radiomics

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
)

// ReaderConfig locates and interprets the per-patient segmentation
// workbooks.
type ReaderConfig struct {
	// DataDir contains one subfolder per patient, each holding the Time A
	// and Time B workbooks (identified by "_A" / "_B" in the file name).
	DataDir string

	// Threshold is the SUV cutoff selecting the segmentation row (2.5 in
	// this study).
	Threshold float64

	// FeatureStartCol is the zero-based column index where radiomics
	// feature columns begin; earlier columns hold acquisition metadata.
	FeatureStartCol int

	// Sheet is the worksheet to read. Defaults to "Sheet1".
	Sheet string
}

// CohortTables are the per-timepoint feature tables for the whole cohort.
type CohortTables struct {
	A *Table
	B *Table
}

// ReadCohortTables walks the patient folders in sorted order and extracts
// the threshold-matched segmentation row for each patient and timepoint.
// Per-patient problems (absent file, missing or ambiguous row, unreadable
// workbook) are isolated: the patient is left out of the affected timepoint
// table with a warning, and the run continues.
func ReadCohortTables(cfg ReaderConfig) (*CohortTables, error) {
	logger := log.GetLoggerWithName("radiomics.reader")
	if cfg.Sheet == "" {
		cfg.Sheet = "Sheet1"
	}

	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading cohort folder %s", cfg.DataDir)
	}

	tables := &CohortTables{A: NewTable(), B: NewTable()}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, patient := range names {
		patientDir := filepath.Join(cfg.DataDir, patient)
		fileA, fileB, err := findTimepointFiles(patientDir)
		if err != nil {
			return nil, err
		}

		if fileA != "" {
			if row, ok := readPatientRow(cfg, patient, TimepointA, fileA, logger); ok {
				tables.A.SetRow(patient, row)
			}
		}
		if fileB != "" {
			if row, ok := readPatientRow(cfg, patient, TimepointB, fileB, logger); ok {
				tables.B.SetRow(patient, row)
			}
		}
	}

	logger.Info("cohort tables read",
		"patients_a", tables.A.NumPatients(),
		"patients_b", tables.B.NumPatients(),
	)
	return tables, nil
}

// findTimepointFiles locates the Time A and Time B workbooks in a patient
// folder. The "_A"/"_B" match is case-insensitive and restricted to .xlsx;
// when several candidates exist the first in sorted order wins, keeping the
// choice deterministic.
func findTimepointFiles(patientDir string) (fileA, fileB string, err error) {
	entries, err := os.ReadDir(patientDir)
	if err != nil {
		return "", "", errors.Wrapf(err, "reading patient folder %s", patientDir)
	}

	var aCandidates, bCandidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		upper := strings.ToUpper(name)
		switch {
		case strings.Contains(upper, "_A"):
			aCandidates = append(aCandidates, filepath.Join(patientDir, name))
		case strings.Contains(upper, "_B"):
			bCandidates = append(bCandidates, filepath.Join(patientDir, name))
		}
	}
	sort.Strings(aCandidates)
	sort.Strings(bCandidates)

	if len(aCandidates) > 0 {
		fileA = aCandidates[0]
	}
	if len(bCandidates) > 0 {
		fileB = bCandidates[0]
	}
	return fileA, fileB, nil
}

// readPatientRow reads one workbook and selects the threshold-matched row.
// Returns ok=false when the patient must be treated as missing at this
// timepoint.
func readPatientRow(cfg ReaderConfig, patient, timepoint, path string, logger log.Logger) (map[string]float64, bool) {
	table, err := readSegmentationTable(cfg, patient, timepoint, path)
	if err != nil {
		logger.Warn("skipping unreadable workbook",
			log.PatientKey, patient,
			log.TimepointKey, timepoint,
			log.ErrAttrKey, err,
		)
		return nil, false
	}

	row, err := table.SelectRow(cfg.Threshold)
	if err != nil {
		// Missing or ambiguous threshold row: the patient is absent at this
		// timepoint. Recorded, never replaced by zeros.
		errors.Warn(err)
		return nil, false
	}
	return row, true
}

// readSegmentationTable parses one workbook into a SegmentationTable. The
// sheet must carry a "Segmentation" column holding the SUV threshold label;
// feature columns start at FeatureStartCol. Cells that do not parse as
// numbers are dropped from the row, mirroring how the source tables mix
// numeric features with free-text metadata.
func readSegmentationTable(cfg ReaderConfig, patient, timepoint, path string) (*SegmentationTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening workbook %s", path)
	}
	defer f.Close()

	rows, err := f.GetRows(cfg.Sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s of %s", cfg.Sheet, path)
	}
	if len(rows) < 2 {
		return nil, errors.Newf("workbook %s has no data rows", path)
	}

	header := rows[0]
	segCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "Segmentation") {
			segCol = i
			break
		}
	}
	if segCol < 0 {
		return nil, errors.Newf("workbook %s has no Segmentation column", path)
	}

	table := &SegmentationTable{Patient: patient, Timepoint: timepoint}
	for _, cells := range rows[1:] {
		if segCol >= len(cells) {
			continue
		}
		threshold, ok := ParseThreshold(cells[segCol])
		if !ok {
			continue
		}

		features := make(map[string]float64)
		for col := cfg.FeatureStartCol; col < len(cells) && col < len(header); col++ {
			name := strings.TrimSpace(header[col])
			if name == "" || col == segCol {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cells[col]), 64)
			if err != nil {
				continue
			}
			features[name] = v
		}
		table.Rows = append(table.Rows, SegmentationRow{Threshold: threshold, Features: features})
	}
	return table, nil
}
