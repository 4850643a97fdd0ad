package cohort

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/oncostat/deltarad/pkg/errors"
)

// ClinicalConfig locates and interprets the clinical variable table.
type ClinicalConfig struct {
	Path  string
	Sheet string // worksheet name for .xlsx sources, default "Sheet1"

	// Column names. ID and Label are required in the table; Time and Event
	// are required when survival analysis runs; Split is optional and, when
	// present, pins the train/test assignment instead of deriving one.
	IDColumn    string
	LabelColumn string
	TimeColumn  string
	EventColumn string
	SplitColumn string
}

func (c ClinicalConfig) withDefaults() ClinicalConfig {
	if c.Sheet == "" {
		c.Sheet = "Sheet1"
	}
	if c.IDColumn == "" {
		c.IDColumn = "patient"
	}
	if c.LabelColumn == "" {
		c.LabelColumn = "outcome"
	}
	if c.TimeColumn == "" {
		c.TimeColumn = "time"
	}
	if c.EventColumn == "" {
		c.EventColumn = "event"
	}
	return c
}

// ReadClinicalTable reads the clinical table from a .xlsx or .csv file and
// returns the patient records plus the clinical variable names. Columns
// other than the reserved ones are clinical variables; non-numeric columns
// are label-encoded deterministically (distinct values sorted, then indexed).
func ReadClinicalTable(cfg ClinicalConfig) ([]Patient, []string, error) {
	cfg = cfg.withDefaults()

	rows, err := readRows(cfg)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, errors.Newf("clinical table %s has no data rows", cfg.Path)
	}

	header := rows[0]
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(strings.ToLower(name))] = i
	}

	idCol, ok := colIndex[strings.ToLower(cfg.IDColumn)]
	if !ok {
		return nil, nil, errors.Newf("clinical table missing identifier column %q", cfg.IDColumn)
	}
	labelCol, ok := colIndex[strings.ToLower(cfg.LabelColumn)]
	if !ok {
		return nil, nil, errors.Newf("clinical table missing outcome column %q", cfg.LabelColumn)
	}
	timeCol, hasTime := colIndex[strings.ToLower(cfg.TimeColumn)]
	eventCol, hasEvent := colIndex[strings.ToLower(cfg.EventColumn)]
	splitCol, hasSplit := -1, false
	if cfg.SplitColumn != "" {
		splitCol, hasSplit = colIndex[strings.ToLower(cfg.SplitColumn)]
		if !hasSplit {
			return nil, nil, errors.Newf("clinical table missing split column %q", cfg.SplitColumn)
		}
	}

	reserved := map[int]struct{}{idCol: {}, labelCol: {}}
	if hasTime {
		reserved[timeCol] = struct{}{}
	}
	if hasEvent {
		reserved[eventCol] = struct{}{}
	}
	if hasSplit {
		reserved[splitCol] = struct{}{}
	}

	var varCols []int
	var varNames []string
	for i, name := range header {
		if _, isReserved := reserved[i]; isReserved {
			continue
		}
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		varCols = append(varCols, i)
		varNames = append(varNames, trimmed)
	}

	encoders := buildCategoryEncoders(rows[1:], varCols)

	patients := make([]Patient, 0, len(rows)-1)
	for r, cells := range rows[1:] {
		get := func(col int) string {
			if col < len(cells) {
				return strings.TrimSpace(cells[col])
			}
			return ""
		}

		id := get(idCol)
		if id == "" {
			return nil, nil, errors.Newf("clinical table row %d has an empty patient identifier", r+2)
		}

		label, err := strconv.Atoi(get(labelCol))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "patient %s: parsing outcome label", id)
		}

		p := Patient{ID: id, Label: label, Clinical: make(map[string]float64, len(varCols))}

		if hasTime {
			p.Time, err = strconv.ParseFloat(get(timeCol), 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "patient %s: parsing time-to-event", id)
			}
		}
		if hasEvent {
			ev, err := strconv.Atoi(get(eventCol))
			if err != nil {
				return nil, nil, errors.Wrapf(err, "patient %s: parsing event indicator", id)
			}
			p.Event = ev != 0
		}
		if hasSplit {
			switch strings.ToLower(get(splitCol)) {
			case "train":
				p.Split = SplitTrain
			case "test":
				p.Split = SplitTest
			default:
				return nil, nil, errors.Newf("patient %s: split must be train or test, got %q", id, get(splitCol))
			}
		}

		for k, col := range varCols {
			raw := get(col)
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				p.Clinical[varNames[k]] = v
				continue
			}
			enc, ok := encoders[col]
			if !ok {
				return nil, nil, errors.Newf("patient %s: cannot interpret %q for variable %q", id, raw, varNames[k])
			}
			p.Clinical[varNames[k]] = float64(enc[raw])
		}

		patients = append(patients, p)
	}

	return patients, varNames, nil
}

// buildCategoryEncoders maps each non-numeric variable column to a
// deterministic value->code table (distinct values sorted, then indexed).
func buildCategoryEncoders(dataRows [][]string, varCols []int) map[int]map[string]int {
	encoders := make(map[int]map[string]int)
	for _, col := range varCols {
		numeric := true
		distinct := make(map[string]struct{})
		for _, cells := range dataRows {
			if col >= len(cells) {
				continue
			}
			raw := strings.TrimSpace(cells[col])
			if raw == "" {
				continue
			}
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				numeric = false
			}
			distinct[raw] = struct{}{}
		}
		if numeric {
			continue
		}
		values := make([]string, 0, len(distinct))
		for v := range distinct {
			values = append(values, v)
		}
		sort.Strings(values)
		enc := make(map[string]int, len(values))
		for i, v := range values {
			enc[v] = i
		}
		encoders[col] = enc
	}
	return encoders
}

func readRows(cfg ClinicalConfig) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".csv":
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening clinical table %s", cfg.Path)
		}
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			return nil, errors.Wrapf(err, "reading clinical table %s", cfg.Path)
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenFile(cfg.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening clinical table %s", cfg.Path)
		}
		defer f.Close()
		rows, err := f.GetRows(cfg.Sheet)
		if err != nil {
			return nil, errors.Wrapf(err, "reading sheet %s of %s", cfg.Sheet, cfg.Path)
		}
		return rows, nil
	default:
		return nil, errors.Newf("unsupported clinical table format: %s", cfg.Path)
	}
}
