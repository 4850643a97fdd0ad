package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/oncostat/deltarad/pkg/errors"
)

func TestErrFmtHandlerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	err := errors.NewConvergenceError("CoxPH", "suv_max", 50, "degenerate variance")
	logger.Error("fit failed", ErrAttr(err))

	var record map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("output is not JSON: %v", jsonErr)
	}
	if _, ok := record[StacktraceAttrKey]; !ok {
		t.Errorf("record missing %q attribute: %v", StacktraceAttrKey, record)
	}
}

func TestZerologWarnSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewZerologWarnSink(&buf)

	sink(errors.NewTimepointAsymmetryWarning("P-004", "A", "B"))

	out := buf.String()
	if !strings.Contains(out, "P-004") {
		t.Errorf("sink output missing patient id: %s", out)
	}
	if !strings.Contains(out, "TimepointAsymmetryWarning") {
		t.Errorf("sink output missing structured warning type: %s", out)
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.in); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetLoggerWithName(t *testing.T) {
	logger := GetLoggerWithName("radiomics.delta")
	if logger == nil {
		t.Fatal("nil logger")
	}
	child := logger.With(PatientKey, "P-001")
	if child == nil {
		t.Fatal("nil child logger")
	}
}
