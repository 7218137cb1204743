package typedb

import (
	"context"
	"fmt"
	"log/slog"
)

// Severity grades a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic reports a recoverable parse anomaly. Diagnostics never abort a build.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	File     int      `json:"file"`
	Line     int      `json:"line"` // 1-indexed, 0 when not tied to a line
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s: file %d line %d: %s", d.Severity, d.File, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: file %d: %s", d.Severity, d.File, d.Message)
}

// diagnostics collects anomalies for one build and mirrors them to the logger.
type diagnostics struct {
	logger *slog.Logger
	list   []Diagnostic
}

func newDiagnostics(logger *slog.Logger) *diagnostics {
	return &diagnostics{logger: logger, list: []Diagnostic{}}
}

func (d *diagnostics) warn(file, line int, format string, args ...any) {
	d.add(SeverityWarning, file, line, fmt.Sprintf(format, args...))
}

func (d *diagnostics) info(file, line int, format string, args ...any) {
	d.add(SeverityInfo, file, line, fmt.Sprintf(format, args...))
}

func (d *diagnostics) add(sev Severity, file, line int, msg string) {
	d.list = append(d.list, Diagnostic{Severity: sev, File: file, Line: line, Message: msg})

	level := slog.LevelWarn
	if sev == SeverityInfo {
		level = slog.LevelDebug
	}
	d.logger.Log(context.Background(), level, msg,
		slog.Int("file", file),
		slog.Int("line", line),
	)
}
