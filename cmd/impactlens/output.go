package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/helpers"
)

// ============================================================================
// OUTPUT — json, pretty, text and csv, to stdout or an atomic file
// ============================================================================

// result is what a command produces. Text and Table are optional; a format
// that needs a missing one is an error.
type result struct {
	Value any
	Text  func(w io.Writer)
	Table *engine.TableData
}

func (a *app) emit(r result) error {
	var buf bytes.Buffer
	switch a.format {
	case "json", "pretty":
		enc := json.NewEncoder(&buf)
		if a.format == "pretty" {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(r.Value); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
	case "text":
		if r.Text == nil {
			return fmt.Errorf("text output is not available here")
		}
		r.Text(&buf)
	case "csv":
		if r.Table == nil {
			return fmt.Errorf("csv output is not available here")
		}
		if err := helpers.WriteCSV(&buf, r.Table); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want json, pretty, text or csv)", a.format)
	}
	return a.write(buf.Bytes())
}

// write sends data to stdout, or replaces --out atomically so readers never
// see a partial file.
func (a *app) write(data []byte) error {
	if a.out == "" {
		_, err := a.stdout.Write(data)
		return err
	}
	path := a.out
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.workDir, path)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("output written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

type metric struct {
	name  string
	value string
}

func metricsTable(title string, metrics []metric) *engine.TableData {
	t := &engine.TableData{
		Title: title,
		Columns: []engine.Column{
			{Key: "metric", Label: "Metric", Type: "text", Align: "left"},
			{Key: "value", Label: "Value", Type: "number", Align: "right"},
		},
	}
	for _, m := range metrics {
		t.Rows = append(t.Rows, []string{m.name, m.value})
	}
	return t
}

func metricsText(title string, metrics []metric) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, title)
		width := 0
		for _, m := range metrics {
			width = max(width, len(m.name))
		}
		for _, m := range metrics {
			fmt.Fprintf(w, "  %-*s  %s\n", width, m.name, m.value)
		}
	}
}

func metricsResult(title string, value any, metrics []metric) result {
	return result{Value: value, Text: metricsText(title, metrics), Table: metricsTable(title, metrics)}
}

func num(v float64) string {
	if v == float64(int64(v)) {
		return engine.FormatInt(int(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }
