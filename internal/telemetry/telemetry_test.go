package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")
	logger.Debug("hidden")
	logger.Info("resolved", "properties", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "resolved" {
		t.Errorf("msg = %v, want resolved", entry["msg"])
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelDebug, "text").Debug("hello", "k", "v")

	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "")
	id := RunID(ctx)
	if len(id) != 26 {
		t.Errorf("run id %q is not a ULID", id)
	}
	if got := RunID(WithRunID(context.Background(), "fixed")); got != "fixed" {
		t.Errorf("RunID = %q, want fixed", got)
	}
	if got := RunID(context.Background()); got != "" {
		t.Errorf("RunID on empty context = %q", got)
	}
}

func TestRunLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "text")
	RunLogger(logger, WithRunID(context.Background(), "run-1")).Info("x")

	if !strings.Contains(buf.String(), "run_id=run-1") {
		t.Errorf("missing run_id in %q", buf.String())
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordRun("success", 20*time.Millisecond, 14)
	m.RecordRun("failure", time.Millisecond, 0)
	m.DecryptFailure()
	m.MirrorSelected()
	m.ServerProcessed()

	path := filepath.Join(t.TempDir(), "credprops.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`credprops_resolution_runs_total{status="success"} 1`,
		`credprops_resolution_runs_total{status="failure"} 1`,
		"credprops_properties_published 14",
		"credprops_decrypt_failures_total 1",
		"credprops_mirrors_selected_total 1",
		"credprops_servers_processed_total 1",
		"credprops_resolution_duration_seconds_count 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestTracer_ChildInheritsTrace(t *testing.T) {
	var spans []Span
	tracer := NewTracer(SpanExporterFunc(func(s Span) { spans = append(spans, s) }))

	ctx := WithRunID(context.Background(), "run-7")
	ctx, root := tracer.StartSpan(ctx, "resolve", nil)
	_, child := tracer.StartSpan(ctx, "servers", PhaseTags("servers", 2))
	tracer.EndSpan(child, "")
	tracer.EndSpan(root, "error")

	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}
	if spans[0].TraceID != "run-7" || spans[0].ParentID != root.SpanID {
		t.Errorf("child span = %+v", spans[0])
	}
	if spans[0].Tags["entries"] != "2" {
		t.Errorf("entries tag = %q, want 2", spans[0].Tags["entries"])
	}
	if spans[1].Status != "error" {
		t.Errorf("root status = %q, want error", spans[1].Status)
	}
}

func TestLogExporter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug, "text")
	tracer := NewTracer(LogExporter(logger))

	_, span := tracer.StartSpan(context.Background(), "repositories", PhaseTags("repositories", 1))
	tracer.EndSpan(span, "")

	if !strings.Contains(buf.String(), "span repositories") || !strings.Contains(buf.String(), "phase=repositories") {
		t.Errorf("unexpected log output: %q", buf.String())
	}
}
