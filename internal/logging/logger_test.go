package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithRun(t *testing.T) {
	ctx, id := WithRun(context.Background())
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("run ID %q is not a UUID: %v", id, err)
	}
	if got := RunID(ctx); got != id {
		t.Errorf("RunID() = %q, want %q", got, id)
	}

	again, id2 := WithRun(ctx)
	if id2 != id || RunID(again) != id {
		t.Errorf("WithRun() replaced existing run ID %q with %q", id, id2)
	}

	if got := RunID(context.Background()); got != "" {
		t.Errorf("RunID(empty) = %q, want empty", got)
	}
}

func TestFromContext_IncludesRunID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")

	ctx, id := WithRun(context.Background())
	WithFields(ctx, "table", "User").Info("table completed", "rows", 3)

	out := buf.String()
	for _, want := range []string{`"run_id":"` + id + `"`, `"table":"User"`, `"rows":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestSetupWriter_LevelFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "text")

	slog.Info("hidden")
	slog.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn entry missing: %s", out)
	}
}
