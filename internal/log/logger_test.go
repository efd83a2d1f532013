package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentService, Output: &buf})
	l.Info("fetched", FieldKind, "income")

	out := buf.String()
	if !strings.Contains(out, "component=transactions") || !strings.Contains(out, "kind=income") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentHTTP).Warn("slow")
	if !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("component not switched: %q", buf.String())
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf, JSON: true})
	l.Debug("hidden")
	l.Error("boom", FieldError, "x")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug should be filtered at info level")
	}
	if !strings.Contains(out, `"component":"app"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Fatalf("expected fallback component, got %q", got)
	}
	l := Default(ComponentHTTP)
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatalf("expected stored logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithKind("income").WithOperation(OpFetch).WithError(nil)
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error should not be recorded")
	}
	if len(f.ToSlice()) != 4 {
		t.Fatalf("unexpected slice %v", f.ToSlice())
	}
}
