package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestInitRoutesByLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, slog.LevelInfo)
	t.Cleanup(func() { Init(nil, slog.LevelInfo) })

	Debug(CatSync, "hidden")
	Info(CatSync, "widget updated", "key", "bottle")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug message leaked: %q", out)
	}
	for _, fragment := range []string{"widget updated", "cat=sync", "key=bottle"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("output %q missing %q", out, fragment)
		}
	}
}

func TestDisabledByDefault(t *testing.T) {
	Init(nil, slog.LevelDebug)
	// Must not panic with the discard handler.
	ErrorErr(CatForm, "ignored", nil)
}
