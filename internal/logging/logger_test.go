package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}

	var typed *componentLogger
	if got := OrNop(typed); got == nil {
		t.Fatal("OrNop(typed nil) returned nil")
	} else if _, ok := got.(nopLogger); !ok {
		t.Fatalf("OrNop(typed nil) = %T, want nopLogger", got)
	}

	real := NewComponentLogger("test")
	if got := OrNop(real); got != real {
		t.Fatal("OrNop replaced a non-nil logger")
	}
}

func TestComponentLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	defer func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	}()

	logger := NewComponentLogger("scheduler")
	logger.Debug("hidden %d", 1)
	logger.Info("visible %s", "line")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line emitted below level: %q", out)
	}
	if !strings.Contains(out, "[INFO] [scheduler] visible line") {
		t.Errorf("unexpected log line: %q", out)
	}
}
