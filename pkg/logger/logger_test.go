package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	// Text handler
	if err := Init("text"); err != nil {
		t.Fatalf("failed to initialize text logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	// JSON handler
	if err := Init("json"); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Empty format defaults to text
	if err := Init(""); err != nil {
		t.Fatalf("failed to initialize default logger: %v", err)
	}

	// Unknown format fails
	if err := Init("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init("text"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log := Get()

	// Exercise every level below Fatal with a mix of field types.
	log.Debug(ctx, "debug message", String("key", "value"))
	log.Info(ctx, "info message", Int("count", 42), Int64("id", int64(7)))
	log.Warn(ctx, "warn message", Float64("ratio", 0.5), Bool("flag", true))
	log.Error(ctx, "error message", Error(errors.New("test error")), Any("payload", map[string]int{"a": 1}))
}

func TestLoggerNamed(t *testing.T) {
	if err := Init("text"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	named := Named("component")
	if named == nil {
		t.Fatal("named logger is nil")
	}
	named.Info(context.Background(), "named message", String("key", "value"))

	nested := named.Named("sub")
	if nested == nil {
		t.Fatal("nested named logger is nil")
	}
	nested.Info(context.Background(), "nested message")
}

func TestSetLevelString(t *testing.T) {
	if err := Init("text"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
	}
	for in, want := range cases {
		if err := SetLevelString(in); err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", in, err)
		}
		if got := levelVar.Level(); got != want {
			t.Errorf("SetLevelString(%q): expected level %v, got %v", in, want, got)
		}
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
