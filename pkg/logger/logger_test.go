package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	// Test development mode
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize development logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Test production mode
	err = Init()
	if err != nil {
		t.Fatalf("failed to initialize production logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger = Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

// Basic logging test (slog-backed; no Sugar)
func TestLoggerBasic(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil")
	}

	ctx := context.Background()
	logger.Info(ctx, "test message", String("k", "v"))
}

func TestLoggerNamed(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	ctx := context.Background()
	namedLogger.Info(ctx, "test message")
}

func TestLoggerJSONBackend(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	defer func() {
		_ = Init()
	}()

	ctx := context.Background()
	Get().Named("cache").Info(ctx, "refresh published", Int("rows", 3), Bool("changed", true), Duration("took", time.Second))
	Get().Debug(ctx, "hidden at info level")
	if err := Sync(); err != nil {
		t.Fatalf("failed to sync json logger: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"refresh published"`) {
		t.Errorf("expected json message, got %q", out)
	}
	if !strings.Contains(out, `"rows":3`) {
		t.Errorf("expected rows field, got %q", out)
	}
	if strings.Contains(out, "hidden at info level") {
		t.Errorf("debug entry should be filtered, got %q", out)
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(ctx, "visible at debug level")
	if !strings.Contains(buf.String(), "visible at debug level") {
		t.Errorf("debug entry should pass after level change")
	}
}

func TestLoggerInvalidInput(t *testing.T) {
	if err := Init(WithFormat("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
