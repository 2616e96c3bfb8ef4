package telemetry

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggerFileSink(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	path := filepath.Join(t.TempDir(), "scan.log")
	InitLogger(false, path)

	slog.Info("hello from the scanner", "records", 3)
	slog.Debug("should be filtered at info level")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "hello from the scanner") {
		t.Errorf("log file missing entry: %s", out)
	}
	if !strings.Contains(out, `"records":3`) {
		t.Errorf("expected JSON attributes, got: %s", out)
	}
	if strings.Contains(out, "should be filtered") {
		t.Error("debug record leaked at info level")
	}
}

func TestInitLoggerDebugLevel(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	path := filepath.Join(t.TempDir(), "scan.log")
	InitLogger(true, path)

	slog.Debug("visible in verbose mode")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "visible in verbose mode") {
		t.Error("debug record missing in verbose mode")
	}
}
