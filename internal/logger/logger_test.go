package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newFileLogger(t *testing.T, cfg *Config) (*FileLogger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	if cfg == nil {
		cfg = &Config{LogFilePath: path, MaxFileSize: 1024 * 1024, Level: LevelDebug}
	} else {
		cfg.LogFilePath = path
	}
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	l, path := newFileLogger(t, &Config{MaxFileSize: 1024 * 1024, Level: LevelWarn})

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", errors.New("boom"))
	l.Close()

	content := readLog(t, path)
	if strings.Contains(content, "debug message") || strings.Contains(content, "info message") {
		t.Errorf("below-threshold messages written: %q", content)
	}
	if !strings.Contains(content, "warn message") || !strings.Contains(content, "error message") {
		t.Errorf("threshold messages missing: %q", content)
	}
}

func TestSetLevel(t *testing.T) {
	l, path := newFileLogger(t, &Config{MaxFileSize: 1024 * 1024, Level: LevelError})

	l.Info("before")
	l.SetLevel(LevelDebug)
	l.Info("after")
	l.Close()

	content := readLog(t, path)
	if strings.Contains(content, "before") {
		t.Error("filtered message written before SetLevel")
	}
	if !strings.Contains(content, "after") {
		t.Error("message missing after lowering the level")
	}
}

func TestFieldFormatting(t *testing.T) {
	l, path := newFileLogger(t, nil)

	l.Info("upload complete",
		String("file", "contest.pdf"),
		Int("pages", 12),
		Bool("split", true),
		Float64("scale", 3.5),
	)
	l.Error("extract failed", errors.New("encrypted"), Int("page", 3))
	l.Close()

	content := readLog(t, path)
	for _, want := range []string{
		"[INFO] upload complete",
		"file=contest.pdf",
		"pages=12",
		"split=true",
		"scale=3.5",
		`[ERROR] extract failed error="encrypted"`,
		"page=3",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q in %q", want, content)
		}
	}
}

func TestErrField(t *testing.T) {
	if f := Err(errors.New("x")); f.Key != "error" || f.Value != "x" {
		t.Errorf("Err() = %+v", f)
	}
	if f := Err(nil); f.Key != "error" || f.Value != nil {
		t.Errorf("Err(nil) = %+v", f)
	}
}

func TestRotation(t *testing.T) {
	l, path := newFileLogger(t, &Config{MaxFileSize: 200, Level: LevelDebug})

	for i := 0; i < 20; i++ {
		l.Info("a fairly long log line to push the file over its size limit")
	}
	l.Close()

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("rotated backup missing: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("current log missing: %v", err)
	}
	if info.Size() > 400 {
		t.Errorf("current log size = %d, rotation not applied", info.Size())
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNop()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x", errors.New("x"))
	l.SetLevel(LevelDebug)
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
