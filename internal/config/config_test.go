package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"contest-translator/internal/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	m, err := NewManager(path, logger.NewNop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")

	m := newTestManager(t)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := m.Get()
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
	if cfg.SplitPromptThreshold != DefaultSplitPromptThreshold {
		t.Errorf("SplitPromptThreshold = %d, want %d", cfg.SplitPromptThreshold, DefaultSplitPromptThreshold)
	}
	if cfg.MinRenderScale != DefaultMinRenderScale || cfg.MaxRenderScale != DefaultMaxRenderScale {
		t.Errorf("render scale bounds = %g..%g", cfg.MinRenderScale, cfg.MaxRenderScale)
	}
}

func TestLoad_InvalidJSONFallsBackToDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")

	m := newTestManager(t)
	if err := os.WriteFile(m.ConfigPath(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg := m.Get(); cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want default after invalid file", cfg.Model)
	}
}

func TestLoad_FileValuesAndEnvOverride(t *testing.T) {
	m := newTestManager(t)
	stored := Config{APIKey: "sk-file", BaseURL: "https://file.example.com", Model: "custom-model"}
	data, _ := json.Marshal(stored)
	if err := os.WriteFile(m.ConfigPath(), data, 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPIKey, "sk-env")
	t.Setenv(EnvBaseURL, "https://env.example.com")

	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := m.Get()
	// A key already present in the file wins over the environment; the base
	// URL environment override always applies.
	if cfg.APIKey != "sk-file" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "sk-file")
	}
	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, want env override", cfg.BaseURL)
	}
	if cfg.Model != "custom-model" {
		t.Errorf("Model = %q", cfg.Model)
	}
	// Unset numeric fields are backfilled with defaults.
	if cfg.PixelRatio != DefaultPixelRatio {
		t.Errorf("PixelRatio = %g, want default", cfg.PixelRatio)
	}
}

func TestLoad_EnvAPIKeyWhenFileHasNone(t *testing.T) {
	m := newTestManager(t)
	data, _ := json.Marshal(Config{Model: "m"})
	if err := os.WriteFile(m.ConfigPath(), data, 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPIKey, "sk-env")
	t.Setenv(EnvBaseURL, "")

	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg := m.Get(); cfg.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "sk-env")
	}
}

func TestSetAPIKeyPersists(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")

	m := newTestManager(t)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := m.SetAPIKey("sk-saved"); err != nil {
		t.Fatalf("SetAPIKey() error = %v", err)
	}

	// A fresh manager reading the same path sees the persisted key.
	m2, err := NewManager(m.ConfigPath(), logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := m2.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg := m2.Get(); cfg.APIKey != "sk-saved" {
		t.Errorf("persisted APIKey = %q, want %q", cfg.APIKey, "sk-saved")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "config.json")
	m, err := NewManager(path, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}
