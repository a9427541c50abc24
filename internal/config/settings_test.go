package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", s.MaxConcurrent)
	}
	if s.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", s.MaxRetries)
	}
	if s.TimeoutSeconds != 60 {
		t.Errorf("TimeoutSeconds = %d, want 60", s.TimeoutSeconds)
	}
	if s.DelayMin != 1.0 || s.DelayMax != 3.0 {
		t.Errorf("delay range = [%v, %v], want [1, 3]", s.DelayMin, s.DelayMax)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MaxConcurrent != DefaultSettings().MaxConcurrent {
		t.Error("missing config file should fall back to defaults")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	s := DefaultSettings()
	s.MaxConcurrent = 5
	s.DisableDelay = true
	s.DefaultHeaders = map[string]string{"Accept": "image/webp"}

	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.MaxConcurrent != 5 {
		t.Errorf("MaxConcurrent = %d, want 5", loaded.MaxConcurrent)
	}
	if !loaded.DisableDelay {
		t.Error("DisableDelay not preserved")
	}
	if loaded.DefaultHeaders["Accept"] != "image/webp" {
		t.Error("DefaultHeaders not preserved")
	}
}

func TestToEngineConfig(t *testing.T) {
	s := DefaultSettings()
	s.MaxConcurrent = 2
	s.TimeoutSeconds = 30
	s.RateLimitedBackoffMin = 6
	s.RateLimitedBackoffMax = 12

	cfg := s.ToEngineConfig()

	if cfg.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", cfg.MaxConcurrent)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.DelayRange == nil || cfg.DelayRange.Min != time.Second || cfg.DelayRange.Max != 3*time.Second {
		t.Errorf("DelayRange = %v, want [1s, 3s]", cfg.DelayRange)
	}
	if cfg.RateLimitedBackoff.Min != 6*time.Second || cfg.RateLimitedBackoff.Max != 12*time.Second {
		t.Errorf("RateLimitedBackoff = %v, want [6s, 12s]", cfg.RateLimitedBackoff)
	}
}

func TestToEngineConfig_DisabledDelay(t *testing.T) {
	s := DefaultSettings()
	s.DisableDelay = true

	cfg := s.ToEngineConfig()
	if cfg.DelayRange == nil || cfg.DelayRange.Enabled() {
		t.Errorf("DelayRange = %v, want an explicitly disabled range", cfg.DelayRange)
	}
}
