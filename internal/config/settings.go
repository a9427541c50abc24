package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/0xsi23/kumo/internal/download"
	"github.com/0xsi23/kumo/internal/model"
)

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	DownloadsPath  string  `json:"downloads_path"`
	MaxConcurrent  int     `json:"max_concurrent_downloads"`
	MaxRetries     int     `json:"download_max_retries"`
	TimeoutSeconds int     `json:"download_timeout_seconds"`
	DelayMin       float64 `json:"delay_min_seconds"`
	DelayMax       float64 `json:"delay_max_seconds"`
	DisableDelay   bool    `json:"disable_delay"`

	// Backoff ranges per failure kind, in seconds. Zero pairs keep the
	// engine defaults.
	RateLimitedBackoffMin float64 `json:"rate_limited_backoff_min_seconds"`
	RateLimitedBackoffMax float64 `json:"rate_limited_backoff_max_seconds"`
	ForbiddenBackoffMin   float64 `json:"forbidden_backoff_min_seconds"`
	ForbiddenBackoffMax   float64 `json:"forbidden_backoff_max_seconds"`
	TransientBackoffMin   float64 `json:"transient_backoff_min_seconds"`
	TransientBackoffMax   float64 `json:"transient_backoff_max_seconds"`

	// Request decoration
	UserAgent      string            `json:"user_agent"`
	DefaultHeaders map[string]string `json:"default_headers,omitempty"`

	// Cover settings
	SaveCover         bool `json:"save_cover"`
	CoverResize       bool `json:"cover_resize"`
	CoverMaxSize      int  `json:"cover_max_size"`
	ConvertCoverToJPG bool `json:"convert_cover_to_jpg"`
}

// DefaultSettings returns settings with default values. Concurrency is
// deliberately low: comic hosts treat aggressive parallelism as bot
// traffic and start handing out 403s and 429s.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadsPath:  filepath.Join(homeDir, "Comics", "{comic}", "{chapter}"),
		MaxConcurrent:  3,
		MaxRetries:     3,
		TimeoutSeconds: 60,
		DelayMin:       1.0,
		DelayMax:       3.0,

		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",

		SaveCover:         true,
		CoverResize:       false,
		CoverMaxSize:      1000,
		ConvertCoverToJPG: false,
	}
}

// Load reads settings from a JSON file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ToEngineConfig converts settings to a download engine configuration.
func (s *Settings) ToEngineConfig() download.Config {
	delay := download.DelayRange{
		Min: seconds(s.DelayMin),
		Max: seconds(s.DelayMax),
	}
	if s.DisableDelay {
		delay = download.DelayRange{}
	}

	return download.Config{
		MaxConcurrent:  s.MaxConcurrent,
		DelayRange:     &delay,
		MaxRetries:     s.MaxRetries,
		Timeout:        time.Duration(s.TimeoutSeconds) * time.Second,
		DefaultHeaders: s.DefaultHeaders,
		UserAgent:      s.UserAgent,
		RateLimitedBackoff: download.DelayRange{
			Min: seconds(s.RateLimitedBackoffMin),
			Max: seconds(s.RateLimitedBackoffMax),
		},
		ForbiddenBackoff: download.DelayRange{
			Min: seconds(s.ForbiddenBackoffMin),
			Max: seconds(s.ForbiddenBackoffMax),
		},
		TransientBackoff: download.DelayRange{
			Min: seconds(s.TransientBackoffMin),
			Max: seconds(s.TransientBackoffMax),
		},
	}
}

// ToPathConfig converts settings to a model path configuration.
func (s *Settings) ToPathConfig() *model.PathConfig {
	return &model.PathConfig{DownloadsPath: s.DownloadsPath}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
