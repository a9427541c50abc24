// Package config provides configuration management for kumo.
//
// Settings are stored as JSON. Use DefaultSettings() for sensible
// defaults, Load to read a file (missing files fall back to defaults) and
// Save to persist. ToEngineConfig and ToPathConfig bridge the settings
// into the download engine and the model path templates.
//
//	settings, err := config.Load("/path/to/config.json")
//	engine, err := download.New(settings.ToEngineConfig())
package config
