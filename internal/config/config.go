/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the
// user scope. Environment variables are treated as read-only overrides at
// runtime.
//
// config_version: bump when the structure changes in a backward-incompatible
// way. Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
}

// DefaultsConfig seeds the session parameters applied to a freshly loaded
// image. Values outside their valid ranges are clamped by the pipeline.
type DefaultsConfig struct {
	Greyscale  bool    `yaml:"greyscale"`
	Exposure   float64 `yaml:"exposure"`
	Contrast   float64 `yaml:"contrast"`
	Frequency  float64 `yaml:"frequency"`
	Angle      float64 `yaml:"angle"`
	Thickness  float64 `yaml:"thickness"`
	Background string  `yaml:"background"` // "checkerboard" | "solid"
}

type ExportConfig struct {
	Dir   string `yaml:"dir"`   // empty: alongside the source image
	Scale int    `yaml:"scale"` // 1..4
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Defaults      DefaultsConfig `yaml:"defaults"`
	Export        ExportConfig   `yaml:"export"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Defaults: DefaultsConfig{
			Greyscale:  true,
			Exposure:   0,
			Contrast:   0,
			Frequency:  20,
			Angle:      45,
			Thickness:  0.8,
			Background: "checkerboard",
		},
		Export:  ExportConfig{Dir: "", Scale: 2},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvTheme       = "LSC_THEME"
	EnvExportDir   = "LSC_EXPORT_DIR"
	EnvExportScale = "LSC_EXPORT_SCALE"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "LSC_LOG_LEVEL"
	EnvLogFormat = "LSC_LOG_FORMAT"
	EnvLogSource = "LSC_LOG_SOURCE"
	EnvLogFile   = "LSC_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Linescreen")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Linescreen")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "linescreen")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Defaults.Greyscale = src.Defaults.Greyscale
	dst.Defaults.Exposure = src.Defaults.Exposure
	dst.Defaults.Contrast = src.Defaults.Contrast
	if src.Defaults.Frequency != 0 {
		dst.Defaults.Frequency = src.Defaults.Frequency
	}
	if src.Defaults.Angle != 0 {
		dst.Defaults.Angle = src.Defaults.Angle
	}
	if src.Defaults.Thickness != 0 {
		dst.Defaults.Thickness = src.Defaults.Thickness
	}
	if strings.TrimSpace(src.Defaults.Background) != "" {
		dst.Defaults.Background = strings.ToLower(strings.TrimSpace(src.Defaults.Background))
	}
	if strings.TrimSpace(src.Export.Dir) != "" {
		dst.Export.Dir = strings.TrimSpace(src.Export.Dir)
	}
	if src.Export.Scale != 0 {
		dst.Export.Scale = src.Export.Scale
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDir)); v != "" {
		cfg.Export.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportScale)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Export.Scale = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "general.theme":
		if os.Getenv(EnvTheme) != "" {
			return EnvTheme, true
		}
	case "export.dir":
		if os.Getenv(EnvExportDir) != "" {
			return EnvExportDir, true
		}
	case "export.scale":
		if os.Getenv(EnvExportScale) != "" {
			return EnvExportScale, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}
