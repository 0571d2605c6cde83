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
	"os"
	"testing"
)

func TestDefaultsAreSane(t *testing.T) {
	cfg := Defaults()
	if cfg.Defaults.Frequency != 20 || cfg.Defaults.Angle != 45 || cfg.Defaults.Thickness != 0.8 {
		t.Fatalf("screen defaults wrong: %#v", cfg.Defaults)
	}
	if cfg.Defaults.Background != "checkerboard" {
		t.Fatalf("background default = %q", cfg.Defaults.Background)
	}
	if cfg.Export.Scale != 2 {
		t.Fatalf("export scale default = %d", cfg.Export.Scale)
	}
}

func TestEnvOverridesExport(t *testing.T) {
	old := os.Getenv(EnvExportScale)
	_ = os.Setenv(EnvExportScale, "4")
	t.Cleanup(func() { _ = os.Setenv(EnvExportScale, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Export.Scale != 4 {
		t.Fatalf("Export.Scale = %d, want 4 from env override", cfg.Export.Scale)
	}
}

func TestMergeIncludesDefaultsSection(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Defaults.Greyscale = false
	src.Defaults.Frequency = 32
	src.Defaults.Background = "Solid"
	mergeInto(&dst, &src)
	if dst.Defaults.Greyscale {
		t.Fatalf("greyscale flag was not merged from file config")
	}
	if dst.Defaults.Frequency != 32 || dst.Defaults.Background != "solid" {
		t.Fatalf("defaults not merged correctly: %#v", dst.Defaults)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/lsc.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/lsc.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldSrc := os.Getenv(EnvLogSource)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogSource, "1")
	_ = os.Setenv(EnvLogFile, "X:/lsc.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogSource, oldSrc)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/lsc.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestEnvOverrideForReportsSource(t *testing.T) {
	old := os.Getenv(EnvTheme)
	_ = os.Setenv(EnvTheme, "dark")
	t.Cleanup(func() { _ = os.Setenv(EnvTheme, old) })
	name, ok := EnvOverrideFor("general.theme")
	if !ok || name != EnvTheme {
		t.Fatalf("EnvOverrideFor = %q,%v", name, ok)
	}
	if _, ok := EnvOverrideFor("export.dir"); ok && os.Getenv(EnvExportDir) == "" {
		t.Fatalf("export.dir should not report an override without the env var")
	}
}
