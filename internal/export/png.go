/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes finished composites to disk as PNG or PDF.
package export

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"linescreen/internal/raster"
)

// PNGName returns the conventional output filename for a composite exported
// at the given scale, e.g. "composite-2x.png".
func PNGName(scale int) string { return fmt.Sprintf("composite-%dx.png", scale) }

// WritePNG encodes the composite to outPath. The buffer's straight-alpha
// pixels are written as-is, so transparent regions stay transparent in the
// file. Relative paths are resolved under baseDir.
func WritePNG(buf *raster.Buffer, baseDir, outPath string) (string, error) {
	if err := buf.Validate(); err != nil {
		return "", fmt.Errorf("export png: %w", err)
	}
	path := resolve(baseDir, outPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, buf.NRGBA()); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close png: %w", err)
	}
	return path, nil
}

func resolve(baseDir, outPath string) string {
	if filepath.IsAbs(outPath) || baseDir == "" {
		return outPath
	}
	return filepath.Join(baseDir, outPath)
}
