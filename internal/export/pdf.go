/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"linescreen/internal/raster"
)

// PDFOptions controls PDF export behavior. Units are points (pt).
//
// The composite is placed on a single page sized so that one source pixel maps
// to one point at DPI 72; a higher DPI shrinks the physical page while keeping
// every pixel. Transparency survives because the image is embedded as PNG.
type PDFOptions struct {
	DPI   int    // defaults to 300
	Title string // document title metadata
}

// WritePDF embeds the composite as a single-page PDF at outPath. Relative
// paths are resolved under baseDir.
func WritePDF(buf *raster.Buffer, baseDir, outPath string, opt PDFOptions) (string, error) {
	if err := buf.Validate(); err != nil {
		return "", fmt.Errorf("export pdf: %w", err)
	}
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 300
	}
	// 1pt = 1/72"; page size in points for the pixel dimensions at the DPI.
	scale := 72.0 / float64(dpi)
	pageW := float64(buf.W) * scale
	pageH := float64(buf.H) * scale

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
		OrientationStr: "",
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, false)
	}
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: pageW, Ht: pageH})

	var enc bytes.Buffer
	if err := png.Encode(&enc, buf.NRGBA()); err != nil {
		return "", fmt.Errorf("encode composite: %w", err)
	}
	name := "composite"
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &enc)
	pdf.ImageOptions(name, 0, 0, pageW, pageH, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	path := resolve(baseDir, outPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}
