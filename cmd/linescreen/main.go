/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"linescreen/internal/compose"
	"linescreen/internal/config"
	"linescreen/internal/crash"
	"linescreen/internal/export"
	applog "linescreen/internal/log"
	"linescreen/internal/raster"
	"linescreen/internal/session"
	"linescreen/internal/ui"
	"linescreen/internal/version"
)

func usage() {
	fmt.Println("Linescreen — halftone line-screen compositor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  linescreen version|-v|--version             Show version")
	fmt.Println("  linescreen export <image> [flags]           Render the composite headless and write it to disk")
	fmt.Println("      -scale N      export multiplier 1..4 (default from config)")
	fmt.Println("      -pdf          write a PDF instead of PNG")
	fmt.Println("      -out <path>   output file (default composite-<scale>x.png next to the image)")
	fmt.Println("      -mode M       what masks reveal: halftone|original")
	fmt.Println("      -bg B         background: checkerboard|white")
	fmt.Println("  linescreen ui [<image>]                     Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Linescreen — halftone line-screen compositor")
			fmt.Println(version.String())
			return
		case "export":
			if err := runExport(l, args[2:]); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			var path string
			if len(args) >= 3 {
				path = args[2]
			}
			if err := ui.Run(path); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func runExport(l *slog.Logger, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	scale := fs.Int("scale", cfg.Export.Scale, "export multiplier (1-4)")
	asPDF := fs.Bool("pdf", false, "write a PDF instead of PNG")
	out := fs.String("out", "", "output file path")
	mode := fs.String("mode", "halftone", "what the masks reveal: halftone|original")
	bg := fs.String("bg", cfg.Defaults.Background, "background: checkerboard|white")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		usage()
		return fmt.Errorf("export requires an image path")
	}
	src := fs.Arg(0)

	buf, err := loadImage(src)
	if err != nil {
		return err
	}
	l.Info("image loaded", slog.String("path", src), slog.Int("w", buf.W), slog.Int("h", buf.H))

	sess := session.New(session.Config{})
	defer sess.Close()
	switch *mode {
	case "halftone":
	case "original":
		sess.SetMode(compose.MasksShowOriginal)
	default:
		return fmt.Errorf("unknown -mode %q (want halftone or original)", *mode)
	}
	switch *bg {
	case "checkerboard", "":
	case "white":
		sess.SetBackground(compose.Background{Kind: compose.Solid, Color: raster.White})
	default:
		return fmt.Errorf("unknown -bg %q (want checkerboard or white)", *bg)
	}
	if err := sess.SetImage(buf); err != nil {
		return err
	}
	if err := sess.Recompute(); err != nil {
		return err
	}
	composite, err := sess.Export(*scale)
	if err != nil {
		return err
	}

	baseDir := cfg.Export.Dir
	if baseDir == "" {
		abs, _ := filepath.Abs(src)
		baseDir = filepath.Dir(abs)
	}
	outPath := *out
	if *asPDF {
		if outPath == "" {
			outPath = "composite.pdf"
		}
		path, err := export.WritePDF(composite, baseDir, outPath, export.PDFOptions{Title: "Linescreen composite"})
		if err != nil {
			return err
		}
		fmt.Println("Wrote", path)
		return nil
	}
	if outPath == "" {
		outPath = export.PNGName(*scale)
	}
	path, err := export.WritePNG(composite, baseDir, outPath)
	if err != nil {
		return err
	}
	fmt.Println("Wrote", path)
	return nil
}

func loadImage(path string) (*raster.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return raster.FromImage(img)
}
