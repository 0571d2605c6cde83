/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package halftone renders a line-screen rendition of an adjusted image:
// angled parallel ink bands whose width encodes local brightness. Darker
// source pixels produce wider bands. Only linear line screens are supported.
package halftone

import (
	"math"

	"linescreen/internal/raster"
)

// Params describe the line screen.
type Params struct {
	Frequency float64 // lines per 72 units, [1, 50]
	Angle     float64 // degrees, [0, 180]
	Thickness float64 // band width multiplier, [0.1, 1.5]
	Ink       raster.Color
}

// Defaults returns a mid-range screen.
func Defaults() Params {
	return Params{Frequency: 20, Angle: 45, Thickness: 0.8, Ink: raster.Black}
}

// Clamped returns a copy with every field forced into its documented range.
func (p Params) Clamped() Params {
	p.Frequency = clampRange(p.Frequency, 1, 50)
	p.Angle = clampRange(p.Angle, 0, 180)
	p.Thickness = clampRange(p.Thickness, 0.1, 1.5)
	return p
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Render converts src into a line-screen buffer of the same dimensions,
// initialized fully transparent. A pixel is inked iff its distance from the
// nearest band center, normalized to the band period, falls inside the
// luma-derived band half-width. Inked pixels take the source pixel's alpha;
// everything else stays transparent.
func Render(src *raster.Buffer, p Params) (*raster.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	p = p.Clamped()

	out, err := raster.New(src.W, src.H)
	if err != nil {
		return nil, err
	}

	angle := p.Angle
	// Exact multiples of 90 degenerate into a screen whose period aligns with
	// the pixel grid, classifying whole rows/columns identically. Nudge off
	// axis.
	if math.Mod(angle, 90) == 0 {
		angle += 0.01
	}
	rad := angle * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)

	spacing := math.Max(2, 72/p.Frequency)

	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			i := src.Offset(x, y)
			a := src.Pix[i+3]
			if a < raster.AlphaThreshold {
				continue
			}
			luma := raster.Luma(
				float64(src.Pix[i])/255,
				float64(src.Pix[i+1])/255,
				float64(src.Pix[i+2])/255,
			)

			rotatedX := float64(x)*cos + float64(y)*sin
			pos := math.Mod(math.Mod(rotatedX, spacing)+spacing, spacing)
			norm := pos / spacing

			halfWidth := (1 - luma) * p.Thickness
			dist := math.Abs(norm-0.5) * 2
			if dist < halfWidth {
				out.Pix[i] = p.Ink.R
				out.Pix[i+1] = p.Ink.G
				out.Pix[i+2] = p.Ink.B
				out.Pix[i+3] = a
			}
		}
	}
	return out, nil
}
