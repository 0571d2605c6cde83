/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tone implements the photometric adjustment stage of the pipeline:
// greyscale, exposure, contrast, highlight/shadow lift, color overlay and
// cell-based film grain. The stage is pure: same buffer + same params always
// produce the same output.
package tone

import (
	"math"

	"linescreen/internal/raster"
)

// Params are the tone adjustments applied to the raw image.
// Ranges are clamped defensively in Apply; the UI keeps sliders in range.
type Params struct {
	Greyscale bool

	Exposure float64 // stops, [-2, 2]
	Contrast float64 // [-1, 1]

	Highlights float64 // [-1, 1]
	Shadows    float64 // [-1, 1]

	Overlay        raster.Color
	OverlayOpacity float64 // [0, 1]

	NoiseEnabled bool
	GrainSize    int // cell side in pixels, >= 1
	NoiseColor   raster.Color
	NoiseOpacity float64 // [0, 0.5]
}

// Defaults returns the neutral parameter set (identity transform).
func Defaults() Params {
	return Params{
		GrainSize:  2,
		Overlay:    raster.Color{R: 255, G: 140, B: 60, A: 255},
		NoiseColor: raster.Black,
	}
}

// Clamped returns a copy with every field forced into its documented range.
func (p Params) Clamped() Params {
	p.Exposure = clampRange(p.Exposure, -2, 2)
	p.Contrast = clampRange(p.Contrast, -1, 1)
	p.Highlights = clampRange(p.Highlights, -1, 1)
	p.Shadows = clampRange(p.Shadows, -1, 1)
	p.OverlayOpacity = clampRange(p.OverlayOpacity, 0, 1)
	p.NoiseOpacity = clampRange(p.NoiseOpacity, 0, 0.5)
	if p.GrainSize < 1 {
		p.GrainSize = 1
	}
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

// Apply runs the adjustment chain over src and returns a new buffer of the
// same dimensions. Pixels with alpha below raster.AlphaThreshold are copied
// through untouched, alpha included.
func Apply(src *raster.Buffer, p Params) (*raster.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	p = p.Clamped()

	out := src.Clone()
	gain := math.Pow(2, p.Exposure)
	slope := 1 + p.Contrast
	cell := p.GrainSize

	ovR := float64(p.Overlay.R) / 255
	ovG := float64(p.Overlay.G) / 255
	ovB := float64(p.Overlay.B) / 255
	nzR := float64(p.NoiseColor.R) / 255
	nzG := float64(p.NoiseColor.G) / 255
	nzB := float64(p.NoiseColor.B) / 255

	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			i := src.Offset(x, y)
			if src.Pix[i+3] < raster.AlphaThreshold {
				continue // clone keeps the original bytes
			}
			r := float64(src.Pix[i]) / 255
			g := float64(src.Pix[i+1]) / 255
			b := float64(src.Pix[i+2]) / 255

			if p.Greyscale {
				l := raster.Luma(r, g, b)
				r, g, b = l, l, l
			}

			r *= gain
			g *= gain
			b *= gain

			r = (r-0.5)*slope + 0.5
			g = (g-0.5)*slope + 0.5
			b = (b-0.5)*slope + 0.5

			// Highlight/shadow lift keys off the clamped luma but shifts the
			// unclamped channels so consecutive steps do not double-clip.
			l := raster.Luma(raster.Clamp01(r), raster.Clamp01(g), raster.Clamp01(b))
			hw := math.Max(0, (l-0.5)*2)
			sw := math.Max(0, (0.5-l)*2)
			shift := p.Highlights*hw*0.5 + p.Shadows*sw*0.5
			r += shift
			g += shift
			b += shift

			if p.OverlayOpacity > 0 {
				r = overlayChannel(raster.Clamp01(r), ovR, p.OverlayOpacity)
				g = overlayChannel(raster.Clamp01(g), ovG, p.OverlayOpacity)
				b = overlayChannel(raster.Clamp01(b), ovB, p.OverlayOpacity)
			}

			if p.NoiseEnabled && p.NoiseOpacity > 0 {
				// One hash per pixel position so all three channels see the
				// same grain value.
				n := cellNoise(x/cell, y/cell)
				k := p.NoiseOpacity * n
				r = r*(1-k) + nzR*k
				g = g*(1-k) + nzG*k
				b = b*(1-k) + nzB*k
			}

			out.Pix[i] = raster.To8(r)
			out.Pix[i+1] = raster.To8(g)
			out.Pix[i+2] = raster.To8(b)
			// alpha passes through
		}
	}
	return out, nil
}

// overlayChannel applies a soft-light style blend of base with the overlay
// channel and mixes the result back in by opacity. base must be in [0, 1].
func overlayChannel(base, blend, opacity float64) float64 {
	var res float64
	if base < 0.5 {
		res = 2 * base * blend
	} else {
		res = 1 - 2*(1-base)*(1-blend)
	}
	return base*(1-opacity) + res*opacity
}

// cellNoise derives a deterministic pseudo-random value in [0, 1) for a grain
// cell. The double modulo keeps negative sine outputs in range.
func cellNoise(gx, gy int) float64 {
	v := math.Sin(float64(gx)*12.9898+float64(gy)*78.233) * 43758.5453
	return math.Mod(math.Mod(v, 1)+1, 1)
}
