/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compose merges the adjusted and halftone layers, the mask stencil
// and a background policy into one output buffer at an arbitrary scale. The
// same code path serves the live preview (fractional scale) and export
// (integer scale); only the output size differs.
package compose

import (
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"linescreen/internal/mask"
	"linescreen/internal/raster"
)

// Mode selects which layer the masks reveal.
type Mode int

const (
	// MasksShowHalftone: the adjusted image is the base layer, masks punch
	// through to the halftone rendition.
	MasksShowHalftone Mode = iota
	// MasksShowOriginal: the halftone rendition is the base layer, masks
	// punch through to the adjusted original.
	MasksShowOriginal
)

func (m Mode) String() string {
	if m == MasksShowOriginal {
		return "original"
	}
	return "halftone"
}

// Layers assigns the two derived buffers to base/masked according to mode.
func Layers(mode Mode, adjusted, halftone *raster.Buffer) (base, masked *raster.Buffer) {
	if mode == MasksShowOriginal {
		return halftone, adjusted
	}
	return adjusted, halftone
}

// BackgroundKind is the policy for pixels nothing else covers.
type BackgroundKind int

const (
	Checkerboard BackgroundKind = iota
	Solid
)

// Background is painted behind everything with destination-over semantics.
type Background struct {
	Kind  BackgroundKind
	Color raster.Color // used by Solid
}

// Checkerboard tile geometry: two dark neutral tones alternating by
// tile-coordinate parity.
const checkerTile = 8

var (
	checkerDark  = raster.Color{R: 52, G: 52, B: 52, A: 255}
	checkerLight = raster.Color{R: 68, G: 68, B: 68, A: 255}
)

// Composite renders base and masked layers against bg at the given scale.
// Output dimensions are round(scale×W) by round(scale×H).
//
// With masks present: the scaled base layer is drawn first, its alpha erased
// wherever the stencil covers (destination-out, color untouched), then the
// scaled masked layer is painted behind (destination-over: visible only where
// the current alpha is zero), clipped to the stencil. Without masks only the
// base layer is drawn. The background always paints behind everything.
func Composite(base, masked *raster.Buffer, masks *mask.Set, bg Background, scale float64) (*raster.Buffer, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("compose: base layer: %w", err)
	}
	if err := masked.Validate(); err != nil {
		return nil, fmt.Errorf("compose: masked layer: %w", err)
	}
	if !base.SameSize(masked) {
		return nil, fmt.Errorf("compose: layer dimension mismatch %dx%d vs %dx%d", base.W, base.H, masked.W, masked.H)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("compose: invalid scale %g", scale)
	}
	outW := int(math.Round(float64(base.W) * scale))
	outH := int(math.Round(float64(base.H) * scale))
	out, err := raster.New(outW, outH)
	if err != nil {
		return nil, fmt.Errorf("compose: output: %w", err)
	}

	scaleLayer(out, base)

	if masks != nil && masks.Len() > 0 {
		stencil, err := masks.Stencil(outW, outH, scale)
		if err != nil {
			return nil, err
		}

		// destination-out: erase base alpha under the stencil.
		for i, si := 3, 0; i < len(out.Pix); i, si = i+4, si+1 {
			s := stencil.Pix[si]
			if s == 0 {
				continue
			}
			a := uint32(out.Pix[i])
			out.Pix[i] = uint8(a * uint32(255-s) / 255)
		}

		// destination-over, clipped to the stencil: the masked layer shows
		// only where nothing covers the pixel.
		tmp, err := raster.New(outW, outH)
		if err != nil {
			return nil, err
		}
		scaleLayer(tmp, masked)
		for i, si := 0, 0; i < len(out.Pix); i, si = i+4, si+1 {
			if stencil.Pix[si] != 0 && out.Pix[i+3] == 0 {
				copy(out.Pix[i:i+4], tmp.Pix[i:i+4])
			}
		}
	}

	paintBackgroundBehind(out, bg)
	return out, nil
}

// scaleLayer draws src into dst, resampling when the sizes differ.
func scaleLayer(dst *raster.Buffer, src *raster.Buffer) {
	if dst.W == src.W && dst.H == src.H {
		copy(dst.Pix, src.Pix)
		return
	}
	xdraw.BiLinear.Scale(dst.NRGBA(), image.Rect(0, 0, dst.W, dst.H), src.NRGBA(), image.Rect(0, 0, src.W, src.H), xdraw.Src, nil)
}

// paintBackgroundBehind fills every still-transparent pixel per policy.
func paintBackgroundBehind(out *raster.Buffer, bg Background) {
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			i := out.Offset(x, y)
			if out.Pix[i+3] != 0 {
				continue
			}
			c := bg.Color
			if bg.Kind == Checkerboard {
				if ((x/checkerTile)+(y/checkerTile))%2 == 0 {
					c = checkerDark
				} else {
					c = checkerLight
				}
			}
			out.Pix[i] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = 255
		}
	}
}
