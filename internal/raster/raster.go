/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package raster defines the pixel buffer shared by every stage of the
// compositing pipeline: a row-major RGBA byte slice with straight
// (non-premultiplied) alpha. All stages allocate fresh output buffers and
// never mutate their input.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"math"
)

// AlphaThreshold is the 8-bit alpha below which the tone and halftone stages
// pass a pixel through completely unmodified.
const AlphaThreshold = 10

// Buffer is a W×H RGBA8 pixel buffer with straight alpha.
// Invariant: len(Pix) == W*H*4.
type Buffer struct {
	W, H int
	Pix  []uint8
}

// New allocates a transparent-black buffer. Zero-area dimensions are a
// precondition violation and are rejected rather than truncated.
func New(w, h int) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: invalid buffer dimensions %dx%d", w, h)
	}
	return &Buffer{W: w, H: h, Pix: make([]uint8, w*h*4)}, nil
}

// FromImage copies an arbitrary decoded image into a straight-alpha buffer.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	b, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	dst := b.NRGBA()
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return b, nil
}

// Validate reports whether the buffer still satisfies its shape invariant.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("raster: nil buffer")
	}
	if b.W <= 0 || b.H <= 0 {
		return fmt.Errorf("raster: invalid buffer dimensions %dx%d", b.W, b.H)
	}
	if len(b.Pix) != b.W*b.H*4 {
		return fmt.Errorf("raster: pixel slice length %d does not match %dx%d", len(b.Pix), b.W, b.H)
	}
	return nil
}

// SameSize reports whether o has identical dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return o != nil && b != nil && b.W == o.W && b.H == o.H
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{W: b.W, H: b.H, Pix: pix}
}

// NRGBA wraps the buffer as a stdlib image without copying. image.NRGBA is
// straight alpha, matching the buffer's channel semantics.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{Pix: b.Pix, Stride: b.W * 4, Rect: image.Rect(0, 0, b.W, b.H)}
}

// Offset returns the index of the R sample of pixel (x, y).
func (b *Buffer) Offset(x, y int) int { return (y*b.W + x) * 4 }

// At reads pixel (x, y). Callers are expected to stay in bounds.
func (b *Buffer) At(x, y int) Color {
	i := b.Offset(x, y)
	return Color{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set writes pixel (x, y).
func (b *Buffer) Set(x, y int, c Color) {
	i := b.Offset(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Color is an 8-bit straight-alpha RGBA value.
type Color struct{ R, G, B, A uint8 }

var (
	Black = Color{0, 0, 0, 255}
	White = Color{255, 255, 255, 255}
)

// Luma is the perceptual brightness of normalized channel values.
func Luma(r, g, b float64) float64 { return 0.299*r + 0.587*g + 0.114*b }

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// To8 converts a normalized channel back to an 8-bit sample: clamp, scale, round.
func To8(v float64) uint8 { return uint8(math.Round(Clamp01(v) * 255)) }
