/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestNewRejectsZeroArea(t *testing.T) {
	if _, err := New(0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if _, err := New(10, -1); err == nil {
		t.Fatalf("expected error for negative height")
	}
}

func TestNewInvariant(t *testing.T) {
	b, err := New(7, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(b.Pix) != 7*3*4 {
		t.Fatalf("pix length = %d, want %d", len(b.Pix), 7*3*4)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSetAtRoundTrip(t *testing.T) {
	b, _ := New(4, 4)
	want := Color{R: 10, G: 20, B: 30, A: 200}
	b.Set(2, 3, want)
	if got := b.At(2, 3); got != want {
		t.Fatalf("At = %+v, want %+v", got, want)
	}
}

func TestFromImageStraightAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 150, B: 200, A: 128})
	b, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	got := b.At(0, 0)
	if got.R != 100 || got.G != 150 || got.B != 200 || got.A != 128 {
		t.Fatalf("channels not preserved straight: %+v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	b, _ := New(2, 2)
	c := b.Clone()
	c.Set(0, 0, White)
	if b.At(0, 0) == (Color{255, 255, 255, 255}) {
		t.Fatalf("clone shares storage with original")
	}
}

func TestTo8Rounds(t *testing.T) {
	if got := To8(0.5); got != 128 {
		t.Fatalf("To8(0.5) = %d, want 128", got)
	}
	if got := To8(-1); got != 0 {
		t.Fatalf("To8(-1) = %d, want 0", got)
	}
	if got := To8(2); got != 255 {
		t.Fatalf("To8(2) = %d, want 255", got)
	}
}
