/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package mask owns the ordered collection of shape regions that reveal one
// layer through another. It provides pure geometry queries (hit-testing,
// handle positions, stencil rasterization) and keeps no notion of selection;
// the interaction layer composes these queries itself.
package mask

import (
	"fmt"
	"math"
)

// Shape is the kind of region. All shapes are axis-aligned within their
// center+width+height bounding box; the triangle is isoceles with the apex at
// top-center.
type Shape int

const (
	Rectangle Shape = iota
	Ellipse
	Triangle
)

func (s Shape) String() string {
	switch s {
	case Rectangle:
		return "rectangle"
	case Ellipse:
		return "ellipse"
	case Triangle:
		return "triangle"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// MinSize is the smallest width/height a mask may take, in image-space units.
// Enforced on every mutation regardless of zoom or image resolution.
const MinSize = 20

// Mask is one shape region in image-space units.
type Mask struct {
	ID    int
	Shape Shape
	CX    float64
	CY    float64
	W     float64
	H     float64
}

// Bounds returns the bounding box as min/max corners.
func (m *Mask) Bounds() (x0, y0, x1, y1 float64) {
	return m.CX - m.W/2, m.CY - m.H/2, m.CX + m.W/2, m.CY + m.H/2
}

// Contains reports whether the image-space point lies inside the shape.
func (m *Mask) Contains(x, y float64) bool {
	x0, y0, x1, y1 := m.Bounds()
	switch m.Shape {
	case Rectangle:
		return x >= x0 && x <= x1 && y >= y0 && y <= y1
	case Ellipse:
		rx, ry := m.W/2, m.H/2
		if rx == 0 || ry == 0 {
			return false
		}
		dx := (x - m.CX) / rx
		dy := (y - m.CY) / ry
		return dx*dx+dy*dy <= 1
	case Triangle:
		ax, ay := m.CX, y0 // apex
		bx, by := x0, y1   // base left
		cx, cy := x1, y1   // base right
		d1 := sign(x, y, ax, ay, bx, by)
		d2 := sign(x, y, bx, by, cx, cy)
		d3 := sign(x, y, cx, cy, ax, ay)
		hasNeg := d1 < 0 || d2 < 0 || d3 < 0
		hasPos := d1 > 0 || d2 > 0 || d3 > 0
		return !(hasNeg && hasPos)
	default:
		return false
	}
}

// sign is the signed area of triangle (px,py)-(ax,ay)-(bx,by).
func sign(px, py, ax, ay, bx, by float64) float64 {
	return (px-bx)*(ay-by) - (ax-bx)*(py-by)
}

// Set is the ordered mask collection. Creation order doubles as z-order:
// later masks draw and hit-test on top.
type Set struct {
	masks  []*Mask
	nextID int
}

func NewSet() *Set { return &Set{nextID: 1} }

// Add appends a mask, clamping its size, and returns it.
func (s *Set) Add(shape Shape, cx, cy, w, h float64) *Mask {
	m := &Mask{ID: s.nextID, Shape: shape, CX: cx, CY: cy, W: clampSize(w), H: clampSize(h)}
	s.nextID++
	s.masks = append(s.masks, m)
	return m
}

func (s *Set) Len() int { return len(s.masks) }

// At returns the mask at index i, or nil if out of range.
func (s *Set) At(i int) *Mask {
	if i < 0 || i >= len(s.masks) {
		return nil
	}
	return s.masks[i]
}

// Delete removes the mask at index i.
func (s *Set) Delete(i int) error {
	if i < 0 || i >= len(s.masks) {
		return fmt.Errorf("mask: delete index %d out of range (len %d)", i, len(s.masks))
	}
	s.masks = append(s.masks[:i], s.masks[i+1:]...)
	return nil
}

// HitTest returns the index of the topmost mask containing the point, or -1.
func (s *Set) HitTest(x, y float64) int {
	for i := len(s.masks) - 1; i >= 0; i-- {
		if s.masks[i].Contains(x, y) {
			return i
		}
	}
	return -1
}

// MoveTo recenters mask i. Masks may extend past the canvas bounds.
func (s *Set) MoveTo(i int, cx, cy float64) {
	m := s.At(i)
	if m == nil {
		return
	}
	m.CX = cx
	m.CY = cy
}

// ResizeTo reshapes mask i so that the fixed anchor corner stays put and the
// dragged corner follows the pointer: the center becomes the midpoint of
// anchor and pointer, width/height the absolute deltas, clamped to MinSize.
func (s *Set) ResizeTo(i int, anchorX, anchorY, px, py float64) {
	m := s.At(i)
	if m == nil {
		return
	}
	m.CX = (anchorX + px) / 2
	m.CY = (anchorY + py) / 2
	m.W = clampSize(math.Abs(px - anchorX))
	m.H = clampSize(math.Abs(py - anchorY))
}

func clampSize(v float64) float64 {
	if v < MinSize {
		return MinSize
	}
	return v
}
