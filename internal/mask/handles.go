/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mask

import "math"

// Corner identifies one of the four resize handles at the bounding-box
// corners of a selected mask.
type Corner int

const (
	NW Corner = iota
	NE
	SW
	SE
)

// HandleSize is the side of the square handle target, in image-space units.
const HandleSize = 8

// HandleTolerance is the extra margin around a handle that still counts as a
// hit, making handles grabbable without pixel-exact aim.
const HandleTolerance = 10

// Handle is a resize grip: its own position and the diagonally-opposite
// anchor corner that stays fixed while it is dragged.
type Handle struct {
	Corner           Corner
	X, Y             float64
	AnchorX, AnchorY float64
}

// Handles returns the four corner handles of mask i. ok is false if the index
// is out of range.
func (s *Set) Handles(i int) (hs [4]Handle, ok bool) {
	m := s.At(i)
	if m == nil {
		return hs, false
	}
	x0, y0, x1, y1 := m.Bounds()
	hs = [4]Handle{
		{Corner: NW, X: x0, Y: y0, AnchorX: x1, AnchorY: y1},
		{Corner: NE, X: x1, Y: y0, AnchorX: x0, AnchorY: y1},
		{Corner: SW, X: x0, Y: y1, AnchorX: x1, AnchorY: y0},
		{Corner: SE, X: x1, Y: y1, AnchorX: x0, AnchorY: y0},
	}
	return hs, true
}

// HandleAt returns the handle of mask i under the point, if any.
func (s *Set) HandleAt(i int, x, y float64) (Handle, bool) {
	hs, ok := s.Handles(i)
	if !ok {
		return Handle{}, false
	}
	reach := float64(HandleSize)/2 + HandleTolerance
	for _, h := range hs {
		if math.Abs(x-h.X) <= reach && math.Abs(y-h.Y) <= reach {
			return h, true
		}
	}
	return Handle{}, false
}
