/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mask

import (
	"fmt"
	"image"
	"math"
)

// Stencil rasterizes the union of all masks into a w×h alpha coverage map.
// scale converts image-space units into stencil pixels; each pixel is sampled
// at its center. Coverage is binary: a pixel is either fully opaque or fully
// clear, with no per-mask distinction.
func (s *Set) Stencil(w, h int, scale float64) (*image.Alpha, error) {
	if w <= 0 || h <= 0 || scale <= 0 {
		return nil, fmt.Errorf("mask: invalid stencil geometry %dx%d at scale %g", w, h, scale)
	}
	st := image.NewAlpha(image.Rect(0, 0, w, h))
	for _, m := range s.masks {
		x0, y0, x1, y1 := m.Bounds()
		// Only walk the mask's own scaled bounding box.
		px0 := clampInt(int(math.Floor(x0*scale)), 0, w)
		py0 := clampInt(int(math.Floor(y0*scale)), 0, h)
		px1 := clampInt(int(math.Ceil(x1*scale))+1, 0, w)
		py1 := clampInt(int(math.Ceil(y1*scale))+1, 0, h)
		for py := py0; py < py1; py++ {
			iy := (float64(py) + 0.5) / scale
			rowStart := py * st.Stride
			for px := px0; px < px1; px++ {
				if m.Contains((float64(px)+0.5)/scale, iy) {
					st.Pix[rowStart+px] = 0xff
				}
			}
		}
	}
	return st, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
