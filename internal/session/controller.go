/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"log/slog"

	applog "linescreen/internal/log"
	"linescreen/internal/mask"
)

// State is the pointer state machine phase.
type State int

const (
	Idle State = iota
	Moving
	Resizing
)

// Key is a keyboard command the controller understands.
type Key int

const (
	KeyDelete Key = iota
	KeyBackspace
	KeyPlus
	KeyEquals
	KeyMinus
	KeyZero
)

// Zoom limits and step.
const (
	ZoomMin  = 0.25
	ZoomMax  = 4.0
	zoomStep = 1.25
)

// Controller drives selection, move, resize, delete and zoom. It owns the
// selection index and composes the mask set's pure geometry queries; the mask
// set itself knows nothing about selection.
//
// Pointer positions arrive in local surface units and are divided by the
// display scale (surface width / image width) into image space. Zoom is a
// pure visual magnification applied uniformly to the surface including
// pointer coordinates, so it never enters this conversion: hit-testing and
// dragging work in un-zoomed image space at every zoom level.
type Controller struct {
	sess *Session
	log  *slog.Logger

	selection int
	state     State

	// drag state, valid only between press and release
	dragIndex        int
	grabDX, grabDY   float64 // Moving: press point relative to mask center
	anchorX, anchorY float64 // Resizing: fixed opposite corner

	zoom         float64
	displayScale float64

	// TextFocused, when set, suppresses keyboard commands while a text entry
	// control has focus.
	TextFocused func() bool
}

// Controller returns the session's interaction controller, creating it on
// first use.
func (s *Session) Controller() *Controller {
	if s.ctrl == nil {
		s.ctrl = &Controller{
			sess:         s,
			log:          applog.WithComponent("interaction"),
			selection:    -1,
			zoom:         1,
			displayScale: 1,
		}
	}
	return s.ctrl
}

// Selection returns the selected mask index, -1 for none.
func (c *Controller) Selection() int { return c.selection }

// State returns the current pointer phase.
func (c *Controller) State() State { return c.state }

// Zoom returns the visual magnification factor.
func (c *Controller) Zoom() float64 { return c.zoom }

// SetDisplayScale records the surface-to-image ratio used for coordinate
// mapping. The preview surface calls this whenever its width changes.
func (c *Controller) SetDisplayScale(s float64) {
	if s > 0 {
		c.displayScale = s
	}
}

// DisplayScale returns the current surface-to-image ratio.
func (c *Controller) DisplayScale() float64 { return c.displayScale }

// ImagePos converts a local surface position into image space.
func (c *Controller) ImagePos(lx, ly float64) (float64, float64) {
	return lx / c.displayScale, ly / c.displayScale
}

// AddMask creates a mask of the given shape centered on the canvas and
// selects it.
func (c *Controller) AddMask(shape mask.Shape, cx, cy, w, h float64) {
	c.sess.masks.Add(shape, cx, cy, w, h)
	c.selection = c.sess.masks.Len() - 1
	c.sess.RequestRender()
}

// PointerDown starts a drag. Press on a resize handle of the selected mask
// begins a resize; press inside some mask selects it and begins a move; press
// on empty space clears the selection.
func (c *Controller) PointerDown(lx, ly float64) {
	x, y := c.ImagePos(lx, ly)
	masks := c.sess.masks

	if c.selection >= 0 {
		if h, ok := masks.HandleAt(c.selection, x, y); ok {
			c.state = Resizing
			c.dragIndex = c.selection
			c.anchorX, c.anchorY = h.AnchorX, h.AnchorY
			return
		}
	}
	if idx := masks.HitTest(x, y); idx >= 0 {
		m := masks.At(idx)
		c.selection = idx
		c.state = Moving
		c.dragIndex = idx
		c.grabDX = x - m.CX
		c.grabDY = y - m.CY
		c.sess.RequestRender()
		return
	}
	if c.selection != -1 {
		c.selection = -1
		c.sess.RequestRender()
	}
}

// PointerMove updates geometry incrementally during a drag. Outside a drag it
// is a no-op.
func (c *Controller) PointerMove(lx, ly float64) {
	x, y := c.ImagePos(lx, ly)
	masks := c.sess.masks
	switch c.state {
	case Moving:
		masks.MoveTo(c.dragIndex, x-c.grabDX, y-c.grabDY)
	case Resizing:
		masks.ResizeTo(c.dragIndex, c.anchorX, c.anchorY, x, y)
	default:
		return
	}
	c.sess.RequestRender()
}

// PointerUp ends the drag. Geometry was committed incrementally, so there is
// no separate commit step.
func (c *Controller) PointerUp() {
	c.state = Idle
}

// DeleteMask removes mask i and fixes the selection: deleting the selected
// mask clears selection; deleting an earlier mask shifts the selection index
// down by one.
func (c *Controller) DeleteMask(i int) {
	if err := c.sess.masks.Delete(i); err != nil {
		c.log.Warn("delete ignored", slog.Any("err", err))
		return
	}
	switch {
	case c.selection == i:
		c.selection = -1
	case c.selection > i:
		c.selection--
	}
	c.sess.RequestRender()
}

// HandleKey dispatches a keyboard command. Commands are ignored while a text
// entry control has focus.
func (c *Controller) HandleKey(k Key) {
	if c.TextFocused != nil && c.TextFocused() {
		return
	}
	switch k {
	case KeyDelete, KeyBackspace:
		if c.selection >= 0 {
			c.DeleteMask(c.selection)
		}
	case KeyPlus, KeyEquals:
		c.setZoom(c.zoom * zoomStep)
	case KeyMinus:
		c.setZoom(c.zoom / zoomStep)
	case KeyZero:
		c.setZoom(1)
	}
}

func (c *Controller) setZoom(z float64) {
	if z > ZoomMax {
		z = ZoomMax
	}
	if z < ZoomMin {
		z = ZoomMin
	}
	c.zoom = z
}
