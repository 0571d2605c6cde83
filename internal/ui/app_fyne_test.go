//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
//
// Ensure you have the Fyne dependencies installed and a working OS driver.
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"linescreen/internal/halftone"
	"linescreen/internal/mask"
	"linescreen/internal/raster"
	"linescreen/internal/session"
	"linescreen/internal/tone"
)

func TestMapKey(t *testing.T) {
	cases := []struct {
		name fyne.KeyName
		want session.Key
	}{
		{fyne.KeyDelete, session.KeyDelete},
		{fyne.KeyBackspace, session.KeyBackspace},
		{fyne.KeyPlus, session.KeyPlus},
		{fyne.KeyEqual, session.KeyEquals},
		{fyne.KeyMinus, session.KeyMinus},
		{fyne.Key0, session.KeyZero},
	}
	for _, c := range cases {
		got, ok := mapKey(c.name)
		if !ok || got != c.want {
			t.Fatalf("mapKey(%q) = %v,%v", c.name, got, ok)
		}
	}
	if _, ok := mapKey(fyne.KeyA); ok {
		t.Fatalf("unbound key must not map")
	}
}

// sliderAt digs the slider out of the labeled VBox at index i of a control box.
func sliderAt(t *testing.T, box fyne.CanvasObject, i int) *widget.Slider {
	t.Helper()
	outer, ok := box.(*fyne.Container)
	if !ok || i >= len(outer.Objects) {
		t.Fatalf("unexpected control box shape")
	}
	inner, ok := outer.Objects[i].(*fyne.Container)
	if !ok || len(inner.Objects) < 2 {
		t.Fatalf("control %d is not a labeled slider", i)
	}
	s, ok := inner.Objects[1].(*widget.Slider)
	if !ok {
		t.Fatalf("control %d has no slider", i)
	}
	return s
}

func TestControlBoundsMatchParameterRanges(t *testing.T) {
	s := session.New(session.Config{})
	t.Cleanup(s.Close)

	screen := buildHalftoneControls(s)
	freq := sliderAt(t, screen, 0)
	if freq.Min != 1 || freq.Max != 50 {
		t.Fatalf("frequency slider bounds [%g,%g], want [1,50]", freq.Min, freq.Max)
	}
	thick := sliderAt(t, screen, 2)
	if thick.Min != 0.1 || thick.Max != 1.5 {
		t.Fatalf("thickness slider bounds [%g,%g], want [0.1,1.5]", thick.Min, thick.Max)
	}

	toneBox, ok := buildToneControls(s).(*fyne.Container)
	if !ok {
		t.Fatalf("unexpected tone box shape")
	}
	noiseOp := sliderAt(t, toneBox, len(toneBox.Objects)-1)
	if noiseOp.Min != 0 || noiseOp.Max != 0.5 {
		t.Fatalf("noise opacity slider bounds [%g,%g], want [0,0.5]", noiseOp.Min, noiseOp.Max)
	}

	// Every slider extreme must survive the engine clamp unchanged, so the
	// label never shows a value the render ignores.
	hp := halftone.Defaults()
	hp.Frequency = freq.Max
	hp.Thickness = thick.Max
	if c := hp.Clamped(); c.Frequency != hp.Frequency || c.Thickness != hp.Thickness {
		t.Fatalf("slider extremes clamped: %+v -> %+v", hp, c)
	}
	tp := tone.Defaults()
	tp.NoiseOpacity = noiseOp.Max
	if c := tp.Clamped(); c.NoiseOpacity != tp.NoiseOpacity {
		t.Fatalf("noise opacity extreme clamped: %g -> %g", tp.NoiseOpacity, c.NoiseOpacity)
	}
}

func TestPreviewCanvasMinSizeTracksFrame(t *testing.T) {
	s := session.New(session.Config{})
	t.Cleanup(s.Close)
	pc := NewPreviewCanvas(s)

	sz := pc.MinSize()
	if sz.Width != 640 || sz.Height != 480 {
		t.Fatalf("empty preview MinSize = %v", sz)
	}
	frame, _ := raster.New(320, 200)
	pc.ShowFrame(frame)
	sz = pc.MinSize()
	if sz.Width != 320 || sz.Height != 200 {
		t.Fatalf("MinSize after frame = %v", sz)
	}
}

func TestPreviewRendererSelectionOverlay(t *testing.T) {
	s := session.New(session.Config{})
	t.Cleanup(s.Close)
	buf, _ := raster.New(200, 200)
	for i := 3; i < len(buf.Pix); i += 4 {
		buf.Pix[i] = 255
	}
	if err := s.SetImage(buf); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	ctrl := s.Controller()
	pc := NewPreviewCanvas(s)
	r, ok := pc.CreateRenderer().(*previewRenderer)
	if !ok {
		t.Fatalf("unexpected renderer type %T", pc.CreateRenderer())
	}

	// No frame: image hidden.
	r.Layout(fyne.NewSize(400, 400))
	if r.img.Visible() {
		t.Fatalf("image should be hidden before the first frame")
	}

	frame, _ := raster.New(200, 200)
	pc.frame = frame
	ctrl.AddMask(mask.Rectangle, 100, 100, 60, 40)
	r.Layout(fyne.NewSize(400, 400))

	if !r.bbox.Visible() {
		t.Fatalf("selection bbox should be visible")
	}
	pos := r.bbox.Position()
	if pos.X != 70 || pos.Y != 80 {
		t.Fatalf("bbox position = %v, want (70,80) at scale 1", pos)
	}
	size := r.bbox.Size()
	if size.Width != 60 || size.Height != 40 {
		t.Fatalf("bbox size = %v", size)
	}
	for _, h := range r.handles {
		if !h.Visible() {
			t.Fatalf("corner handles should be visible for the selection")
		}
	}
}
