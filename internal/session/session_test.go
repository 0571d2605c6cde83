/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"testing"
	"time"

	"linescreen/internal/compose"
	"linescreen/internal/mask"
	"linescreen/internal/raster"
	"linescreen/internal/tone"
)

func greyImage(w, h int, v uint8) *raster.Buffer {
	b, _ := raster.New(w, h)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = v
		b.Pix[i+1] = v
		b.Pix[i+2] = v
		b.Pix[i+3] = 255
	}
	return b
}

func TestSetImageRejectsInvalidBuffer(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(&raster.Buffer{W: 0, H: 10}); err == nil {
		t.Fatalf("expected error for zero-area image")
	}
}

func TestRecomputeProducesBuffers(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(greyImage(20, 20, 128)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if err := s.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if s.adjusted == nil || s.screen == nil {
		t.Fatalf("pipeline did not commit derived buffers")
	}
	if s.adjusted == s.screen {
		t.Fatalf("stages must produce distinct buffers")
	}
}

func TestStaleToneTaskIsDiscarded(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(greyImage(8, 8, 100)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	// SetImage armed generation 1; arming again supersedes it.
	stale := toneSnapshot{gen: s.toneGen, raw: s.raw, params: s.toneParams}
	s.scheduleTone()
	s.runTone(stale)
	if s.adjusted != nil {
		t.Fatalf("superseded snapshot must not commit a buffer")
	}
	current := toneSnapshot{gen: s.toneGen, raw: s.raw, params: s.toneParams}
	s.runTone(current)
	if s.adjusted == nil {
		t.Fatalf("current snapshot should commit")
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	tasks := make(chan func(), 16)
	s := New(Config{
		ToneDebounce:     30 * time.Millisecond,
		HalftoneDebounce: 5 * time.Millisecond,
		Run:              func(f func()) { tasks <- f },
	})
	defer s.Close()
	if err := s.SetImage(greyImage(8, 8, 50)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	p := tone.Defaults()
	p.Exposure = 0.5
	s.SetToneParams(p)
	p.Exposure = 1 // latest wins
	s.SetToneParams(p)

	// Drain tasks until the pipeline has committed both stages.
	deadline := time.After(2 * time.Second)
	for s.screen == nil {
		select {
		case f := <-tasks:
			f()
		case <-deadline:
			t.Fatalf("pipeline never completed")
		}
	}
	// +1 stop on 50 -> 100.
	if got := s.adjusted.At(0, 0).R; got != 100 {
		t.Fatalf("adjusted pixel = %d, want the latest snapshot (100)", got)
	}
}

func TestRenderCoalescing(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(greyImage(10, 10, 128)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	frames := 0
	s.SetFrameSink(func(*raster.Buffer) {
		frames++
		if frames == 1 {
			// A trigger arriving mid-render must coalesce, not recurse.
			s.RequestRender()
			s.RequestRender()
		}
	})
	if err := s.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if frames != 2 {
		t.Fatalf("frames = %d, want 2 (initial render + one coalesced rerender)", frames)
	}
}

func TestFrameSinkEchoingCurrentScaleTerminates(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(greyImage(10, 10, 128)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	// The preview surface re-reports its scale from every layout, including
	// the one triggered by frame delivery. An unchanged value must not
	// re-dirty the in-flight render or the coalescing loop never exits.
	frames := 0
	s.SetFrameSink(func(*raster.Buffer) {
		frames++
		if frames > 10 {
			t.Fatalf("render loop did not terminate")
		}
		s.SetPreviewScale(s.previewScale)
	})
	if err := s.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if frames != 1 {
		t.Fatalf("frames = %d, want exactly 1 for an echoed unchanged scale", frames)
	}

	// A genuinely new scale still triggers one re-render.
	s.SetPreviewScale(2)
	if frames != 2 {
		t.Fatalf("frames = %d, want 2 after a real scale change", frames)
	}
}

func TestRenderBeforeBuffersIsNoop(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	called := false
	s.SetFrameSink(func(*raster.Buffer) { called = true })
	s.RequestRender()
	if called {
		t.Fatalf("render with no committed buffers must be a no-op")
	}
}

func TestExportScaleValidation(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(greyImage(10, 10, 128)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if err := s.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	for _, bad := range []int{0, -1, 5, 10} {
		if _, err := s.Export(bad); err == nil {
			t.Fatalf("export scale %d should be rejected", bad)
		}
	}
	out, err := s.Export(3)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if out.W != 30 || out.H != 30 {
		t.Fatalf("export = %dx%d, want 30x30", out.W, out.H)
	}
}

func TestExportDoesNotDisturbPreviewState(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(greyImage(10, 10, 128)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if err := s.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	adj, scr := s.adjusted, s.screen
	if _, err := s.Export(2); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if s.adjusted != adj || s.screen != scr {
		t.Fatalf("export must not replace committed preview buffers")
	}
}

func TestModeAndBackgroundTriggerRender(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(greyImage(10, 10, 128)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if err := s.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	frames := 0
	s.SetFrameSink(func(*raster.Buffer) { frames++ })
	s.SetMode(compose.MasksShowOriginal)
	s.SetBackground(compose.Background{Kind: compose.Solid, Color: raster.White})
	if frames != 2 {
		t.Fatalf("frames = %d, want one render per state change", frames)
	}
}

func TestFullCanvasMaskCompositeMatchesScreen(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	if err := s.SetImage(greyImage(50, 50, 128)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if err := s.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	s.Masks().Add(mask.Rectangle, 25, 25, 200, 200)

	out, err := s.Export(1)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if s.screen.At(x, y).A != 0 && out.At(x, y) != s.screen.At(x, y) {
				t.Fatalf("composite differs from halftone buffer at (%d,%d)", x, y)
			}
		}
	}
}

func TestCloseCancelsPendingWork(t *testing.T) {
	ran := make(chan struct{}, 4)
	s := New(Config{
		ToneDebounce: 10 * time.Millisecond,
		Run: func(f func()) {
			f()
			ran <- struct{}{}
		},
	})
	if err := s.SetImage(greyImage(8, 8, 128)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	s.Close()
	select {
	case <-ran:
		// The timer may already have been queued; the task itself must
		// have refused to touch session state.
		if s.adjusted != nil {
			t.Fatalf("closed session committed a buffer")
		}
	case <-time.After(50 * time.Millisecond):
		// Timer cancelled before firing: also correct.
	}
	if s.adjusted != nil {
		t.Fatalf("closed session committed a buffer")
	}
}
