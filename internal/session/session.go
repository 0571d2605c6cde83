/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session orchestrates the pixel pipeline: raw image -> tone stage ->
// halftone stage -> composite, with a debounced single-slot recompute per
// stage and a re-entrancy-guarded renderer. All state is owned by one control
// flow; deferred stage tasks are handed an immutable snapshot and marshalled
// back onto the owner via the Run hook.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"linescreen/internal/compose"
	"linescreen/internal/halftone"
	applog "linescreen/internal/log"
	"linescreen/internal/mask"
	"linescreen/internal/raster"
	"linescreen/internal/tone"
)

// FrameSink receives each freshly rendered preview composite.
type FrameSink func(*raster.Buffer)

// Config tunes the pipeline.
type Config struct {
	// ToneDebounce is the quiescence window after a tone parameter change
	// before the adjusted buffer is recomputed.
	ToneDebounce time.Duration
	// HalftoneDebounce is the quiescence window for the halftone stage.
	HalftoneDebounce time.Duration
	// Run marshals a deferred stage task back onto the owning control flow.
	// The Fyne shell passes fyne.Do; headless callers can leave it nil for a
	// direct call.
	Run func(func())
}

const defaultDebounce = 120 * time.Millisecond

// Session owns the image, the parameters, the derived buffers and the mask
// collection for one loaded image.
type Session struct {
	cfg Config
	log *slog.Logger

	raw      *raster.Buffer // set once per image load, never mutated
	adjusted *raster.Buffer // replaced atomically by the tone stage
	screen   *raster.Buffer // replaced atomically by the halftone stage

	toneParams   tone.Params
	screenParams halftone.Params

	masks *mask.Set
	mode  compose.Mode
	bg    compose.Background

	previewScale float64

	// single-slot scheduled tasks, one per stage
	toneGen     uint64
	screenGen   uint64
	toneTimer   *time.Timer
	screenTimer *time.Timer

	// render coalescing
	rendering bool
	dirty     bool
	onFrame   FrameSink

	ctrl *Controller

	closed bool
}

// New creates an empty session. A frame sink may be attached later.
func New(cfg Config) *Session {
	if cfg.ToneDebounce <= 0 {
		cfg.ToneDebounce = defaultDebounce
	}
	if cfg.HalftoneDebounce <= 0 {
		cfg.HalftoneDebounce = defaultDebounce
	}
	if cfg.Run == nil {
		cfg.Run = func(f func()) { f() }
	}
	return &Session{
		cfg:          cfg,
		log:          applog.WithComponent("session"),
		toneParams:   tone.Defaults(),
		screenParams: halftone.Defaults(),
		masks:        mask.NewSet(),
		bg:           compose.Background{Kind: compose.Checkerboard},
		previewScale: 1,
	}
}

// SetFrameSink installs the preview consumer.
func (s *Session) SetFrameSink(sink FrameSink) { s.onFrame = sink }

// Masks exposes the mask collection for geometry queries.
func (s *Session) Masks() *mask.Set { return s.masks }

// Raw returns the currently loaded source buffer (nil before the first load).
func (s *Session) Raw() *raster.Buffer { return s.raw }

// ToneParams returns the current tone parameters.
func (s *Session) ToneParams() tone.Params { return s.toneParams }

// HalftoneParams returns the current screen parameters.
func (s *Session) HalftoneParams() halftone.Params { return s.screenParams }

// Mode returns the composition mode.
func (s *Session) Mode() compose.Mode { return s.mode }

// Background returns the background policy.
func (s *Session) Background() compose.Background { return s.bg }

// SetImage installs a freshly decoded buffer and schedules the full pipeline.
func (s *Session) SetImage(buf *raster.Buffer) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("session: load image: %w", err)
	}
	s.raw = buf
	s.adjusted = nil
	s.screen = nil
	s.log.Info("image loaded", slog.Int("w", buf.W), slog.Int("h", buf.H))
	s.scheduleTone()
	return nil
}

// SetToneParams replaces the tone parameters and schedules a tone recompute.
func (s *Session) SetToneParams(p tone.Params) {
	s.toneParams = p.Clamped()
	s.scheduleTone()
}

// SetHalftoneParams replaces the screen parameters and schedules a halftone
// recompute.
func (s *Session) SetHalftoneParams(p halftone.Params) {
	s.screenParams = p.Clamped()
	s.scheduleScreen()
}

// SetMode switches which layer the masks reveal.
func (s *Session) SetMode(m compose.Mode) {
	s.mode = m
	s.RequestRender()
}

// SetBackground switches the background policy.
func (s *Session) SetBackground(bg compose.Background) {
	s.bg = bg
	s.RequestRender()
}

// SetPreviewScale sets the composite scale used for the live preview,
// typically display width divided by image width. An unchanged scale is a
// no-op: the preview surface re-reports its scale on every layout, including
// the layout caused by delivering a frame, and re-dirtying the in-flight
// render for the same value would keep the coalescing loop spinning forever.
func (s *Session) SetPreviewScale(scale float64) {
	if scale <= 0 || scale == s.previewScale {
		return
	}
	s.previewScale = scale
	s.RequestRender()
}

type toneSnapshot struct {
	gen    uint64
	raw    *raster.Buffer
	params tone.Params
}

type screenSnapshot struct {
	gen    uint64
	input  *raster.Buffer
	params halftone.Params
}

// scheduleTone arms the tone stage's single slot. A newer schedule supersedes
// any pending one; stale tasks are discarded by generation check.
func (s *Session) scheduleTone() {
	if s.closed || s.raw == nil {
		return
	}
	s.toneGen++
	snap := toneSnapshot{gen: s.toneGen, raw: s.raw, params: s.toneParams}
	if s.toneTimer != nil {
		s.toneTimer.Stop()
	}
	s.toneTimer = time.AfterFunc(s.cfg.ToneDebounce, func() {
		s.cfg.Run(func() { s.runTone(snap) })
	})
}

func (s *Session) runTone(snap toneSnapshot) {
	if s.closed || snap.gen != s.toneGen {
		return // superseded by a newer parameter change
	}
	start := time.Now()
	adj, err := tone.Apply(snap.raw, snap.params)
	if err != nil {
		s.log.Error("tone stage failed", slog.Any("err", err))
		return
	}
	s.adjusted = adj
	s.log.Debug("tone stage", slog.Duration("took", time.Since(start)))
	s.scheduleScreen()
}

func (s *Session) scheduleScreen() {
	if s.closed || s.adjusted == nil {
		return
	}
	s.screenGen++
	snap := screenSnapshot{gen: s.screenGen, input: s.adjusted, params: s.screenParams}
	if s.screenTimer != nil {
		s.screenTimer.Stop()
	}
	s.screenTimer = time.AfterFunc(s.cfg.HalftoneDebounce, func() {
		s.cfg.Run(func() { s.runScreen(snap) })
	})
}

func (s *Session) runScreen(snap screenSnapshot) {
	if s.closed || snap.gen != s.screenGen {
		return
	}
	start := time.Now()
	scr, err := halftone.Render(snap.input, snap.params)
	if err != nil {
		s.log.Error("halftone stage failed", slog.Any("err", err))
		return
	}
	s.screen = scr
	s.log.Debug("halftone stage", slog.Duration("took", time.Since(start)))
	s.RequestRender()
}

// Recompute runs both stages synchronously with the current parameters,
// bypassing the debounce windows. Used by the headless export path and tests.
func (s *Session) Recompute() error {
	if s.raw == nil {
		return fmt.Errorf("session: no image loaded")
	}
	// Invalidate anything in flight; this snapshot wins.
	s.toneGen++
	s.screenGen++
	adj, err := tone.Apply(s.raw, s.toneParams)
	if err != nil {
		return err
	}
	s.adjusted = adj
	scr, err := halftone.Render(adj, s.screenParams)
	if err != nil {
		return err
	}
	s.screen = scr
	s.RequestRender()
	return nil
}

// RequestRender renders the preview, coalescing bursts: requests arriving
// while a render is in flight set a dirty flag instead of queueing, and the
// final state is rendered once more before returning to idle.
func (s *Session) RequestRender() {
	if s.closed {
		return
	}
	if s.rendering {
		s.dirty = true
		return
	}
	s.rendering = true
	for {
		s.renderOnce()
		if !s.dirty {
			break
		}
		s.dirty = false
	}
	s.rendering = false
}

func (s *Session) renderOnce() {
	if s.adjusted == nil || s.screen == nil || s.onFrame == nil {
		return // nothing to show yet; the next trigger retries
	}
	base, masked := compose.Layers(s.mode, s.adjusted, s.screen)
	frame, err := compose.Composite(base, masked, s.masks, s.bg, s.previewScale)
	if err != nil {
		s.log.Error("composite failed", slog.Any("err", err))
		return
	}
	s.onFrame(frame)
}

// ExportScales are the accepted export multipliers.
var ExportScales = []int{1, 2, 3, 4}

// Export produces a composite at scale× the source dimensions from the
// current committed buffers. It is synchronous, ignores the debounce
// pipeline, and mutates nothing the preview depends on.
func (s *Session) Export(scale int) (*raster.Buffer, error) {
	ok := false
	for _, v := range ExportScales {
		if scale == v {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("session: export scale %d not in {1,2,3,4}", scale)
	}
	if s.adjusted == nil || s.screen == nil {
		return nil, fmt.Errorf("session: pipeline has not produced buffers yet")
	}
	base, masked := compose.Layers(s.mode, s.adjusted, s.screen)
	return compose.Composite(base, masked, s.masks, s.bg, float64(scale))
}

// Close cancels outstanding scheduled work. Buffers owned by the session must
// not be written after Close.
func (s *Session) Close() {
	s.closed = true
	if s.toneTimer != nil {
		s.toneTimer.Stop()
	}
	if s.screenTimer != nil {
		s.screenTimer.Stop()
	}
}
