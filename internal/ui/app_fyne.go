//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"linescreen/internal/compose"
	"linescreen/internal/config"
	"linescreen/internal/crash"
	"linescreen/internal/export"
	"linescreen/internal/halftone"
	applog "linescreen/internal/log"
	"linescreen/internal/mask"
	"linescreen/internal/raster"
	"linescreen/internal/session"
	"linescreen/internal/tone"
)

// Run starts the Fyne-based desktop UI. Pass an optional image path to open
// immediately.
func Run(imagePath string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	defer crash.Recover()

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	fyneApp := app.NewWithID("linescreen")
	w := fyneApp.NewWindow("Linescreen")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	sess := session.New(session.Config{Run: fyne.Do})
	ctrl := sess.Controller()
	applyConfigDefaults(sess, cfg)

	status := widget.NewLabel("Open an image to begin")
	preview := NewPreviewCanvas(sess)
	sess.SetFrameSink(preview.ShowFrame)
	previewScroll := container.NewScroll(preview)

	// Keyboard shortcuts route through the controller; entries keep their
	// own typing.
	ctrl.TextFocused = func() bool {
		_, ok := w.Canvas().Focused().(*widget.Entry)
		return ok
	}
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		if k, ok := mapKey(e.Name); ok {
			ctrl.HandleKey(k)
			preview.Refresh()
		}
	})

	loadImage := func(path string) {
		buf, err := decodeImageFile(path)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if err := sess.SetImage(buf); err != nil {
			dialog.ShowError(err, w)
			return
		}
		preview.Reset()
		status.SetText(fmt.Sprintf("%s — %dx%d", filepath.Base(path), buf.W, buf.H))
		w.SetTitle("Linescreen — " + filepath.Base(path))
	}

	openBtn := widget.NewButton("Open Image…", func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			loadImage(path)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".webp"}))
		open.Show()
	})

	toneBox := buildToneControls(sess)
	screenBox := buildHalftoneControls(sess)
	maskBox := buildMaskControls(sess, ctrl, preview)
	viewBox := buildViewControls(sess)
	exportBox := buildExportControls(sess, cfg, w, status)

	controls := container.NewVBox(
		openBtn,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Tone", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		toneBox,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Line Screen", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		screenBox,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Masks", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		maskBox,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("View", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		viewBox,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Export", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		exportBox,
	)

	right := container.NewScroll(controls)
	right.SetMinSize(fyne.NewSize(280, 0))
	w.SetContent(container.NewBorder(nil, status, nil, right, previewScroll))

	if strings.TrimSpace(imagePath) != "" {
		loadImage(imagePath)
	}

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		sess.Close()
		l.Info("UI closed")
	})
	w.ShowAndRun()
	return nil
}

func applyConfigDefaults(sess *session.Session, cfg config.AppConfig) {
	tp := tone.Defaults()
	tp.Greyscale = cfg.Defaults.Greyscale
	tp.Exposure = cfg.Defaults.Exposure
	tp.Contrast = cfg.Defaults.Contrast
	sess.SetToneParams(tp)

	hp := halftone.Defaults()
	hp.Frequency = cfg.Defaults.Frequency
	hp.Angle = cfg.Defaults.Angle
	hp.Thickness = cfg.Defaults.Thickness
	sess.SetHalftoneParams(hp)

	if strings.EqualFold(cfg.Defaults.Background, "solid") {
		sess.SetBackground(compose.Background{Kind: compose.Solid, Color: raster.White})
	}
}

func mapKey(name fyne.KeyName) (session.Key, bool) {
	switch name {
	case fyne.KeyDelete:
		return session.KeyDelete, true
	case fyne.KeyBackspace:
		return session.KeyBackspace, true
	case fyne.KeyPlus:
		return session.KeyPlus, true
	case fyne.KeyEqual:
		return session.KeyEquals, true
	case fyne.KeyMinus:
		return session.KeyMinus, true
	case fyne.Key0:
		return session.KeyZero, true
	}
	return 0, false
}

func decodeImageFile(path string) (*raster.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return raster.FromImage(img)
}

// labeledSlider builds a slider with a caption that tracks the live value.
func labeledSlider(name string, min, max, step, value float64, onChanged func(float64)) fyne.CanvasObject {
	label := widget.NewLabel(fmt.Sprintf("%s: %.2f", name, value))
	s := widget.NewSlider(min, max)
	s.Step = step
	s.Value = value
	s.OnChanged = func(v float64) {
		label.SetText(fmt.Sprintf("%s: %.2f", name, v))
		onChanged(v)
	}
	return container.NewVBox(label, s)
}

func buildToneControls(sess *session.Session) fyne.CanvasObject {
	p := sess.ToneParams()
	update := func(mut func(*tone.Params)) {
		cur := sess.ToneParams()
		mut(&cur)
		sess.SetToneParams(cur)
	}

	grey := widget.NewCheck("Greyscale", func(on bool) {
		update(func(p *tone.Params) { p.Greyscale = on })
	})
	grey.SetChecked(p.Greyscale)

	noise := widget.NewCheck("Noise", func(on bool) {
		update(func(p *tone.Params) { p.NoiseEnabled = on })
	})
	noise.SetChecked(p.NoiseEnabled)

	return container.NewVBox(
		grey,
		labeledSlider("Exposure", -2, 2, 0.05, p.Exposure, func(v float64) {
			update(func(p *tone.Params) { p.Exposure = v })
		}),
		labeledSlider("Contrast", -1, 1, 0.02, p.Contrast, func(v float64) {
			update(func(p *tone.Params) { p.Contrast = v })
		}),
		labeledSlider("Highlights", -1, 1, 0.02, p.Highlights, func(v float64) {
			update(func(p *tone.Params) { p.Highlights = v })
		}),
		labeledSlider("Shadows", -1, 1, 0.02, p.Shadows, func(v float64) {
			update(func(p *tone.Params) { p.Shadows = v })
		}),
		labeledSlider("Overlay Opacity", 0, 1, 0.02, p.OverlayOpacity, func(v float64) {
			update(func(p *tone.Params) { p.OverlayOpacity = v })
		}),
		noise,
		labeledSlider("Grain Size", 1, 64, 1, float64(p.GrainSize), func(v float64) {
			update(func(p *tone.Params) { p.GrainSize = int(v) })
		}),
		labeledSlider("Noise Opacity", 0, 0.5, 0.02, p.NoiseOpacity, func(v float64) {
			update(func(p *tone.Params) { p.NoiseOpacity = v })
		}),
	)
}

func buildHalftoneControls(sess *session.Session) fyne.CanvasObject {
	p := sess.HalftoneParams()
	update := func(mut func(*halftone.Params)) {
		cur := sess.HalftoneParams()
		mut(&cur)
		sess.SetHalftoneParams(cur)
	}
	return container.NewVBox(
		labeledSlider("Frequency", 1, 50, 1, p.Frequency, func(v float64) {
			update(func(p *halftone.Params) { p.Frequency = v })
		}),
		labeledSlider("Angle", 0, 180, 1, p.Angle, func(v float64) {
			update(func(p *halftone.Params) { p.Angle = v })
		}),
		labeledSlider("Thickness", 0.1, 1.5, 0.02, p.Thickness, func(v float64) {
			update(func(p *halftone.Params) { p.Thickness = v })
		}),
	)
}

func buildMaskControls(sess *session.Session, ctrl *session.Controller, preview *PreviewCanvas) fyne.CanvasObject {
	add := func(shape mask.Shape) {
		raw := sess.Raw()
		if raw == nil {
			return
		}
		cx := float64(raw.W) / 2
		cy := float64(raw.H) / 2
		wdt := float64(raw.W) / 4
		hgt := float64(raw.H) / 4
		ctrl.AddMask(shape, cx, cy, wdt, hgt)
		sess.RequestRender()
		preview.Refresh()
	}
	del := widget.NewButton("Delete Selected", func() {
		if i := ctrl.Selection(); i >= 0 {
			ctrl.DeleteMask(i)
			sess.RequestRender()
			preview.Refresh()
		}
	})
	return container.NewVBox(
		container.NewGridWithColumns(3,
			widget.NewButton("Rect", func() { add(mask.Rectangle) }),
			widget.NewButton("Ellipse", func() { add(mask.Ellipse) }),
			widget.NewButton("Triangle", func() { add(mask.Triangle) }),
		),
		del,
	)
}

func buildViewControls(sess *session.Session) fyne.CanvasObject {
	mode := widget.NewRadioGroup([]string{"Masks show halftone", "Masks show original"}, func(s string) {
		if s == "Masks show original" {
			sess.SetMode(compose.MasksShowOriginal)
		} else {
			sess.SetMode(compose.MasksShowHalftone)
		}
	})
	mode.SetSelected("Masks show halftone")

	bg := widget.NewRadioGroup([]string{"Checkerboard", "White"}, func(s string) {
		if s == "White" {
			sess.SetBackground(compose.Background{Kind: compose.Solid, Color: raster.White})
		} else {
			sess.SetBackground(compose.Background{Kind: compose.Checkerboard})
		}
	})
	bg.SetSelected("Checkerboard")

	return container.NewVBox(widget.NewLabel("Mode"), mode, widget.NewLabel("Background"), bg)
}

func buildExportControls(sess *session.Session, cfg config.AppConfig, w fyne.Window, status *widget.Label) fyne.CanvasObject {
	scale := cfg.Export.Scale
	scaleSel := widget.NewSelect([]string{"1x", "2x", "3x", "4x"}, func(s string) {
		switch s {
		case "1x":
			scale = 1
		case "2x":
			scale = 2
		case "3x":
			scale = 3
		default:
			scale = 4
		}
	})
	if scale < 1 || scale > 4 {
		scale = 2
	}
	scaleSel.SetSelected(fmt.Sprintf("%dx", scale))

	render := func() (*raster.Buffer, bool) {
		out, err := sess.Export(scale)
		if err != nil {
			dialog.ShowError(err, w)
			return nil, false
		}
		return out, true
	}

	pngBtn := widget.NewButton("Export PNG…", func() {
		out, ok := render()
		if !ok {
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			if !strings.HasSuffix(strings.ToLower(path), ".png") {
				path += ".png"
			}
			if _, werr := export.WritePNG(out, cfg.Export.Dir, path); werr != nil {
				dialog.ShowError(werr, w)
				return
			}
			status.SetText("Exported " + path)
		}, w)
		save.SetFileName(export.PNGName(scale))
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".png"}))
		save.Show()
	})

	pdfBtn := widget.NewButton("Export PDF…", func() {
		out, ok := render()
		if !ok {
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
				path += ".pdf"
			}
			if _, werr := export.WritePDF(out, cfg.Export.Dir, path, export.PDFOptions{Title: "Linescreen composite"}); werr != nil {
				dialog.ShowError(werr, w)
				return
			}
			status.SetText("Exported " + path)
		}, w)
		save.SetFileName("composite.pdf")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
		save.Show()
	})

	return container.NewVBox(scaleSel, pngBtn, pdfBtn)
}

// PreviewCanvas shows the live composite and forwards pointer interaction to
// the mask controller. The frame is drawn from the widget's top-left so the
// controller's device-to-image mapping needs no origin correction.
type PreviewCanvas struct {
	widget.BaseWidget
	sess  *session.Session
	ctrl  *session.Controller
	frame *raster.Buffer

	dragging bool
}

func NewPreviewCanvas(sess *session.Session) *PreviewCanvas {
	p := &PreviewCanvas{sess: sess, ctrl: sess.Controller()}
	p.ExtendBaseWidget(p)
	return p
}

// ShowFrame installs a freshly rendered composite.
func (p *PreviewCanvas) ShowFrame(buf *raster.Buffer) {
	p.frame = buf
	p.Refresh()
}

// Reset drops the current frame, for a new image load.
func (p *PreviewCanvas) Reset() {
	p.frame = nil
	p.Refresh()
}

func (p *PreviewCanvas) MinSize() fyne.Size {
	if p.frame == nil {
		return fyne.NewSize(640, 480)
	}
	return fyne.NewSize(float32(p.frame.W), float32(p.frame.H))
}

// syncScales recomputes the widget-to-image ratio from the drawn frame and
// the zoom, and feeds the matching composite scale to the session.
func (p *PreviewCanvas) syncScales() {
	raw := p.sess.Raw()
	if raw == nil {
		return
	}
	scale := p.ctrl.Zoom()
	p.ctrl.SetDisplayScale(scale)
	p.sess.SetPreviewScale(scale)
}

func (p *PreviewCanvas) Tapped(e *fyne.PointEvent) {
	p.ctrl.PointerDown(float64(e.Position.X), float64(e.Position.Y))
	p.ctrl.PointerUp()
	p.sess.RequestRender()
	p.Refresh()
}

func (p *PreviewCanvas) Dragged(e *fyne.DragEvent) {
	if !p.dragging {
		p.dragging = true
		sx := float64(e.Position.X - e.Dragged.DX)
		sy := float64(e.Position.Y - e.Dragged.DY)
		p.ctrl.PointerDown(sx, sy)
	}
	p.ctrl.PointerMove(float64(e.Position.X), float64(e.Position.Y))
	p.sess.RequestRender()
	p.Refresh()
}

func (p *PreviewCanvas) DragEnd() {
	p.dragging = false
	p.ctrl.PointerUp()
	p.Refresh()
}

func (p *PreviewCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})

	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleFastest

	bbox := canvas.NewRectangle(color.RGBA{})
	bbox.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	bbox.StrokeWidth = 1
	bbox.Hide()

	var handles []*canvas.Rectangle
	for i := 0; i < 4; i++ {
		h := canvas.NewRectangle(color.RGBA{R: 0, G: 170, B: 255, A: 255})
		h.Hide()
		handles = append(handles, h)
	}

	objs := []fyne.CanvasObject{bg, img, bbox}
	for _, h := range handles {
		objs = append(objs, h)
	}
	return &previewRenderer{pc: p, objects: objs, bg: bg, img: img, bbox: bbox, handles: handles}
}

type previewRenderer struct {
	pc      *PreviewCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	img     *canvas.Image
	bbox    *canvas.Rectangle
	handles []*canvas.Rectangle
}

func (r *previewRenderer) Destroy()                     {}
func (r *previewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *previewRenderer) MinSize() fyne.Size           { return r.pc.MinSize() }
func (r *previewRenderer) Refresh()                     { r.Layout(r.pc.Size()); canvas.Refresh(r.pc) }

func (r *previewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	r.pc.syncScales()

	frame := r.pc.frame
	if frame == nil {
		r.img.Hide()
		r.bbox.Hide()
		for _, h := range r.handles {
			h.Hide()
		}
		return
	}
	r.img.Show()
	r.img.Image = frame.NRGBA()
	r.img.Resize(fyne.NewSize(float32(frame.W), float32(frame.H)))
	r.img.Move(fyne.NewPos(0, 0))
	r.img.Refresh()

	// Selection overlay in widget coordinates.
	sel := r.pc.ctrl.Selection()
	masks := r.pc.sess.Masks()
	if sel < 0 || sel >= masks.Len() {
		r.bbox.Hide()
		for _, h := range r.handles {
			h.Hide()
		}
		return
	}
	ds := float32(r.pc.ctrl.DisplayScale())
	m := masks.At(sel)
	x0, y0, x1, y1 := m.Bounds()
	r.bbox.Show()
	r.bbox.Resize(fyne.NewSize(float32(x1-x0)*ds, float32(y1-y0)*ds))
	r.bbox.Move(fyne.NewPos(float32(x0)*ds, float32(y0)*ds))

	hs := float32(mask.HandleSize)
	if corners, ok := masks.Handles(sel); ok {
		for i, h := range corners {
			r.handles[i].Show()
			r.handles[i].Resize(fyne.NewSize(hs, hs))
			r.handles[i].Move(fyne.NewPos(float32(h.X)*ds-hs/2, float32(h.Y)*ds-hs/2))
		}
	}
}
