// Package ui implements the fyne render surface for the overlay manager: a
// borderless window covering the display, redrawn from immutable overlay
// snapshots handed over by the dispatcher. The paint path never touches
// dispatcher-owned state.
package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/aubex/overlays/overlay"
)

const (
	messageFontSize float32 = 20
	detailFontSize  float32 = 16
	captionFontSize float32 = 14
)

var (
	panelBackground = color.NRGBA{R: 200, G: 220, B: 255, A: 230}
	panelText       = color.NRGBA{R: 0, G: 0, B: 128, A: 255}
	qrBackground    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	qrModule        = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
)

// OverlayWindow renders overlay snapshots on an undecorated always-on-top
// window. Invalidate may be called from any goroutine; drawing is marshaled
// onto the fyne UI thread.
type OverlayWindow struct {
	win     fyne.Window
	content *fyne.Container
	width   float32
	height  float32
}

// NewOverlayWindow creates the overlay window. A splash window is used when
// the driver supports it so the overlay has no decorations; pressing Escape
// closes it.
func NewOverlayWindow(app fyne.App, width, height float32) *OverlayWindow {
	var win fyne.Window
	if drv, ok := app.Driver().(desktop.Driver); ok {
		win = drv.CreateSplashWindow()
	} else {
		win = app.NewWindow("Overlay")
	}

	w := &OverlayWindow{
		win:     win,
		content: container.NewWithoutLayout(),
		width:   width,
		height:  height,
	}

	win.SetPadded(false)
	win.SetContent(w.content)
	win.Resize(fyne.NewSize(width, height))
	win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			win.Close()
		}
	})
	return w
}

// Window exposes the underlying fyne window for lifecycle wiring.
func (w *OverlayWindow) Window() fyne.Window { return w.win }

// Invalidate schedules a repaint from the given snapshot.
func (w *OverlayWindow) Invalidate(snap overlay.Snapshot) {
	fyne.Do(func() { w.rebuild(snap) })
}

// rebuild replaces the canvas objects from the snapshot. Runs on the fyne
// UI thread only.
func (w *OverlayWindow) rebuild(snap overlay.Snapshot) {
	screenWidth := int(w.win.Canvas().Size().Width)
	if screenWidth == 0 {
		screenWidth = int(w.width)
	}

	objects := make([]fyne.CanvasObject, 0,
		len(snap.Highlights)+3*len(snap.Panels)+3*len(snap.QRCodes))

	for _, h := range snap.Highlights {
		objects = append(objects, highlightObjects(h)...)
	}
	for i, p := range snap.Panels {
		objects = append(objects, panelObjects(p, i, screenWidth)...)
	}
	qrTop := overlay.QRColumnTop(len(snap.Panels))
	for i, q := range snap.QRCodes {
		objects = append(objects, qrObjects(q, i, qrTop, screenWidth)...)
	}

	w.content.Objects = objects
	w.content.Refresh()
}

// highlightObjects renders one highlight: a translucent fill with an opaque
// stroke in the highlight's color.
func highlightObjects(h overlay.Highlight) []fyne.CanvasObject {
	fill := h.Color
	fill.A = overlay.HighlightFillAlpha

	rect := canvas.NewRectangle(fill)
	rect.StrokeColor = h.Color
	rect.StrokeWidth = overlay.HighlightStrokeWidth
	rect.Move(fyne.NewPos(float32(h.Rect.Left), float32(h.Rect.Top)))
	rect.Resize(fyne.NewSize(float32(h.Rect.Width()), float32(h.Rect.Height())))
	return []fyne.CanvasObject{rect}
}

// panelObjects renders one countdown or elapsed panel: a rounded box with
// the message and a detail line.
func panelObjects(p overlay.Panel, idx, screenWidth int) []fyne.CanvasObject {
	pos := overlay.PanelPosition(idx, screenWidth)

	box := canvas.NewRectangle(panelBackground)
	box.CornerRadius = overlay.CornerRadius
	box.Move(fyne.NewPos(float32(pos.Left), float32(pos.Top)))
	box.Resize(fyne.NewSize(float32(pos.Width()), float32(pos.Height())))

	message := centeredText(p.Message, messageFontSize, pos.Left, pos.Top+overlay.PanelPadY, pos.Width())

	var detail string
	switch p.Kind {
	case overlay.KindCountdown:
		detail = overlay.CountdownText(p.Remaining)
	case overlay.KindElapsed:
		detail = overlay.ElapsedText(p.Elapsed)
	}
	detailText := centeredText(detail, detailFontSize,
		pos.Left, pos.Top+overlay.PanelPadY+int(messageFontSize)+overlay.BoxGap, pos.Width())

	return []fyne.CanvasObject{box, message, detailText}
}

// qrObjects renders one QR card: a white background, the module grid and an
// optional caption below the grid.
func qrObjects(q overlay.QRCode, idx, topStart, screenWidth int) []fyne.CanvasObject {
	side := overlay.QRCodeSide(len(q.Matrix))
	pos := overlay.QRCodePosition(idx, side, topStart, screenWidth)

	captionHeight := 0
	if q.Caption != "" {
		captionHeight = int(captionFontSize) + overlay.QRPadding
	}

	card := canvas.NewRectangle(qrBackground)
	card.Move(fyne.NewPos(float32(pos.Left), float32(pos.Top)))
	card.Resize(fyne.NewSize(float32(side), float32(side+captionHeight)))

	grid := canvas.NewImageFromImage(matrixImage(q.Matrix))
	grid.ScaleMode = canvas.ImageScalePixels
	grid.FillMode = canvas.ImageFillStretch
	gridSide := len(q.Matrix) * overlay.QRModulePixels
	grid.Move(fyne.NewPos(float32(pos.Left+overlay.QRPadding), float32(pos.Top+overlay.QRPadding)))
	grid.Resize(fyne.NewSize(float32(gridSide), float32(gridSide)))

	objects := []fyne.CanvasObject{card, grid}
	if q.Caption != "" {
		caption := centeredText(q.Caption, captionFontSize, pos.Left, pos.Bottom, side)
		caption.Color = qrModule
		objects = append(objects, caption)
	}
	return objects
}

func centeredText(text string, size float32, left, top, width int) *canvas.Text {
	t := canvas.NewText(text, panelText)
	t.TextSize = size
	t.Alignment = fyne.TextAlignCenter
	t.Move(fyne.NewPos(float32(left), float32(top)))
	t.Resize(fyne.NewSize(float32(width), size+4))
	return t
}

// matrixImage rasterizes the module matrix at one pixel per module; the
// canvas image scales it up with nearest-neighbor so modules stay crisp.
func matrixImage(matrix [][]bool) image.Image {
	n := len(matrix)
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	for y, row := range matrix {
		for x, set := range row {
			if set {
				img.Set(x, y, qrModule)
			} else {
				img.Set(x, y, qrBackground)
			}
		}
	}
	return img
}
