package overlay

// Layout constants for the overlay column: countdown/elapsed boxes are
// centered horizontally and stacked from the top margin down, QR cards
// continue below them.
const (
	BoxWidth  = 300
	BoxHeight = 80
	BoxGap    = 10
	TopMargin = 20
	PanelPadX = 8
	PanelPadY = 8

	QRModulePixels = 6
	QRPadding      = 10

	CornerRadius         float32 = 10.0
	HighlightStrokeWidth float32 = 2
	HighlightFillAlpha   uint8   = 128
)

// Rect is a left/top/right/bottom rectangle in screen pixels.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns the rectangle width.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the rectangle height.
func (r Rect) Height() int { return r.Bottom - r.Top }

// PanelPosition returns the screen rectangle of the idx-th message panel,
// centered horizontally.
func PanelPosition(idx, screenWidth int) Rect {
	left := (screenWidth - BoxWidth) / 2
	top := TopMargin + idx*(BoxHeight+BoxGap)
	return Rect{Left: left, Top: top, Right: left + BoxWidth, Bottom: top + BoxHeight}
}

// QRColumnTop returns the y coordinate where the QR card column starts,
// below the given number of message panels.
func QRColumnTop(panelCount int) int {
	return TopMargin + panelCount*(BoxHeight+BoxGap)
}

// QRCodeSide returns the pixel side length of a QR card for a module
// matrix of the given dimension, including padding on both sides.
func QRCodeSide(moduleCount int) int {
	return moduleCount*QRModulePixels + 2*QRPadding
}

// QRCodePosition returns the screen rectangle of the idx-th QR card of the
// given side length, centered horizontally and stacked from topStart down.
func QRCodePosition(idx, side, topStart, screenWidth int) Rect {
	left := (screenWidth - side) / 2
	top := topStart + idx*(side+BoxGap)
	return Rect{Left: left, Top: top, Right: left + side, Bottom: top + side}
}
