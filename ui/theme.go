package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// OverlayTheme darkens the default theme so the overlay canvas reads as a
// translucent sheet over the desktop rather than an application window.
type OverlayTheme struct {
	fyne.Theme
}

// NewOverlayTheme creates a new instance of the overlay theme.
func NewOverlayTheme() fyne.Theme {
	return &OverlayTheme{Theme: theme.DefaultTheme()}
}

// Color returns a near-transparent background; everything else falls
// through to the default theme.
func (t *OverlayTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if name == theme.ColorNameBackground {
		return color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x01}
	}
	return t.Theme.Color(name, variant)
}
