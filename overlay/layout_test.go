package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanelPositionCentered(t *testing.T) {
	pos := PanelPosition(0, 1920)
	assert.Equal(t, Rect{Left: 810, Top: 20, Right: 1110, Bottom: 100}, pos)
	assert.Equal(t, BoxWidth, pos.Width())
	assert.Equal(t, BoxHeight, pos.Height())
}

func TestPanelPositionStacksDown(t *testing.T) {
	first := PanelPosition(0, 1920)
	second := PanelPosition(1, 1920)
	assert.Equal(t, first.Bottom+BoxGap, second.Top)
}

func TestQRColumnTop(t *testing.T) {
	assert.Equal(t, TopMargin, QRColumnTop(0))
	assert.Equal(t, TopMargin+2*(BoxHeight+BoxGap), QRColumnTop(2))
}

func TestQRCodePosition(t *testing.T) {
	side := QRCodeSide(29)
	assert.Equal(t, 29*QRModulePixels+2*QRPadding, side)

	pos := QRCodePosition(0, side, 200, 1920)
	assert.Equal(t, (1920-side)/2, pos.Left)
	assert.Equal(t, 200, pos.Top)
	assert.Equal(t, side, pos.Width())
	assert.Equal(t, side, pos.Height())

	next := QRCodePosition(1, side, 200, 1920)
	assert.Equal(t, pos.Bottom+BoxGap, next.Top)
}

func TestFormatLines(t *testing.T) {
	assert.Equal(t, "Closing in 5 s", CountdownText(5))
	assert.Equal(t, "Closing in 0 s", CountdownText(-1))
	assert.Equal(t, "Elapsed time: 7 seconds", ElapsedText(7))
	assert.Equal(t, "Elapsed time: 0 seconds", ElapsedText(-3))
}
