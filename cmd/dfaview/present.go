package main

import (
	"image"

	"github.com/gdamore/tcell/v2"
)

// Styles
var (
	styleStatus    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleStatusErr = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleHelp      = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// chromeRows is the number of terminal rows below the canvas: help and
// status.
const chromeRows = 2

// canvasSize returns the raster size for a w×h terminal.
func canvasSize(w, h int) (int, int) {
	rows := h - chromeRows
	if rows < 1 {
		rows = 1
	}
	if w < 1 {
		w = 1
	}
	return w, 2 * rows
}

// blit paints img into the screen with one upper half block per cell, the
// foreground carrying the top pixel and the background the bottom one.
func blit(s tcell.Screen, img *image.RGBA) {
	b := img.Bounds()
	for y := 0; 2*y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			top := img.RGBAAt(b.Min.X+x, b.Min.Y+2*y)
			bottom := top
			if 2*y+1 < b.Dy() {
				bottom = img.RGBAAt(b.Min.X+x, b.Min.Y+2*y+1)
			}
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			s.SetContent(x, y, '▀', nil, style)
		}
	}
}

func drawString(s tcell.Screen, x, y int, str string, style tcell.Style) {
	for i, r := range []rune(str) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

// drawChrome draws the help line and the status bar under the canvas.
func drawChrome(s tcell.Screen, left, message string, isErr bool) {
	w, h := s.Size()
	if h < chromeRows {
		return
	}
	help := h - 2
	status := h - 1
	for x := 0; x < w; x++ {
		s.SetContent(x, help, ' ', nil, tcell.StyleDefault)
		s.SetContent(x, status, ' ', nil, styleStatus)
	}
	drawString(s, 1, help, "Space:Step  R:Restart  I:Input  F:Fit  S:Save layout  Wheel:Zoom  Drag:Move/Pan  Q:Quit", styleHelp)
	drawString(s, 1, status, left, styleStatus)
	if message != "" {
		style := styleStatus
		if isErr {
			style = styleStatusErr
		}
		x := w - len([]rune(message)) - 2
		if x < len([]rune(left))+3 {
			x = len([]rune(left)) + 3
		}
		drawString(s, x, status, message, style)
	}
}
