package pdfreport

import (
	"image/color"
	"io"
)

// Canvas is the drawing surface the layout engine writes to. Coordinates are millimetres
// from the top-left corner of the current page; font sizes are points.
type Canvas interface {
	AddPage()
	SetFont(bold bool, size float64)
	SetTextColor(c color.RGBA)
	SetFillColor(c color.RGBA)
	SetDrawColor(c color.RGBA)
	// Text draws s with its baseline at y.
	Text(x, y float64, s string)
	// Rect draws a rectangle; fill and stroke select the paint operations.
	Rect(x, y, w, h float64, fill, stroke bool)
	Line(x1, y1, x2, y2 float64)
	TextWidth(s string) float64
	WriteTo(w io.Writer) (int64, error)
}

// Bar glyphs used by the text charts.
const (
	FullBlock  = '█'
	LightShade = '░'
)

const ptToMM = 25.4 / 72

// glyphWidth is the advance of one bar glyph at size points.
func glyphWidth(size float64) float64 {
	return size * ptToMM * 0.6
}
