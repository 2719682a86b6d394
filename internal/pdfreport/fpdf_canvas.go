package pdfreport

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
)

// fpdfCanvas draws with the core Helvetica font. Core fonts are single byte, so runs of
// bar glyphs are painted as rectangles and other text goes through the cp1252 translator.
type fpdfCanvas struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	size  float64
	text  color.RGBA
	shade color.RGBA
}

func newFpdfCanvas(title string, created time.Time) *fpdfCanvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("taxaformer", true)
	pdf.SetCreationDate(created)
	c := &fpdfCanvas{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		size:  10,
		shade: color.RGBA{R: 226, G: 232, B: 240, A: 255},
	}
	pdf.SetFont("Helvetica", "", c.size)
	return c
}

func (c *fpdfCanvas) AddPage() { c.pdf.AddPage() }

func (c *fpdfCanvas) SetFont(bold bool, size float64) {
	style := ""
	if bold {
		style = "B"
	}
	c.size = size
	c.pdf.SetFont("Helvetica", style, size)
}

func (c *fpdfCanvas) SetTextColor(col color.RGBA) {
	c.text = col
	c.pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
}

func (c *fpdfCanvas) SetFillColor(col color.RGBA) {
	c.pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
}

func (c *fpdfCanvas) SetDrawColor(col color.RGBA) {
	c.pdf.SetDrawColor(int(col.R), int(col.G), int(col.B))
}

func (c *fpdfCanvas) Text(x, y float64, s string) {
	for _, run := range splitRuns(s) {
		switch run.glyph {
		case FullBlock, LightShade:
			w := glyphWidth(c.size) * float64(run.n)
			h := c.size * ptToMM * 0.7
			fill := c.text
			if run.glyph == LightShade {
				fill = c.shade
			}
			c.pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
			c.pdf.Rect(x, y-h, w, h, "F")
			x += w
		default:
			c.pdf.Text(x, y, c.tr(run.text))
			x += c.pdf.GetStringWidth(c.tr(run.text))
		}
	}
}

func (c *fpdfCanvas) Rect(x, y, w, h float64, fill, stroke bool) {
	style := ""
	if fill {
		style += "F"
	}
	if stroke {
		style += "D"
	}
	if style == "" {
		return
	}
	c.pdf.Rect(x, y, w, h, style)
}

func (c *fpdfCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.SetLineWidth(0.2)
	c.pdf.Line(x1, y1, x2, y2)
}

func (c *fpdfCanvas) TextWidth(s string) float64 {
	w := 0.0
	for _, run := range splitRuns(s) {
		if run.glyph != 0 {
			w += glyphWidth(c.size) * float64(run.n)
			continue
		}
		w += c.pdf.GetStringWidth(c.tr(run.text))
	}
	return w
}

func (c *fpdfCanvas) WriteTo(w io.Writer) (int64, error) {
	if err := c.pdf.Error(); err != nil {
		return 0, fmt.Errorf("build pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("output pdf: %w", err)
	}
	return buf.WriteTo(w)
}

type run struct {
	text  string
	glyph rune
	n     int
}

// splitRuns separates bar glyph runs from ordinary text.
func splitRuns(s string) []run {
	var out []run
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, run{text: b.String()})
			b.Reset()
		}
	}
	for _, r := range s {
		if r != FullBlock && r != LightShade {
			b.WriteRune(r)
			continue
		}
		flush()
		if n := len(out); n > 0 && out[n-1].glyph == r {
			out[n-1].n++
			continue
		}
		out = append(out, run{glyph: r, n: 1})
	}
	flush()
	return out
}
