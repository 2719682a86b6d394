package pdfreport

import (
	"image/color"
	"io"
	"strings"
)

type op struct {
	kind string
	x, y float64
	text string
}

// recorder is a Canvas that keeps every drawing call for inspection.
type recorder struct {
	ops  []op
	size float64
}

func (r *recorder) AddPage() { r.ops = append(r.ops, op{kind: "page"}) }

func (r *recorder) SetFont(_ bool, size float64) { r.size = size }

func (r *recorder) SetTextColor(color.RGBA) {}

func (r *recorder) SetFillColor(color.RGBA) {}

func (r *recorder) SetDrawColor(color.RGBA) {}

func (r *recorder) Text(x, y float64, s string) {
	r.ops = append(r.ops, op{kind: "text", x: x, y: y, text: s})
}

func (r *recorder) Rect(x, y, _, _ float64, _, _ bool) {
	r.ops = append(r.ops, op{kind: "rect", x: x, y: y})
}

func (r *recorder) Line(x1, y1, _, _ float64) {
	r.ops = append(r.ops, op{kind: "line", x: x1, y: y1})
}

func (r *recorder) TextWidth(s string) float64 {
	return float64(len([]rune(s))) * r.size * ptToMM * 0.5
}

func (r *recorder) WriteTo(io.Writer) (int64, error) { return 0, nil }

func (r *recorder) pages() int {
	n := 0
	for _, o := range r.ops {
		if o.kind == "page" {
			n++
		}
	}
	return n
}

func (r *recorder) texts() []string {
	var out []string
	for _, o := range r.ops {
		if o.kind == "text" {
			out = append(out, o.text)
		}
	}
	return out
}

func (r *recorder) hasText(sub string) bool {
	for _, t := range r.texts() {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

// pageTexts returns the texts drawn on page p (1-based).
func (r *recorder) pageTexts(p int) []string {
	var out []string
	page := 0
	for _, o := range r.ops {
		if o.kind == "page" {
			page++
			continue
		}
		if page == p && o.kind == "text" {
			out = append(out, o.text)
		}
	}
	return out
}
