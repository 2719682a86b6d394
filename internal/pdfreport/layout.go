package pdfreport

import (
	"fmt"
	"image/color"
	"strings"
)

// A4 portrait geometry in millimetres.
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 15.0
	ContentWidth = PageWidth - 2*Margin

	firstPageTop = 20.0
	headerTop    = 24.0
	bottomLimit  = PageHeight - Margin
)

var (
	ink     = color.RGBA{R: 15, G: 23, B: 42, A: 255}
	muted   = color.RGBA{R: 100, G: 116, B: 139, A: 255}
	accent  = color.RGBA{R: 8, G: 145, B: 178, A: 255}
	border  = color.RGBA{R: 203, G: 213, B: 225, A: 255}
	cardBg  = color.RGBA{R: 248, G: 250, B: 252, A: 255}
	headBg  = color.RGBA{R: 226, G: 232, B: 240, A: 255}
	stripes = color.RGBA{R: 241, G: 245, B: 249, A: 255}
)

// Layout is a paginating cursor over a Canvas. Y grows downward from the top of the page.
type Layout struct {
	c     Canvas
	title string
	y     float64
	page  int
}

func NewLayout(c Canvas, title string) *Layout {
	return &Layout{c: c, title: title}
}

func (l *Layout) Page() int { return l.page }

// Cursor is the current Y position in millimetres.
func (l *Layout) Cursor() float64 { return l.y }

// Remaining is the vertical space left above the bottom margin.
func (l *Layout) Remaining() float64 { return bottomLimit - l.y }

// NewPage starts a page. Every page after the first carries the running header.
func (l *Layout) NewPage() {
	l.c.AddPage()
	l.page++
	if l.page == 1 {
		l.y = firstPageTop
		return
	}
	l.c.SetFont(false, 8)
	l.c.SetTextColor(muted)
	l.c.Text(Margin, 12, l.title)
	label := fmt.Sprintf("Page %d", l.page)
	l.c.Text(PageWidth-Margin-l.c.TextWidth(label), 12, label)
	l.c.SetDrawColor(border)
	l.c.Line(Margin, 15, PageWidth-Margin, 15)
	l.y = headerTop
}

// CheckSpace breaks to a new page when fewer than required millimetres remain.
// It reports whether a break happened.
func (l *Layout) CheckSpace(required float64) bool {
	if l.page > 0 && required <= l.Remaining() {
		return false
	}
	l.NewPage()
	return true
}

// Advance moves the cursor down by dy without drawing.
func (l *Layout) Advance(dy float64) {
	l.y += dy
}

func lineHeight(size float64) float64 {
	return size * ptToMM * 1.4
}

// Heading draws a bold single line in the accent colour.
func (l *Layout) Heading(text string, size float64) {
	h := lineHeight(size)
	l.CheckSpace(h + 2)
	l.c.SetFont(true, size)
	l.c.SetTextColor(accent)
	l.y += h
	l.c.Text(Margin, l.y-h*0.3, text)
	l.y += 2
}

// Wrap breaks text into lines no wider than width at the given font size.
// Explicit newlines are kept; a single word wider than width gets its own line.
func (l *Layout) Wrap(text string, size, width float64) []string {
	l.c.SetFont(false, size)
	var lines []string
	for para := range strings.SplitSeq(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			next := cur + " " + w
			if l.c.TextWidth(next) > width {
				lines = append(lines, cur)
				cur = w
				continue
			}
			cur = next
		}
		lines = append(lines, cur)
	}
	return lines
}

// Paragraph draws wrapped text at the content width. The cursor advances by the
// number of wrapped lines, breaking pages between lines as needed.
func (l *Layout) Paragraph(text string, size float64) int {
	return l.paragraphAt(Margin, ContentWidth, text, size, ink)
}

// Note is Paragraph in the muted colour.
func (l *Layout) Note(text string, size float64) int {
	return l.paragraphAt(Margin, ContentWidth, text, size, muted)
}

// Bullet draws an indented paragraph led by a dash.
func (l *Layout) Bullet(text string, size float64) int {
	l.CheckSpace(lineHeight(size))
	l.c.SetFont(false, size)
	l.c.SetTextColor(ink)
	l.c.Text(Margin+2, l.y+lineHeight(size)*0.7, "-")
	return l.paragraphAt(Margin+6, ContentWidth-6, text, size, ink)
}

func (l *Layout) paragraphAt(x, width float64, text string, size float64, col color.RGBA) int {
	lines := l.Wrap(text, size, width)
	h := lineHeight(size)
	for _, line := range lines {
		if l.CheckSpace(h) {
			l.c.SetFont(false, size)
		}
		l.c.SetTextColor(col)
		l.c.Text(x, l.y+h*0.7, line)
		l.y += h
	}
	l.y += 1.5
	return len(lines)
}

// KeyValue draws "key: value" rows with the keys in bold.
func (l *Layout) KeyValue(pairs [][2]string, size float64) {
	h := lineHeight(size)
	for _, kv := range pairs {
		l.CheckSpace(h)
		l.c.SetFont(true, size)
		l.c.SetTextColor(muted)
		l.c.Text(Margin, l.y+h*0.7, kv[0])
		l.c.SetFont(false, size)
		l.c.SetTextColor(ink)
		l.c.Text(Margin+55, l.y+h*0.7, kv[1])
		l.y += h
	}
	l.y += 1.5
}

// StatCard is one tile of the statistics grid.
type StatCard struct {
	Value       string
	Label       string
	Description string
}

const (
	cardHeight = 28.0
	cardGap    = 6.0
)

// StatCards lays cards out two per row as bordered tiles of fixed size.
func (l *Layout) StatCards(cards []StatCard) {
	w := (ContentWidth - cardGap) / 2
	for i, card := range cards {
		col := i % 2
		if col == 0 {
			l.CheckSpace(cardHeight)
		}
		x := Margin + float64(col)*(w+cardGap)
		l.c.SetFillColor(cardBg)
		l.c.SetDrawColor(border)
		l.c.Rect(x, l.y, w, cardHeight, true, true)

		l.c.SetFont(true, 18)
		l.c.SetTextColor(accent)
		l.c.Text(x+4, l.y+10, card.Value)
		l.c.SetFont(true, 9)
		l.c.SetTextColor(ink)
		l.c.Text(x+4, l.y+17, card.Label)
		l.c.SetFont(false, 7.5)
		l.c.SetTextColor(muted)
		l.c.Text(x+4, l.y+23, fitText(l.c, card.Description, w-8))

		if col == 1 || i == len(cards)-1 {
			l.y += cardHeight + cardGap
		}
	}
}

// BarItem is one row of a text chart.
type BarItem struct {
	Label string
	Value float64
}

const (
	barLabelWidth = 55.0
	chartFontSize = 8.5
)

// TextChart draws each item as a label, a text bar scaled to the largest value in
// the series, and the item's share of the series total. An empty series draws the
// placeholder line instead.
func (l *Layout) TextChart(title string, items []BarItem, placeholder string) {
	l.Heading(title, 12)
	if len(items) == 0 {
		l.Note(placeholder, 9)
		l.y += 3
		return
	}
	maxV, total := 0.0, 0.0
	for _, it := range items {
		maxV = max(maxV, it.Value)
		total += it.Value
	}
	h := lineHeight(chartFontSize)
	for _, it := range items {
		if l.CheckSpace(h) {
			l.Heading(title+" (continued)", 12)
		}
		base := l.y + h*0.7
		l.c.SetFont(false, chartFontSize)
		l.c.SetTextColor(ink)
		l.c.Text(Margin, base, fitText(l.c, it.Label, barLabelWidth-2))
		l.c.SetTextColor(accent)
		bar := TextBar(it.Value, maxV, BarLength)
		l.c.Text(Margin+barLabelWidth, base, bar)
		l.c.SetTextColor(muted)
		share := 0.0
		if total > 0 {
			share = it.Value / total * 100
		}
		l.c.Text(Margin+barLabelWidth+l.c.TextWidth(bar)+3, base, fmt.Sprintf("%g (%.1f%%)", it.Value, share))
		l.y += h
	}
	l.y += 4
}

// Column is a fixed-width table column.
type Column struct {
	Title string
	Width float64
}

const (
	tableFontSize = 8.0
	rowHeight     = 7.0
)

// Table draws a header row followed by rows. Cells are clipped to their column width.
func (l *Layout) Table(cols []Column, rows [][]string) {
	l.CheckSpace(rowHeight * 2)
	l.tableHeader(cols)
	for i, row := range rows {
		if l.CheckSpace(rowHeight) {
			l.tableHeader(cols)
		}
		if i%2 == 1 {
			l.c.SetFillColor(stripes)
			l.c.Rect(Margin, l.y, ContentWidth, rowHeight, true, false)
		}
		l.c.SetFont(false, tableFontSize)
		l.c.SetTextColor(ink)
		x := Margin
		for j, col := range cols {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			l.c.Text(x+1.5, l.y+rowHeight*0.68, fitText(l.c, cell, col.Width-3))
			x += col.Width
		}
		l.y += rowHeight
	}
	l.c.SetDrawColor(border)
	l.c.Line(Margin, l.y, Margin+ContentWidth, l.y)
	l.y += 3
}

func (l *Layout) tableHeader(cols []Column) {
	l.c.SetFillColor(headBg)
	l.c.SetDrawColor(border)
	l.c.Rect(Margin, l.y, ContentWidth, rowHeight, true, true)
	l.c.SetFont(true, tableFontSize)
	l.c.SetTextColor(ink)
	x := Margin
	for _, col := range cols {
		l.c.Text(x+1.5, l.y+rowHeight*0.68, col.Title)
		x += col.Width
	}
	l.y += rowHeight
}

// fitText trims s with "..." until it fits width at the current font.
func fitText(c Canvas, s string, width float64) string {
	if c.TextWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if c.TextWidth(string(r)+"...") <= width {
			return string(r) + "..."
		}
	}
	return ""
}
