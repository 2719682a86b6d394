package palette

import (
	"image/color"
	"strconv"
	"strings"
)

var colors = []string{
	"#22D3EE", "#10B981", "#F59E0B", "#EC4899", "#A78BFA",
	"#3B82F6", "#EF4444", "#8B5CF6", "#14B8A6", "#F97316",
	"#06B6D4", "#84CC16", "#F43F5E", "#6366F1", "#64748B",
}

// Color returns the palette entry for position i, cycling past the end.
func Color(i int) string {
	if i < 0 {
		i = -i
	}
	return colors[i%len(colors)]
}

// Size is the number of colours before Color starts repeating.
func Size() int {
	return len(colors)
}

// RGB parses a #RRGGBB string. Malformed input yields mid grey.
func RGB(hex string) color.RGBA {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}
}
