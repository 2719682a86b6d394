package pdfreport

import (
	"math"
	"strings"
)

// BarLength is the number of glyphs in a text bar.
const BarLength = 30

// TextBar renders value relative to maxValue as length glyphs, filled with FullBlock
// and padded with LightShade. A non-positive maxValue yields an all-shade bar.
func TextBar(value, maxValue float64, length int) string {
	if length <= 0 {
		return ""
	}
	filled := 0
	if maxValue > 0 && value > 0 && !math.IsNaN(value) {
		filled = int(math.Round(value / maxValue * float64(length)))
	}
	filled = min(max(filled, 0), length)
	return strings.Repeat(string(FullBlock), filled) + strings.Repeat(string(LightShade), length-filled)
}
