package analytics

import "math/rand"

// legendPalette holds the chart legend colors cycled through by LegendColors.
var legendPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// LegendColors assigns display colors for n chart entries. The assignment is
// cosmetic and random on purpose; it lives outside the aggregation path so it
// can never influence ordering or totals.
func LegendColors(n int) []string {
	if n <= 0 {
		return []string{}
	}
	start := rand.Intn(len(legendPalette))
	colors := make([]string, n)
	for i := range colors {
		colors[i] = legendPalette[(start+i)%len(legendPalette)]
	}
	return colors
}
