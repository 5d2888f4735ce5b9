package layout

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	paletteSteps = 2   // three levels per channel
	paletteFloor = 100 // darkest channel value
)

// PaletteSize is the number of distinct column colours.
const PaletteSize = (paletteSteps + 1) * (paletteSteps + 1) * (paletteSteps + 1)

// Palette returns the fixed column colours: a 3x3x3 RGB grid with each
// channel interpolated between paletteFloor and 255, red varying slowest.
func Palette() []lipgloss.Color {
	colors := make([]lipgloss.Color, 0, PaletteSize)
	span := 255 - paletteFloor
	for r := 0; r <= paletteSteps; r++ {
		for g := 0; g <= paletteSteps; g++ {
			for b := 0; b <= paletteSteps; b++ {
				c := colorful.Color{
					R: channel(paletteFloor + span*r/paletteSteps),
					G: channel(paletteFloor + span*g/paletteSteps),
					B: channel(paletteFloor + span*b/paletteSteps),
				}
				colors = append(colors, lipgloss.Color(c.Hex()))
			}
		}
	}
	return colors
}

func channel(v int) float64 {
	return float64(v) / 255.0
}

// ColorAt returns the palette colour for a column position, cycling.
func ColorAt(palette []lipgloss.Color, i int) lipgloss.Color {
	return palette[i%len(palette)]
}
