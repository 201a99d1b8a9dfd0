package charts

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"dataprobe/domain/summary"
)

// rdBu runs from -1 (blue) through 0 (white) to +1 (red)
var rdBu = []drawing.Color{
	drawing.ColorFromHex("053061"),
	drawing.ColorFromHex("2166ac"),
	drawing.ColorFromHex("4393c3"),
	drawing.ColorFromHex("92c5de"),
	drawing.ColorFromHex("d1e5f0"),
	drawing.ColorFromHex("f7f7f7"),
	drawing.ColorFromHex("fddbc7"),
	drawing.ColorFromHex("f4a582"),
	drawing.ColorFromHex("d6604d"),
	drawing.ColorFromHex("b2182b"),
	drawing.ColorFromHex("67001f"),
}

var undefinedCell = drawing.ColorFromHex("e0e0e0")

// HeatCell is one coefficient with the colours it is drawn with
type HeatCell struct {
	Value      summary.Stat
	Background drawing.Color
	Foreground drawing.Color
}

// Heatmap is a correlation matrix coloured on a diverging scale
type Heatmap struct {
	Columns []string
	Cells   [][]HeatCell
}

// NewHeatmap colours every coefficient of the matrix. Undefined coefficients are grey.
func NewHeatmap(m *summary.CorrelationMatrix) *Heatmap {
	h := &Heatmap{
		Columns: m.Columns,
		Cells:   make([][]HeatCell, len(m.Values)),
	}
	for i, row := range m.Values {
		h.Cells[i] = make([]HeatCell, len(row))
		for j, v := range row {
			cell := HeatCell{Value: v, Background: undefinedCell, Foreground: drawing.ColorBlack}
			if v.Valid {
				cell.Background = DivergingColor(v.Value)
				if math.Abs(v.Value) > 0.6 {
					cell.Foreground = drawing.ColorWhite
				}
			}
			h.Cells[i][j] = cell
		}
	}
	return h
}

// DivergingColor maps a coefficient in [-1, 1] onto the blue-white-red scale
func DivergingColor(r float64) drawing.Color {
	r = math.Max(-1, math.Min(1, r))
	pos := (r + 1) / 2 * float64(len(rdBu)-1)
	i := int(math.Floor(pos))
	if i >= len(rdBu)-1 {
		return rdBu[len(rdBu)-1]
	}
	return lerp(rdBu[i], rdBu[i+1], pos-float64(i))
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
