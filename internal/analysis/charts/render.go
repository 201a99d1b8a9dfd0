package charts

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"dataprobe/domain/table"
)

const (
	chartWidth  = 720
	chartHeight = 400
)

var (
	histogramColor = drawing.ColorFromHex("1f77b4")
	boxColor       = drawing.ColorFromHex("0b3d66")
	bluesLight     = drawing.ColorFromHex("c6dbef")
	bluesDark      = drawing.ColorFromHex("08306b")
)

// RenderHistogramSVG draws the histogram with its box marginal above the bars
func RenderHistogramSVG(w io.Writer, h *Histogram) error {
	maxCount := 0.0
	for _, c := range h.Counts {
		maxCount = math.Max(maxCount, c)
	}
	boxY := maxCount * 1.15
	boxHalf := math.Max(maxCount*0.04, 0.05)

	// Ranges wider than float64 can hold are drawn at half scale.
	scale, axisName := 1.0, h.Column
	if math.IsInf(h.Edges[len(h.Edges)-1]-h.Edges[0], 0) {
		scale, axisName = 0.5, h.Column+" (÷2)"
	}

	xMin, xMax := h.Edges[0]*scale, h.Edges[len(h.Edges)-1]*scale
	if xMax-xMin < 1e-9 {
		pad := math.Max(math.Abs(xMin)*0.05, 0.5)
		xMin, xMax = xMin-pad, xMax+pad
	}

	series := []chart.Series{histogramSeries(h, scale)}
	series = append(series, boxSeries(h.Box, scale, boxY, boxHalf)...)

	graph := chart.Chart{
		Title:      fmt.Sprintf("Distribuição de %s", h.Column),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  axisName,
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "Frequência",
			Range: &chart.ContinuousRange{Min: 0, Max: boxY + boxHalf*2},
		},
		Series: series,
	}
	return graph.Render(chart.SVG, w)
}

// histogramSeries outlines the bins as a filled step curve
func histogramSeries(h *Histogram, scale float64) chart.ContinuousSeries {
	xs := make([]float64, 0, len(h.Counts)*4)
	ys := make([]float64, 0, len(h.Counts)*4)
	for i, c := range h.Counts {
		left, right := h.Edges[i]*scale, h.Edges[i+1]*scale
		xs = append(xs, left, left, right, right)
		ys = append(ys, 0, c, c, 0)
	}
	return chart.ContinuousSeries{
		Name:    "Frequência",
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: histogramColor,
			FillColor:   histogramColor.WithAlpha(160),
			StrokeWidth: 1,
		},
	}
}

// boxSeries draws whiskers, the interquartile box and the median at height y
func boxSeries(b Box, scale, y, half float64) []chart.Series {
	b = Box{Min: b.Min * scale, Q1: b.Q1 * scale, Median: b.Median * scale, Q3: b.Q3 * scale, Max: b.Max * scale}
	style := chart.Style{StrokeColor: boxColor, StrokeWidth: 1.5}
	return []chart.Series{
		chart.ContinuousSeries{Name: "whisker", Style: style, XValues: []float64{b.Min, b.Q1}, YValues: []float64{y, y}},
		chart.ContinuousSeries{Name: "whisker", Style: style, XValues: []float64{b.Q3, b.Max}, YValues: []float64{y, y}},
		chart.ContinuousSeries{
			Name:    "box",
			Style:   style,
			XValues: []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1},
			YValues: []float64{y - half, y + half, y + half, y - half, y - half},
		},
		chart.ContinuousSeries{Name: "median", Style: style, XValues: []float64{b.Median, b.Median}, YValues: []float64{y - half, y + half}},
	}
}

// RenderBarsSVG draws the value counts as vertical bars shaded by count
func RenderBarsSVG(w io.Writer, b *Bars) error {
	maxCount := 0
	for _, v := range b.Values {
		maxCount = max(maxCount, v.Count)
	}

	const barWidth, barSpacing = 24, 8
	bars := make([]chart.Value, len(b.Values))
	for i, v := range b.Values {
		shade := lerp(bluesLight, bluesDark, float64(v.Count)/float64(maxCount))
		bars[i] = chart.Value{
			Value: float64(v.Count),
			Label: v.Value,
			Style: chart.Style{FillColor: shade, StrokeColor: shade},
		}
	}

	title := fmt.Sprintf("Distribuição de %s", b.Column)
	if b.Truncated > 0 {
		title = fmt.Sprintf("%s (%d valores omitidos)", title, b.Truncated)
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      max(chartWidth, 120+len(bars)*(barWidth+barSpacing)),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 90}},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name:  "Contagem",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
	return graph.Render(chart.SVG, w)
}

// RenderColumnSVG renders the chart a column kind calls for. It returns false when the
// column has no chart (no non-null values, or a datetime column).
func RenderColumnSVG(w io.Writer, col *table.Column) (bool, error) {
	switch col.Kind {
	case table.KindNumeric:
		if h := NewHistogram(col); h != nil {
			return true, RenderHistogramSVG(w, h)
		}
	case table.KindText:
		if b := NewBars(col); b != nil {
			return true, RenderBarsSVG(w, b)
		}
	}
	return false, nil
}
