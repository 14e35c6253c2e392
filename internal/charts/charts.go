// Package charts renders insight views as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"spendlog/internal/core"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

const (
	width  = 800
	height = 400
)

var categoryColors = map[core.Category]drawing.Color{
	core.Food:           drawing.ColorFromHex("6366f1"),
	core.Transportation: drawing.ColorFromHex("06b6d4"),
	core.Entertainment:  drawing.ColorFromHex("8b5cf6"),
	core.Shopping:       drawing.ColorFromHex("ec4899"),
	core.Bills:          drawing.ColorFromHex("f97316"),
	core.Other:          drawing.ColorFromHex("64748b"),
}

var (
	barColor  = drawing.ColorFromHex("6366f1")
	textColor = drawing.ColorFromHex("334155")
)

// CategoryColor returns the palette color of c.
func CategoryColor(c core.Category) drawing.Color {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return categoryColors[core.Other]
}

func background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		FillColor: chart.ColorWhite,
	}
}

// MonthlyBar draws one bar per month. Months without spend still get a slot.
func MonthlyBar(series []core.MonthTotal) ([]byte, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}

	peak := 0.0
	bars := make([]chart.Value, 0, len(series))
	for _, m := range series {
		v := m.Total.Float()
		peak = max(peak, v)
		bars = append(bars, chart.Value{
			Label: m.Label,
			Value: v,
			Style: chart.Style{
				FillColor:   barColor,
				StrokeColor: barColor,
			},
		})
	}
	if peak == 0 {
		peak = 1
	}

	graph := chart.BarChart{
		Title:      "Monthly spending",
		TitleStyle: chart.Style{FontSize: 14, FontColor: textColor},
		Width:      width,
		Height:     height,
		BarWidth:   60,
		Background: background(),
		XAxis:      chart.Style{FontSize: 11, FontColor: textColor},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: peak * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
			Style: chart.Style{FontSize: 11, FontColor: textColor},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render monthly chart: %w", err)
	}
	return buf.Bytes(), nil
}

// CategoryPie draws the share of each category with spend.
func CategoryPie(breakdown []core.CategoryAmount) ([]byte, error) {
	values := make([]chart.Value, 0, len(breakdown))
	for _, c := range breakdown {
		if c.Amount.Cents <= 0 {
			continue
		}
		col := CategoryColor(c.Category)
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %d%%", c.Category, c.Percent),
			Value: c.Amount.Float(),
			Style: chart.Style{
				FillColor:   col,
				StrokeColor: chart.ColorWhite,
				FontColor:   chart.ColorWhite,
				FontSize:    11,
			},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Width:      height,
		Height:     height,
		Values:     values,
		Background: background(),
	}

	buf := bytes.NewBuffer(nil)
	if err := pie.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buf.Bytes(), nil
}
