package market

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartType selects how candles are drawn.
type ChartType string

const (
	ChartArea        ChartType = "area"
	ChartCandlestick ChartType = "candlestick"
)

const (
	chartBackground = "#020617"
	chartLine       = "#22c55e"
	chartUp         = "#22c55e"
	chartDown       = "#ef4444"
	timeLayout      = "01-02 15:04"
)

// RenderChart writes a standalone HTML chart page for symbol. Area charts plot
// candle closes.
func RenderChart(w io.Writer, symbol string, candles []Candle, chartType ChartType) error {
	initOpts := opts.Initialization{
		PageTitle:       symbol,
		Height:          "360px",
		Theme:           "dark",
		BackgroundColor: chartBackground,
	}
	title := opts.Title{Title: symbol, Subtitle: fmt.Sprintf("%d candles", len(candles))}

	xAxis := make([]string, len(candles))
	for i, c := range candles {
		xAxis[i] = c.Time.UTC().Format(timeLayout)
	}

	switch chartType {
	case ChartCandlestick:
		kline := charts.NewKLine()
		kline.SetGlobalOptions(
			charts.WithInitializationOpts(initOpts),
			charts.WithTitleOpts(title),
			charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		)
		data := make([]opts.KlineData, len(candles))
		for i, c := range candles {
			// echarts order: open, close, low, high
			data[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
		}
		kline.SetXAxis(xAxis).AddSeries(symbol, data,
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color:        chartUp,
				Color0:       chartDown,
				BorderColor:  chartUp,
				BorderColor0: chartDown,
			}),
		)
		return kline.Render(w)

	case ChartArea, "":
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(initOpts),
			charts.WithTitleOpts(title),
			charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		)
		data := make([]opts.LineData, len(candles))
		for i, c := range candles {
			data[i] = opts.LineData{Value: c.Close}
		}
		line.SetXAxis(xAxis).AddSeries(symbol, data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: chartLine}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: chartLine}),
		)
		return line.Render(w)

	default:
		return fmt.Errorf("unknown chart type %q", chartType)
	}
}
