package report

import (
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/granule-data/maskfill/internal/maskfill"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// CoverageChart renders a bar chart (HTML page) of the region coverage
// each file saw, percent of cells inside the region per file. Failed
// files carry no coverage and are counted in the subtitle instead of
// charted.
func CoverageChart(w io.Writer, regionPath string, outcomes []maskfill.Outcome) error {
	x := make([]string, 0, len(outcomes))
	y := make([]opts.BarData, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		x = append(x, filepath.Base(o.Input))
		pct := math.Round(o.Coverage*1000) / 10
		y = append(y, opts.BarData{Value: pct})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Mask Fill Coverage", Width: "100%", Height: "720px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Region Coverage",
			Subtitle: fmt.Sprintf("region=%s files=%d failed=%d", filepath.Base(regionPath), len(outcomes), failed),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cells inside (%)", Min: 0, Max: 100}),
	)
	bar.SetXAxis(x).
		AddSeries("coverage", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(bar)

	return page.Render(w)
}
