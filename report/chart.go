package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Zklib/acir-profiler/profiler"
)

// Chart renders an HTML page with a constraints-per-circuit bar chart
// and a category-distribution pie for a batch run.
func Chart(results []profiler.BatchResult, path string) error {
	var labels []string
	var constraints []opts.BarData
	categoryTotals := make(map[string]int)
	var categoryOrder []string

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		labels = append(labels, r.Name)
		constraints = append(constraints, opts.BarData{Value: r.Analysis.Constraints})
		for _, oc := range r.Analysis.OperationCounts {
			if _, ok := categoryTotals[oc.Category]; !ok {
				categoryOrder = append(categoryOrder, oc.Category)
			}
			categoryTotals[oc.Category] += oc.Count
		}
	}
	if len(labels) == 0 {
		return fmt.Errorf("no successful analyses to chart")
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Constraints per circuit",
			Subtitle: fmt.Sprintf("%d circuits", len(labels)),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "ACIR profiler batch report",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("constraints", constraints)

	var pieData []opts.PieData
	for _, category := range categoryOrder {
		pieData = append(pieData, opts.PieData{Name: category, Value: categoryTotals[category]})
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Opcode category distribution"}),
	)
	pie.AddSeries("categories", pieData)

	page := components.NewPage()
	page.AddCharts(bar, pie)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	return page.Render(f)
}
