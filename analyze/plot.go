package analyze

import (
	"fmt"

	plt "github.com/phil-mansfield/pyplot"
)

var colors = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// PlotCumulative queues a figure of the cumulative discharge curve of each
// run. The figure is written to fname when plt.Execute is called.
func PlotCumulative(runs [][]float64, fname string) {
	plt.Figure(plt.FigSize(10, 6))

	tMax := 0.0
	for i, times := range runs {
		ts, counts := Cumulative(times)
		if len(ts) == 0 {
			continue
		}
		// Start every curve from the origin.
		ts = append([]float64{0}, ts...)
		counts = append([]float64{0}, counts...)
		plt.Plot(ts, counts, plt.LW(2), plt.C(colors[i%len(colors)]))

		if ts[len(ts)-1] > tMax {
			tMax = ts[len(ts)-1]
		}
	}

	plt.Title(fmt.Sprintf("Cumulative discharges, %d runs", len(runs)))
	plt.XLabel(`$t$`, plt.FontSize(16))
	plt.YLabel(`Discharged particles`, plt.FontSize(16))
	if tMax > 0 {
		plt.XLim(0, tMax)
	}
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}

// PlotProfile queues a figure of the packing fraction along the channel.
func PlotProfile(xs, phis []float64, fname string) {
	plt.Figure(plt.FigSize(10, 4))
	plt.Plot(xs, phis, "k", plt.LW(2))

	plt.Title("Packing fraction along the channel")
	plt.XLabel(`$x$`, plt.FontSize(16))
	plt.YLabel(`$\phi$`, plt.FontSize(16))
	if len(xs) > 0 {
		plt.XLim(0, xs[len(xs)-1]+xs[0])
	}
	plt.YLim(0, 1)
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}
