/*plot_timing turns the CSV written by pmesh_spread's TimingFile option
into a pair of comparison plots.

Usage:
    $ plot_timing timing.csv plot_dir
*/
package main

import (
	"fmt"
	"log"
	"os"
	"path"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/pmesh/perf"
)

var colors = []string{"DarkSlateBlue", "DarkTurquoise", "DeepPink"}

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("Usage: $ %s timing.csv plot_dir", os.Args[0])
	}

	rows, err := perf.ReadCSV(os.Args[1])
	if err != nil {
		log.Fatalf("Error reading timing file: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("%s contains no timing rows.", os.Args[1])
	}

	plt.Reset()
	plotPassTimes(rows, os.Args[2])
	plotPhaseShares(rows, os.Args[2])
	plt.Execute()
}

func plotPassTimes(rows []perf.Row, dir string) {
	plt.Figure()

	for i, row := range rows {
		xs := []float64{float64(i)}
		ys := []float64{float64(row.AvgPassUS) / 1000}
		lo := []float64{float64(row.MinPassUS) / 1000}
		hi := []float64{float64(row.MaxPassUS) / 1000}

		c := colors[i%len(colors)]
		plt.Plot(xs, ys, "o", plt.C(c))
		plt.Plot([]float64{xs[0], xs[0]}, []float64{lo[0], hi[0]},
			plt.C(c), plt.LW(2))
	}

	plt.Title("Pass time by strategy")
	plt.XLabel("strategy index", plt.FontSize(16))
	plt.YLabel("pass time [ms]", plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(path.Join(dir, "pass_times.png"))

	for i, row := range rows {
		fmt.Printf("%d: %s, avg %d us\n", i, row.Strategy, row.AvgPassUS)
	}
}

func plotPhaseShares(rows []perf.Row, dir string) {
	plt.Figure()

	xs := []float64{0, 1, 2, 3, 4}
	for i, row := range rows {
		ys := []float64{
			row.ResizePct, row.MirrorPct, row.ZeroPct,
			row.MapPct, row.SpreadPct,
		}
		plt.Plot(xs, ys, plt.C(colors[i%len(colors)]), plt.LW(3))
	}

	plt.Title("Phase share by strategy")
	plt.XLabel("resize / mirror / zero / map / spread", plt.FontSize(16))
	plt.YLabel("share of pass [%]", plt.FontSize(16))
	plt.YLim(0, 100)
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(path.Join(dir, "phase_shares.png"))
}
