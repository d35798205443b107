/*pmesh_spread runs timed charge-spreading passes from a config file,
cross-checks the spreading strategies against each other, and
optionally exports timing statistics and a brick snapshot.

Usage:
    $ pmesh_spread config.txt
    $ pmesh_spread example-config
*/
package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/pmesh"
	"github.com/phil-mansfield/pmesh/brick"
	"github.com/phil-mansfield/pmesh/geom"
	"github.com/phil-mansfield/pmesh/io"
	"github.com/phil-mansfield/pmesh/perf"
	"github.com/phil-mansfield/pmesh/spread"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: $ %s config.txt (or example-config)", os.Args[0])
	}
	if os.Args[1] == "example-config" {
		fmt.Println(io.ExampleSpreadFile)
		return
	}

	con, err := io.ReadSpreadConfig(os.Args[1])
	if err != nil {
		log.Fatalf("Error reading config: %v", err)
	}

	seed := con.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	x, q, lo, inv := synthesize(con, seed)

	strategies := []string{con.Strategy}
	if con.Validate {
		strategies = []string{}
		for _, s := range spread.All() {
			strategies = append(strategies, s.Name())
		}
	}

	grids := map[string][]float64{}
	rows := []perf.Row{}
	for _, strategy := range strategies {
		grid, stats := run(con, strategy, x, q, lo, inv)
		grids[strategy] = grid
		rows = append(rows, stats.ToRow(strategy))

		fmt.Printf("%s:\n%v\n", strategy, stats)
	}

	if con.Validate {
		ref := grids[strategies[0]]
		for _, strategy := range strategies[1:] {
			if !floats.EqualApprox(ref, grids[strategy], 1e-5) {
				log.Fatalf("Strategy %s disagrees with %s.",
					strategy, strategies[0])
			}
		}
		fmt.Println("All strategies agree.")
	}

	if con.TimingFile != "" {
		if err := perf.WriteCSV(con.TimingFile, rows); err != nil {
			log.Fatalf("Error writing timing file: %v", err)
		}
	}
	if con.BrickFile != "" {
		last := strategies[len(strategies)-1]
		local := geom.CellBounds{
			Width: [3]int{con.GridX, con.GridY, con.GridZ},
		}
		ext := local.Pad((con.Order + 1) / 2)
		err := io.WriteBrick(con.BrickFile, con.Order, ext, grids[last])
		if err != nil {
			log.Fatalf("Error writing brick snapshot: %v", err)
		}
	}
}

// synthesize creates a uniform particle set spanning the local box.
func synthesize(con *io.SpreadConfig, seed int64,
) (x []geom.Vec, q []float64, lo, inv geom.Vec) {
	maxDim := con.GridX
	if con.GridY > maxDim {
		maxDim = con.GridY
	}
	if con.GridZ > maxDim {
		maxDim = con.GridZ
	}
	spacing := con.BoxWidth / float64(maxDim)
	inv = geom.Vec{1 / spacing, 1 / spacing, 1 / spacing}

	dims := [3]int{con.GridX, con.GridY, con.GridZ}
	rng := rand.New(rand.NewSource(seed))
	x = make([]geom.Vec, con.Particles)
	q = make([]float64, con.Particles)
	for i := range x {
		for k := 0; k < 3; k++ {
			x[i][k] = rng.Float64() * spacing * float64(dims[k])
		}
		q[i] = rng.Float64()*2 - 1
	}
	return x, q, geom.Vec{}, inv
}

// run times con.Passes full passes with one strategy and returns the
// final grid along with the timing stats.
func run(con *io.SpreadConfig, strategy string,
	x []geom.Vec, q []float64, lo, inv geom.Vec,
) ([]float64, perf.Stats) {
	m, err := pmesh.NewMesh(pmesh.Options{
		Strategy:     strategy,
		CellCapacity: con.CellCapacity,
		Workers:      con.Workers,
		GroupSize:    con.GroupSize,
		Skip:         con.Skip,
		TimingWindow: con.Passes,
	})
	if err != nil {
		log.Fatalf("Error creating mesh: %v", err)
	}

	n := con.Particles
	local := geom.CellBounds{Width: [3]int{con.GridX, con.GridY, con.GridZ}}
	if _, err := m.Init(n, n, con.Order, local, nil); err != nil {
		log.Fatalf("Error initializing mesh: %v", err)
	}
	fmt.Printf("%s: %d B/atom, %.1f MB of buffers\n", strategy,
		m.BytesPerAtom(), float64(m.HostMemoryUsage())/(1<<20))

	for pass := 0; pass < con.Passes; pass++ {
		code, err := m.Compute(pass, n, n, x, nil, q, lo, inv)
		if err != nil {
			log.Fatalf("Pass %d failed: %v", pass, err)
		}
		if code != brick.ErrNone {
			log.Fatalf("Pass %d failed: %v.", pass, code)
		}
	}

	// Spreading must conserve the total charge.
	spacing := 1 / inv[0]
	expected := floats.Sum(q) / (spacing * spacing * spacing)
	sum := floats.Sum(m.Brick())
	if math.Abs(sum-expected) > 1e-6*(math.Abs(expected)+1) {
		log.Fatalf("%s: grid sums to %g, expected %g.",
			strategy, sum, expected)
	}

	grid := append([]float64{}, m.Brick()...)
	return grid, m.Timings()
}
