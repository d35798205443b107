/*package io reads the tuning configuration for spreading runs and
writes compressed snapshots of the charge brick for inspection.
*/
package io

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

const ExampleSpreadFile = `[Spread]

#######################
# Required Parameters #
#######################

# The number of grid points along each axis of the local subdomain.
GridX = 32
GridY = 32
GridZ = 32

# The physical extent of the local box along its longest axis.
BoxWidth = 16.0

# The interpolation order of the charge-assignment stencil. Must be in
# the range [2, 7]. Larger orders are more accurate and touch more grid
# points per particle.
Order = 5

# The number of particles to synthesize for the run.
Particles = 100000

#######################
# Optional Parameters #
#######################

# The spreading strategy. One of:
# [ scatter | tiled | rescatter ]
# All three produce the same grid; they differ in how the work is cut up
# and how much the workers fight over the same grid points.
# Strategy = scatter

# The capacity of each cell's atom list. A pass whose densest cell
# exceeds this fails with an overflow code and should be rerun with a
# larger value.
# CellCapacity = 64

# The number of concurrent workers. 0 means one per CPU.
# Workers = 0

# The number of workers cooperating in one tiled group.
# GroupSize = 8

# The resequencing stride used to decorrelate concurrent writers.
# Values below 2 disable resequencing.
# Skip = 17

# The number of timed passes to run per strategy.
# Passes = 10

# Seed for particle synthesis. 0 seeds from the current time.
# Seed = 42

# If set, run all strategies on the same input and cross-check their
# grids before timing.
# Validate = true

# If set, per-strategy timing statistics are written here as CSV.
# TimingFile = timing.csv

# If set, the final brick is written here as a compressed snapshot.
# BrickFile = brick.pmb`

// SpreadConfig holds the parameters of a spreading run.
type SpreadConfig struct {
	GridX, GridY, GridZ int
	BoxWidth            float64
	Order               int
	Particles           int

	Strategy     string
	CellCapacity int
	Workers      int
	GroupSize    int
	Skip         int
	Passes       int
	Seed         int64
	Validate     bool
	TimingFile   string
	BrickFile    string
}

type spreadWrapper struct {
	Spread SpreadConfig
}

// DefaultSpreadConfig returns a SpreadConfig with every optional
// parameter set to its default.
func DefaultSpreadConfig() SpreadConfig {
	return SpreadConfig{
		Strategy:     "scatter",
		CellCapacity: 64,
		GroupSize:    8,
		Skip:         17,
		Passes:       10,
	}
}

// ReadSpreadConfig parses a [Spread] config file.
func ReadSpreadConfig(fname string) (*SpreadConfig, error) {
	wrap := spreadWrapper{DefaultSpreadConfig()}
	if err := gcfg.ReadFileInto(&wrap, fname); err != nil {
		return nil, err
	}

	con := wrap.Spread
	if err := con.validate(); err != nil {
		return nil, fmt.Errorf("%s: %v", fname, err)
	}
	return &con, nil
}

func (con *SpreadConfig) validate() error {
	switch {
	case con.GridX < 1 || con.GridY < 1 || con.GridZ < 1:
		return fmt.Errorf("grid dimensions (%d, %d, %d) must be positive",
			con.GridX, con.GridY, con.GridZ)
	case con.BoxWidth <= 0:
		return fmt.Errorf("BoxWidth = %g must be positive", con.BoxWidth)
	case con.Particles < 1:
		return fmt.Errorf("Particles = %d must be positive", con.Particles)
	case con.CellCapacity < 1:
		return fmt.Errorf("CellCapacity = %d must be positive",
			con.CellCapacity)
	case con.Passes < 1:
		return fmt.Errorf("Passes = %d must be positive", con.Passes)
	}
	return nil
}
