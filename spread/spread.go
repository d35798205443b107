/*package spread maps particles into grid cells and deposits their
charge onto the surrounding stencil of brick points. The mapping pass
and all three spreading strategies operate on the buffers owned by the
brick package and are dispatched as groups of data-parallel workers.
*/
package spread

import (
	"fmt"
	"runtime"

	"github.com/phil-mansfield/pmesh/brick"
	"github.com/phil-mansfield/pmesh/geom"
	"github.com/phil-mansfield/pmesh/stencil"
)

// Pass bundles the shared state of one mapping and spreading pass. It
// holds no per-particle state of its own: every invocation is a pure
// function from the mirrored particle arrays to grid deltas.
type Pass struct {
	Buf *brick.Buffers
	Tab *stencil.Table

	// Lo is the lower corner of the local subdomain and Inv the inverse
	// grid spacing per axis.
	Lo, Inv geom.Vec

	// Nlocal is the number of owned particles to map and deposit.
	Nlocal int

	// Workers is the number of concurrent workers per phase. Zero means
	// one per CPU.
	Workers int

	// GroupSize is the number of workers cooperating in one tiled
	// group. Zero picks a default.
	GroupSize int

	// Skip is the resequencing stride used by MapParticles and
	// ResequencedScatter. Values below 2 disable resequencing.
	Skip int
}

// A Spreader deposits the charge of every mapped particle onto the
// brick. Implementations partition the work differently but must
// produce the same grid up to floating point accumulation error.
type Spreader interface {
	Name() string
	Spread(p *Pass) error
}

// ByName returns the spreading strategy matching a config name.
func ByName(name string) (Spreader, error) {
	switch name {
	case "scatter":
		return Scatter{}, nil
	case "tiled":
		return TiledGather{}, nil
	case "rescatter":
		return ResequencedScatter{}, nil
	}
	return nil, fmt.Errorf("unknown spreading strategy %q", name)
}

func (p *Pass) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

func (p *Pass) groupSize() int {
	gs := p.GroupSize
	if gs < 1 {
		gs = 8
	}
	if w := p.workers(); gs > w {
		gs = w
	}
	return gs
}

// chargeScale converts a charge into a grid density contribution. The
// product of the inverse spacings is one over the cell volume.
func (p *Pass) chargeScale() float64 {
	return p.Inv[0] * p.Inv[1] * p.Inv[2]
}

// gridCoord converts the position of mirrored atom ai into grid
// coordinates, where integer values sit on grid points of the local
// region.
func (p *Pass) gridCoord(ai int) (u geom.Vec) {
	x := p.Buf.X[ai]
	for k := 0; k < 3; k++ {
		u[k] = (x[k]-p.Lo[k])*p.Inv[k] + float64(p.Buf.Local.Origin[k])
	}
	return u
}
