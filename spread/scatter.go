package spread

import (
	"golang.org/x/sync/errgroup"
)

// Scatter walks the cell atom lists with one worker per stride of
// cells, computing each particle's full stencil and adding it into the
// brick through the atomic accumulator. Simple and correct, but
// contention-bound when many overlapping stencils land on the same
// points.
type Scatter struct{}

func (Scatter) Name() string { return "scatter" }

func (Scatter) Spread(p *Pass) error { return scatterCells(p, false) }

// ResequencedScatter is Scatter with the worker-to-cell assignment run
// through the stride permutation, so workers executing in lockstep
// deposit into well-separated regions of the brick. The grid it
// produces is identical; only the retry rate of the accumulator
// changes.
type ResequencedScatter struct{}

func (ResequencedScatter) Name() string { return "rescatter" }

func (ResequencedScatter) Spread(p *Pass) error {
	return scatterCells(p, true)
}

func scatterCells(p *Pass, reseq bool) error {
	buf := p.Buf
	order := p.Tab.Order
	nCells := buf.Local.Volume
	workers := p.workers()

	skip := 1
	if reseq {
		skip = CoprimeSkip(nCells, p.Skip)
	}

	g := &errgroup.Group{}
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			wx := make([]float64, order)
			wy := make([]float64, order)
			wz := make([]float64, order)

			for i := w; i < nCells; i += workers {
				ci := i
				if reseq {
					ci = Resequence(i, nCells, skip)
				}

				count := int(buf.Counts[ci])
				for s := 0; s < count; s++ {
					ai := int(buf.Atoms[ci*buf.CellCap+s])
					p.depositAtom(ai, wx, wy, wz)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// depositAtom adds atom ai's charge, scaled by the inverse cell volume,
// onto the order^3 stencil of brick points around it.
func (p *Pass) depositAtom(ai int, wx, wy, wz []float64) {
	buf, tab := p.Buf, p.Tab
	order, nlower := tab.Order, tab.Nlower()
	ext := buf.Extended

	u := p.gridCoord(ai)
	cnx, dx := tab.Center(u[0])
	cny, dy := tab.Center(u[1])
	cnz, dz := tab.Center(u[2])

	tab.Weights(dx, wx)
	tab.Weights(dy, wy)
	tab.Weights(dz, wz)

	q := buf.Q[ai] * p.chargeScale()
	for n := 0; n < order; n++ {
		z0 := q * wz[n]
		pz := cnz + nlower + n
		for m := 0; m < order; m++ {
			y0 := z0 * wy[m]
			base := ext.Idx(cnx+nlower, cny+nlower+m, pz)
			for l := 0; l < order; l++ {
				buf.AddFloat(base+l, y0*wx[l])
			}
		}
	}
}
