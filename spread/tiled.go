package spread

import (
	"golang.org/x/sync/errgroup"

	"github.com/phil-mansfield/pmesh/stencil"
)

// TiledGather deposits charge by destination instead of by source.
// Worker groups own disjoint (y, z) columns of the brick. Each group
// stages the coefficient table into a shared scratch buffer, then every
// member gathers contributions from all cells whose stencils can reach
// its columns into a private column buffer, carrying partial sums along
// the x axis, and finally writes each finished column back exactly
// once. The brick is never touched by an atomic operation: barriers
// separate the load, accumulate, and writeback phases, and column
// ownership makes the writeback exclusive.
type TiledGather struct{}

func (TiledGather) Name() string { return "tiled" }

func (TiledGather) Spread(p *Pass) error {
	buf, tab := p.Buf, p.Tab
	order, nlower, nupper := tab.Order, tab.Nlower(), tab.Nupper()
	ext, local := buf.Extended, buf.Local

	nCols := ext.Width[1] * ext.Width[2]
	workers := p.workers()
	groupSize := p.groupSize()
	nGroups := (workers + groupSize - 1) / groupSize

	qScale := p.chargeScale()

	g := &errgroup.Group{}
	for gi := 0; gi < nGroups; gi++ {
		members := groupSize
		if rest := workers - gi*groupSize; rest < members {
			members = rest
		}
		colLo := gi * nCols / nGroups
		colHi := (gi + 1) * nCols / nGroups

		scratch := make([]float64, order*order)
		bar := newBarrier(members)

		for m := 0; m < members; m++ {
			m := m
			g.Go(func() error {
				// Load phase: members cooperatively stage the
				// coefficient rows into the group scratch buffer.
				coeffs := tab.Coeffs()
				for l := m; l < order; l += members {
					copy(scratch[l*order:(l+1)*order],
						coeffs[l*order:(l+1)*order])
				}
				bar.Wait()

				owned := []int{}
				for c := colLo + m; c < colHi; c += members {
					owned = append(owned, c)
				}

				wx := make([]float64, order)
				wy := make([]float64, order)
				wz := make([]float64, order)
				nx := ext.Width[0]
				colBuf := make([]float64, len(owned)*nx)

				// Accumulate phase: gather every contribution that can
				// reach an owned column.
				for oi, c := range owned {
					py := c%ext.Width[1] + ext.Origin[1]
					pz := c/ext.Width[1] + ext.Origin[2]
					col := colBuf[oi*nx : (oi+1)*nx]

					cyLo, cyHi := clampWindow(
						py-nupper-1, py-nlower,
						local.Origin[1], local.Origin[1]+local.Width[1],
					)
					czLo, czHi := clampWindow(
						pz-nupper-1, pz-nlower,
						local.Origin[2], local.Origin[2]+local.Width[2],
					)

					for cz := czLo; cz < czHi; cz++ {
						for cy := cyLo; cy < cyHi; cy++ {
							for cx := local.Origin[0]; cx < local.Origin[0]+local.Width[0]; cx++ {
								ci := local.Idx(cx, cy, cz)
								count := int(buf.Counts[ci])
								for s := 0; s < count; s++ {
									ai := int(buf.Atoms[ci*buf.CellCap+s])
									gatherAtom(
										p, ai, py, pz, qScale, scratch,
										wx, wy, wz, col,
									)
								}
							}
						}
					}
				}
				bar.Wait()

				// Writeback phase: each owned column lands in the brick
				// exactly once.
				for oi, c := range owned {
					py := c%ext.Width[1] + ext.Origin[1]
					pz := c/ext.Width[1] + ext.Origin[2]
					base := ext.Idx(ext.Origin[0], py, pz)
					copy(buf.Rho[base:base+nx], colBuf[oi*nx:(oi+1)*nx])
				}
				return nil
			})
		}
	}
	return g.Wait()
}

// gatherAtom adds atom ai's contribution to the column at (py, pz) into
// col, one entry per x point of the extended region.
func gatherAtom(
	p *Pass, ai, py, pz int, qScale float64,
	scratch, wx, wy, wz, col []float64,
) {
	tab := p.Tab
	order, nlower := tab.Order, tab.Nlower()

	u := p.gridCoord(ai)
	cnx, dx := tab.Center(u[0])
	cny, dy := tab.Center(u[1])
	cnz, dz := tab.Center(u[2])

	ky := py - cny - nlower
	kz := pz - cnz - nlower
	if ky < 0 || ky >= order || kz < 0 || kz >= order {
		return
	}

	stencil.Horner(order, scratch, dx, wx)
	stencil.Horner(order, scratch, dy, wy)
	stencil.Horner(order, scratch, dz, wz)

	v := p.Buf.Q[ai] * qScale * wy[ky] * wz[kz]
	x0 := cnx + nlower - p.Buf.Extended.Origin[0]
	for l := 0; l < order; l++ {
		col[x0+l] += v * wx[l]
	}
}

// clampWindow intersects the closed window [lo, hi] with the half-open
// cell range [min, max), returning a half-open result.
func clampWindow(lo, hi, min, max int) (int, int) {
	if lo < min {
		lo = min
	}
	if hi+1 > max {
		hi = max - 1
	}
	return lo, hi + 1
}
