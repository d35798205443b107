package spread

import (
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/phil-mansfield/pmesh/brick"
)

// MapParticles assigns each owned particle to the local cell containing
// it, building the per-cell atom lists consumed by the spreading
// strategies. Out-of-domain particles record ErrOutOfDomain and are
// skipped. A cell already at capacity records ErrOverflow and the
// reservation is given back, so its counter never exceeds the capacity.
//
// Worker-to-particle assignment goes through the stride permutation so
// that workers running in lockstep hit different cells. Insertion order
// within a cell is unspecified.
func (p *Pass) MapParticles() error {
	buf := p.Buf
	local := buf.Local
	n := p.Nlocal
	workers := p.workers()
	skip := CoprimeSkip(n, p.Skip)

	g := &errgroup.Group{}
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < n; i += workers {
				ai := Resequence(i, n, skip)
				u := p.gridCoord(ai)

				cx := int(math.Floor(u[0]))
				cy := int(math.Floor(u[1]))
				cz := int(math.Floor(u[2]))

				idx, ok := local.IdxCheck(cx, cy, cz)
				if !ok {
					buf.RecordError(brick.ErrOutOfDomain)
					continue
				}

				slot := atomic.AddInt32(&buf.Counts[idx], 1) - 1
				if int(slot) >= buf.CellCap {
					buf.RecordError(brick.ErrOverflow)
					atomic.AddInt32(&buf.Counts[idx], -1)
					continue
				}
				buf.Atoms[idx*buf.CellCap+int(slot)] = int32(ai)
			}
			return nil
		})
	}
	return g.Wait()
}
