package spread

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Validate respreads the already-mapped particles once per strategy and
// checks that every grid agrees with the first to within tol relative
// tolerance. The strategies differ only in work partitioning, so any
// disagreement beyond accumulation-order noise is a bug. The brick is
// left holding the last strategy's grid.
func Validate(p *Pass, spreaders []Spreader, tol float64) error {
	var ref []float64
	for si, s := range spreaders {
		p.Buf.ZeroRho()
		if err := s.Spread(p); err != nil {
			return fmt.Errorf("strategy %q failed: %v", s.Name(), err)
		}

		grid := p.Buf.Brick()
		if si == 0 {
			ref = append(ref[:0], grid...)
			continue
		}
		if !floats.EqualApprox(ref, grid, tol) {
			return fmt.Errorf(
				"strategy %q disagrees with %q beyond tolerance %g",
				s.Name(), spreaders[0].Name(), tol,
			)
		}
	}
	return nil
}

// All returns every spreading strategy, in the order they should be
// cross-validated.
func All() []Spreader {
	return []Spreader{Scatter{}, TiledGather{}, ResequencedScatter{}}
}
