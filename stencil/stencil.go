/*package stencil evaluates the separable polynomial weights used to
assign point charges to grid points. A Table holds the coefficients of
the charge-assignment function for a single interpolation order and is
shared read-only across a full spreading pass.
*/
package stencil

import (
	"fmt"
	"math"
)

const (
	// MinOrder and MaxOrder bound the supported interpolation orders.
	MinOrder = 2
	MaxOrder = 7
)

// Table holds the polynomial coefficients of the charge-assignment
// function. coeffs[l*Order + k] is the degree-l coefficient of the
// polynomial attached to the kth stencil point.
type Table struct {
	Order  int
	coeffs []float64
}

// New creates a Table of the given order from caller-supplied
// coefficients. coeffs must have length order*order and is copied.
func New(order int, coeffs []float64) (*Table, error) {
	if order < MinOrder || order > MaxOrder {
		return nil, fmt.Errorf(
			"stencil order %d outside supported range [%d, %d]",
			order, MinOrder, MaxOrder,
		)
	}
	if len(coeffs) != order*order {
		return nil, fmt.Errorf(
			"got %d coefficients for order %d stencil, expected %d",
			len(coeffs), order, order*order,
		)
	}

	t := &Table{Order: order, coeffs: make([]float64, order*order)}
	copy(t.coeffs, coeffs)
	return t, nil
}

// Nlower returns the offset of the first stencil point relative to the
// stencil center.
func (t *Table) Nlower() int { return -(t.Order - 1) / 2 }

// Nupper returns the offset of the last stencil point relative to the
// stencil center.
func (t *Table) Nupper() int { return t.Order / 2 }

// Coeffs returns the backing coefficient slice. Callers must treat it as
// read-only.
func (t *Table) Coeffs() []float64 { return t.coeffs }

// Center returns the stencil center point and the displacement argument
// for a particle at grid coordinate u along one axis. Odd orders center
// the stencil on the nearest grid point, even orders on the midpoint of
// the containing cell, so the displacement always lies in [-1/2, 1/2].
func (t *Table) Center(u float64) (n int, d float64) {
	if t.Order%2 == 1 {
		n = int(math.Floor(u + 0.5))
		return n, float64(n) - u
	}
	n = int(math.Floor(u))
	return n, float64(n) + 0.5 - u
}

// Weights evaluates the assignment function at displacement d, writing
// one weight per stencil point into w. w must have length Order.
func (t *Table) Weights(d float64, w []float64) {
	Horner(t.Order, t.coeffs, d, w)
}

// Horner evaluates the order polynomials stored in coeffs at d by
// Horner's scheme, one per stencil point. It is split out from
// Table.Weights so spreading kernels can evaluate from a scratch copy of
// the coefficients.
func Horner(order int, coeffs []float64, d float64, w []float64) {
	for k := 0; k < order; k++ {
		r := 0.0
		for l := order - 1; l >= 0; l-- {
			r = coeffs[l*order+k] + r*d
		}
		w[k] = r
	}
}
