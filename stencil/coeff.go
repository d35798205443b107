package stencil

import (
	"math"
)

// Compute generates the canonical charge-assignment coefficients for the
// given order. The polynomials are built by repeatedly convolving the
// top-hat assignment function with itself, which guarantees that the
// weights at any displacement sum to exactly one.
func Compute(order int) (*Table, error) {
	if order < MinOrder || order > MaxOrder {
		return New(order, nil)
	}

	// a[l][k] with k in [-order, order], stored with an offset of order.
	span := 2*order + 1
	a := make([]float64, order*span)
	idx := func(l, k int) int { return l*span + k + order }

	a[idx(0, 0)] = 1
	for j := 1; j < order; j++ {
		for k := -j; k <= j; k += 2 {
			s := 0.0
			for l := 0; l < j; l++ {
				a[idx(l+1, k)] = (a[idx(l, k+1)] - a[idx(l, k-1)]) /
					float64(l+1)
				s += math.Pow(0.5, float64(l+1)) *
					(a[idx(l, k-1)] + math.Pow(-1, float64(l))*a[idx(l, k+1)]) /
					float64(l+1)
			}
			a[idx(0, k)] = s
		}
	}

	coeffs := make([]float64, order*order)
	m := 0
	for k := -(order - 1); k <= order-1; k += 2 {
		for l := 0; l < order; l++ {
			coeffs[l*order+m] = a[idx(l, k)]
		}
		m++
	}

	return New(order, coeffs)
}
