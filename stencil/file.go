package stencil

import (
	"fmt"

	"github.com/phil-mansfield/table"
)

// Read loads a coefficient table of the given order from a whitespace
// separated text file. The file must contain order columns, one per
// stencil point, and order rows, one per polynomial degree in increasing
// order. Lines starting with # are comments.
func Read(fname string, order int) (*Table, error) {
	if order < MinOrder || order > MaxOrder {
		return New(order, nil)
	}

	colIdxs := make([]int, order)
	for k := range colIdxs {
		colIdxs[k] = k
	}

	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, err
	}

	coeffs := make([]float64, order*order)
	for k, col := range cols {
		if len(col) != order {
			return nil, fmt.Errorf(
				"%s: column %d has %d rows, expected %d",
				fname, k, len(col), order,
			)
		}
		for l := 0; l < order; l++ {
			coeffs[l*order+k] = col[l]
		}
	}

	return New(order, coeffs)
}
