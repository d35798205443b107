package stencil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeOrderBounds(t *testing.T) {
	for _, order := range []int{-1, 0, 1, MaxOrder + 1} {
		if _, err := Compute(order); err == nil {
			t.Errorf("Compute(%d) succeeded", order)
		}
	}
	for order := MinOrder; order <= MaxOrder; order++ {
		if _, err := Compute(order); err != nil {
			t.Errorf("Compute(%d) failed: %v", order, err)
		}
	}
}

func TestWeightsSumToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for order := MinOrder; order <= MaxOrder; order++ {
		tab, err := Compute(order)
		if err != nil {
			t.Fatalf("Compute(%d) failed: %v", order, err)
		}

		w := make([]float64, order)
		for i := 0; i < 100; i++ {
			d := rng.Float64() - 0.5
			tab.Weights(d, w)

			sum := 0.0
			for _, wk := range w {
				sum += wk
				if wk < -1e-12 {
					t.Errorf("order %d: negative weight %g at d=%g",
						order, wk, d)
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-12,
				"order %d weights at d=%g", order, d)
		}
	}
}

func TestOrder2MatchesCloudInCell(t *testing.T) {
	tab, err := Compute(2)
	if err != nil {
		t.Fatal(err)
	}

	w := make([]float64, 2)
	for _, u := range []float64{0.0, 0.1, 0.25, 0.5, 0.75, 0.99} {
		n, d := tab.Center(u)
		tab.Weights(d, w)

		frac := u - float64(n)
		assert.InDelta(t, 1-frac, w[0], 1e-12, "lower weight at u=%g", u)
		assert.InDelta(t, frac, w[1], 1e-12, "upper weight at u=%g", u)
	}
}

func TestCenter(t *testing.T) {
	table := []struct {
		order int
		u     float64
		n     int
		d     float64
	}{
		{2, 3.25, 3, 0.25},
		{2, 3.75, 3, -0.25},
		{3, 3.25, 3, -0.25},
		{3, 3.75, 4, 0.25},
		{5, 0.5, 1, 0.5},
		{4, 0.0, 0, 0.5},
	}

	for i, test := range table {
		tab, err := Compute(test.order)
		if err != nil {
			t.Fatal(err)
		}
		n, d := tab.Center(test.u)
		if n != test.n {
			t.Errorf("%d) Center(%g) n = %d, expected %d",
				i, test.u, n, test.n)
		}
		assert.InDelta(t, test.d, d, 1e-12, "%d) Center(%g) d", i, test.u)
	}
}

func TestStencilSpan(t *testing.T) {
	for order := MinOrder; order <= MaxOrder; order++ {
		tab, _ := Compute(order)
		if span := tab.Nupper() - tab.Nlower() + 1; span != order {
			t.Errorf("order %d: stencil spans %d points", order, span)
		}
	}
}

func TestNewRejectsBadCoeffs(t *testing.T) {
	if _, err := New(3, make([]float64, 8)); err == nil {
		t.Errorf("New accepted a short coefficient slice")
	}
}

func TestReadRoundTrip(t *testing.T) {
	order := 5
	tab, err := Compute(order)
	if err != nil {
		t.Fatal(err)
	}

	fname := filepath.Join(t.TempDir(), "rho_coeff.txt")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprintf(f, "# order %d assignment coefficients\n", order)
	coeffs := tab.Coeffs()
	for l := 0; l < order; l++ {
		for k := 0; k < order; k++ {
			fmt.Fprintf(f, " %.17g", coeffs[l*order+k])
		}
		fmt.Fprintf(f, "\n")
	}
	f.Close()

	tab2, err := Read(fname, order)
	if err != nil {
		t.Fatal(err)
	}

	c1, c2 := tab.Coeffs(), tab2.Coeffs()
	for i := range c1 {
		assert.InDelta(t, c1[i], c2[i], 1e-15, "coefficient %d", i)
	}
}
