package geom

import (
	"testing"
)

func TestIdxCoordsRoundTrip(t *testing.T) {
	table := []struct {
		origin, width [3]int
	}{
		{[3]int{0, 0, 0}, [3]int{8, 8, 8}},
		{[3]int{-2, -2, -2}, [3]int{12, 12, 12}},
		{[3]int{-3, -1, -2}, [3]int{10, 6, 9}},
	}

	for i, test := range table {
		g := NewGrid(test.origin, test.width)
		if g.Volume != test.width[0]*test.width[1]*test.width[2] {
			t.Errorf("%d) Volume = %d", i, g.Volume)
		}

		for idx := 0; idx < g.Volume; idx++ {
			x, y, z := g.Coords(idx)
			if !g.BoundsCheck(x, y, z) {
				t.Fatalf("%d) Coords(%d) = (%d %d %d) out of bounds",
					i, idx, x, y, z)
			}
			if back := g.Idx(x, y, z); back != idx {
				t.Fatalf("%d) Idx(Coords(%d)) = %d", i, idx, back)
			}
		}
	}
}

func TestBoundsCheck(t *testing.T) {
	g := NewGrid([3]int{-2, -2, -2}, [3]int{10, 10, 10})

	table := []struct {
		x, y, z int
		ok      bool
	}{
		{0, 0, 0, true},
		{-2, -2, -2, true},
		{7, 7, 7, true},
		{8, 0, 0, false},
		{0, 8, 0, false},
		{0, 0, 8, false},
		{-3, 0, 0, false},
		{0, -3, 0, false},
		{0, 0, -3, false},
	}

	for i, test := range table {
		if ok := g.BoundsCheck(test.x, test.y, test.z); ok != test.ok {
			t.Errorf("%d) BoundsCheck(%d %d %d) = %v", i,
				test.x, test.y, test.z, ok)
		}
		idx, ok := g.IdxCheck(test.x, test.y, test.z)
		if ok != test.ok {
			t.Errorf("%d) IdxCheck ok = %v", i, ok)
		}
		if !ok && idx != -1 {
			t.Errorf("%d) IdxCheck idx = %d for invalid point", i, idx)
		}
	}
}

func TestPadContains(t *testing.T) {
	local := CellBounds{[3]int{0, 0, 0}, [3]int{16, 12, 8}}
	ext := local.Pad(3)

	if ext.Origin != [3]int{-3, -3, -3} {
		t.Errorf("Pad origin = %v", ext.Origin)
	}
	if ext.Width != [3]int{22, 18, 14} {
		t.Errorf("Pad width = %v", ext.Width)
	}
	if !ext.Contains(local) {
		t.Errorf("extended bounds do not contain local bounds")
	}
	if local.Contains(ext) {
		t.Errorf("local bounds contain extended bounds")
	}
	if n := ext.PointCount(); n != 22*18*14 {
		t.Errorf("PointCount = %d", n)
	}

	// These methods must be callable on returned values directly.
	if n := local.Pad(3).PointCount(); n != 22*18*14 {
		t.Errorf("chained PointCount = %d", n)
	}
	if !local.Pad(3).Contains(local) {
		t.Errorf("chained Contains failed")
	}
}
