/*package geom provides primitives for reasoning about 1D slices as 3D
grids spanning the local and halo-extended regions of a simulation
subdomain.
*/
package geom

// Vec is a cartesian position or a per-axis scale factor.
type Vec [3]float64

// CellBounds represents a bounding box aligned to grid points. Origins
// may be negative for boxes which extend into the ghost halo.
type CellBounds struct {
	Origin, Width [3]int
}

// Grid provides an interface for reasoning over a 1D slice as if it were
// a 3D grid spanning a CellBounds.
type Grid struct {
	CellBounds
	Length, Area, Volume int
	uBounds              [3]int
}

// NewGrid returns a new Grid instance.
func NewGrid(origin, width [3]int) *Grid {
	g := &Grid{}
	g.Init(origin, width)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(origin, width [3]int) {
	g.Origin = origin
	g.Width = width

	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]

	for i := 0; i < 3; i++ {
		g.uBounds[i] = g.Origin[i] + g.Width[i]
	}
}

// Idx returns the grid index corresponding to a set of coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return ((x - g.Origin[0]) + (y-g.Origin[1])*g.Length +
		(z-g.Origin[2])*g.Area)
}

// IdxCheck returns an index and true if the given coordinates are valid
// and false otherwise.
func (g *Grid) IdxCheck(x, y, z int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y, z) {
		return -1, false
	}

	return g.Idx(x, y, z), true
}

// BoundsCheck returns true if the given coordinates are within the Grid
// and false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (g.Origin[0] <= x && g.Origin[1] <= y && g.Origin[2] <= z) &&
		(x < g.uBounds[0] && y < g.uBounds[1] && z < g.uBounds[2])
}

// Coords returns the x, y, z coordinates of a point from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx%g.Length + g.Origin[0]
	y = (idx%g.Area)/g.Length + g.Origin[1]
	z = idx/g.Area + g.Origin[2]
	return x, y, z
}

// Pad returns a CellBounds grown by h points on every side. It is used
// to derive the halo-extended region from the local one.
func (cb CellBounds) Pad(h int) CellBounds {
	out := CellBounds{}
	for i := 0; i < 3; i++ {
		out.Origin[i] = cb.Origin[i] - h
		out.Width[i] = cb.Width[i] + 2*h
	}
	return out
}

// Contains returns true if cb fully contains cb2.
func (cb CellBounds) Contains(cb2 CellBounds) bool {
	for i := 0; i < 3; i++ {
		if cb2.Origin[i] < cb.Origin[i] ||
			cb2.Origin[i]+cb2.Width[i] > cb.Origin[i]+cb.Width[i] {
			return false
		}
	}
	return true
}

// PointCount returns the number of grid points contained in cb.
func (cb CellBounds) PointCount() int {
	return cb.Width[0] * cb.Width[1] * cb.Width[2]
}
