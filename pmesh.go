/*package pmesh spreads point charges onto a regular 3D grid for the
reciprocal-space half of a particle-mesh electrostatics solve. The
caller hands it positions, charges, and the local box geometry each
step; pmesh bins the particles into cells, evaluates the polynomial
assignment stencil, and accumulates charge density into the
halo-extended grid ("the brick") with one of three data-parallel
strategies.

The surrounding simulator owns everything else: the field solve that
consumes the brick, short-range forces, domain decomposition, and ghost
exchange.
*/
package pmesh

import (
	"fmt"

	"github.com/phil-mansfield/pmesh/brick"
	"github.com/phil-mansfield/pmesh/geom"
	"github.com/phil-mansfield/pmesh/perf"
	"github.com/phil-mansfield/pmesh/spread"
	"github.com/phil-mansfield/pmesh/stencil"
)

// Options tunes a Mesh. The zero value is usable.
type Options struct {
	// Strategy names the spreading strategy: scatter, tiled, or
	// rescatter. Empty means scatter.
	Strategy string
	// CellCapacity is the atom list capacity of each cell. Zero picks a
	// default.
	CellCapacity int
	// Workers and GroupSize control the worker dispatch. Zero values
	// pick defaults.
	Workers, GroupSize int
	// Skip is the resequencing stride. Zero picks a default.
	Skip int
	// MaxBytes caps buffer allocation. Zero means no cap.
	MaxBytes int
	// TimingWindow is the number of passes timing statistics average
	// over. Zero picks a default.
	TimingWindow int
}

const (
	defaultCellCapacity = 64
	defaultSkip         = 17
)

// Mesh orchestrates charge spreading passes: resize, zero, map, spread,
// error check, in that order, with per-phase timings accumulated for
// the caller.
type Mesh struct {
	buf *brick.Buffers
	tab *stencil.Table
	spr spread.Spreader
	col *perf.Collector

	order           int
	nallCap         int
	local, extended geom.CellBounds

	workers, groupSize, skip int
	inited                   bool
}

// NewMesh creates a Mesh from opt.
func NewMesh(opt Options) (*Mesh, error) {
	name := opt.Strategy
	if name == "" {
		name = "scatter"
	}
	spr, err := spread.ByName(name)
	if err != nil {
		return nil, err
	}

	cellCap := opt.CellCapacity
	if cellCap < 1 {
		cellCap = defaultCellCapacity
	}
	skip := opt.Skip
	if skip == 0 {
		skip = defaultSkip
	}

	return &Mesh{
		buf:       brick.NewBuffers(cellCap, opt.MaxBytes),
		spr:       spr,
		col:       perf.NewCollector(opt.TimingWindow),
		workers:   opt.Workers,
		groupSize: opt.GroupSize,
		skip:      skip,
	}, nil
}

// Init sets the mesh up for a run over the given local grid region and
// returns the brick, one value per point of the halo-extended region.
// A nil coeff table gets the canonical coefficients for the order. The
// halo is ceil(order/2) points on each side, wide enough to hold every
// stencil contribution from particles inside the local box.
func (m *Mesh) Init(
	nlocal, nall, order int,
	local geom.CellBounds, coeff *stencil.Table,
) ([]float64, error) {
	var err error
	if coeff == nil {
		if coeff, err = stencil.Compute(order); err != nil {
			return nil, err
		}
	}
	if coeff.Order != order {
		return nil, fmt.Errorf(
			"coefficient table has order %d, mesh wants %d",
			coeff.Order, order,
		)
	}

	extended := local.Pad((order + 1) / 2)
	if err := m.buf.Resize(nall, order, local, extended); err != nil {
		return nil, err
	}

	m.tab = coeff
	m.order = order
	m.nallCap = nall
	m.local, m.extended = local, extended
	m.inited = true
	return m.buf.Brick(), nil
}

// Compute runs one full spreading pass. ago is the number of steps
// since the caller last rebuilt its neighbor data: a pass with ago == 0
// rechecks buffer capacity before mapping, as do passes whose atom
// counts outgrew the last allocation. types may be nil.
//
// The returned code is ErrNone on success, ErrOutOfDomain if any
// particle mapped outside the local grid, and ErrOverflow if a cell
// exceeded its atom list capacity. In both failure cases the brick
// contents must be discarded. A non-nil error means an allocation
// failure, which is distinct from the domain codes and recoverable by
// shrinking the problem.
func (m *Mesh) Compute(
	ago, nlocal, nall int,
	x []geom.Vec, types []int32, q []float64,
	lo, inv geom.Vec,
) (brick.ErrorCode, error) {
	if !m.inited {
		return brick.ErrNone, fmt.Errorf("Compute called before Init")
	}

	m.col.StartPass()
	defer m.col.EndPass()

	m.col.StartPhase(perf.PhaseResize)
	if ago == 0 || nall > m.nallCap {
		err := m.buf.Resize(nall, m.order, m.local, m.extended)
		if err != nil {
			return brick.ErrNone, err
		}
		m.nallCap = nall
	}

	m.col.StartPhase(perf.PhaseMirror)
	m.buf.Mirror(x, q, types)

	m.col.StartPhase(perf.PhaseZero)
	m.buf.ZeroPass()

	pass := &spread.Pass{
		Buf: m.buf, Tab: m.tab,
		Lo: lo, Inv: inv,
		Nlocal:  nlocal,
		Workers: m.workers, GroupSize: m.groupSize, Skip: m.skip,
	}

	m.col.StartPhase(perf.PhaseMap)
	if err := pass.MapParticles(); err != nil {
		return brick.ErrNone, err
	}

	// A mapping failure poisons the whole pass, so don't bother
	// spreading a grid that will be thrown away.
	if code := m.buf.PassError(); code != brick.ErrNone {
		return code, nil
	}

	m.col.StartPhase(perf.PhaseSpread)
	if err := m.spr.Spread(pass); err != nil {
		return brick.ErrNone, err
	}

	return m.buf.PassError(), nil
}

// Brick returns the charge grid filled by the last pass.
func (m *Mesh) Brick() []float64 { return m.buf.Brick() }

// ExtendedBounds returns the halo-extended region the brick spans.
func (m *Mesh) ExtendedBounds() geom.CellBounds { return m.extended }

// Order returns the interpolation order the mesh was initialized with.
func (m *Mesh) Order() int { return m.order }

// Strategy returns the name of the spreading strategy in use.
func (m *Mesh) Strategy() string { return m.spr.Name() }

// BytesPerAtom returns the buffer bytes attributable to each mirrored
// atom.
func (m *Mesh) BytesPerAtom() int { return m.buf.BytesPerAtom() }

// HostMemoryUsage returns the total bytes currently held by the mesh's
// buffers.
func (m *Mesh) HostMemoryUsage() int { return m.buf.HostMemoryUsage() }

// Timings returns timing statistics over the recent pass window.
func (m *Mesh) Timings() perf.Stats { return m.col.Stats() }
