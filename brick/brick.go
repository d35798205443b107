/*package brick owns the buffers shared by a charge spreading pass: the
charge grid itself (the "brick"), the per-cell atom count and index
lists, mirrors of the caller's particle arrays, and the pass error flag.

The brick and the per-cell counters are the only state mutated
concurrently by spreading workers, so their updates go through the
atomic helpers below. Everything else is written single-threaded between
passes.
*/
package brick

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/phil-mansfield/pmesh/geom"
)

// ErrorCode classifies the failures a pass can hit. Workers fold codes
// into the shared flag with RecordError and the orchestrator reads the
// flag once after the pass.
type ErrorCode int32

const (
	ErrNone ErrorCode = iota
	// ErrOutOfDomain means a particle mapped outside the local grid.
	// This indicates upstream decomposition or integration problems and
	// is fatal for the step.
	ErrOutOfDomain
	// ErrOverflow means a cell was assigned more atoms than its list can
	// hold. The pass can be rerun with a larger capacity.
	ErrOverflow
)

func (e ErrorCode) String() string {
	switch e {
	case ErrNone:
		return "none"
	case ErrOutOfDomain:
		return "particle outside local domain"
	case ErrOverflow:
		return "cell atom list overflow"
	}
	return fmt.Sprintf("unknown error code %d", int32(e))
}

// Buffers owns every array a spreading pass touches. All slices are
// reallocated only when a Resize call finds them too small.
type Buffers struct {
	// Rho is the charge brick, one value per point of the extended
	// (local plus ghost halo) region. Concurrent writers must go through
	// AddFloat.
	Rho []float64
	// Counts holds the number of atoms assigned to each local cell.
	Counts []int32
	// Atoms holds the indices of the atoms assigned to each local cell,
	// CellCap slots per cell.
	Atoms []int32

	// Mirrors of the caller's particle arrays for the current pass.
	X    []geom.Vec
	Q    []float64
	Type []int32

	// Local spans the cells of the local subdomain and Extended spans
	// the brick including the ghost halo.
	Local, Extended *geom.Grid

	// CellCap is the capacity of each cell's atom list.
	CellCap int

	// MaxBytes caps total allocation. Zero means no cap. A Resize that
	// would exceed the cap fails and leaves the existing buffers intact.
	MaxBytes int

	errFlag int32
}

// NewBuffers returns an empty Buffers with the given per-cell capacity
// and allocation cap.
func NewBuffers(cellCap, maxBytes int) *Buffers {
	if cellCap < 1 {
		cellCap = 1
	}
	return &Buffers{CellCap: cellCap, MaxBytes: maxBytes}
}

// Resize grows the buffers to hold nall mirrored atoms and the given
// local and extended grid regions. The extended region must surround
// the local one with a halo wide enough for an order-point stencil
// centered anywhere inside the local box. Buffers only ever grow: a
// call which fits in the current allocation reuses it. On failure the
// previous buffers remain valid.
func (b *Buffers) Resize(
	nall, order int, local, extended geom.CellBounds,
) error {
	if !extended.Contains(local.Pad((order + 1) / 2)) {
		return fmt.Errorf(
			"extended region %v cannot hold an order %d halo "+
				"around local region %v",
			extended, order, local,
		)
	}

	nCells := local.PointCount()
	nPts := extended.PointCount()

	need := 8*nPts + 4*nCells + 4*nCells*b.CellCap + nall*b.bytesPerAtom()
	if b.MaxBytes > 0 && need > b.MaxBytes {
		return fmt.Errorf(
			"pass needs %d bytes of buffers, but the cap is %d bytes",
			need, b.MaxBytes,
		)
	}

	if nPts > len(b.Rho) {
		b.Rho = make([]float64, nPts)
	}
	if nCells > len(b.Counts) {
		b.Counts = make([]int32, nCells)
	}
	if nCells*b.CellCap > len(b.Atoms) {
		b.Atoms = make([]int32, nCells*b.CellCap)
	}
	if nall > len(b.X) {
		b.X = make([]geom.Vec, nall)
		b.Q = make([]float64, nall)
		b.Type = make([]int32, nall)
	}

	b.Local = geom.NewGrid(local.Origin, local.Width)
	b.Extended = geom.NewGrid(extended.Origin, extended.Width)
	return nil
}

// Mirror copies the caller's particle arrays into the pass mirrors.
// types may be nil.
func (b *Buffers) Mirror(x []geom.Vec, q []float64, types []int32) {
	copy(b.X, x)
	copy(b.Q, q)
	if types != nil {
		copy(b.Type, types)
	}
}

// ZeroPass clears the brick, the cell counters, and the error flag in
// preparation for a new pass.
func (b *Buffers) ZeroPass() {
	b.ZeroRho()
	for i := range b.Counts {
		b.Counts[i] = 0
	}
	atomic.StoreInt32(&b.errFlag, int32(ErrNone))
}

// ZeroRho clears only the brick. Used when respreading already-mapped
// particles.
func (b *Buffers) ZeroRho() {
	for i := range b.Rho {
		b.Rho[i] = 0
	}
}

// AddFloat atomically adds v to the brick value at idx. There is no
// native atomic float add, so the update retries a compare-and-swap
// over the value's bit pattern until it lands. The loop is lock-free:
// a failed swap means some other worker's add succeeded.
func (b *Buffers) AddFloat(idx int, v float64) {
	p := (*uint64)(unsafe.Pointer(&b.Rho[idx]))
	for {
		old := atomic.LoadUint64(p)
		upd := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(p, old, upd) {
			return
		}
	}
}

// RecordError folds code into the pass error flag, keeping the most
// severe code seen so far rather than the last one written.
func (b *Buffers) RecordError(code ErrorCode) {
	for {
		old := atomic.LoadInt32(&b.errFlag)
		if old >= int32(code) {
			return
		}
		if atomic.CompareAndSwapInt32(&b.errFlag, old, int32(code)) {
			return
		}
	}
}

// PassError returns the most severe error recorded since the last
// ZeroPass.
func (b *Buffers) PassError() ErrorCode {
	return ErrorCode(atomic.LoadInt32(&b.errFlag))
}

// Brick returns the live portion of the charge grid, one value per
// point of the extended region.
func (b *Buffers) Brick() []float64 {
	if b.Extended == nil {
		return nil
	}
	return b.Rho[:b.Extended.Volume]
}

func (b *Buffers) bytesPerAtom() int {
	// position + charge + type mirrors, plus one atom list slot.
	return 3*8 + 8 + 4 + 4
}

// BytesPerAtom returns the number of buffer bytes attributable to each
// mirrored atom, for capacity planning by the caller.
func (b *Buffers) BytesPerAtom() int { return b.bytesPerAtom() }

// HostMemoryUsage returns the total bytes currently allocated across all
// buffers.
func (b *Buffers) HostMemoryUsage() int {
	return 8*len(b.Rho) + 4*len(b.Counts) + 4*len(b.Atoms) +
		24*len(b.X) + 8*len(b.Q) + 4*len(b.Type)
}
