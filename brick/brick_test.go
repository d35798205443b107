package brick

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phil-mansfield/pmesh/geom"
)

func testBounds(n, halo int) (local, extended geom.CellBounds) {
	local = geom.CellBounds{Origin: [3]int{0, 0, 0}, Width: [3]int{n, n, n}}
	return local, local.Pad(halo)
}

func TestResizeGrowOnly(t *testing.T) {
	b := NewBuffers(8, 0)

	local, ext := testBounds(8, 2)
	if err := b.Resize(100, 4, local, ext); err != nil {
		t.Fatal(err)
	}

	rho, counts, atoms := &b.Rho[0], &b.Counts[0], &b.Atoms[0]
	if len(b.Rho) != ext.PointCount() {
		t.Errorf("len(Rho) = %d, expected %d", len(b.Rho), ext.PointCount())
	}

	// A smaller request must not reallocate.
	local2, ext2 := testBounds(4, 2)
	if err := b.Resize(10, 4, local2, ext2); err != nil {
		t.Fatal(err)
	}
	if &b.Rho[0] != rho || &b.Counts[0] != counts || &b.Atoms[0] != atoms {
		t.Errorf("shrinking Resize reallocated buffers")
	}
	if len(b.Brick()) != ext2.PointCount() {
		t.Errorf("Brick() spans %d points, expected %d",
			len(b.Brick()), ext2.PointCount())
	}

	// A larger one must grow.
	local3, ext3 := testBounds(16, 2)
	if err := b.Resize(1000, 4, local3, ext3); err != nil {
		t.Fatal(err)
	}
	if len(b.Rho) != ext3.PointCount() {
		t.Errorf("len(Rho) = %d after growth", len(b.Rho))
	}
}

func TestResizeRespectsCap(t *testing.T) {
	b := NewBuffers(8, 1024)

	local, ext := testBounds(4, 1)
	if err := b.Resize(4, 2, local, ext); err == nil {
		t.Fatal("Resize succeeded past the allocation cap")
	}
	if b.Rho != nil || b.Local != nil {
		t.Errorf("failed Resize modified buffers")
	}

	// A failed growth must leave the old allocation usable.
	b = NewBuffers(8, 1<<20)
	if err := b.Resize(4, 2, local, ext); err != nil {
		t.Fatal(err)
	}
	oldLen := len(b.Rho)

	local2, ext2 := testBounds(64, 2)
	if err := b.Resize(4, 2, local2, ext2); err == nil {
		t.Fatal("Resize succeeded past the allocation cap")
	}
	if len(b.Rho) != oldLen {
		t.Errorf("failed Resize changed the brick allocation")
	}
}

func TestResizeRejectsBadBounds(t *testing.T) {
	b := NewBuffers(8, 0)

	local, _ := testBounds(8, 2)
	if err := b.Resize(10, 4, local, local); err == nil {
		t.Errorf("Resize accepted an extended region without a halo")
	}

	// An order 5 stencil can reach two points past the local box on the
	// low side and three on the high side, so a one point halo is not
	// enough.
	_, thin := testBounds(8, 1)
	if err := b.Resize(10, 5, local, thin); err == nil {
		t.Errorf("Resize accepted a halo too thin for the order")
	}
	if err := b.Resize(10, 5, local, local.Pad(3)); err != nil {
		t.Errorf("Resize rejected a sufficient halo: %v", err)
	}
}

func TestAddFloatConcurrent(t *testing.T) {
	b := NewBuffers(1, 0)
	local, ext := testBounds(2, 1)
	if err := b.Resize(1, 2, local, ext); err != nil {
		t.Fatal(err)
	}
	b.ZeroPass()

	workers, addsPer := 16, 1000
	wg := &sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < addsPer; i++ {
				b.AddFloat(0, 0.5)
				b.AddFloat(1, 1.0)
			}
		}()
	}
	wg.Wait()

	assert.InDelta(t, float64(workers*addsPer)*0.5, b.Rho[0], 1e-9)
	assert.InDelta(t, float64(workers*addsPer), b.Rho[1], 1e-9)
}

func TestRecordErrorWorstWins(t *testing.T) {
	b := NewBuffers(1, 0)

	b.RecordError(ErrOverflow)
	b.RecordError(ErrOutOfDomain)
	if b.PassError() != ErrOverflow {
		t.Errorf("PassError = %v after worse code recorded", b.PassError())
	}

	b.RecordError(ErrNone)
	if b.PassError() != ErrOverflow {
		t.Errorf("RecordError(ErrNone) downgraded the flag")
	}
}

func TestZeroPass(t *testing.T) {
	b := NewBuffers(4, 0)
	local, ext := testBounds(4, 2)
	if err := b.Resize(10, 4, local, ext); err != nil {
		t.Fatal(err)
	}

	b.Rho[3] = 1.5
	b.Counts[2] = 7
	b.RecordError(ErrOutOfDomain)

	b.ZeroPass()
	if b.Rho[3] != 0 || b.Counts[2] != 0 || b.PassError() != ErrNone {
		t.Errorf("ZeroPass left stale state behind")
	}
}

func TestMemoryAccounting(t *testing.T) {
	b := NewBuffers(8, 0)
	if b.BytesPerAtom() <= 0 {
		t.Errorf("BytesPerAtom = %d", b.BytesPerAtom())
	}
	if b.HostMemoryUsage() != 0 {
		t.Errorf("HostMemoryUsage = %d before any allocation",
			b.HostMemoryUsage())
	}

	local, ext := testBounds(8, 2)
	if err := b.Resize(100, 4, local, ext); err != nil {
		t.Fatal(err)
	}
	if b.HostMemoryUsage() < 8*ext.PointCount() {
		t.Errorf("HostMemoryUsage = %d after allocation",
			b.HostMemoryUsage())
	}
}
