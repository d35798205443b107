package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	stdio "io"
	"math"
	"os"

	"github.com/DataDog/zstd"

	"github.com/phil-mansfield/pmesh/geom"
)

const (
	// MagicNumber starts every brick snapshot, to catch attempts to
	// read something else as one.
	MagicNumber = uint32(0xb71c4a55)
	// ReverseMagicNumber is what the magic number looks like when read
	// on a machine with flipped endianness.
	ReverseMagicNumber = uint32(0x554a1cb7)
	Version            = uint32(1)

	compressLevel = 3
)

type brickHeader struct {
	Magic, Version uint32
	Order          int32
	Origin, Width  [3]int32
	Uncompressed   int64
	Compressed     int64
}

// WriteBrick writes the charge grid spanning bounds to a compressed
// snapshot file.
func WriteBrick(
	fname string, order int, bounds geom.CellBounds, grid []float64,
) error {
	if bounds.PointCount() != len(grid) {
		return fmt.Errorf(
			"grid has %d values, but bounds %v span %d points",
			len(grid), bounds, bounds.PointCount(),
		)
	}

	raw := make([]byte, 8*len(grid))
	for i, v := range grid {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	comp, err := zstd.CompressLevel(nil, raw, compressLevel)
	if err != nil {
		return err
	}

	hd := brickHeader{
		Magic: MagicNumber, Version: Version,
		Order:        int32(order),
		Uncompressed: int64(len(raw)),
		Compressed:   int64(len(comp)),
	}
	for k := 0; k < 3; k++ {
		hd.Origin[k] = int32(bounds.Origin[k])
		hd.Width[k] = int32(bounds.Width[k])
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, &hd); err != nil {
		return err
	}
	if _, err := w.Write(comp); err != nil {
		return err
	}
	return w.Flush()
}

// ReadBrick reads back a snapshot written by WriteBrick.
func ReadBrick(fname string) (
	order int, bounds geom.CellBounds, grid []float64, err error,
) {
	f, err := os.Open(fname)
	if err != nil {
		return 0, bounds, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	hd := brickHeader{}
	if err := binary.Read(r, binary.LittleEndian, &hd); err != nil {
		return 0, bounds, nil, err
	}

	switch {
	case hd.Magic == ReverseMagicNumber:
		return 0, bounds, nil, fmt.Errorf(
			"%s was written with flipped endianness", fname,
		)
	case hd.Magic != MagicNumber:
		return 0, bounds, nil, fmt.Errorf(
			"%s is not a brick snapshot", fname,
		)
	case hd.Version != Version:
		return 0, bounds, nil, fmt.Errorf(
			"%s has snapshot version %d, expected %d",
			fname, hd.Version, Version,
		)
	}

	comp := make([]byte, hd.Compressed)
	if _, err := stdio.ReadFull(r, comp); err != nil {
		return 0, bounds, nil, err
	}
	raw, err := zstd.Decompress(make([]byte, hd.Uncompressed), comp)
	if err != nil {
		return 0, bounds, nil, err
	}
	if int64(len(raw)) != hd.Uncompressed {
		return 0, bounds, nil, fmt.Errorf(
			"%s decompressed to %d bytes, expected %d",
			fname, len(raw), hd.Uncompressed,
		)
	}

	for k := 0; k < 3; k++ {
		bounds.Origin[k] = int(hd.Origin[k])
		bounds.Width[k] = int(hd.Width[k])
	}

	grid = make([]float64, hd.Uncompressed/8)
	for i := range grid {
		grid[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return int(hd.Order), bounds, grid, nil
}
