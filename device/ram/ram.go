// Package ram implements a flat byte-addressable memory device for the bus.
// It accepts misaligned accesses by decomposing them into byte reads and
// writes, since RV32I itself places no alignment requirement on RAM.
package ram

import (
	"encoding/binary"

	"github.com/redplanet-sim/redplanet/bus"
	"github.com/redplanet-sim/redplanet/journal"
)

// Ram is a fixed-size block of byte-addressable storage.
type Ram struct {
	Data []byte
}

var _ bus.Device = (*Ram)(nil)

// New allocates a Ram of size bytes, zero-filled.
func New(size uint32) *Ram {
	return &Ram{Data: make([]byte, size)}
}

// Read satisfies bus.Device. Misaligned reads are permitted and never
// mutate state, so no undo record is returned.
func (r *Ram) Read(addr uint32, width int) (uint32, journal.Record, error) {
	if err := r.bounds(addr, width); err != nil {
		return 0, nil, err
	}

	switch width {
	case 1:
		return uint32(r.Data[addr]), nil, nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(r.Data[addr:])), nil, nil
	case 4:
		return binary.LittleEndian.Uint32(r.Data[addr:]), nil, nil
	default:
		return 0, nil, &bus.Fault{Kind: bus.FaultWidth, Addr: addr, Width: width}
	}
}

// Write satisfies bus.Device. Misaligned writes are permitted. The undo
// record restores the exact displaced bytes.
func (r *Ram) Write(addr uint32, width int, value uint32) (journal.Record, error) {
	if err := r.bounds(addr, width); err != nil {
		return nil, err
	}
	if width != 1 && width != 2 && width != 4 {
		return nil, &bus.Fault{Kind: bus.FaultWidth, Addr: addr, Width: width}
	}

	old := make([]byte, width)
	copy(old, r.Data[addr:addr+uint32(width)])

	switch width {
	case 1:
		r.Data[addr] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(r.Data[addr:], uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(r.Data[addr:], value)
	}

	return journal.NewMem(func() { copy(r.Data[addr:addr+uint32(width)], old) }), nil
}

func (r *Ram) bounds(addr uint32, width int) error {
	if uint64(addr)+uint64(width) > uint64(len(r.Data)) {
		return &bus.Fault{Kind: bus.FaultUnmapped, Addr: addr, Width: width}
	}
	return nil
}
