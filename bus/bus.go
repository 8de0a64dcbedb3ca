// Package bus implements the memory-mapped I/O fabric that the core uses to
// reach RAM and devices. Regions are fixed at construction time via Builder;
// the resulting Bus does a binary search over a sorted, disjoint region list
// on every access.
package bus

import (
	"sort"

	"github.com/redplanet-sim/redplanet/journal"
)

// Device is anything mappable onto the bus. Addr is relative to the start
// of the device's mapped region. Width is 1, 2 or 4 bytes; a device that
// does not support a given width returns a *Fault with Kind FaultWidth.
//
// A non-nil undo Record is returned whenever the access mutated
// device-internal state; the caller appends it to the currently open
// journal frame. Pure reads return a nil Record.
type Device interface {
	Read(addr uint32, width int) (value uint32, undo journal.Record, err error)
	Write(addr uint32, width int, value uint32) (undo journal.Record, err error)
}

type region struct {
	start, end uint32 // [start, end)
	dev        Device
}

// Bus routes reads and writes to the device mapped at a given address.
type Bus struct {
	regions []region
}

// Builder accumulates non-overlapping region mappings before Build freezes
// them into a Bus.
type Builder struct {
	regions []region
	err     error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Map registers dev to serve addresses in [start, end). Overlaps with an
// already-mapped region are reported by Build, not by Map, so that Map
// calls can be chained freely.
func (b *Builder) Map(start, end uint32, dev Device) *Builder {
	if b.err != nil {
		return b
	}
	if end <= start {
		b.err = ErrEmpty
		return b
	}
	b.regions = append(b.regions, region{start: start, end: end, dev: dev})
	return b
}

// Build checks for overlaps and returns the finished, immutable Bus.
func (b *Builder) Build() (*Bus, error) {
	if b.err != nil {
		return nil, b.err
	}

	regions := append([]region(nil), b.regions...)
	sort.Slice(regions, func(i, j int) bool { return regions[i].start < regions[j].start })

	for i := 1; i < len(regions); i++ {
		if regions[i].start < regions[i-1].end {
			return nil, ErrOverlap
		}
	}

	return &Bus{regions: regions}, nil
}

// find returns the region covering addr, or nil.
func (bus *Bus) find(addr uint32) *region {
	regions := bus.regions
	i := sort.Search(len(regions), func(i int) bool { return regions[i].end > addr })
	if i < len(regions) && regions[i].start <= addr {
		return &regions[i]
	}
	return nil
}

// Read performs a width-byte read at addr.
func (bus *Bus) Read(addr uint32, width int) (uint32, journal.Record, error) {
	r := bus.find(addr)
	if r == nil {
		return 0, nil, &Fault{Kind: FaultUnmapped, Addr: addr, Width: width}
	}

	value, undo, err := r.dev.Read(addr-r.start, width)
	if err != nil {
		return 0, nil, annotate(err, addr, width, false)
	}
	return value, undo, nil
}

// Write performs a width-byte write at addr.
func (bus *Bus) Write(addr uint32, width int, value uint32) (journal.Record, error) {
	r := bus.find(addr)
	if r == nil {
		return nil, &Fault{Kind: FaultUnmapped, Addr: addr, Width: width, Write: true}
	}

	undo, err := r.dev.Write(addr-r.start, width, value)
	if err != nil {
		return nil, annotate(err, addr, width, true)
	}
	return undo, nil
}

// LoadBulk writes data verbatim starting at addr, byte by byte, discarding
// the undo record each write produces. It is used only by the ELF loader
// to establish the program image before execution begins.
func (bus *Bus) LoadBulk(addr uint32, data []byte) error {
	for i, v := range data {
		if _, err := bus.Write(addr+uint32(i), 1, uint32(v)); err != nil {
			return err
		}
	}
	return nil
}

// annotate fills in the Addr/Width/Write fields of a *Fault returned by a
// device that only knows its own Kind, leaving any other error untouched.
func annotate(err error, addr uint32, width int, write bool) error {
	if fault, ok := err.(*Fault); ok {
		fault.Addr = addr
		fault.Width = width
		fault.Write = write
		return fault
	}
	return err
}
