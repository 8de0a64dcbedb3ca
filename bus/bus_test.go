package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redplanet-sim/redplanet/bus"
	"github.com/redplanet-sim/redplanet/device/ram"
	"github.com/redplanet-sim/redplanet/journal"
)

type fakeDevice struct {
	word uint32
}

func (d *fakeDevice) Read(addr uint32, width int) (uint32, journal.Record, error) {
	if width != 4 {
		return 0, nil, &bus.Fault{Kind: bus.FaultWidth, Width: width}
	}
	return d.word, nil, nil
}

func (d *fakeDevice) Write(addr uint32, width int, value uint32) (journal.Record, error) {
	if width != 4 {
		return nil, &bus.Fault{Kind: bus.FaultWidth, Width: width}
	}
	old := d.word
	d.word = value
	return journal.NewDevShadow(func() { d.word = old }), nil
}

func TestBuilder_Build(t *testing.T) {
	assert := assert.New(t)

	b := bus.NewBuilder()
	b.Map(0x1000, 0x2000, &fakeDevice{})
	b.Map(0x2000, 0x3000, &fakeDevice{})

	bus, err := b.Build()
	assert.NoError(err)
	assert.NotNil(bus)
}

func TestBuilder_Overlap(t *testing.T) {
	assert := assert.New(t)

	b := bus.NewBuilder()
	b.Map(0x1000, 0x2000, &fakeDevice{})
	b.Map(0x1800, 0x2800, &fakeDevice{})

	_, err := b.Build()
	assert.ErrorIs(err, bus.ErrOverlap)
}

func TestBuilder_Empty(t *testing.T) {
	assert := assert.New(t)

	b := bus.NewBuilder()
	b.Map(0x2000, 0x1000, &fakeDevice{})

	_, err := b.Build()
	assert.ErrorIs(err, bus.ErrEmpty)
}

func TestBus_ReadWrite(t *testing.T) {
	assert := assert.New(t)

	dev := &fakeDevice{}
	b, err := bus.NewBuilder().Map(0x1000, 0x1004, dev).Build()
	assert.NoError(err)

	undo, err := b.Write(0x1000, 4, 0xdeadbeef)
	assert.NoError(err)
	assert.NotNil(undo)
	assert.Equal(uint32(0xdeadbeef), dev.word)

	got, _, err := b.Read(0x1000, 4)
	assert.NoError(err)
	assert.Equal(uint32(0xdeadbeef), got)

	undo.Undo()
	assert.Equal(uint32(0), dev.word)
}

func TestBus_Unmapped(t *testing.T) {
	assert := assert.New(t)

	b, err := bus.NewBuilder().Map(0x1000, 0x1004, &fakeDevice{}).Build()
	assert.NoError(err)

	_, _, err = b.Read(0x9000, 4)
	var fault *bus.Fault
	assert.ErrorAs(err, &fault)
	assert.Equal(bus.FaultUnmapped, fault.Kind)
}

func TestBus_LoadBulk(t *testing.T) {
	assert := assert.New(t)

	dev := ram.New(16)
	b, err := bus.NewBuilder().Map(0x1000, 0x1010, dev).Build()
	assert.NoError(err)

	err = b.LoadBulk(0x1000, []byte{0xef, 0xbe, 0xad, 0xde})
	assert.NoError(err)
	got, _, err := b.Read(0x1000, 4)
	assert.NoError(err)
	assert.Equal(uint32(0xdeadbeef), got)
}
