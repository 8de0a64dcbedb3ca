package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redplanet-sim/redplanet/bus"
	"github.com/redplanet-sim/redplanet/cpu"
	"github.com/redplanet-sim/redplanet/device/power"
	"github.com/redplanet-sim/redplanet/device/ram"
	"github.com/redplanet-sim/redplanet/driver"
	"github.com/redplanet-sim/redplanet/journal"
)

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	r := ram.New(4096)
	pw := power.New()
	b, err := bus.NewBuilder().Map(0, 4096, r).Map(0x100000, 0x100004, pw).Build()
	assert.NoError(t, err)

	c := cpu.NewCpu(b)
	j := journal.New(0)
	d := driver.New(c, j, pw)
	d.Reset(0)
	return New(d)
}

func TestSurface_ReadWriteRegister(t *testing.T) {
	assert := assert.New(t)

	s := newTestSurface(t)
	assert.NoError(s.WriteRegister(5, 0x42))
	v, err := s.ReadRegister(5)
	assert.NoError(err)
	assert.Equal(uint32(0x42), v)
}

func TestSurface_X0WriteDiscarded(t *testing.T) {
	assert := assert.New(t)

	s := newTestSurface(t)
	assert.NoError(s.WriteRegister(0, 0x42))
	v, err := s.ReadRegister(0)
	assert.NoError(err)
	assert.Zero(v)
}

func TestSurface_PCIndexReadsAndWritesPC(t *testing.T) {
	assert := assert.New(t)

	s := newTestSurface(t)
	assert.NoError(s.WriteRegister(PCIndex, 0x100))
	v, err := s.ReadRegister(PCIndex)
	assert.NoError(err)
	assert.Equal(uint32(0x100), v)
}

func TestSurface_BadRegisterIndex(t *testing.T) {
	assert := assert.New(t)

	s := newTestSurface(t)
	_, err := s.ReadRegister(99)
	assert.ErrorIs(err, ErrBadRegister)
}

func TestSurface_MemoryWriteRoundTripAndUndo(t *testing.T) {
	assert := assert.New(t)

	s := newTestSurface(t)
	assert.NoError(s.WriteMemory(0x10, []byte{1, 2, 3}))

	got, err := s.ReadMemory(0x10, 3)
	assert.NoError(err)
	assert.Equal([]byte{1, 2, 3}, got)

	pc, err := s.Driver.Journal.RevertOne()
	assert.NoError(err)
	assert.Zero(pc)

	got, err = s.ReadMemory(0x10, 3)
	assert.NoError(err)
	assert.Equal([]byte{0, 0, 0}, got)
}

func TestSurface_BreakpointInsertRemove(t *testing.T) {
	assert := assert.New(t)

	s := newTestSurface(t)
	s.InsertBreakpoint(0x10, "")
	assert.Contains(s.Driver.Breakpoints, uint32(0x10))
	s.RemoveBreakpoint(0x10)
	assert.NotContains(s.Driver.Breakpoints, uint32(0x10))
}
