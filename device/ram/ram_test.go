package ram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redplanet-sim/redplanet/bus"
)

func TestRam_WordRoundTrip(t *testing.T) {
	assert := assert.New(t)

	r := New(64)
	_, err := r.Write(0x10, 4, 0x12345678)
	assert.NoError(err)

	got, _, err := r.Read(0x10, 4)
	assert.NoError(err)
	assert.Equal(uint32(0x12345678), got)
}

func TestRam_Misaligned(t *testing.T) {
	assert := assert.New(t)

	r := New(64)
	_, err := r.Write(0x01, 4, 0xdeadbeef)
	assert.NoError(err)

	got, _, err := r.Read(0x01, 4)
	assert.NoError(err)
	assert.Equal(uint32(0xdeadbeef), got)

	b, _, err := r.Read(0x01, 1)
	assert.NoError(err)
	assert.Equal(uint32(0xef), b)
}

func TestRam_OutOfBounds(t *testing.T) {
	assert := assert.New(t)

	r := New(4)
	_, _, err := r.Read(2, 4)
	var fault *bus.Fault
	assert.ErrorAs(err, &fault)
	assert.Equal(bus.FaultUnmapped, fault.Kind)
}

func TestRam_BadWidth(t *testing.T) {
	assert := assert.New(t)

	r := New(4)
	_, _, err := r.Read(0, 3)
	var fault *bus.Fault
	assert.ErrorAs(err, &fault)
	assert.Equal(bus.FaultWidth, fault.Kind)
}

func TestRam_WriteUndoRestoresBytes(t *testing.T) {
	assert := assert.New(t)

	r := New(64)
	undo, err := r.Write(0x10, 4, 0x12345678)
	assert.NoError(err)

	undo.Undo()
	got, _, err := r.Read(0x10, 4)
	assert.NoError(err)
	assert.Zero(got)
}
