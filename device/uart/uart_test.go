package uart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUart_LineStatusIdleWhenEmpty(t *testing.T) {
	assert := assert.New(t)

	u := New()
	got, _, err := u.Read(regLSR, 1)
	assert.NoError(err)
	assert.Equal(uint32(lsrTxIdle), got)
}

func TestUart_PushRXSetsReady(t *testing.T) {
	assert := assert.New(t)

	u := New()
	_, dropped := u.PushRX('A')
	assert.False(dropped)

	lsr, _, err := u.Read(regLSR, 1)
	assert.NoError(err)
	assert.NotZero(lsr & lsrRxReady)

	rhr, undo, err := u.Read(regRHR, 1)
	assert.NoError(err)
	assert.NotNil(undo)
	assert.Equal(uint32('A'), rhr)

	lsr, _, err = u.Read(regLSR, 1)
	assert.NoError(err)
	assert.Zero(lsr & lsrRxReady)
}

func TestUart_RXReadUndoRestoresByte(t *testing.T) {
	assert := assert.New(t)

	u := New()
	u.PushRX('A')
	_, undo, err := u.Read(regRHR, 1)
	assert.NoError(err)

	undo.Undo()

	rhr, _, err := u.Read(regRHR, 1)
	assert.NoError(err)
	assert.Equal(uint32('A'), rhr)
}

func TestUart_RXOverflowDropsOldest(t *testing.T) {
	assert := assert.New(t)

	u := New()
	for i := 0; i < fifoDepth; i++ {
		_, dropped := u.PushRX(byte(i))
		assert.False(dropped)
	}

	_, dropped := u.PushRX(0xff)
	assert.True(dropped)

	rhr, _, err := u.Read(regRHR, 1)
	assert.NoError(err)
	assert.Equal(uint32(1), rhr)
}

func TestUart_THRQueuesForDrain(t *testing.T) {
	assert := assert.New(t)

	u := New()
	_, err := u.Write(regTHR, 1, 'h')
	assert.NoError(err)
	_, err = u.Write(regTHR, 1, 'i')
	assert.NoError(err)
	assert.Equal(2, u.PendingTX())

	out := u.DrainTX()
	assert.Equal([]byte("hi"), out)
	assert.Equal(0, u.PendingTX())
}

func TestUart_THRWriteUndoDropsPushedByte(t *testing.T) {
	assert := assert.New(t)

	u := New()
	undo, err := u.Write(regTHR, 1, 'h')
	assert.NoError(err)
	assert.Equal(1, u.PendingTX())

	undo.Undo()
	assert.Equal(0, u.PendingTX())
}

func TestUart_FCRResetsFifos(t *testing.T) {
	assert := assert.New(t)

	u := New()
	u.PushRX('x')
	_, err := u.Write(regFCR, 1, 0x02)
	assert.NoError(err)

	lsr, _, err := u.Read(regLSR, 1)
	assert.NoError(err)
	assert.Zero(lsr & lsrRxReady)
}

func TestUart_WideAccessFaults(t *testing.T) {
	assert := assert.New(t)

	u := New()
	_, _, err := u.Read(regRHR, 4)
	assert.Error(err)
}
