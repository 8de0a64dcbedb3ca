// Package uart implements the 16550-subset UART device mapped at
// 0x1000_0000. Only the registers a bare-metal polling driver needs are
// modeled: RHR, THR, IER, FCR, ISR, LCR and LSR. Modem control/status and
// the divisor latch are accepted but inert.
package uart

import (
	"github.com/redplanet-sim/redplanet/bus"
	"github.com/redplanet-sim/redplanet/journal"
)

const (
	regRHR = 0 // Receiver Holding Register (read)
	regTHR = 0 // Transmitter Holding Register (write)
	regIER = 1 // Interrupt Enable Register
	regFCR = 2 // FIFO Control Register (write)
	regISR = 2 // Interrupt Status Register (read)
	regLCR = 3
	regLSR = 5

	fifoDepth = 16

	// LSR bits.
	lsrRxReady = 1 << 0
	lsrTxIdle  = 1 << 5
)

type fifo struct {
	buf  [fifoDepth]byte
	head int
	len  int
}

func (f fifo) snapshot() fifo { return f }

// Uart is a 16-byte FIFO-backed 16550 subset.
type Uart struct {
	ier byte
	lcr byte

	rx fifo
	tx fifo
}

var _ bus.Device = (*Uart)(nil)

// New returns a Uart with both FIFOs empty.
func New() *Uart {
	return &Uart{}
}

// Read satisfies bus.Device. Only 1-byte accesses are native; wider reads
// fault.
func (u *Uart) Read(addr uint32, width int) (uint32, journal.Record, error) {
	if width != 1 {
		return 0, nil, &bus.Fault{Kind: bus.FaultWidth, Addr: addr, Width: width}
	}

	switch addr {
	case regRHR:
		if u.rx.len == 0 {
			return 0, nil, nil
		}
		before := u.rx.snapshot()
		v := u.rx.buf[u.rx.head]
		u.rx.head = (u.rx.head + 1) % fifoDepth
		u.rx.len--
		return uint32(v), journal.NewUartRx(func() { u.rx = before }), nil
	case regIER:
		return uint32(u.ier), nil, nil
	case regISR:
		return 0x01, nil, nil // no interrupt pending, not modeled
	case regLCR:
		return uint32(u.lcr), nil, nil
	case regLSR:
		return uint32(u.lineStatus()), nil, nil
	default:
		return 0, nil, nil
	}
}

// Write satisfies bus.Device.
func (u *Uart) Write(addr uint32, width int, value uint32) (journal.Record, error) {
	if width != 1 {
		return nil, &bus.Fault{Kind: bus.FaultWidth, Addr: addr, Width: width}
	}

	switch addr {
	case regTHR:
		if u.tx.len >= fifoDepth {
			return nil, nil
		}
		pos := (u.tx.head + u.tx.len) % fifoDepth
		u.tx.buf[pos] = byte(value)
		u.tx.len++
		return journal.NewUartTxPush(func() {
			if u.tx.len > 0 {
				u.tx.len--
			}
		}), nil
	case regIER:
		old := u.ier
		u.ier = byte(value)
		return journal.NewDevShadow(func() { u.ier = old }), nil
	case regFCR:
		beforeRx, beforeTx := u.rx.snapshot(), u.tx.snapshot()
		if value&0x02 != 0 {
			u.rx = fifo{}
		}
		if value&0x04 != 0 {
			u.tx = fifo{}
		}
		return journal.NewDevShadow(func() { u.rx, u.tx = beforeRx, beforeTx }), nil
	case regLCR:
		old := u.lcr
		u.lcr = byte(value)
		return journal.NewDevShadow(func() { u.lcr = old }), nil
	default:
		// Modem control/status and scratch register: accepted, inert.
		return nil, nil
	}
}

func (u *Uart) lineStatus() byte {
	s := byte(lsrTxIdle)
	if u.rx.len > 0 {
		s |= lsrRxReady
	}
	return s
}

// PushRX enqueues a byte of host input, directly mutating device state,
// and returns the undo record the caller should insert into the journal
// as a host-input event between steps. It reports dropped=true if the RX
// FIFO was already full, in which case the oldest byte was evicted to
// make room.
func (u *Uart) PushRX(b byte) (undo journal.Record, dropped bool) {
	before := u.rx.snapshot()
	if u.rx.len == fifoDepth {
		u.rx.head = (u.rx.head + 1) % fifoDepth
		u.rx.len--
		dropped = true
	}
	pos := (u.rx.head + u.rx.len) % fifoDepth
	u.rx.buf[pos] = b
	u.rx.len++
	return journal.NewUartRx(func() { u.rx = before }), dropped
}

// PendingTX returns the number of bytes currently queued for transmit.
func (u *Uart) PendingTX() int {
	return u.tx.len
}

// DrainTX removes and returns all bytes currently queued for transmit, in
// FIFO order. This is deliberately not undoable: once bytes reach the
// host they cannot be unsent, so the host bridge must call this outside
// of any journaled step.
func (u *Uart) DrainTX() []byte {
	out := make([]byte, u.tx.len)
	for i := range out {
		out[i] = u.tx.buf[(u.tx.head+i)%fifoDepth]
	}
	u.tx.head, u.tx.len = 0, 0
	return out
}
