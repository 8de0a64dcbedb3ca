package journal

// Kind classifies an undo Record for introspection; it plays no part in
// Undo's correctness, which is carried entirely by the closure a Record
// wraps.
type Kind int

const (
	KindReg        Kind = iota // a general-purpose register write
	KindCsr                    // a CSR write
	KindMem                    // a RAM store
	KindUartRx                 // an RHR read that popped the UART RX FIFO, or a host push onto it
	KindUartTxPush             // a THR write that pushed the UART TX FIFO
	KindDevShadow              // any other device-internal shadow state change
)

func (k Kind) String() string {
	switch k {
	case KindReg:
		return "reg"
	case KindCsr:
		return "csr"
	case KindMem:
		return "mem"
	case KindUartRx:
		return "uart-rx"
	case KindUartTxPush:
		return "uart-tx-push"
	case KindDevShadow:
		return "dev-shadow"
	default:
		return "record"
	}
}

// Record is a single typed undo action. Applying Undo reverts exactly the
// mutation that produced the Record, in isolation from any other Record.
type Record interface {
	Kind() Kind
	Undo()
}

type closureRecord struct {
	kind Kind
	undo func()
}

func (r closureRecord) Kind() Kind { return r.kind }
func (r closureRecord) Undo()      { r.undo() }

// NewReg wraps the undo of a general-purpose register write.
func NewReg(undo func()) Record { return closureRecord{kind: KindReg, undo: undo} }

// NewCsr wraps the undo of a CSR write.
func NewCsr(undo func()) Record { return closureRecord{kind: KindCsr, undo: undo} }

// NewMem wraps the undo of a RAM store.
func NewMem(undo func()) Record { return closureRecord{kind: KindMem, undo: undo} }

// NewUartRx wraps the undo of a change to the RX FIFO: an RHR read that
// popped a byte off it (restoring it puts the byte back at the head of the
// queue, not the tail), or a host push (Uart.PushRX) onto it.
func NewUartRx(undo func()) Record { return closureRecord{kind: KindUartRx, undo: undo} }

// NewUartTxPush wraps the undo of a THR write: dropping the byte that was
// appended to the TX FIFO.
func NewUartTxPush(undo func()) Record { return closureRecord{kind: KindUartTxPush, undo: undo} }

// NewDevShadow wraps the undo of any other device-internal state change
// (modem/line control shadow registers, FIFO resets, power latch).
func NewDevShadow(undo func()) Record { return closureRecord{kind: KindDevShadow, undo: undo} }
