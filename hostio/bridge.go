// Package hostio ferries bytes and control directives between host
// goroutines (the terminal UI, the GDB stub) and the simulation core,
// entirely via bounded buffered channels: no shared mutable state crosses
// the thread boundary.
package hostio

import (
	"github.com/redplanet-sim/redplanet/device/uart"
	"github.com/redplanet-sim/redplanet/driver"
	"github.com/redplanet-sim/redplanet/journal"
)

// CommandKind enumerates the control directives a UI or GDB thread can
// post to the simulation thread.
type CommandKind int

const (
	CmdStep CommandKind = iota
	CmdReverseStep
	CmdContinue
	CmdReverseContinue
	CmdPause
	CmdGoto
	CmdDeleteFuture
	CmdQuit
)

// Command is one queued control directive; Target is only meaningful for
// CmdGoto.
type Command struct {
	Kind   CommandKind
	Target int
}

// Bridge owns the three channels that cross into the simulation thread:
// host-to-guest keystrokes, guest-to-host drained bytes, and control
// directives. Pump and Dispatch are meant to be called from the driver's
// own goroutine, between steps.
type Bridge struct {
	Uart    *uart.Uart
	Journal *journal.Journal

	RX       chan byte
	TX       chan byte
	Commands chan Command
}

// New creates a Bridge with channels of the given capacity.
func New(u *uart.Uart, j *journal.Journal, capacity int) *Bridge {
	return &Bridge{
		Uart:     u,
		Journal:  j,
		RX:       make(chan byte, capacity),
		TX:       make(chan byte, capacity),
		Commands: make(chan Command, capacity),
	}
}

// PushInput queues a host keystroke for delivery into the guest's UART RX
// FIFO. It does not block the caller on a full channel; the new byte is
// dropped and the bytes already queued are kept (unlike the UART RX FIFO,
// which evicts its oldest byte when full).
func (br *Bridge) PushInput(b byte) {
	select {
	case br.RX <- b:
	default:
	}
}

// DrainOutput returns any bytes the guest has produced since the last
// call, without blocking.
func (br *Bridge) DrainOutput() []byte {
	var out []byte
	for {
		select {
		case b := <-br.TX:
			out = append(out, b)
		default:
			return out
		}
	}
}

// Post queues a control directive for the simulation thread.
func (br *Bridge) Post(cmd Command) {
	br.Commands <- cmd
}

// Pump delivers queued RX bytes into the UART FIFO (journaling each as a
// host-input event) and moves the UART's drained TX bytes onto the TX
// channel. Call it between steps, from the goroutine that owns the
// driver; package driver does not call it itself.
func (br *Bridge) Pump() {
	for {
		select {
		case b := <-br.RX:
			if undo, _ := br.Uart.PushRX(b); undo != nil {
				br.Journal.PushHostInput(undo)
			}
		default:
			goto drainTX
		}
	}

drainTX:
	for _, b := range br.Uart.DrainTX() {
		select {
		case br.TX <- b:
		default:
		}
	}
}

// Dispatch drains and executes exactly one pending command against d,
// reporting whether a quit was requested.
func (br *Bridge) Dispatch(d *driver.Driver) (quit bool, err error) {
	select {
	case cmd := <-br.Commands:
		return br.execute(d, cmd)
	default:
		return false, nil
	}
}

func (br *Bridge) execute(d *driver.Driver, cmd Command) (bool, error) {
	switch cmd.Kind {
	case CmdStep:
		return false, d.Step()
	case CmdReverseStep:
		return false, d.ReverseStep()
	case CmdContinue:
		return false, d.Continue()
	case CmdReverseContinue:
		return false, d.ReverseContinue()
	case CmdPause:
		d.Pause()
		return false, nil
	case CmdGoto:
		return false, d.Goto(cmd.Target)
	case CmdDeleteFuture:
		d.DeleteFuture()
		return false, nil
	case CmdQuit:
		return true, nil
	default:
		return false, nil
	}
}
