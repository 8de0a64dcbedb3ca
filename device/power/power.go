// Package power implements the single-word power-control device mapped at
// 0x0010_0000. Writing the halt code stops the simulated machine.
package power

import (
	"github.com/redplanet-sim/redplanet/bus"
	"github.com/redplanet-sim/redplanet/journal"
)

// HaltCode is the word value that, when stored to the power device,
// signals a halt.
const HaltCode = 0x5555

// Power is a single register; reading it always returns zero.
type Power struct {
	Halted bool
}

var _ bus.Device = (*Power)(nil)

// New returns a Power device that has not yet seen a halt request.
func New() *Power {
	return &Power{}
}

// Read satisfies bus.Device.
func (p *Power) Read(addr uint32, width int) (uint32, journal.Record, error) {
	if width != 4 {
		return 0, nil, &bus.Fault{Kind: bus.FaultWidth, Addr: addr, Width: width}
	}
	return 0, nil, nil
}

// Write satisfies bus.Device. Storing HaltCode latches Halted; any other
// value is ignored and produces no undo record.
func (p *Power) Write(addr uint32, width int, value uint32) (journal.Record, error) {
	if width != 4 {
		return nil, &bus.Fault{Kind: bus.FaultWidth, Addr: addr, Width: width}
	}
	if value != HaltCode {
		return nil, nil
	}
	old := p.Halted
	p.Halted = true
	return journal.NewDevShadow(func() { p.Halted = old }), nil
}
