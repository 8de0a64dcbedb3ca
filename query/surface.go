// Package query adapts a driver.Driver to the register/memory/breakpoint
// operations a GDB remote-serial-protocol stub issues. It defines no
// socket framing: callers hand it already-parsed requests and get back
// plain values.
package query

import (
	"github.com/redplanet-sim/redplanet/driver"
	"github.com/redplanet-sim/redplanet/journal"
)

// PCIndex is the DWARF register index GDB uses for the program counter
// on RV32; indices 0-31 address x[0..32] directly.
const PCIndex = 32

// Surface is a thin read/write adapter over a driver.Driver.
type Surface struct {
	Driver *driver.Driver
}

// New wraps d.
func New(d *driver.Driver) *Surface {
	return &Surface{Driver: d}
}

// ReadRegister returns x[index] for index in [0,32), or pc for index 32.
func (s *Surface) ReadRegister(index int) (uint32, error) {
	if index == PCIndex {
		return s.Driver.Cpu.PC, nil
	}
	if index < 0 || index > 31 {
		return 0, ErrBadRegister
	}
	return s.Driver.Cpu.X[index], nil
}

// WriteRegister sets x[index] or pc, journaling the mutation as its own
// committed step so it can be reversed like any other.
func (s *Surface) WriteRegister(index int, value uint32) error {
	if index != PCIndex && (index < 0 || index > 31) {
		return ErrBadRegister
	}

	j := s.Driver.Journal
	pc := s.Driver.Cpu.PC
	if err := j.BeginFrame(pc); err != nil {
		return err
	}

	if index == PCIndex {
		old := s.Driver.Cpu.PC
		s.Driver.Cpu.PC = value
		j.Record(journal.NewReg(func() { s.Driver.Cpu.PC = old }))
	} else if index != 0 {
		old := s.Driver.Cpu.X[index]
		s.Driver.Cpu.X[index] = value
		j.Record(journal.NewReg(func() { s.Driver.Cpu.X[index] = old }))
	}

	return j.Commit(s.Driver.Cpu.PC, nil)
}

// ReadMemory reads length bytes starting at addr, unjournaled: a pure
// diagnostic read has no state to undo.
func (s *Surface) ReadMemory(addr uint32, length int) ([]byte, error) {
	out := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		v, _, err := s.Driver.Cpu.Bus.Read(addr+uint32(i), 1)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// WriteMemory writes data starting at addr as a single committed step,
// so a GDB-side memory poke is reversible exactly like an instruction's
// store.
func (s *Surface) WriteMemory(addr uint32, data []byte) error {
	j := s.Driver.Journal
	pc := s.Driver.Cpu.PC
	if err := j.BeginFrame(pc); err != nil {
		return err
	}

	for i, v := range data {
		undo, err := s.Driver.Cpu.Bus.Write(addr+uint32(i), 1, uint32(v))
		if err != nil {
			j.Abort()
			return err
		}
		if undo != nil {
			j.Record(undo)
		}
	}

	return j.Commit(pc, nil)
}

// InsertBreakpoint installs a software breakpoint at addr.
func (s *Surface) InsertBreakpoint(addr uint32, cond string) {
	s.Driver.AddBreakpoint(addr, cond)
}

// RemoveBreakpoint removes any breakpoint at addr.
func (s *Surface) RemoveBreakpoint(addr uint32) {
	s.Driver.RemoveBreakpoint(addr)
}

// SingleStep executes exactly one step.
func (s *Surface) SingleStep() error { return s.Driver.Step() }

// Continue resumes forward execution until a breakpoint, halt, or
// Interrupt.
func (s *Surface) Continue() error { return s.Driver.Continue() }

// Interrupt requests that a running Continue batch stop at the next step
// boundary.
func (s *Surface) Interrupt() { s.Driver.Pause() }
