// Package driver implements the simulator's scheduler: a finite-state
// machine advancing the CPU one step at a time under operator control,
// coordinating the CPU, bus, journal and power device the way the GDB
// surface and the CLI both drive it.
package driver

import (
	"errors"
	"sync/atomic"

	"github.com/redplanet-sim/redplanet/condition"
	"github.com/redplanet-sim/redplanet/cpu"
	"github.com/redplanet-sim/redplanet/device/power"
	"github.com/redplanet-sim/redplanet/journal"
)

// Driver owns the architectural state for the lifetime of one simulation
// run. It is not safe for concurrent use except for Pause, which a
// separate command-dispatch goroutine may call to interrupt a running
// batch at the next step boundary.
type Driver struct {
	Cpu     *cpu.Cpu
	Journal *journal.Journal
	Power   *power.Power

	State State

	Breakpoints map[uint32]Breakpoint

	pause atomic.Bool
}

// New creates a Driver wired to c and j, observing pw to detect halts.
// Any bound on retained history is the one j was created with.
func New(c *cpu.Cpu, j *journal.Journal, pw *power.Power) *Driver {
	return &Driver{
		Cpu:         c,
		Journal:     j,
		Power:       pw,
		Breakpoints: make(map[uint32]Breakpoint),
	}
}

// Reset brings the CPU to its pristine post-load state at entry. It does
// not touch the journal: step 0 is the state the loader produced.
func (d *Driver) Reset(entry uint32) {
	d.Cpu.Reset(entry)
	d.Power.Halted = false
	d.State = Paused
	d.pause.Store(false)
}

// AddBreakpoint installs a breakpoint at addr; an empty condition always
// fires.
func (d *Driver) AddBreakpoint(addr uint32, cond string) {
	d.Breakpoints[addr] = Breakpoint{Addr: addr, Condition: cond}
}

// RemoveBreakpoint removes any breakpoint at addr.
func (d *Driver) RemoveBreakpoint(addr uint32) {
	delete(d.Breakpoints, addr)
}

// Pause requests that a running Continue/ReverseContinue batch stop at
// the next step boundary.
func (d *Driver) Pause() {
	d.pause.Store(true)
}

// Step executes exactly one forward step unconditionally, ignoring
// breakpoints: the explicit single-step command never stops short of the
// instruction it was asked to execute.
func (d *Driver) Step() error {
	if d.State == Halted {
		return ErrHalted
	}
	_, err := d.step()
	return err
}

// step performs one begin/execute/commit cycle and syncs Halted state
// from the power device.
func (d *Driver) step() (*journal.Trap, error) {
	if err := d.Journal.BeginFrame(d.Cpu.PC); err != nil {
		return nil, err
	}
	trap, err := d.Cpu.Step(d.Journal)
	if err != nil {
		d.Journal.Abort()
		return nil, err
	}
	if err := d.Journal.Commit(d.Cpu.PC, trap); err != nil {
		return nil, err
	}

	if d.Power.Halted {
		d.Cpu.SetHalted(true)
		d.State = Halted
	}

	return trap, nil
}

// Continue runs forward steps until a breakpoint fires (checked before
// fetch, at the current pc), the machine halts, or Pause is requested.
func (d *Driver) Continue() error {
	if d.State == Halted {
		return ErrHalted
	}

	d.pause.Store(false)
	d.State = Running

	for {
		if d.pause.Load() {
			break
		}
		if hit, err := d.atBreakpoint(); err != nil {
			return err
		} else if hit {
			break
		}
		if _, err := d.step(); err != nil {
			return err
		}
		if d.State == Halted {
			return nil
		}
	}

	d.State = Paused
	return nil
}

// ReverseStep reverts exactly one step, restoring pc from the frame's
// pre-image and clearing any latched halt that step may have caused.
func (d *Driver) ReverseStep() error {
	pcBefore, err := d.Journal.RevertOne()
	if err != nil {
		return err
	}
	d.Cpu.PC = pcBefore
	d.Cpu.SetHalted(false)
	d.State = Paused
	return nil
}

// ReverseContinue reverts steps until a breakpoint fires (checked after
// each revert, at the restored pc), the journal's retained history is
// exhausted, or Pause is requested.
func (d *Driver) ReverseContinue() error {
	d.pause.Store(false)
	d.State = ReverseRunning

	for {
		if d.pause.Load() {
			break
		}
		if err := d.ReverseStep(); err != nil {
			if errors.Is(err, journal.ErrNoHistory) {
				break
			}
			return err
		}
		if hit, err := d.atBreakpoint(); err != nil {
			return err
		} else if hit {
			break
		}
	}

	d.State = Paused
	return nil
}

// Goto moves to step target: backward by replaying undo records,
// forward by re-executing, since the journal holds no redo data. Forward
// motion stops early if the machine halts before reaching target.
func (d *Driver) Goto(target int) error {
	pc, moved, err := d.Journal.Goto(target)
	if err == nil {
		if moved {
			d.Cpu.PC = pc
			d.Cpu.SetHalted(false)
		}
		d.State = Paused
		return nil
	}
	if !errors.Is(err, journal.ErrDivergentGoto) {
		return err
	}

	for d.Journal.Current() < target {
		if _, err := d.step(); err != nil {
			return err
		}
		if d.State == Halted {
			return nil
		}
	}
	d.State = Paused
	return nil
}

// DeleteFuture discards every journal frame beyond the current step,
// enabling divergent re-execution from here.
func (d *Driver) DeleteFuture() {
	d.Journal.TruncateFuture()
}

// Dump reads [start, end) directly through the bus, bypassing the
// journal: it is a read-only diagnostic, not a step.
func (d *Driver) Dump(start, end uint32) ([]byte, error) {
	out := make([]byte, 0, end-start)
	for addr := start; addr < end; addr++ {
		v, _, err := d.Cpu.Bus.Read(addr, 1)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func (d *Driver) atBreakpoint() (bool, error) {
	bp, ok := d.Breakpoints[d.Cpu.PC]
	if !ok {
		return false, nil
	}
	if bp.Condition == "" {
		return true, nil
	}
	return condition.Eval(bp.Condition, d.Cpu.X, d.Cpu.PC)
}
