package cpu

import (
	"errors"

	"github.com/redplanet-sim/redplanet/translate"
)

var f = translate.From

var (
	// ErrIllegalInstruction is the decode-time sentinel Decode returns for
	// an unknown major opcode; Step turns it into a trap with mcause
	// CauseIllegalInstruction.
	ErrIllegalInstruction = errors.New(f("illegal instruction"))
	// ErrHalted is returned by Step when called after the power device
	// has already latched a halt.
	ErrHalted = errors.New(f("cpu halted"))
)
