package driver

import (
	"errors"

	"github.com/redplanet-sim/redplanet/translate"
)

var f = translate.From

var (
	// ErrHalted is returned by Step/Continue when the power device has
	// already latched a halt.
	ErrHalted = errors.New(f("simulator halted"))
	// ErrNotPaused reports that an operation needs the Paused state. No
	// Driver method returns it: Driver methods do not check the state
	// before acting, apart from the Halted check in Step and Continue.
	ErrNotPaused = errors.New(f("driver is not paused"))
)
