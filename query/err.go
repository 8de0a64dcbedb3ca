package query

import (
	"errors"

	"github.com/redplanet-sim/redplanet/translate"
)

var f = translate.From

// ErrBadRegister is returned for a register index outside [0,32] ∪ {PCIndex}.
var ErrBadRegister = errors.New(f("register index out of range"))
