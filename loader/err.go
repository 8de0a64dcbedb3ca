package loader

import (
	"errors"

	"github.com/redplanet-sim/redplanet/translate"
)

var f = translate.From

var (
	// ErrUnsupportedElf is returned for anything but a 32-bit
	// little-endian ELF.
	ErrUnsupportedElf = errors.New(f("unsupported ELF class or byte order"))
	// ErrBadSignatureRegion is returned when begin_signature is after
	// end_signature.
	ErrBadSignatureRegion = errors.New(f("begin_signature is after end_signature"))
)
