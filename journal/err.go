package journal

import (
	"errors"

	"github.com/redplanet-sim/redplanet/translate"
)

var f = translate.From

var (
	// ErrNoHistory is returned by RevertOne/Goto when asked to revert past
	// the oldest retained frame.
	ErrNoHistory = errors.New(f("no history"))
	// ErrNoOpenFrame is returned by Record/Commit when no frame is
	// currently open.
	ErrNoOpenFrame = errors.New(f("no open frame"))
	// ErrFrameOpen is returned by BeginFrame when a frame is already open.
	ErrFrameOpen = errors.New(f("frame already open"))
	// ErrDivergentGoto is returned by Goto when the target step is ahead
	// of the current step; the journal holds no redo data, so the caller
	// must re-execute forward itself.
	ErrDivergentGoto = errors.New(f("goto target ahead of current step"))
)
