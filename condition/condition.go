// Package condition evaluates breakpoint guard expressions. A guard is a
// Starlark boolean expression with the hart's registers and program
// counter predeclared, letting a breakpoint fire only when, e.g.,
// "x10 == 5" holds.
package condition

import (
	"errors"
	"strconv"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/redplanet-sim/redplanet/translate"
)

var f = translate.From

// ErrNotBool is returned when a guard expression evaluates to something
// other than a Starlark bool.
var ErrNotBool = errors.New(f("breakpoint condition did not evaluate to a boolean"))

// Eval runs expr as a Starlark expression with x0..x31 and pc predeclared
// as integers, and reports whether the breakpoint should fire.
func Eval(expr string, regs [32]uint32, pc uint32) (bool, error) {
	pred := starlark.StringDict{}
	for i, v := range regs {
		pred["x"+strconv.Itoa(i)] = starlark.MakeInt(int(v))
	}
	pred["pc"] = starlark.MakeInt(int(pc))

	thread := &starlark.Thread{}
	opts := syntax.FileOptions{}
	prog := "rc = (" + expr + ")\n"

	dict, err := starlark.ExecFileOptions(&opts, thread, "condition", prog, pred)
	if err != nil {
		return false, err
	}

	rc, ok := dict["rc"]
	if !ok {
		return false, ErrNotBool
	}

	b, ok := rc.(starlark.Bool)
	if !ok {
		return false, ErrNotBool
	}

	return bool(b), nil
}
