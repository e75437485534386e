package patch

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ilpatch/core"
	"github.com/sarchlab/ilpatch/instr"
)

var (
	// ErrPanic wraps a panic raised while a patch was running.
	ErrPanic = errors.New("patch panicked")

	// ErrHost marks failures reported by the host rather than the rewrite.
	ErrHost = errors.New("host error")

	// ErrNoApply is returned for a patch without an Apply function.
	ErrNoApply = errors.New("patch has no apply function")
)

// Patch is one rewrite of one host method.
type Patch struct {
	// Name identifies the patch in logs and reports.
	Name string

	// Method is the host method the patch rewrites.
	Method string

	// Apply edits the buffer. The cursor is at 0 when it is called.
	Apply func(b *core.Buffer) error
}

// Transpile runs apply on a fresh buffer holding insts and returns the
// rendered result. insts is not modified.
func Transpile(
	insts []instr.Instruction,
	apply func(b *core.Buffer) error,
) ([]instr.Instruction, error) {
	return transpile(core.NewBuilder(), insts, apply)
}

func transpile(
	builder core.Builder,
	insts []instr.Instruction,
	apply func(b *core.Buffer) error,
) (out []instr.Instruction, err error) {
	if apply == nil {
		return nil, ErrNoApply
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	b, err := builder.Build(insts)
	if err != nil {
		return nil, err
	}

	if err := apply(b); err != nil {
		return nil, err
	}

	return b.Render()
}

// sameBody compares two bodies instruction by instruction. Label order on an
// instruction does not matter.
func sameBody(a, b []instr.Instruction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
