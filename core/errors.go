package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ilpatch/instr"
)

// Rewrite errors. All of them abort one rewrite only; the caller is expected
// to leave the original method body in place.
var (
	// ErrEmptyInput indicates a buffer was requested for an empty body.
	ErrEmptyInput = errors.New("empty instruction list")

	// ErrPatternNotFound indicates the expected structural shape is absent,
	// usually because the host version changed.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrCursorOutOfRange indicates a cursor move or edit past either end of
	// the buffer.
	ErrCursorOutOfRange = errors.New("cursor out of range")

	// ErrInvalidEdit indicates an edit would orphan a label or otherwise
	// break structural well-formedness.
	ErrInvalidEdit = errors.New("invalid edit")

	// ErrRender indicates an unresolved label at serialization time.
	ErrRender = errors.New("render failed")
)

// RenderError reports the label that could not be resolved.
type RenderError struct {
	Label    instr.LabelID
	Position int // index of the referencing instruction
	Message  string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed: label %s at #%d: %s", e.Label, e.Position, e.Message)
}

// Unwrap lets errors.Is match ErrRender.
func (e *RenderError) Unwrap() error {
	return ErrRender
}

func invalidEdit(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidEdit, fmt.Sprintf(format, args...))
}

func outOfRange(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrCursorOutOfRange, fmt.Sprintf(format, args...))
}
