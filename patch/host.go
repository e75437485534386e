// Package patch applies rewrites to the method bodies of a host.
//
// Every rewrite runs on its own buffer. A rewrite that fails for any reason,
// including a panic inside the patch, is logged and skipped; the host method
// keeps its previous body and the remaining patches still run.
package patch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/ilpatch/instr"
)

// ErrUnknownMethod is returned by a host that has no body for a method.
var ErrUnknownMethod = errors.New("unknown method")

// Host provides the method bodies that patches rewrite.
type Host interface {
	// Body returns the current instructions of the method. The caller owns
	// the returned slice.
	Body(method string) ([]instr.Instruction, error)

	// Install replaces the body of the method. Later calls to Body return
	// the installed instructions.
	Install(method string, body []instr.Instruction) error
}

// MemHost keeps method bodies in memory.
type MemHost struct {
	bodies map[string][]instr.Instruction
}

// NewMemHost creates an empty MemHost.
func NewMemHost() *MemHost {
	return &MemHost{bodies: make(map[string][]instr.Instruction)}
}

// Add registers the body of a method, replacing any previous one.
func (h *MemHost) Add(method string, body []instr.Instruction) {
	h.bodies[method] = instr.CloneAll(body)
}

// Body returns a copy of the body of method.
func (h *MemHost) Body(method string) ([]instr.Instruction, error) {
	body, ok := h.bodies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return instr.CloneAll(body), nil
}

// Install replaces the body of a known method.
func (h *MemHost) Install(method string, body []instr.Instruction) error {
	if _, ok := h.bodies[method]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	h.bodies[method] = instr.CloneAll(body)
	return nil
}

// Methods lists the known methods in name order.
func (h *MemHost) Methods() []string {
	names := make([]string, 0, len(h.bodies))
	for name := range h.bodies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
