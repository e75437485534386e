package core

import (
	"github.com/sarchlab/ilpatch/instr"
	"github.com/sarchlab/ilpatch/verify"
)

// Render materializes the whole buffer, ignoring the cursor. Each
// instruction carries the labels that target it, in ascending order. It fails
// with a *RenderError if a branch references a label that targets nothing.
// Render does not change the buffer and returns equal results when called
// again without edits in between.
func (b *Buffer) Render() ([]instr.Instruction, error) {
	out := make([]instr.Instruction, 0, b.length)
	for n := b.head; n != nil; n = n.next {
		out = append(out, b.instructionOf(n))
	}

	if issues := verify.CheckLabels(out); len(issues) > 0 {
		issue := issues[0]
		return nil, &RenderError{
			Label:    issue.Label,
			Position: issue.Position,
			Message:  issue.Message,
		}
	}

	b.trace("Render", "Count", len(out))
	b.invoke(HookPosRender, out, nil)

	return out, nil
}
