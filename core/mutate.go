package core

import (
	"github.com/sarchlab/ilpatch/instr"
	"github.com/sarchlab/ilpatch/verify"
)

// checkRefs verifies that every label referenced by inst is known, either to
// the table or as one of the labels in pending.
func (b *Buffer) checkRefs(inst instr.Instruction, pending map[instr.LabelID]bool) error {
	if err := verify.CheckShape(inst); err != nil {
		return invalidEdit("%v", err)
	}
	for _, l := range inst.Operand.LabelRefs() {
		if !b.labels.known(l) && !pending[l] {
			return invalidEdit("%s references undefined label %s", inst.Op, l)
		}
	}
	return nil
}

// checkAttachable verifies l can be attached to n: it is either free or
// already on n.
func (b *Buffer) checkAttachable(l instr.LabelID, n *node) error {
	if other, ok := b.labels.targetOf(l); ok && other != n {
		return invalidEdit("label %s already targets #%d", l, b.indexOf(other))
	}
	return nil
}

// Insert splices insts immediately before the cursor and moves the cursor
// past them, so it still points at the same instruction. Labels on that
// instruction stay on it. Labels carried by insts are attached to the new
// instructions; they must not target anything yet.
func (b *Buffer) Insert(insts ...instr.Instruction) error {
	if len(insts) == 0 {
		return nil
	}

	pending := make(map[instr.LabelID]bool)
	for _, inst := range insts {
		for _, l := range inst.Labels {
			if pending[l] {
				return invalidEdit("label %s attached twice in inserted run", l)
			}
			if err := b.checkAttachable(l, nil); err != nil {
				return err
			}
			pending[l] = true
		}
	}
	for _, inst := range insts {
		if err := b.checkRefs(inst, pending); err != nil {
			return err
		}
	}

	start := b.pos
	for _, inst := range insts {
		n := &node{op: inst.Op, operand: inst.Operand.Clone()}
		b.link(n, b.cur)
		for _, l := range inst.Labels {
			b.labels.attach(l, n)
		}
	}
	b.pos += len(insts)

	b.trace("Insert", "Count", len(insts), "At", start)
	b.invoke(HookPosInsert, instr.CloneAll(insts), start)

	return nil
}

// Remove deletes n instructions starting at the cursor. Labels targeting a
// removed instruction move to the first instruction after the removed run.
// If a removed instruction is a label target and nothing follows the run, the
// edit is rejected and the buffer is unchanged. The cursor ends on the
// instruction that followed the run.
func (b *Buffer) Remove(n int) error {
	if n < 0 {
		return invalidEdit("remove %d instructions", n)
	}
	if n == 0 {
		return nil
	}
	if n > b.length-b.pos {
		return outOfRange("remove %d at %d with %d instructions", n, b.pos, b.length)
	}

	run := make([]*node, 0, n)
	labeled := false
	it := b.cur
	for i := 0; i < n; i++ {
		run = append(run, it)
		labeled = labeled || b.labels.hasLabels(it)
		it = it.next
	}

	after := it
	if labeled && after == nil {
		return invalidEdit("removing a label target at the end of the body")
	}

	removed := make([]instr.Instruction, 0, n)
	for _, r := range run {
		removed = append(removed, b.instructionOf(r))
		b.labels.move(r, after)
		b.unlink(r)
	}
	b.cur = after

	b.trace("Remove", "Count", n, "At", b.pos)
	b.invoke(HookPosRemove, removed, b.pos)

	return nil
}

// RemoveUntil removes instructions from the cursor up to, not including, the
// next match of p. It returns how many were removed.
func (b *Buffer) RemoveUntil(p instr.Pattern) (int, error) {
	cur, pos := b.cur, b.pos
	m, err := b.FindNext(p)
	if err != nil {
		return 0, err
	}

	b.cur, b.pos = cur, pos
	count := m.Start - pos
	if err := b.Remove(count); err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceOperand swaps the operand of the instruction under the cursor.
// Opcode and labels are untouched.
func (b *Buffer) ReplaceOperand(operand instr.Operand) error {
	if b.cur == nil {
		return outOfRange("replace operand at end of buffer")
	}

	inst := instr.Instruction{Op: b.cur.op, Operand: operand}
	if err := b.checkRefs(inst, nil); err != nil {
		return err
	}

	b.cur.operand = operand.Clone()

	b.trace("ReplaceOperand", "At", b.pos, "Operand", operand.String())
	b.invoke(HookPosReplace, b.instructionOf(b.cur), b.pos)

	return nil
}

// ReplaceInstruction swaps the whole instruction under the cursor. The
// labels of the old instruction stay at this position; labels carried by
// inst are attached in addition.
func (b *Buffer) ReplaceInstruction(inst instr.Instruction) error {
	if b.cur == nil {
		return outOfRange("replace instruction at end of buffer")
	}

	pending := make(map[instr.LabelID]bool)
	for _, l := range inst.Labels {
		if err := b.checkAttachable(l, b.cur); err != nil {
			return err
		}
		pending[l] = true
	}
	if err := b.checkRefs(inst, pending); err != nil {
		return err
	}

	b.cur.op = inst.Op
	b.cur.operand = inst.Operand.Clone()
	for _, l := range inst.Labels {
		b.labels.attach(l, b.cur)
	}

	b.trace("ReplaceInstruction", "At", b.pos, "Inst", inst.String())
	b.invoke(HookPosReplace, b.instructionOf(b.cur), b.pos)

	return nil
}

// DefineLabel allocates a label that is not yet attached anywhere.
func (b *Buffer) DefineLabel() instr.LabelID {
	return b.labels.fresh()
}

// AttachLabel makes the instruction under the cursor the target of l. The
// label must be defined and not target another instruction.
func (b *Buffer) AttachLabel(l instr.LabelID) error {
	if b.cur == nil {
		return outOfRange("attach label at end of buffer")
	}
	if !b.labels.known(l) {
		return invalidEdit("label %s is not defined", l)
	}
	if err := b.checkAttachable(l, b.cur); err != nil {
		return err
	}

	b.labels.attach(l, b.cur)

	b.trace("AttachLabel", "At", b.pos, "Label", l.String())
	b.invoke(HookPosLabel, []instr.LabelID{l}, b.pos)

	return nil
}

// DefineAndAttachLabel defines a label targeting the instruction under the
// cursor.
func (b *Buffer) DefineAndAttachLabel() (instr.LabelID, error) {
	if b.cur == nil {
		return 0, outOfRange("attach label at end of buffer")
	}

	l := b.labels.fresh()
	b.labels.attach(l, b.cur)

	b.trace("AttachLabel", "At", b.pos, "Label", l.String())
	b.invoke(HookPosLabel, []instr.LabelID{l}, b.pos)

	return l, nil
}

// LabelsAt returns the labels targeting the instruction under the cursor.
func (b *Buffer) LabelsAt() []instr.LabelID {
	if b.cur == nil {
		return nil
	}
	return b.labels.labelsOf(b.cur)
}

// ExtractLabels detaches every label from the instruction under the cursor
// and returns them. The labels stay defined; they must be attached again,
// typically through Insert, before Render if any branch uses them.
func (b *Buffer) ExtractLabels() ([]instr.LabelID, error) {
	if b.cur == nil {
		return nil, outOfRange("extract labels at end of buffer")
	}

	labels := b.labels.detachAll(b.cur)
	if len(labels) > 0 {
		b.trace("ExtractLabels", "At", b.pos, "Count", len(labels))
		b.invoke(HookPosLabel, labels, b.pos)
	}

	return labels, nil
}

// Copy returns copies of n instructions starting at the cursor, without
// their labels. The cursor does not move.
func (b *Buffer) Copy(n int) ([]instr.Instruction, error) {
	if n < 0 || n > b.length-b.pos {
		return nil, outOfRange("copy %d at %d with %d instructions", n, b.pos, b.length)
	}

	out := make([]instr.Instruction, 0, n)
	it := b.cur
	for i := 0; i < n; i++ {
		out = append(out, instr.Instruction{Op: it.op, Operand: it.operand.Clone()})
		it = it.next
	}
	return out, nil
}
