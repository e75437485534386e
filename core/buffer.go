// Package core implements the rewriting engine: a sequence buffer with a
// cursor, pattern search, cursor-relative edits that keep labels attached, and
// a renderer that turns the buffer back into a flat instruction list.
//
// A buffer is owned by exactly one rewrite and is not safe for concurrent use.
package core

import (
	"io"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ilpatch/instr"
	"github.com/sarchlab/ilpatch/verify"
)

// node is one instruction slot. Nodes keep their identity across edits, so a
// pushed cursor survives inserts and removals elsewhere in the buffer.
type node struct {
	op      instr.Opcode
	operand instr.Operand

	prev, next *node
	removed    bool
}

func (n *node) inst() instr.Instruction {
	return instr.Instruction{Op: n.op, Operand: n.operand}
}

// Buffer holds the instructions of one method body under rewrite.
//
// The cursor is a position in [0, Len()]; Len() means "after the last
// instruction". Indices returned by earlier calls are invalid after any edit
// at or before them; use Push/Pop or search again instead.
type Buffer struct {
	*sim.HookableBase

	head, tail *node
	length     int

	cur *node // nil when the cursor is at the end
	pos int

	stack  []*node
	labels *labelTable

	logger *slog.Logger
	out    io.Writer
}

// CreateBuffer builds a buffer from a method body with default options.
func CreateBuffer(insts []instr.Instruction) (*Buffer, error) {
	return NewBuilder().Build(insts)
}

func (b *Buffer) load(insts []instr.Instruction) error {
	if len(insts) == 0 {
		return ErrEmptyInput
	}

	for i, inst := range insts {
		if err := verify.CheckShape(inst); err != nil {
			return invalidEdit("instruction #%d: %v", i, err)
		}
		for _, l := range inst.Labels {
			b.labels.define(l)
		}
	}

	for i, inst := range insts {
		for _, l := range inst.Operand.LabelRefs() {
			if !b.labels.known(l) {
				return invalidEdit("instruction #%d references undefined label %s", i, l)
			}
		}
	}

	for i, inst := range insts {
		n := &node{op: inst.Op, operand: inst.Operand.Clone()}
		b.link(n, nil)

		for _, l := range inst.Labels {
			if other, ok := b.labels.targetOf(l); ok && other != n {
				return invalidEdit("label %s targets more than one instruction (#%d)", l, i)
			}
			b.labels.attach(l, n)
		}
	}

	b.cur = b.head
	b.pos = 0

	return nil
}

// link inserts n before at, or at the tail when at is nil.
func (b *Buffer) link(n, at *node) {
	if at == nil {
		n.prev = b.tail
		if b.tail != nil {
			b.tail.next = n
		} else {
			b.head = n
		}
		b.tail = n
	} else {
		n.prev = at.prev
		n.next = at
		if at.prev != nil {
			at.prev.next = n
		} else {
			b.head = n
		}
		at.prev = n
	}
	b.length++
}

// unlink removes n from the list. n keeps its next pointer so that scans
// holding it can find the following survivor.
func (b *Buffer) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		b.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		b.tail = n.prev
	}
	n.prev = nil
	n.removed = true
	b.length--
}

// Len returns the number of instructions in the buffer.
func (b *Buffer) Len() int {
	return b.length
}

// Position returns the 0-based cursor position.
func (b *Buffer) Position() int {
	return b.pos
}

// AtEnd reports whether the cursor is past the last instruction.
func (b *Buffer) AtEnd() bool {
	return b.cur == nil
}

// Advance moves the cursor n instructions forward. Negative n moves back.
func (b *Buffer) Advance(n int) error {
	if n > b.length-b.pos || n < -b.pos {
		return outOfRange("advance %d from %d outside [0, %d]", n, b.pos, b.length)
	}

	b.step(n)
	return nil
}

// Retreat moves the cursor n instructions back. Negative n moves forward.
func (b *Buffer) Retreat(n int) error {
	if n > b.pos || n < b.pos-b.length {
		return outOfRange("retreat %d from %d outside [0, %d]", n, b.pos, b.length)
	}

	b.step(-n)
	return nil
}

// step moves the cursor by n. The caller has checked the target is in
// [0, Len()].
func (b *Buffer) step(n int) {
	b.pos += n
	for ; n > 0; n-- {
		b.cur = b.cur.next
	}
	for ; n < 0; n++ {
		if b.cur == nil {
			b.cur = b.tail
		} else {
			b.cur = b.cur.prev
		}
	}
}

// Seek moves the cursor to an absolute position.
func (b *Buffer) Seek(pos int) error {
	if pos < 0 || pos > b.length {
		return outOfRange("seek to %d outside [0, %d]", pos, b.length)
	}
	return b.Advance(pos - b.pos)
}

// Start moves the cursor to the first instruction.
func (b *Buffer) Start() {
	b.cur = b.head
	b.pos = 0
}

// End moves the cursor past the last instruction.
func (b *Buffer) End() {
	b.cur = nil
	b.pos = b.length
}

// Current returns a copy of the instruction under the cursor, labels
// included.
func (b *Buffer) Current() (instr.Instruction, error) {
	if b.cur == nil {
		return instr.Instruction{}, outOfRange("no instruction at end of buffer")
	}
	return b.instructionOf(b.cur), nil
}

// Push saves the cursor. The saved position follows its instruction through
// later edits.
func (b *Buffer) Push() {
	b.stack = append(b.stack, b.cur)
}

// Pop restores the most recently pushed cursor. It fails if nothing was
// pushed or the saved instruction has since been removed; the entry is
// discarded either way.
func (b *Buffer) Pop() error {
	if len(b.stack) == 0 {
		return outOfRange("pop with empty cursor stack")
	}

	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	if n == nil {
		b.End()
		return nil
	}
	if n.removed {
		return outOfRange("pushed instruction was removed")
	}

	b.moveTo(n)
	return nil
}

// moveTo places the cursor on a live node (nil for the end).
func (b *Buffer) moveTo(n *node) {
	b.cur = n
	b.pos = b.indexOf(n)
}

// indexOf returns the position of a live node, or Len() for nil.
func (b *Buffer) indexOf(n *node) int {
	if n == nil {
		return b.length
	}
	i := 0
	for it := b.head; it != nil; it = it.next {
		if it == n {
			return i
		}
		i++
	}
	panic("node not in buffer")
}

// survivor returns n if it is live, else the first live node that followed
// it when it was removed.
func survivor(n *node) *node {
	for n != nil && n.removed {
		n = n.next
	}
	return n
}

func (b *Buffer) instructionOf(n *node) instr.Instruction {
	return instr.Instruction{
		Op:      n.op,
		Operand: n.operand.Clone(),
		Labels:  b.labels.labelsOf(n),
	}
}
