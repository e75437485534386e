// Package instr models the instructions of a compiled method body and the
// patterns used to locate sites inside it.
package instr

import (
	"slices"
	"strings"
)

// Instruction is one operation of a method body.
//
// Labels lists the labels that target this instruction. Branches refer to
// instructions only through labels, never through positions.
type Instruction struct {
	Op      Opcode
	Operand Operand
	Labels  []LabelID
}

// New creates an instruction without labels.
func New(op Opcode, operand Operand) Instruction {
	return Instruction{Op: op, Operand: operand}
}

// Simple creates an instruction that takes no operand.
func Simple(op Opcode) Instruction {
	return Instruction{Op: op}
}

// Branch creates a branch to l.
func Branch(op Opcode, l LabelID) Instruction {
	return Instruction{Op: op, Operand: LabelOperand(l)}
}

// WithLabels returns a copy of i that is also targeted by ls.
func (i Instruction) WithLabels(ls ...LabelID) Instruction {
	i = i.Clone()
	i.Labels = append(i.Labels, ls...)
	return i
}

// IsBranch reports whether the instruction references labels.
func (i Instruction) IsBranch() bool {
	return i.Op.IsBranch()
}

// Clone returns a deep copy of i.
func (i Instruction) Clone() Instruction {
	i.Operand = i.Operand.Clone()
	i.Labels = slices.Clone(i.Labels)
	return i
}

// Equal compares opcode, operand and the label set.
func (i Instruction) Equal(other Instruction) bool {
	if i.Op != other.Op || !i.Operand.Equal(other.Operand) {
		return false
	}
	a := slices.Clone(i.Labels)
	b := slices.Clone(other.Labels)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// String formats the instruction in listing syntax, e.g. "L1: BR @L2".
func (i Instruction) String() string {
	var sb strings.Builder
	if len(i.Labels) > 0 {
		for n, l := range i.Labels {
			if n > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(l.String())
		}
		sb.WriteString(": ")
	}
	sb.WriteString(i.Op.String())
	if i.Operand.Kind != None {
		sb.WriteByte(' ')
		sb.WriteString(i.Operand.String())
	}
	return sb.String()
}

// CloneAll deep copies a sequence of instructions.
func CloneAll(insts []Instruction) []Instruction {
	out := make([]Instruction, len(insts))
	for n, i := range insts {
		out[n] = i.Clone()
	}
	return out
}
