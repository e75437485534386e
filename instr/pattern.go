package instr

import (
	"slices"
	"strings"
)

// MatchKind selects how a pattern element tests its slot.
type MatchKind uint8

const (
	MatchExact    MatchKind = iota // one opcode
	MatchAnyOf                     // any opcode of a set
	MatchOperand                   // operand predicate, optionally restricted to opcodes
	MatchWildcard                  // anything
)

// Elem matches a single instruction slot.
type Elem struct {
	Kind    MatchKind
	Ops     []Opcode
	Operand *Operand
	Pred    func(Operand) bool
}

// Op matches op with any operand.
func Op(op Opcode) Elem {
	return Elem{Kind: MatchExact, Ops: []Opcode{op}}
}

// OpWith matches op carrying exactly operand.
func OpWith(op Opcode, operand Operand) Elem {
	o := operand.Clone()
	return Elem{Kind: MatchExact, Ops: []Opcode{op}, Operand: &o}
}

// AnyOf matches any of ops.
func AnyOf(ops ...Opcode) Elem {
	return Elem{Kind: MatchAnyOf, Ops: slices.Clone(ops)}
}

// Where matches any instruction whose operand satisfies pred.
func Where(pred func(Operand) bool) Elem {
	return Elem{Kind: MatchOperand, Pred: pred}
}

// WhereOp matches op when its operand satisfies pred.
func WhereOp(op Opcode, pred func(Operand) bool) Elem {
	return Elem{Kind: MatchOperand, Ops: []Opcode{op}, Pred: pred}
}

// Any matches every instruction.
func Any() Elem {
	return Elem{Kind: MatchWildcard}
}

// Matches tests inst against the element.
func (e Elem) Matches(inst Instruction) bool {
	switch e.Kind {
	case MatchWildcard:
		return true
	case MatchExact, MatchAnyOf:
		if !slices.Contains(e.Ops, inst.Op) {
			return false
		}
		return e.Operand == nil || e.Operand.Equal(inst.Operand)
	case MatchOperand:
		if len(e.Ops) > 0 && !slices.Contains(e.Ops, inst.Op) {
			return false
		}
		return e.Pred != nil && e.Pred(inst.Operand)
	}
	return false
}

func (e Elem) String() string {
	var ops string
	switch e.Kind {
	case MatchWildcard:
		return "*"
	case MatchOperand:
		if len(e.Ops) == 0 {
			return "? <pred>"
		}
	}

	names := make([]string, len(e.Ops))
	for n, op := range e.Ops {
		names[n] = op.String()
	}
	ops = strings.Join(names, "|")

	switch {
	case e.Kind == MatchOperand:
		return ops + " <pred>"
	case e.Operand != nil:
		return ops + " " + e.Operand.String()
	default:
		return ops + " *"
	}
}

// Pattern is an ordered run of elements matched against contiguous
// instructions.
type Pattern []Elem

// MatchAt reports whether p matches insts starting at index i.
func (p Pattern) MatchAt(insts []Instruction, i int) bool {
	if len(p) == 0 || i < 0 || i+len(p) > len(insts) {
		return false
	}
	for n, e := range p {
		if !e.Matches(insts[i+n]) {
			return false
		}
	}
	return true
}

func (p Pattern) String() string {
	parts := make([]string, len(p))
	for n, e := range p {
		parts[n] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
