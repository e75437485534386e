package instr

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// OperandKind tags the variant held by an Operand.
type OperandKind uint8

const (
	None   OperandKind = iota // no operand
	Int                       // integer constant or index
	Float                     // floating point constant
	String                    // string literal
	Type                      // type reference
	Member                    // field or method reference, "Type::name"
	Label                     // reference to the instruction a label targets
	Labels                    // jump table
)

func (k OperandKind) String() string {
	switch k {
	case None:
		return "none"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Type:
		return "type"
	case Member:
		return "member"
	case Label:
		return "label"
	case Labels:
		return "labels"
	default:
		return fmt.Sprintf("OperandKind(%d)", uint8(k))
	}
}

// LabelID is an opaque handle naming a branch target.
type LabelID int

func (l LabelID) String() string {
	return "L" + strconv.Itoa(int(l))
}

// Operand is a closed variant. Only the field matching Kind is meaningful.
type Operand struct {
	Kind   OperandKind
	Int    int64
	Float  float64
	Str    string
	Labels []LabelID
}

// NoOperand returns the empty operand.
func NoOperand() Operand { return Operand{} }

// IntOperand returns an integer operand.
func IntOperand(v int64) Operand { return Operand{Kind: Int, Int: v} }

// FloatOperand returns a floating point operand.
func FloatOperand(v float64) Operand { return Operand{Kind: Float, Float: v} }

// StringOperand returns a string literal operand.
func StringOperand(s string) Operand { return Operand{Kind: String, Str: s} }

// TypeOperand returns a type reference.
func TypeOperand(name string) Operand { return Operand{Kind: Type, Str: name} }

// MemberOperand returns a field or method reference.
func MemberOperand(name string) Operand { return Operand{Kind: Member, Str: name} }

// LabelOperand returns a branch reference to l.
func LabelOperand(l LabelID) Operand {
	return Operand{Kind: Label, Labels: []LabelID{l}}
}

// TableOperand returns a jump table referencing ls in order.
func TableOperand(ls ...LabelID) Operand {
	return Operand{Kind: Labels, Labels: slices.Clone(ls)}
}

// LabelRefs returns the labels the operand references, if any.
func (o Operand) LabelRefs() []LabelID {
	if o.Kind != Label && o.Kind != Labels {
		return nil
	}
	return o.Labels
}

// Clone returns a copy that shares no memory with o.
func (o Operand) Clone() Operand {
	o.Labels = slices.Clone(o.Labels)
	return o
}

// Equal compares two operands by kind and value. NaN floats compare equal to
// each other so that a pattern can look for them.
func (o Operand) Equal(other Operand) bool {
	if o.Kind != other.Kind {
		return false
	}

	switch o.Kind {
	case None:
		return true
	case Int:
		return o.Int == other.Int
	case Float:
		if math.IsNaN(o.Float) && math.IsNaN(other.Float) {
			return true
		}
		return o.Float == other.Float
	case String, Type, Member:
		return o.Str == other.Str
	case Label, Labels:
		return slices.Equal(o.Labels, other.Labels)
	}

	return false
}

func (o Operand) String() string {
	switch o.Kind {
	case None:
		return ""
	case Int:
		return strconv.FormatInt(o.Int, 10)
	case Float:
		s := strconv.FormatFloat(o.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case String:
		return strconv.Quote(o.Str)
	case Type:
		return "type:" + o.Str
	case Member:
		return "member:" + o.Str
	case Label:
		if len(o.Labels) == 0 {
			return "@?"
		}
		return "@" + o.Labels[0].String()
	case Labels:
		parts := make([]string, len(o.Labels))
		for i, l := range o.Labels {
			parts[i] = "@" + l.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return fmt.Sprintf("<%s>", o.Kind)
}
