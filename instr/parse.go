package instr

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads one instruction in listing syntax:
//
//	[L1[,L2]:] MNEMONIC [operand]
//
// Operands are written as 42, 1.5, "text", type:Name, member:Type::name,
// @L3 or [@L1 @L2]. A bare word is taken as a member or type reference when
// the opcode accepts one.
func Parse(line string) (Instruction, error) {
	var inst Instruction

	text := strings.TrimSpace(line)
	if head, rest, ok := cutLabelPrefix(text); ok {
		labels, err := parseLabelList(head)
		if err != nil {
			return inst, fmt.Errorf("%q: %w", line, err)
		}
		inst.Labels = labels
		text = strings.TrimSpace(rest)
	}

	mnemonic, operandText, _ := strings.Cut(text, " ")
	op, err := ParseOpcode(mnemonic)
	if err != nil {
		return inst, fmt.Errorf("%q: %w", line, err)
	}
	inst.Op = op

	operand, err := ParseOperand(op, operandText)
	if err != nil {
		return inst, fmt.Errorf("%q: %w", line, err)
	}
	inst.Operand = operand

	return inst, nil
}

// ParseListing parses one instruction per entry.
func ParseListing(lines []string) ([]Instruction, error) {
	insts := make([]Instruction, 0, len(lines))
	for n, line := range lines {
		inst, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", n, err)
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

// ParseOperand parses operand text in the context of op.
func ParseOperand(op Opcode, text string) (Operand, error) {
	o, err := parseOperandText(op, strings.TrimSpace(text))
	if err != nil {
		return o, err
	}
	if !op.Accepts(o.Kind) {
		return o, fmt.Errorf("%s does not take a %s operand", op, o.Kind)
	}
	return o, nil
}

func parseOperandText(op Opcode, text string) (Operand, error) {
	switch {
	case text == "":
		return NoOperand(), nil
	case strings.HasPrefix(text, `"`):
		s, err := strconv.Unquote(text)
		if err != nil {
			return Operand{}, fmt.Errorf("bad string literal %s", text)
		}
		return StringOperand(s), nil
	case strings.HasPrefix(text, "type:"):
		return TypeOperand(strings.TrimPrefix(text, "type:")), nil
	case strings.HasPrefix(text, "member:"):
		return MemberOperand(strings.TrimPrefix(text, "member:")), nil
	case strings.HasPrefix(text, "@"):
		l, err := ParseLabel(text[1:])
		if err != nil {
			return Operand{}, err
		}
		return LabelOperand(l), nil
	case strings.HasPrefix(text, "["):
		if !strings.HasSuffix(text, "]") {
			return Operand{}, fmt.Errorf("unterminated jump table %s", text)
		}
		return parseTable(text[1 : len(text)-1])
	}

	if n, ok := parseNumber(text); ok {
		return n, nil
	}

	switch {
	case op.Accepts(Member):
		return MemberOperand(text), nil
	case op.Accepts(Type):
		return TypeOperand(text), nil
	}

	return Operand{}, fmt.Errorf("cannot parse operand %q for %s", text, op)
}

func parseNumber(text string) (Operand, bool) {
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		return IntOperand(v), true
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return FloatOperand(v), true
	}
	return Operand{}, false
}

func parseTable(body string) (Operand, error) {
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ' ' || r == ','
	})
	labels := make([]LabelID, 0, len(fields))
	for _, f := range fields {
		l, err := ParseLabel(strings.TrimPrefix(f, "@"))
		if err != nil {
			return Operand{}, err
		}
		labels = append(labels, l)
	}
	return TableOperand(labels...), nil
}

// ParseLabel reads a label written as L<n>.
func ParseLabel(text string) (LabelID, error) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || (text[0] != 'L' && text[0] != 'l') {
		return 0, fmt.Errorf("bad label %q", text)
	}
	n, err := strconv.Atoi(text[1:])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad label %q", text)
	}
	return LabelID(n), nil
}

func parseLabelList(text string) ([]LabelID, error) {
	var labels []LabelID
	for _, part := range strings.Split(text, ",") {
		l, err := ParseLabel(part)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// cutLabelPrefix splits "L1,L2: OP" at the colon. Colons inside operands
// (member:Type::name) are not label prefixes.
func cutLabelPrefix(text string) (string, string, bool) {
	head, rest, ok := strings.Cut(text, ":")
	if !ok || head == "" || strings.ContainsAny(head, " \"@[") {
		return "", text, false
	}
	if head[0] != 'L' && head[0] != 'l' {
		return "", text, false
	}
	return head, rest, true
}

// ParseElem reads one pattern element:
//
//	*               any instruction
//	OP | OP *       OP with any operand
//	A|B [*]         any of A, B
//	OP operand      OP with exactly operand
func ParseElem(text string) (Elem, error) {
	text = strings.TrimSpace(text)
	if text == "*" {
		return Any(), nil
	}

	opsText, operandText, _ := strings.Cut(text, " ")
	var ops []Opcode
	for _, name := range strings.Split(opsText, "|") {
		op, err := ParseOpcode(name)
		if err != nil {
			return Elem{}, fmt.Errorf("pattern %q: %w", text, err)
		}
		ops = append(ops, op)
	}

	e := Elem{Kind: MatchExact, Ops: ops}
	if len(ops) > 1 {
		e.Kind = MatchAnyOf
	}

	operandText = strings.TrimSpace(operandText)
	if operandText == "" || operandText == "*" {
		return e, nil
	}

	operand, err := ParseOperand(ops[0], operandText)
	if err != nil {
		return Elem{}, fmt.Errorf("pattern %q: %w", text, err)
	}
	e.Operand = &operand
	return e, nil
}

// ParsePattern parses one element per entry.
func ParsePattern(elems []string) (Pattern, error) {
	if len(elems) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	p := make(Pattern, 0, len(elems))
	for _, text := range elems {
		e, err := ParseElem(text)
		if err != nil {
			return nil, err
		}
		p = append(p, e)
	}
	return p, nil
}
