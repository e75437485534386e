package instr

import (
	"fmt"
	"strings"
)

// Opcode represents the operation code for an instruction.
type Opcode uint8

const (
	NOP Opcode = iota
	LOAD
	STORE_ARG
	LOAD_LOCAL
	STORE_LOCAL
	LOAD_FIELD
	LOAD_FIELD_ADDR
	STORE_FIELD
	LOAD_STATIC
	CONST
	LOAD_STR
	LOAD_NULL
	ADD
	SUB
	MUL
	DIV
	REM
	NEG
	AND
	OR
	XOR
	NOT
	SHL
	SHR
	CEQ
	CGT
	CLT
	CALL
	CALL_VIRT
	NEW_OBJ
	CAST
	IS_INST
	BOX
	UNBOX
	DUP
	POP
	RET
	THROW
	BR
	BR_TRUE
	BR_FALSE
	BEQ
	BNE
	BLT
	BLE
	BGT
	BGE
	SWITCH
	LEAVE

	numOpcodes
)

// kinds is a bit set of operand kinds an opcode accepts.
type kinds uint16

func kindSet(ks ...OperandKind) kinds {
	var s kinds
	for _, k := range ks {
		s |= 1 << k
	}
	return s
}

func (s kinds) has(k OperandKind) bool {
	return s&(1<<k) != 0
}

type opInfo struct {
	name     string
	branch   bool
	operands kinds
}

var (
	noOperand  = kindSet(None)
	intOperand = kindSet(Int)
	typeRef    = kindSet(Type)
	memberRef  = kindSet(Member)
	labelRef   = kindSet(Label)
)

var opTable = [numOpcodes]opInfo{
	NOP:             {name: "NOP", operands: noOperand},
	LOAD:            {name: "LOAD", operands: intOperand},
	STORE_ARG:       {name: "STORE_ARG", operands: intOperand},
	LOAD_LOCAL:      {name: "LOAD_LOCAL", operands: intOperand},
	STORE_LOCAL:     {name: "STORE_LOCAL", operands: intOperand},
	LOAD_FIELD:      {name: "LOAD_FIELD", operands: memberRef},
	LOAD_FIELD_ADDR: {name: "LOAD_FIELD_ADDR", operands: memberRef},
	STORE_FIELD:     {name: "STORE_FIELD", operands: memberRef},
	LOAD_STATIC:     {name: "LOAD_STATIC", operands: memberRef},
	CONST:           {name: "CONST", operands: kindSet(Int, Float)},
	LOAD_STR:        {name: "LOAD_STR", operands: kindSet(String)},
	LOAD_NULL:       {name: "LOAD_NULL", operands: noOperand},
	ADD:             {name: "ADD", operands: noOperand},
	SUB:             {name: "SUB", operands: noOperand},
	MUL:             {name: "MUL", operands: noOperand},
	DIV:             {name: "DIV", operands: noOperand},
	REM:             {name: "REM", operands: noOperand},
	NEG:             {name: "NEG", operands: noOperand},
	AND:             {name: "AND", operands: noOperand},
	OR:              {name: "OR", operands: noOperand},
	XOR:             {name: "XOR", operands: noOperand},
	NOT:             {name: "NOT", operands: noOperand},
	SHL:             {name: "SHL", operands: noOperand},
	SHR:             {name: "SHR", operands: noOperand},
	CEQ:             {name: "CEQ", operands: noOperand},
	CGT:             {name: "CGT", operands: noOperand},
	CLT:             {name: "CLT", operands: noOperand},
	CALL:            {name: "CALL", operands: memberRef},
	CALL_VIRT:       {name: "CALL_VIRT", operands: memberRef},
	NEW_OBJ:         {name: "NEW_OBJ", operands: memberRef},
	CAST:            {name: "CAST", operands: typeRef},
	IS_INST:         {name: "IS_INST", operands: typeRef},
	BOX:             {name: "BOX", operands: typeRef},
	UNBOX:           {name: "UNBOX", operands: typeRef},
	DUP:             {name: "DUP", operands: noOperand},
	POP:             {name: "POP", operands: noOperand},
	RET:             {name: "RET", operands: noOperand},
	THROW:           {name: "THROW", operands: noOperand},
	BR:              {name: "BR", branch: true, operands: labelRef},
	BR_TRUE:         {name: "BR_TRUE", branch: true, operands: labelRef},
	BR_FALSE:        {name: "BR_FALSE", branch: true, operands: labelRef},
	BEQ:             {name: "BEQ", branch: true, operands: labelRef},
	BNE:             {name: "BNE", branch: true, operands: labelRef},
	BLT:             {name: "BLT", branch: true, operands: labelRef},
	BLE:             {name: "BLE", branch: true, operands: labelRef},
	BGT:             {name: "BGT", branch: true, operands: labelRef},
	BGE:             {name: "BGE", branch: true, operands: labelRef},
	SWITCH:          {name: "SWITCH", branch: true, operands: kindSet(Labels)},
	LEAVE:           {name: "LEAVE", branch: true, operands: labelRef},
}

var opByName = func() map[string]Opcode {
	m := make(map[string]Opcode, numOpcodes)
	for op := Opcode(0); op < numOpcodes; op++ {
		m[opTable[op].name] = op
	}
	return m
}()

// Valid reports whether op is one of the defined opcodes.
func (op Opcode) Valid() bool {
	return op < numOpcodes
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
	return opTable[op].name
}

// IsBranch reports whether the opcode transfers control to a label.
func (op Opcode) IsBranch() bool {
	return op.Valid() && opTable[op].branch
}

// Accepts reports whether an operand of kind k is legal for op.
func (op Opcode) Accepts(k OperandKind) bool {
	return op.Valid() && opTable[op].operands.has(k)
}

// ParseOpcode looks up an opcode by its mnemonic. Case is ignored.
func ParseOpcode(name string) (Opcode, error) {
	op, ok := opByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown opcode %q", name)
	}
	return op, nil
}

// Opcodes returns every defined opcode in declaration order.
func Opcodes() []Opcode {
	ops := make([]Opcode, 0, numOpcodes)
	for op := Opcode(0); op < numOpcodes; op++ {
		ops = append(ops, op)
	}
	return ops
}
