// Package verify provides structural checks over flat instruction sequences.
//
// The checks only cover well-formedness. A sequence that passes may still be
// semantically wrong; nothing here executes instructions.
//
// # Checks
//
//   - SHAPE: a branch must carry label references and nothing else may.
//   - UNRESOLVED: every label referenced by a branch must target an instruction.
//   - DUPLICATE: a label may target at most one instruction.
//
// # Usage Example
//
//	issues := verify.RunLint(insts)
//	if len(issues) > 0 {
//	    verify.WriteIssues(os.Stdout, issues)
//	}
package verify

import (
	"fmt"

	"github.com/sarchlab/ilpatch/instr"
)

// IssueType categorizes lint issues
type IssueType string

const (
	IssueShape      IssueType = "SHAPE"      // operand does not fit the opcode's branch-ness
	IssueUnresolved IssueType = "UNRESOLVED" // branch references a label with no target
	IssueDuplicate  IssueType = "DUPLICATE"  // label targets more than one instruction
)

// Issue represents a single lint issue
type Issue struct {
	Type     IssueType
	Position int // instruction index, -1 if not applicable
	Label    instr.LabelID
	HasLabel bool
	Message  string
	Details  map[string]interface{}
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] #%d: %s", i.Type, i.Position, i.Message)
}

// CheckShape reports whether inst has a well-formed operand for its
// opcode: branches reference at least one label, other opcodes reference
// none.
func CheckShape(inst instr.Instruction) error {
	if !inst.Op.Valid() {
		return fmt.Errorf("invalid opcode %d", uint8(inst.Op))
	}

	refs := inst.Operand.LabelRefs()
	if inst.IsBranch() {
		if len(refs) == 0 {
			return fmt.Errorf("%s needs a label operand, got %s", inst.Op, inst.Operand.Kind)
		}
		return nil
	}

	if len(refs) > 0 || inst.Operand.Kind == instr.Label || inst.Operand.Kind == instr.Labels {
		return fmt.Errorf("%s cannot reference labels", inst.Op)
	}
	return nil
}
