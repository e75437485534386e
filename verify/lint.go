package verify

import (
	"fmt"

	"github.com/sarchlab/ilpatch/instr"
)

// RunLint performs all static checks on an instruction sequence.
// Returns a list of issues found, or empty list if no issues.
func RunLint(insts []instr.Instruction) []Issue {
	var issues []Issue

	for pos, inst := range insts {
		if err := CheckShape(inst); err != nil {
			issues = append(issues, Issue{
				Type:     IssueShape,
				Position: pos,
				Message:  err.Error(),
				Details: map[string]interface{}{
					"op":      inst.Op.String(),
					"operand": inst.Operand.Kind.String(),
				},
			})
		}
	}

	issues = append(issues, CheckLabels(insts)...)

	return issues
}

// CheckLabels validates label targets and references. Duplicates are
// reported before unresolved references; both are ordered by position.
func CheckLabels(insts []instr.Instruction) []Issue {
	var issues []Issue

	// label -> index of first target
	targets := make(map[instr.LabelID]int)
	for pos, inst := range insts {
		for _, l := range inst.Labels {
			if prev, exists := targets[l]; exists {
				issues = append(issues, Issue{
					Type:     IssueDuplicate,
					Position: pos,
					Label:    l,
					HasLabel: true,
					Message: fmt.Sprintf(
						"label %s targets both #%d and #%d", l, prev, pos),
					Details: map[string]interface{}{
						"first":  prev,
						"second": pos,
					},
				})
				continue
			}
			targets[l] = pos
		}
	}

	for pos, inst := range insts {
		for _, l := range inst.Operand.LabelRefs() {
			if _, ok := targets[l]; ok {
				continue
			}
			issues = append(issues, Issue{
				Type:     IssueUnresolved,
				Position: pos,
				Label:    l,
				HasLabel: true,
				Message:  fmt.Sprintf("%s references %s which targets nothing", inst.Op, l),
				Details: map[string]interface{}{
					"op": inst.Op.String(),
				},
			})
		}
	}

	return issues
}

// Targets maps every label to the index of the instruction it targets.
// The first target wins when a label is duplicated.
func Targets(insts []instr.Instruction) map[instr.LabelID]int {
	targets := make(map[instr.LabelID]int)
	for pos, inst := range insts {
		for _, l := range inst.Labels {
			if _, exists := targets[l]; !exists {
				targets[l] = pos
			}
		}
	}
	return targets
}
