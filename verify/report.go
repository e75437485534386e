package verify

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/ilpatch/instr"
)

// Report summarizes lint results for one method body.
type Report struct {
	Method       string
	Instructions int
	Issues       []Issue
	ShapeIssues  []Issue
	LabelIssues  []Issue
}

// GenerateReport lints insts and categorizes the issues.
func GenerateReport(method string, insts []instr.Instruction) *Report {
	r := &Report{
		Method:       method,
		Instructions: len(insts),
		Issues:       RunLint(insts),
	}

	for _, issue := range r.Issues {
		if issue.Type == IssueShape {
			r.ShapeIssues = append(r.ShapeIssues, issue)
		} else {
			r.LabelIssues = append(r.LabelIssues, issue)
		}
	}

	return r
}

// OK reports whether the body passed every check.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// WriteReport writes a formatted report to a writer
func (r *Report) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "LINT %s (%d instructions)\n", r.Method, r.Instructions)
	fmt.Fprintln(w, separator)

	if r.OK() {
		fmt.Fprintln(w, "✓ No lint issues found!")
		return
	}

	fmt.Fprintf(w, "⚠ Found %d lint issues (%d SHAPE, %d LABEL):\n",
		len(r.Issues), len(r.ShapeIssues), len(r.LabelIssues))
	WriteIssues(w, r.Issues)
}

// WriteIssues renders issues as a table.
func WriteIssues(w io.Writer, issues []Issue) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Type", "#", "Label", "Message"})
	for _, issue := range issues {
		label := ""
		if issue.HasLabel {
			label = issue.Label.String()
		}
		t.AppendRow(table.Row{issue.Type, issue.Position, label, issue.Message})
	}
	t.Render()
}
