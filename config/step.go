package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ilpatch/core"
	"github.com/sarchlab/ilpatch/instr"
)

// errSkip ends the current site, or the whole patch outside for_each,
// without failing.
var errSkip = errors.New("skipped")

var labelName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// StepNode is one step of a patch: a mapping with exactly one key, the step
// kind, whose value holds the step's arguments.
type StepNode map[string]yaml.Node

// Line returns the line of the step, or def if it is empty.
func (s StepNode) Line(def int) int {
	for _, node := range s {
		return node.Line
	}
	return def
}

// ForEach is the argument of a for_each step. Steps run at every match of
// Pattern with the cursor at the match start. Fewer than Min matches fail
// the step.
type ForEach struct {
	Pattern yaml.Node  `yaml:"pattern"`
	Min     int        `yaml:"min"`
	Steps   []StepNode `yaml:"steps"`
}

type runner func(b *core.Buffer, names *NameBinding) error

type step struct {
	line int
	kind string
	run  runner
}

type stepCompiler func(node *yaml.Node) (runner, error)

var stepKinds map[string]stepCompiler

func init() {
	stepKinds = map[string]stepCompiler{
		"find":        patternStep(func(b *core.Buffer, p instr.Pattern) error { _, err := b.FindNext(p); return err }),
		"find_prev":   patternStep(func(b *core.Buffer, p instr.Pattern) error { _, err := b.FindPrev(p); return err }),
		"find_first":  patternStep(func(b *core.Buffer, p instr.Pattern) error { _, err := b.FindFirst(p); return err }),
		"find_last":   patternStep(func(b *core.Buffer, p instr.Pattern) error { _, err := b.FindLast(p); return err }),
		"skip_unless": patternStep(skipUnless),
		"remove_until": patternStep(func(b *core.Buffer, p instr.Pattern) error {
			_, err := b.RemoveUntil(p)
			return err
		}),

		"advance": intStep((*core.Buffer).Advance),
		"retreat": intStep((*core.Buffer).Retreat),
		"seek":    intStep((*core.Buffer).Seek),
		"remove":  intStep((*core.Buffer).Remove),

		"start": flagStep(func(b *core.Buffer) error { b.Start(); return nil }),
		"end":   flagStep(func(b *core.Buffer) error { b.End(); return nil }),
		"push":  flagStep(func(b *core.Buffer) error { b.Push(); return nil }),
		"pop":   flagStep((*core.Buffer).Pop),
		"print": flagStep(func(b *core.Buffer) error { b.Print(); return nil }),

		"insert":          compileInsert,
		"replace":         compileReplace,
		"replace_operand": compileReplaceOperand,

		"define_label":            nameStep(defineLabel),
		"attach_label":            nameStep(attachLabel),
		"define_and_attach_label": nameStep(defineAndAttachLabel),
		"extract_labels":          nameStep(extractLabels),

		"for_each": compileForEach,
	}
}

// StepKinds lists the step kinds a patch file may use.
func StepKinds() []string {
	kinds := make([]string, 0, len(stepKinds))
	for k := range stepKinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func (s StepNode) compile() (step, error) {
	if len(s) == 0 {
		return step{}, fmt.Errorf("expected step, got nothing")
	}
	if len(s) > 1 {
		return step{}, fmt.Errorf(
			"line %d: multiple kinds found in step, maybe you forgot a '-'", s.Line(0))
	}

	for kind, node := range s {
		compile, ok := stepKinds[kind]
		if !ok {
			return step{}, fmt.Errorf("line %d: unknown step kind %q", node.Line, kind)
		}

		run, err := compile(&node)
		if err != nil {
			return step{}, fmt.Errorf("line %d: %s: %w", node.Line, kind, err)
		}

		return step{line: node.Line, kind: kind, run: run}, nil
	}

	panic("unreachable")
}

func compileSteps(nodes []StepNode) ([]step, error) {
	steps := make([]step, 0, len(nodes))
	for _, n := range nodes {
		s, err := n.compile()
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func runSteps(b *core.Buffer, names *NameBinding, steps []step) error {
	for _, s := range steps {
		if err := s.run(b, names); err != nil {
			if errors.Is(err, errSkip) {
				return err
			}
			return fmt.Errorf("line %d: %s: %w", s.line, s.kind, err)
		}
	}
	return nil
}

func decodePattern(node *yaml.Node) (instr.Pattern, error) {
	lines, err := decodeLines(node)
	if err != nil {
		return nil, err
	}
	return instr.ParsePattern(lines)
}

// decodeLines accepts a single string or a list of strings.
func decodeLines(node *yaml.Node) ([]string, error) {
	if node.Kind == yaml.ScalarNode {
		return []string{node.Value}, nil
	}

	var lines []string
	if err := node.Decode(&lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func patternStep(search func(b *core.Buffer, p instr.Pattern) error) stepCompiler {
	return func(node *yaml.Node) (runner, error) {
		p, err := decodePattern(node)
		if err != nil {
			return nil, err
		}

		return func(b *core.Buffer, _ *NameBinding) error {
			return search(b, p)
		}, nil
	}
}

func skipUnless(b *core.Buffer, p instr.Pattern) error {
	if b.Matches(p) {
		return nil
	}
	return errSkip
}

func intStep(apply func(b *core.Buffer, n int) error) stepCompiler {
	return func(node *yaml.Node) (runner, error) {
		var n int
		if err := node.Decode(&n); err != nil {
			return nil, err
		}

		return func(b *core.Buffer, _ *NameBinding) error {
			return apply(b, n)
		}, nil
	}
}

func flagStep(apply func(b *core.Buffer) error) stepCompiler {
	return func(node *yaml.Node) (runner, error) {
		var on bool
		if err := node.Decode(&on); err != nil {
			return nil, err
		}
		if !on {
			return nil, fmt.Errorf("value must be true")
		}

		return func(b *core.Buffer, _ *NameBinding) error {
			return apply(b)
		}, nil
	}
}

func nameStep(apply func(b *core.Buffer, names *NameBinding, name string) error) stepCompiler {
	return func(node *yaml.Node) (runner, error) {
		var name string
		if err := node.Decode(&name); err != nil {
			return nil, err
		}
		if !labelName.MatchString(name) {
			return nil, fmt.Errorf("invalid label name %q", name)
		}

		return func(b *core.Buffer, names *NameBinding) error {
			return apply(b, names, name)
		}, nil
	}
}

func defineLabel(b *core.Buffer, names *NameBinding, name string) error {
	names.Bind(name, b.DefineLabel())
	return nil
}

func attachLabel(b *core.Buffer, names *NameBinding, name string) error {
	l, err := names.Single(name)
	if err != nil {
		return err
	}
	return b.AttachLabel(l)
}

func defineAndAttachLabel(b *core.Buffer, names *NameBinding, name string) error {
	l, err := b.DefineAndAttachLabel()
	if err != nil {
		return err
	}
	names.Bind(name, l)
	return nil
}

func extractLabels(b *core.Buffer, names *NameBinding, name string) error {
	labels, err := b.ExtractLabels()
	if err != nil {
		return err
	}
	names.Bind(name, labels...)
	return nil
}

func expandListing(names *NameBinding, lines []string) ([]instr.Instruction, error) {
	expanded := make([]string, len(lines))
	for i, line := range lines {
		e, err := names.Expand(line)
		if err != nil {
			return nil, err
		}
		expanded[i] = e
	}
	return instr.ParseListing(expanded)
}

func compileInsert(node *yaml.Node) (runner, error) {
	lines, err := decodeLines(node)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("nothing to insert")
	}
	if _, err := expandListing(placeholders(lines...), lines); err != nil {
		return nil, err
	}

	return func(b *core.Buffer, names *NameBinding) error {
		insts, err := expandListing(names, lines)
		if err != nil {
			return err
		}
		return b.Insert(insts...)
	}, nil
}

func compileReplace(node *yaml.Node) (runner, error) {
	var line string
	if err := node.Decode(&line); err != nil {
		return nil, err
	}
	if _, err := expandListing(placeholders(line), []string{line}); err != nil {
		return nil, err
	}

	return func(b *core.Buffer, names *NameBinding) error {
		insts, err := expandListing(names, []string{line})
		if err != nil {
			return err
		}
		return b.ReplaceInstruction(insts[0])
	}, nil
}

func compileReplaceOperand(node *yaml.Node) (runner, error) {
	var text string
	if err := node.Decode(&text); err != nil {
		return nil, err
	}

	return func(b *core.Buffer, names *NameBinding) error {
		cur, err := b.Current()
		if err != nil {
			return err
		}

		expanded, err := names.Expand(text)
		if err != nil {
			return err
		}

		operand, err := instr.ParseOperand(cur.Op, expanded)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrInvalidEdit, err)
		}
		return b.ReplaceOperand(operand)
	}, nil
}

func checkKeys(node *yaml.Node, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return fmt.Errorf("line %d: unknown field %q", key.Line, key.Value)
		}
	}
	return nil
}

func compileForEach(node *yaml.Node) (runner, error) {
	if err := checkKeys(node, "pattern", "min", "steps"); err != nil {
		return nil, err
	}

	var fe ForEach
	if err := node.Decode(&fe); err != nil {
		return nil, err
	}

	if fe.Pattern.Kind == 0 {
		return nil, fmt.Errorf("no pattern")
	}
	p, err := decodePattern(&fe.Pattern)
	if err != nil {
		return nil, err
	}

	steps, err := compileSteps(fe.Steps)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps")
	}

	return func(b *core.Buffer, names *NameBinding) error {
		count, err := b.ForEachMatch(p, func(b *core.Buffer) (bool, error) {
			err := runSteps(b, names, steps)
			if errors.Is(err, errSkip) {
				return false, nil
			}
			return err == nil, err
		})
		if err != nil {
			return err
		}

		if count < fe.Min {
			return fmt.Errorf("%w: %s applied %d times, want at least %d",
				core.ErrPatternNotFound, p, count, fe.Min)
		}
		return nil
	}, nil
}
