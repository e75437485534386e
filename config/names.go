package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sarchlab/ilpatch/core"
	"github.com/sarchlab/ilpatch/instr"
)

// nameRef matches a label name reference such as $skip in a listing line.
var nameRef = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// prefixRef matches a listing line that starts with a named label prefix.
var prefixRef = regexp.MustCompile(`^\s*\$([A-Za-z_][A-Za-z0-9_]*)\s*:\s*`)

// NameBinding binds the label names used in a patch file to the labels of
// one buffer. Every run of a patch gets its own binding.
type NameBinding struct {
	// nameToLabels maps a name to the labels it stands for. Extracting
	// labels can bind one name to several.
	nameToLabels map[string][]instr.LabelID
}

// NewNameBinding creates an empty binding.
func NewNameBinding() *NameBinding {
	return &NameBinding{
		nameToLabels: make(map[string][]instr.LabelID),
	}
}

// Bind makes name stand for labels, replacing any earlier binding.
func (n *NameBinding) Bind(name string, labels ...instr.LabelID) {
	n.nameToLabels[name] = append([]instr.LabelID(nil), labels...)
}

// Lookup returns the labels bound to name.
func (n *NameBinding) Lookup(name string) ([]instr.LabelID, error) {
	labels, ok := n.nameToLabels[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown label name %q", core.ErrInvalidEdit, name)
	}
	return labels, nil
}

// Single returns the one label bound to name.
func (n *NameBinding) Single(name string) (instr.LabelID, error) {
	labels, err := n.Lookup(name)
	if err != nil {
		return 0, err
	}
	if len(labels) != 1 {
		return 0, fmt.Errorf("%w: label name %q stands for %d labels",
			core.ErrInvalidEdit, name, len(labels))
	}
	return labels[0], nil
}

// Expand replaces every $name in line with the labels bound to it, written
// as L1 or L1,L2. A label prefix naming no labels is dropped, so labels
// extracted from an unlabeled instruction can be reinserted unconditionally.
func (n *NameBinding) Expand(line string) (string, error) {
	if m := prefixRef.FindStringSubmatchIndex(line); m != nil {
		labels, err := n.Lookup(line[m[2]:m[3]])
		if err != nil {
			return line, err
		}
		if len(labels) == 0 {
			line = line[m[1]:]
		}
	}

	var err error

	out := nameRef.ReplaceAllStringFunc(line, func(ref string) string {
		labels, lerr := n.Lookup(ref[1:])
		if lerr != nil {
			if err == nil {
				err = lerr
			}
			return ref
		}

		parts := make([]string, len(labels))
		for i, l := range labels {
			parts[i] = l.String()
		}
		return strings.Join(parts, ",")
	})

	return out, err
}

// placeholders binds every name referenced in lines to label 0, so that
// lines can be checked for syntax before any buffer exists.
func placeholders(lines ...string) *NameBinding {
	n := NewNameBinding()
	for _, line := range lines {
		for _, m := range nameRef.FindAllStringSubmatch(line, -1) {
			n.Bind(m[1], 0)
		}
	}
	return n
}
