// Package config loads patch definitions and method bodies from YAML.
//
// A patch file lists patches, each a sequence of steps run against one
// method body:
//
//	patches:
//	  - name: Stat offset
//	    method: Stats.Scale
//	    steps:
//	      - find: [LOAD *, LOAD_FIELD *, LOAD_FIELD *, CONST 10000.0, DIV]
//	      - advance: 3
//	      - insert: [CONST 280.0, ADD]
//
// Each step is a mapping with a single key naming its kind. Listing lines in
// steps may name labels as $name; define_label, define_and_attach_label and
// extract_labels bind names for the rest of the patch.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ilpatch/core"
	"github.com/sarchlab/ilpatch/patch"
)

// File is a decoded patch file.
type File struct {
	Patches []PatchDef `yaml:"patches"`
}

// PatchDef is the definition of one patch.
type PatchDef struct {
	Name        string     `yaml:"name"`
	Method      string     `yaml:"method"`
	Description string     `yaml:"description,omitempty"`
	Enabled     *bool      `yaml:"enabled,omitempty"`
	Steps       []StepNode `yaml:"steps"`
}

// IsEnabled reports whether the patch should run. Patches are enabled
// unless they say otherwise.
func (d PatchDef) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Load decodes a patch file. Unknown fields are errors.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode patch file: %w", err)
	}

	return &f, nil
}

// LoadFile decodes the patch file at path.
func LoadFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := Load(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Compile turns the enabled patches into runnable ones. All syntax errors
// are reported here, before anything runs.
func (f *File) Compile() ([]patch.Patch, error) {
	var patches []patch.Patch
	seen := make(map[string]bool)

	for i, def := range f.Patches {
		if !def.IsEnabled() {
			continue
		}

		p, err := def.Compile()
		if err != nil {
			return nil, fmt.Errorf("patch %d (%s): %w", i, def.Name, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("patch %d: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true

		patches = append(patches, p)
	}

	return patches, nil
}

// Compile turns the definition into a runnable patch.
func (d PatchDef) Compile() (patch.Patch, error) {
	if d.Name == "" {
		return patch.Patch{}, fmt.Errorf("missing name")
	}
	if d.Method == "" {
		return patch.Patch{}, fmt.Errorf("missing method")
	}

	steps, err := compileSteps(d.Steps)
	if err != nil {
		return patch.Patch{}, err
	}
	if len(steps) == 0 {
		return patch.Patch{}, fmt.Errorf("no steps")
	}

	return patch.Patch{
		Name:   d.Name,
		Method: d.Method,
		Apply: func(b *core.Buffer) error {
			err := runSteps(b, NewNameBinding(), steps)
			if errors.Is(err, errSkip) {
				return nil
			}
			return err
		},
	}, nil
}
