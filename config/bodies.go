package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ilpatch/instr"
	"github.com/sarchlab/ilpatch/patch"
)

// Bodies maps method names to their listings, one instruction per line:
//
//	Stats.Scale:
//	  - LOAD 0
//	  - "L1: RET"
type Bodies map[string][]string

// LoadBodies decodes and parses method bodies.
func LoadBodies(r io.Reader) (map[string][]instr.Instruction, error) {
	var raw Bodies
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode bodies: %w", err)
	}

	bodies := make(map[string][]instr.Instruction, len(raw))
	for method, lines := range raw {
		insts, err := instr.ParseListing(lines)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", method, err)
		}
		bodies[method] = insts
	}

	return bodies, nil
}

// LoadHost reads the bodies file at path into a MemHost.
func LoadHost(path string) (*patch.MemHost, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	bodies, err := LoadBodies(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	host := patch.NewMemHost()
	for method, body := range bodies {
		host.Add(method, body)
	}
	return host, nil
}

// WriteBodies encodes method bodies in the format LoadBodies reads.
func WriteBodies(w io.Writer, bodies map[string][]instr.Instruction) error {
	raw := make(Bodies, len(bodies))
	for method, insts := range bodies {
		lines := make([]string, len(insts))
		for i, inst := range insts {
			lines[i] = inst.String()
		}
		raw[method] = lines
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return err
	}
	return enc.Close()
}

// WriteHost encodes every body of host.
func WriteHost(w io.Writer, host *patch.MemHost) error {
	bodies := make(map[string][]instr.Instruction)
	for _, method := range host.Methods() {
		body, err := host.Body(method)
		if err != nil {
			return err
		}
		bodies[method] = body
	}
	return WriteBodies(w, bodies)
}
