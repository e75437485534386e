package core

import (
	"io"
	"log/slog"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ilpatch/instr"
)

// Builder can create new buffers.
type Builder struct {
	logger *slog.Logger
	out    io.Writer
	hooks  []sim.Hook
}

// NewBuilder returns a builder with default options.
func NewBuilder() Builder {
	return Builder{}
}

// WithLogger sets the logger used for trace output.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// WithOutput sets where Print writes. Defaults to stdout.
func (b Builder) WithOutput(w io.Writer) Builder {
	b.out = w
	return b
}

// WithHook registers a hook on every buffer built.
func (b Builder) WithHook(hook sim.Hook) Builder {
	hooks := make([]sim.Hook, len(b.hooks), len(b.hooks)+1)
	copy(hooks, b.hooks)
	b.hooks = append(hooks, hook)
	return b
}

// Build creates a buffer holding a copy of insts with the cursor at 0.
func (b Builder) Build(insts []instr.Instruction) (*Buffer, error) {
	buf := &Buffer{
		HookableBase: sim.NewHookableBase(),
		labels:       newLabelTable(),
		logger:       b.logger,
		out:          b.out,
	}

	if buf.logger == nil {
		buf.logger = slog.Default()
	}
	if buf.out == nil {
		buf.out = os.Stdout
	}
	for _, h := range b.hooks {
		buf.AcceptHook(h)
	}

	if err := buf.load(insts); err != nil {
		return nil, err
	}

	return buf, nil
}
