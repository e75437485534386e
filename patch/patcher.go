package patch

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ilpatch/core"
)

// Patcher applies registered patches to a host.
type Patcher struct {
	host   Host
	logger *slog.Logger
	out    io.Writer
	hooks  []sim.Hook

	patches []Patch
}

// NewPatcher creates a patcher for host. A nil logger means slog.Default().
func NewPatcher(host Host, logger *slog.Logger) *Patcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Patcher{
		host:   host,
		logger: logger,
		out:    os.Stdout,
	}
}

// SetOutput sets where buffers print when a patch calls Print.
func (p *Patcher) SetOutput(w io.Writer) {
	p.out = w
}

// AcceptHook registers a hook on every buffer the patcher creates.
func (p *Patcher) AcceptHook(hook sim.Hook) {
	p.hooks = append(p.hooks, hook)
}

// Register queues patches. They run in registration order, so patches on the
// same method see each other's results.
func (p *Patcher) Register(patches ...Patch) {
	p.patches = append(p.patches, patches...)
}

// Patches returns the registered patches.
func (p *Patcher) Patches() []Patch {
	return p.patches
}

// ApplyAll runs every registered patch and reports the outcome of each.
func (p *Patcher) ApplyAll() *Report {
	report := &Report{}

	for _, patch := range p.patches {
		report.Results = append(report.Results, p.apply(patch))
	}

	p.logger.Info("Patching done",
		"Applied", len(report.Applied()),
		"Failed", len(report.Failed()),
		"Total", len(report.Results),
	)

	return report
}

func (p *Patcher) apply(patch Patch) Result {
	res := Result{
		ID:     xid.New(),
		Patch:  patch.Name,
		Method: patch.Method,
	}
	logger := p.logger.With(
		"ID", res.ID.String(),
		"Patch", patch.Name,
		"Method", patch.Method,
	)

	body, err := p.host.Body(patch.Method)
	if err != nil {
		return p.fail(logger, res, fmt.Errorf("%w: %w", ErrHost, err))
	}
	res.Before = len(body)

	counter := &core.EditCounter{}
	builder := core.NewBuilder().
		WithLogger(logger).
		WithOutput(p.out).
		WithHook(counter)
	for _, h := range p.hooks {
		builder = builder.WithHook(h)
	}

	out, err := transpile(builder, body, patch.Apply)
	if err != nil {
		return p.fail(logger, res, err)
	}
	res.After = len(out)
	res.Edits = counter.Edits()

	if sameBody(body, out) {
		logger.Info("Patch left body unchanged", "Edits", res.Edits)
		return res
	}

	if err := p.host.Install(patch.Method, out); err != nil {
		return p.fail(logger, res, fmt.Errorf("%w: %w", ErrHost, err))
	}
	res.Applied = true

	logger.Info("Patch applied",
		"Edits", res.Edits,
		"Before", res.Before,
		"After", res.After,
	)

	return res
}

func (p *Patcher) fail(logger *slog.Logger, res Result, err error) Result {
	res.Err = err
	res.Kind = ErrorKind(err)

	logger.Error("Patch failed",
		"Kind", string(res.Kind),
		"Err", err,
	)

	return res
}
