package core

import (
	"context"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
)

// Hook positions invoked by a Buffer. Item and Detail carry:
//
//	HookPosMatch    the Pattern, the Match
//	HookPosInsert   the inserted []instr.Instruction, the position of the run
//	HookPosRemove   the removed []instr.Instruction, the position of the run
//	HookPosReplace  the new instr.Instruction, the position
//	HookPosLabel    the labels attached or extracted, the position
//	HookPosRender   the rendered []instr.Instruction, nil
var (
	HookPosMatch   = &sim.HookPos{Name: "Match"}
	HookPosInsert  = &sim.HookPos{Name: "Insert"}
	HookPosRemove  = &sim.HookPos{Name: "Remove"}
	HookPosReplace = &sim.HookPos{Name: "Replace"}
	HookPosLabel   = &sim.HookPos{Name: "Label"}
	HookPosRender  = &sim.HookPos{Name: "Render"}
)

func (b *Buffer) invoke(pos *sim.HookPos, item, detail interface{}) {
	if b.NumHooks() == 0 {
		return
	}
	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}

// TraceHook logs every buffer event at LevelTrace.
type TraceHook struct {
	logger *slog.Logger
}

// NewTraceHook creates a TraceHook writing to logger.
func NewTraceHook(logger *slog.Logger) *TraceHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &TraceHook{logger: logger}
}

// Func implements sim.Hook.
func (h *TraceHook) Func(ctx sim.HookCtx) {
	h.logger.Log(context.Background(), LevelTrace, "Buffer",
		"Behavior", ctx.Pos.Name,
		"Item", ctx.Item,
		"Detail", ctx.Detail,
	)
}

// EditCounter counts buffer events. Edits may be nonzero even when the
// rendered body equals the input, e.g. after an insert that was removed again.
type EditCounter struct {
	Matches  int
	Inserts  int
	Removes  int
	Replaces int
	Labels   int
}

// Func implements sim.Hook.
func (c *EditCounter) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosMatch:
		c.Matches++
	case HookPosInsert:
		c.Inserts++
	case HookPosRemove:
		c.Removes++
	case HookPosReplace:
		c.Replaces++
	case HookPosLabel:
		c.Labels++
	}
}

// Edits returns the number of mutating events seen.
func (c *EditCounter) Edits() int {
	return c.Inserts + c.Removes + c.Replaces + c.Labels
}
