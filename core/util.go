package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// LevelTrace sits below debug; buffers log every match and edit at it.
const LevelTrace slog.Level = slog.LevelDebug - 4

func (b *Buffer) trace(msg string, args ...interface{}) {
	b.logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Dump renders the buffer as a table, marking the cursor with "→".
func (b *Buffer) Dump() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"", "#", "Labels", "Op", "Operand"})

	i := 0
	for n := b.head; n != nil; n = n.next {
		mark := ""
		if n == b.cur {
			mark = "→"
		}

		labels := b.labels.labelsOf(n)
		names := make([]string, len(labels))
		for j, l := range labels {
			names[j] = l.String()
		}

		t.AppendRow(table.Row{mark, i, strings.Join(names, ","), n.op, n.operand.String()})
		i++
	}

	if b.cur == nil {
		t.AppendRow(table.Row{"→", i, "", "<end>", ""})
	}

	return fmt.Sprintf("====Buffer (%d instructions, cursor at %d)====\n%s",
		b.length, b.pos, t.Render())
}

// Print writes Dump to the buffer's output. It is meant for working out why a
// pattern does not match; it never changes the buffer.
func (b *Buffer) Print() {
	fmt.Fprintln(b.out, b.Dump())
}
