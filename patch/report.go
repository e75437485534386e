package patch

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/xid"

	"github.com/sarchlab/ilpatch/core"
)

// Kind classifies why a rewrite failed.
type Kind string

// Failure kinds, one per engine error plus the ones the patcher adds.
const (
	KindNone        Kind = ""
	KindEmptyInput  Kind = "EMPTY_INPUT"
	KindNotFound    Kind = "PATTERN_NOT_FOUND"
	KindOutOfRange  Kind = "CURSOR_OUT_OF_RANGE"
	KindInvalidEdit Kind = "INVALID_EDIT"
	KindRender      Kind = "RENDER"
	KindHost        Kind = "HOST"
	KindPanic       Kind = "PANIC"
	KindOther       Kind = "OTHER"
)

// ErrorKind classifies err. A nil error has KindNone.
func ErrorKind(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPanic):
		return KindPanic
	case errors.Is(err, ErrHost):
		return KindHost
	case errors.Is(err, core.ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, core.ErrPatternNotFound):
		return KindNotFound
	case errors.Is(err, core.ErrCursorOutOfRange):
		return KindOutOfRange
	case errors.Is(err, core.ErrInvalidEdit):
		return KindInvalidEdit
	case errors.Is(err, core.ErrRender):
		return KindRender
	default:
		return KindOther
	}
}

// Result records the outcome of one rewrite.
type Result struct {
	ID      xid.ID
	Patch   string
	Method  string
	Applied bool
	Edits   int
	Err     error
	Kind    Kind
	Before  int
	After   int
}

// Status returns a short human-readable outcome.
func (r Result) Status() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Applied:
		return "applied"
	default:
		return "unchanged"
	}
}

// Report collects the results of a Patcher run, in registration order.
type Report struct {
	Results []Result
}

// Applied returns the results whose body was installed.
func (r *Report) Applied() []Result {
	return r.filter(func(res Result) bool { return res.Applied })
}

// Failed returns the results that ended in an error.
func (r *Report) Failed() []Result {
	return r.filter(func(res Result) bool { return res.Err != nil })
}

func (r *Report) filter(keep func(Result) bool) []Result {
	var out []Result
	for _, res := range r.Results {
		if keep(res) {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) String() string {
	applied := len(r.Applied())
	failed := len(r.Failed())
	return fmt.Sprintf("%d patches: %d applied, %d unchanged, %d failed",
		len(r.Results), applied, len(r.Results)-applied-failed, failed)
}

// WriteTable prints the report as a table.
func (r *Report) WriteTable(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(r.String())
	t.AppendHeader(table.Row{"ID", "Patch", "Method", "Status", "Edits", "Size", "Error"})

	for _, res := range r.Results {
		size := fmt.Sprintf("%d", res.Before)
		if res.Applied {
			size = fmt.Sprintf("%d -> %d", res.Before, res.After)
		}

		errText := ""
		if res.Err != nil {
			errText = fmt.Sprintf("[%s] %v", res.Kind, res.Err)
		}

		t.AppendRow(table.Row{
			res.ID.String(),
			res.Patch,
			res.Method,
			res.Status(),
			res.Edits,
			size,
			errText,
		})
	}

	t.Render()
}
