package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ilpatch/instr"
)

// Match is the span of a successful search, [Start, End). Like every index,
// it is only valid until the next edit.
type Match struct {
	Start int
	End   int
}

// Len returns the number of instructions matched.
func (m Match) Len() int {
	return m.End - m.Start
}

// Transform edits the buffer at a match. The cursor is at the match start
// when it is called. It returns whether the edit counts as applied; returning
// false declines the site and scanning continues.
type Transform func(b *Buffer) (bool, error)

// matchAt tests p against the instructions starting at n.
func matchAt(p instr.Pattern, n *node) bool {
	for _, e := range p {
		if n == nil || !e.Matches(n.inst()) {
			return false
		}
		n = n.next
	}
	return true
}

func notFound(p instr.Pattern, where string) error {
	return fmt.Errorf("%w: %s %s", ErrPatternNotFound, p, where)
}

func (b *Buffer) found(p instr.Pattern, n *node, pos int) Match {
	b.cur = n
	b.pos = pos
	m := Match{Start: pos, End: pos + len(p)}
	b.trace("Match", "Pattern", p.String(), "Start", m.Start)
	b.invoke(HookPosMatch, p, m)
	return m
}

// FindNext scans forward from the cursor, inclusive, for the leftmost run
// matching p. On success the cursor moves to the match start. On failure
// the cursor is unchanged.
func (b *Buffer) FindNext(p instr.Pattern) (Match, error) {
	if len(p) == 0 {
		return Match{}, notFound(p, "(empty pattern)")
	}

	pos := b.pos
	for n := b.cur; n != nil && pos+len(p) <= b.length; n = n.next {
		if matchAt(p, n) {
			return b.found(p, n, pos), nil
		}
		pos++
	}

	return Match{}, notFound(p, fmt.Sprintf("after #%d", b.pos))
}

// FindPrev scans backward for the rightmost match that starts before the
// cursor.
func (b *Buffer) FindPrev(p instr.Pattern) (Match, error) {
	if len(p) == 0 {
		return Match{}, notFound(p, "(empty pattern)")
	}

	n := b.tail
	if b.cur != nil {
		n = b.cur.prev
	}
	pos := b.pos - 1
	for ; n != nil; n = n.prev {
		if matchAt(p, n) {
			return b.found(p, n, pos), nil
		}
		pos--
	}

	return Match{}, notFound(p, fmt.Sprintf("before #%d", b.pos))
}

// FindFirst finds the first match in the buffer regardless of the cursor.
func (b *Buffer) FindFirst(p instr.Pattern) (Match, error) {
	cur, pos := b.cur, b.pos
	b.Start()
	m, err := b.FindNext(p)
	if err != nil {
		b.cur, b.pos = cur, pos
	}
	return m, err
}

// FindLast finds the last match in the buffer regardless of the cursor.
func (b *Buffer) FindLast(p instr.Pattern) (Match, error) {
	cur, pos := b.cur, b.pos
	b.End()
	m, err := b.FindPrev(p)
	if err != nil {
		b.cur, b.pos = cur, pos
	}
	return m, err
}

// Matches reports whether p matches at the cursor without moving it.
func (b *Buffer) Matches(p instr.Pattern) bool {
	return len(p) > 0 && matchAt(p, b.cur)
}

// Count returns the number of non-overlapping matches of p in the buffer.
func (b *Buffer) Count(p instr.Pattern) int {
	if len(p) == 0 {
		return 0
	}

	count := 0
	n := b.head
	for n != nil {
		if !matchAt(p, n) {
			n = n.next
			continue
		}
		count++
		for i := 0; i < len(p) && n != nil; i++ {
			n = n.next
		}
	}
	return count
}

// ForEachMatch calls transform on every match of p, scanning from the
// cursor, and returns how many transforms reported the edit as applied.
//
// After each transform scanning resumes strictly after the transformed
// region: at the instruction that followed the match, or at the cursor if the
// transform moved beyond it. Instructions the transform inserted are never
// rescanned. The first transform error stops the scan and is returned.
func (b *Buffer) ForEachMatch(p instr.Pattern, transform Transform) (int, error) {
	count := 0

	for {
		m, err := b.FindNext(p)
		if errors.Is(err, ErrPatternNotFound) {
			return count, nil
		}
		if err != nil {
			return count, err
		}

		after := b.cur
		for i := 0; i < m.Len(); i++ {
			after = after.next
		}

		applied, err := transform(b)
		if err != nil {
			return count, fmt.Errorf("transform at #%d: %w", m.Start, err)
		}
		if applied {
			count++
		}

		b.resumeAt(survivor(after))
	}
}

// resumeAt moves the cursor to n unless it is already past it.
func (b *Buffer) resumeAt(n *node) {
	target := b.indexOf(n)
	if b.pos >= target {
		return
	}
	b.cur = n
	b.pos = target
}
