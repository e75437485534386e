package core

import (
	"fmt"

	"golang.org/x/tools/container/intsets"

	"github.com/sarchlab/ilpatch/instr"
)

// labelTable keeps the dual index between labels and the instructions they
// target. Every label that was ever seen is in defined; a defined label may
// have no target while it is being moved.
type labelTable struct {
	target  map[instr.LabelID]*node
	byNode  map[*node]*intsets.Sparse
	defined intsets.Sparse
	next    instr.LabelID
}

func newLabelTable() *labelTable {
	return &labelTable{
		target: make(map[instr.LabelID]*node),
		byNode: make(map[*node]*intsets.Sparse),
	}
}

func (t *labelTable) define(l instr.LabelID) {
	t.defined.Insert(int(l))
	if l >= t.next {
		t.next = l + 1
	}
}

// fresh allocates a label that has never been used.
func (t *labelTable) fresh() instr.LabelID {
	l := t.next
	t.define(l)
	return l
}

func (t *labelTable) known(l instr.LabelID) bool {
	return t.defined.Has(int(l))
}

func (t *labelTable) targetOf(l instr.LabelID) (*node, bool) {
	n, ok := t.target[l]
	return n, ok
}

// attach points l at n. Attaching to a different live target is a bug in
// the caller, which must validate first.
func (t *labelTable) attach(l instr.LabelID, n *node) {
	if cur, ok := t.target[l]; ok {
		if cur == n {
			return
		}
		panic(fmt.Sprintf("label %s already targets another instruction", l))
	}

	t.define(l)
	t.target[l] = n

	set, ok := t.byNode[n]
	if !ok {
		set = &intsets.Sparse{}
		t.byNode[n] = set
	}
	set.Insert(int(l))
}

func (t *labelTable) detach(l instr.LabelID) {
	n, ok := t.target[l]
	if !ok {
		return
	}

	delete(t.target, l)
	set := t.byNode[n]
	set.Remove(int(l))
	if set.IsEmpty() {
		delete(t.byNode, n)
	}
}

// detachAll removes every label from n and returns them in ascending order.
func (t *labelTable) detachAll(n *node) []instr.LabelID {
	labels := t.labelsOf(n)
	for _, l := range labels {
		delete(t.target, l)
	}
	delete(t.byNode, n)
	return labels
}

// move retargets all labels of from onto to.
func (t *labelTable) move(from, to *node) {
	set, ok := t.byNode[from]
	if !ok || from == to {
		return
	}

	for _, l := range set.AppendTo(nil) {
		t.target[instr.LabelID(l)] = to
	}

	dst, ok := t.byNode[to]
	if !ok {
		dst = &intsets.Sparse{}
		t.byNode[to] = dst
	}
	dst.UnionWith(set)
	delete(t.byNode, from)
}

func (t *labelTable) labelsOf(n *node) []instr.LabelID {
	set, ok := t.byNode[n]
	if !ok {
		return nil
	}

	ints := set.AppendTo(nil)
	labels := make([]instr.LabelID, len(ints))
	for i, l := range ints {
		labels[i] = instr.LabelID(l)
	}
	return labels
}

func (t *labelTable) hasLabels(n *node) bool {
	_, ok := t.byNode[n]
	return ok
}

// check verifies the two indices agree and only point at live nodes.
func (t *labelTable) check() error {
	count := 0
	for n, set := range t.byNode {
		if n.removed {
			return fmt.Errorf("removed instruction still holds labels %s", set)
		}
		for _, l := range set.AppendTo(nil) {
			if t.target[instr.LabelID(l)] != n {
				return fmt.Errorf("label L%d index mismatch", l)
			}
			if !t.defined.Has(l) {
				return fmt.Errorf("label L%d attached but not defined", l)
			}
			count++
		}
	}

	if count != len(t.target) {
		return fmt.Errorf("%d labels targeted, %d recorded per instruction", len(t.target), count)
	}
	return nil
}
