// Package rows implements the row sub-language's canonical form and its
// solver: equality, subrow/superrow containment, and concatenation, per
// spec.md §4.4. It is deliberately independent of the unification engine —
// callers supply UnifyField and UnifyTail callbacks used to unify the types
// found at matching labels and the rows' tails, so this package has no
// dependency on package unify.
package rows

import (
	"sort"

	"github.com/benbjohnson/immutable"
)

// LabelMap is an immutable, label-sorted mapping from row label to the type
// value declared at that label. It continues the teacher's TypeMap design
// (itself backed by github.com/benbjohnson/immutable) but holds a single
// type per label rather than a scoped list, matching spec.md §3's
// RowLit invariant that label keys are unique.
type LabelMap struct {
	m *immutable.SortedMap
}

var emptyLabelMap = immutable.NewSortedMap(nil)

// Empty is the label map with no entries.
var Empty = LabelMap{emptyLabelMap}

func (m LabelMap) Len() int {
	if m.m == nil {
		return 0
	}
	return m.m.Len()
}

func (m LabelMap) Get(label string) (interface{}, bool) {
	if m.m == nil {
		return nil, false
	}
	return m.m.Get(label)
}

// Range visits entries in label order. Stops early if f returns false.
func (m LabelMap) Range(f func(label string, v interface{}) bool) {
	if m.m == nil {
		return
	}
	it := m.m.Iterator()
	for !it.Done() {
		k, v := it.Next()
		if !f(k.(string), v) {
			return
		}
	}
}

// Labels returns the sorted label set.
func (m LabelMap) Labels() []string {
	out := make([]string, 0, m.Len())
	m.Range(func(label string, _ interface{}) bool {
		out = append(out, label)
		return true
	})
	return out
}

// Builder accumulates entries before finalizing into a LabelMap.
type Builder struct {
	b *immutable.SortedMapBuilder
}

func NewBuilder() Builder { return Builder{immutable.NewSortedMapBuilder(emptyLabelMap)} }

func (b Builder) Len() int {
	if b.b == nil {
		return 0
	}
	return b.b.Len()
}

func (b Builder) Set(label string, v interface{}) Builder {
	b.b.Set(label, v)
	return b
}

func (b Builder) Get(label string) (interface{}, bool) {
	return b.b.Get(label)
}

func (b Builder) Build() LabelMap {
	if b.b == nil {
		return Empty
	}
	return LabelMap{b.b.Map()}
}

// sortedLabels returns a sorted copy of labels. It does not detect
// duplicates, and nothing in the module calls it at present.
func sortedLabels(labels []string) []string {
	out := append([]string(nil), labels...)
	sort.Strings(out)
	return out
}
