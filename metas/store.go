// Package metas owns metavariable allocation and the binding-level
// bookkeeping that the unifier and generalizer need. It mirrors the
// teacher's VarTracker/CommonContext split: metavariables are mutable core
// nodes linked in place once solved, while the Store only tracks which ones
// were allocated (for flattening/reset) and supports speculative
// unification by stashing/restoring links.
package metas

import "github.com/corelang/elaborator/core"

// TopLevel is the binding level of definitions at the top of a module, one
// below the level used while checking a definition's own body (so that
// metavariables introduced within a body are eligible for generalization
// once the body is done, per the level-based generalization technique in
// spec.md §9 / SPEC_FULL.md).
const TopLevel = 0

// Store allocates fresh metavariables and tracks every allocation so it can
// flatten link chains (path compression) or reset between independent
// module compilations (spec.md §5, "may be reset between fully-independent
// module compilations").
type Store struct {
	nextID    int
	allocated []*core.Meta

	speculate bool
	linkStash []stashedLink
}

type stashedLink struct {
	m    *core.Meta
	prev core.Meta
}

func NewStore() *Store { return &Store{} }

// New allocates a fresh unbound type-kinded metavariable at level.
func (s *Store) New(level int) *core.Meta {
	m := &core.Meta{ID: s.nextID, Level: level, State: core.MetaUnbound}
	s.nextID++
	s.allocated = append(s.allocated, m)
	return m
}

// NewRow allocates a fresh unbound row-kinded metavariable at level.
func (s *Store) NewRow(level int) *core.Meta {
	m := s.New(level)
	m.RowKind = true
	return m
}

// NewWeak allocates a fresh unbound metavariable marked weak (value
// restriction; see SPEC_FULL.md Supplemented Features).
func (s *Store) NewWeak(level int) *core.Meta {
	m := s.New(level)
	m.Weak = true
	return m
}

// NewGeneric allocates a detached generic metavariable, used to instantiate
// a generalized signature's implicit parameters at a use site.
func (s *Store) NewGeneric() *core.Meta {
	m := &core.Meta{ID: s.nextID, State: core.MetaGeneric}
	s.nextID++
	s.allocated = append(s.allocated, m)
	return m
}

// Link solves m := to, recording the previous state for later restoration
// if speculation is in progress.
func (s *Store) Link(m *core.Meta, to core.Term) {
	if s.speculate {
		s.stash(m)
	}
	m.Link, m.State = to, core.MetaLinked
}

func (s *Store) stash(m *core.Meta) {
	s.linkStash = append(s.linkStash, stashedLink{m, *m})
}

// Speculate runs fn with link mutations recorded, then always rolls them
// back — used by canUnify-style probes that must not have side effects on
// failure or success (mirrors the teacher's canUnify wrapping of unify with
// ctx.speculate = true).
func (s *Store) Speculate(fn func() bool) bool {
	wasSpeculating := s.speculate
	s.speculate = true
	mark := len(s.linkStash)
	ok := fn()
	s.unstashFrom(mark)
	s.speculate = wasSpeculating
	return ok
}

func (s *Store) unstashFrom(mark int) {
	for i := len(s.linkStash) - 1; i >= mark; i-- {
		st := s.linkStash[i]
		*st.m = st.prev
	}
	s.linkStash = s.linkStash[:mark]
}

// AdjustLevel lowers m's level to at most level, used by the occurs-check
// walk during unification (spec.md §4.3 step 3) so a solved metavariable
// never escapes the scope it was introduced in.
func (s *Store) AdjustLevel(m *core.Meta, level int) {
	if s.speculate && m.Level > level {
		s.stash(m)
	}
	if level < m.Level {
		m.Level = level
	}
}

// FlattenLinks path-compresses every allocated metavariable so later
// lookups skip directly to the solved term, same purpose as the teacher's
// VarTracker.FlattenLinks.
func (s *Store) FlattenLinks() {
	for _, m := range s.allocated {
		if m.State == core.MetaLinked {
			m.Link = core.Deref(m.Link)
		}
	}
}

// Reset clears the store for reuse across independent module compilations.
func (s *Store) Reset() {
	s.allocated = s.allocated[:0]
	s.linkStash = s.linkStash[:0]
	s.speculate = false
}
