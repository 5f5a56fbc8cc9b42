package resolve

// Scope is a lexical chain of local bindings (spec.md §4.1: unqualified
// names are searched "local scope -> enclosing parameters -> current-file
// global scope -> imported names. The first match wins; shadowing by
// locals is permitted"). Each link is tagged as either a parameter scope
// or a plain local scope so a hit can be reported with the right
// resolution kind; walking outward through the chain already gives
// correct shadowing since lexically nested scopes are nested here too.
type Scope struct {
	parent *Scope
	names  map[string]bool
	param  bool
}

func newRootScope() *Scope { return &Scope{names: map[string]bool{}} }

// Child opens a new local (let-bound) scope, e.g. entering a block.
func (s *Scope) Child() *Scope { return &Scope{parent: s, names: map[string]bool{}} }

// ChildParams opens a new parameter scope, e.g. entering a function or
// lambda body.
func (s *Scope) ChildParams() *Scope { return &Scope{parent: s, names: map[string]bool{}, param: true} }

// Declare adds name to this scope.
func (s *Scope) Declare(name string) { s.names[name] = true }

// Lookup walks outward from s and reports the kind of the first scope
// that binds name.
func (s *Scope) Lookup(name string) (isParam, found bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return cur.param, true
		}
	}
	return false, false
}
