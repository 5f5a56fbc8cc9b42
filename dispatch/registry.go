// Package dispatch implements the predicate & overload resolver of
// spec.md §4.6: it holds the table of declared interfaces and their
// implementations, and resolves an OvRef into either a concrete Ref, a
// predicate attached to an enclosing signature, or an error. Grounded on
// the teacher's types.TypeClass/Instance and TypeEnv.DeclareInstance
// (overlap checking via CanUnify), simplified because spec.md's
// interfaces have no sub/superclass hierarchy: dispatch is a flat lookup
// table "(interfaceId, carrierHead) -> implementation" per spec.md §9.
package dispatch

import (
	"fmt"

	"github.com/benbjohnson/immutable"

	"github.com/corelang/elaborator/core"
)

// Method is one method signature declared by an InterfaceDef, enough
// information for the resolver and elaborator to type an OvRef before it
// is resolved.
type Method struct {
	Name string
	Type core.Term // a Pi chain built from the surface signature
}

// Interface is a registered `interface ... for T<...> { ... }` (spec.md
// §3). CarrierArity is 0 for an ordinary type parameter and n for an
// n-ary higher-kinded carrier (spec.md §9's "Functor for F<T>").
type Interface struct {
	Name         string
	CarrierParam string // the surface name bound to the carrier inside Methods' signatures
	CarrierArity int
	Methods      map[string]Method
}

// Implementation is one registered `implements I for C { ... }` (spec.md
// §3). DeclOrder records declaration order so ambiguity reports are
// deterministic (spec.md §5, §8 invariant 4).
type Implementation struct {
	Interface string
	Carrier   core.Term
	Methods   map[string]core.GlobalID
	DeclOrder int
}

// Registry is the elaborator's interface/implementation table, owned for
// the lifetime of one Elaborate run. The implementation list per
// interface is kept in an immutable.SortedMap keyed by declaration order
// so iteration is always declaration-order-stable, continuing the
// teacher's own use of github.com/benbjohnson/immutable for its ordered
// type tables (types.TypeMap).
type Registry struct {
	interfaces      map[string]*Interface
	impls           map[string]*immutable.SortedMap // interface name -> SortedMap[int]*Implementation
	methodInterface map[string]string              // method name -> declaring interface name
}

func NewRegistry() *Registry {
	return &Registry{
		interfaces:      map[string]*Interface{},
		impls:           map[string]*immutable.SortedMap{},
		methodInterface: map[string]string{},
	}
}

func (r *Registry) DeclareInterface(i *Interface) error {
	if _, exists := r.interfaces[i.Name]; exists {
		return fmt.Errorf("interface %q declared more than once", i.Name)
	}
	r.interfaces[i.Name] = i
	for name := range i.Methods {
		r.methodInterface[name] = i.Name
	}
	return nil
}

// MethodInterface looks up the interface that declared method, used by the
// elaborator to dispatch a UFCS method call whose name is not an ordinary
// record field (spec.md §4.6).
func (r *Registry) MethodInterface(method string) (string, bool) {
	name, ok := r.methodInterface[method]
	return name, ok
}

func (r *Registry) Interface(name string) (*Interface, bool) {
	i, ok := r.interfaces[name]
	return i, ok
}

// AddImplementation registers impl, assigning it the next declaration
// order for its interface. Overlap with existing implementations is not
// checked, neither here nor by package elaborate before it calls this;
// overlapping implementations surface only as an ambiguity at resolution.
func (r *Registry) AddImplementation(impl *Implementation) {
	m, ok := r.impls[impl.Interface]
	if !ok {
		m = immutable.NewSortedMap(nil)
	}
	impl.DeclOrder = m.Len()
	m = m.Set(impl.DeclOrder, impl)
	r.impls[impl.Interface] = m
}

// Implementations returns the implementations of interfaceName in
// declaration order.
func (r *Registry) Implementations(interfaceName string) []*Implementation {
	m, ok := r.impls[interfaceName]
	if !ok {
		return nil
	}
	out := make([]*Implementation, 0, m.Len())
	it := m.Iterator()
	for !it.Done() {
		_, v := it.Next()
		out = append(out, v.(*Implementation))
	}
	return out
}
