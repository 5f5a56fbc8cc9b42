package dispatch

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/unify"
)

// Predicate is a deferred (spec.md §4.6 "stuck") use of an interface
// method whose carrier is not yet concrete enough to pick an
// implementation. It is attached to the enclosing definition and
// re-checked once that definition's own signature is finalized.
type Predicate struct {
	InterfaceID string
	Method      string
	Carrier     core.Term
	Ov          *core.OvRef
}

// Outcome is the result of attempting to resolve one OvRef.
type Outcome struct {
	// Resolved is the global the OvRef rewrote to, non-nil on success.
	Resolved *core.Ref
	// Deferred is non-nil when the carrier is still abstract and the call
	// site has a `where` clause that can discharge it later.
	Deferred *Predicate
}

// AmbiguousInstanceError distinguishes spec.md §7's "Ambiguous instance"
// diagnostic kind from a plain resolution failure, so callers can route it
// to diag.AmbiguousInstance instead of the generic fallback.
type AmbiguousInstanceError struct {
	InterfaceID string
	Candidates  int
}

func (e *AmbiguousInstanceError) Error() string {
	return fmt.Sprintf("ambiguous implementation of %q: %d candidates match", e.InterfaceID, e.Candidates)
}

// Resolver resolves OvRef nodes against a Registry during elaboration of
// one definition. Grounded on types.TypeEnv.FindMethodInstance, adapted
// to use unify.Engine.CanUnify/Unify for carrier matching instead of the
// teacher's direct type-variable comparison, since carriers here may
// still be row-kinded or higher-kinded metavariables.
type Resolver struct {
	reg    *Registry
	engine *unify.Engine
	// openCarriers holds the implicit-parameter names in scope with a
	// `where Interface<T>` clause on the enclosing definition, so a stuck
	// predicate can be matched back to a concrete argument once the
	// definition is fully checked (spec.md §4.6 step 4).
	openCarriers map[string]map[string]bool // implicit param name -> set of interface names it's constrained by
}

func NewResolver(reg *Registry, engine *unify.Engine, openCarriers map[string]map[string]bool) *Resolver {
	return &Resolver{reg: reg, engine: engine, openCarriers: openCarriers}
}

// Resolve implements spec.md §4.6's search: normalize the carrier, collect
// every implementation of ov.InterfaceID whose carrier head can unify with
// it, then decide between a unique rewrite, a deferred predicate, an
// ambiguity error, or a "no instance" error.
func (r *Resolver) Resolve(ov *core.OvRef) (Outcome, error) {
	carrier := core.Deref(ov.Carrier)

	// An explicit kind argument at the call site (spec.md §6.1's
	// `f<R, T=...>(...)`, e.g. `map<Foo>(...)`) pins the carrier before the
	// implementation search runs, rather than leaving it to be recovered
	// structurally through an argument type later.
	for _, arg := range ov.KindArgs {
		if err := r.engine.Unify(carrier, arg); err != nil {
			return Outcome{}, err
		}
	}
	carrier = core.Deref(ov.Carrier)

	impls := r.reg.Implementations(ov.InterfaceID)
	if len(impls) == 0 && !isAbstractCarrier(carrier) {
		return Outcome{}, errors.Errorf("interface %q has no implementations", ov.InterfaceID)
	}

	var matches []*Implementation
	for _, impl := range impls {
		if r.engine.CanUnify(carrier, impl.Carrier) {
			matches = append(matches, impl)
		}
	}

	switch len(matches) {
	case 1:
		if err := r.engine.Unify(carrier, matches[0].Carrier); err != nil {
			return Outcome{}, err
		}
		target, ok := matches[0].Methods[ov.Method]
		if !ok {
			return Outcome{}, errors.Errorf("implementation of %q for this carrier has no method %q", ov.InterfaceID, ov.Method)
		}
		return Outcome{Resolved: core.NewRef(target)}, nil

	case 0:
		if isAbstractCarrier(carrier) {
			if pred, ok := r.deferrable(ov, carrier); ok {
				return Outcome{Deferred: pred}, nil
			}
			return Outcome{}, errors.Errorf("no implementation of %q found and carrier is not constrained by a where clause", ov.InterfaceID)
		}
		return Outcome{}, errors.Errorf("no implementation of %q for this type", ov.InterfaceID)

	default:
		if isAbstractCarrier(carrier) {
			if pred, ok := r.deferrable(ov, carrier); ok {
				return Outcome{Deferred: pred}, nil
			}
		}
		return Outcome{}, &AmbiguousInstanceError{InterfaceID: ov.InterfaceID, Candidates: len(matches)}
	}
}

// deferrable checks whether carrier is the Var node of an implicit
// parameter the enclosing signature already constrains with
// `where InterfaceID<...>` (spec.md §4.6 step 4); if so the OvRef can be
// left stuck rather than failing now.
func (r *Resolver) deferrable(ov *core.OvRef, carrier core.Term) (*Predicate, bool) {
	v, ok := carrier.(*core.Var)
	if !ok {
		return nil, false
	}
	constraints, ok := r.openCarriers[v.Name]
	if !ok || !constraints[ov.InterfaceID] {
		return nil, false
	}
	return &Predicate{InterfaceID: ov.InterfaceID, Method: ov.Method, Carrier: carrier, Ov: ov}, true
}

// isAbstractCarrier reports whether carrier is still a metavariable, a row
// variable, or a plain bound type variable rather than a concrete type
// head, the condition under which deferral (rather than outright failure)
// is considered at all.
func isAbstractCarrier(t core.Term) bool {
	switch t.(type) {
	case *core.Meta, *core.Var, *core.RowVar:
		return true
	default:
		return false
	}
}

// Discharge re-attempts a previously deferred predicate once its carrier
// implicit parameter has been instantiated at a call site (spec.md §4.6
// step 4). The caller is responsible for substituting the returned Ref
// wherever pred.Ov was held.
func (r *Resolver) Discharge(pred *Predicate) (*core.Ref, error) {
	outcome, err := r.Resolve(pred.Ov)
	if err != nil {
		return nil, errors.Wrapf(err, "discharging predicate for %s", pred.InterfaceID)
	}
	if outcome.Deferred != nil {
		return nil, fmt.Errorf("predicate for %q still stuck after its carrier was supposedly instantiated", pred.InterfaceID)
	}
	return outcome.Resolved, nil
}
