// Package elaborator is the entry point of this module: Elaborate takes a
// resolved-free surface ast.Program and produces a fully-typed core.Module,
// orchestrating name resolution, dependency ordering, constraint solving,
// predicate resolution, and finalization (spec.md §5, §7). Grounded on the
// teacher's top-level InferContext/TypeEnv orchestration (each inference
// entry point allocates a fresh varTracker/Context, then walks definitions
// in dependency order), adapted to this module's multi-package pipeline.
package elaborator

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/corelang/elaborator/ast"
	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/diag"
	"github.com/corelang/elaborator/dispatch"
	"github.com/corelang/elaborator/elaborate"
	"github.com/corelang/elaborator/metas"
	"github.com/corelang/elaborator/modgraph"
	"github.com/corelang/elaborator/resolve"
	"github.com/corelang/elaborator/rows"
	"github.com/corelang/elaborator/span"
	"github.com/corelang/elaborator/unify"
	"github.com/corelang/elaborator/zonk"
)

// Options configures one Elaborate run, built with functional options
// (spec.md's Ambient Stack: configuration follows the teacher's pattern of
// small With* setters over a struct rather than a bare struct literal, so
// new settings can be added without breaking callers).
type Options struct {
	maxErrors              int
	deferredInstanceMatching bool
	logger                 *logrus.Logger
}

type Option func(*Options)

// WithMaxErrors caps how many diagnostics diag.Batch retains before it
// starts silently dropping further ones (spec.md §7); 0 means unlimited.
func WithMaxErrors(n int) Option { return func(o *Options) { o.maxErrors = n } }

// WithDeferredInstanceMatching toggles whether an OvRef whose carrier is
// still abstract may be left as a stuck predicate (spec.md §4.6 step 4,
// SPEC_FULL.md Supplemented Features) rather than failing immediately.
// Disabling it is mainly useful for tests that want to assert the
// conservative, always-fail behavior.
func WithDeferredInstanceMatching(on bool) Option {
	return func(o *Options) { o.deferredInstanceMatching = on }
}

// WithLogger installs a logrus.Logger the elaborator reports per-definition
// progress and recovered errors to; the default is logrus.StandardLogger.
func WithLogger(log *logrus.Logger) Option { return func(o *Options) { o.logger = log } }

func defaultOptions() *Options {
	return &Options{maxErrors: 0, deferredInstanceMatching: true, logger: logrus.StandardLogger()}
}

// Elaborate runs the full pipeline over prog and returns the resulting
// module together with every diagnostic collected along the way. Per
// spec.md §7, a definition that fails to elaborate is skipped rather than
// aborting the whole run; its dependents are then elaborated against
// whatever partial signature information is available.
func Elaborate(moduleName string, prog *ast.Program, opts ...Option) (*core.Module, []*diag.Error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	errs := diag.NewBatch(o.maxErrors)

	r := resolve.New(prog, errs)
	r.Resolve(prog)

	graph := modgraph.Build(prog.Defs)
	collectDependencyEdges(graph, prog.Defs)

	store := metas.NewStore()
	engine := unify.New(store)
	registry := dispatch.NewRegistry()
	ctx := elaborate.NewContext(store, engine, registry, o.logger)

	globalEnv := elaborate.NewRootEnv()
	mod := core.NewModule(moduleName)

	// Interfaces, type aliases and class record shapes must all be visible
	// before any definition that might name them is elaborated, so a first
	// pass handles every InterfaceDef, TypeAlias and ClassDef ahead of
	// dependency-ordered processing of the rest (spec.md §4.6's search
	// assumes the full interface table is already built; a RefType naming
	// a class or alias needs ctx.Aliases populated the same way). Running
	// ElabClassType here, rather than waiting for ElabClassDef's normal,
	// dependency-ordered turn, is what lets an earlier-elaborated
	// definition's signature name a later class and still see its record
	// row instead of an opaque Ref.
	for _, d := range prog.Defs {
		switch d := d.(type) {
		case *ast.InterfaceDef:
			if err := elaborate.ElabInterfaceDef(ctx, d); err != nil {
				errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), d.Span(), d.Name, err))
			}
		case *ast.TypeAlias:
			if err := elaborate.ElabTypeAlias(ctx, globalEnv, d); err != nil {
				errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), d.Span(), d.Name, err))
			}
		case *ast.ClassDef:
			if _, err := elaborate.ElabClassType(ctx, globalEnv, d); err != nil {
				errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), d.Span(), d.Name, err))
			}
		}
	}

	sccs := graph.SCC()
	for _, scc := range sccs {
		if len(scc) > 1 && !graph.CyclePostulated(scc) {
			if elaborateFnGroup(ctx, globalEnv, mod, moduleName, graph, scc, errs, o) {
				continue
			}
			for _, idx := range scc {
				errs.Add(diag.New(diag.CircularDependency, graph.Nodes[idx].Def.Span(), graph.Nodes[idx].Name,
					"definition participates in an unbroken dependency cycle"))
			}
			continue
		}
		// Postulates first: they have no outgoing edges of their own, but a
		// cycle member that calls one needs its signature already bound.
		for _, idx := range scc {
			if graph.Nodes[idx].IsPostulate {
				elaborateOne(ctx, globalEnv, mod, moduleName, graph.Nodes[idx].Def, errs, o)
			}
		}
		for _, idx := range scc {
			if !graph.Nodes[idx].IsPostulate {
				elaborateOne(ctx, globalEnv, mod, moduleName, graph.Nodes[idx].Def, errs, o)
			}
		}
	}

	return mod, errs.Errors()
}

// elaborateFnGroup elaborates a strongly connected component of mutually
// recursive FnDefs as one group: every member's declared signature is
// bound into globalEnv, sharing fresh metavariables for any omitted return
// type, before any member's body is checked, so calls within the group
// resolve against those signatures; each body's real, checked type is then
// unified against its provisional one. This is how spec.md §5's
// "topological order of use" combines with "postulates break cycles" for
// mutual recursion that was never explicitly postulated (SPEC_FULL.md). It
// returns false, doing nothing, when the SCC contains anything other than
// a FnDef, since only a function signature can be forward-declared this
// way — such an SCC falls back to being reported as CircularDependency.
func elaborateFnGroup(ctx *elaborate.Context, globalEnv *elaborate.TypeEnv, mod *core.Module, moduleName string, graph *modgraph.Graph, scc []int, errs *diag.Batch, o *Options) bool {
	fnDefs := make([]*ast.FnDef, len(scc))
	for i, idx := range scc {
		fd, ok := graph.Nodes[idx].Def.(*ast.FnDef)
		if !ok {
			return false
		}
		fnDefs[i] = fd
	}

	o.logger.WithField("group", fnNames(fnDefs)).Debug("elaborating mutually recursive function group")

	provisional := make([]core.Term, len(fnDefs))
	for i, fd := range fnDefs {
		ctx.ResetDefinition()
		ty, err := elaborate.ElabFnSignature(ctx, globalEnv, fd)
		if err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), fd.Span(), fd.Name, err))
			return true
		}
		provisional[i] = ty
		globalEnv.BindValue(fd.Name, ty)
	}

	for i, fd := range fnDefs {
		ctx.ResetDefinition()
		def, err := elaborate.ElabFnDef(ctx, globalEnv, moduleName, fd)
		if err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), fd.Span(), fd.Name, err))
			continue
		}
		if err := ctx.Engine.Unify(provisional[i], def.Type); err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), fd.Span(), fd.Name, err))
			continue
		}
		finishDefinition(ctx, mod, globalEnv, def, fd.Span(), errs, o)
	}
	return true
}

func fnNames(defs []*ast.FnDef) string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return fmt.Sprint(names)
}

// diagKind recognizes the specific error types a body-checking or
// definition-registering call can return and maps each to its spec.md §7
// diagnostic kind, falling back to the kind the call site would otherwise
// report under. Without this, every error bubbling up, regardless of what
// specifically went wrong, gets wrapped under whatever single diag.Kind the
// call site passes to diag.Wrap.
func diagKind(err error, fallback diag.Kind) diag.Kind {
	var exh *elaborate.ExhaustivenessError
	if errors.As(err, &exh) {
		return diag.Exhaustiveness
	}
	var km *elaborate.KindMismatchError
	if errors.As(err, &km) {
		return diag.KindMismatch
	}
	var rm *rows.MismatchError
	if errors.As(err, &rm) {
		return diag.RowMismatch
	}
	var amb *dispatch.AmbiguousInstanceError
	if errors.As(err, &amb) {
		return diag.AmbiguousInstance
	}
	return fallback
}

func elaborateOne(ctx *elaborate.Context, globalEnv *elaborate.TypeEnv, mod *core.Module, moduleName string, d ast.Def, errs *diag.Batch, o *Options) {
	ctx.ResetDefinition()
	o.logger.WithField("def", d.DefName()).Debug("elaborating definition")

	switch d := d.(type) {
	case *ast.FnDef:
		def, err := elaborate.ElabFnDef(ctx, globalEnv, moduleName, d)
		if err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), d.Span(), d.Name, err))
			return
		}
		finishDefinition(ctx, mod, globalEnv, def, d.Span(), errs, o)

	case *ast.FnPostulate:
		def, err := elaborate.ElabFnPostulate(ctx, globalEnv, moduleName, d)
		if err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), d.Span(), d.Name, err))
			return
		}
		globalEnv.BindValue(d.Name, def.Type)
		mod.AddDefinition(def)

	case *ast.ConstDef:
		def, err := elaborate.ElabConstDef(ctx, globalEnv, moduleName, d)
		if err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), d.Span(), d.Name, err))
			return
		}
		finishDefinition(ctx, mod, globalEnv, def, d.Span(), errs, o)

	case *ast.ClassDef:
		defs, err := elaborate.ElabClassDef(ctx, globalEnv, moduleName, d)
		if err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.TypeMismatch), d.Span(), d.Name, err))
			return
		}
		for _, def := range defs {
			finishDefinition(ctx, mod, globalEnv, def, d.Span(), errs, o)
		}

	case *ast.ImplementsDef:
		defs, carrier, methodIDs, err := elaborate.ElabImplementsDef(ctx, globalEnv, moduleName, d)
		if err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.NoInstance), d.Span(), d.InterfaceName, err))
			return
		}
		for _, def := range defs {
			finishDefinition(ctx, mod, globalEnv, def, d.Span(), errs, o)
		}
		mod.AddImplementation(&core.Implementation{
			Key:     core.ImplKey{InterfaceID: d.InterfaceName, CarrierHead: elaborate.CarrierHead(carrier)},
			Carrier: carrier,
			Methods: methodIDs,
		})

	case *ast.TypeAlias, *ast.TypePostulate, *ast.InterfaceDef:
		// Interfaces and aliases were registered in the earlier pass;
		// postulated types have no core.Definition or alias entry of their
		// own, they resolve through ElabType's opaque-Ref fallback for an
		// unbound name (spec.md §3).
	}
}

func finishDefinition(ctx *elaborate.Context, mod *core.Module, globalEnv *elaborate.TypeEnv, def *core.Definition, sp span.Span, errs *diag.Batch, o *Options) {
	if def.Body != nil {
		resolved, err := elaborate.ResolveOverloads(ctx, def.Body, o.deferredInstanceMatching)
		if err != nil {
			errs.Add(diag.Wrap(diagKind(err, diag.NoInstance), sp, def.ID.Name, err))
			return
		}
		def.Body = resolved
	}
	unresolved := zonk.ZonkDefinition(def)
	if len(unresolved) > 0 {
		errs.Add(diag.New(diag.UnresolvedMeta, sp, def.ID.Name,
			fmt.Sprintf("%d unresolved metavariable(s) remain", len(unresolved))))
		return
	}
	for _, pred := range ctx.Pending {
		errs.Add(diag.New(diag.StuckPredicate, pred.Ov.Span(), def.ID.Name,
			fmt.Sprintf("predicate %s::%s could not be discharged within this definition", pred.InterfaceID, pred.Method)))
	}
	globalEnv.BindValue(def.ID.Name, def.Type)
	mod.AddDefinition(def)
}

// collectDependencyEdges walks every definition's body for references to
// other definitions, adding a graph edge for each (spec.md §5's dependency
// order). It is a shallow, name-based scan rather than a full expression
// walk: anywhere an ast.IdentExpr names another top-level definition, that
// is recorded as a dependency, which is sufficient since elaboration order
// only needs to respect use-before-define at the granularity of whole
// definitions.
func collectDependencyEdges(graph *modgraph.Graph, defs []ast.Def) {
	for i, d := range defs {
		names := map[string]bool{}
		collectIdentNames(d, names)
		for name := range names {
			if j, ok := graph.Index(name); ok && j != i {
				graph.AddEdge(i, j)
			}
		}
	}
}

func collectIdentNames(d ast.Def, out map[string]bool) {
	switch d := d.(type) {
	case *ast.FnDef:
		collectBlockNames(d.Body, out)
	case *ast.ClassDef:
		if d.Init != nil {
			collectBlockNames(d.Init, out)
		}
		for _, m := range d.Methods {
			collectBlockNames(m.Body, out)
		}
	case *ast.ImplementsDef:
		for _, m := range d.Methods {
			collectBlockNames(m.Body, out)
		}
	case *ast.ConstDef:
		if d.Value != nil {
			collectExprNames(d.Value, out)
		}
	}
}

func collectBlockNames(b *ast.Block, out map[string]bool) {
	if b == nil {
		return
	}
	for _, stmt := range b.Stmts {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			collectExprNames(s.Value, out)
		case *ast.ReturnStmt:
			if s.Value != nil {
				collectExprNames(s.Value, out)
			}
		case *ast.ExprStmt:
			collectExprNames(s.Value, out)
		}
	}
}

func collectExprNames(e ast.Expr, out map[string]bool) {
	switch e := e.(type) {
	case *ast.IdentExpr:
		if len(e.Qualifier) == 0 {
			out[e.Name] = true
		}
	case *ast.CallExpr:
		collectExprNames(e.Fn, out)
		for _, a := range e.Args {
			collectExprNames(a, out)
		}
	case *ast.MethodCallExpr:
		collectExprNames(e.Receiver, out)
		for _, a := range e.Args {
			collectExprNames(a, out)
		}
	case *ast.LambdaExpr:
		collectBlockNames(e.Body, out)
	case *ast.Block:
		collectBlockNames(e, out)
	case *ast.ObjectLitExpr:
		for _, f := range e.Fields {
			collectExprNames(f.Value, out)
		}
	case *ast.ObjectConcatExpr:
		collectExprNames(e.Left, out)
		collectExprNames(e.Right, out)
	case *ast.ObjectCastExpr:
		collectExprNames(e.Value, out)
	case *ast.RecordSelectExpr:
		collectExprNames(e.Record, out)
	case *ast.VariantExpr:
		if e.Payload != nil {
			collectExprNames(e.Payload, out)
		}
	case *ast.VariantCastExpr:
		collectExprNames(e.Value, out)
	case *ast.SwitchExpr:
		collectExprNames(e.Scrutinee, out)
		for _, c := range e.Cases {
			collectExprNames(c.Body, out)
		}
	case *ast.IfExpr:
		collectExprNames(e.Cond, out)
		collectBlockNames(e.Then, out)
		collectBlockNames(e.Else, out)
	case *ast.PipeExpr:
		collectExprNames(e.Left, out)
		collectExprNames(e.Call, out)
	case *ast.NewExpr:
		for _, a := range e.Args {
			collectExprNames(a, out)
		}
	case *ast.BinaryExpr:
		collectExprNames(e.Left, out)
		collectExprNames(e.Right, out)
	}
}
