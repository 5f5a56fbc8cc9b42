// Package modgraph orders a program's definitions for elaboration
// (spec.md §5's "topological order of use" guarantee), using Tarjan's SCC
// algorithm adapted from the teacher's internal/util.Graph. The caller
// (package elaborator) accepts a multi-definition cycle when at least one
// of its members is a postulate (spec.md §3, "forward declarations via
// postulates") or when it consists only of fn definitions, which are
// elaborated together as a group; otherwise it reports
// diag.CircularDependency.
package modgraph

import "github.com/corelang/elaborator/ast"

// Node is one definition tracked by the graph, carrying enough of its
// ast.Def to let the caller decide whether a cycle it participates in is
// legitimately broken.
type Node struct {
	Name        string
	Def         ast.Def
	IsPostulate bool
}

// Graph is an adjacency list over definition indices, directly continuing
// the teacher's Graph = [][]int representation.
type Graph struct {
	Nodes []Node
	edges [][]int
	index map[string]int
}

// Build constructs an empty graph with one node per definition in defs,
// preserving declaration order (spec.md §5's determinism requirement: "the
// implementation order... must be fixed").
func Build(defs []ast.Def) *Graph {
	g := &Graph{
		Nodes: make([]Node, len(defs)),
		edges: make([][]int, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		_, isPostulate := d.(*ast.FnPostulate)
		_, isTypePostulate := d.(*ast.TypePostulate)
		g.Nodes[i] = Node{Name: d.DefName(), Def: d, IsPostulate: isPostulate || isTypePostulate}
		g.index[d.DefName()] = i
	}
	return g
}

// Index looks up the node index for a definition name, used by the
// dependency-collection pass (in package elaborator) when it walks a
// definition's body for references to other definitions.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// AddEdge records that the definition at "from" refers to the definition
// at "to".
func (g *Graph) AddEdge(from, to int) {
	for _, succ := range g.edges[from] {
		if succ == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

// SCC returns strongly-connected components in topological order (a
// component's dependencies all appear in earlier components), via
// Tarjan's algorithm. A singleton component with no self-edge is an
// ordinary, acyclic definition.
func (g *Graph) SCC() [][]int {
	state := &sccState{
		indexTable: make([]int, len(g.Nodes)),
		lowLink:    make([]int, len(g.Nodes)),
		onStack:    make([]bool, len(g.Nodes)),
	}
	for v := range g.Nodes {
		if state.indexTable[v] == 0 {
			g.tarjan(state, v)
		}
	}
	return state.sccs
}

// HasSelfEdge reports whether node v depends on itself, the simplest form
// of an unbroken cycle (a recursive definition with no postulate).
func (g *Graph) HasSelfEdge(v int) bool {
	for _, succ := range g.edges[v] {
		if succ == v {
			return true
		}
	}
	return false
}

// CyclePostulated reports whether at least one member of the SCC is a
// postulate; it does not check which cycle edges pass through that
// postulate.
// A single-postulate SCC still participates in code-gen as an opaque
// reference, per spec.md §3's "FnPostulate: no body; body is treated as
// an opaque reference at code-gen time".
func (g *Graph) CyclePostulated(scc []int) bool {
	for _, v := range scc {
		if g.Nodes[v].IsPostulate {
			return true
		}
	}
	return false
}

type sccState struct {
	index      int
	indexTable []int
	lowLink    []int
	onStack    []bool

	stack []int
	sccs  [][]int
}

func (g *Graph) tarjan(state *sccState, v int) {
	state.index++
	state.indexTable[v] = state.index
	state.lowLink[v] = state.index
	state.stack = append(state.stack, v)
	state.onStack[v] = true

	for _, succ := range g.edges[v] {
		if state.indexTable[succ] == 0 {
			g.tarjan(state, succ)
			if state.lowLink[succ] < state.lowLink[v] {
				state.lowLink[v] = state.lowLink[succ]
			}
		} else if state.onStack[succ] {
			if state.indexTable[succ] < state.lowLink[v] {
				state.lowLink[v] = state.indexTable[succ]
			}
		}
	}

	if state.lowLink[v] == state.indexTable[v] {
		var c []int
		for {
			n := len(state.stack) - 1
			succ := state.stack[n]
			state.stack = state.stack[:n]
			state.onStack[succ] = false
			c = append(c, succ)
			if succ == v {
				break
			}
		}
		state.sccs = append(state.sccs, c)
	}
}
