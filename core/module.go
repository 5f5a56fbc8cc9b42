package core

// DefinitionKind discriminates the entries of an elaborated Module, mirroring
// the surface ast.DefKind but stripped to what survives elaboration.
type DefinitionKind uint8

const (
	DefFunction DefinitionKind = iota
	DefPostulate
	DefConstant
)

// Definition is one fully-elaborated top-level binding: a typed term (nil
// for a postulate, whose body is opaque at code-gen time per spec.md §3)
// together with its finalised type.
type Definition struct {
	ID       GlobalID
	Kind     DefinitionKind
	Type     Term
	Body     Term // nil for DefPostulate
	Implicit []ParamInfo
}

// ImplKey identifies one registered implementation by the interface it
// implements and the head of its carrier type, the "(interfaceId,
// carrierHead)" addressing scheme of spec.md §9.
type ImplKey struct {
	InterfaceID string
	CarrierHead string
}

// Implementation is one finalised `implements` block, carrying the
// elaborated method bodies keyed by method name.
type Implementation struct {
	Key     ImplKey
	Carrier Term
	Methods map[string]GlobalID
}

// Module is the output of a full elaboration run (spec.md §6.2): every
// surviving definition in dependency order, plus the implementation table
// later predicate resolution and code generation consult.
type Module struct {
	Name            string
	Definitions     []*Definition
	Implementations map[ImplKey]*Implementation
}

func NewModule(name string) *Module {
	return &Module{Name: name, Implementations: map[ImplKey]*Implementation{}}
}

func (m *Module) AddDefinition(d *Definition) {
	m.Definitions = append(m.Definitions, d)
}

func (m *Module) AddImplementation(impl *Implementation) {
	m.Implementations[impl.Key] = impl
}

func (m *Module) Lookup(name string) (*Definition, bool) {
	for _, d := range m.Definitions {
		if d.ID.Name == name {
			return d, true
		}
	}
	return nil, false
}
