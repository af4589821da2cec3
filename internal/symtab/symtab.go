// Package symtab implements the symbol index (spec.md §4.3, component C3): name to
// (function overloads, properties, fields, delegates, constants, reflection) resolution.
// Grounded on the teacher's src/ir/symtab.go pattern of small tagged tables consulted while
// lowering, generalized to the richer entry kinds this spec's builder needs.
package symtab

import "chicc/internal/mir"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Overload is one candidate function signature for a given name.
type Overload struct {
	Symbol    string
	Params    []mir.Ty
	Ret       mir.Ty
	Generic   bool
	Specifity int // higher wins among generic candidates, per spec.md §4.4.3 rule 4.
}

// Property is a getter/setter accessor pair.
type Property struct {
	Name   string
	Ty     mir.Ty
	Getter string // symbol, or empty if write-only.
	Setter string // symbol, or empty if read-only.
}

// FieldInfo is a field's metadata as seen by the symbol index (distinct from layout.Field,
// which additionally carries the byte offset computed by the layout table).
type FieldInfo struct {
	Name string
	Ty   mir.Ty
}

// Delegate is a named delegate type's call signature.
type Delegate struct {
	Name string
	Fn   mir.FnTy
}

// Constant is a compile-time constant binding.
type Constant struct {
	Name  string
	Ty    mir.Ty
	Value mir.ConstOperand
}

// StaticVar is a module-level static binding (name resolution only; internal/mir.StaticVar is
// the emitted counterpart once a symbol has been assigned).
type StaticVar struct {
	Name string
	Ty   mir.Ty
}

// GenericParam is one generic parameter of a function or type.
type GenericParam struct {
	Name        string
	Constraints []string // trait names the argument must satisfy.
}

// Index is the name-keyed symbol table.
type Index struct {
	overloads map[string][]Overload
	props     map[string]Property
	fields    map[string][]FieldInfo // keyed by owner type canonical name.
	delegates map[string]Delegate
	consts    map[string]Constant
	statics   map[string]StaticVar
	generics  map[string][]GenericParam
}

// ---------------------
// ----- functions -----
// ---------------------

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		overloads: map[string][]Overload{},
		props:     map[string]Property{},
		fields:    map[string][]FieldInfo{},
		delegates: map[string]Delegate{},
		consts:    map[string]Constant{},
		statics:   map[string]StaticVar{},
		generics:  map[string][]GenericParam{},
	}
}

// AddOverload registers one overload candidate under name.
func (ix *Index) AddOverload(name string, o Overload) {
	ix.overloads[name] = append(ix.overloads[name], o)
}

// Overloads returns every registered overload candidate for name.
func (ix *Index) Overloads(name string) []Overload {
	return ix.overloads[name]
}

// AddProperty registers a property accessor pair.
func (ix *Index) AddProperty(p Property) { ix.props[p.Name] = p }

// Property looks up a property by name.
func (ix *Index) Property(name string) (Property, bool) {
	p, ok := ix.props[name]
	return p, ok
}

// AddField registers a field under its owning type's canonical name.
func (ix *Index) AddField(owner string, f FieldInfo) {
	ix.fields[owner] = append(ix.fields[owner], f)
}

// Fields returns every field registered for owner.
func (ix *Index) Fields(owner string) []FieldInfo { return ix.fields[owner] }

// AddDelegate registers a named delegate type.
func (ix *Index) AddDelegate(d Delegate) { ix.delegates[d.Name] = d }

// Delegate looks up a named delegate type.
func (ix *Index) Delegate(name string) (Delegate, bool) {
	d, ok := ix.delegates[name]
	return d, ok
}

// AddConst registers a compile-time constant.
func (ix *Index) AddConst(c Constant) { ix.consts[c.Name] = c }

// Const looks up a compile-time constant by name.
func (ix *Index) Const(name string) (Constant, bool) {
	c, ok := ix.consts[name]
	return c, ok
}

// AddStatic registers a module-level static binding.
func (ix *Index) AddStatic(s StaticVar) { ix.statics[s.Name] = s }

// Static looks up a module-level static binding by name.
func (ix *Index) Static(name string) (StaticVar, bool) {
	s, ok := ix.statics[name]
	return s, ok
}

// AddGenericParams registers the generic parameter list of a function or type by name.
func (ix *Index) AddGenericParams(owner string, params []GenericParam) {
	ix.generics[owner] = params
}

// GenericParams returns the generic parameter list registered for owner.
func (ix *Index) GenericParams(owner string) []GenericParam { return ix.generics[owner] }

// ResolveOverload selects among name's candidates by the exact/compatible-match policy of
// spec.md §4.4.3 rule 4: prefer a non-generic exact match; among generic candidates prefer
// higher Specifity; report ambiguity rather than guessing.
func (ix *Index) ResolveOverload(name string, argTys []mir.Ty) Match {
	candidates := ix.overloads[name]
	var exact []Overload
	for _, c := range candidates {
		if !c.Generic && paramsMatch(c.Params, argTys) {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return Match{Kind: MatchFound, Found: exact[0]}
	}
	if len(exact) > 1 {
		return Match{Kind: MatchAmbiguous, Candidates: exact}
	}
	var generic []Overload
	for _, c := range candidates {
		if c.Generic && paramsMatch(c.Params, argTys) {
			generic = append(generic, c)
		}
	}
	if len(generic) == 0 {
		return Match{Kind: MatchNone}
	}
	best := generic[0]
	tie := false
	for _, c := range generic[1:] {
		if c.Specifity > best.Specifity {
			best = c
			tie = false
		} else if c.Specifity == best.Specifity {
			tie = true
		}
	}
	if tie {
		return Match{Kind: MatchAmbiguous, Candidates: generic}
	}
	return Match{Kind: MatchFound, Found: best}
}

func paramsMatch(params, args []mir.Ty) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if !params[i].Equal(args[i]) {
			return false
		}
	}
	return true
}

// MatchKind tags a Match's tri-state outcome (spec.md §9: "Match = None | Found(one) |
// Ambiguous(list)").
type MatchKind uint8

const (
	MatchNone MatchKind = iota
	MatchFound
	MatchAmbiguous
)

// Match is the tri-state result of an overload resolution: consumers must never guess on
// Ambiguous, they must diagnose using Candidates.
type Match struct {
	Kind       MatchKind
	Found      Overload
	Candidates []Overload
}
