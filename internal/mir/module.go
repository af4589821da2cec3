package mir

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// StaticVar is a module-level static/global variable.
type StaticVar struct {
	Symbol  string
	Ty      Ty
	Init    *ConstOperand
	Mutable bool
}

// InternedString is one interned string literal, addressed by its index into Module.Strings.
type InternedString struct {
	Symbol string
	Value  string
}

// VtableEntry is one function-pointer slot of a trait/class vtable.
type VtableEntry struct {
	Method string
	Symbol string
}

// Vtable is a named, ordered list of function pointer slots, for either a trait implementation
// or a class.
type Vtable struct {
	Name    string
	Entries []VtableEntry
}

// ReflectionDescriptor is a minimal reflection record for a named type, sufficient for the
// runtime's dynamic type-id and trait-object machinery.
type ReflectionDescriptor struct {
	TypeName string
	TypeId   int64
}

// Module is the top-level MIR unit produced by the front end / body builder and consumed by the
// LLVM module emitter (spec.md §3: "MirModule").
type Module struct {
	Name            string
	Functions       []*MirFunction
	Statics         []StaticVar
	TraitVtables    []Vtable
	ClassVtables    []Vtable
	Strings         []InternedString
	Reflection      []ReflectionDescriptor
}

// ---------------------
// ----- functions -----
// ---------------------

// NewModule returns an empty, named Module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddFunction appends fn to the module and returns it for chaining.
func (m *Module) AddFunction(fn *MirFunction) *MirFunction {
	m.Functions = append(m.Functions, fn)
	return fn
}

// InternString appends s under symbol and returns the InternedString's index.
func (m *Module) InternString(symbol, s string) int {
	idx := len(m.Strings)
	m.Strings = append(m.Strings, InternedString{Symbol: symbol, Value: s})
	return idx
}

// FunctionByName returns the first function named name, or nil.
func (m *Module) FunctionByName(name string) *MirFunction {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
