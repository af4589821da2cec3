package mir

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// FunctionKind classifies a MirFunction's role in its owning type, if any.
type FunctionKind uint8

// Abi tags a FnSig's calling convention: the surface language's own ABI, or an `extern("...")`
// C-family ABI named by string (spec.md §3).
type Abi struct {
	Extern bool
	Name   string // e.g. "C"; empty and Extern==false means the Chic ABI.
}

// Effects records the declared side-effect set of a function signature (purity/async/etc. are
// out of scope for code generation itself but the flags survive from the resolver).
type Effects struct {
	MayPanic  bool
	MayUnwind bool
}

// FnSig is a MirFunction's signature.
type FnSig struct {
	Params   []Ty
	Ret      Ty
	Abi      Abi
	Variadic bool
	Effects  Effects
}

// Linkage tags a MirFunction's object-file linkage.
type Linkage uint8

// TracepointSpec describes a function's tracepoint, if any (spec.md §4.6.1 rule 6).
type TracepointSpec struct {
	Id         int64
	Label      string
	CPUBudget  int64
	MemBudget  int64
	GPUBudget  int64
}

// ExternSpec marks a MirFunction as an external declaration rather than a definition.
type ExternSpec struct {
	IsExtern bool
	Symbol   string
}

// MirFunction is one function: its signature, body, and the flags the emitter needs to decide
// how to lower it.
type MirFunction struct {
	Name        string
	Kind        FunctionKind
	Sig         FnSig
	Body        *MirBody
	IsAsync     bool
	IsGenerator bool
	Linkage     Linkage
	Extern      ExternSpec
	Tracepoint  *TracepointSpec
	Inline      bool // optimization hint only; never changes emitted semantics.
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	FnFunction FunctionKind = iota
	FnMethod
	FnConstructor
	FnDestructor
)

const (
	LinkageExternal Linkage = iota
	LinkageInternal
	LinkageWeak
)

// ---------------------
// ----- functions -----
// ---------------------

// IsDefinition reports whether the function has a body to emit (as opposed to a bare extern
// declaration, in which case the module emitter emits a `declare` and never calls into C8).
func (f *MirFunction) IsDefinition() bool {
	return !f.Extern.IsExtern && f.Body != nil
}

// ReturnIsVoid reports whether the signature returns Unit.
func (f *MirFunction) ReturnIsVoid() bool {
	return f.Sig.Ret.Kind == KUnit
}
