// Package mir is the MIR data model (spec.md §3, component C5): types, places, operands,
// rvalues, statements, terminators, bodies, functions and modules. It is the join structure
// between the MIR body builder (internal/builder, C6) and the LLVM emitters
// (internal/codegen/..., C7-C9); everything in this package is pure data, grounded on the
// teacher's src/ir/lir package (Go field-tagged structs with a textual String() form) and on
// the wider corpus's MIR packages (other_examples' yarlson/mir.go, vovakirdan-surge/internal/mir,
// malphas-lang/internal/mir all take the same "tagged variant + String()" shape).
package mir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// TyKind tags the variant held by a Ty.
type TyKind uint8

// PointerQualifiers is the qualifier set attached to a Pointer Ty.
type PointerQualifiers struct {
	Restrict      bool
	NoAlias       bool
	ReadOnly      bool
	ExposeAddress bool
	Alignment     uint32 // 0 means unset.
}

// GenericArg is one generic type argument of a Named Ty.
type GenericArg struct {
	Ty Ty
}

// FnTy is the signature carried by a Ty of kind Fn (a delegate/function-pointer type).
type FnTy struct {
	Params []Ty
	Ret    Ty
}

// Ty is the MIR type: a tagged variant matching spec.md §3 exactly. Only the fields relevant to
// Kind are populated; callers must switch on Kind before reading other fields, mirroring the
// "probe predicate" pattern spec.md §9 calls out for the emitter.
type Ty struct {
	Kind TyKind

	// Named
	Name string
	Args []GenericArg

	// Pointer / Ref / Nullable / Vec / Span / ReadOnlySpan / Rc / Arc (single element)
	Elem *Ty

	// Pointer
	PtrMutable bool
	PtrQuals   PointerQualifiers

	// Ref
	RefReadOnly bool

	// Tuple
	Elems []Ty

	// Array
	Rank   uint32
	Length *uint64 // nil means unsized/open rank.

	// Fn
	Fn *FnTy

	// TraitObject
	Traits []string
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	KUnit TyKind = iota
	KUnknown
	KStr
	KString
	KNamed
	KPointer
	KRef
	KNullable
	KTuple
	KArray
	KVec
	KSpan
	KReadOnlySpan
	KRc
	KArc
	KFn
	KTraitObject
)

// -------------------
// ----- globals -----
// -------------------

var kindNames = [...]string{
	"unit", "unknown", "str", "string", "named", "pointer", "ref", "nullable",
	"tuple", "array", "vec", "span", "readonlyspan", "rc", "arc", "fn", "traitobject",
}

// ---------------------
// ----- functions -----
// ---------------------

// String names the TyKind tag.
func (k TyKind) String() string {
	if int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Unit, Unknown, Str and String construct the four nullary Ty variants.
func Unit() Ty    { return Ty{Kind: KUnit} }
func Unknown() Ty { return Ty{Kind: KUnknown} }
func Str() Ty     { return Ty{Kind: KStr} }
func String() Ty  { return Ty{Kind: KString} }

// Named constructs a Named Ty.
func Named(name string, args ...GenericArg) Ty {
	return Ty{Kind: KNamed, Name: name, Args: args}
}

// Pointer constructs a Pointer Ty.
func Pointer(elem Ty, mutable bool, quals PointerQualifiers) Ty {
	return Ty{Kind: KPointer, Elem: &elem, PtrMutable: mutable, PtrQuals: quals}
}

// Ref constructs a Ref Ty.
func Ref(elem Ty, readOnly bool) Ty {
	return Ty{Kind: KRef, Elem: &elem, RefReadOnly: readOnly}
}

// Nullable constructs a Nullable Ty wrapping elem.
func Nullable(elem Ty) Ty { return Ty{Kind: KNullable, Elem: &elem} }

// Tuple constructs a Tuple Ty.
func Tuple(elems ...Ty) Ty { return Ty{Kind: KTuple, Elems: elems} }

// Array constructs an Array Ty. A nil length denotes an unsized array.
func Array(elem Ty, rank uint32, length *uint64) Ty {
	return Ty{Kind: KArray, Elem: &elem, Rank: rank, Length: length}
}

// Vec, Span, ReadOnlySpan, Rc and Arc construct their single-element-wrapping Ty variants.
func Vec(elem Ty) Ty          { return Ty{Kind: KVec, Elem: &elem} }
func Span(elem Ty) Ty         { return Ty{Kind: KSpan, Elem: &elem} }
func ReadOnlySpan(elem Ty) Ty { return Ty{Kind: KReadOnlySpan, Elem: &elem} }
func Rc(elem Ty) Ty           { return Ty{Kind: KRc, Elem: &elem} }
func Arc(elem Ty) Ty          { return Ty{Kind: KArc, Elem: &elem} }

// Fn constructs a Fn Ty (a delegate's call signature, not the six-field aggregate — see
// internal/layout for the aggregate shape).
func Fn(params []Ty, ret Ty) Ty {
	return Ty{Kind: KFn, Fn: &FnTy{Params: params, Ret: ret}}
}

// TraitObject constructs a TraitObject Ty over the given trait names.
func TraitObject(traits ...string) Ty {
	sorted := append([]string(nil), traits...)
	sort.Strings(sorted)
	return Ty{Kind: KTraitObject, Traits: sorted}
}

// CanonicalName returns the deterministic join key used by the type layout table (spec.md §3:
// "two Ty values are equal iff their canonical names are"). Every constructor above produces a
// value whose CanonicalName is stable across process runs and independent of map iteration
// order (GenericArg/Elems are walked positionally; Traits is pre-sorted by TraitObject).
func (t Ty) CanonicalName() string {
	switch t.Kind {
	case KUnit:
		return "()"
	case KUnknown:
		return "?"
	case KStr:
		return "str"
	case KString:
		return "String"
	case KNamed:
		if len(t.Args) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.Ty.CanonicalName()
		}
		return t.Name + "<" + strings.Join(parts, ",") + ">"
	case KPointer:
		q := t.PtrQuals.suffix()
		if t.PtrMutable {
			return "*mut" + q + " " + t.Elem.CanonicalName()
		}
		return "*const" + q + " " + t.Elem.CanonicalName()
	case KRef:
		if t.RefReadOnly {
			return "&" + t.Elem.CanonicalName()
		}
		return "&mut " + t.Elem.CanonicalName()
	case KNullable:
		return t.Elem.CanonicalName() + "?"
	case KTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.CanonicalName()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case KArray:
		ln := "_"
		if t.Length != nil {
			ln = strconv.FormatUint(*t.Length, 10)
		}
		return fmt.Sprintf("[%s;%d;%s]", t.Elem.CanonicalName(), t.Rank, ln)
	case KVec:
		return "Vec<" + t.Elem.CanonicalName() + ">"
	case KSpan:
		return "Span<" + t.Elem.CanonicalName() + ">"
	case KReadOnlySpan:
		return "ReadOnlySpan<" + t.Elem.CanonicalName() + ">"
	case KRc:
		return "Rc<" + t.Elem.CanonicalName() + ">"
	case KArc:
		return "Arc<" + t.Elem.CanonicalName() + ">"
	case KFn:
		parts := make([]string, len(t.Fn.Params))
		for i, p := range t.Fn.Params {
			parts[i] = p.CanonicalName()
		}
		return "Fn(" + strings.Join(parts, ",") + ")->" + t.Fn.Ret.CanonicalName()
	case KTraitObject:
		return "dyn " + strings.Join(t.Traits, "+")
	default:
		return "?"
	}
}

// Equal reports whether two Ty values have the same canonical name.
func (t Ty) Equal(other Ty) bool { return t.CanonicalName() == other.CanonicalName() }

// String implements fmt.Stringer via CanonicalName, so a Ty is safe to use directly in error
// messages and %v format verbs.
func (t Ty) String() string { return t.CanonicalName() }

func (q PointerQualifiers) suffix() string {
	var parts []string
	if q.Restrict {
		parts = append(parts, "restrict")
	}
	if q.NoAlias {
		parts = append(parts, "noalias")
	}
	if q.ReadOnly {
		parts = append(parts, "readonly")
	}
	if q.ExposeAddress {
		parts = append(parts, "expose_address")
	}
	if q.Alignment != 0 {
		parts = append(parts, "align("+strconv.FormatUint(uint64(q.Alignment), 10)+")")
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// IsPointerLike reports whether t's LLVM representation is a bare `ptr`: pointers, references
// and Rc/Arc are pointer-like; Fn (delegate) values are not, being a six-field aggregate. Used by the emitter's
// probe-predicate dispatch (spec.md §9).
func (t Ty) IsPointerLike() bool {
	switch t.Kind {
	case KPointer, KRef, KRc, KArc:
		return true
	default:
		return false
	}
}
