package layout

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/types"

	"chicc/internal/mir"
)

// LLVMType renders ty's LLVM textual spelling (spec.md §4.5/§4.6.1). Scalar leaves with a fixed,
// well-known spelling are rendered through github.com/llir/llvm/ir/types so the text always
// matches a real llir Type's String() (i32, i64, double, void, i1); the handful of scalar kinds
// that package's exported constant set does not cover at this version (half, fp128, the 128-bit
// integer) are spelled directly, matching LLVM's own textual IR grammar. Pointers are always the
// opaque "ptr" spelling per spec.md §4.5 ("Pointer-like and reference parameters map to ptr").
// Aggregates are composed by hand since this core builds IR as text, never llir's in-memory Type
// graph (see internal/metadata's package doc for the same rationale).
func (t *Table) LLVMType(ty mir.Ty) string {
	switch ty.Kind {
	case mir.KUnit:
		return types.Void.String()
	case mir.KUnknown:
		return types.I8.String()
	case mir.KPointer, mir.KRef, mir.KRc, mir.KArc:
		return "ptr"
	case mir.KNullable:
		return fmt.Sprintf("{ %s, %s }", types.I1.String(), t.LLVMType(*ty.Elem))
	case mir.KStr:
		return "{ ptr, i64 }"
	case mir.KString:
		return t.structTypeText(mustLayout(t.EnsureStringLayout()))
	case mir.KVec:
		return t.structTypeText(mustLayout(t.EnsureVecLayout(*ty.Elem)))
	case mir.KSpan:
		return t.structTypeText(mustLayout(t.EnsureSpanLayout(*ty.Elem, false)))
	case mir.KReadOnlySpan:
		return t.structTypeText(mustLayout(t.EnsureSpanLayout(*ty.Elem, true)))
	case mir.KFn:
		return t.structTypeText(mustLayout(t.EnsureFnLayout(ty)))
	case mir.KTuple:
		return t.structTypeText(mustLayout(t.EnsureTupleLayout(ty.Elems)))
	case mir.KArray:
		elemText := t.LLVMType(*ty.Elem)
		length := uint64(0)
		if ty.Length != nil {
			length = *ty.Length
		}
		return fmt.Sprintf("[%d x %s]", length, elemText)
	case mir.KTraitObject:
		return "{ ptr, ptr }"
	case mir.KNamed:
		return t.namedTypeText(ty)
	default:
		return types.I8.String()
	}
}

// namedTypeText resolves a Named Ty: the fixed scalar names spec.md §3 lists, or a lookup into
// the layout table for a user-defined struct/class/union/enum.
func (t *Table) namedTypeText(ty mir.Ty) string {
	switch ty.Name {
	case "i1", "bool":
		return types.I1.String()
	case "i8", "u8":
		return types.I8.String()
	case "i16", "u16":
		return types.I16.String()
	case "i32", "u32", "char":
		return types.I32.String()
	case "i64", "u64", "isize", "usize":
		return types.I64.String()
	case "i128", "u128":
		return "i128"
	case "f16":
		return "half"
	case "f32":
		return "float"
	case "f64":
		return types.Double.String()
	case "f128":
		return "fp128"
	}
	if l, ok := t.Lookup(ty); ok {
		return t.namedLayoutText(l)
	}
	return types.I8.String()
}

// namedLayoutText renders a user-defined layout's body: structs/classes/unions as a field-order
// LLVM struct literal, enums as { underlying, [N x i8] } (tag plus a byte payload sized to the
// largest variant), mirroring the enum shape other_examples' malphas-lang emitter synthesizes.
func (t *Table) namedLayoutText(l *TypeLayout) string {
	switch l.Kind {
	case KindEnum:
		if len(l.Variants) == 0 {
			return t.LLVMType(l.UnderlyingTy)
		}
		payload := maxVariantPayload(t, l)
		return fmt.Sprintf("{ %s, [%d x i8] }", t.LLVMType(l.UnderlyingTy), payload)
	default:
		return t.structTypeText(l)
	}
}

func maxVariantPayload(t *Table, l *TypeLayout) uint64 {
	var max uint64
	for _, v := range l.Variants {
		var size uint64
		for _, f := range v.Fields {
			sz, _ := t.SizeAndAlignForTy(f.Ty)
			size += sz
		}
		if size > max {
			max = size
		}
	}
	return max
}

// structTypeText renders a struct-kind layout's fields, in declaration order, as an LLVM
// anonymous struct literal ("{ T0, T1, … }").
func (t *Table) structTypeText(l *TypeLayout) string {
	parts := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		parts[i] = t.LLVMType(f.Ty)
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, ", "))
}

// mustLayout unwraps EnsureXLayout's result; the only error it returns is a conflicting
// previously-registered layout, which is a configuration bug the caller cannot recover from
// mid-emission (spec.md §7: layout conflicts are fatal Codegen errors, not diagnostics).
func mustLayout(l *TypeLayout, err error) *TypeLayout {
	if err != nil {
		panic(err)
	}
	return l
}
