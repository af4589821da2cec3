package builder

import (
	"chicc/internal/mir"
)

// CoerceOperandToTy implements coerce_operand_to_ty (spec.md §4.4.3), used on every assignment,
// argument pass, and return value: nullable wrapping, pointer mutability narrowing, span
// conversions, delegate conversions, integer conversions, and string <-> str. It returns the
// coerced Rvalue and reports a diagnostic (not an error — coercion failure is recoverable) when
// no rule applies.
func (b *Builder) CoerceOperandToTy(span string, op mir.Operand, from, to mir.Ty) mir.Rvalue {
	if from.Equal(to) {
		return mir.UseOf(op)
	}

	// Nullable wrapping: T -> T?.
	if to.Kind == mir.KNullable && from.Equal(*to.Elem) {
		return mir.Aggregate(mir.AggStruct, to, []mir.Operand{mir.ConstB(true), op})
	}

	// Pointer mutability narrowing: *mut T -> *const T is always sound; the reverse requires
	// unsafe, which is the caller's scope to have already validated before calling this.
	if from.Kind == mir.KPointer && to.Kind == mir.KPointer && from.Elem.Equal(*to.Elem) {
		if from.PtrMutable && !to.PtrMutable {
			return mir.UseOf(op)
		}
		if !from.PtrMutable && to.PtrMutable {
			b.Diags.Warnf(span, "narrowing shared pointer to unique pointer requires unsafe")
			return mir.UseOf(op)
		}
	}

	// Span conversions: owned Span<T> -> ReadOnlySpan<T>.
	if from.Kind == mir.KSpan && to.Kind == mir.KReadOnlySpan && from.Elem.Equal(*to.Elem) {
		return mir.Cast(mir.CastSpanConversion, op, from, to)
	}

	// Delegate conversion: a Fn Ty coerced to a Named delegate type, or vice versa, is handled by
	// LowerCast's dedicated rules; CoerceOperandToTy defers to it so both paths share one policy.
	if (from.Kind == mir.KFn && to.Kind == mir.KNamed) || (from.Kind == mir.KNamed && to.Kind == mir.KFn) {
		return b.LowerCast(span, op, from, to)
	}

	// string <-> str slice: returned as a CastUnknown cast; no runtime call
	// (chic_rt_string_from_slice / chic_rt_string_as_slice) is emitted for it here.
	if from.Kind == mir.KStr && to.Kind == mir.KString {
		return mir.Rvalue{Kind: mir.RvCast, CastKind: mir.CastUnknown, CastOperand: op, CastSource: from, CastTarget: to}
	}
	if from.Kind == mir.KString && to.Kind == mir.KStr {
		return mir.Rvalue{Kind: mir.RvCast, CastKind: mir.CastUnknown, CastOperand: op, CastSource: from, CastTarget: to}
	}

	// Integer conversions: every integral pair is handed to LowerCast's int->int rule so both
	// direct coercion and explicit `as` share the CastKind selection; narrowing and signedness
	// changes are not rejected here.
	if isIntegral(from) && isIntegral(to) {
		return b.LowerCast(span, op, from, to)
	}

	b.Diags.Errorf(span, "no coercion from %s to %s", from, to)
	return mir.UseOf(op)
}

func isIntegral(t mir.Ty) bool {
	if t.Kind != mir.KNamed {
		return false
	}
	switch t.Name {
	case "i8", "i16", "i32", "i64", "i128", "u8", "u16", "u32", "u64", "u128", "isize", "usize":
		return true
	default:
		return false
	}
}
