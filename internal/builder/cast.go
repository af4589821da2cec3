package builder

import (
	"chicc/internal/layout"
	"chicc/internal/mir"
	"chicc/internal/operators"
)

// unsafeDepth tracks EnterUnsafe/ExitUnsafe nesting so LowerCast can tell whether a pointer
// cast or an otherwise-lossy numeric cast is licensed (spec.md §4.4.3 rules 8-9).
func (b *Builder) inUnsafe() bool { return b.unsafeDepth > 0 }

// EnterUnsafe/ExitUnsafe bracket an `unsafe` scope, emitting the corresponding MIR statements and
// tracking nesting for LowerCast's rules.
func (b *Builder) EnterUnsafe() {
	b.unsafeDepth++
	b.Push(mir.Statement{Kind: mir.StmtEnterUnsafe})
}

func (b *Builder) ExitUnsafe() {
	if b.unsafeDepth > 0 {
		b.unsafeDepth--
	}
	b.Push(mir.Statement{Kind: mir.StmtExitUnsafe})
}

// LowerCast implements lower_cast_expr (spec.md §4.4.3): source and target Ty are already
// resolved; this walks the ten-step attempt order, stopping at the first rule that applies and
// diagnosing (without aborting) when none do.
func (b *Builder) LowerCast(span string, op mir.Operand, source, target mir.Ty) mir.Rvalue {
	// 1. Span/ReadOnlySpan conversion family.
	if r, ok := b.castSpanFamily(op, source, target); ok {
		return r
	}
	// 2. Function -> delegate.
	if source.Kind == mir.KFn && target.Kind == mir.KNamed {
		return mir.Cast(mir.CastFnToDelegate, op, source, target)
	}
	// 3. Named-target -> delegate, when target is itself a known delegate type.
	if target.Kind == mir.KNamed {
		if d, ok := b.Symbols.Delegate(target.Name); ok {
			_ = d
			return mir.Cast(mir.CastNamedToDelegate, op, source, target)
		}
	}
	// 4. Registered explicit/implicit conversion overload.
	if b.Ops != nil {
		res := b.Ops.ResolveConversion(source, target, true)
		switch res.Kind {
		case operators.MatchFound:
			return mir.Cast(mir.CastConversionOverload, op, source, target)
		case operators.MatchAmbiguous:
			b.Diags.Errorf(span, "ambiguous conversion from %s to %s: %d candidates", source, target, len(res.Candidates))
			return mir.Cast(mir.CastConversionOverload, op, source, target)
		}
	}
	// 5. Class upcast: source derives from target.
	if b.classDerivesFrom(source, target) {
		return mir.Cast(mir.CastClassUpcast, op, source, target)
	}
	// 6. Class downcast: diagnose as unsupported rather than silently guessing.
	if b.classDerivesFrom(target, source) {
		b.Diags.Errorf(span, "class downcast from %s to %s is not supported", source, target)
		return mir.Cast(mir.CastClassDowncastUnsupported, op, source, target)
	}
	// 7. Enum-with-payload -> target: only the enum's own numeric underlying type is allowed.
	if l, ok := b.Layouts.Lookup(source); ok && l.Kind == layout.KindEnum && len(l.Variants) > 0 {
		if !target.Equal(l.UnderlyingTy) {
			b.Diags.Errorf(span, "cannot cast enum %s to %s; only its underlying type is allowed", source, target)
		}
		return mir.Cast(mir.CastEnumToUnderlying, op, source, target)
	}
	// 8. Numeric casts.
	if r, ok := b.castNumeric(span, op, source, target); ok {
		return r
	}
	// 9. Pointer<->int and pointer<->pointer.
	if r, ok := b.castPointerIntish(span, op, source, target); ok {
		return r
	}
	// 10. Fallthrough.
	b.Diags.Errorf(span, "no conversion defined from %s to %s", source, target)
	return mir.Cast(mir.CastUnknown, op, source, target)
}

func (b *Builder) castSpanFamily(op mir.Operand, source, target mir.Ty) (mir.Rvalue, bool) {
	switch {
	case source.Kind == mir.KSpan && target.Kind == mir.KReadOnlySpan && source.Elem.Equal(*target.Elem):
		return mir.Cast(mir.CastSpanConversion, op, source, target), true
	case source.Kind == mir.KArray && (target.Kind == mir.KSpan || target.Kind == mir.KReadOnlySpan) && source.Elem.Equal(*target.Elem):
		return mir.Cast(mir.CastSpanConversion, op, source, target), true
	case source.Kind == mir.KString && target.Kind == mir.KReadOnlySpan && target.Elem.Name == "u8":
		return mir.Cast(mir.CastSpanConversion, op, source, target), true
	default:
		return mir.Rvalue{}, false
	}
}

// classDerivesFrom reports whether source's class layout lists target among its bases
// (spec.md §4.4.3 rules 5-6).
func (b *Builder) classDerivesFrom(source, target mir.Ty) bool {
	if b.Layouts == nil {
		return false
	}
	l, ok := b.Layouts.Lookup(source)
	if !ok || l.ClassInfo == nil {
		return false
	}
	for _, base := range l.ClassInfo.Bases {
		if base == target.CanonicalName() {
			return true
		}
	}
	return false
}

func (b *Builder) castNumeric(span string, op mir.Operand, source, target mir.Ty) (mir.Rvalue, bool) {
	si, sf := classifyNumeric(source)
	ti, tf := classifyNumeric(target)
	if !si && !sf || !ti && !tf {
		return mir.Rvalue{}, false
	}
	switch {
	case si && ti:
		if numericWidth(target) < numericWidth(source) && !b.inUnsafe() {
			b.Diags.Warnf(span, "lossy int-to-int cast from %s to %s outside unchecked scope", source, target)
		}
		return mir.Cast(mir.CastIntToInt, op, source, target), true
	case si && tf:
		return mir.Cast(mir.CastIntToFloat, op, source, target), true
	case sf && ti:
		b.Diags.Warnf(span, "float-to-int cast from %s to %s truncates", source, target)
		return mir.Cast(mir.CastFloatToInt, op, source, target), true
	case sf && tf:
		if numericWidth(target) < numericWidth(source) {
			b.Diags.Warnf(span, "narrowing float cast from %s to %s loses precision", source, target)
		}
		return mir.Cast(mir.CastFloatToFloat, op, source, target), true
	}
	return mir.Rvalue{}, false
}

func (b *Builder) castPointerIntish(span string, op mir.Operand, source, target mir.Ty) (mir.Rvalue, bool) {
	isPtrIntPair := func(a, c mir.Ty) bool {
		return (a.Kind == mir.KPointer && isIntegral(c)) || (isIntegral(a) && c.Kind == mir.KPointer)
	}
	isPtrPtrPair := source.Kind == mir.KPointer && target.Kind == mir.KPointer
	if !isPtrIntPair(source, target) && !isPtrPtrPair {
		return mir.Rvalue{}, false
	}
	if !b.inUnsafe() {
		b.Diags.Errorf(span, "pointer cast from %s to %s requires an unsafe scope", source, target)
	}
	exposesAddress := func(t mir.Ty) bool { return t.Kind == mir.KPointer && t.PtrQuals.ExposeAddress }
	if (source.Kind == mir.KPointer && !exposesAddress(source)) || (target.Kind == mir.KPointer && !exposesAddress(target)) {
		b.Diags.Warnf(span, "pointer cast between %s and %s without @expose_address", source, target)
	}
	if isPtrPtrPair {
		return mir.Cast(mir.CastPointerToPointer, op, source, target), true
	}
	if source.Kind == mir.KPointer {
		return mir.Cast(mir.CastPointerToInt, op, source, target), true
	}
	return mir.Cast(mir.CastIntToPointer, op, source, target), true
}

func classifyNumeric(t mir.Ty) (isInt, isFloat bool) {
	if t.Kind != mir.KNamed {
		return false, false
	}
	switch t.Name {
	case "i8", "i16", "i32", "i64", "i128", "u8", "u16", "u32", "u64", "u128", "isize", "usize":
		return true, false
	case "f16", "f32", "f64", "f128":
		return false, true
	default:
		return false, false
	}
}

func numericWidth(t mir.Ty) int {
	switch t.Name {
	case "i8", "u8":
		return 8
	case "i16", "u16", "f16":
		return 16
	case "i32", "u32", "f32":
		return 32
	case "i64", "u64", "f64", "isize", "usize":
		return 64
	case "i128", "u128", "f128":
		return 128
	default:
		return 0
	}
}

