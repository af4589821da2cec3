// guardrails.go keeps the deliberately-unimplemented corners of the lowering surface as explicit
// diagnostics rather than silently accepting or silently dropping them (SPEC_FULL.md §13): class
// downcast beyond structured enum access, subslice/const-index projections, multi-dimensional
// arrays, and decimal-type SIMD intrinsic routing. Each of these is a real MIR shape (internal/mir
// already models Downcast/Subslice/ConstIndex projections, Array.Rank, and the Decimal* numeric
// intrinsic family) that this builder refuses to synthesize until a resolver-side feature lands,
// per spec.md §4.6.2: "Downcast, Subslice, ConstIndex — errors at emit time unless supported."
package builder

import "chicc/internal/mir"

// CheckProjectionSupported reports a diagnostic for the projection kinds spec.md §4.6.2 reserves
// rather than building them. Downcast is permitted only for structured enum-variant access, which
// the caller signals via enumVariantAccess.
func (b *Builder) CheckProjectionSupported(span string, elem mir.ProjectionElem, enumVariantAccess bool) {
	switch elem.Kind {
	case mir.ProjDowncast:
		if !enumVariantAccess {
			b.Diags.Errorf(span, "downcast projection is only supported for structured enum-variant access")
		}
	case mir.ProjSubslice:
		b.Diags.Errorf(span, "subslice projections are not yet supported")
	case mir.ProjConstIndex:
		b.Diags.Errorf(span, "const-index projections are not yet supported")
	}
}

// CheckArrayRankSupported reports a diagnostic for multi-dimensional arrays (Rank > 1), which
// this core does not yet lower.
func (b *Builder) CheckArrayRankSupported(span string, ty mir.Ty) {
	if ty.Kind == mir.KArray && ty.Rank > 1 {
		b.Diags.Errorf(span, "multi-dimensional arrays (rank %d) are not yet supported", ty.Rank)
	}
}

// CheckDecimalSimdSupported reports a diagnostic for decimal-type SIMD intrinsic routing, which
// this core does not yet select (spec.md §4.6.5 RvDecimalIntrinsic is modeled in internal/mir but
// has no lowering path here).
func (b *Builder) CheckDecimalSimdSupported(span string, rv mir.Rvalue) {
	if rv.Kind == mir.RvDecimalIntrinsic {
		b.Diags.Errorf(span, "decimal SIMD intrinsic routing is not yet supported")
	}
}
