package builder

import "chicc/internal/mir"

// MemberAccessResult tags how LowerMemberAccess resolved a `base.name` expression.
type MemberAccessResult uint8

const (
	// MemberField means name is a plain struct/class field: the result is a Place projection.
	MemberField MemberAccessResult = iota
	// MemberProperty means name is a property and must be lowered as a getter call, not a
	// direct field load.
	MemberProperty
	// MemberConstant means name named a compile-time constant on base's type and folds to a
	// const operand rather than any runtime access.
	MemberConstant
	// MemberUnknown means none of the above matched; a diagnostic has been recorded.
	MemberUnknown
)

// LowerMemberAccess implements the member-access rule of spec.md §4.4.3: "a member access that is
// actually a property becomes a getter call; a member access that is a constant folds to a const
// operand." ownerTy is base's canonical type name, used to key the symbol index.
func (b *Builder) LowerMemberAccess(span string, base mir.Place, ownerTy mir.Ty, name string) (MemberAccessResult, mir.Place, string, mir.ConstOperand) {
	owner := ownerTy.CanonicalName()

	if c, ok := b.Symbols.Const(name); ok {
		return MemberConstant, mir.Place{}, "", c.Value
	}
	if p, ok := b.Symbols.Property(name); ok {
		return MemberProperty, mir.Place{}, p.Getter, mir.ConstOperand{}
	}
	for i, f := range b.Symbols.Fields(owner) {
		if f.Name == name {
			return MemberField, base.Field(uint32(i)), "", mir.ConstOperand{}
		}
	}
	b.Diags.Errorf(span, "%s has no member %q", owner, name)
	return MemberUnknown, mir.Place{}, "", mir.ConstOperand{}
}
