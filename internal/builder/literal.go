package builder

import "chicc/internal/mir"

// LowerIdentifier resolves a bare identifier to a Copy of its local, or reports a diagnostic if
// unbound (spec.md §4.4.3: "standard").
func (b *Builder) LowerIdentifier(span, name string) mir.Operand {
	id, ok := b.Resolve(name)
	if !ok {
		b.Diags.Errorf(span, "undefined identifier %q", name)
		return mir.Operand{}
	}
	return mir.Copy(mir.Place{Local: id})
}

// LowerIntLiteral, LowerFloatLiteral, LowerBoolLiteral and LowerStringLiteral build the
// corresponding constant Operand (spec.md §4.4.3: "standard").
func LowerIntLiteral(ty mir.Ty, v int64) mir.Operand    { return mir.ConstI(ty, v) }
func LowerFloatLiteral(ty mir.Ty, v float64) mir.Operand { return mir.ConstF(ty, v) }
func LowerBoolLiteral(v bool) mir.Operand                { return mir.ConstB(v) }
func LowerStringLiteral(ty mir.Ty, s string) mir.Operand { return mir.ConstStrLit(ty, s) }
