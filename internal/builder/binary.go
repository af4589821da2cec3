package builder

import (
	"chicc/internal/mir"
	"chicc/internal/operators"
)

// LowerBinary implements the binary-operator rule of spec.md §4.4.3: primitive operands emit
// Rvalue::Binary directly; otherwise the operator registry is consulted. `??` and short-circuit
// `&&`/`||` are handled by their own lowering entry points (LowerNullCoalesce, LowerLogicalAnd/
// Or) since they produce control flow, not a single Rvalue.
func (b *Builder) LowerBinary(span string, op mir.BinOp, lhsTy, rhsTy mir.Ty, lhs, rhs mir.Operand) mir.Rvalue {
	if isPrimitive(lhsTy) && isPrimitive(rhsTy) {
		return mir.Binary(op, lhs, rhs)
	}
	if b.Ops == nil {
		b.Diags.Errorf(span, "no operator registry available to resolve %s %s %s", lhsTy, opSymbol(op), rhsTy)
		return mir.Binary(op, lhs, rhs)
	}
	m := b.Ops.ResolveBinary(lhsTy, rhsTy, op)
	switch m.Kind {
	case operators.MatchFound:
		callee := mir.ConstSym(mir.Fn([]mir.Ty{lhsTy, rhsTy}, m.Found.Result), m.Found.Function)
		return mir.Rvalue{Kind: mir.RvUse, Use: callee} // caller turns this into a Call terminator via LowerCall.
	case operators.MatchAmbiguous:
		b.Diags.Errorf(span, "ambiguous operator %s for %s, %s: %d candidates", opSymbol(op), lhsTy, rhsTy, len(m.Candidates))
		return mir.Binary(op, lhs, rhs)
	default:
		b.Diags.Errorf(span, "no operator %s defined for %s, %s", opSymbol(op), lhsTy, rhsTy)
		return mir.Binary(op, lhs, rhs)
	}
}

func isPrimitive(t mir.Ty) bool {
	if t.Kind != mir.KNamed {
		return false
	}
	switch t.Name {
	case "i8", "i16", "i32", "i64", "i128", "u8", "u16", "u32", "u64", "u128", "isize", "usize",
		"f16", "f32", "f64", "f128", "bool", "char":
		return true
	default:
		return false
	}
}

func opSymbol(op mir.BinOp) string {
	switch op {
	case mir.BinAdd:
		return "+"
	case mir.BinSub:
		return "-"
	case mir.BinMul:
		return "*"
	case mir.BinDiv:
		return "/"
	case mir.BinRem:
		return "%"
	case mir.BinShl:
		return "<<"
	case mir.BinShr:
		return ">>"
	case mir.BinAnd:
		return "&"
	case mir.BinXor:
		return "^"
	case mir.BinOr:
		return "|"
	case mir.BinEq:
		return "=="
	case mir.BinNeq:
		return "!="
	case mir.BinLt:
		return "<"
	case mir.BinLe:
		return "<="
	case mir.BinGt:
		return ">"
	case mir.BinGe:
		return ">="
	default:
		return "?"
	}
}

// LowerLogicalAnd lowers `&&`'s short circuit into a diamond CFG: evaluate lhs; if false, the
// result is false without evaluating rhs; otherwise the result is rhs. rhsBlock is where the
// caller should emit rhs's evaluation; joinBlock is where both paths converge, with result stored
// into dest.
func (b *Builder) LowerLogicalAnd(dest mir.Place, lhs mir.Operand) (rhsBlock, joinBlock mir.BlockId) {
	rhsBlock = b.Body.NewBlock()
	falseBlock := b.Body.NewBlock()
	joinBlock = b.Body.NewBlock()

	b.SetTerminator("", mir.SwitchInt(lhs, []mir.SwitchArm{{Value: 0, Target: falseBlock}}, rhsBlock))

	save := b.currentBlock
	b.currentBlock = falseBlock
	b.Push(mir.Assign(dest, mir.UseOf(mir.ConstB(false))))
	b.SetTerminator("", mir.Goto(joinBlock))
	b.currentBlock = save

	return rhsBlock, joinBlock
}

// LowerLogicalOr mirrors LowerLogicalAnd for `||`: if lhs is true, short circuit to true without
// evaluating rhs.
func (b *Builder) LowerLogicalOr(dest mir.Place, lhs mir.Operand) (rhsBlock, joinBlock mir.BlockId) {
	trueBlock := b.Body.NewBlock()
	rhsBlock = b.Body.NewBlock()
	joinBlock = b.Body.NewBlock()

	b.SetTerminator("", mir.SwitchInt(lhs, []mir.SwitchArm{{Value: 1, Target: trueBlock}}, rhsBlock))

	save := b.currentBlock
	b.currentBlock = trueBlock
	b.Push(mir.Assign(dest, mir.UseOf(mir.ConstB(true))))
	b.SetTerminator("", mir.Goto(joinBlock))
	b.currentBlock = save

	return rhsBlock, joinBlock
}

// LowerNullCoalesce implements `x ?? y` (spec.md §4.4.5): evaluate x (already done by the
// caller, passed as xPlace typed Nullable(T)), branch on its has_value field, either use the
// payload or evaluate y. dest is typed as the common supertype (resolved by the caller, which
// also owns emitting y's evaluation in yBlock before joining).
func (b *Builder) LowerNullCoalesce(dest mir.Place, xPlace mir.Place) (payloadBlock, yBlock, joinBlock mir.BlockId) {
	hasValue := mir.Copy(xPlace.FieldNamed("has_value"))
	payloadBlock = b.Body.NewBlock()
	yBlock = b.Body.NewBlock()
	joinBlock = b.Body.NewBlock()

	b.SetTerminator("", mir.SwitchInt(hasValue, []mir.SwitchArm{{Value: 1, Target: payloadBlock}}, yBlock))

	save := b.currentBlock
	b.currentBlock = payloadBlock
	b.Push(mir.Assign(dest, mir.UseOf(mir.Copy(xPlace.FieldNamed("value")))))
	b.SetTerminator("", mir.Goto(joinBlock))
	b.currentBlock = save

	return payloadBlock, yBlock, joinBlock
}
