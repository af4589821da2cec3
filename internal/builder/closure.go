package builder

import "chicc/internal/mir"

// DelegateValue is the six-field aggregate spec.md §4.4.4 describes:
// { invoke_ptr, context_ptr, release_ptr, type_id, send_bit, sync_bit }.
func DelegateValue(invoke, context, release mir.Operand, typeID int64, send, sync bool) mir.Rvalue {
	return mir.Aggregate(mir.AggDelegate, delegateTy(), []mir.Operand{
		invoke, context, release,
		mir.ConstI(mir.Named("i64"), typeID),
		mir.ConstB(send),
		mir.ConstB(sync),
	})
}

// delegateTy is the MIR Ty a delegate aggregate is tagged with — always the opaque six-field
// struct internal/layout.EnsureFnLayout synthesizes, referenced here by its own Fn Ty rather than
// a Named alias so this package does not need to know the delegate's surface-level name.
func delegateTy() mir.Ty { return mir.Fn(nil, mir.Unit()) }

// ClosureCapture is one variable captured by reference or by value into a closure's synthetic
// context struct.
type ClosureCapture struct {
	Name   string
	Ty     mir.Ty
	ByRef  bool
}

// LowerClosureLiteral implements spec.md §4.4.4's closure lowering: synthesize the context
// struct's layout as an Aggregate rvalue over the captured locals, and build the DelegateValue
// pointing at invokeSymbol (the synthetic invoke function, whose first parameter is the context
// pointer) and releaseSymbol (empty if the context has no field requiring drop). dest receives
// the delegate value; ctxDest receives the heap-or-stack-allocated context struct this closure
// owns.
func (b *Builder) LowerClosureLiteral(span string, dest, ctxDest mir.Place, captures []ClosureCapture, invokeSymbol, releaseSymbol string, typeID int64) {
	fields := make([]mir.Operand, len(captures))
	ctxTys := make([]mir.Ty, len(captures))
	for i, c := range captures {
		ctxTys[i] = c.Ty
		if id, ok := b.Resolve(c.Name); ok {
			if c.ByRef {
				fields[i] = mir.Borrow(mir.Place{Local: id}, mir.BorrowUnique)
			} else {
				fields[i] = mir.Move(mir.Place{Local: id})
			}
		} else {
			b.Diags.Errorf(span, "closure capture %q does not resolve to a local", c.Name)
		}
	}
	ctxTy := mir.Tuple(ctxTys...)
	b.Push(mir.Assign(ctxDest, mir.Aggregate(mir.AggStruct, ctxTy, fields)))

	contextPtr := mir.AddressOf(true, ctxDest)
	contextTmp := b.NewTemp(mir.Pointer(ctxTy, true, mir.PointerQualifiers{}))
	b.Push(mir.Assign(mir.Place{Local: contextTmp}, contextPtr))

	release := mir.Operand{Kind: mir.OperandConst, Const: mir.ConstOperand{Kind: mir.ConstNull, IsNull: true}}
	if releaseSymbol != "" {
		release = mir.ConstSym(mir.Fn([]mir.Ty{mir.Pointer(mir.Unit(), true, mir.PointerQualifiers{})}, mir.Unit()), releaseSymbol)
	}

	b.Push(mir.Assign(dest, DelegateValue(
		mir.ConstSym(mir.Fn(nil, mir.Unit()), invokeSymbol),
		mir.Copy(mir.Place{Local: contextTmp}),
		release,
		typeID, false, false,
	)))
}

// LowerFunctionToDelegateAdapter implements spec.md §4.4.4's "plain function coerced to a
// delegate" rule: the only path from a bare symbol to a delegate value is an adapter function
// that ignores a null context pointer and forwards its arguments; adapterSymbol names that
// already-generated adapter (generating the adapter function body itself is module-emitter work,
// C9's responsibility, not this builder's).
func (b *Builder) LowerFunctionToDelegateAdapter(dest mir.Place, adapterSymbol string, typeID int64) {
	nullCtx := mir.Operand{Kind: mir.OperandConst, Const: mir.ConstOperand{Kind: mir.ConstNull, IsNull: true}}
	nullRelease := nullCtx
	b.Push(mir.Assign(dest, DelegateValue(
		mir.ConstSym(mir.Fn(nil, mir.Unit()), adapterSymbol),
		nullCtx, nullRelease, typeID, true, true,
	)))
}

// CheckExternFnCapture reports a diagnostic when a capturing closure (hasCaptures) is coerced to a
// Fn(...) type. Every Fn target is checked this way, since mir.FnTy carries no ABI to tell extern
// delegate types apart; method groups are not checked here.
func (b *Builder) CheckExternFnCapture(span string, target mir.Ty, hasCaptures bool) {
	if target.Kind == mir.KFn && target.Fn != nil && hasCaptures {
		b.Diags.Errorf(span, "a capturing closure cannot be coerced to an extern function pointer type")
	}
}
