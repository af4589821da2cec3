package function

import (
	"fmt"

	"github.com/pkg/errors"

	"chicc/internal/mir"
)

// lowerTerminator dispatches a block's terminator, following spec.md §4.6.4's list.
func (e *Emitter) lowerTerminator(t mir.Terminator) error {
	switch t.Kind {
	case mir.TermReturn:
		return e.lowerReturn()
	case mir.TermGoto:
		e.emit(fmt.Sprintf("  br label %%%s", e.blockLabel[t.Target]))
		return nil
	case mir.TermSwitchInt:
		return e.lowerSwitchInt(t)
	case mir.TermCall:
		return e.lowerCall(t)
	case mir.TermDrop:
		if err := e.lowerDrop(t.DropPlace); err != nil {
			return err
		}
		e.emit(fmt.Sprintf("  br label %%%s", e.blockLabel[t.Target]))
		return nil
	case mir.TermAssert:
		return e.lowerAssert(t)
	case mir.TermUnreachable:
		e.emit("  unreachable")
		return nil
	default:
		return errors.Errorf("unhandled terminator kind %d", t.Kind)
	}
}

// lowerReturn emits the tracepoint exit hook, if any, then reads the reserved return local
// (LocalId 0) and returns it — Return() itself carries no operand since the return value always
// lives in that local (spec.md §4.6.1/§4.6.4).
func (e *Emitter) lowerReturn() error {
	if e.fn.Tracepoint != nil {
		e.emit(fmt.Sprintf("  call void @chic_rt_trace_exit(i64 %d)", e.fn.Tracepoint.Id))
	}
	if e.sig.SRet {
		e.emit("  ret void")
		return nil
	}
	if e.fn.Sig.Ret.Kind == mir.KUnit {
		e.emit("  ret void")
		return nil
	}
	addr, ty, err := e.addr(mir.LocalId(0))
	if err != nil {
		return err
	}
	llty := e.layouts.LLVMType(ty)
	reg := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load %s, ptr %s", reg, llty, addr))
	e.emit(fmt.Sprintf("  ret %s %s", llty, reg))
	return nil
}

func (e *Emitter) lowerSwitchInt(t mir.Terminator) error {
	val, ty, err := e.loadOperand(t.Scrutinee)
	if err != nil {
		return err
	}
	llty := e.layouts.LLVMType(ty)
	line := fmt.Sprintf("  switch %s %s, label %%%s [", llty, val, e.blockLabel[t.Default])
	e.emit(line)
	for _, arm := range t.Arms {
		e.emit(fmt.Sprintf("    %s %d, label %%%s", llty, arm.Value, e.blockLabel[arm.Target]))
	}
	e.emit("  ]")
	return nil
}

// lowerCall marshals arguments and dispatches per t.CallDispatch.Kind (spec.md §4.6.4 rule 3):
// Direct calls the callee operand's symbol directly; Trait/Virtual load a function pointer out of
// a vtable (the malphas-lang `@vtable.Trait.for.Type` convention this codebase's C9 module
// emitter also follows for the vtable globals themselves) before calling through it.
func (e *Emitter) lowerCall(t mir.Terminator) error {
	var argTypes []string
	var argVals []string
	for _, arg := range t.CallArgs {
		val, ty, err := e.loadOperand(arg)
		if err != nil {
			return err
		}
		argTypes = append(argTypes, e.layouts.LLVMType(ty))
		argVals = append(argVals, val)
	}

	callee, retTy, err := e.resolveCallee(t)
	if err != nil {
		return err
	}

	var parts []string
	for i := range argTypes {
		parts = append(parts, fmt.Sprintf("%s %s", argTypes[i], argVals[i]))
	}
	args := joinComma(parts)

	retText := e.layouts.LLVMType(retTy)
	if retTy.Kind == mir.KUnit {
		e.emit(fmt.Sprintf("  call void %s(%s)", callee, args))
	} else {
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = call %s %s(%s)", reg, retText, callee, args))
		if t.CallDestination != nil {
			destAddr, _, err := e.placePtr(*t.CallDestination)
			if err != nil {
				return err
			}
			e.emit(fmt.Sprintf("  store %s %s, ptr %s", retText, reg, destAddr))
		}
	}
	e.emit(fmt.Sprintf("  br label %%%s", e.blockLabel[t.CallTarget]))
	return nil
}

// resolveCallee returns the LLVM callee expression (a `@symbol` or a loaded function-pointer
// register) and the function's return type, per the terminator's dispatch strategy.
func (e *Emitter) resolveCallee(t mir.Terminator) (string, mir.Ty, error) {
	switch t.CallDispatch.Kind {
	case mir.DispatchDirect:
		val, ty, err := e.loadOperand(t.CallFunc)
		if err != nil {
			return "", mir.Ty{}, err
		}
		if ty.Fn != nil {
			return val, ty.Fn.Ret, nil
		}
		return val, mir.Unit(), nil
	case mir.DispatchTrait:
		return e.resolveTraitCallee(t)
	case mir.DispatchVirtual:
		return e.resolveVirtualCallee(t)
	default:
		return "", mir.Ty{}, errors.Errorf("unhandled call dispatch kind %d", t.CallDispatch.Kind)
	}
}

// resolveTraitCallee resolves a trait-object call's function pointer (spec.md §4.6.4 "Trait
// dispatch"). When d.ImplType is known — the call has been monomorphized against one concrete
// implementation — it addresses that implementation's `@vtable.Trait.for.ImplType` global
// directly. Otherwise (the ordinary dynamic-dispatch case, a receiver of some unknown type behind
// a trait object) it loads the vtable pointer out of the trait object's own second field, the
// same receiver-header load resolveVirtualCallee performs for classes.
func (e *Emitter) resolveTraitCallee(t mir.Terminator) (string, mir.Ty, error) {
	d := t.CallDispatch
	if d.ImplType != nil {
		return e.resolveStaticTraitCallee(t, d)
	}
	if int(d.ReceiverIndex) >= len(t.CallArgs) {
		return "", mir.Ty{}, errors.Errorf("trait dispatch receiver index %d out of range", d.ReceiverIndex)
	}
	traitObj, _, err := e.loadOperand(t.CallArgs[d.ReceiverIndex])
	if err != nil {
		return "", mir.Ty{}, err
	}
	vtablePtrField := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr { ptr, ptr }, ptr %s, i32 0, i32 1", vtablePtrField, traitObj))
	vtablePtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load ptr, ptr %s", vtablePtr, vtablePtrField))
	slotPtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr { [%d x ptr] }, ptr %s, i32 0, i32 0, i32 %d",
		slotPtr, d.SlotCount, vtablePtr, d.SlotIndex))
	fnPtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load ptr, ptr %s", fnPtr, slotPtr))
	ret, err := e.callFuncOperandRetTy(t.CallFunc)
	if err != nil {
		return "", mir.Ty{}, err
	}
	return fnPtr, ret, nil
}

// resolveStaticTraitCallee addresses the statically-known implementation's vtable global directly,
// skipping the runtime load resolveTraitCallee otherwise performs.
func (e *Emitter) resolveStaticTraitCallee(t mir.Terminator, d mir.Dispatch) (string, mir.Ty, error) {
	vtableSym := fmt.Sprintf("@vtable.%s.for.%s", d.Trait, d.ImplType.CanonicalName())
	slotPtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr { [%d x ptr] }, ptr %s, i32 0, i32 0, i32 %d",
		slotPtr, d.SlotCount, vtableSym, d.SlotIndex))
	fnPtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load ptr, ptr %s", fnPtr, slotPtr))
	ret, err := e.callFuncOperandRetTy(t.CallFunc)
	if err != nil {
		return "", mir.Ty{}, err
	}
	return fnPtr, ret, nil
}

// resolveVirtualCallee loads the receiver's class vtable pointer (field 0 of the object header)
// and then the method slot, for single-inheritance virtual dispatch.
func (e *Emitter) resolveVirtualCallee(t mir.Terminator) (string, mir.Ty, error) {
	d := t.CallDispatch
	if int(d.ReceiverIndex) >= len(t.CallArgs) {
		return "", mir.Ty{}, errors.Errorf("virtual dispatch receiver index %d out of range", d.ReceiverIndex)
	}
	recv, _, err := e.loadOperand(t.CallArgs[d.ReceiverIndex])
	if err != nil {
		return "", mir.Ty{}, err
	}
	vtablePtrField := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr { ptr }, ptr %s, i32 0, i32 0", vtablePtrField, recv))
	vtablePtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load ptr, ptr %s", vtablePtr, vtablePtrField))
	slotPtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr { [%d x ptr] }, ptr %s, i32 0, i32 0, i32 %d",
		slotPtr, d.SlotCount, vtablePtr, d.SlotIndex))
	fnPtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load ptr, ptr %s", fnPtr, slotPtr))
	ret, err := e.callFuncOperandRetTy(t.CallFunc)
	if err != nil {
		return "", mir.Ty{}, err
	}
	return fnPtr, ret, nil
}

func (e *Emitter) callFuncOperandRetTy(fn mir.Operand) (mir.Ty, error) {
	if fn.Kind == mir.OperandConst && fn.Const.Ty.Fn != nil {
		return fn.Const.Ty.Fn.Ret, nil
	}
	return mir.Unit(), nil
}

// lowerAssert evaluates the condition and branches to the panic path on failure, matching
// spec.md §4.6.4's assert-as-conditional-panic-call lowering.
func (e *Emitter) lowerAssert(t mir.Terminator) error {
	cond, _, err := e.loadOperand(t.AssertCond)
	if err != nil {
		return err
	}
	failLabel := fmt.Sprintf("assert.fail.%d", e.regSeq)
	e.regSeq++
	e.emit(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s", cond, e.blockLabel[t.AssertTarget], failLabel))
	e.emit(failLabel + ":")
	e.emit(fmt.Sprintf("  call void @chic_rt_panic(i32 %d)", t.AssertMsgId))
	e.emit("  unreachable")
	return nil
}
