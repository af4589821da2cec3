package function

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"chicc/internal/layout"
	"chicc/internal/mir"
	"chicc/internal/target"
)

// lowerStatement dispatches one non-control-flow operation to its emission, following spec.md
// §4.6.3's statement list in declaration order.
func (e *Emitter) lowerStatement(stmt mir.Statement) error {
	switch stmt.Kind {
	case mir.StmtAssign:
		return e.lowerRvalueInto(stmt.AssignPlace, stmt.AssignValue)
	case mir.StmtStorageLive, mir.StmtStorageDead, mir.StmtEnterUnsafe, mir.StmtExitUnsafe, mir.StmtNop, mir.StmtDefaultInit, mir.StmtBorrow:
		return nil
	case mir.StmtDrop:
		return e.lowerDrop(stmt.Place)
	case mir.StmtDeinit:
		return e.lowerDeinit(stmt.Place)
	case mir.StmtZeroInit:
		return e.lowerZeroInit(stmt.Place)
	case mir.StmtZeroInitRaw:
		return e.lowerZeroInitRaw(stmt.RawPointer, stmt.RawLength)
	case mir.StmtAtomicStore:
		return e.lowerAtomicStore(stmt.AtomicTarget, stmt.AtomicValue, stmt.AtomicOrder)
	case mir.StmtAtomicFence:
		e.emit(fmt.Sprintf("  fence %s", stmt.FenceOrder))
		return nil
	case mir.StmtStaticStore:
		return e.lowerStaticStore(stmt.StaticSymbol, stmt.StaticValue)
	case mir.StmtMmioStore:
		return e.lowerMmioStore(stmt.MmioTarget, stmt.MmioValue)
	case mir.StmtInlineAsm:
		return e.lowerInlineAsm(stmt.Asm)
	case mir.StmtDeferredDrop:
		return e.lowerDrop(stmt.Place)
	case mir.StmtPending:
		return errors.Errorf("pending statement reached emission: %s", stmt.PendingReason)
	default:
		return errors.Errorf("unhandled statement kind %d", stmt.Kind)
	}
}

// lowerDrop dispatches to the fixed runtime drop entry points for the built-in owning kinds
// (String/Vec/Rc/Arc), falling back to a synthesized per-type drop glue symbol, and finally to
// chic_rt_drop_missing for a layout that somehow requires a drop but has none registered — a
// defensive fallback for a condition the builder should already have rejected.
func (e *Emitter) lowerDrop(place mir.Place) error {
	addr, ty, err := e.placePtr(place)
	if err != nil {
		return err
	}
	switch ty.Kind {
	case mir.KString:
		e.emit(fmt.Sprintf("  call void @chic_rt_string_drop(ptr %s)", addr))
		return nil
	case mir.KVec:
		e.emit(fmt.Sprintf("  call void @chic_rt_vec_drop(ptr %s)", addr))
		return nil
	case mir.KRc:
		e.emit(fmt.Sprintf("  call void @chic_rt_rc_drop(ptr %s)", addr))
		return nil
	case mir.KArc:
		e.emit(fmt.Sprintf("  call void @chic_rt_arc_drop(ptr %s)", addr))
		return nil
	}
	if !layout.TyRequiresDrop(e.layouts, ty) {
		return nil
	}
	if _, ok := e.layouts.Lookup(ty); ok {
		symbol := dropGlueSymbolForTy(ty)
		e.emit(fmt.Sprintf("  call void @%s(ptr %s)", symbol, addr))
		return nil
	}
	e.emit(fmt.Sprintf("  call void @chic_rt_drop_missing(ptr %s)", addr))
	return nil
}

// dropGlueSymbolForTy names the synthesized drop-glue function (spec.md §4.6.9) for a
// non-trivially-droppable named type.
func dropGlueSymbolForTy(ty mir.Ty) string {
	return "drop_glue." + ty.CanonicalName()
}

// lowerDeinit calls the dispose hook recorded in the place's layout, passing the place's
// address. A type with no registered layout or no dispose hook emits nothing; unlike lowerDrop,
// no runtime drop entry point or drop glue is called.
func (e *Emitter) lowerDeinit(place mir.Place) error {
	addr, ty, err := e.placePtr(place)
	if err != nil {
		return err
	}
	if l, ok := e.layouts.Lookup(ty); ok && l.Dispose != "" {
		e.emit(fmt.Sprintf("  call void @%s(ptr %s)", l.Dispose, addr))
	}
	return nil
}

func (e *Emitter) lowerZeroInit(place mir.Place) error {
	addr, ty, err := e.placePtr(place)
	if err != nil {
		return err
	}
	size, _ := e.layouts.SizeAndAlignForTy(ty)
	if size == 0 {
		return nil
	}
	sig := e.catalog.IntrinsicMemset()
	e.emit(fmt.Sprintf("  call void @%s(ptr %s, i8 0, i64 %d, i1 false)", sig.Symbol, addr, size))
	return nil
}

func (e *Emitter) lowerZeroInitRaw(pointer, length mir.Operand) error {
	ptrVal, _, err := e.loadOperand(pointer)
	if err != nil {
		return err
	}
	if length.Kind == mir.OperandConst && length.Const.Kind == mir.ConstUint {
		sig := e.catalog.IntrinsicMemset()
		e.emit(fmt.Sprintf("  call void @%s(ptr %s, i8 0, i64 %d, i1 false)", sig.Symbol, ptrVal, length.Const.Uint))
		return nil
	}
	if length.Kind == mir.OperandConst && length.Const.Kind == mir.ConstInt {
		sig := e.catalog.IntrinsicMemset()
		e.emit(fmt.Sprintf("  call void @%s(ptr %s, i8 0, i64 %d, i1 false)", sig.Symbol, ptrVal, length.Const.Int))
		return nil
	}
	lenVal, _, err := e.loadOperand(length)
	if err != nil {
		return err
	}
	e.emit(fmt.Sprintf("  call void @chic_rt_zero_init(ptr %s, i64 %s)", ptrVal, lenVal))
	return nil
}

func (e *Emitter) lowerAtomicStore(target mir.Place, value mir.Operand, order mir.AtomicOrdering) error {
	addr, ty, err := e.placePtr(target)
	if err != nil {
		return err
	}
	val, _, err := e.loadOperand(value)
	if err != nil {
		return err
	}
	e.emit(fmt.Sprintf("  store atomic %s %s, ptr %s %s, align %d",
		e.layouts.LLVMType(ty), val, addr, order, alignOf(e, ty)))
	return nil
}

func (e *Emitter) lowerStaticStore(symbol string, value mir.Operand) error {
	val, ty, err := e.loadOperand(value)
	if err != nil {
		return err
	}
	e.emit(fmt.Sprintf("  store %s %s, ptr @%s", e.layouts.LLVMType(ty), val, symbol))
	return nil
}

// lowerMmioStore emits the chic_rt.mmio_write call, zero-extending sub-64-bit values to i64 to
// match its fixed signature (spec.md §4.6.3).
func (e *Emitter) lowerMmioStore(target, value mir.Operand) error {
	if target.Kind != mir.OperandMmio {
		return errors.Errorf("mmio store target must be an mmio operand")
	}
	val, ty, err := e.loadOperand(value)
	if err != nil {
		return err
	}
	width := target.Mmio.Width
	widened := val
	if width < 64 {
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = zext %s %s to i64", reg, e.layouts.LLVMType(ty), val))
		widened = reg
	}
	e.emit(fmt.Sprintf("  call void @chic_rt.mmio_write(i64 %d, i64 %s, i32 %d, i32 %d)",
		target.Mmio.Address, widened, width, target.Mmio.Flags))
	return nil
}

// asmResultSlot is one Out/InOut operand that writes a value back to a place: its destination
// address, already resolved by placePtr, and the MIR type stored there.
type asmResultSlot struct {
	addr string
	ty   mir.Ty
}

// automaticClobbers synthesizes the clobbers spec.md §4.6.6 requires beyond the user-written
// ones: `memory` unless the asm declares it touches none, and the architecture's flags register(s)
// unless it declares it preserves them.
func (e *Emitter) automaticClobbers(opts mir.InlineAsmOptions) ([]string, error) {
	var out []string
	if e.arch != target.X86_64 && e.arch != target.Aarch64 {
		return nil, errors.Errorf("inline asm is only supported on x86_64 and aarch64, got %s", e.arch)
	}
	if !opts.PreservesFlags {
		switch e.arch {
		case target.X86_64:
			out = append(out, "~{flags}", "~{fpsr}", "~{dirflag}")
		case target.Aarch64:
			out = append(out, "~{nzcv}")
		}
	}
	if !opts.NoMem && !opts.ReadOnly && !opts.Pure {
		out = append(out, "~{memory}")
	}
	return out, nil
}

// asmOptionFlags renders the `options(...)` set as the leading space-separated keywords LLVM's
// `call asm` syntax takes ahead of the template string (spec.md §4.6.6).
func asmOptionFlags(opts mir.InlineAsmOptions) string {
	var words []string
	if !opts.NoMem && !opts.ReadOnly && !opts.Pure || opts.Volatile {
		words = append(words, "sideeffect")
	}
	if opts.AlignStack {
		words = append(words, "alignstack")
	}
	if opts.IntelDialect {
		words = append(words, "inteldialect")
	}
	if opts.NoMem {
		words = append(words, "readnone")
	}
	if opts.ReadOnly {
		words = append(words, "readonly")
	}
	if opts.NoReturn {
		words = append(words, "noreturn")
	}
	if len(words) == 0 {
		return ""
	}
	return strings.Join(words, " ") + " "
}

// lowerInlineAsm renders a `call asm` instruction per spec.md §4.6.6: Inputs and InOuts supply
// the call's actual arguments: Outputs and InOuts each contribute a constraint and (when bound to
// a place) a result slot the call's return value is stored or extracted into. Only x86_64 and
// aarch64 targets are supported; any other architecture is a diagnostic.
func (e *Emitter) lowerInlineAsm(asm mir.InlineAsm) error {
	var constraints []string
	var argTypes []string
	var argVals []string
	var results []asmResultSlot

	for _, out := range asm.Outputs {
		prefix := "=&"
		if out.Late {
			prefix = "="
		}
		constraints = append(constraints, prefix+out.Constraint)
		if out.Place != nil {
			addr, ty, err := e.placePtr(*out.Place)
			if err != nil {
				return err
			}
			results = append(results, asmResultSlot{addr: addr, ty: ty})
		}
	}
	for _, io := range asm.InOuts {
		val, ty, err := e.loadOperand(io.Value)
		if err != nil {
			return err
		}
		prefix := "+&"
		if io.Late {
			prefix = "+"
		}
		constraints = append(constraints, prefix+io.Constraint)
		argTypes = append(argTypes, e.layouts.LLVMType(ty))
		argVals = append(argVals, val)
		if io.Place != nil {
			addr, placeTy, err := e.placePtr(*io.Place)
			if err != nil {
				return err
			}
			results = append(results, asmResultSlot{addr: addr, ty: placeTy})
		}
	}
	for _, in := range asm.Inputs {
		val, ty, err := e.loadOperand(in.Value)
		if err != nil {
			return err
		}
		constraints = append(constraints, in.Constraint)
		argTypes = append(argTypes, e.layouts.LLVMType(ty))
		argVals = append(argVals, val)
	}
	for _, c := range asm.Clobbers {
		constraints = append(constraints, "~{"+c+"}")
	}
	autoClobbers, err := e.automaticClobbers(asm.Options)
	if err != nil {
		return err
	}
	constraints = append(constraints, autoClobbers...)

	var argList []string
	for i := range argTypes {
		argList = append(argList, fmt.Sprintf("%s %s", argTypes[i], argVals[i]))
	}
	flags := asmOptionFlags(asm.Options)

	switch len(results) {
	case 0:
		e.emit(fmt.Sprintf("  call void asm %s\"%s\", \"%s\"(%s)",
			flags, asm.Template, strings.Join(constraints, ","), joinComma(argList)))
	case 1:
		retText := e.layouts.LLVMType(results[0].ty)
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = call %s asm %s\"%s\", \"%s\"(%s)",
			reg, retText, flags, asm.Template, strings.Join(constraints, ","), joinComma(argList)))
		e.emit(fmt.Sprintf("  store %s %s, ptr %s", retText, reg, results[0].addr))
	default:
		var fieldTexts []string
		for _, r := range results {
			fieldTexts = append(fieldTexts, e.layouts.LLVMType(r.ty))
		}
		retText := fmt.Sprintf("{ %s }", joinComma(fieldTexts))
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = call %s asm %s\"%s\", \"%s\"(%s)",
			reg, retText, flags, asm.Template, strings.Join(constraints, ","), joinComma(argList)))
		for i, r := range results {
			fieldReg := e.nextReg()
			e.emit(fmt.Sprintf("  %s = extractvalue %s %s, %d", fieldReg, retText, reg, i))
			e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(r.ty), fieldReg, r.addr))
		}
	}
	return nil
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
