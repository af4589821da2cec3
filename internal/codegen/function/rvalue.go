package function

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"chicc/internal/mir"
	"chicc/internal/runtimeabi"
)

// loadOperand resolves op to an inline LLVM value expression (a register name or a literal) and
// the MIR type it carries.
func (e *Emitter) loadOperand(op mir.Operand) (string, mir.Ty, error) {
	switch op.Kind {
	case mir.OperandConst:
		return e.constText(op.Const), op.Const.Ty, nil
	case mir.OperandCopy, mir.OperandMove:
		addr, ty, err := e.placePtr(op.Place)
		if err != nil {
			return "", mir.Ty{}, err
		}
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = load %s, ptr %s%s", reg, e.layouts.LLVMType(ty), addr, e.localAliasAttrs[op.Place.Local]))
		return reg, ty, nil
	case mir.OperandBorrow:
		addr, ty, err := e.placePtr(op.Borrow.Place)
		if err != nil {
			return "", mir.Ty{}, err
		}
		return addr, mir.Ref(ty, op.Borrow.Kind == mir.BorrowShared), nil
	case mir.OperandMmio:
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = call i64 @chic_rt.mmio_read(i64 %d, i32 %d, i32 %d)",
			reg, op.Mmio.Address, op.Mmio.Width, op.Mmio.Flags))
		return reg, mir.Named("i64"), nil
	case mir.OperandPending:
		return "", mir.Ty{}, errors.Errorf("pending operand reached emission: %s", op.Pending.Description)
	default:
		return "", mir.Ty{}, errors.Errorf("unhandled operand kind %d", op.Kind)
	}
}

func (e *Emitter) constText(c mir.ConstOperand) string {
	switch c.Kind {
	case mir.ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case mir.ConstUint:
		return strconv.FormatUint(c.Uint, 10)
	case mir.ConstFloat:
		return strconv.FormatFloat(c.Float, 'x', -1, 64)
	case mir.ConstBool:
		if c.Bool {
			return "true"
		}
		return "false"
	case mir.ConstStr:
		return e.stringConstant(c.Str)
	case mir.ConstSymbol:
		return "@" + c.Str
	case mir.ConstNull:
		return "null"
	default:
		return "zeroinitializer"
	}
}

// stringConstant interns literal as a module-scope global and returns its symbol.
func (e *Emitter) stringConstant(literal string) string {
	if e.stringConsts == nil {
		e.stringConsts = map[string]string{}
	}
	if sym, ok := e.stringConsts[literal]; ok {
		return sym
	}
	sym := fmt.Sprintf("@.str.%d", len(e.stringConsts))
	e.stringConsts[literal] = sym
	e.stringOrder = append(e.stringOrder, literal)
	return sym
}

// lowerRvalueInto computes rv and stores the result at dest.
func (e *Emitter) lowerRvalueInto(dest mir.Place, rv mir.Rvalue) error {
	destAddr, destTy, err := e.placePtr(dest)
	if err != nil {
		return err
	}
	switch rv.Kind {
	case mir.RvUse:
		return e.lowerUse(destAddr, destTy, dest.Local, rv.Use)
	case mir.RvBinary:
		return e.lowerBinary(destAddr, destTy, rv)
	case mir.RvUnary:
		return e.lowerUnary(destAddr, destTy, rv)
	case mir.RvCast:
		return e.lowerCast(destAddr, rv)
	case mir.RvAggregate:
		return e.lowerAggregate(destAddr, rv)
	case mir.RvAddressOf:
		addr, _, err := e.placePtr(rv.AddrPlace)
		if err != nil {
			return err
		}
		e.emit(fmt.Sprintf("  store ptr %s, ptr %s", addr, destAddr))
		return nil
	case mir.RvAtomicLoad:
		return e.lowerAtomicLoad(destAddr, destTy, rv)
	case mir.RvAtomicRmw:
		return e.lowerAtomicRmw(destAddr, destTy, rv)
	case mir.RvAtomicCompareExchange:
		return e.lowerAtomicCompareExchange(destAddr, destTy, rv)
	case mir.RvNumericIntrinsic:
		return e.lowerNumericIntrinsic(destAddr, destTy, rv)
	case mir.RvStringInterpolate:
		return e.lowerStringInterpolate(destAddr, rv)
	case mir.RvSpanStackAlloc:
		return e.lowerSpanStackAlloc(destAddr, rv)
	default:
		return errors.Errorf("unhandled rvalue kind %d", rv.Kind)
	}
}

func (e *Emitter) lowerUse(destAddr string, destTy mir.Ty, destLocal mir.LocalId, op mir.Operand) error {
	if destTy.Kind == mir.KNamed || destTy.Kind == mir.KTuple || destTy.Kind == mir.KArray ||
		destTy.Kind == mir.KString || destTy.Kind == mir.KVec || destTy.Kind == mir.KSpan ||
		destTy.Kind == mir.KReadOnlySpan || destTy.Kind == mir.KFn {
		if op.Kind == mir.OperandCopy || op.Kind == mir.OperandMove {
			srcAddr, srcTy, err := e.placePtr(op.Place)
			if err != nil {
				return err
			}
			size, _ := e.layouts.SizeAndAlignForTy(srcTy)
			e.emit(fmt.Sprintf("  call void @llvm.memcpy.p0.p0.i64(ptr %s, ptr %s, i64 %d, i1 false)",
				destAddr, srcAddr, size))
			return nil
		}
	}
	val, ty, err := e.loadOperand(op)
	if err != nil {
		return err
	}
	e.emit(fmt.Sprintf("  store %s %s, ptr %s%s", e.layouts.LLVMType(ty), val, destAddr, e.localAliasAttrs[destLocal]))
	return nil
}

var binOpText = map[mir.BinOp]struct{ i, f string }{
	mir.BinAdd: {"add", "fadd"},
	mir.BinSub: {"sub", "fsub"},
	mir.BinMul: {"mul", "fmul"},
	mir.BinDiv: {"sdiv", "fdiv"},
	mir.BinRem: {"srem", "frem"},
	mir.BinShl: {"shl", ""},
	mir.BinShr: {"ashr", ""},
	mir.BinAnd: {"and", ""},
	mir.BinXor: {"xor", ""},
	mir.BinOr:  {"or", ""},
}

var cmpOpText = map[mir.BinOp]struct{ i, f string }{
	mir.BinEq: {"eq", "oeq"},
	mir.BinNeq: {"ne", "one"},
	mir.BinLt: {"slt", "olt"},
	mir.BinLe: {"sle", "ole"},
	mir.BinGt: {"sgt", "ogt"},
	mir.BinGe: {"sge", "oge"},
}

func isFloatTy(ty mir.Ty) bool {
	switch ty.Name {
	case "f16", "f32", "f64", "f128":
		return true
	}
	return false
}

func (e *Emitter) lowerBinary(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	lhs, lty, err := e.loadOperand(rv.Lhs)
	if err != nil {
		return err
	}
	rhs, _, err := e.loadOperand(rv.Rhs)
	if err != nil {
		return err
	}
	llty := e.layouts.LLVMType(lty)
	reg := e.nextReg()
	float := isFloatTy(lty)
	if ops, ok := cmpOpText[rv.BinOp]; ok {
		instr := "icmp"
		cond := ops.i
		if float {
			instr = "fcmp"
			cond = ops.f
		}
		e.emit(fmt.Sprintf("  %s = %s %s %s %s, %s", reg, instr, cond, llty, lhs, rhs))
		e.emit(fmt.Sprintf("  store i1 %s, ptr %s", reg, destAddr))
		return nil
	}
	ops, ok := binOpText[rv.BinOp]
	if !ok {
		return errors.Errorf("unhandled binary op %d", rv.BinOp)
	}
	name := ops.i
	if float && ops.f != "" {
		name = ops.f
	}
	e.emit(fmt.Sprintf("  %s = %s %s %s, %s", reg, name, llty, lhs, rhs))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), reg, destAddr))
	return nil
}

func (e *Emitter) lowerUnary(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	val, ty, err := e.loadOperand(rv.Operand)
	if err != nil {
		return err
	}
	llty := e.layouts.LLVMType(ty)
	reg := e.nextReg()
	switch rv.UnOp {
	case mir.UnNeg:
		if isFloatTy(ty) {
			e.emit(fmt.Sprintf("  %s = fneg %s %s", reg, llty, val))
		} else {
			e.emit(fmt.Sprintf("  %s = sub %s 0, %s", reg, llty, val))
		}
	case mir.UnNot:
		e.emit(fmt.Sprintf("  %s = xor %s %s, -1", reg, llty, val))
	default:
		return errors.Errorf("unhandled unary op %d", rv.UnOp)
	}
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), reg, destAddr))
	return nil
}

func (e *Emitter) lowerCast(destAddr string, rv mir.Rvalue) error {
	val, srcTy, err := e.loadOperand(rv.CastOperand)
	if err != nil {
		return err
	}
	srcText := e.layouts.LLVMType(srcTy)
	dstText := e.layouts.LLVMType(rv.CastTarget)
	reg := e.nextReg()
	instr, err := e.castInstruction(rv.CastKind, srcTy, rv.CastTarget)
	if err != nil {
		return err
	}
	e.emit(fmt.Sprintf("  %s = %s %s %s to %s", reg, instr, srcText, val, dstText))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", dstText, reg, destAddr))
	return nil
}

func (e *Emitter) castInstruction(kind mir.CastKind, src, dst mir.Ty) (string, error) {
	srcSize, _ := e.layouts.SizeAndAlignForTy(src)
	dstSize, _ := e.layouts.SizeAndAlignForTy(dst)
	switch kind {
	case mir.CastIntToInt, mir.CastEnumToUnderlying:
		switch {
		case dstSize > srcSize:
			return "sext", nil
		case dstSize < srcSize:
			return "trunc", nil
		default:
			return "bitcast", nil
		}
	case mir.CastIntToFloat:
		return "sitofp", nil
	case mir.CastFloatToInt:
		return "fptosi", nil
	case mir.CastFloatToFloat:
		if dstSize > srcSize {
			return "fpext", nil
		}
		return "fptrunc", nil
	case mir.CastPointerToInt:
		return "ptrtoint", nil
	case mir.CastIntToPointer:
		return "inttoptr", nil
	case mir.CastPointerToPointer, mir.CastClassUpcast:
		return "bitcast", nil
	default:
		return "bitcast", nil
	}
}

func (e *Emitter) lowerAggregate(destAddr string, rv mir.Rvalue) error {
	for i, field := range rv.AggFields {
		fieldTy, structText, err := e.fieldTypeAt(rv.AggTy, uint32(i))
		if err != nil {
			if rv.AggKind == mir.AggArray {
				fieldTy = *rv.AggTy.Elem
				structText = ""
			} else {
				return err
			}
		}
		val, valTy, err := e.loadOperand(field)
		if err != nil {
			return err
		}
		if valTy.Kind == mir.KUnknown {
			valTy = fieldTy
		}
		fieldAddr := e.nextReg()
		if rv.AggKind == mir.AggArray {
			e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i64 %d",
				fieldAddr, e.layouts.LLVMType(rv.AggTy), destAddr, i))
		} else {
			e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i32 %d",
				fieldAddr, structText, destAddr, i))
		}
		e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(fieldTy), val, fieldAddr))
	}
	return nil
}

func (e *Emitter) lowerAtomicLoad(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	addr, ty, err := e.placePtr(rv.AtomicPlace)
	if err != nil {
		return err
	}
	reg := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load atomic %s, ptr %s %s, align %d",
		reg, e.layouts.LLVMType(ty), addr, rv.AtomicOrder, alignOf(e, ty)))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), reg, destAddr))
	return nil
}

func (e *Emitter) lowerAtomicRmw(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	addr, ty, err := e.placePtr(rv.AtomicPlace)
	if err != nil {
		return err
	}
	val, _, err := e.loadOperand(rv.AtomicValue)
	if err != nil {
		return err
	}
	op, ok := binOpText[rv.AtomicOp]
	if !ok {
		return errors.Errorf("unhandled atomicrmw op %d", rv.AtomicOp)
	}
	reg := e.nextReg()
	e.emit(fmt.Sprintf("  %s = atomicrmw %s ptr %s, %s %s %s",
		reg, op.i, addr, e.layouts.LLVMType(ty), val, rv.AtomicOrder))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), reg, destAddr))
	return nil
}

func (e *Emitter) lowerAtomicCompareExchange(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	addr, ty, err := e.placePtr(rv.AtomicPlace)
	if err != nil {
		return err
	}
	expected, _, err := e.loadOperand(rv.AtomicExpected)
	if err != nil {
		return err
	}
	newVal, _, err := e.loadOperand(rv.AtomicNew)
	if err != nil {
		return err
	}
	llty := e.layouts.LLVMType(ty)
	pair := e.nextReg()
	e.emit(fmt.Sprintf("  %s = cmpxchg ptr %s, %s %s, %s %s %s %s",
		pair, addr, llty, expected, llty, newVal, rv.SuccessOrder, rv.FailureOrder))
	old := e.nextReg()
	e.emit(fmt.Sprintf("  %s = extractvalue { %s, i1 } %s, 0", old, llty, pair))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), old, destAddr))
	return nil
}

func alignOf(e *Emitter, ty mir.Ty) uint32 {
	_, align := e.layouts.SizeAndAlignForTy(ty)
	return align
}

func (e *Emitter) lowerNumericIntrinsic(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	switch rv.IntrinsicKind {
	case mir.TryAdd, mir.TrySub, mir.TryMul, mir.TryNeg:
		return e.lowerOverflowIntrinsic(destAddr, destTy, rv)
	case mir.LeadingZeroCount, mir.TrailingZeroCount, mir.PopCount, mir.ReverseEndianness:
		return e.lowerBitopIntrinsic(destAddr, destTy, rv)
	case mir.RotateLeft, mir.RotateRight:
		return e.lowerRotate(destAddr, destTy, rv)
	case mir.IsPowerOfTwo:
		return e.lowerIsPowerOfTwo(destAddr, destTy, rv)
	default:
		return errors.Errorf("unhandled numeric intrinsic kind %d", rv.IntrinsicKind)
	}
}

// lowerOverflowIntrinsic follows spec.md §4.6.5 literally: the arithmetic value goes to `out`
// when present, while the Assign's own place always receives the success boolean (the negation
// of the overflow flag llvm.*.with.overflow reports).
func (e *Emitter) lowerOverflowIntrinsic(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	if len(rv.IntrinsicOperands) == 0 {
		return errors.Errorf("overflow intrinsic with no operands")
	}
	lhs, _, err := e.loadOperand(rv.IntrinsicOperands[0])
	if err != nil {
		return err
	}
	rhs := "0"
	if len(rv.IntrinsicOperands) > 1 {
		rhs, _, err = e.loadOperand(rv.IntrinsicOperands[1])
		if err != nil {
			return err
		}
	} else if rv.IntrinsicKind == mir.TryNeg {
		lhs, rhs = "0", lhs
	}
	var kind runtimeabi.OverflowKind
	switch rv.IntrinsicKind {
	case mir.TrySub, mir.TryNeg:
		kind = runtimeabi.OverflowSub
	case mir.TryMul:
		kind = runtimeabi.OverflowMul
	default:
		kind = runtimeabi.OverflowAdd
	}
	sig := e.catalog.IntrinsicOverflow(kind, rv.IntrinsicSigned, int(rv.IntrinsicWidth))
	pair := e.nextReg()
	e.emit(fmt.Sprintf("  %s = call %s @%s(%s %s, %s %s)", pair, sig.Ret, sig.Symbol, sig.Params[0], lhs, sig.Params[1], rhs))

	if rv.IntrinsicOut != nil {
		valReg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = extractvalue %s %s, 0", valReg, sig.Ret, pair))
		outAddr, outTy, err := e.placePtr(*rv.IntrinsicOut)
		if err != nil {
			return err
		}
		e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(outTy), valReg, outAddr))
	}

	overflowBit := e.nextReg()
	e.emit(fmt.Sprintf("  %s = extractvalue %s %s, 1", overflowBit, sig.Ret, pair))
	success := e.nextReg()
	e.emit(fmt.Sprintf("  %s = xor i1 %s, true", success, overflowBit))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), success, destAddr))
	return nil
}

func (e *Emitter) lowerBitopIntrinsic(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	if len(rv.IntrinsicOperands) == 0 {
		return errors.Errorf("bitop intrinsic with no operands")
	}
	val, _, err := e.loadOperand(rv.IntrinsicOperands[0])
	if err != nil {
		return err
	}
	if rv.IntrinsicKind == mir.ReverseEndianness && rv.IntrinsicWidth == 8 {
		e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), val, destAddr))
		return nil
	}
	if rv.IntrinsicKind == mir.ReverseEndianness {
		sig := e.catalog.IntrinsicBitop(runtimeabi.BitopBswap, int(rv.IntrinsicWidth))
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = call %s @%s(%s %s)", reg, sig.Ret, sig.Symbol, sig.Params[0], val))
		e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), reg, destAddr))
		return nil
	}
	var kind runtimeabi.BitopKind
	switch rv.IntrinsicKind {
	case mir.LeadingZeroCount:
		kind = runtimeabi.BitopCtlz
	case mir.TrailingZeroCount:
		kind = runtimeabi.BitopCttz
	default:
		kind = runtimeabi.BitopCtpop
	}
	sig := e.catalog.IntrinsicBitop(kind, int(rv.IntrinsicWidth))
	reg := e.nextReg()
	e.emit(fmt.Sprintf("  %s = call %s @%s(%s %s, i1 false)", reg, sig.Ret, sig.Symbol, sig.Params[0], val))
	widened := e.nextReg()
	e.emit(fmt.Sprintf("  %s = zext %s %s to i32", widened, sig.Ret, reg))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), widened, destAddr))
	return nil
}

// lowerRotate implements RotateLeft/Right with the classic shift-and-or formula, since the
// runtime catalog (C10) is a fixed, hand-maintained symbol list that does not carry
// llvm.fshl/llvm.fshr — two shifts plus an or cover the same semantics without adding a symbol
// this core would otherwise never reference.
func (e *Emitter) lowerRotate(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	if len(rv.IntrinsicOperands) < 2 {
		return errors.Errorf("rotate intrinsic needs value and shift operands")
	}
	val, _, err := e.loadOperand(rv.IntrinsicOperands[0])
	if err != nil {
		return err
	}
	amt, _, err := e.loadOperand(rv.IntrinsicOperands[1])
	if err != nil {
		return err
	}
	w := rv.IntrinsicWidth
	ty := fmt.Sprintf("i%d", w)
	normalized := e.nextReg()
	e.emit(fmt.Sprintf("  %s = urem %s %s, %d", normalized, ty, amt, w))
	complement := e.nextReg()
	e.emit(fmt.Sprintf("  %s = sub %s %d, %s", complement, ty, w, normalized))
	var leftAmt, rightAmt string
	if rv.IntrinsicKind == mir.RotateLeft {
		leftAmt, rightAmt = normalized, complement
	} else {
		leftAmt, rightAmt = complement, normalized
	}
	left := e.nextReg()
	e.emit(fmt.Sprintf("  %s = shl %s %s, %s", left, ty, val, leftAmt))
	right := e.nextReg()
	e.emit(fmt.Sprintf("  %s = lshr %s %s, %s", right, ty, val, rightAmt))
	result := e.nextReg()
	e.emit(fmt.Sprintf("  %s = or %s %s, %s", result, ty, left, right))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), result, destAddr))
	return nil
}

func (e *Emitter) lowerIsPowerOfTwo(destAddr string, destTy mir.Ty, rv mir.Rvalue) error {
	if len(rv.IntrinsicOperands) == 0 {
		return errors.Errorf("is_power_of_two intrinsic with no operand")
	}
	val, _, err := e.loadOperand(rv.IntrinsicOperands[0])
	if err != nil {
		return err
	}
	ty := fmt.Sprintf("i%d", rv.IntrinsicWidth)
	dec := e.nextReg()
	e.emit(fmt.Sprintf("  %s = sub %s %s, 1", dec, ty, val))
	anded := e.nextReg()
	e.emit(fmt.Sprintf("  %s = and %s %s, %s", anded, ty, val, dec))
	isZero := e.nextReg()
	e.emit(fmt.Sprintf("  %s = icmp eq %s %s, 0", isZero, ty, anded))
	cmp := "ne"
	if rv.IntrinsicSigned {
		cmp = "sgt"
	}
	nonZero := e.nextReg()
	e.emit(fmt.Sprintf("  %s = icmp %s %s %s, 0", nonZero, cmp, ty, val))
	result := e.nextReg()
	e.emit(fmt.Sprintf("  %s = and i1 %s, %s", result, isZero, nonZero))
	e.emit(fmt.Sprintf("  store %s %s, ptr %s", e.layouts.LLVMType(destTy), result, destAddr))
	return nil
}

func (e *Emitter) lowerStringInterpolate(destAddr string, rv mir.Rvalue) error {
	e.emit(fmt.Sprintf("  call void @chic_rt_zero_init(ptr %s, i64 24)", destAddr))
	for _, seg := range rv.Segments {
		if seg.IsLiteral {
			sym := e.stringConstant(seg.Literal)
			e.emit(fmt.Sprintf("  call void @chic_rt_string_push_slice(ptr %s, {ptr, i64} { ptr %s, i64 %d })",
				destAddr, sym, len(seg.Literal)))
			continue
		}
		val, ty, err := e.loadOperand(seg.Value)
		if err != nil {
			return err
		}
		if err := e.appendInterpolatedValue(destAddr, val, ty, seg); err != nil {
			return err
		}
	}
	return nil
}

// isSignedIntName reports whether name is one of this codebase's signed integer type names
// (internal/layout/synth.go's intrinsicSizeAlign draws the same i/u-prefix distinction).
func isSignedIntName(name string) bool {
	switch name {
	case "i8", "i16", "i32", "i64", "i128", "isize":
		return true
	}
	return false
}

// appendMetadata renders the (alignment, alignment-present flag, format-spec slice) trailing
// triple every chic_rt_string_append_* call takes (spec.md §4.6.7), sourced from the
// interpolation segment's own Align/HasAlign/FormatSpec fields rather than hardcoded zeros.
func (e *Emitter) appendMetadata(seg mir.InterpolateSegment) string {
	var align int32
	var hasAlign int32
	if seg.HasAlign {
		align = seg.Align
		hasAlign = 1
	}
	format := "zeroinitializer"
	if seg.HasSpec {
		sym := e.stringConstant(seg.FormatSpec)
		format = fmt.Sprintf("{ ptr %s, i64 %d }", sym, len(seg.FormatSpec))
	}
	return fmt.Sprintf("i32 %d, i32 %d, {ptr, i64} %s", align, hasAlign, format)
}

// appendInterpolatedValue calls the chic_rt_string_append_* appender matching ty (spec.md
// §4.6.7). Signed integer types sext and call append_signed; unsigned types zext and call
// append_unsigned, both widened to i128 with their source bit width passed ahead of the shared
// metadata triple, matching the S4 seed scenario. f16/f128 are bitcast to the same-width integer
// before the call, since the runtime ABI only accepts float operands natively for f32/f64.
func (e *Emitter) appendInterpolatedValue(destAddr, val string, ty mir.Ty, seg mir.InterpolateSegment) error {
	meta := e.appendMetadata(seg)
	switch ty.Name {
	case "bool":
		e.emit(fmt.Sprintf("  call void @chic_rt_string_append_bool(ptr %s, i1 %s, %s)", destAddr, val, meta))
	case "char":
		e.emit(fmt.Sprintf("  call void @chic_rt_string_append_char(ptr %s, i32 %s, %s)", destAddr, val, meta))
	case "f16":
		bits := e.nextReg()
		e.emit(fmt.Sprintf("  %s = bitcast half %s to i16", bits, val))
		e.emit(fmt.Sprintf("  call void @chic_rt_string_append_f16(ptr %s, i16 %s, %s)", destAddr, bits, meta))
	case "f32":
		e.emit(fmt.Sprintf("  call void @chic_rt_string_append_f32(ptr %s, float %s, %s)", destAddr, val, meta))
	case "f64":
		e.emit(fmt.Sprintf("  call void @chic_rt_string_append_f64(ptr %s, double %s, %s)", destAddr, val, meta))
	case "f128":
		bits := e.nextReg()
		e.emit(fmt.Sprintf("  %s = bitcast fp128 %s to i128", bits, val))
		e.emit(fmt.Sprintf("  call void @chic_rt_string_append_f128(ptr %s, i128 %s, %s)", destAddr, bits, meta))
	default:
		size, _ := e.layouts.SizeAndAlignForTy(ty)
		width := size * 8
		widened := e.nextReg()
		if isSignedIntName(ty.Name) {
			e.emit(fmt.Sprintf("  %s = sext %s %s to i128", widened, e.layouts.LLVMType(ty), val))
			e.emit(fmt.Sprintf("  call void @chic_rt_string_append_signed(ptr %s, i128 %s, i32 %d, %s)",
				destAddr, widened, width, meta))
		} else {
			e.emit(fmt.Sprintf("  %s = zext %s %s to i128", widened, e.layouts.LLVMType(ty), val))
			e.emit(fmt.Sprintf("  call void @chic_rt_string_append_unsigned(ptr %s, i128 %s, i32 %d, %s)",
				destAddr, widened, width, meta))
		}
	}
	return nil
}

func (e *Emitter) lowerSpanStackAlloc(destAddr string, rv mir.Rvalue) error {
	elemText := e.layouts.LLVMType(rv.SpanElement)
	lenVal, _, err := e.loadOperand(rv.SpanLength)
	if err != nil {
		return err
	}
	buf := e.nextReg()
	e.emit(fmt.Sprintf("  %s = alloca %s, i64 %s", buf, elemText, lenVal))
	if rv.SpanSource != nil {
		srcVal, srcTy, err := e.loadOperand(*rv.SpanSource)
		if err != nil {
			return err
		}
		size, _ := e.layouts.SizeAndAlignForTy(srcTy)
		e.emit(fmt.Sprintf("  call void @llvm.memcpy.p0.p0.i64(ptr %s, ptr %s, i64 %s, i1 false)",
			buf, srcVal, sizeTimes(size, lenVal)))
	}
	spanTy := mir.Span(rv.SpanElement)
	spanText := e.layouts.LLVMType(spanTy)
	ptrField := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i32 0", ptrField, spanText, destAddr))
	e.emit(fmt.Sprintf("  store ptr %s, ptr %s", buf, ptrField))
	lenField := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i32 1", lenField, spanText, destAddr))
	e.emit(fmt.Sprintf("  store i64 %s, ptr %s", lenVal, lenField))
	return nil
}

func sizeTimes(size uint64, lenVal string) string {
	if n, err := strconv.ParseUint(lenVal, 10, 64); err == nil {
		return strconv.FormatUint(n*size, 10)
	}
	return lenVal
}
