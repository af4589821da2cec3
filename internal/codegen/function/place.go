package function

import (
	"fmt"

	"github.com/pkg/errors"

	"chicc/internal/mir"
	"chicc/internal/runtimeabi"
)

// placePtr walks p's projection chain starting from its base local's storage address (spec.md
// §4.6.2 place_ptr), returning the resulting address and the MIR type found there. Deref loads
// the pointee address; Field/FieldNamed/Downcast compute a `getelementptr` step; Index loads the
// target's data pointer and emits a bounds-check panic branch before indexing. Subslice and
// ConstIndex are reserved projections that error at emit time rather than lower.
func (e *Emitter) placePtr(p mir.Place) (string, mir.Ty, error) {
	ptr, ty, err := e.addr(p.Local)
	if err != nil {
		return "", mir.Ty{}, err
	}
	for _, proj := range p.Projection {
		ptr, ty, err = e.stepProjection(ptr, ty, proj)
		if err != nil {
			return "", mir.Ty{}, err
		}
	}
	return ptr, ty, nil
}

func (e *Emitter) stepProjection(ptr string, ty mir.Ty, proj mir.ProjectionElem) (string, mir.Ty, error) {
	switch proj.Kind {
	case mir.ProjDeref:
		return e.stepDeref(ptr, ty)
	case mir.ProjField:
		return e.stepField(ptr, ty, proj.FieldIndex)
	case mir.ProjFieldNamed:
		return e.stepFieldNamed(ptr, ty, proj.FieldName)
	case mir.ProjIndex:
		return e.stepIndex(ptr, ty, proj.IndexLocal)
	case mir.ProjDowncast:
		return e.stepDowncast(ptr, ty, proj.Variant)
	case mir.ProjConstIndex:
		return e.stepConstIndex(ptr, ty, proj.ConstOffset, proj.MinLength, proj.FromEnd)
	case mir.ProjSubslice:
		return e.stepSubslice(ptr, ty, proj.From, proj.To)
	default:
		return "", mir.Ty{}, errors.Errorf("unhandled projection kind %d", proj.Kind)
	}
}

func (e *Emitter) stepDeref(ptr string, ty mir.Ty) (string, mir.Ty, error) {
	if ty.Elem == nil {
		return "", mir.Ty{}, errors.Errorf("deref of non-pointer type %s", ty.Kind)
	}
	loaded := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load ptr, ptr %s", loaded, ptr))
	return loaded, *ty.Elem, nil
}

func (e *Emitter) stepField(ptr string, ty mir.Ty, index uint32) (string, mir.Ty, error) {
	fieldTy, structText, err := e.fieldTypeAt(ty, index)
	if err != nil {
		return "", mir.Ty{}, err
	}
	reg := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i32 %d", reg, structText, ptr, index))
	return reg, fieldTy, nil
}

func (e *Emitter) stepFieldNamed(ptr string, ty mir.Ty, name string) (string, mir.Ty, error) {
	l, ok := e.layouts.Lookup(ty)
	if !ok {
		return "", mir.Ty{}, errors.Errorf("field %q on unknown type %s", name, ty.CanonicalName())
	}
	for _, f := range l.Fields {
		if f.Name == name {
			return e.stepField(ptr, ty, f.Index)
		}
	}
	return "", mir.Ty{}, errors.Errorf("field %q not found on %s", name, ty.CanonicalName())
}

// fieldTypeAt returns the field's MIR type and the enclosing struct's LLVM text, for either a
// user-defined Named layout or a structural Tuple.
func (e *Emitter) fieldTypeAt(ty mir.Ty, index uint32) (mir.Ty, string, error) {
	switch ty.Kind {
	case mir.KTuple:
		if int(index) >= len(ty.Elems) {
			return mir.Ty{}, "", errors.Errorf("tuple field index %d out of range", index)
		}
		return ty.Elems[index], e.layouts.LLVMType(ty), nil
	case mir.KNamed:
		l, ok := e.layouts.Lookup(ty)
		if !ok {
			return mir.Ty{}, "", errors.Errorf("unknown named type %s", ty.CanonicalName())
		}
		for _, f := range l.Fields {
			if f.Index == index {
				return f.Ty, e.layouts.LLVMType(ty), nil
			}
		}
		return mir.Ty{}, "", errors.Errorf("field index %d not found on %s", index, ty.CanonicalName())
	default:
		return mir.Ty{}, "", errors.Errorf("field projection on non-aggregate type %s", ty.Kind)
	}
}

// dataPtrOf loads a Vec/Span/ReadOnlySpan's backing data pointer (field 0 of its synthesized
// layout) for indexing.
func (e *Emitter) dataPtrOf(structPtr string, ty mir.Ty) (string, error) {
	structText := e.layouts.LLVMType(ty)
	fieldPtr := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i32 0", fieldPtr, structText, structPtr))
	dataReg := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load ptr, ptr %s", dataReg, fieldPtr))
	return dataReg, nil
}

func (e *Emitter) stepIndex(ptr string, ty mir.Ty, indexLocal mir.LocalId) (string, mir.Ty, error) {
	idxAddr, idxTy, err := e.addr(indexLocal)
	if err != nil {
		return "", mir.Ty{}, err
	}
	idxVal := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load %s, ptr %s", idxVal, e.layouts.LLVMType(idxTy), idxAddr))

	switch ty.Kind {
	case mir.KArray:
		elemTy := *ty.Elem
		if ty.Length != nil {
			e.emitBoundsCheck(runtimeabi.PanicSpanBounds, idxVal, fmt.Sprintf("%d", *ty.Length))
		}
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i64 %s",
			reg, e.layouts.LLVMType(ty), ptr, idxVal))
		return reg, elemTy, nil
	case mir.KVec, mir.KSpan, mir.KReadOnlySpan:
		elemTy := *ty.Elem
		data, err := e.dataPtrOf(ptr, ty)
		if err != nil {
			return "", mir.Ty{}, err
		}
		lenVal := e.loadLenField(ptr, ty)
		e.emitBoundsCheck(panicCodeFor(ty), idxVal, lenVal)
		reg := e.nextReg()
		e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i64 %s", reg, e.layouts.LLVMType(elemTy), data, idxVal))
		return reg, elemTy, nil
	default:
		return "", mir.Ty{}, errors.Errorf("index projection on non-indexable type %s", ty.Kind)
	}
}

// stepConstIndex and stepSubslice are reserved projection kinds (spec.md §4.6.2: "Downcast,
// Subslice, ConstIndex — errors at emit time unless supported"); internal/builder's guardrails
// already refuse to construct either from this repo's own body builder, but the emitter enforces
// the same contract independently so a MIR body from any other producer is rejected here too
// rather than silently lowered.
func (e *Emitter) stepConstIndex(ptr string, ty mir.Ty, offset, minLength uint64, fromEnd bool) (string, mir.Ty, error) {
	return "", mir.Ty{}, errors.Errorf("const_index projection is not yet supported")
}

func (e *Emitter) stepSubslice(ptr string, ty mir.Ty, from, to uint64) (string, mir.Ty, error) {
	return "", mir.Ty{}, errors.Errorf("subslice projection is not yet supported")
}

func (e *Emitter) stepDowncast(ptr string, ty mir.Ty, variant string) (string, mir.Ty, error) {
	l, ok := e.layouts.Lookup(ty)
	if !ok {
		return "", mir.Ty{}, errors.Errorf("downcast of unknown enum type %s", ty.CanonicalName())
	}
	var fields []mir.Ty
	found := false
	for _, v := range l.Variants {
		if v.Name == variant {
			found = true
			for _, f := range v.Fields {
				fields = append(fields, f.Ty)
			}
		}
	}
	if !found {
		return "", mir.Ty{}, errors.Errorf("variant %q not found on %s", variant, ty.CanonicalName())
	}
	enumText := e.layouts.LLVMType(ty)
	payload := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i32 1", payload, enumText, ptr))
	return payload, mir.Tuple(fields...), nil
}

// loadLenField reads the `len` field (index 1 in every synthesized Vec/Span/String layout) out
// of structPtr as an i64.
func (e *Emitter) loadLenField(structPtr string, ty mir.Ty) string {
	structText := e.layouts.LLVMType(ty)
	lenField := e.nextReg()
	e.emit(fmt.Sprintf("  %s = getelementptr %s, ptr %s, i32 0, i32 1", lenField, structText, structPtr))
	lenVal := e.nextReg()
	e.emit(fmt.Sprintf("  %s = load i64, ptr %s", lenVal, lenField))
	return lenVal
}

// panicCodeFor selects the distinct bounds-check panic code spec.md §8 property 8 assigns per
// container kind (8195 span/vec, 8197 string, 8198 str).
func panicCodeFor(ty mir.Ty) runtimeabi.PanicCode {
	switch ty.Kind {
	case mir.KString:
		return runtimeabi.PanicStringBounds
	case mir.KStr:
		return runtimeabi.PanicStrBounds
	default:
		return runtimeabi.PanicSpanBounds
	}
}

// emitBoundsCheck compares idxVal against lenVal unsigned and branches to an inline panic block
// on violation, mirroring lowerAssert's br/call/unreachable shape (spec.md §4.6.2's "emit a
// bounds check: compare unsigned against len and call chic_rt_panic(code) on failure").
func (e *Emitter) emitBoundsCheck(code runtimeabi.PanicCode, idxVal, lenVal string) {
	cond := e.nextReg()
	e.emit(fmt.Sprintf("  %s = icmp uge i64 %s, %s", cond, idxVal, lenVal))
	failLabel := fmt.Sprintf("bounds.fail.%d", e.regSeq)
	okLabel := fmt.Sprintf("bounds.ok.%d", e.regSeq+1)
	e.regSeq += 2
	e.emit(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s", cond, failLabel, okLabel))
	e.emit(failLabel + ":")
	e.emit(fmt.Sprintf("  call void @chic_rt_panic(i32 %d)", code))
	e.emit("  unreachable")
	e.emit(okLabel + ":")
}
