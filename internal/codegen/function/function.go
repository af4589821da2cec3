// Package function is the LLVM function emitter (spec.md §4.6, component C8): for one
// MirFunction it renders a `define ... { ... }` body as LLVM textual IR by walking the
// function's basic blocks, lowering every statement and terminator to one or more emitted
// lines. Grounded on `other_examples`' malphas-lang `internal/codegen/mir2llvm` package
// (`Generator.emit(line)` appending to a `strings.Builder`, `g.nextReg()` counter-based SSA
// register naming, `g.blockLabels` map) — this is the one concern where no corpus teacher file
// applies directly (the teacher emits LLVM through a linked `tinygo.org/x/go-llvm` binding, not
// as text), so the string-buffer emission style is carried over from the other_examples' two
// MIR→LLVM emitters instead.
package function

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"chicc/internal/codegen/signature"
	"chicc/internal/layout"
	"chicc/internal/metadata"
	"chicc/internal/mir"
	"chicc/internal/runtimeabi"
	"chicc/internal/target"
)

// Emitter holds the mutable state of one function's in-progress textual lowering. It is built
// fresh per function (spec.md §5: "emission is a pure CPU loop producing a string", no shared
// mutable state between functions besides the runtime catalog and metadata pool, which persist
// module-wide).
type Emitter struct {
	layouts *layout.Table
	catalog *runtimeabi.Catalog
	meta    *metadata.Pool

	sig  signature.Sig
	fn   *mir.MirFunction
	arch target.Arch

	buf    strings.Builder
	regSeq int

	// localAddr maps each LocalId to the SSA register already holding its storage address: an
	// alloca for ordinary locals, or the incoming pointer itself for a byval/sret parameter.
	localAddr map[mir.LocalId]string
	// localTy records each local's MIR type, repeated here rather than re-deriving it from
	// fn.Body.Locals on every lookup (the return local's Ty, when sret, is fn.Sig.Ret, not
	// whatever fn.Body.Locals[0] independently records).
	localTy map[mir.LocalId]mir.Ty

	blockLabel map[mir.BlockId]string

	// stringConsts/stringOrder intern string-literal constants encountered while lowering this
	// function's operands, keyed by literal text; stringOrder preserves first-sight order so the
	// module emitter (C9) can assign stable global names deterministically.
	stringConsts map[string]string
	stringOrder  []string

	// localAliasAttrs holds the rendered `, !alias.scope !L, !noalias !L2` suffix for each
	// restrict/noalias-qualified parameter local, empty for every other local (spec.md §4.6.1
	// rule 4). Populated once in emitPrologue.
	localAliasAttrs map[mir.LocalId]string
}

// StringConstants returns the string literals interned while emitting this function, in the
// order they were first encountered, for the module emitter to fold into its global constant
// pool.
func (e *Emitter) StringConstants() (map[string]string, []string) {
	return e.stringConsts, e.stringOrder
}

// Result is one function's rendered IR plus the string literals it interned along the way, for
// the module emitter (C9) to fold into its module-wide constant pool under stable global names.
type Result struct {
	Text         string
	StringConsts map[string]string
	StringOrder  []string
}

// EmitFunction renders fn's full `define` body, given its already-resolved LLVM signature. arch
// selects the architecture-specific automatic clobbers inline asm lowering adds (spec.md §4.6.6).
func EmitFunction(layouts *layout.Table, catalog *runtimeabi.Catalog, meta *metadata.Pool, sig signature.Sig, fn *mir.MirFunction, arch target.Arch) (Result, error) {
	if fn.Body == nil {
		return Result{}, errors.Errorf("function %s has no body to emit", fn.Name)
	}
	e := &Emitter{
		layouts:         layouts,
		catalog:         catalog,
		meta:            meta,
		sig:             sig,
		fn:              fn,
		arch:            arch,
		localAddr:       map[mir.LocalId]string{},
		localTy:         map[mir.LocalId]mir.Ty{},
		blockLabel:      map[mir.BlockId]string{},
		stringConsts:    map[string]string{},
		localAliasAttrs: map[mir.LocalId]string{},
	}
	for i := range fn.Body.Blocks {
		e.blockLabel[mir.BlockId(i)] = fmt.Sprintf("bb%d", i)
	}

	fmt.Fprintf(&e.buf, "define %s @%s(%s) {\n", sig.ReturnTypeText(), sig.Symbol, sig.ParamListText())
	if err := e.emitPrologue(); err != nil {
		return Result{}, errors.Wrapf(err, "function %s prologue", fn.Name)
	}
	fmt.Fprintf(&e.buf, "  br label %%%s\n", e.blockLabel[0])

	for i, block := range fn.Body.Blocks {
		id := mir.BlockId(i)
		fmt.Fprintf(&e.buf, "%s:\n", e.blockLabel[id])
		for _, stmt := range block.Statements {
			if err := e.lowerStatement(stmt); err != nil {
				return Result{}, errors.Wrapf(err, "function %s block %d", fn.Name, i)
			}
		}
		if err := e.lowerTerminator(block.Terminator); err != nil {
			return Result{}, errors.Wrapf(err, "function %s block %d terminator", fn.Name, i)
		}
	}
	e.buf.WriteString("}\n")
	return Result{Text: e.buf.String(), StringConsts: e.stringConsts, StringOrder: e.stringOrder}, nil
}

// nextReg returns a fresh SSA register name, incrementing the counter.
func (e *Emitter) nextReg() string {
	e.regSeq++
	return fmt.Sprintf("%%r%d", e.regSeq)
}

// emit appends one already-indented-or-not line plus a trailing newline.
func (e *Emitter) emit(line string) {
	e.buf.WriteString(line)
	e.buf.WriteString("\n")
}

// emitPrologue allocates storage for every local and stores incoming parameter values into it,
// honoring each parameter's resolved Class (spec.md §4.6.1 rules 1-2).
func (e *Emitter) emitPrologue() error {
	e.assignAliasScopes()

	argIndex := 0
	argOffset := 0
	if e.sig.SRet {
		argOffset = 1
	}
	for i, decl := range e.fn.Body.Locals {
		id := mir.LocalId(i)
		switch decl.Kind {
		case mir.LocalKindReturn:
			if e.sig.SRet {
				e.localAddr[id] = "%arg0"
				e.localTy[id] = e.fn.Sig.Ret
				continue
			}
			ty := e.fn.Sig.Ret
			e.localTy[id] = ty
			e.allocaLocal(id, ty)
		case mir.LocalKindArg:
			ty := decl.Ty
			e.localTy[id] = ty
			param := e.sig.Params[argIndex]
			argReg := fmt.Sprintf("%%arg%d", argIndex+argOffset)
			switch param.Class {
			case signature.ClassIndirectByVal:
				e.localAddr[id] = argReg
			case signature.ClassDirectCoerce:
				e.allocaLocal(id, ty)
				e.emit(fmt.Sprintf("  store %s %s, ptr %s", param.CoerceType, argReg, e.localAddr[id]))
			default:
				e.allocaLocal(id, ty)
				e.emit(fmt.Sprintf("  store %s %s, ptr %s", param.LLVMType, argReg, e.localAddr[id]))
			}
			argIndex++
		default:
			e.localTy[id] = decl.Ty
			e.allocaLocal(id, decl.Ty)
		}
	}
	return nil
}

func (e *Emitter) allocaLocal(id mir.LocalId, ty mir.Ty) {
	reg := e.nextReg()
	e.emit(fmt.Sprintf("  %s = alloca %s", reg, e.layouts.LLVMType(ty)))
	e.localAddr[id] = reg
}

// addr returns the storage address and MIR type for an already-declared local.
func (e *Emitter) addr(id mir.LocalId) (string, mir.Ty, error) {
	reg, ok := e.localAddr[id]
	if !ok {
		return "", mir.Ty{}, errors.Errorf("local %d has no storage address", id)
	}
	return reg, e.localTy[id], nil
}
