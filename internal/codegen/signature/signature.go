// Package signature is the LLVM signature builder (spec.md §4.5, component C7): for each
// MirFunction it maps MIR parameter/return types to their LLVM textual spelling, classifies
// aggregate parameters and returns under the System V x86_64 eightbyte rule when the function's
// ABI is `extern("C")`, and assembles the per-parameter LLVM attribute list from the MIR
// aliasing contract. Grounded on `google-gapid/core/codegen/abis/amd64/abi.go`'s regClass
// classifier shape (POINTER/INTEGER/SSE/MEMORY buckets keyed off size and field kind),
// generalized from that package's unfinished sketch into the four-way Direct/DirectCoerce/
// IndirectByVal/IndirectSret classification spec.md §4.5 actually specifies.
package signature

import (
	"fmt"
	"strings"

	"chicc/internal/layout"
	"chicc/internal/mir"
)

// Class tags how one parameter or the return value crosses the LLVM call boundary.
type Class uint8

const (
	// ClassDirect passes the value as itself: a scalar, a pointer ("ptr"), or (for the Chic
	// native ABI, which this core never subjects to eightbyte classification) an aggregate
	// passed by its own LLVM aggregate type.
	ClassDirect Class = iota
	// ClassDirectCoerce passes a small C-ABI aggregate (<= two eightbytes) bounced through an
	// integer-register-shaped coercion type (i64, or { i64, i64 }).
	ClassDirectCoerce
	// ClassIndirectByVal passes a large C-ABI aggregate (> two eightbytes) as a pointer to a
	// callee-owned copy, with the `byval(T)` attribute.
	ClassIndirectByVal
	// ClassIndirectSret returns a large C-ABI aggregate (> two eightbytes) through a hidden
	// first pointer parameter carrying the `sret(T)` attribute.
	ClassIndirectSret
)

const eightbyte = 8
const twoEightbytes = 2 * eightbyte

// Param is one parameter's resolved LLVM shape.
type Param struct {
	Ty         mir.Ty
	LLVMType   string // the type spelling that appears at the call site / signature.
	CoerceType string // populated only for ClassDirectCoerce; the bounce-buffer's own type.
	Class      Class
	Attrs      []string
}

// Sig is one function's fully resolved LLVM signature, ready for both the `define`/`declare`
// line and every `call` site.
type Sig struct {
	Symbol   string
	Params   []Param
	Ret      Param
	SRet     bool // true when Ret.Class == ClassIndirectSret (a hidden first parameter).
	Variadic bool
}

// Build resolves fn's LLVM signature. symbol is the already-mangled link name (see Mangler).
func Build(layouts *layout.Table, symbol string, fn *mir.MirFunction) Sig {
	abi := fn.Sig.Abi
	sig := Sig{Symbol: symbol, Variadic: fn.Sig.Variadic}

	retClass, retCoerce := classify(layouts, fn.Sig.Ret, abi, true)
	sig.Ret = Param{
		Ty:         fn.Sig.Ret,
		LLVMType:   layouts.LLVMType(fn.Sig.Ret),
		CoerceType: retCoerce,
		Class:      retClass,
	}
	if retClass == ClassIndirectSret {
		sig.SRet = true
		sig.Ret.Attrs = []string{fmt.Sprintf("sret(%s)", sig.Ret.LLVMType)}
	}

	argDecls := argLocals(fn)
	for i, ty := range fn.Sig.Params {
		class, coerce := classify(layouts, ty, abi, false)
		p := Param{Ty: ty, LLVMType: layouts.LLVMType(ty), CoerceType: coerce, Class: class}
		switch class {
		case ClassIndirectByVal:
			p.Attrs = append(p.Attrs, fmt.Sprintf("byval(%s)", p.LLVMType))
		}
		if i < len(argDecls) {
			p.Attrs = append(p.Attrs, aliasingAttrs(argDecls[i])...)
		}
		sig.Params = append(sig.Params, p)
	}
	return sig
}

// argLocals returns fn's Arg-kind locals in declaration order, used to recover each
// parameter's aliasing contract (spec.md §4.5: "derived from the MIR parameter's aliasing
// contract and mode"). Locals of other kinds (the return slot, temporaries) are skipped.
func argLocals(fn *mir.MirFunction) []mir.LocalDecl {
	if fn.Body == nil {
		return nil
	}
	var args []mir.LocalDecl
	for _, l := range fn.Body.Locals {
		if l.Kind == mir.LocalKindArg {
			args = append(args, l)
		}
	}
	return args
}

func aliasingAttrs(decl mir.LocalDecl) []string {
	var attrs []string
	if decl.Ty.Kind != mir.KPointer && decl.Ty.Kind != mir.KRef {
		return attrs
	}
	quals := decl.Aliasing
	if quals.Restrict || quals.NoAlias {
		attrs = append(attrs, "noalias")
	}
	if quals.ReadOnly {
		attrs = append(attrs, "readonly")
	}
	if quals.Alignment != 0 {
		attrs = append(attrs, fmt.Sprintf("align %d", quals.Alignment))
	}
	switch decl.ParamMode {
	case mir.ParamModeOut, mir.ParamModeRef:
		attrs = append(attrs, "nonnull")
	}
	return attrs
}

// classify implements spec.md §4.5's per-value classification: pointers/references always map
// to "ptr" with no special class; aggregates are subject to the C-ABI eightbyte rule only when
// abi is extern("C") — the Chic native ABI always passes/returns aggregates directly as their
// own LLVM aggregate type, leaving layout entirely to this core's own calling convention.
func classify(layouts *layout.Table, ty mir.Ty, abi mir.Abi, isReturn bool) (Class, string) {
	if ty.Kind == mir.KPointer || ty.Kind == mir.KRef || ty.Kind == mir.KUnit {
		return ClassDirect, ""
	}
	if !abi.Extern || abi.Name != "C" {
		return ClassDirect, ""
	}
	if !isAggregate(ty) {
		return ClassDirect, ""
	}
	size, _ := layouts.SizeAndAlignForTy(ty)
	switch {
	case size > twoEightbytes:
		if isReturn {
			return ClassIndirectSret, ""
		}
		return ClassIndirectByVal, ""
	case size > eightbyte:
		return ClassDirectCoerce, "{ i64, i64 }"
	default:
		return ClassDirectCoerce, "i64"
	}
}

func isAggregate(ty mir.Ty) bool {
	switch ty.Kind {
	case mir.KNamed, mir.KTuple, mir.KArray, mir.KString, mir.KVec, mir.KSpan, mir.KReadOnlySpan, mir.KFn:
		return true
	default:
		return false
	}
}

// Mangler disambiguates overloaded functions by appending `_1`, `_2`, … to the base symbol in
// declaration order (spec.md §4.5's last bullet). The first overload keeps the bare name.
type Mangler struct {
	seen map[string]int
}

// NewMangler returns an empty Mangler.
func NewMangler() *Mangler { return &Mangler{seen: map[string]int{}} }

// Mangle returns the next symbol for baseName, in declaration order.
func (m *Mangler) Mangle(baseName string) string {
	n := m.seen[baseName]
	m.seen[baseName] = n + 1
	if n == 0 {
		return baseName
	}
	return fmt.Sprintf("%s_%d", baseName, n)
}

// ParamListText renders a Sig's parameter list as it appears in a `define`/`declare` line,
// prepending the hidden sret parameter when present.
func (s Sig) ParamListText() string {
	var parts []string
	if s.SRet {
		parts = append(parts, fmt.Sprintf("ptr sret(%s) %%arg0", s.Ret.LLVMType))
	}
	offset := 0
	if s.SRet {
		offset = 1
	}
	for i, p := range s.Params {
		argName := fmt.Sprintf("%%arg%d", i+offset)
		ty := p.LLVMType
		if p.Class == ClassIndirectByVal || p.Class == ClassDirectCoerce {
			ty = "ptr"
			if p.Class == ClassDirectCoerce {
				ty = p.CoerceType
			}
		}
		text := ty
		if len(p.Attrs) > 0 {
			text += " " + strings.Join(p.Attrs, " ")
		}
		parts = append(parts, fmt.Sprintf("%s %s", text, argName))
	}
	return strings.Join(parts, ", ")
}

// ReturnTypeText renders the LLVM return type as it appears in a `define`/`declare` line: void
// when sret (the real payload leaves via the hidden pointer), otherwise the resolved LLVM type.
func (s Sig) ReturnTypeText() string {
	if s.SRet {
		return "void"
	}
	return s.Ret.LLVMType
}
