// Package runtimeabi is the static catalog of chic_rt_* / LLVM intrinsic symbols the function
// emitter (C8) invokes on demand (spec.md §4/§6, component C10). The catalog itself is external —
// this package only records the signature each symbol is declared with in emitted IR, the way
// the teacher's src/ir/lir/function.go records a FunctionCallInstruction's callee signature
// without owning the callee's body.
package runtimeabi

import (
	"fmt"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Sig is one external symbol's declared LLVM signature: return type plus ordered parameter
// types, both given as already-rendered LLVM type text (e.g. "ptr", "i64", "{ptr, i64}").
type Sig struct {
	Symbol string
	Ret    string
	Params []string
}

// Declare renders the `declare` line C9 emits once per referenced symbol, e.g.
// `declare void @chic_rt_panic(i32)`.
func (s Sig) Declare() string {
	return fmt.Sprintf("declare %s @%s(%s)", s.Ret, s.Symbol, strings.Join(s.Params, ", "))
}

// Catalog is a name-indexed, append-only registry of runtime/intrinsic signatures.
type Catalog struct {
	byName map[string]Sig
}

// ---------------------
// ----- functions -----
// ---------------------

// NewCatalog returns a Catalog pre-populated with every chic_rt_* symbol and LLVM intrinsic
// family spec.md §6 names. Callers insert on demand from here by Lookup, not by mutating it.
func NewCatalog() *Catalog {
	c := &Catalog{byName: map[string]Sig{}}
	for _, s := range builtinSignatures() {
		c.byName[s.Symbol] = s
	}
	return c
}

// Lookup returns the declared signature for symbol, and whether it is known. Overflow/bit
// intrinsics are parameterized by width and are not present until requested via
// IntrinsicOverflow/IntrinsicBitop/IntrinsicMemset, which synthesize and cache the exact-width
// variant on first use.
func (c *Catalog) Lookup(symbol string) (Sig, bool) {
	s, ok := c.byName[symbol]
	return s, ok
}

// insert registers a synthesized (width-specific) signature, returning it unchanged — this is
// how the per-width LLVM intrinsic declarations below get added to the catalog the first time
// C8 asks for one, matching spec.md §6's "inserted on demand".
func (c *Catalog) insert(s Sig) Sig {
	if existing, ok := c.byName[s.Symbol]; ok {
		return existing
	}
	c.byName[s.Symbol] = s
	return s
}

// Declared returns every signature currently in the catalog, for C9 to emit `declare` lines for
// only the symbols actually referenced by the module being assembled.
func (c *Catalog) Declared() []Sig {
	out := make([]Sig, 0, len(c.byName))
	for _, s := range c.byName {
		out = append(out, s)
	}
	return out
}

// OverflowKind selects which of add/sub/mul with.overflow to synthesize.
type OverflowKind uint8

const (
	OverflowAdd OverflowKind = iota
	OverflowSub
	OverflowMul
)

func (k OverflowKind) llvmName() string {
	switch k {
	case OverflowAdd:
		return "add"
	case OverflowSub:
		return "sub"
	default:
		return "mul"
	}
}

// IntrinsicOverflow returns (and registers if absent) the signature for
// `llvm.{s,u}{add,sub,mul}.with.overflow.iN`, matching spec.md §8 property 7: every
// (kind, signed, width) combination maps to exactly one external.
func (c *Catalog) IntrinsicOverflow(kind OverflowKind, signed bool, width int) Sig {
	prefix := "u"
	if signed {
		prefix = "s"
	}
	it := fmt.Sprintf("i%d", width)
	name := fmt.Sprintf("llvm.%s%s.with.overflow.%s", prefix, kind.llvmName(), it)
	return c.insert(Sig{Symbol: name, Ret: fmt.Sprintf("{%s, i1}", it), Params: []string{it, it}})
}

// BitopKind selects which bit-manipulation intrinsic family to synthesize.
type BitopKind uint8

const (
	BitopCtlz BitopKind = iota
	BitopCttz
	BitopCtpop
	BitopBswap
)

func (k BitopKind) llvmName() string {
	switch k {
	case BitopCtlz:
		return "ctlz"
	case BitopCttz:
		return "cttz"
	case BitopCtpop:
		return "ctpop"
	default:
		return "bswap"
	}
}

// IntrinsicBitop returns (and registers if absent) the signature for
// `llvm.{ctlz,cttz,ctpop,bswap}.iN`. ctlz/cttz additionally take the `is_zero_undef` i1 flag;
// ctpop/bswap take only the value.
func (c *Catalog) IntrinsicBitop(kind BitopKind, width int) Sig {
	it := fmt.Sprintf("i%d", width)
	name := fmt.Sprintf("llvm.%s.%s", kind.llvmName(), it)
	params := []string{it}
	if kind == BitopCtlz || kind == BitopCttz {
		params = append(params, "i1")
	}
	return c.insert(Sig{Symbol: name, Ret: it, Params: params})
}

// IntrinsicMemset returns the fixed `llvm.memset.p0.i64` signature used by ZeroInit lowering.
func (c *Catalog) IntrinsicMemset() Sig {
	return c.insert(Sig{
		Symbol: "llvm.memset.p0.i64",
		Ret:    "void",
		Params: []string{"ptr", "i8", "i64", "i1"},
	})
}

// builtinSignatures lists the fixed-arity chic_rt_* symbols spec.md §6 names, including the
// interpolation appender family (one per source type) taken from stringAppendSignatures below.
// Per-width intrinsics are synthesized lazily by IntrinsicOverflow/IntrinsicBitop.
func builtinSignatures() []Sig {
	sigs := []Sig{
		{Symbol: "chic_rt_panic", Ret: "void", Params: []string{"i32"}},
		{Symbol: "chic_rt_drop_missing", Ret: "void", Params: []string{"ptr"}},
		{Symbol: "chic_rt_zero_init", Ret: "void", Params: []string{"ptr", "i64"}},
		{Symbol: "chic_rt_string_clone", Ret: "void", Params: []string{"ptr", "ptr"}},
		{Symbol: "chic_rt_string_clone_slice", Ret: "void", Params: []string{"ptr", "{ptr, i64}"}},
		{Symbol: "chic_rt_string_from_slice", Ret: "{ptr, i64, i64}", Params: []string{"{ptr, i64}"}},
		{Symbol: "chic_rt_string_as_slice", Ret: "{ptr, i64}", Params: []string{"ptr"}},
		{Symbol: "chic_rt_string_drop", Ret: "void", Params: []string{"ptr"}},
		{Symbol: "chic_rt_string_push_slice", Ret: "void", Params: []string{"ptr", "{ptr, i64}"}},
		{Symbol: "chic_rt_vec_with_capacity", Ret: "{ptr, i64, i64, i64, i64, ptr}",
			Params: []string{"i64", "i64", "i64", "ptr"}},
		{Symbol: "chic_rt_vec_clone", Ret: "void", Params: []string{"ptr", "ptr"}},
		{Symbol: "chic_rt_vec_drop", Ret: "void", Params: []string{"ptr"}},
		{Symbol: "chic_rt_rc_clone", Ret: "void", Params: []string{"ptr", "ptr"}},
		{Symbol: "chic_rt_rc_drop", Ret: "void", Params: []string{"ptr"}},
		{Symbol: "chic_rt_arc_clone", Ret: "void", Params: []string{"ptr", "ptr"}},
		{Symbol: "chic_rt_arc_drop", Ret: "void", Params: []string{"ptr"}},
		{Symbol: "chic_rt_span_copy_to", Ret: "void", Params: []string{"ptr", "ptr"}},
		{Symbol: "chic_rt_object_new", Ret: "ptr", Params: []string{"i64"}},
		{Symbol: "chic_rt_trace_enter", Ret: "void",
			Params: []string{"i64", "ptr", "i64", "i64", "i64", "i64"}},
		{Symbol: "chic_rt_trace_exit", Ret: "void", Params: []string{"i64"}},
		{Symbol: "chic_rt.mmio_read", Ret: "i64", Params: []string{"i64", "i32", "i32"}},
		{Symbol: "chic_rt.mmio_write", Ret: "void", Params: []string{"i64", "i64", "i32", "i32"}},
		{Symbol: "chic_rt_startup_init", Ret: "void", Params: nil},
		{Symbol: "chic_rt_startup_shutdown", Ret: "void", Params: nil},
	}
	sigs = append(sigs, stringAppendSignatures()...)
	return sigs
}

// stringAppendSignatures enumerates the chic_rt_string_append_{bool,char,signed,unsigned,
// f16,f32,f64,f128} interpolation appenders (spec.md §6/§4.6.7). Every appender takes the value
// plus the shared (alignment, alignment-present flag, format-spec slice) trailing metadata triple;
// signed/unsigned additionally take the source width ahead of that triple, matching the S4 seed
// scenario's `chic_rt_string_append_signed(ptr, i128, i32 width, i32 align, i32 align_flag,
// {ptr,i64} format)`. f16/f128 take the bitcast-to-same-width-integer forms (i16/i128) spec.md
// §4.6.7 mandates rather than LLVM's native half/fp128, since the runtime ABI never round-trips
// raw 16- or 128-bit float bit patterns through a call boundary.
func stringAppendSignatures() []Sig {
	meta := []string{"i32", "i32", "{ptr, i64}"} // alignment, alignment-present flag, format spec
	withMeta := func(value string) []string {
		return append([]string{"ptr", value}, meta...)
	}
	return []Sig{
		{Symbol: "chic_rt_string_append_bool", Ret: "void", Params: withMeta("i1")},
		{Symbol: "chic_rt_string_append_char", Ret: "void", Params: withMeta("i32")},
		{Symbol: "chic_rt_string_append_signed", Ret: "void", Params: append([]string{"ptr", "i128", "i32"}, meta...)},
		{Symbol: "chic_rt_string_append_unsigned", Ret: "void", Params: append([]string{"ptr", "i128", "i32"}, meta...)},
		{Symbol: "chic_rt_string_append_f16", Ret: "void", Params: withMeta("i16")},
		{Symbol: "chic_rt_string_append_f32", Ret: "void", Params: withMeta("float")},
		{Symbol: "chic_rt_string_append_f64", Ret: "void", Params: withMeta("double")},
		{Symbol: "chic_rt_string_append_f128", Ret: "void", Params: withMeta("i128")},
	}
}

// PanicCode names the distinct bounds-check panic codes spec.md §8 property 8 requires.
type PanicCode int32

const (
	PanicSpanBounds   PanicCode = 8195
	PanicStringBounds PanicCode = 8197
	PanicStrBounds    PanicCode = 8198
)
