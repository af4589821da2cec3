package layout

import (
	"fmt"

	"github.com/pkg/errors"

	"chicc/internal/mir"
)

// ----------------------------
// ----- constants -----
// ----------------------------

// pointerSize and pointerAlign assume the two LP64 targets this core supports (spec.md §4.1:
// both x86_64 and aarch64 are 64-bit).
const pointerSize = 8
const pointerAlign = 8

// ---------------------
// ----- functions -----
// ---------------------

// EnsureSpanLayout lazily synthesizes the layout of Span<T>/ReadOnlySpan<T> on first reference:
// { data: ValueMutPtr, len: usize, elem_size: usize, elem_align: usize }. If a layout is already
// registered for the canonical name, its shape is compared against the synthesized one and a
// mismatch is a fatal error — SPEC_FULL.md §13 resolves spec.md §9's open conflict-detection
// question this way, rather than silently preferring one side.
func (t *Table) EnsureSpanLayout(elem mir.Ty, readOnly bool) (*TypeLayout, error) {
	var name string
	if readOnly {
		name = mir.ReadOnlySpan(elem).CanonicalName()
	} else {
		name = mir.Span(elem).CanonicalName()
	}
	return t.ensureSynthesized(name, func() *TypeLayout {
		return &TypeLayout{
			Kind: KindStruct,
			Name: name,
			Fields: []Field{
				{Name: "data", Ty: mir.Pointer(elem, !readOnly, mir.PointerQualifiers{}), Index: 0, Offset: 0},
				{Name: "len", Ty: usize(), Index: 1, Offset: pointerSize},
				{Name: "elem_size", Ty: usize(), Index: 2, Offset: pointerSize * 2},
				{Name: "elem_align", Ty: usize(), Index: 3, Offset: pointerSize * 3},
			},
			Positional: false,
			Size:       u64p(pointerSize * 4),
			Align:      u32p(pointerAlign),
			Repr:       ReprC,
		}
	})
}

// EnsureStringLayout lazily synthesizes String's layout: a heap-owned byte-vector handle of three
// fields { ptr, len, cap } (the first three fields of Vec<u8>'s six) plus its own drop symbol.
func (t *Table) EnsureStringLayout() (*TypeLayout, error) {
	return t.ensureSynthesized(mir.String().CanonicalName(), func() *TypeLayout {
		return &TypeLayout{
			Kind:       KindStruct,
			Name:       mir.String().CanonicalName(),
			Fields:     vecLikeFields(mir.Named("u8")),
			Size:       u64p(pointerSize * 3),
			Align:      u32p(pointerAlign),
			Repr:       ReprC,
			Dispose:    "chic_rt_string_drop",
			AutoTraits: AutoTraits{Drop: Yes, Copy: No},
		}
	})
}

// EnsureVecLayout lazily synthesizes Vec<T>'s layout: { ptr, len, cap, elem_size, elem_align,
// drop_fn }.
func (t *Table) EnsureVecLayout(elem mir.Ty) (*TypeLayout, error) {
	name := mir.Vec(elem).CanonicalName()
	return t.ensureSynthesized(name, func() *TypeLayout {
		return &TypeLayout{
			Kind: KindStruct,
			Name: name,
			Fields: []Field{
				{Name: "ptr", Ty: mir.Pointer(elem, true, mir.PointerQualifiers{}), Index: 0, Offset: 0},
				{Name: "len", Ty: usize(), Index: 1, Offset: pointerSize},
				{Name: "cap", Ty: usize(), Index: 2, Offset: pointerSize * 2},
				{Name: "elem_size", Ty: usize(), Index: 3, Offset: pointerSize * 3},
				{Name: "elem_align", Ty: usize(), Index: 4, Offset: pointerSize * 4},
				{Name: "drop_fn", Ty: mir.Pointer(mir.Unit(), false, mir.PointerQualifiers{}), Index: 5, Offset: pointerSize * 5},
			},
			Size:       u64p(pointerSize * 6),
			Align:      u32p(pointerAlign),
			Repr:       ReprC,
			Dispose:    "chic_rt_vec_drop",
			AutoTraits: AutoTraits{Drop: Yes, Copy: No},
		}
	})
}

// EnsureFnLayout lazily synthesizes a delegate's six-field aggregate layout: { invoke_ptr,
// context_ptr, release_ptr, type_id, send, sync }.
func (t *Table) EnsureFnLayout(fn mir.Ty) (*TypeLayout, error) {
	name := fn.CanonicalName()
	ptr := mir.Pointer(mir.Unit(), false, mir.PointerQualifiers{})
	return t.ensureSynthesized(name, func() *TypeLayout {
		return &TypeLayout{
			Kind: KindStruct,
			Name: name,
			Fields: []Field{
				{Name: "invoke_ptr", Ty: ptr, Index: 0, Offset: 0},
				{Name: "context_ptr", Ty: ptr, Index: 1, Offset: pointerSize},
				{Name: "release_ptr", Ty: ptr, Index: 2, Offset: pointerSize * 2},
				{Name: "type_id", Ty: mir.Named("i64"), Index: 3, Offset: pointerSize * 3},
				{Name: "send", Ty: mir.Named("bool"), Index: 4, Offset: pointerSize*3 + 8},
				{Name: "sync", Ty: mir.Named("bool"), Index: 5, Offset: pointerSize*3 + 9},
			},
			Size:  u64p(pointerSize*3 + 16),
			Align: u32p(pointerAlign),
			Repr:  ReprC,
		}
	})
}

// EnsureTupleLayout lazily synthesizes a Tuple's positional-field layout, packing fields in
// order with each field naturally aligned (a simplified but sound C-compatible layout).
func (t *Table) EnsureTupleLayout(elems []mir.Ty) (*TypeLayout, error) {
	name := mir.Tuple(elems...).CanonicalName()
	return t.ensureSynthesized(name, func() *TypeLayout {
		fields := make([]Field, len(elems))
		var offset uint64
		var maxAlign uint32 = 1
		for i, e := range elems {
			sz, al := t.SizeAndAlignForTy(e)
			offset = alignUp(offset, uint64(al))
			fields[i] = Field{Name: fmt.Sprintf("_%d", i), Ty: e, Index: uint32(i), Offset: offset}
			offset += sz
			if al > maxAlign {
				maxAlign = al
			}
		}
		size := alignUp(offset, uint64(maxAlign))
		return &TypeLayout{
			Kind: KindStruct, Name: name, Fields: fields, Positional: true,
			Size: u64p(size), Align: u32p(maxAlign), Repr: ReprC,
		}
	})
}

// EnsureArrayLayout lazily synthesizes a fixed-length Array's layout: `length` contiguous
// elements of `element`'s size/align.
func (t *Table) EnsureArrayLayout(element mir.Ty, length uint64) (*TypeLayout, error) {
	ln := length
	name := mir.Array(element, 1, &ln).CanonicalName()
	return t.ensureSynthesized(name, func() *TypeLayout {
		elemSize, elemAlign := t.SizeAndAlignForTy(element)
		return &TypeLayout{
			Kind:   KindStruct,
			Name:   name,
			Fields: nil, // indexed, not named; the emitter computes offsets as index*elemSize.
			Size:   u64p(elemSize * length),
			Align:  u32p(elemAlign),
			Repr:   ReprC,
		}
	})
}

// ensureSynthesized returns the already-registered layout for name if present, after checking it
// against what would be synthesized (field names, offsets and types, and size must match, or it
// is a conflict error); otherwise it builds, registers and returns a fresh one.
func (t *Table) ensureSynthesized(name string, build func() *TypeLayout) (*TypeLayout, error) {
	if existing, ok := t.lookupName(name); ok {
		fresh := build()
		if !sameShape(existing, fresh) {
			return nil, errors.Errorf(
				"synthesized layout for %q conflicts with a previously registered layout", name)
		}
		return existing, nil
	}
	fresh := build()
	t.Register(fresh)
	return fresh, nil
}

func sameShape(a, b *TypeLayout) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || a.Fields[i].Offset != b.Fields[i].Offset ||
			!a.Fields[i].Ty.Equal(b.Fields[i].Ty) {
			return false
		}
	}
	if (a.Size == nil) != (b.Size == nil) || (a.Size != nil && *a.Size != *b.Size) {
		return false
	}
	return true
}

func vecLikeFields(elem mir.Ty) []Field {
	return []Field{
		{Name: "ptr", Ty: mir.Pointer(elem, true, mir.PointerQualifiers{}), Index: 0, Offset: 0},
		{Name: "len", Ty: usize(), Index: 1, Offset: pointerSize},
		{Name: "cap", Ty: usize(), Index: 2, Offset: pointerSize * 2},
	}
}

func usize() mir.Ty { return mir.Named("usize") }
func u64p(v uint64) *uint64 { return &v }
func u32p(v uint32) *uint32 { return &v }

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}

// SizeAndAlignForTy returns (size, align) for any Ty, composing tuple/array/span/etc. from
// field layouts (spec.md §4.2: size_and_align_for_ty).
func (t *Table) SizeAndAlignForTy(ty mir.Ty) (uint64, uint32) {
	switch ty.Kind {
	case mir.KUnit:
		return 0, 1
	case mir.KPointer, mir.KRef, mir.KRc, mir.KArc:
		return pointerSize, pointerAlign
	case mir.KNullable:
		sz, al := t.SizeAndAlignForTy(*ty.Elem)
		return sz + 1, al // simplified present-flag tag byte; padding folded into alignment.
	case mir.KFn:
		if l, err := t.EnsureFnLayout(ty); err == nil {
			return *l.Size, *l.Align
		}
	case mir.KVec:
		if l, err := t.EnsureVecLayout(*ty.Elem); err == nil {
			return *l.Size, *l.Align
		}
	case mir.KSpan:
		if l, err := t.EnsureSpanLayout(*ty.Elem, false); err == nil {
			return *l.Size, *l.Align
		}
	case mir.KReadOnlySpan:
		if l, err := t.EnsureSpanLayout(*ty.Elem, true); err == nil {
			return *l.Size, *l.Align
		}
	case mir.KString:
		if l, err := t.EnsureStringLayout(); err == nil {
			return *l.Size, *l.Align
		}
	case mir.KTuple:
		if l, err := t.EnsureTupleLayout(ty.Elems); err == nil {
			return *l.Size, *l.Align
		}
	case mir.KArray:
		if ty.Length != nil {
			if l, err := t.EnsureArrayLayout(*ty.Elem, *ty.Length); err == nil {
				return *l.Size, *l.Align
			}
		}
	case mir.KNamed:
		if l, ok := t.Lookup(ty); ok && l.Size != nil && l.Align != nil {
			return *l.Size, *l.Align
		}
		return intrinsicSizeAlign(ty.Name)
	case mir.KTraitObject:
		return pointerSize * 2, pointerAlign // {data, vtable}
	}
	return 0, 1
}

func intrinsicSizeAlign(name string) (uint64, uint32) {
	switch name {
	case "i8", "u8", "bool":
		return 1, 1
	case "i16", "u16", "f16":
		return 2, 2
	case "i32", "u32", "f32", "char":
		return 4, 4
	case "i64", "u64", "f64", "isize", "usize":
		return 8, 8
	case "i128", "u128", "f128":
		return 16, 16
	default:
		return 0, 1
	}
}

// TyRequiresDrop reports whether ty requires a drop: String/Vec/owned-Span/Rc/Arc always do; a
// Named type requires one when its finalized layout does; tuples/arrays require one when any
// element does (spec.md §3/§4.2).
func TyRequiresDrop(t *Table, ty mir.Ty) bool {
	switch ty.Kind {
	case mir.KString, mir.KVec, mir.KSpan, mir.KRc, mir.KArc:
		return true
	case mir.KTuple:
		for _, e := range ty.Elems {
			if TyRequiresDrop(t, e) {
				return true
			}
		}
		return false
	case mir.KArray:
		return TyRequiresDrop(t, *ty.Elem)
	case mir.KNamed:
		if l, ok := t.Lookup(ty); ok {
			return l.RequiresDrop(t)
		}
		return false
	default:
		return false
	}
}
