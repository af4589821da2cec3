// Package layout implements the type layout table (spec.md §4.2, component C2): struct/class/
// enum/union/span/vec/tuple/fn/array layouts, queried by both the MIR body builder and the LLVM
// emitter. Grounded on the teacher's src/ir/symtab.go (a name-keyed table consulted by both the
// front end and the backend) generalized from a flat symbol table to the richer per-kind layout
// records spec.md §3 requires.
package layout

import (
	"sort"

	"github.com/pkg/errors"

	"chicc/internal/mir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Repr tags a layout's requested representation (packing/ABI intent).
type Repr uint8

// Field is one field of a Struct/Class/Union layout.
type Field struct {
	Name        string
	Ty          mir.Ty
	Index       uint32
	Offset      uint64
	DisplayName string
	Required    bool
	Nullable    bool
	ReadOnly    bool
}

// ClassInfo carries class-only layout metadata.
type ClassInfo struct {
	Bases []string // canonical names of base classes, most-derived last.
}

// AutoTraits records the fixed-point-resolved auto-trait state of a layout (spec.md §4.2).
type AutoTraits struct {
	Copy, Send, Sync, Eq, Hash, Default, Drop TriState
}

// TriState is Unknown until FinalizeAutoTraits resolves it to Yes or No.
type TriState uint8

// Kind tags which shape a TypeLayout holds.
type Kind uint8

// EnumVariant is one variant of an Enum layout.
type EnumVariant struct {
	Name          string
	Index         uint32
	Discriminant  int64
	Fields        []Field
}

// UnderlyingInfo describes an Enum's backing integer representation.
type UnderlyingInfo struct {
	Bits   uint32
	Signed bool
}

// TypeLayout is the per-named-type layout record (spec.md §3).
type TypeLayout struct {
	Kind Kind
	Name string // canonical name; the table key.

	// Struct / Class / Union
	Fields      []Field
	Positional  bool
	ListView    bool
	Size        *uint64
	Align       *uint32
	Packing     *uint32
	Repr        Repr
	Dispose     string // symbol name, empty if none.
	AutoTraits  AutoTraits
	ClassInfo   *ClassInfo

	// Enum
	UnderlyingTy   mir.Ty
	UnderlyingInfo UnderlyingInfo
	Variants       []EnumVariant
	IsFlags        bool
}

// Table is the name-keyed layout table.
type Table struct {
	byName map[string]*TypeLayout
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	KindStruct Kind = iota
	KindClass
	KindUnion
	KindEnum
)

const (
	ReprDefault Repr = iota
	ReprC
	ReprPacked
	ReprTransparent
)

const (
	Unknown TriState = iota
	Yes
	No
)

// ---------------------
// ----- functions -----
// ---------------------

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{byName: map[string]*TypeLayout{}}
}

// Register adds or replaces the layout under its own Name.
func (t *Table) Register(l *TypeLayout) {
	t.byName[resolveSelf(l.Name)] = l
}

// Lookup returns the layout registered for a Ty's canonical name, resolving `Self` and
// nullable-suffix aliasing first (spec.md §4.2: "Lookup with name aliasing").
func (t *Table) Lookup(ty mir.Ty) (*TypeLayout, bool) {
	return t.lookupName(ty.CanonicalName())
}

// All returns every registered layout, sorted by name, for callers that need to walk the whole
// table deterministically (e.g. the module emitter synthesizing drop glue).
func (t *Table) All() []*TypeLayout {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*TypeLayout, 0, len(names))
	for _, name := range names {
		out = append(out, t.byName[name])
	}
	return out
}

func (t *Table) lookupName(name string) (*TypeLayout, bool) {
	name = resolveSelf(name)
	l, ok := t.byName[name]
	if !ok && len(name) > 1 && name[len(name)-1] == '?' {
		l, ok = t.byName[name[:len(name)-1]]
	}
	return l, ok
}

// resolveSelf is the name-aliasing hook for `Self` within an impl body. A full implementation
// threads the current impl owner through the builder's scope stack; the layout table only needs
// the seam here so lookups never hard fail on an unresolved `Self`.
var selfOwner string

// SetSelfOwner records the canonical name `Self` should resolve to for the duration of lowering
// the current impl block.
func SetSelfOwner(name string) { selfOwner = name }

func resolveSelf(name string) string {
	if name == "Self" && selfOwner != "" {
		return selfOwner
	}
	return name
}

// FieldOffsetsSound checks one layout's fields: they are index-ordered, every field's offset lies
// within Size, and Size is align-padded. Field sizes are not consulted, so overlapping fields and
// a field whose end extends past Size are not detected.
func FieldOffsetsSound(l *TypeLayout) error {
	for i, f := range l.Fields {
		if f.Index != uint32(i) {
			return errors.Errorf("%s: field %q has index %d, want %d", l.Name, f.Name, f.Index, i)
		}
	}
	sorted := append([]Field(nil), l.Fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	var maxEnd uint64
	for i, f := range sorted {
		if i > 0 && f.Offset < sorted[i-1].Offset {
			return errors.Errorf("%s: field offsets not monotonically non-decreasing", l.Name)
		}
		maxEnd = f.Offset
		if l.Size != nil && maxEnd > *l.Size {
			return errors.Errorf("%s: field %q offset %d exceeds size %d", l.Name, f.Name, f.Offset, *l.Size)
		}
	}
	if l.Size != nil && l.Align != nil && *l.Align != 0 && *l.Size%uint64(*l.Align) != 0 {
		return errors.Errorf("%s: size %d not a multiple of align %d", l.Name, *l.Size, *l.Align)
	}
	return nil
}

// RequiresDrop reports whether a layout, or any nested field layout, requires a drop (spec.md
// §4.2 / §3): it has a dispose hook, a field that requires drop, or is one of the heap-managed
// runtime wrappers handled structurally rather than via the table (String/Vec/Span-owned/Rc/Arc,
// handled by TyRequiresDrop in synth.go, not here).
func (l *TypeLayout) RequiresDrop(t *Table) bool {
	if l.Dispose != "" {
		return true
	}
	if l.AutoTraits.Drop == Yes {
		return true
	}
	for _, f := range l.Fields {
		if TyRequiresDrop(t, f.Ty) {
			return true
		}
	}
	for _, v := range l.Variants {
		for _, f := range v.Fields {
			if TyRequiresDrop(t, f.Ty) {
				return true
			}
		}
	}
	return false
}
