package mir

import (
	"fmt"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// LocalId identifies a LocalDecl within a MirBody. LocalId(0) is reserved for the return local
// of non-void functions (spec.md §4.4.1).
type LocalId uint32

// LocalKind classifies what a LocalDecl represents.
type LocalKind uint8

// ParamMode is the calling convention of a parameter local.
type ParamMode uint8

// Aliasing carries the restrict/noalias contract of a parameter or pointer-typed local, reused
// directly as a PointerQualifiers value so the signature builder and the alias-scope pass share
// one representation.
type Aliasing = PointerQualifiers

// LocalDecl is one declared local: a name (if any), its Ty, mutability, LocalKind, parameter
// mode (for Arg locals) and aliasing contract.
type LocalDecl struct {
	Name      string
	Ty        Ty
	Mutable   bool
	Kind      LocalKind
	ParamMode ParamMode // meaningful only when Kind == Arg.
	Aliasing  Aliasing
}

// ProjectionElemKind tags a ProjectionElem's variant.
type ProjectionElemKind uint8

// ProjectionElem is one step in a Place's projection chain.
type ProjectionElem struct {
	Kind ProjectionElemKind

	FieldIndex uint32  // Field
	FieldName  string  // FieldNamed
	IndexLocal LocalId // Index

	Variant string // Downcast

	From, To uint64 // Subslice

	ConstOffset uint64 // ConstIndex
	MinLength   uint64 // ConstIndex
	FromEnd     bool   // ConstIndex
}

// Place is a location in memory: a base local plus a chain of projections.
type Place struct {
	Local      LocalId
	Projection []ProjectionElem
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	LocalKindReturn LocalKind = iota
	LocalKindArg
	LocalKindLocal
	LocalKindTemp
	// LocalKindAsyncContext is a dedicated local kind for a closure/async state machine's
	// context pointer. spec.md §9 flags the teacher lineage's name-sniffed "__async_ctx" local
	// as incidental coupling to avoid; SPEC_FULL.md §13 resolves that open question by adding
	// this tag instead of matching on a reserved name.
	LocalKindAsyncContext
)

const (
	ParamModeValue ParamMode = iota
	ParamModeRef
	ParamModeOut
	ParamModeIn
)

const (
	ProjDeref ProjectionElemKind = iota
	ProjField
	ProjFieldNamed
	ProjIndex
	ProjDowncast
	ProjSubslice
	ProjConstIndex
)

// ---------------------
// ----- functions -----
// ---------------------

// Deref appends a Deref projection.
func (p Place) Deref() Place {
	return p.with(ProjectionElem{Kind: ProjDeref})
}

// Field appends a Field(index) projection.
func (p Place) Field(index uint32) Place {
	return p.with(ProjectionElem{Kind: ProjField, FieldIndex: index})
}

// FieldNamed appends a FieldNamed(name) projection.
func (p Place) FieldNamed(name string) Place {
	return p.with(ProjectionElem{Kind: ProjFieldNamed, FieldName: name})
}

// Index appends an Index(local) projection.
func (p Place) Index(local LocalId) Place {
	return p.with(ProjectionElem{Kind: ProjIndex, IndexLocal: local})
}

// Downcast appends a Downcast{variant} projection.
func (p Place) Downcast(variant string) Place {
	return p.with(ProjectionElem{Kind: ProjDowncast, Variant: variant})
}

// Subslice appends a Subslice{from,to} projection.
func (p Place) Subslice(from, to uint64) Place {
	return p.with(ProjectionElem{Kind: ProjSubslice, From: from, To: to})
}

// ConstIndex appends a ConstIndex{offset,min_length,from_end} projection.
func (p Place) ConstIndex(offset, minLength uint64, fromEnd bool) Place {
	return p.with(ProjectionElem{Kind: ProjConstIndex, ConstOffset: offset, MinLength: minLength, FromEnd: fromEnd})
}

func (p Place) with(e ProjectionElem) Place {
	proj := make([]ProjectionElem, len(p.Projection)+1)
	copy(proj, p.Projection)
	proj[len(p.Projection)] = e
	return Place{Local: p.Local, Projection: proj}
}

// String renders the Place in a source-adjacent notation used by diagnostics and tests, e.g.
// "l3.field(1)[l4]".
func (p Place) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "l%d", p.Local)
	for _, e := range p.Projection {
		switch e.Kind {
		case ProjDeref:
			sb.WriteString(".*")
		case ProjField:
			fmt.Fprintf(&sb, ".field(%d)", e.FieldIndex)
		case ProjFieldNamed:
			fmt.Fprintf(&sb, ".%s", e.FieldName)
		case ProjIndex:
			fmt.Fprintf(&sb, "[l%d]", e.IndexLocal)
		case ProjDowncast:
			fmt.Fprintf(&sb, " as %s", e.Variant)
		case ProjSubslice:
			fmt.Fprintf(&sb, "[%d..%d]", e.From, e.To)
		case ProjConstIndex:
			fmt.Fprintf(&sb, ".const_index(%d)", e.ConstOffset)
		}
	}
	return sb.String()
}
