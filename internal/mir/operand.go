package mir

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ConstKind tags the representation of a ConstOperand's value.
type ConstKind uint8

// ConstOperand is a compile-time constant value, typed by Ty.
type ConstOperand struct {
	Ty   Ty
	Kind ConstKind

	Int    int64
	Uint   uint64
	Float  float64
	Bool   bool
	Str    string // string/str literal payload, or symbol name for KConstSymbol.
	IsNull bool   // true for a null/none literal of a Pointer/Nullable Ty.
}

// BorrowKind tags whether a BorrowOperand is shared or unique.
type BorrowKind uint8

// BorrowOperand takes the address of a Place, either as a shared (`in`) or unique (`ref`/`out`)
// borrow (spec.md §4.4.3 call-argument lowering).
type BorrowOperand struct {
	Place Place
	Kind  BorrowKind
}

// MmioOperand names a memory-mapped I/O address/width/flags tuple, consumed by
// Rvalue/Statement MMIO forms (spec.md §4.6.3 MmioStore, §6 chic_rt.mmio_*).
type MmioOperand struct {
	Address uint64
	Width   uint8 // bits: 8, 16, 32 or 64.
	Flags   uint32
}

// PendingKind tags why a PendingOperand has not yet been resolved.
type PendingKind uint8

// PendingOperand carries residual, not-yet-resolved information — most commonly an unresolved
// function group awaiting overload selection. It must never reach the emitter: spec.md §7
// "Pending-statement encountered at emit time — always fatal; indicates a builder bug."
type PendingOperand struct {
	Kind        PendingKind
	Description string
}

// OperandKind tags the variant held by an Operand.
type OperandKind uint8

// Operand is one rvalue building block: a constant, a copy/move of a place, a borrow, an MMIO
// handle, or a still-unresolved symbol.
type Operand struct {
	Kind OperandKind

	Const   ConstOperand
	Place   Place
	Borrow  BorrowOperand
	Mmio    MmioOperand
	Pending PendingOperand
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	ConstInt ConstKind = iota
	ConstUint
	ConstFloat
	ConstBool
	ConstStr
	ConstSymbol
	ConstNull
	ConstUnit
)

const (
	BorrowShared BorrowKind = iota
	BorrowUnique
)

const (
	PendingFunctionGroup PendingKind = iota
	PendingOverload
	PendingOther
)

const (
	OperandConst OperandKind = iota
	OperandCopy
	OperandMove
	OperandBorrow
	OperandMmio
	OperandPending
)

// ---------------------
// ----- functions -----
// ---------------------

// ConstI builds a signed integer constant Operand.
func ConstI(ty Ty, v int64) Operand {
	return Operand{Kind: OperandConst, Const: ConstOperand{Ty: ty, Kind: ConstInt, Int: v}}
}

// ConstU builds an unsigned integer constant Operand.
func ConstU(ty Ty, v uint64) Operand {
	return Operand{Kind: OperandConst, Const: ConstOperand{Ty: ty, Kind: ConstUint, Uint: v}}
}

// ConstF builds a floating-point constant Operand.
func ConstF(ty Ty, v float64) Operand {
	return Operand{Kind: OperandConst, Const: ConstOperand{Ty: ty, Kind: ConstFloat, Float: v}}
}

// ConstB builds a boolean constant Operand.
func ConstB(v bool) Operand {
	return Operand{Kind: OperandConst, Const: ConstOperand{Ty: Named("bool"), Kind: ConstBool, Bool: v}}
}

// ConstStrLit builds an interned string/str literal constant Operand.
func ConstStrLit(ty Ty, s string) Operand {
	return Operand{Kind: OperandConst, Const: ConstOperand{Ty: ty, Kind: ConstStr, Str: s}}
}

// ConstSym builds a constant Operand naming a static symbol (a function or global address).
func ConstSym(ty Ty, symbol string) Operand {
	return Operand{Kind: OperandConst, Const: ConstOperand{Ty: ty, Kind: ConstSymbol, Str: symbol}}
}

// Copy builds a Copy(place) Operand.
func Copy(p Place) Operand { return Operand{Kind: OperandCopy, Place: p} }

// Move builds a Move(place) Operand.
func Move(p Place) Operand { return Operand{Kind: OperandMove, Place: p} }

// Borrow builds a Borrow Operand over a place with the given BorrowKind.
func Borrow(p Place, kind BorrowKind) Operand {
	return Operand{Kind: OperandBorrow, Borrow: BorrowOperand{Place: p, Kind: kind}}
}

// Mmio builds an Mmio Operand.
func Mmio(m MmioOperand) Operand { return Operand{Kind: OperandMmio, Mmio: m} }

// Pending builds a Pending Operand. Constructing one is always legal; reaching the emitter with
// one is not (spec.md §7).
func Pending(kind PendingKind, description string) Operand {
	return Operand{Kind: OperandPending, Pending: PendingOperand{Kind: kind, Description: description}}
}

// IsPending reports whether the Operand still carries residual, unresolved information.
func (o Operand) IsPending() bool { return o.Kind == OperandPending }
