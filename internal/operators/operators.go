// Package operators implements the operator registry (spec.md §4.3, component C4): registered
// unary/binary/conversion overloads, resolved by operand types with implicit-preferred-over-
// explicit policy. Ambiguity is never guessed away — every resolution returns a tri-state the
// caller must branch on, matching the Match tri-state in internal/symtab.
package operators

import "chicc/internal/mir"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind tags whether a registered Operator is unary, binary, or a conversion.
type Kind uint8

// ConversionDirection tags whether a conversion overload is implicit or requires an explicit
// cast at the call site.
type ConversionDirection uint8

// Operator is one registered unary/binary/conversion overload.
type Operator struct {
	Owner     string // canonical name of the type that declared this operator.
	Kind      Kind
	UnOp      mir.UnOp
	BinOp     mir.BinOp
	Direction ConversionDirection // meaningful only when Kind == Conversion.
	Params    []mir.Ty
	Result    mir.Ty
	Function  string // symbol to call.
}

// Registry holds every registered Operator, indexed for binary/conversion lookup by the
// canonical names of both operand types.
type Registry struct {
	unary      map[unaryKey][]Operator
	binary     map[binaryKey][]Operator
	conversion map[conversionKey][]Operator
}

type unaryKey struct {
	owner string
	op    mir.UnOp
}

type binaryKey struct {
	lhs, rhs string
	op       mir.BinOp
}

type conversionKey struct {
	from, to string
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	KindUnary Kind = iota
	KindBinary
	KindConversion
)

const (
	Implicit ConversionDirection = iota
	Explicit
)

// ---------------------
// ----- functions -----
// ---------------------

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		unary:      map[unaryKey][]Operator{},
		binary:     map[binaryKey][]Operator{},
		conversion: map[conversionKey][]Operator{},
	}
}

// Register adds op to the registry under the appropriate index for its Kind.
func (r *Registry) Register(op Operator) {
	switch op.Kind {
	case KindUnary:
		k := unaryKey{owner: op.Owner, op: op.UnOp}
		r.unary[k] = append(r.unary[k], op)
	case KindBinary:
		if len(op.Params) != 2 {
			return
		}
		k := binaryKey{lhs: op.Params[0].CanonicalName(), rhs: op.Params[1].CanonicalName(), op: op.BinOp}
		r.binary[k] = append(r.binary[k], op)
	case KindConversion:
		if len(op.Params) != 1 {
			return
		}
		k := conversionKey{from: op.Params[0].CanonicalName(), to: op.Result.CanonicalName()}
		r.conversion[k] = append(r.conversion[k], op)
	}
}

// MatchKind tags the tri-state outcome of a binary-operator resolution.
type MatchKind uint8

const (
	MatchNone MatchKind = iota
	MatchFound
	MatchAmbiguous
)

// BinaryMatch is the tri-state result of ResolveBinary.
type BinaryMatch struct {
	Kind       MatchKind
	Found      Operator
	Candidates []Operator
}

// ResolveBinary matches by canonical operand type names, considering both operand owners
// (spec.md §4.3): it looks up candidates keyed on (lhs, rhs, op) — and, since either operand's
// declaring type may have registered the overload, also tries (rhs, lhs, op) for commutative
// discovery of symmetric overloads, without assuming commutative semantics (results are not
// swapped, only the search is two-sided).
func (r *Registry) ResolveBinary(lhs, rhs mir.Ty, op mir.BinOp) BinaryMatch {
	k := binaryKey{lhs: lhs.CanonicalName(), rhs: rhs.CanonicalName(), op: op}
	cands := r.binary[k]
	if len(cands) == 0 {
		k2 := binaryKey{lhs: rhs.CanonicalName(), rhs: lhs.CanonicalName(), op: op}
		cands = r.binary[k2]
	}
	switch len(cands) {
	case 0:
		return BinaryMatch{Kind: MatchNone}
	case 1:
		return BinaryMatch{Kind: MatchFound, Found: cands[0]}
	default:
		return BinaryMatch{Kind: MatchAmbiguous, Candidates: cands}
	}
}

// ConversionResolution is the tri-state result of ResolveConversion. A None carries
// ExplicitCandidates so the builder can phrase "this requires a cast" (spec.md §9).
type ConversionResolution struct {
	Kind               MatchKind
	Found              Operator
	Candidates         []Operator
	ExplicitCandidates []Operator
}

// ResolveConversion resolves a from→to conversion, preferring implicit overloads over explicit
// ones. When only explicit candidates exist, it selects them only when allowExplicit is true
// (Found for one, Ambiguous for several); otherwise it returns None{ExplicitCandidates} so the
// caller can report that a cast is required.
func (r *Registry) ResolveConversion(from, to mir.Ty, allowExplicit bool) ConversionResolution {
	k := conversionKey{from: from.CanonicalName(), to: to.CanonicalName()}
	cands := r.conversion[k]
	var implicit, explicit []Operator
	for _, c := range cands {
		if c.Direction == Implicit {
			implicit = append(implicit, c)
		} else {
			explicit = append(explicit, c)
		}
	}
	switch len(implicit) {
	case 1:
		return ConversionResolution{Kind: MatchFound, Found: implicit[0]}
	case 0:
		// fall through to explicit handling below.
	default:
		return ConversionResolution{Kind: MatchAmbiguous, Candidates: implicit}
	}
	if len(explicit) == 0 {
		return ConversionResolution{Kind: MatchNone}
	}
	if allowExplicit && len(explicit) == 1 {
		return ConversionResolution{Kind: MatchFound, Found: explicit[0]}
	}
	if allowExplicit && len(explicit) > 1 {
		return ConversionResolution{Kind: MatchAmbiguous, Candidates: explicit}
	}
	return ConversionResolution{Kind: MatchNone, ExplicitCandidates: explicit}
}

// ResolveUnary matches a unary operator by the owner's canonical name.
func (r *Registry) ResolveUnary(owner mir.Ty, op mir.UnOp) BinaryMatch {
	cands := r.unary[unaryKey{owner: owner.CanonicalName(), op: op}]
	switch len(cands) {
	case 0:
		return BinaryMatch{Kind: MatchNone}
	case 1:
		return BinaryMatch{Kind: MatchFound, Found: cands[0]}
	default:
		return BinaryMatch{Kind: MatchAmbiguous, Candidates: cands}
	}
}
