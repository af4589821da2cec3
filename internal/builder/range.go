package builder

import "chicc/internal/mir"

// RangeKind tags which of the four range literal shapes spec.md §4.4.5 lists was written.
type RangeKind uint8

const (
	RangeFull     RangeKind = iota // a..b
	RangeInclusive                 // a..=b
	RangeTo                        // ..b
	RangeFrom                      // a..
)

// LowerRange implements `a..b` / `a..=b` / `..b` / `a..` (spec.md §4.4.5): a struct literal of
// the Range<T> runtime type, with absent bounds represented by the element type's zero/max
// sentinel the front end already resolved (this package only assembles the aggregate; choosing
// the sentinel value is a front-end concern since it depends on T).
func LowerRange(kind RangeKind, elem mir.Ty, lo, hi mir.Operand) mir.Rvalue {
	rangeTy := mir.Named("Range", mir.GenericArg{Ty: elem})
	inclusive := mir.ConstB(kind == RangeInclusive)
	return mir.Aggregate(mir.AggStruct, rangeTy, []mir.Operand{lo, hi, inclusive})
}
