package builder

import "chicc/internal/mir"

// MatchArm is one arm of a decision tree built from an `is`-pattern test, a match expression, or
// a guard (spec.md §4.4.5): a literal discriminant value (reusing an interned constant) and the
// block to branch to when the scrutinee equals it.
type MatchArm struct {
	Value  int64
	Target mir.BlockId
}

// LowerDecisionTree builds the SwitchInt terminator a match/is-pattern/guard chain lowers to: one
// arm per literal discriminant, falling through to defaultBlock (the `else`/default arm, or a
// guard re-test block) when none match.
func (b *Builder) LowerDecisionTree(span string, scrutinee mir.Operand, arms []MatchArm, defaultBlock mir.BlockId) {
	switchArms := make([]mir.SwitchArm, len(arms))
	for i, a := range arms {
		switchArms[i] = mir.SwitchArm{Value: a.Value, Target: a.Target}
	}
	b.SetTerminator(span, mir.SwitchInt(scrutinee, switchArms, defaultBlock))
}

// LowerIsPattern implements a single `is`-pattern test (`x is SomeVariant`) as a one-arm decision
// tree: the scrutinee is the discriminant already projected out of the enum value, discriminant
// is the tested variant's value, matchBlock/elseBlock are the two continuations.
func (b *Builder) LowerIsPattern(span string, scrutinee mir.Operand, discriminant int64, matchBlock, elseBlock mir.BlockId) {
	b.LowerDecisionTree(span, scrutinee, []MatchArm{{Value: discriminant, Target: matchBlock}}, elseBlock)
}
