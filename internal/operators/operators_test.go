package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chicc/internal/mir"
)

func TestResolveBinaryFindsExactMatch(t *testing.T) {
	r := NewRegistry()
	i32 := mir.Named("i32")
	r.Register(Operator{Owner: "i32", Kind: KindBinary, BinOp: mir.BinAdd, Params: []mir.Ty{i32, i32}, Result: i32, Function: "i32_add"})

	m := r.ResolveBinary(i32, i32, mir.BinAdd)
	assert.Equal(t, MatchFound, m.Kind)
	assert.Equal(t, "i32_add", m.Found.Function)
}

func TestResolveBinaryTriesSwappedOperandsBeforeGivingUp(t *testing.T) {
	r := NewRegistry()
	vec := mir.Named("Vec")
	i32 := mir.Named("i32")
	r.Register(Operator{Owner: "Vec", Kind: KindBinary, BinOp: mir.BinMul, Params: []mir.Ty{i32, vec}, Result: vec, Function: "scale"})

	m := r.ResolveBinary(vec, i32, mir.BinMul)
	assert.Equal(t, MatchFound, m.Kind)
	assert.Equal(t, "scale", m.Found.Function)
}

func TestResolveBinaryNoneWhenNoCandidate(t *testing.T) {
	r := NewRegistry()
	m := r.ResolveBinary(mir.Named("i32"), mir.Named("i32"), mir.BinAdd)
	assert.Equal(t, MatchNone, m.Kind)
}

func TestResolveBinaryAmbiguousWithTwoCandidates(t *testing.T) {
	r := NewRegistry()
	i32 := mir.Named("i32")
	r.Register(Operator{Owner: "i32", Kind: KindBinary, BinOp: mir.BinAdd, Params: []mir.Ty{i32, i32}, Result: i32, Function: "one"})
	r.Register(Operator{Owner: "i32", Kind: KindBinary, BinOp: mir.BinAdd, Params: []mir.Ty{i32, i32}, Result: i32, Function: "two"})

	m := r.ResolveBinary(i32, i32, mir.BinAdd)
	assert.Equal(t, MatchAmbiguous, m.Kind)
	assert.Len(t, m.Candidates, 2)
}

func TestResolveConversionPrefersImplicitOverExplicit(t *testing.T) {
	r := NewRegistry()
	i32 := mir.Named("i32")
	i64 := mir.Named("i64")
	r.Register(Operator{Kind: KindConversion, Direction: Implicit, Params: []mir.Ty{i32}, Result: i64, Function: "widen"})
	r.Register(Operator{Kind: KindConversion, Direction: Explicit, Params: []mir.Ty{i32}, Result: i64, Function: "bitcast"})

	res := r.ResolveConversion(i32, i64, true)
	assert.Equal(t, MatchFound, res.Kind)
	assert.Equal(t, "widen", res.Found.Function)
}

func TestResolveConversionRequiresAllowExplicitFlag(t *testing.T) {
	r := NewRegistry()
	i32 := mir.Named("i32")
	i64 := mir.Named("i64")
	r.Register(Operator{Kind: KindConversion, Direction: Explicit, Params: []mir.Ty{i32}, Result: i64, Function: "bitcast"})

	withoutFlag := r.ResolveConversion(i32, i64, false)
	assert.Equal(t, MatchNone, withoutFlag.Kind)
	assert.Len(t, withoutFlag.ExplicitCandidates, 1)

	withFlag := r.ResolveConversion(i32, i64, true)
	assert.Equal(t, MatchFound, withFlag.Kind)
	assert.Equal(t, "bitcast", withFlag.Found.Function)
}

func TestResolveUnaryFindsRegisteredOperator(t *testing.T) {
	r := NewRegistry()
	i32 := mir.Named("i32")
	r.Register(Operator{Owner: "i32", Kind: KindUnary, UnOp: mir.UnNeg, Params: []mir.Ty{i32}, Result: i32, Function: "i32_neg"})

	m := r.ResolveUnary(i32, mir.UnNeg)
	assert.Equal(t, MatchFound, m.Kind)
	assert.Equal(t, "i32_neg", m.Found.Function)
}
