package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chicc/internal/mir"
)

func TestResolveOverloadExact(t *testing.T) {
	ix := NewIndex()
	ix.AddOverload("len", Overload{Symbol: "len_str", Params: []mir.Ty{mir.Str()}, Ret: mir.Named("usize")})
	ix.AddOverload("len", Overload{Symbol: "len_vec", Params: []mir.Ty{mir.Vec(mir.Named("i32"))}, Ret: mir.Named("usize")})

	m := ix.ResolveOverload("len", []mir.Ty{mir.Str()})
	assert.Equal(t, MatchFound, m.Kind)
	assert.Equal(t, "len_str", m.Found.Symbol)
}

func TestResolveOverloadAmbiguous(t *testing.T) {
	ix := NewIndex()
	ix.AddOverload("f", Overload{Symbol: "f1", Params: []mir.Ty{mir.Named("i32")}})
	ix.AddOverload("f", Overload{Symbol: "f2", Params: []mir.Ty{mir.Named("i32")}})

	m := ix.ResolveOverload("f", []mir.Ty{mir.Named("i32")})
	assert.Equal(t, MatchAmbiguous, m.Kind)
	assert.Len(t, m.Candidates, 2)
}

func TestResolveOverloadPrefersMoreSpecificGeneric(t *testing.T) {
	ix := NewIndex()
	ix.AddOverload("g", Overload{Symbol: "g_generic", Params: []mir.Ty{mir.Named("T")}, Generic: true, Specifity: 0})
	ix.AddOverload("g", Overload{Symbol: "g_specific", Params: []mir.Ty{mir.Named("T")}, Generic: true, Specifity: 5})

	m := ix.ResolveOverload("g", []mir.Ty{mir.Named("T")})
	assert.Equal(t, MatchFound, m.Kind)
	assert.Equal(t, "g_specific", m.Found.Symbol)
}

func TestResolveOverloadNone(t *testing.T) {
	ix := NewIndex()
	m := ix.ResolveOverload("missing", []mir.Ty{mir.Named("i32")})
	assert.Equal(t, MatchNone, m.Kind)
}
