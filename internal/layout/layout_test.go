package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/mir"
)

func TestFieldOffsetsSound(t *testing.T) {
	l := &TypeLayout{
		Name: "Point",
		Fields: []Field{
			{Name: "x", Ty: mir.Named("i32"), Index: 0, Offset: 0},
			{Name: "y", Ty: mir.Named("i32"), Index: 1, Offset: 4},
		},
		Size:  u64p(8),
		Align: u32p(4),
	}
	assert.NoError(t, FieldOffsetsSound(l))
}

func TestFieldOffsetsUnsound(t *testing.T) {
	l := &TypeLayout{
		Name: "Bad",
		Fields: []Field{
			{Name: "x", Ty: mir.Named("i64"), Index: 0, Offset: 0},
			{Name: "y", Ty: mir.Named("i32"), Index: 1, Offset: 100},
		},
		Size:  u64p(8),
		Align: u32p(4),
	}
	assert.Error(t, FieldOffsetsSound(l))
}

func TestEnsureSpanLayoutShape(t *testing.T) {
	table := NewTable()
	l, err := table.EnsureSpanLayout(mir.Named("i32"), false)
	require.NoError(t, err)
	assert.Equal(t, "data", l.Fields[0].Name)
	assert.Equal(t, "elem_align", l.Fields[3].Name)
	assert.EqualValues(t, 32, *l.Size)
}

func TestEnsureSpanLayoutConflict(t *testing.T) {
	table := NewTable()
	name := mir.Span(mir.Named("i32")).CanonicalName()
	table.Register(&TypeLayout{Name: name, Fields: []Field{{Name: "oops", Index: 0}}, Size: u64p(1)})
	_, err := table.EnsureSpanLayout(mir.Named("i32"), false)
	assert.Error(t, err)
}

func TestFinalizeAutoTraitsCopy(t *testing.T) {
	table := NewTable()
	table.Register(&TypeLayout{
		Kind: KindStruct,
		Name: "Pair",
		Fields: []Field{
			{Name: "a", Ty: mir.Named("i32"), Index: 0, Offset: 0},
			{Name: "b", Ty: mir.Named("i32"), Index: 1, Offset: 4},
		},
		Size: u64p(8), Align: u32p(4),
	})
	table.FinalizeAutoTraits()
	l, _ := table.Lookup(mir.Named("Pair"))
	assert.Equal(t, Yes, l.AutoTraits.Copy)
	assert.Equal(t, No, l.AutoTraits.Drop)
}

func TestFinalizeAutoTraitsDropPropagates(t *testing.T) {
	table := NewTable()
	table.Register(&TypeLayout{
		Kind: KindStruct, Name: "Inner", Dispose: "inner_drop",
		Size: u64p(1), Align: u32p(1),
	})
	table.Register(&TypeLayout{
		Kind: KindStruct,
		Name: "Outer",
		Fields: []Field{
			{Name: "inner", Ty: mir.Named("Inner"), Index: 0, Offset: 0},
		},
		Size: u64p(1), Align: u32p(1),
	})
	table.FinalizeAutoTraits()
	outer, _ := table.Lookup(mir.Named("Outer"))
	assert.Equal(t, Yes, outer.AutoTraits.Drop)
	assert.Equal(t, No, outer.AutoTraits.Copy)
}

func TestTyRequiresDropStructural(t *testing.T) {
	table := NewTable()
	assert.True(t, TyRequiresDrop(table, mir.String()))
	assert.True(t, TyRequiresDrop(table, mir.Vec(mir.Named("i32"))))
	assert.False(t, TyRequiresDrop(table, mir.Named("i32")))
	assert.True(t, TyRequiresDrop(table, mir.Tuple(mir.Named("i32"), mir.String())))
}

func TestSizeAndAlignForTuple(t *testing.T) {
	table := NewTable()
	sz, al := table.SizeAndAlignForTy(mir.Tuple(mir.Named("i32"), mir.Named("i32")))
	assert.EqualValues(t, 8, sz)
	assert.EqualValues(t, 4, al)
}
