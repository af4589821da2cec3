package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/mir"
	"chicc/internal/symtab"
)

func TestLowerMemberAccessField(t *testing.T) {
	b := newTestBuilder()
	b.Symbols.AddField("Point", symtab.FieldInfo{Name: "x", Ty: mir.Named("i32")})
	b.Symbols.AddField("Point", symtab.FieldInfo{Name: "y", Ty: mir.Named("i32")})

	kind, place, _, _ := b.LowerMemberAccess("", mir.Place{Local: 0}, mir.Named("Point"), "y")
	assert.Equal(t, MemberField, kind)
	require.Len(t, place.Projection, 1)
	assert.Equal(t, uint32(1), place.Projection[0].FieldIndex)
}

func TestLowerMemberAccessProperty(t *testing.T) {
	b := newTestBuilder()
	b.Symbols.AddProperty(symtab.Property{Name: "Length", Ty: mir.Named("i32"), Getter: "get_Length"})

	kind, _, getter, _ := b.LowerMemberAccess("", mir.Place{Local: 0}, mir.Named("Box"), "Length")
	assert.Equal(t, MemberProperty, kind)
	assert.Equal(t, "get_Length", getter)
}

func TestLowerMemberAccessConstant(t *testing.T) {
	b := newTestBuilder()
	b.Symbols.AddConst(symtab.Constant{Name: "Max", Ty: mir.Named("i32"), Value: mir.ConstOperand{Kind: mir.ConstInt, Int: 100}})

	kind, _, _, c := b.LowerMemberAccess("", mir.Place{Local: 0}, mir.Named("Limits"), "Max")
	assert.Equal(t, MemberConstant, kind)
	assert.Equal(t, int64(100), c.Int)
}

func TestLowerMemberAccessUnknownDiagnoses(t *testing.T) {
	b := newTestBuilder()
	kind, _, _, _ := b.LowerMemberAccess("", mir.Place{Local: 0}, mir.Named("Point"), "z")
	assert.Equal(t, MemberUnknown, kind)
	assert.Equal(t, 1, b.Diags.Len())
}
