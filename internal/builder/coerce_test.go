package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chicc/internal/mir"
)

func TestCoerceIdenticalTypesIsUse(t *testing.T) {
	b := newTestBuilder()
	rv := b.CoerceOperandToTy("", mir.ConstI(mir.Named("i32"), 1), mir.Named("i32"), mir.Named("i32"))
	assert.Equal(t, mir.RvUse, rv.Kind)
	assert.Equal(t, 0, b.Diags.Len())
}

func TestCoerceNullableWrapping(t *testing.T) {
	b := newTestBuilder()
	rv := b.CoerceOperandToTy("", mir.ConstI(mir.Named("i32"), 1), mir.Named("i32"), mir.Nullable(mir.Named("i32")))
	assert.Equal(t, mir.RvAggregate, rv.Kind)
}

func TestCoercePointerWideningIsFree(t *testing.T) {
	b := newTestBuilder()
	rv := b.CoerceOperandToTy("", mir.Operand{},
		mir.Pointer(mir.Named("i32"), true, mir.PointerQualifiers{}),
		mir.Pointer(mir.Named("i32"), false, mir.PointerQualifiers{}))
	assert.Equal(t, mir.RvUse, rv.Kind)
	assert.Equal(t, 0, b.Diags.Len())
}

func TestCoercePointerNarrowingWarns(t *testing.T) {
	b := newTestBuilder()
	b.CoerceOperandToTy("", mir.Operand{},
		mir.Pointer(mir.Named("i32"), false, mir.PointerQualifiers{}),
		mir.Pointer(mir.Named("i32"), true, mir.PointerQualifiers{}))
	assert.Equal(t, 1, b.Diags.Len())
}

func TestCoerceNoRuleDiagnoses(t *testing.T) {
	b := newTestBuilder()
	b.CoerceOperandToTy("", mir.Operand{}, mir.Named("Foo"), mir.Named("Bar"))
	assert.Equal(t, 1, b.Diags.Len())
}
