package mir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNamedGenericStructuralEquality uses cmp.Diff rather than reflect.DeepEqual so a future
// mismatch in a nested Ty (e.g. a generic argument's Elem pointer) prints a field-level diff
// instead of just "not equal".
func TestNamedGenericStructuralEquality(t *testing.T) {
	a := Named("Vec", GenericArg{Ty: Span(Named("i32"))})
	b := Named("Vec", GenericArg{Ty: Span(Named("i32"))})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("Ty mismatch (-want +got):\n%s", diff)
	}
}

func TestCanonicalNameEquality(t *testing.T) {
	a := Pointer(Named("Foo"), true, PointerQualifiers{Restrict: true})
	b := Pointer(Named("Foo"), true, PointerQualifiers{Restrict: true})
	c := Pointer(Named("Foo"), false, PointerQualifiers{})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestCanonicalNameComposesGenerics(t *testing.T) {
	vecOfSpan := Named("Vec", GenericArg{Ty: Span(Named("i32"))})
	assert.Equal(t, "Vec<Span<i32>>", vecOfSpan.CanonicalName())
}

func TestValidateRequiresTerminators(t *testing.T) {
	b := NewBody()
	b.NewBlock()
	err := b.Validate()
	assert.Error(t, err)
}

func TestValidateCatchesDanglingTarget(t *testing.T) {
	b := NewBody()
	bb := b.NewBlock()
	require.NoError(t, b.Block(bb).SetTerminator(Goto(42)))
	err := b.Validate()
	assert.Error(t, err)
}

func TestValidateAcceptsWellFormedBody(t *testing.T) {
	b := NewBody()
	entry := b.NewBlock()
	exit := b.NewBlock()
	require.NoError(t, b.Block(entry).SetTerminator(Goto(exit)))
	require.NoError(t, b.Block(exit).SetTerminator(Return()))
	assert.NoError(t, b.Validate())
}

func TestDoubleTerminatorRejected(t *testing.T) {
	b := NewBody()
	bb := b.NewBlock()
	require.NoError(t, b.Block(bb).SetTerminator(Return()))
	assert.Error(t, b.Block(bb).SetTerminator(Unreachable()))
}

func TestPlaceProjectionString(t *testing.T) {
	p := Place{Local: 3}.Field(1).Deref().Index(4)
	assert.Equal(t, "l3.field(1).*[l4]", p.String())
}
