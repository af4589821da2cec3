package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chicc/internal/mir"
)

func TestDelegateValueIsAggregate(t *testing.T) {
	rv := DelegateValue(mir.Operand{}, mir.Operand{}, mir.Operand{}, 7, true, false)
	assert.Equal(t, mir.RvAggregate, rv.Kind)
	assert.Equal(t, mir.AggDelegate, rv.AggKind)
	assert.Len(t, rv.AggFields, 6)
}

func TestLowerClosureLiteralCapturesByValue(t *testing.T) {
	b := newTestBuilder()
	b.EnterScope()
	captured := b.CreateLocal("n", mir.Named("i32"), mir.LocalKindLocal)
	dest := mir.Place{Local: b.NewTemp(mir.Fn(nil, mir.Unit()))}
	ctxDest := mir.Place{Local: b.NewTemp(mir.Tuple(mir.Named("i32")))}

	b.LowerClosureLiteral("", dest, ctxDest, []ClosureCapture{{Name: "n", Ty: mir.Named("i32")}}, "closure_invoke_0", "", 42)

	block := b.Body.Block(b.CurrentBlock())
	assert.GreaterOrEqual(t, len(block.Statements), 2)
	assert.Equal(t, 0, b.Diags.Len())
	_ = captured
}

func TestLowerClosureLiteralUnresolvedCaptureDiagnoses(t *testing.T) {
	b := newTestBuilder()
	dest := mir.Place{Local: b.NewTemp(mir.Fn(nil, mir.Unit()))}
	ctxDest := mir.Place{Local: b.NewTemp(mir.Tuple(mir.Named("i32")))}

	b.LowerClosureLiteral("", dest, ctxDest, []ClosureCapture{{Name: "missing", Ty: mir.Named("i32")}}, "closure_invoke_0", "", 1)
	assert.Equal(t, 1, b.Diags.Len())
}

func TestCheckExternFnCaptureDiagnosesWhenCapturing(t *testing.T) {
	b := newTestBuilder()
	b.CheckExternFnCapture("", mir.Fn(nil, mir.Unit()), true)
	assert.Equal(t, 1, b.Diags.Len())
}

func TestCheckExternFnCaptureAllowsNonCapturing(t *testing.T) {
	b := newTestBuilder()
	b.CheckExternFnCapture("", mir.Fn(nil, mir.Unit()), false)
	assert.Equal(t, 0, b.Diags.Len())
}
