package function

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/codegen/signature"
	"chicc/internal/mir"
	"chicc/internal/target"
)

// buildTraitCall constructs `fn speak(obj: dyn Speaker) { obj.speak() }` lowered as a trait-
// dispatch Call, dispatch carrying impl optionally set for the static-monomorphized case.
func buildTraitCall(implType *mir.Ty) *mir.MirFunction {
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Unit(), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "obj", Ty: mir.TraitObject("Speaker"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})

	bb := body.NewBlock()
	block := body.Block(bb)
	exit := body.NewBlock()
	_ = block.SetTerminator(mir.Call(
		mir.ConstSym(mir.Unit(), "Speaker::speak"),
		[]mir.Operand{mir.Copy(mir.Place{Local: mir.LocalId(1)})},
		nil, nil, exit, nil,
	).WithDispatch(mir.Dispatch{
		Kind: mir.DispatchTrait, Trait: "Speaker", Method: "speak",
		SlotIndex: 0, SlotCount: 1, ReceiverIndex: 0, ImplType: implType,
	}))
	_ = body.Block(exit).SetTerminator(mir.Return())

	return &mir.MirFunction{
		Name: "speak",
		Sig:  mir.FnSig{Params: []mir.Ty{mir.TraitObject("Speaker")}, Ret: mir.Unit()},
		Body: body,
	}
}

func TestResolveTraitCalleeLoadsVtableDynamicallyWhenImplUnknown(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	fn := buildTraitCall(nil)
	sig := signature.Build(tbl, "speak", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "getelementptr { ptr, ptr }")
	assert.Contains(t, res.Text, "= load ptr, ptr")
	assert.NotContains(t, res.Text, "@vtable.Speaker.for.unknown")
}

func TestResolveTraitCalleeUsesStaticVtableWhenImplKnown(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	impl := mir.Named("Cat")
	fn := buildTraitCall(&impl)
	sig := signature.Build(tbl, "speak", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "@vtable.Speaker.for.Cat")
}
