package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/layout"
	"chicc/internal/mir"
)

func intFn(ret mir.Ty, params ...mir.Ty) *mir.MirFunction {
	return &mir.MirFunction{
		Name: "f",
		Sig:  mir.FnSig{Params: params, Ret: ret},
		Body: mir.NewBody(),
	}
}

func TestBuildScalarDirect(t *testing.T) {
	tbl := layout.NewTable()
	fn := intFn(mir.Named("i32"), mir.Named("i32"), mir.Named("i64"))

	sig := Build(tbl, "f", fn)

	require.Len(t, sig.Params, 2)
	assert.Equal(t, ClassDirect, sig.Params[0].Class)
	assert.Equal(t, "i32", sig.Params[0].LLVMType)
	assert.Equal(t, "i64", sig.Params[1].LLVMType)
	assert.False(t, sig.SRet)
	assert.Equal(t, "i32", sig.ReturnTypeText())
}

func TestBuildPointerParamIsAlwaysDirectPtr(t *testing.T) {
	tbl := layout.NewTable()
	fn := intFn(mir.Unit(), mir.Pointer(mir.Named("i32"), true, mir.PointerQualifiers{}))

	sig := Build(tbl, "f", fn)

	require.Len(t, sig.Params, 1)
	assert.Equal(t, ClassDirect, sig.Params[0].Class)
	assert.Equal(t, "ptr", sig.Params[0].LLVMType)
}

func TestBuildNativeAbiNeverClassifiesAggregates(t *testing.T) {
	tbl := layout.NewTable()
	big := mir.Tuple(mir.Named("i64"), mir.Named("i64"), mir.Named("i64"), mir.Named("i64"))
	fn := intFn(mir.Unit(), big)

	sig := Build(tbl, "f", fn)

	require.Len(t, sig.Params, 1)
	assert.Equal(t, ClassDirect, sig.Params[0].Class)
}

func bigLayout() *layout.TypeLayout {
	size := uint64(24)
	align := uint32(8)
	return &layout.TypeLayout{
		Kind: layout.KindStruct,
		Name: "Big",
		Fields: []layout.Field{
			{Name: "a", Ty: mir.Named("i64"), Index: 0, Offset: 0},
			{Name: "b", Ty: mir.Named("i64"), Index: 1, Offset: 8},
			{Name: "c", Ty: mir.Named("i64"), Index: 2, Offset: 16},
		},
		Size:  &size,
		Align: &align,
	}
}

func TestBuildExternCLargeStructIsIndirectByVal(t *testing.T) {
	tbl := layout.NewTable()
	tbl.Register(bigLayout())
	fn := intFn(mir.Unit(), mir.Named("Big"))
	fn.Sig.Abi = mir.Abi{Extern: true, Name: "C"}

	sig := Build(tbl, "f", fn)

	require.Len(t, sig.Params, 1)
	assert.Equal(t, ClassIndirectByVal, sig.Params[0].Class)
	assert.Contains(t, sig.Params[0].Attrs, "byval({ i64, i64, i64 })")
}

func TestBuildExternCSmallStructIsDirectCoerce(t *testing.T) {
	tbl := layout.NewTable()
	size := uint64(8)
	align := uint32(4)
	tbl.Register(&layout.TypeLayout{
		Kind: layout.KindStruct,
		Name: "Pair",
		Fields: []layout.Field{
			{Name: "a", Ty: mir.Named("i32"), Index: 0, Offset: 0},
			{Name: "b", Ty: mir.Named("i32"), Index: 1, Offset: 4},
		},
		Size:  &size,
		Align: &align,
	})
	fn := intFn(mir.Unit(), mir.Named("Pair"))
	fn.Sig.Abi = mir.Abi{Extern: true, Name: "C"}

	sig := Build(tbl, "f", fn)

	require.Len(t, sig.Params, 1)
	assert.Equal(t, ClassDirectCoerce, sig.Params[0].Class)
	assert.Equal(t, "i64", sig.Params[0].CoerceType)
}

func TestBuildExternCLargeReturnIsIndirectSret(t *testing.T) {
	tbl := layout.NewTable()
	tbl.Register(bigLayout())
	fn := intFn(mir.Named("Big"))
	fn.Sig.Abi = mir.Abi{Extern: true, Name: "C"}

	sig := Build(tbl, "f", fn)

	assert.True(t, sig.SRet)
	assert.Equal(t, ClassIndirectSret, sig.Ret.Class)
	assert.Equal(t, "void", sig.ReturnTypeText())
	assert.Contains(t, sig.Ret.Attrs, "sret({ i64, i64, i64 })")
}

func TestBuildAliasingAttrsFromParamLocal(t *testing.T) {
	tbl := layout.NewTable()
	fn := intFn(mir.Unit(), mir.Pointer(mir.Named("i32"), true, mir.PointerQualifiers{}))
	fn.Body.AddLocal(mir.LocalDecl{
		Name:      "p",
		Ty:        fn.Sig.Params[0],
		Kind:      mir.LocalKindArg,
		ParamMode: mir.ParamModeOut,
		Aliasing:  mir.PointerQualifiers{NoAlias: true, ReadOnly: true, Alignment: 16},
	})

	sig := Build(tbl, "f", fn)

	require.Len(t, sig.Params, 1)
	assert.Contains(t, sig.Params[0].Attrs, "noalias")
	assert.Contains(t, sig.Params[0].Attrs, "readonly")
	assert.Contains(t, sig.Params[0].Attrs, "align 16")
	assert.Contains(t, sig.Params[0].Attrs, "nonnull")
}

func TestMangleAppendsSuffixInDeclarationOrder(t *testing.T) {
	m := NewMangler()
	assert.Equal(t, "foo", m.Mangle("foo"))
	assert.Equal(t, "foo_1", m.Mangle("foo"))
	assert.Equal(t, "foo_2", m.Mangle("foo"))
	assert.Equal(t, "bar", m.Mangle("bar"))
}

func TestParamListTextPrependsSret(t *testing.T) {
	tbl := layout.NewTable()
	tbl.Register(bigLayout())
	fn := intFn(mir.Named("Big"), mir.Named("i32"))
	fn.Sig.Abi = mir.Abi{Extern: true, Name: "C"}

	sig := Build(tbl, "f", fn)
	text := sig.ParamListText()

	assert.Contains(t, text, "sret({ i64, i64, i64 }) %arg0")
	assert.Contains(t, text, "i32 %arg1")
}
