package function

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/codegen/signature"
	"chicc/internal/mir"
	"chicc/internal/target"
)

// buildVecIndex constructs `fn get(v: Vec<i32>, i: usize) -> i32 { return v[i] }`.
func buildVecIndex() *mir.MirFunction {
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Named("i32"), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "v", Ty: mir.Vec(mir.Named("i32")), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})
	body.AddLocal(mir.LocalDecl{Name: "i", Ty: mir.Named("usize"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})

	bb := body.NewBlock()
	block := body.Block(bb)
	src := mir.Place{Local: mir.LocalId(1)}.Index(mir.LocalId(2))
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)}, mir.UseOf(mir.Copy(src))))
	_ = block.SetTerminator(mir.Return())

	return &mir.MirFunction{
		Name: "get",
		Sig:  mir.FnSig{Params: []mir.Ty{mir.Vec(mir.Named("i32")), mir.Named("usize")}, Ret: mir.Named("i32")},
		Body: body,
	}
}

func TestStepIndexEmitsBoundsCheckAndPanicOnVec(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	fn := buildVecIndex()
	sig := signature.Build(tbl, "get", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "icmp uge i64")
	assert.Contains(t, res.Text, "br i1")
	assert.Contains(t, res.Text, "call void @chic_rt_panic(i32 8195)")
	assert.Contains(t, res.Text, "unreachable")
}

func TestStepConstIndexErrorsAtEmitTime(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Named("i32"), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "v", Ty: mir.Array(mir.Named("i32"), 1, nil), Kind: mir.LocalKindLocal})
	bb := body.NewBlock()
	block := body.Block(bb)
	src := mir.Place{Local: mir.LocalId(1)}.ConstIndex(0, 1, false)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)}, mir.UseOf(mir.Copy(src))))
	_ = block.SetTerminator(mir.Return())
	fn := &mir.MirFunction{Name: "first", Sig: mir.FnSig{Ret: mir.Named("i32")}, Body: body}
	sig := signature.Build(tbl, "first", fn)

	_, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "const_index")
}

func TestStepSubsliceErrorsAtEmitTime(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Span(mir.Named("i32")), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "v", Ty: mir.Span(mir.Named("i32")), Kind: mir.LocalKindLocal})
	bb := body.NewBlock()
	block := body.Block(bb)
	src := mir.Place{Local: mir.LocalId(1)}.Subslice(0, 1)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)}, mir.UseOf(mir.Copy(src))))
	_ = block.SetTerminator(mir.Return())
	fn := &mir.MirFunction{Name: "head", Sig: mir.FnSig{Ret: mir.Span(mir.Named("i32"))}, Body: body}
	sig := signature.Build(tbl, "head", fn)

	_, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subslice")
}
