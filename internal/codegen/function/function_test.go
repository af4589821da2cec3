package function

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/codegen/signature"
	"chicc/internal/layout"
	"chicc/internal/metadata"
	"chicc/internal/mir"
	"chicc/internal/runtimeabi"
	"chicc/internal/target"
)

func newEmitEnv() (*layout.Table, *runtimeabi.Catalog, *metadata.Pool) {
	return layout.NewTable(), runtimeabi.NewCatalog(), metadata.NewPool()
}

// buildAdd constructs `fn add(a: i32, b: i32) -> i32 { return a + b }` directly at the MIR level:
// local 0 is the reserved return slot, locals 1/2 are the two by-value arguments.
func buildAdd() *mir.MirFunction {
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Named("i32"), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "a", Ty: mir.Named("i32"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})
	body.AddLocal(mir.LocalDecl{Name: "b", Ty: mir.Named("i32"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})

	bb := body.NewBlock()
	block := body.Block(bb)
	sum := mir.Place{Local: mir.LocalId(0)}
	lhs := mir.Copy(mir.Place{Local: mir.LocalId(1)})
	rhs := mir.Copy(mir.Place{Local: mir.LocalId(2)})
	block.Push(mir.Assign(sum, mir.Binary(mir.BinAdd, lhs, rhs)))
	_ = block.SetTerminator(mir.Return())

	return &mir.MirFunction{
		Name: "add",
		Sig:  mir.FnSig{Params: []mir.Ty{mir.Named("i32"), mir.Named("i32")}, Ret: mir.Named("i32")},
		Body: body,
	}
}

func TestEmitFunctionSimpleAdd(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	fn := buildAdd()
	sig := signature.Build(tbl, "add", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "define i32 @add(i32 %arg0, i32 %arg1) {")
	assert.Contains(t, res.Text, "= add i32")
	assert.Contains(t, res.Text, "ret i32")
}

func TestEmitFunctionVoidReturnEmitsRetVoid(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Unit(), Kind: mir.LocalKindReturn})
	bb := body.NewBlock()
	_ = body.Block(bb).SetTerminator(mir.Return())
	fn := &mir.MirFunction{Name: "nop", Sig: mir.FnSig{Ret: mir.Unit()}, Body: body}
	sig := signature.Build(tbl, "nop", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "ret void")
}

func TestEmitFunctionStringLiteralInternsConstant(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.String(), Kind: mir.LocalKindReturn})
	bb := body.NewBlock()
	block := body.Block(bb)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)},
		mir.StringInterpolate([]mir.InterpolateSegment{{IsLiteral: true, Literal: "hi"}})))
	_ = block.SetTerminator(mir.Return())
	fn := &mir.MirFunction{Name: "greet", Sig: mir.FnSig{Ret: mir.String()}, Body: body}
	sig := signature.Build(tbl, "greet", fn)

	e := &Emitter{
		layouts:      tbl,
		catalog:      catalog,
		meta:         meta,
		sig:          sig,
		fn:           fn,
		arch:         target.X86_64,
		localAddr:    map[mir.LocalId]string{},
		localTy:      map[mir.LocalId]mir.Ty{},
		blockLabel:   map[mir.BlockId]string{0: "bb0"},
		stringConsts: map[string]string{},
	}
	require.NoError(t, e.emitPrologue())
	require.NoError(t, e.lowerStatement(block.Statements[0]))

	consts, order := e.StringConstants()
	require.Len(t, order, 1)
	assert.Equal(t, "hi", order[0])
	assert.Contains(t, consts, "hi")
}

func TestLowerOverflowIntrinsicStoresValueAndSuccessSeparately(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ok", Ty: mir.Named("bool"), Kind: mir.LocalKindLocal})
	body.AddLocal(mir.LocalDecl{Name: "sum", Ty: mir.Named("i32"), Kind: mir.LocalKindLocal})
	bb := body.NewBlock()
	block := body.Block(bb)
	out := mir.Place{Local: mir.LocalId(1)}
	rv := mir.NumericIntrinsicRv(mir.TryAdd, 32, true,
		[]mir.Operand{mir.ConstI(mir.Named("i32"), 1), mir.ConstI(mir.Named("i32"), 2)}, &out)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)}, rv))
	_ = block.SetTerminator(mir.Return())
	fn := &mir.MirFunction{Name: "try_add", Sig: mir.FnSig{Ret: mir.Unit()}, Body: body}
	sig := signature.Build(tbl, "try_add", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "llvm.sadd.with.overflow.i32")
	assert.Contains(t, res.Text, "xor i1")
}

func TestEmitFunctionAttachesAliasScopeToRestrictParamAccess(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	ptrTy := mir.Pointer(mir.Named("i32"), true, mir.PointerQualifiers{Restrict: true})
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Unit(), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "a", Ty: ptrTy, Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue, Aliasing: mir.PointerQualifiers{Restrict: true}})
	body.AddLocal(mir.LocalDecl{Name: "b", Ty: ptrTy, Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue, Aliasing: mir.PointerQualifiers{Restrict: true}})
	body.AddLocal(mir.LocalDecl{Name: "tmp", Ty: ptrTy, Kind: mir.LocalKindLocal})

	bb := body.NewBlock()
	block := body.Block(bb)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(3)}, mir.UseOf(mir.Copy(mir.Place{Local: mir.LocalId(1)}))))
	_ = block.SetTerminator(mir.Return())
	fn := &mir.MirFunction{
		Name: "two_ptrs",
		Sig:  mir.FnSig{Params: []mir.Ty{ptrTy, ptrTy}, Ret: mir.Unit()},
		Body: body,
	}
	sig := signature.Build(tbl, "two_ptrs", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "!alias.scope")
	assert.Contains(t, res.Text, "!noalias")
	require.NotEmpty(t, meta.Definitions())
}

func TestLowerRotateNormalizesShiftAmount(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "r", Ty: mir.Named("u32"), Kind: mir.LocalKindLocal})
	bb := body.NewBlock()
	block := body.Block(bb)
	rv := mir.NumericIntrinsicRv(mir.RotateLeft, 32, false,
		[]mir.Operand{mir.ConstU(mir.Named("u32"), 1), mir.ConstU(mir.Named("u32"), 40)}, nil)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)}, rv))
	_ = block.SetTerminator(mir.Return())
	fn := &mir.MirFunction{Name: "rotl", Sig: mir.FnSig{Ret: mir.Unit()}, Body: body}
	sig := signature.Build(tbl, "rotl", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "urem i32")
	assert.Contains(t, res.Text, "shl i32")
	assert.Contains(t, res.Text, "lshr i32")
}
