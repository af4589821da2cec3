package function

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/codegen/signature"
	"chicc/internal/mir"
	"chicc/internal/target"
)

// buildInoutAsm constructs `fn bump(x: i32) -> i32 { asm("xor $0, $0" : inout x); return x }`,
// matching the single-late-volatile-inout seed scenario.
func buildInoutAsm() *mir.MirFunction {
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Named("i32"), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "x", Ty: mir.Named("i32"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})

	bb := body.NewBlock()
	block := body.Block(bb)
	xPlace := mir.Place{Local: mir.LocalId(1)}
	block.Push(mir.InlineAsmStmt(mir.InlineAsm{
		Template: "xor $0, $0",
		InOuts: []mir.InlineAsmOperand{
			{Constraint: "r", Place: &xPlace, Value: mir.Copy(xPlace), Late: true},
		},
		Clobbers: []string{"xmm0"},
		Options: mir.InlineAsmOptions{
			Volatile:     true,
			IntelDialect: true,
		},
	}))
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)}, mir.UseOf(mir.Copy(xPlace))))
	_ = block.SetTerminator(mir.Return())

	return &mir.MirFunction{
		Name: "bump",
		Sig:  mir.FnSig{Params: []mir.Ty{mir.Named("i32")}, Ret: mir.Named("i32")},
		Body: body,
	}
}

func TestLowerInlineAsmInoutEmitsConstraintsAutoClobbersAndStore(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	fn := buildInoutAsm()
	sig := signature.Build(tbl, "bump", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, res.Text, `call i32 asm sideeffect inteldialect "xor $0, $0", "+r,~{xmm0},~{flags},~{fpsr},~{dirflag},~{memory}"`)
	assert.Contains(t, res.Text, "store i32")
}

func TestLowerInlineAsmAarch64UsesNzcvClobber(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	fn := buildInoutAsm()
	sig := signature.Build(tbl, "bump", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.Aarch64)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "~{nzcv}")
	assert.NotContains(t, res.Text, "~{flags}")
}

func TestLowerInlineAsmRejectsUnsupportedArch(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	fn := buildInoutAsm()
	sig := signature.Build(tbl, "bump", fn)

	_, err := EmitFunction(tbl, catalog, meta, sig, fn, target.UnknownArch)
	require.Error(t, err)
}

func TestLowerInlineAsmZeroOutputsEmitsCallVoid(t *testing.T) {
	tbl, catalog, meta := newEmitEnv()
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Unit(), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "x", Ty: mir.Named("i32"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})
	bb := body.NewBlock()
	block := body.Block(bb)
	xPlace := mir.Place{Local: mir.LocalId(1)}
	block.Push(mir.InlineAsmStmt(mir.InlineAsm{
		Template: "nop",
		Inputs: []mir.InlineAsmOperand{
			{Constraint: "r", Value: mir.Copy(xPlace)},
		},
		Options: mir.InlineAsmOptions{PreservesFlags: true, NoMem: true},
	}))
	_ = block.SetTerminator(mir.Return())
	fn := &mir.MirFunction{Name: "nop_fn", Sig: mir.FnSig{Params: []mir.Ty{mir.Named("i32")}, Ret: mir.Unit()}, Body: body}
	sig := signature.Build(tbl, "nop_fn", fn)

	res, err := EmitFunction(tbl, catalog, meta, sig, fn, target.X86_64)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "call void asm")
	assert.NotContains(t, res.Text, "~{flags}")
	assert.NotContains(t, res.Text, "~{memory}")
}
