package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/layout"
	"chicc/internal/mir"
	"chicc/internal/target"
)

// buildAddFn constructs `fn add(a: i32, b: i32) -> i32 { return a + b }` directly at the MIR
// level, mirroring the function package's own test fixture.
func buildAddFn(name string) *mir.MirFunction {
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
		Name: name,
		Sig:  mir.FnSig{Params: []mir.Ty{mir.Named("i32"), mir.Named("i32")}, Ret: mir.Named("i32")},
		Body: body,
	}
}

// buildGreetFn constructs `fn greet() -> string { return "hi" }`, to exercise per-function
// string-literal interning and the module emitter's global renaming pass.
func buildGreetFn(name, literal string) *mir.MirFunction {
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.String(), Kind: mir.LocalKindReturn})
	bb := body.NewBlock()
	block := body.Block(bb)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)},
		mir.StringInterpolate([]mir.InterpolateSegment{{IsLiteral: true, Literal: literal}})))
	_ = block.SetTerminator(mir.Return())
	return &mir.MirFunction{Name: name, Sig: mir.FnSig{Ret: mir.String()}, Body: body}
}

func TestEmitModuleRendersFunctionBodies(t *testing.T) {
	mod := mir.NewModule("demo")
	mod.AddFunction(buildAddFn("add"))

	out, err := Emit(layout.NewTable(), mod, "", "", target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, out, "define i32 @add(i32 %arg0, i32 %arg1) {")
	assert.Contains(t, out, "= add i32")
}

func TestEmitModuleHeaderCarriesTripleAndDataLayout(t *testing.T) {
	mod := mir.NewModule("demo")
	mod.AddFunction(buildAddFn("add"))

	out, err := Emit(layout.NewTable(), mod, "x86_64-unknown-linux-gnu", "e-m:e-p270:32:32-i64:64-f80:128-n8:16:32:64-S128", target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, out, `target triple = "x86_64-unknown-linux-gnu"`)
	assert.Contains(t, out, `target datalayout = "e-m:e-p270:32:32-i64:64-f80:128-n8:16:32:64-S128"`)
}

func TestEmitModuleDeclaresExternFunctionsWithoutBodies(t *testing.T) {
	mod := mir.NewModule("demo")
	fn := &mir.MirFunction{
		Name: "puts",
		Sig:  mir.FnSig{Params: []mir.Ty{mir.Named("string")}, Ret: mir.Named("i32")},
		Extern: mir.ExternSpec{IsExtern: true, Symbol: "puts"},
	}
	mod.AddFunction(fn)

	out, err := Emit(layout.NewTable(), mod, "", "", target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, out, "declare i32 @puts(")
	assert.NotContains(t, out, "define")
}

func TestEmitModuleDeduplicatesStringLiteralsAcrossFunctions(t *testing.T) {
	mod := mir.NewModule("demo")
	mod.AddFunction(buildGreetFn("greet_one", "hi"))
	mod.AddFunction(buildGreetFn("greet_two", "hi"))

	out, err := Emit(layout.NewTable(), mod, "", "", target.X86_64)
	require.NoError(t, err)

	// Both functions intern the same literal; it must be hoisted to exactly one module-wide
	// global constant rather than emitted twice.
	assert.Equal(t, 1, countOccurrences(out, `constant [3 x i8] c"hi\00"`))
	assert.NotContains(t, out, "@.str.0\n") // no unresolved function-local placeholder left behind
}

func TestEmitModuleRendersStaticsAndVtables(t *testing.T) {
	mod := mir.NewModule("demo")
	initVal := mir.ConstOperand{Kind: mir.ConstInt, Int: 42}
	mod.Statics = append(mod.Statics, mir.StaticVar{Symbol: "counter", Ty: mir.Named("i32"), Init: &initVal, Mutable: true})
	mod.TraitVtables = append(mod.TraitVtables, mir.Vtable{
		Name:    "Shape.for.Circle",
		Entries: []mir.VtableEntry{{Method: "area", Symbol: "Circle_area"}},
	})
	mod.AddFunction(buildAddFn("add"))

	out, err := Emit(layout.NewTable(), mod, "", "", target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, out, "@counter = global i32 42")
	assert.Contains(t, out, "@vtable.Shape.for.Circle = global { [1 x ptr] } { [1 x ptr] [ ptr @Circle_area ] }")
}

func TestEmitModuleSynthesizesDropGlueForDroppableStruct(t *testing.T) {
	tbl := layout.NewTable()
	tbl.Register(&layout.TypeLayout{
		Kind: layout.KindStruct,
		Name: "Holder",
		Fields: []layout.Field{
			{Name: "tag", Ty: mir.Named("i32"), Index: 0},
			{Name: "label", Ty: mir.String(), Index: 1},
		},
	})
	mod := mir.NewModule("demo")
	mod.AddFunction(buildAddFn("add"))

	out, err := Emit(tbl, mod, "", "", target.X86_64)
	require.NoError(t, err)

	assert.Contains(t, out, "define void @drop_glue.Holder(ptr %arg0) {")
	assert.Contains(t, out, "call void @chic_rt_string_drop(ptr %f1)")
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}
