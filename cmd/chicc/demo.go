package main

import (
	"chicc/internal/layout"
	"chicc/internal/mir"
)

// buildDemoModule assembles a small MirModule by hand, the way a resolved front end would hand
// one to this core: an integer function exercising a binary op and an overflow intrinsic, a
// string-returning function exercising literal interning, and a droppable struct type so the
// module emitter's drop-glue synthesis has something to do. It is not a compiler; it is the
// worked example spec.md §10.1 asks this driver to be.
func buildDemoModule(layouts *layout.Table) *mir.Module {
	layouts.Register(&layout.TypeLayout{
		Kind: layout.KindStruct,
		Name: "Greeting",
		Fields: []layout.Field{
			{Name: "count", Ty: mir.Named("i32"), Index: 0},
			{Name: "text", Ty: mir.String(), Index: 1},
		},
	})

	mod := mir.NewModule("chicc_demo")
	mod.AddFunction(buildAddFunction())
	mod.AddFunction(buildTryAddFunction())
	mod.AddFunction(buildGreetFunction())
	return mod
}

// buildAddFunction is `fn add(a: i32, b: i32) -> i32 { return a + b }`.
func buildAddFunction() *mir.MirFunction {
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Named("i32"), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "a", Ty: mir.Named("i32"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})
	body.AddLocal(mir.LocalDecl{Name: "b", Ty: mir.Named("i32"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})

	bb := body.NewBlock()
	block := body.Block(bb)
	lhs := mir.Copy(mir.Place{Local: mir.LocalId(1)})
	rhs := mir.Copy(mir.Place{Local: mir.LocalId(2)})
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)}, mir.Binary(mir.BinAdd, lhs, rhs)))
	_ = block.SetTerminator(mir.Return())

	return &mir.MirFunction{
		Name: "add",
		Sig:  mir.FnSig{Params: []mir.Ty{mir.Named("i32"), mir.Named("i32")}, Ret: mir.Named("i32")},
		Body: body,
	}
}

// buildTryAddFunction is `fn try_add(a: i32, b: i32) -> i32`, returning the wrapped sum (written
// through the intrinsic's out place) and storing whether the add succeeded without overflow in
// the local "ok", to exercise the checked-arithmetic intrinsic lowering (spec.md §4.6.5).
func buildTryAddFunction() *mir.MirFunction {
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.Named("i32"), Kind: mir.LocalKindReturn})
	body.AddLocal(mir.LocalDecl{Name: "a", Ty: mir.Named("i32"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})
	body.AddLocal(mir.LocalDecl{Name: "b", Ty: mir.Named("i32"), Kind: mir.LocalKindArg, ParamMode: mir.ParamModeValue})
	body.AddLocal(mir.LocalDecl{Name: "ok", Ty: mir.Named("bool"), Kind: mir.LocalKindLocal})

	bb := body.NewBlock()
	block := body.Block(bb)
	out := mir.Place{Local: mir.LocalId(0)}
	rv := mir.NumericIntrinsicRv(mir.TryAdd, 32, true,
		[]mir.Operand{mir.Copy(mir.Place{Local: mir.LocalId(1)}), mir.Copy(mir.Place{Local: mir.LocalId(2)})}, &out)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(3)}, rv))
	_ = block.SetTerminator(mir.Return())

	return &mir.MirFunction{
		Name: "try_add",
		Sig:  mir.FnSig{Params: []mir.Ty{mir.Named("i32"), mir.Named("i32")}, Ret: mir.Named("i32")},
		Body: body,
	}
}

// buildGreetFunction is `fn greet() -> string { return "hello from chicc" }`.
func buildGreetFunction() *mir.MirFunction {
	body := mir.NewBody()
	body.AddLocal(mir.LocalDecl{Name: "ret", Ty: mir.String(), Kind: mir.LocalKindReturn})
	bb := body.NewBlock()
	block := body.Block(bb)
	block.Push(mir.Assign(mir.Place{Local: mir.LocalId(0)},
		mir.StringInterpolate([]mir.InterpolateSegment{{IsLiteral: true, Literal: "hello from chicc"}})))
	_ = block.SetTerminator(mir.Return())
	return &mir.MirFunction{Name: "greet", Sig: mir.FnSig{Ret: mir.String()}, Body: body}
}
