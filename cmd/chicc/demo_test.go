package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/codegen/module"
	"chicc/internal/layout"
	"chicc/internal/target"
)

func TestBuildDemoModuleEmitsExpectedFunctions(t *testing.T) {
	layouts := layout.NewTable()
	mod := buildDemoModule(layouts)

	tgt := target.Target{Arch: target.X86_64, Vendor: target.PC, OS: target.Linux}
	out, err := module.Emit(layouts, mod, tgt.Triple(), tgt.DataLayout(), tgt.Arch)
	require.NoError(t, err)

	assert.Contains(t, out, "define i32 @add(i32 %arg0, i32 %arg1) {")
	assert.Contains(t, out, "define i32 @try_add(i32 %arg0, i32 %arg1) {")
	assert.Contains(t, out, "llvm.sadd.with.overflow.i32")
	assert.Contains(t, out, "define { ptr, i64, i64 } @greet() {")
	assert.Contains(t, out, `target triple = "x86_64-pc-linux-gnu"`)
}
