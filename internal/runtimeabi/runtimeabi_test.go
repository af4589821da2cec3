package runtimeabi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupBuiltin(t *testing.T) {
	c := NewCatalog()
	s, ok := c.Lookup("chic_rt_panic")
	assert.True(t, ok)
	assert.Equal(t, "declare void @chic_rt_panic(i32)", s.Declare())
}

func TestIntrinsicOverflowEveryCombination(t *testing.T) {
	c := NewCatalog()
	for _, kind := range []OverflowKind{OverflowAdd, OverflowSub, OverflowMul} {
		for _, signed := range []bool{true, false} {
			for _, width := range []int{8, 16, 32, 64, 128} {
				s := c.IntrinsicOverflow(kind, signed, width)
				assert.Contains(t, s.Symbol, "with.overflow")
				again := c.IntrinsicOverflow(kind, signed, width)
				assert.Equal(t, s.Symbol, again.Symbol)
			}
		}
	}
}

func TestIntrinsicBitopCtlzHasUndefFlag(t *testing.T) {
	c := NewCatalog()
	s := c.IntrinsicBitop(BitopCtlz, 32)
	assert.Equal(t, "llvm.ctlz.i32", s.Symbol)
	assert.Len(t, s.Params, 2)
}

func TestIntrinsicBitopCtpopNoFlag(t *testing.T) {
	c := NewCatalog()
	s := c.IntrinsicBitop(BitopCtpop, 64)
	assert.Equal(t, "llvm.ctpop.i64", s.Symbol)
	assert.Len(t, s.Params, 1)
}

func TestUnknownSymbol(t *testing.T) {
	c := NewCatalog()
	_, ok := c.Lookup("not_a_symbol")
	assert.False(t, ok)
}
