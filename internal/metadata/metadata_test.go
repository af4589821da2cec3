package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDistinctTuple(t *testing.T) {
	p := NewPool()
	id := p.NewDistinctTuple()
	assert.Equal(t, ID(0), id)
	assert.Equal(t, []string{"!0 = distinct !{}"}, p.Definitions())
}

func TestNewAliasScopeProducesThreeNodes(t *testing.T) {
	p := NewPool()
	domain := p.NewNamedStringNode("mmio")
	sc := p.NewAliasScope(domain, "store")
	assert.Equal(t, domain, sc.Domain)
	assert.Equal(t, 3, p.Len())
	defs := p.Definitions()
	assert.Contains(t, defs[sc.Scope], "!0")
	assert.Contains(t, defs[sc.List], "!{!")
}

func TestNewLocation(t *testing.T) {
	p := NewPool()
	scope := p.NewDistinctTuple()
	loc := p.NewLocation(Location{Line: 12, Column: 4, Scope: scope})
	assert.Contains(t, p.Definitions()[loc], "line: 12")
	assert.Contains(t, p.Definitions()[loc], "column: 4")
}

func TestTracepointLabelInterned(t *testing.T) {
	p := NewPool()
	id := p.NewTracepointLabel("hot_loop")
	assert.Contains(t, p.Definitions()[id], "hot_loop")
}
