package function

import (
	"fmt"

	"chicc/internal/metadata"
	"chicc/internal/mir"
)

// assignAliasScopes implements spec.md §4.6.1 rule 4: one alias-scope domain per function, one
// scope per restrict/noalias-qualified parameter, and a no-alias set naming every other
// qualifying parameter. The rendered `, !alias.scope !L, !noalias !L2` suffix for each qualifying
// parameter is recorded in localAliasAttrs for loadOperand/lowerUse to attach to the load/store
// instructions that directly touch that parameter's pointee.
func (e *Emitter) assignAliasScopes() {
	var qualifying []mir.LocalId
	for i, decl := range e.fn.Body.Locals {
		if decl.Kind != mir.LocalKindArg {
			continue
		}
		if decl.Aliasing.Restrict || decl.Aliasing.NoAlias {
			qualifying = append(qualifying, mir.LocalId(i))
		}
	}
	if len(qualifying) == 0 {
		return
	}

	domain := e.meta.NewDistinctTuple()
	scopes := make(map[mir.LocalId]metadata.ID, len(qualifying))
	for _, id := range qualifying {
		scopes[id] = e.meta.NewAliasScope(domain, e.fn.Body.Locals[id].Name).Scope
	}

	for _, id := range qualifying {
		selfList := e.meta.NewScopeList([]metadata.ID{scopes[id]})
		attrs := fmt.Sprintf(", !alias.scope !%d", selfList)

		var others []metadata.ID
		for _, other := range qualifying {
			if other != id {
				others = append(others, scopes[other])
			}
		}
		if len(others) > 0 {
			noaliasList := e.meta.NewScopeList(others)
			attrs += fmt.Sprintf(", !noalias !%d", noaliasList)
		}
		e.localAliasAttrs[id] = attrs
	}
}
