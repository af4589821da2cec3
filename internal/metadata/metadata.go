// Package metadata builds the alias-scope domains/scopes, debug locations, and tracepoint
// descriptors the function emitter (C8) attaches to instructions (spec.md §4.6.1 rule 4,
// component C11). Numbered metadata nodes are accumulated in a Pool and rendered once, after a
// function body is fully lowered, as the `!N = ...` definition lines C9 appends to the module.
//
// Node text for the handful of metadata kinds this core emits (distinct tuples, named string
// nodes, DILocation-shaped location nodes) is rendered directly rather than through
// github.com/llir/llvm/ir/metadata's full Definition/MDNode machinery: that package's type
// hierarchy is built for an in-memory IR the rest of this core deliberately does not construct
// (internal/builder/internal/codegen emit LLVM IR as text, per the teacher's string-buffer
// style). metadata.String is used for the one leaf node this core needs an object for — a
// plain metadata string — to keep the corpus's llir/llvm escaping rules rather than
// reimplementing them.
package metadata

import (
	"fmt"
	"strings"

	llmetadata "github.com/llir/llvm/ir/metadata"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ID is the index of a numbered metadata node (`!N`).
type ID int64

// Pool accumulates numbered metadata definitions for one function (or the module-level pool for
// nodes shared across functions, e.g. a common "no MMIO aliasing" domain).
type Pool struct {
	defs []string // rendered "!N = ..." lines, indexed by ID.
}

// AliasScope is one `distinct !{}`-rooted scope within a domain, plus the domain it belongs to.
type AliasScope struct {
	Domain ID
	Scope  ID
	List   ID // the singleton !{ !scope } tuple referenced by !alias.scope / !noalias.
}

// Location is a DILocation-shaped source position, rendered without full debug-info plumbing
// (no DIFile/DICompileUnit chain — spec.md §9 scopes debug locations to line/column/scope only).
type Location struct {
	Line   int64
	Column int64
	Scope  ID
}

// ---------------------
// ----- functions -----
// ---------------------

// NewPool returns an empty metadata Pool.
func NewPool() *Pool { return &Pool{} }

// alloc reserves the next ID and records its rendered definition.
func (p *Pool) alloc(rendered string) ID {
	id := ID(len(p.defs))
	p.defs = append(p.defs, fmt.Sprintf("!%d = %s", id, rendered))
	return id
}

// NewDistinctTuple allocates a `distinct !{}` node — the shape used for both alias-scope domains
// and alias-scope instances themselves (spec.md §4.6.1 rule 4: both are opaque, distinct nodes).
func (p *Pool) NewDistinctTuple() ID {
	return p.alloc("distinct !{}")
}

// NewNamedStringNode allocates a `distinct !{!"name"}` node: a distinct tuple whose sole operand
// is a metadata string, used to give an alias-scope domain a human-readable label in -S output.
func (p *Pool) NewNamedStringNode(name string) ID {
	s := &llmetadata.String{Value: name}
	return p.alloc(fmt.Sprintf("distinct !{%s}", s.String()))
}

// NewAliasScope allocates a scope node that carries its owning domain
// (`distinct !{!scope_self, !domain}` is the llvm.loop/alias.scope convention: a tuple of
// [self-reference, domain]; since this pool renders node text up front rather than building a
// cyclic object graph, the self-reference is simply the node's own freshly allocated ID) plus the
// singleton list node referencing it, and returns both.
func (p *Pool) NewAliasScope(domain ID, label string) AliasScope {
	var scopeBody string
	if label != "" {
		s := &llmetadata.String{Value: label}
		scopeBody = fmt.Sprintf("distinct !{!%%SELF%%, !%d, %s}", domain, s.String())
	} else {
		scopeBody = fmt.Sprintf("distinct !{!%%SELF%%, !%d}", domain)
	}
	scope := p.allocSelfReferential(scopeBody)
	list := p.alloc(fmt.Sprintf("!{!%d}", scope))
	return AliasScope{Domain: domain, Scope: scope, List: list}
}

// allocSelfReferential reserves an ID, substitutes it into a %SELF% placeholder in body, and
// records the result — the one place this pool needs a node to reference its own ID, matching
// how LLVM alias-scope metadata is conventionally self-describing.
func (p *Pool) allocSelfReferential(body string) ID {
	id := ID(len(p.defs))
	resolved := strings.ReplaceAll(body, "%SELF%", fmt.Sprintf("%d", id))
	p.defs = append(p.defs, fmt.Sprintf("!%d = %s", id, resolved))
	return id
}

// NewScopeList allocates a `!{!s1, !s2, ...}` tuple referencing each given scope, the shape
// `!alias.scope`/`!noalias` operands take when more than one scope applies to an access (spec.md
// §4.6.1 rule 4's no-alias set, which names every other qualifying parameter at once).
func (p *Pool) NewScopeList(scopes []ID) ID {
	refs := make([]string, len(scopes))
	for i, s := range scopes {
		refs[i] = fmt.Sprintf("!%d", s)
	}
	return p.alloc(fmt.Sprintf("!{%s}", strings.Join(refs, ", ")))
}

// NewLocation allocates a DILocation-shaped node: `!DILocation(line: L, column: C, scope: !S)`.
func (p *Pool) NewLocation(loc Location) ID {
	return p.alloc(fmt.Sprintf("!DILocation(line: %d, column: %d, scope: !%d)",
		loc.Line, loc.Column, loc.Scope))
}

// TracepointDescriptor is the per-tracepoint metadata spec.md §4.6.1/§6 references: a
// chic_rt_trace_enter/exit pair keys off an integer id and a label; the metadata pool records the
// label as a named string node so C9 can emit a single shared `!chic.tracepoints` named metadata
// list instead of duplicating the label text at every call site.
type TracepointDescriptor struct {
	ID    int64
	Label ID
}

// NewTracepointLabel interns label as a metadata string node for later reference from a
// TracepointDescriptor.
func (p *Pool) NewTracepointLabel(label string) ID {
	s := &llmetadata.String{Value: label}
	return p.alloc(s.String())
}

// Definitions returns every `!N = ...` line accumulated so far, in ID order, for C9 to append
// verbatim to the end of the emitted module.
func (p *Pool) Definitions() []string {
	out := make([]string, len(p.defs))
	copy(out, p.defs)
	return out
}

// Len reports how many nodes have been allocated.
func (p *Pool) Len() int { return len(p.defs) }
