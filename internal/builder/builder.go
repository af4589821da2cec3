// Package builder is the MIR body builder (spec.md §4.4, component C6): it translates one
// function's surface expressions/statements into a mir.MirBody, filling in coercions, resolving
// overloads and operators, and emitting diagnostics for every rule violation rather than aborting
// (spec.md §4.4: "not a typechecker ... assumes types are already inferred"). The surface AST
// itself is an external collaborator's concern (spec.md §1 Non-goals); this package exposes the
// node-level lowering operations (CoerceOperandToTy, LowerCast, LowerBinary, LowerCall, ...) a
// front end drives expression-by-expression, the same seam the teacher's src/ir package leaves
// between its parser and its lir construction.
package builder

import (
	"chicc/internal/diag"
	"chicc/internal/layout"
	"chicc/internal/mir"
	"chicc/internal/operators"
	"chicc/internal/symtab"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// scope is one lexical binding frame: names introduced in this block, in introduction order so
// ExitScope can emit Drop statements in reverse (spec.md §4.4.6).
type scope struct {
	names  []string
	locals map[string]mir.LocalId
}

// loopCtx is one enclosing loop's break/continue targets (spec.md §4.4.2).
type loopCtx struct {
	headerBlock mir.BlockId // continue target
	exitBlock   mir.BlockId // break target
}

// Builder lowers one function body at a time. It owns the MirBody under construction plus the
// cross-cutting state spec.md §4.4.1/§4.4.2 describe: the scope stack, the current block, the
// loop-header/exit map, and the unwind-target stack.
type Builder struct {
	Body    *mir.MirBody
	Diags   *diag.Bag
	Layouts *layout.Table
	Symbols *symtab.Index
	Ops     *operators.Registry

	scopes       []scope
	currentBlock mir.BlockId
	loopStack    []loopCtx
	unwindStack  []mir.BlockId
	hasUnwind    []bool
	selfOwner    string
	unsafeDepth  int
}

// ---------------------
// ----- functions -----
// ---------------------

// New returns a Builder over a fresh MirBody, ready to lower one function.
func New(layouts *layout.Table, symbols *symtab.Index, ops *operators.Registry) *Builder {
	b := &Builder{
		Body:    mir.NewBody(),
		Diags:   &diag.Bag{},
		Layouts: layouts,
		Symbols: symbols,
		Ops:     ops,
	}
	b.currentBlock = b.Body.NewBlock()
	return b
}

// CreateLocal appends a LocalDecl and returns its LocalId (spec.md §4.4.1: create_local). Callers
// lowering a non-void function's return value must call this first, before any other local, so
// it receives LocalId(0).
func (b *Builder) CreateLocal(name string, ty mir.Ty, kind mir.LocalKind) mir.LocalId {
	id := b.Body.AddLocal(mir.LocalDecl{Name: name, Ty: ty, Kind: kind})
	if name != "" && len(b.scopes) > 0 {
		b.bindInCurrentScope(name, id)
	}
	return id
}

// NewTemp creates an anonymous Temp local used to name an intermediate rvalue.
func (b *Builder) NewTemp(ty mir.Ty) mir.LocalId {
	return b.Body.AddLocal(mir.LocalDecl{Kind: mir.LocalKindTemp, Ty: ty})
}

func (b *Builder) bindInCurrentScope(name string, id mir.LocalId) {
	top := &b.scopes[len(b.scopes)-1]
	top.names = append(top.names, name)
	top.locals[name] = id
}

// Resolve looks up name in the scope stack, innermost first.
func (b *Builder) Resolve(name string) (mir.LocalId, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if id, ok := b.scopes[i].locals[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// ----- control flow (spec.md §4.4.2) -----

// CurrentBlock returns the block currently being appended to.
func (b *Builder) CurrentBlock() mir.BlockId { return b.currentBlock }

// SwitchToBlock makes id the current block; subsequent Push/SetTerminator calls target it.
func (b *Builder) SwitchToBlock(id mir.BlockId) { b.currentBlock = id }

// NewBlock allocates a fresh unterminated block without switching to it.
func (b *Builder) NewBlock() mir.BlockId { return b.Body.NewBlock() }

// Push appends a statement to the current block.
func (b *Builder) Push(s mir.Statement) { b.Body.Block(b.currentBlock).Push(s) }

// SetTerminator finishes the current block (spec.md §4.4.2: set_terminator); a double-terminate
// is a builder bug and is reported as a Fatal diagnostic rather than silently dropped or panicked.
func (b *Builder) SetTerminator(span string, term mir.Terminator) {
	if err := b.Body.Block(b.currentBlock).SetTerminator(term); err != nil {
		b.Diags.Fatalf(span, "%s", err)
	}
}

// EnterLoop pushes a new loop context, returning the header (continue) and exit (break) blocks it
// allocated.
func (b *Builder) EnterLoop() (header, exit mir.BlockId) {
	header = b.Body.NewBlock()
	exit = b.Body.NewBlock()
	b.loopStack = append(b.loopStack, loopCtx{headerBlock: header, exitBlock: exit})
	return header, exit
}

// ExitLoop pops the innermost loop context.
func (b *Builder) ExitLoop() {
	if len(b.loopStack) > 0 {
		b.loopStack = b.loopStack[:len(b.loopStack)-1]
	}
}

// BreakTarget returns the exit block of the innermost loop, and whether one is active (a `break`
// outside any loop is a diagnostic the caller reports using this boolean).
func (b *Builder) BreakTarget() (mir.BlockId, bool) {
	if len(b.loopStack) == 0 {
		return 0, false
	}
	return b.loopStack[len(b.loopStack)-1].exitBlock, true
}

// ContinueTarget returns the header block of the innermost loop, and whether one is active.
func (b *Builder) ContinueTarget() (mir.BlockId, bool) {
	if len(b.loopStack) == 0 {
		return 0, false
	}
	return b.loopStack[len(b.loopStack)-1].headerBlock, true
}

// PushUnwindTarget enters a `try` scope, recording the landing pad a Call terminator should use
// while it is active.
func (b *Builder) PushUnwindTarget(pad mir.BlockId) {
	b.unwindStack = append(b.unwindStack, pad)
	b.hasUnwind = append(b.hasUnwind, true)
}

// PopUnwindTarget exits the innermost `try` scope.
func (b *Builder) PopUnwindTarget() {
	if n := len(b.unwindStack); n > 0 {
		b.unwindStack = b.unwindStack[:n-1]
		b.hasUnwind = b.hasUnwind[:n-1]
	}
}

// CurrentUnwindTarget returns the landing pad id for the innermost active `try` scope, matching
// spec.md §4.4.2's current_unwind_target.
func (b *Builder) CurrentUnwindTarget() *mir.BlockId {
	if len(b.unwindStack) == 0 {
		return nil
	}
	pad := b.unwindStack[len(b.unwindStack)-1]
	return &pad
}

// SetSelfOwner records the canonical name `Self` resolves to for the duration of lowering the
// current impl block, forwarding to the shared layout-table resolution hook.
func (b *Builder) SetSelfOwner(name string) {
	b.selfOwner = name
	layout.SetSelfOwner(name)
}
