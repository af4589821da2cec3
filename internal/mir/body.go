package mir

import "github.com/pkg/errors"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// BasicBlock is one node of a MirBody's control-flow graph.
type BasicBlock struct {
	Id          BlockId
	Statements  []Statement
	Terminator  Terminator
	hasTerm     bool
}

// MirBody is a function's control-flow graph plus its local declarations.
type MirBody struct {
	Blocks []BasicBlock
	Locals []LocalDecl
}

// ---------------------
// ----- functions -----
// ---------------------

// NewBody returns an empty MirBody.
func NewBody() *MirBody {
	return &MirBody{}
}

// AddLocal appends a LocalDecl and returns its LocalId.
func (m *MirBody) AddLocal(decl LocalDecl) LocalId {
	id := LocalId(len(m.Locals))
	m.Locals = append(m.Locals, decl)
	return id
}

// Local returns the LocalDecl for id.
func (m *MirBody) Local(id LocalId) LocalDecl {
	return m.Locals[id]
}

// NewBlock appends a fresh, unterminated BasicBlock and returns its id.
func (m *MirBody) NewBlock() BlockId {
	id := BlockId(len(m.Blocks))
	m.Blocks = append(m.Blocks, BasicBlock{Id: id})
	return id
}

// Block returns a pointer to the BasicBlock with the given id, for in-place mutation while
// building.
func (m *MirBody) Block(id BlockId) *BasicBlock {
	return &m.Blocks[id]
}

// Push appends a Statement to the block.
func (b *BasicBlock) Push(s Statement) {
	b.Statements = append(b.Statements, s)
}

// SetTerminator finishes the block with term. Calling it twice on the same block is a builder
// bug and returns an error rather than silently overwriting (spec.md §3: "every block has a
// terminator at emit time").
func (b *BasicBlock) SetTerminator(term Terminator) error {
	if b.hasTerm {
		return errors.Errorf("block %d already terminated", b.Id)
	}
	b.Terminator = term
	b.hasTerm = true
	return nil
}

// HasTerminator reports whether SetTerminator has been called on this block.
func (b *BasicBlock) HasTerminator() bool { return b.hasTerm }

// Validate checks the MirBody invariants from spec.md §3 and §8: every block is terminated, and
// every block id referenced from a terminator (Goto/SwitchInt targets and defaults, Call
// target/unwind, Drop target/unwind, Assert target/unwind) names an existing block.
func (m *MirBody) Validate() error {
	exists := func(id BlockId) bool { return int(id) < len(m.Blocks) }
	for _, b := range m.Blocks {
		if !b.hasTerm {
			return errors.Errorf("block %d has no terminator", b.Id)
		}
		t := b.Terminator
		var refs []BlockId
		switch t.Kind {
		case TermGoto:
			refs = append(refs, t.Target)
		case TermSwitchInt:
			refs = append(refs, t.Default)
			for _, a := range t.Arms {
				refs = append(refs, a.Target)
			}
		case TermCall:
			refs = append(refs, t.CallTarget)
			if t.CallUnwind != nil {
				refs = append(refs, *t.CallUnwind)
			}
		case TermDrop:
			refs = append(refs, t.Target)
			if t.DropUnwind != nil {
				refs = append(refs, *t.DropUnwind)
			}
		case TermAssert:
			refs = append(refs, t.AssertTarget)
			if t.AssertUnwind != nil {
				refs = append(refs, *t.AssertUnwind)
			}
		}
		for _, r := range refs {
			if !exists(r) {
				return errors.Errorf("block %d terminator references nonexistent block %d", b.Id, r)
			}
		}
	}
	return nil
}
