// Package module is the whole-module LLVM assembler (spec.md §4.7, component C9): it drives the
// per-function emitter (C8) over every function in a MirModule, then stitches the results
// together with type declarations are carried inline by each function body, global statics,
// vtables, interned string constants and runtime/intrinsic `declare` lines into one textual LLVM
// module. Grounded on `other_examples`' malphas-lang `internal/codegen/mir2llvm` package, which
// assembles its own per-function buffers into a single `Module.String()` the same way (header,
// then globals, then function bodies, then declares) — the one difference being that this
// project's per-function buffers are produced by a separately testable package (C8) rather than
// inlined into the module driver itself.
package module

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"chicc/internal/codegen/function"
	"chicc/internal/codegen/signature"
	"chicc/internal/layout"
	"chicc/internal/metadata"
	"chicc/internal/mir"
	"chicc/internal/runtimeabi"
	"chicc/internal/target"
)

// Emit renders mod as a complete LLVM textual module, in this order: one `target triple`/`target
// datalayout` pair (when triple/dataLayout are non-empty), the interned string constant pool,
// global statics, every function definition or declaration, vtables, synthesized drop glue, a
// `declare` line for every runtimeabi symbol the emitted text calls, and finally the metadata
// definitions. arch is passed
// through to the function emitter to pick the architecture-specific automatic inline-asm clobbers
// (spec.md §4.6.6).
//
// layouts must be the same *layout.Table the body builder (internal/builder) registered the
// module's struct/class/union/enum layouts into — this package never constructs its own, since a
// fresh table would have no record of any user-defined named type and every such type's LLVM
// spelling would silently fall back to i8 (see layout.Table.LLVMType's doc comment).
func Emit(layouts *layout.Table, mod *mir.Module, triple, dataLayout string, arch target.Arch) (string, error) {
	catalog := runtimeabi.NewCatalog()
	meta := metadata.NewPool()
	mangler := signature.NewMangler()

	var header strings.Builder
	if triple != "" {
		fmt.Fprintf(&header, "target triple = %q\n", triple)
	}
	if dataLayout != "" {
		fmt.Fprintf(&header, "target datalayout = %q\n", dataLayout)
	}

	var body strings.Builder
	strConsts := map[string]string{}
	var strOrder []string
	nextStr := 0

	for _, sv := range mod.Statics {
		body.WriteString(renderStatic(layouts, sv))
	}
	for _, entry := range mod.Strings {
		if _, ok := strConsts[entry.Value]; !ok {
			strConsts[entry.Value] = "@" + entry.Symbol
			strOrder = append(strOrder, entry.Value)
		}
	}

	for _, fn := range mod.Functions {
		symbol := fn.Name
		if fn.Extern.IsExtern && fn.Extern.Symbol != "" {
			symbol = fn.Extern.Symbol
		} else {
			symbol = mangler.Mangle(fn.Name)
		}
		sig := signature.Build(layouts, symbol, fn)

		if !fn.IsDefinition() {
			body.WriteString(fmt.Sprintf("declare %s @%s(%s)\n", sig.ReturnTypeText(), sig.Symbol, sig.ParamListText()))
			continue
		}

		res, err := function.EmitFunction(layouts, catalog, meta, sig, fn, arch)
		if err != nil {
			return "", errors.Wrapf(err, "emitting function %s", fn.Name)
		}

		text := res.Text
		replacements := map[string]string{}
		for _, literal := range res.StringOrder {
			localSym := res.StringConsts[literal]
			global, ok := strConsts[literal]
			if !ok {
				global = fmt.Sprintf("@.str.%d", nextStr)
				nextStr++
				strConsts[literal] = global
				strOrder = append(strOrder, literal)
			}
			replacements[localSym] = global
		}
		if len(replacements) > 0 {
			text = localStrSymbolRe.ReplaceAllStringFunc(text, func(m string) string {
				if r, ok := replacements[m]; ok {
					return r
				}
				return m
			})
		}
		body.WriteString(text)
	}

	body.WriteString(renderVtables("trait", mod.TraitVtables))
	body.WriteString(renderVtables("class", mod.ClassVtables))
	body.WriteString(synthesizeDropGlue(layouts))

	var globals strings.Builder
	for _, literal := range strOrder {
		globals.WriteString(renderStringGlobal(strConsts[literal], literal))
	}

	var declares strings.Builder
	bodyText := body.String()
	decls := catalog.Declared()
	sort.Slice(decls, func(i, j int) bool { return decls[i].Symbol < decls[j].Symbol })
	for _, d := range decls {
		if !strings.Contains(bodyText, "@"+d.Symbol+"(") {
			continue
		}
		declares.WriteString(d.Declare())
		declares.WriteString("\n")
	}

	var metaDefs strings.Builder
	for _, d := range meta.Definitions() {
		metaDefs.WriteString(d)
		metaDefs.WriteString("\n")
	}

	var out strings.Builder
	out.WriteString(header.String())
	out.WriteString(globals.String())
	out.WriteString(bodyText)
	out.WriteString(declares.String())
	out.WriteString(metaDefs.String())
	return out.String(), nil
}

func renderStatic(layouts *layout.Table, sv mir.StaticVar) string {
	llty := layouts.LLVMType(sv.Ty)
	init := "zeroinitializer"
	if sv.Init != nil {
		init = constInitText(*sv.Init)
	}
	qualifier := "global"
	if !sv.Mutable {
		qualifier = "constant"
	}
	return fmt.Sprintf("@%s = %s %s %s\n", sv.Symbol, qualifier, llty, init)
}

func constInitText(c mir.ConstOperand) string {
	switch c.Kind {
	case mir.ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case mir.ConstUint:
		return fmt.Sprintf("%d", c.Uint)
	case mir.ConstBool:
		if c.Bool {
			return "true"
		}
		return "false"
	default:
		return "zeroinitializer"
	}
}

// renderVtables emits one `@vtable.<Name> = global { [N x ptr] } { ... }` per entry (kind is not
// part of the symbol), following the `@vtable.Trait.for.Type` global convention malphas-lang's
// vtables.go uses for its existential dispatch tables.
func renderVtables(kind string, tables []mir.Vtable) string {
	var b strings.Builder
	for _, vt := range tables {
		var slots []string
		for _, e := range vt.Entries {
			slots = append(slots, fmt.Sprintf("ptr @%s", e.Symbol))
		}
		fmt.Fprintf(&b, "@vtable.%s = global { [%d x ptr] } { [%d x ptr] [ %s ] }\n",
			vt.Name, len(vt.Entries), len(vt.Entries), strings.Join(slots, ", "))
	}
	return b.String()
}

func renderStringGlobal(symbol, literal string) string {
	trimmed := strings.TrimPrefix(symbol, "@")
	var esc strings.Builder
	for _, c := range []byte(literal + "\x00") {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			esc.WriteByte(c)
		} else {
			fmt.Fprintf(&esc, "\\%02X", c)
		}
	}
	return fmt.Sprintf("@%s = private unnamed_addr constant [%d x i8] c\"%s\"\n",
		trimmed, len(literal)+1, esc.String())
}

// localStrSymbolRe matches a function-local string-constant symbol (C8 numbers these starting at
// @.str.0 per function); the module emitter rewrites each to its module-wide global symbol using
// the exact literal->symbol map C8 returns in function.Result, rather than reconstructing it from
// the rendered text.
var localStrSymbolRe = regexp.MustCompile(`@\.str\.\d+\b`)
