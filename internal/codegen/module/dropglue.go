package module

import (
	"fmt"
	"strings"

	"chicc/internal/layout"
	"chicc/internal/mir"
)

// synthesizeDropGlue renders one `drop_glue.<Name>` function per registered layout that requires
// a drop (spec.md §4.6.9), in the same fixed-runtime-call-or-recurse style
// internal/codegen/function's lowerDrop uses for a place it already holds an address for: the
// glue function receives that address as its sole `ptr` argument and has no return value.
//
// Struct/class/union layouts drop every field that itself requires a drop, in field order, plus
// the type's own Dispose hook if one is registered. Enum layouts switch on the discriminant and
// drop only the matched variant's droppable fields, since an enum's payload bytes are shared
// storage across variants.
func synthesizeDropGlue(layouts *layout.Table) string {
	var b strings.Builder
	for _, l := range layouts.All() {
		if !l.RequiresDrop(layouts) {
			continue
		}
		symbol := "drop_glue." + l.Name
		fmt.Fprintf(&b, "define void @%s(ptr %%arg0) {\n", symbol)
		switch l.Kind {
		case layout.KindEnum:
			writeEnumDropGlue(&b, layouts, l)
		default:
			writeStructDropGlue(&b, layouts, l)
		}
		if l.Dispose != "" {
			fmt.Fprintf(&b, "  call void @%s(ptr %%arg0)\n", l.Dispose)
		}
		b.WriteString("  ret void\n}\n")
	}
	return b.String()
}

// writeStructDropGlue emits one field-pointer GEP plus a drop dispatch per droppable field of a
// struct/class/union layout.
func writeStructDropGlue(b *strings.Builder, layouts *layout.Table, l *layout.TypeLayout) {
	structTy := layouts.LLVMType(mir.Named(l.Name))
	reg := 0
	next := func() string {
		reg++
		return fmt.Sprintf("%%f%d", reg)
	}
	for _, f := range l.Fields {
		if !layout.TyRequiresDrop(layouts, f.Ty) {
			continue
		}
		addr := next()
		fmt.Fprintf(b, "  %s = getelementptr %s, ptr %%arg0, i32 0, i32 %d\n", addr, structTy, f.Index)
		writeDropDispatch(b, layouts, addr, f.Ty)
	}
}

// writeEnumDropGlue switches on the enum's discriminant and drops only the matched variant's
// droppable fields, reading each from the shared byte-array payload at its recorded offset.
func writeEnumDropGlue(b *strings.Builder, layouts *layout.Table, l *layout.TypeLayout) {
	underlying := layouts.LLVMType(l.UnderlyingTy)
	enumTy := layouts.LLVMType(mir.Named(l.Name))
	fmt.Fprintf(b, "  %%tag.ptr = getelementptr %s, ptr %%arg0, i32 0, i32 0\n", enumTy)
	fmt.Fprintf(b, "  %%tag = load %s, ptr %%tag.ptr\n", underlying)

	var droppable []layout.EnumVariant
	for _, v := range l.Variants {
		for _, f := range v.Fields {
			if layout.TyRequiresDrop(layouts, f.Ty) {
				droppable = append(droppable, v)
				break
			}
		}
	}
	fmt.Fprintf(b, "  switch %s %%tag, label %%enum.done [\n", underlying)
	for _, v := range droppable {
		fmt.Fprintf(b, "    %s %d, label %%enum.variant.%d\n", underlying, v.Discriminant, v.Index)
	}
	b.WriteString("  ]\n")

	reg := 0
	next := func() string {
		reg++
		return fmt.Sprintf("%%v%d", reg)
	}
	for _, v := range droppable {
		fmt.Fprintf(b, "enum.variant.%d:\n", v.Index)
		payload := next()
		fmt.Fprintf(b, "  %s = getelementptr %s, ptr %%arg0, i32 0, i32 1\n", payload, enumTy)
		for _, f := range v.Fields {
			if !layout.TyRequiresDrop(layouts, f.Ty) {
				continue
			}
			addr := next()
			fmt.Fprintf(b, "  %s = getelementptr i8, ptr %s, i64 %d\n", addr, payload, f.Offset)
			writeDropDispatch(b, layouts, addr, f.Ty)
		}
		b.WriteString("  br label %enum.done\n")
	}
	b.WriteString("enum.done:\n")
}

// writeDropDispatch emits a single drop call for addr holding a value of ty: the fixed runtime
// entry point for String/Vec/Rc/Arc, a recursive drop_glue call for a registered named layout, or
// chic_rt_drop_missing as a last resort.
func writeDropDispatch(b *strings.Builder, layouts *layout.Table, addr string, ty mir.Ty) {
	switch ty.Kind {
	case mir.KString:
		fmt.Fprintf(b, "  call void @chic_rt_string_drop(ptr %s)\n", addr)
		return
	case mir.KVec:
		fmt.Fprintf(b, "  call void @chic_rt_vec_drop(ptr %s)\n", addr)
		return
	case mir.KRc:
		fmt.Fprintf(b, "  call void @chic_rt_rc_drop(ptr %s)\n", addr)
		return
	case mir.KArc:
		fmt.Fprintf(b, "  call void @chic_rt_arc_drop(ptr %s)\n", addr)
		return
	}
	if _, ok := layouts.Lookup(ty); ok {
		fmt.Fprintf(b, "  call void @drop_glue.%s(ptr %s)\n", ty.CanonicalName(), addr)
		return
	}
	fmt.Fprintf(b, "  call void @chic_rt_drop_missing(ptr %s)\n", addr)
}
