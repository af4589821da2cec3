package layout

import "chicc/internal/mir"

// FinalizeAutoTraits resolves every registered Struct/Class/Union/Enum layout's auto-traits by
// fixed-point propagation over field types (spec.md §4.2). It must be called once, after every
// type in the module has been registered, and before emission: TyRequiresDrop (through
// TypeLayout.RequiresDrop) consults the finalized Drop state for Named types.
func (t *Table) FinalizeAutoTraits() {
	for {
		changed := false
		for _, l := range t.byName {
			if l.Kind == KindEnum {
				changed = finalizeEnum(l) || changed
				continue
			}
			changed = t.finalizeStructLike(l) || changed
		}
		if !changed {
			break
		}
	}
	// Conservative defaults for anything still Unknown after the fixed point (spec.md §4.2):
	// "no" for Copy/Send/Sync/Default/Hash/Eq, "yes" for Drop.
	for _, l := range t.byName {
		def(&l.AutoTraits.Copy, No)
		def(&l.AutoTraits.Send, No)
		def(&l.AutoTraits.Sync, No)
		def(&l.AutoTraits.Default, No)
		def(&l.AutoTraits.Hash, No)
		def(&l.AutoTraits.Eq, No)
		def(&l.AutoTraits.Drop, Yes)
	}
}

func def(v *TriState, fallback TriState) {
	if *v == Unknown {
		*v = fallback
	}
}

// finalizeStructLike resolves one Struct/Class/Union layout's traits from its fields' current
// (possibly still-Unknown) states, returning whether anything changed this pass.
func (t *Table) finalizeStructLike(l *TypeLayout) bool {
	before := l.AutoTraits

	hasDispose := l.Dispose != ""
	allCopy, allSend, allSync, allDefault, allHash, allEq := Yes, Yes, Yes, Yes, Yes, Yes
	anyDrop := hasDispose
	dropUnknown := false
	anyUnknown := false

	for _, f := range l.Fields {
		fs := t.fieldAutoTraits(f.Ty)
		allCopy = meet(allCopy, fs.Copy)
		allSend = meet(allSend, fs.Send)
		allSync = meet(allSync, fs.Sync)
		allDefault = meet(allDefault, fs.Default)
		allHash = meet(allHash, fs.Hash)
		allEq = meet(allEq, fs.Eq)
		if fs.Drop == Yes {
			anyDrop = true
		} else if fs.Drop == Unknown {
			dropUnknown = true
		}
		if fs.Copy == Unknown || fs.Send == Unknown || fs.Sync == Unknown ||
			fs.Default == Unknown || fs.Hash == Unknown || fs.Eq == Unknown {
			anyUnknown = true
		}
	}
	if hasDispose {
		allCopy = No
	}

	if !anyUnknown {
		l.AutoTraits.Copy = allCopy
		l.AutoTraits.Send = allSend
		l.AutoTraits.Sync = allSync
		l.AutoTraits.Default = allDefault
		l.AutoTraits.Hash = allHash
		l.AutoTraits.Eq = allEq
	} else if hasDispose {
		l.AutoTraits.Copy = No
	}
	if anyDrop {
		l.AutoTraits.Drop = Yes
	} else if !dropUnknown {
		l.AutoTraits.Drop = No
	}
	return l.AutoTraits != before
}

func finalizeEnum(l *TypeLayout) bool {
	before := l.AutoTraits
	allCopy := Yes
	for _, v := range l.Variants {
		if len(v.Fields) > 0 {
			allCopy = No
			break
		}
	}
	l.AutoTraits.Copy = allCopy
	l.AutoTraits.Eq = Yes
	l.AutoTraits.Hash = Yes
	l.AutoTraits.Default = No
	l.AutoTraits.Send = Yes
	l.AutoTraits.Sync = Yes
	l.AutoTraits.Drop = No
	return l.AutoTraits != before
}

// meet combines two TriStates conjunctively: No dominates, then Unknown, then Yes.
func meet(a, b TriState) TriState {
	if a == No || b == No {
		return No
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	return Yes
}

// fieldAutoTraits returns the current auto-trait state contributed by a field's Ty: structural
// wrapper types (pointers, strings, vecs, ...) have fixed, known traits; Named types defer to
// their own (possibly still-Unknown) layout entry.
func (t *Table) fieldAutoTraits(ty mir.Ty) AutoTraits {
	switch ty.Kind {
	case mir.KString, mir.KVec, mir.KSpan, mir.KRc, mir.KArc:
		return AutoTraits{Copy: No, Send: No, Sync: No, Default: No, Hash: No, Eq: No, Drop: Yes}
	case mir.KPointer, mir.KRef:
		return AutoTraits{Copy: Yes, Send: No, Sync: No, Default: No, Hash: Yes, Eq: Yes, Drop: No}
	case mir.KTraitObject, mir.KFn:
		return AutoTraits{Copy: No, Send: Unknown, Sync: Unknown, Default: No, Hash: No, Eq: No, Drop: No}
	case mir.KNamed:
		if l, ok := t.Lookup(ty); ok {
			return l.AutoTraits
		}
		return AutoTraits{Copy: Yes, Send: Yes, Sync: Yes, Default: Yes, Hash: Yes, Eq: Yes, Drop: No}
	case mir.KTuple:
		at := AutoTraits{Copy: Yes, Send: Yes, Sync: Yes, Default: Yes, Hash: Yes, Eq: Yes, Drop: No}
		for _, e := range ty.Elems {
			fs := t.fieldAutoTraits(e)
			at.Copy = meet(at.Copy, fs.Copy)
			at.Send = meet(at.Send, fs.Send)
			at.Sync = meet(at.Sync, fs.Sync)
			at.Default = meet(at.Default, fs.Default)
			at.Hash = meet(at.Hash, fs.Hash)
			at.Eq = meet(at.Eq, fs.Eq)
			if fs.Drop == Yes {
				at.Drop = Yes
			}
		}
		return at
	default:
		return AutoTraits{Copy: Yes, Send: Yes, Sync: Yes, Default: Yes, Hash: Yes, Eq: Yes, Drop: No}
	}
}
