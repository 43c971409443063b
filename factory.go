package mp4box

// dispatch resolves (parent, fourcc) to a type definition, in two phases
// per spec.md §4.4: parent-context dispatch first, then four-char type
// dispatch, falling back to the opaque standard atom.
func (reg *Registry) dispatch(parent *Atom, fourcc string) *typeDef {
	if def := reg.contextDispatch(parent, fourcc); def != nil {
		return def
	}
	if def, ok := reg.byType[fourcc]; ok {
		return def
	}
	return standardDef()
}

// contextDispatch implements the parent-chain-dependent cases: metadata
// item/value atoms under ilst, freeform keys under '----', the iTMF
// handler variant under meta, and the closed set of udta leaf types.
func (reg *Registry) contextDispatch(parent *Atom, fourcc string) *typeDef {
	if parent == nil {
		return nil
	}

	// ilst nested inside ilst is explicitly rejected: such an inner
	// "ilst" falls through to the standard container path instead of
	// being treated as a metadata item.
	if fourcc == "ilst" && descendsFrom(parent, "ilst") {
		def := standardDef()
		def.Container = true
		def.NewProperties = nil
		return def
	}

	switch parent.Type {
	case "ilst":
		// Every direct child of ilst is a metadata item atom keyed by
		// its own four-char type (©nam, covr, aART, a reverse-DNS
		// '----', ...), holding an optional 'data' value child (plus
		// 'mean'/'name' for '----').
		return newMetadataItemDef(fourcc)

	case "----":
		if fourcc == "mean" || fourcc == "name" {
			return newFreeformKeyDef(fourcc)
		}

	case "meta":
		// The iTMF handler variant is schema-identical to the ordinary
		// track/media hdlr atom; reuse its registered definition rather
		// than duplicating it.
		if fourcc == "hdlr" {
			if def, ok := reg.byType["hdlr"]; ok {
				return def
			}
		}

	case "udta":
		if isUDTALeaf(fourcc) {
			return newUDTALeafDef(fourcc)
		}
	}

	// A metadata item atom's own 'data' child is the value atom; item
	// atoms are themselves direct children of ilst, so this is
	// recognized by the grandparent being ilst.
	if fourcc == "data" && parent.Parent != nil && parent.Parent.Type == "ilst" {
		return newMetadataValueDef()
	}

	return nil
}
