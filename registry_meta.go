package mp4box

import (
	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/iobox"
)

// udtaLeafTypes is the closed set of QuickTime user-data counted-string
// leaf types, carried forward verbatim from the 2007 QTFF snapshot in
// original_source/src/mp4atom.cpp's UDTA_ELEMENTS (see DESIGN.md Open
// Question 2: no future-proofing hook is added here).
var udtaLeafTypes = map[string]bool{
	"\xa9arg": true, "\xa9ark": true, "\xa9cok": true, "\xa9com": true, "\xa9cpy": true,
	"\xa9day": true, "\xa9dir": true, "\xa9ed1": true, "\xa9ed2": true, "\xa9ed3": true,
	"\xa9ed4": true, "\xa9ed5": true, "\xa9ed6": true, "\xa9ed7": true, "\xa9ed8": true,
	"\xa9ed9": true, "\xa9fmt": true, "\xa9inf": true, "\xa9isr": true, "\xa9lab": true,
	"\xa9lal": true, "\xa9mak": true, "\xa9nak": true, "\xa9nam": true, "\xa9pdk": true,
	"\xa9phg": true, "\xa9prd": true, "\xa9prf": true, "\xa9prk": true, "\xa9prl": true,
	"\xa9req": true, "\xa9snk": true, "\xa9snm": true, "\xa9src": true, "\xa9swf": true,
	"\xa9swk": true, "\xa9swr": true, "\xa9wrt": true, "Allf": true, "name": true,
	"LOOP": true, "ptv ": true, "SelO": true, "WLOC": true,
}

func isUDTALeaf(fourcc string) bool { return udtaLeafTypes[fourcc] }

func newUDTALeafDef(fourcc string) *typeDef {
	return &typeDef{
		Type: fourcc,
		NewProperties: func() []boxval.Property {
			return []boxval.Property{boxval.NewMacRomanString("value", boxval.FramingCounted16)}
		},
	}
}

// newMetadataItemDef builds the schema for one ilst item atom: a
// container keyed by an arbitrary four-char type (©nam, covr, aART, a
// reverse-DNS '----', ...) holding an optional 'data' value child and,
// for '----' items, optional 'mean' and 'name' key children.
func newMetadataItemDef(fourcc string) *typeDef {
	return &typeDef{
		Type:      fourcc,
		Container: true,
		ExpectedChildren: []expectedChildSpec{
			{Type: "data", Mandatory: false, OnlyOne: true},
			{Type: "mean", Mandatory: false, OnlyOne: true},
			{Type: "name", Mandatory: false, OnlyOne: true},
		},
	}
}

// newMetadataValueDef builds the schema for an ilst item's 'data' child:
// a 32-bit well-known-type indicator, a 32-bit locale/reserved word, and
// the raw value bytes, per the iTunes metadata convention.
func newMetadataValueDef() *typeDef {
	return &typeDef{
		Type: "data",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{
				boxval.NewInt("typeIndicator", 32),
				boxval.NewInt("locale", 32),
				boxval.NewBytesToEnd("value"),
			}
		},
	}
}

// newFreeformKeyDef builds the schema for '----'s mean/name children: a
// version+flags full-box header followed by the raw key string.
func newFreeformKeyDef(fourcc string) *typeDef {
	return &typeDef{
		Type: fourcc,
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(), boxval.NewString("value", boxval.FramingToEnd))
		},
	}
}

// registerMetaTypes wires the chapter-list atom; the ilst item/value/
// freeform-key/udta-leaf schemas above are constructed on demand by
// factory.go's context dispatch rather than pre-registered by type, since
// their type code is not fixed.
func registerMetaTypes(reg *Registry) {
	reg.register(&typeDef{
		Type: "chpl",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(), boxval.NewBytes("reserved", 4), boxval.NewInt("entryCount", 8))
		},
		ReadProperties: readChpl,
	})
}

func readChpl(a *Atom, r *iobox.BitReader) error {
	version := boxval.NewInt("version", 8)
	flags := boxval.NewInt("flags", 24)
	reserved := boxval.NewBytes("reserved", 4)
	entryCount := boxval.NewInt("entryCount", 8)
	for _, p := range []boxval.Property{version, flags, reserved, entryCount} {
		if err := p.Read(r); err != nil {
			return err
		}
	}
	table := boxval.NewTable("chapters", func() []boxval.Property {
		return []boxval.Property{
			boxval.NewInt("startTime", 64),
			boxval.NewString("title", boxval.FramingCounted8),
		}
	})
	if err := table.ReadRows(r, uint32(entryCount.Value())); err != nil {
		return err
	}
	a.Properties = []boxval.Property{version, flags, reserved, entryCount, table}
	return nil
}
