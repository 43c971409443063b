package mp4box

import (
	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/diag"
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// typeDef is one registered atom type's schema and behavior overrides.
// Most atoms need only NewProperties and ExpectedChildren; the Pattern
// A/B/C hooks described in spec §4.2 are filled in only where a type
// genuinely needs conditional behavior.
type typeDef struct {
	Type string

	// NewProperties builds a fresh, independent property list for one
	// atom instance. nil for pure container types (Pattern C).
	NewProperties func() []boxval.Property

	// ExpectedChildren declares this type's permitted/required child
	// types. Declaring any entries (or setting Container) causes Read
	// to recurse into child atoms after properties.
	ExpectedChildren []expectedChildSpec
	Container        bool

	// OpenChildren marks a container whose child set is open-ended and
	// dispatched polymorphically (stsd's sample entries, ilst's
	// metadata items) rather than declared via ExpectedChildren: an
	// unlisted child here is normal, not a diagnostic.
	OpenChildren bool

	// ReadProperties overrides the generic sequential property read,
	// for Pattern A (conditional tail fields). nil uses the generic
	// walk over the atom's Properties.
	ReadProperties func(a *Atom, r *iobox.BitReader) error

	// WriteProperties mirrors ReadProperties for the write path. nil
	// uses the generic sequential write.
	WriteProperties func(a *Atom, w *iobox.BitWriter) error

	// AfterRead runs once properties and children have both been read,
	// for Pattern B (count-governed tail reconciliation).
	AfterRead func(a *Atom, errs *diag.Sink)

	// Generate runs after the generic per-property Generate, for types
	// whose defaults need more than each property's zero value (e.g.
	// ftyp's major brand).
	Generate func(a *Atom)

	// Dump overrides the generic property-list dump.
	Dump func(a *Atom, log *mlog.Log, indent int)
}

type expectedChildSpec struct {
	Type      string
	Mandatory bool
	OnlyOne   bool
}

// Registry is the set of recognized atom types plus the standard-atom
// fallback used for anything unrecognized, mirroring
// original_source/src/mp4atom.cpp's factory() dispatch table.
type Registry struct {
	byType map[string]*typeDef
}

// NewRegistry returns a Registry with every built-in atom type
// registered (registry_*.go files).
func NewRegistry() *Registry {
	reg := &Registry{byType: make(map[string]*typeDef)}
	registerContainerTypes(reg)
	registerMovieTypes(reg)
	registerSampleTableTypes(reg)
	registerSampleEntryTypes(reg)
	registerAC3Types(reg)
	registerMetaTypes(reg)
	registerHintTypes(reg)
	registerMiscTypes(reg)
	return reg
}

// register adds def under def.Type. Panics on a duplicate registration,
// a programmer error caught at init time (mirrors the duplicate-key
// defects the teacher's own unported mp4/atom.go left in place).
func (reg *Registry) register(def *typeDef) {
	if _, dup := reg.byType[def.Type]; dup {
		panic("mp4box: duplicate atom type registration: " + def.Type)
	}
	reg.byType[def.Type] = def
}

func standardDef() *typeDef {
	return &typeDef{
		Type: "",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{boxval.NewBytesToEnd("data")}
		},
	}
}

// New constructs an atom of type fourcc as a child of parent, via the
// two-phase factory dispatch in factory.go. parent may be nil for an atom
// built detached from any tree, in which case context dispatch is skipped;
// the synthetic file root itself comes from NewRoot.
func (reg *Registry) New(parent *Atom, fourcc string) *Atom {
	def := reg.dispatch(parent, fourcc)
	a := &Atom{Type: fourcc, HasExtended: fourcc == "uuid", def: def, reg: reg, openChildren: def.OpenChildren}
	if def.NewProperties != nil {
		a.Properties = def.NewProperties()
	}
	for _, ec := range def.ExpectedChildren {
		a.expectChild(ec.Type, ec.Mandatory, ec.OnlyOne)
	}
	return a
}

// NewRoot constructs the synthetic, typeless file-root container atom
// that owns top-level atoms (ftyp, moov, mdat, free, ...). None of them is
// mandatory; ftyp and moov may each appear at most once.
func (reg *Registry) NewRoot() *Atom {
	def := &typeDef{Type: "", Container: true}
	root := &Atom{Type: "", def: def, reg: reg}
	for _, typ := range []string{"ftyp", "moov", "mdat", "free", "skip", "udta", "meta", "uuid", "moof", "mfra"} {
		root.expectChild(typ, false, typ == "ftyp" || typ == "moov")
	}
	return root
}
