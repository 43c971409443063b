package mp4box

import (
	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// registerAC3Types wires ac-3/ec-3 (sample entries) and their dac3/dec3
// configuration children, grounded directly on
// original_source/src/atom_ac3.cpp and atom_dec3.cpp.
func registerAC3Types(reg *Registry) {
	reg.register(&typeDef{
		Type:          "ac-3",
		Container:     true,
		OpenChildren:  true,
		NewProperties: audioSampleEntryProps,
		ExpectedChildren: []expectedChildSpec{
			{Type: "dac3", Mandatory: true, OnlyOne: true},
		},
	})
	reg.register(&typeDef{
		Type:          "ec-3",
		Container:     true,
		OpenChildren:  true,
		NewProperties: audioSampleEntryProps,
		ExpectedChildren: []expectedChildSpec{
			{Type: "dec3", Mandatory: true, OnlyOne: true},
		},
	})

	reg.register(&typeDef{
		Type: "dac3",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{
				boxval.NewBitfield("fscod", 2),
				boxval.NewBitfield("bsid", 5),
				boxval.NewBitfield("bsmod", 3),
				boxval.NewBitfield("acmod", 3),
				boxval.NewBitfield("lfeon", 1),
				boxval.NewBitfield("bitRateCode", 5),
				boxval.NewBitfield("reserved", 5),
			}
		},
		Dump: dumpDac3,
	})

	reg.register(&typeDef{
		Type:           "dec3",
		NewProperties:  newDec3Properties,
		ReadProperties: readDec3,
		Generate:       generateDec3,
		Dump:           dumpDec3,
	})
}

// generateDec3 mirrors readDec3's conditional tail so a freshly generated
// dec3 carries the same reserved-bit-or-chan_loc property its own Read
// would produce for the generated numDepSub value (zero by default). It
// rebuilds a.Properties from scratch each call, the same way readDec3
// rebuilds props from scratch, so repeated Generate() calls stay idempotent.
func generateDec3(a *Atom) {
	props := newDec3Properties()
	for _, p := range props {
		p.Generate()
	}
	numDepSub := props[8].(*boxval.BitfieldProperty).Value()
	if numDepSub > 0 {
		chanLoc := boxval.NewBitfield("chanLoc", 9)
		chanLoc.Generate()
		props = append(props, chanLoc)
	} else {
		reserved2 := boxval.NewBitfield("reserved2", 1)
		reserved2.Generate()
		props = append(props, reserved2)
	}
	a.Properties = props
}

func newDec3Properties() []boxval.Property {
	return []boxval.Property{
		boxval.NewBitfield("dataRate", 13),
		boxval.NewBitfield("numIndSub", 3),
		boxval.NewBitfield("fscod", 2),
		boxval.NewBitfield("bsid", 5),
		boxval.NewBitfield("bsmod", 5),
		boxval.NewBitfield("acmod", 3),
		boxval.NewBitfield("lfeon", 1),
		func() boxval.Property {
			p := boxval.NewBitfield("reserved", 3)
			p.SetReadOnly(true)
			return p
		}(),
		boxval.NewBitfield("numDepSub", 4),
	}
}

// readDec3 implements Pattern A (spec.md §4.2): after the base 39-bit
// layout, the atom's total width depends on numDepSub — a 9-bit chan_loc
// field when dependent substreams are present, otherwise a single
// reserved bit, rounding the atom to a whole number of bytes either way
// (39 base bits + 9 == 48, or 39 + 1 == 40). This is the conditional-tail
// behavior grounded on atom_dec3.cpp's Read() override.
func readDec3(a *Atom, r *iobox.BitReader) error {
	props := newDec3Properties()
	if err := readSequential(props, r); err != nil {
		return err
	}
	numDepSub := props[8].(*boxval.BitfieldProperty).Value()
	if numDepSub > 0 {
		chanLoc := boxval.NewBitfield("chanLoc", 9)
		if err := chanLoc.Read(r); err != nil {
			return err
		}
		props = append(props, chanLoc)
	} else {
		reserved2 := boxval.NewBitfield("reserved2", 1)
		if err := reserved2.Read(r); err != nil {
			return err
		}
		props = append(props, reserved2)
	}
	a.Properties = props
	return nil
}

var fscodLabels = map[uint64]string{0: "48 kHz", 1: "44.1 kHz", 2: "32 kHz", 3: "Reserved"}
var bsmodLabels = []string{
	"Complete Main", "Music and Effects", "Visually Impaired", "Hearing Impaired",
	"Dialogue", "Commentary", "Emergency", "Voice Over",
}
var acmodLabels = []string{
	"1+1 (Ch1, Ch2)", "1/0 (C)", "2/0 (L, R)", "3/0 (L, C, R)",
	"2/1 (L, R, S)", "3/1 (L, C, R, S)", "2/2 (L, R, SL, SR)", "3/2 (L, C, R, SL, SR)",
}

// dumpAc3Bitfields renders each property's raw value, plus a decoded
// human-readable label for the enumerated fields (fscod, bsmod, acmod,
// lfeon), per original_source/src/atom_dec3.cpp's Dump().
func dumpAc3Bitfields(a *Atom, log *mlog.Log, indent int) {
	for _, p := range a.Properties {
		p.Dump(log, indent)
		bf, ok := p.(*boxval.BitfieldProperty)
		if !ok {
			continue
		}
		switch bf.Name() {
		case "fscod":
			log.Dump(indent+1, mlog.LevelVerbose1, "= %s", fscodLabels[bf.Value()])
		case "bsmod":
			if int(bf.Value()) < len(bsmodLabels) {
				log.Dump(indent+1, mlog.LevelVerbose1, "= %s", bsmodLabels[bf.Value()])
			}
		case "acmod":
			if int(bf.Value()) < len(acmodLabels) {
				log.Dump(indent+1, mlog.LevelVerbose1, "= %s", acmodLabels[bf.Value()])
			}
		case "lfeon":
			state := "DISABLED"
			if bf.Value() != 0 {
				state = "ENABLED"
			}
			log.Dump(indent+1, mlog.LevelVerbose1, "= %s", state)
		}
	}
}

func dumpDac3(a *Atom, log *mlog.Log, indent int) {
	dumpAc3Bitfields(a, log, indent)
}

func dumpDec3(a *Atom, log *mlog.Log, indent int) {
	dumpAc3Bitfields(a, log, indent)
}
