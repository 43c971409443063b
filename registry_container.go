package mp4box

// registerContainerTypes wires up the Pattern C atoms from spec.md §4.2:
// container-only types whose schema is entirely expected-children, no
// properties of their own, so the generic read/write path suffices.
func registerContainerTypes(reg *Registry) {
	containers := []struct {
		typ      string
		children []expectedChildSpec
	}{
		{"moov", []expectedChildSpec{
			{Type: "mvhd", Mandatory: true, OnlyOne: true},
			{Type: "trak", Mandatory: false, OnlyOne: false},
			{Type: "udta", Mandatory: false, OnlyOne: true},
			{Type: "meta", Mandatory: false, OnlyOne: true},
			{Type: "mvex", Mandatory: false, OnlyOne: true},
		}},
		{"trak", []expectedChildSpec{
			{Type: "tkhd", Mandatory: true, OnlyOne: true},
			{Type: "edts", Mandatory: false, OnlyOne: true},
			{Type: "mdia", Mandatory: true, OnlyOne: true},
			{Type: "udta", Mandatory: false, OnlyOne: true},
		}},
		{"mdia", []expectedChildSpec{
			{Type: "mdhd", Mandatory: true, OnlyOne: true},
			{Type: "hdlr", Mandatory: true, OnlyOne: true},
			{Type: "minf", Mandatory: true, OnlyOne: true},
		}},
		{"minf", []expectedChildSpec{
			{Type: "vmhd", Mandatory: false, OnlyOne: true},
			{Type: "smhd", Mandatory: false, OnlyOne: true},
			{Type: "nmhd", Mandatory: false, OnlyOne: true},
			{Type: "gmin", Mandatory: false, OnlyOne: true},
			{Type: "dinf", Mandatory: true, OnlyOne: true},
			{Type: "stbl", Mandatory: true, OnlyOne: true},
			{Type: "hdlr", Mandatory: false, OnlyOne: true},
		}},
		{"stbl", []expectedChildSpec{
			{Type: "stsd", Mandatory: true, OnlyOne: true},
			{Type: "stts", Mandatory: true, OnlyOne: true},
			{Type: "stsc", Mandatory: true, OnlyOne: true},
			{Type: "stsz", Mandatory: false, OnlyOne: true},
			{Type: "stz2", Mandatory: false, OnlyOne: true},
			{Type: "stco", Mandatory: false, OnlyOne: true},
			{Type: "co64", Mandatory: false, OnlyOne: true},
			{Type: "stss", Mandatory: false, OnlyOne: true},
			{Type: "ctts", Mandatory: false, OnlyOne: true},
			{Type: "stdp", Mandatory: false, OnlyOne: true},
			{Type: "sdtp", Mandatory: false, OnlyOne: true},
			{Type: "cslg", Mandatory: false, OnlyOne: true},
		}},
		{"udta", nil},
		{"meta", []expectedChildSpec{
			{Type: "hdlr", Mandatory: true, OnlyOne: true},
			{Type: "ilst", Mandatory: false, OnlyOne: true},
		}},
		{"edts", []expectedChildSpec{
			{Type: "elst", Mandatory: false, OnlyOne: true},
		}},
		{"mvex", nil},
		{"dinf", []expectedChildSpec{
			{Type: "dref", Mandatory: true, OnlyOne: true},
		}},
		{"hnti", nil},
		{"hinf", nil},
		{"tref", nil},
		{"----", []expectedChildSpec{
			{Type: "mean", Mandatory: false, OnlyOne: true},
			{Type: "name", Mandatory: false, OnlyOne: true},
			{Type: "data", Mandatory: false, OnlyOne: true},
		}},
	}

	for _, c := range containers {
		reg.register(&typeDef{
			Type:             c.typ,
			Container:        true,
			ExpectedChildren: c.children,
		})
	}

	// ilst's children are metadata item atoms keyed by an arbitrary
	// four-char code (dispatched by factory.go's context rules), not a
	// declarable closed set, so it is open-ended like stsd's sample
	// entries: an "unlisted" child here is the normal case.
	reg.register(&typeDef{
		Type:         "ilst",
		Container:    true,
		OpenChildren: true,
	})
}
