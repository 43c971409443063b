package mp4box

import (
	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/iobox"
)

// registerMiscTypes wires the free-space placeholders, media data, pixel
// aspect ratio / color parameter leaves, the OMA DRM common header, the
// fragment header/run boxes (flags-gated optional fields per ISO/IEC
// 14496-12 §8.8.7/8.8.8), and the generic extended-type uuid atom.
func registerMiscTypes(reg *Registry) {
	reg.register(&typeDef{Type: "free", NewProperties: func() []boxval.Property {
		return []boxval.Property{boxval.NewBytesToEnd("data")}
	}})
	reg.register(&typeDef{Type: "skip", NewProperties: func() []boxval.Property {
		return []boxval.Property{boxval.NewBytesToEnd("data")}
	}})
	reg.register(&typeDef{Type: "mdat", NewProperties: func() []boxval.Property {
		return []boxval.Property{boxval.NewBytesToEnd("data")}
	}})

	reg.register(&typeDef{
		Type: "pasp",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{
				boxval.NewInt("hSpacing", 32),
				boxval.NewInt("vSpacing", 32),
			}
		},
	})
	reg.register(&typeDef{
		Type: "colr",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{
				boxval.NewFixedString("colorParameterType", 4),
				boxval.NewInt("primariesIndex", 16),
				boxval.NewInt("transferFunctionIndex", 16),
				boxval.NewInt("matrixIndex", 16),
			}
		},
	})
	reg.register(&typeDef{
		Type: "href",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(), boxval.NewString("baseURL", boxval.FramingCounted8))
		},
	})
	reg.register(&typeDef{
		Type: "ohdr",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{boxval.NewBytesToEnd("data")}
		},
	})

	reg.register(&typeDef{
		Type:           "tfhd",
		NewProperties:  newTfhdBaseProperties,
		ReadProperties: readTfhd,
	})
	reg.register(&typeDef{
		Type:           "trun",
		NewProperties:  newTrunBaseProperties,
		ReadProperties: readTrun,
	})

	reg.register(&typeDef{
		Type: "uuid",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{boxval.NewBytesToEnd("data")}
		},
	})
}

const (
	tfhdBaseDataOffsetPresent        = 0x000001
	tfhdSampleDescriptionIndexPresent = 0x000002
	tfhdDefaultSampleDurationPresent = 0x000008
	tfhdDefaultSampleSizePresent     = 0x000010
	tfhdDefaultSampleFlagsPresent    = 0x000020
)

func newTfhdBaseProperties() []boxval.Property {
	return append(versionAndFlags(), boxval.NewInt("trackId", 32))
}

// readTfhd implements the flags-gated optional field set of the track
// fragment header box: which of base-data-offset, sample-description-
// index, default-sample-duration, default-sample-size, and default-
// sample-flags are present depends entirely on the flags word, so each
// is appended and read conditionally (Pattern A).
func readTfhd(a *Atom, r *iobox.BitReader) error {
	props := newTfhdBaseProperties()
	if err := readSequential(props, r); err != nil {
		return err
	}
	flags := props[1].(*boxval.IntProperty).Value()

	maybeAdd := func(present bool, p boxval.Property) error {
		if !present {
			return nil
		}
		if err := p.Read(r); err != nil {
			return err
		}
		props = append(props, p)
		return nil
	}
	if err := maybeAdd(flags&tfhdBaseDataOffsetPresent != 0, boxval.NewInt("baseDataOffset", 64)); err != nil {
		return err
	}
	if err := maybeAdd(flags&tfhdSampleDescriptionIndexPresent != 0, boxval.NewInt("sampleDescriptionIndex", 32)); err != nil {
		return err
	}
	if err := maybeAdd(flags&tfhdDefaultSampleDurationPresent != 0, boxval.NewInt("defaultSampleDuration", 32)); err != nil {
		return err
	}
	if err := maybeAdd(flags&tfhdDefaultSampleSizePresent != 0, boxval.NewInt("defaultSampleSize", 32)); err != nil {
		return err
	}
	if err := maybeAdd(flags&tfhdDefaultSampleFlagsPresent != 0, boxval.NewInt("defaultSampleFlags", 32)); err != nil {
		return err
	}
	a.Properties = props
	return nil
}

const (
	trunDataOffsetPresent                = 0x000001
	trunFirstSampleFlagsPresent          = 0x000004
	trunSampleDurationPresent            = 0x000100
	trunSampleSizePresent                = 0x000200
	trunSampleFlagsPresent               = 0x000400
	trunSampleCompositionTimeOffsetPresent = 0x000800
)

func newTrunBaseProperties() []boxval.Property {
	return append(versionAndFlags(), boxval.NewInt("sampleCount", 32))
}

// readTrun implements the track fragment run box: an optional signed
// data offset and first-sample-flags word, followed by a per-sample
// table whose row shape depends on which of the four per-sample flags
// bits are set (Pattern A feeding a Pattern-B-shaped table).
func readTrun(a *Atom, r *iobox.BitReader) error {
	props := newTrunBaseProperties()
	if err := readSequential(props, r); err != nil {
		return err
	}
	flags := props[1].(*boxval.IntProperty).Value()
	sampleCount := uint32(props[2].(*boxval.IntProperty).Value())

	if flags&trunDataOffsetPresent != 0 {
		p := boxval.NewInt("dataOffset", 32)
		if err := p.Read(r); err != nil {
			return err
		}
		props = append(props, p)
	}
	if flags&trunFirstSampleFlagsPresent != 0 {
		p := boxval.NewInt("firstSampleFlags", 32)
		if err := p.Read(r); err != nil {
			return err
		}
		props = append(props, p)
	}

	table := boxval.NewTable("samples", func() []boxval.Property {
		var row []boxval.Property
		if flags&trunSampleDurationPresent != 0 {
			row = append(row, boxval.NewInt("sampleDuration", 32))
		}
		if flags&trunSampleSizePresent != 0 {
			row = append(row, boxval.NewInt("sampleSize", 32))
		}
		if flags&trunSampleFlagsPresent != 0 {
			row = append(row, boxval.NewInt("sampleFlags", 32))
		}
		if flags&trunSampleCompositionTimeOffsetPresent != 0 {
			row = append(row, boxval.NewInt("sampleCompositionTimeOffset", 32))
		}
		return row
	})
	if err := table.ReadRows(r, sampleCount); err != nil {
		return err
	}
	props = append(props, table)
	a.Properties = props
	return nil
}
