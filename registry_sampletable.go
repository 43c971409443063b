package mp4box

import (
	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/diag"
	"ktkr.us/pkg/mp4box/iobox"
)

// countedTableDef builds a typeDef for the common sample-table shape:
// version(8) + flags(24) + entryCount(32) + a table of entryCount rows,
// each produced by newRow. stts, stsc, stco, co64, stss, and ctts are all
// this shape; only their row layouts differ.
func countedTableDef(typ string, newRow boxval.RowFactory) *typeDef {
	return &typeDef{
		Type: typ,
		ReadProperties: func(a *Atom, r *iobox.BitReader) error {
			version := boxval.NewInt("version", 8)
			flags := boxval.NewInt("flags", 24)
			entryCount := boxval.NewInt("entryCount", 32)
			if err := version.Read(r); err != nil {
				return err
			}
			if err := flags.Read(r); err != nil {
				return err
			}
			if err := entryCount.Read(r); err != nil {
				return err
			}
			table := boxval.NewTable("entries", newRow)
			if err := table.ReadRows(r, uint32(entryCount.Value())); err != nil {
				return err
			}
			a.Properties = []boxval.Property{version, flags, entryCount, table}
			return nil
		},
		WriteProperties: func(a *Atom, w *iobox.BitWriter) error {
			table := a.Properties[3].(*boxval.TableProperty)
			a.Properties[2].(*boxval.IntProperty).SetValue(uint64(table.Count()))
			return writeSequential(a.Properties, w)
		},
		Generate: func(a *Atom) {
			a.Properties = append(versionAndFlags(), boxval.NewInt("entryCount", 32), boxval.NewTable("entries", newRow))
			for _, p := range a.Properties[:3] {
				p.Generate()
			}
		},
	}
}

// reconcileEntryCount implements Pattern B (spec.md §4.2): after an atom
// with both an "entryCount" property and owned children has finished
// reading, if the stored count disagrees with the realized child count,
// the parser reconciles it and records an Invalid-property-value
// diagnostic (spec.md S4).
func reconcileEntryCount(a *Atom, errs *diag.Sink) {
	entryCount, ok := a.Property("entryCount").(*boxval.IntProperty)
	if !ok {
		return
	}
	realized := uint64(len(a.Children))
	if entryCount.Value() == realized {
		return
	}
	errs.Errorf(diag.InvalidProperty(a.Type+".entryCount"), diag.LocationContainer, trackIDOf(a),
		"entryCount %d does not match %d realized children; reconciled", entryCount.Value(), realized)
	entryCount.SetValue(realized)
}

func registerSampleTableTypes(reg *Registry) {
	reg.register(&typeDef{
		Type:         "stsd",
		Container:    true,
		OpenChildren: true,
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(), boxval.NewInt("entryCount", 32))
		},
		AfterRead: reconcileEntryCount,
		Generate: func(a *Atom) {
			a.Properties[2].(*boxval.IntProperty).SetValue(0)
		},
	})

	reg.register(countedTableDef("stts", func() []boxval.Property {
		return []boxval.Property{
			boxval.NewInt("sampleCount", 32),
			boxval.NewInt("sampleDelta", 32),
		}
	}))

	reg.register(countedTableDef("stsc", func() []boxval.Property {
		return []boxval.Property{
			boxval.NewInt("firstChunk", 32),
			boxval.NewInt("samplesPerChunk", 32),
			boxval.NewInt("sampleDescriptionIndex", 32),
		}
	}))

	reg.register(countedTableDef("stco", func() []boxval.Property {
		return []boxval.Property{boxval.NewInt("chunkOffset", 32)}
	}))

	reg.register(countedTableDef("co64", func() []boxval.Property {
		return []boxval.Property{boxval.NewInt("chunkOffset", 64)}
	}))

	reg.register(countedTableDef("stss", func() []boxval.Property {
		return []boxval.Property{boxval.NewInt("sampleNumber", 32)}
	}))

	reg.register(countedTableDef("ctts", func() []boxval.Property {
		return []boxval.Property{
			boxval.NewInt("sampleCount", 32),
			boxval.NewInt("sampleOffset", 32),
		}
	}))

	reg.register(&typeDef{
		Type: "stsz",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(),
				boxval.NewInt("sampleSize", 32),
				boxval.NewInt("sampleCount", 32),
			)
		},
		ReadProperties: readStsz,
		WriteProperties: func(a *Atom, w *iobox.BitWriter) error {
			return writeSequential(a.Properties, w)
		},
	})

	reg.register(&typeDef{
		Type: "stz2",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(),
				boxval.NewBytes("reserved", 3),
				boxval.NewInt("fieldSize", 8),
				boxval.NewInt("sampleCount", 32),
			)
		},
	})

	reg.register(&typeDef{
		Type: "stdp",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(), boxval.NewBytesToEnd("priority"))
		},
	})

	reg.register(&typeDef{
		Type: "sdtp",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{boxval.NewBytesToEnd("sampleDependency")}
		},
	})

	reg.register(&typeDef{
		Type: "cslg",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(),
				boxval.NewInt("compositionToDTSShift", 32),
				boxval.NewInt("leastDecodeToDisplayDelta", 32),
				boxval.NewInt("greatestDecodeToDisplayDelta", 32),
				boxval.NewInt("compositionStartTime", 32),
				boxval.NewInt("compositionEndTime", 32),
			)
		},
	})

	reg.register(&typeDef{
		Type:      "dref",
		Container: true,
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(), boxval.NewInt("entryCount", 32))
		},
		AfterRead: reconcileEntryCount,
		ExpectedChildren: []expectedChildSpec{
			{Type: "url ", Mandatory: false, OnlyOne: false},
			{Type: "urn ", Mandatory: false, OnlyOne: false},
			{Type: "alis", Mandatory: false, OnlyOne: false},
		},
	})

	reg.register(&typeDef{
		Type: "url ",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(), boxval.NewString("location", boxval.FramingNulTerminated))
		},
	})

	reg.register(&typeDef{
		Type: "urn ",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(),
				boxval.NewString("name", boxval.FramingNulTerminated),
				boxval.NewString("location", boxval.FramingNulTerminated),
			)
		},
	})
}

// readStsz handles the one field whose presence depends on a sibling
// field's value rather than the version byte: the per-sample size table
// is present only when sampleSize == 0 (spec.md §4.2 Pattern A, applied
// to a peer property instead of a gating bitfield).
func readStsz(a *Atom, r *iobox.BitReader) error {
	version := boxval.NewInt("version", 8)
	flags := boxval.NewInt("flags", 24)
	sampleSize := boxval.NewInt("sampleSize", 32)
	sampleCount := boxval.NewInt("sampleCount", 32)
	for _, p := range []boxval.Property{version, flags, sampleSize, sampleCount} {
		if err := p.Read(r); err != nil {
			return err
		}
	}
	props := []boxval.Property{version, flags, sampleSize, sampleCount}
	if sampleSize.Value() == 0 {
		table := boxval.NewTable("entries", func() []boxval.Property {
			return []boxval.Property{boxval.NewInt("entrySize", 32)}
		})
		if err := table.ReadRows(r, uint32(sampleCount.Value())); err != nil {
			return err
		}
		props = append(props, table)
	}
	a.Properties = props
	return nil
}
