package mp4box

import (
	"fmt"

	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/iobox"
)

// registerMovieTypes wires up the movie/track/media header atoms: ftyp,
// mvhd, tkhd, mdhd, hdlr, vmhd, smhd, nmhd, elst. Several of these are
// version-gated (Pattern A, spec.md §4.2): the 32-vs-64-bit time and
// duration fields depend on the leading version byte, so their schema is
// built incrementally inside a ReadProperties override rather than fixed
// up front by NewProperties.
func registerMovieTypes(reg *Registry) {
	reg.register(&typeDef{
		Type:           "ftyp",
		ReadProperties: readFtyp,
		WriteProperties: func(a *Atom, w *iobox.BitWriter) error {
			return writeSequential(a.Properties, w)
		},
		Generate: func(a *Atom) {
			a.Properties = []boxval.Property{
				boxval.NewFixedString("majorBrand", 4),
				boxval.NewInt("minorVersion", 32),
			}
			major := a.Properties[0].(*boxval.StringProperty)
			major.SetValue("isom")
			a.Properties = append(a.Properties, boxval.NewFixedString("compatibleBrands[0]", 4))
			a.Properties[2].(*boxval.StringProperty).SetValue("isom")
		},
	})

	reg.register(&typeDef{
		Type:            "mvhd",
		ReadProperties:  readMvhd,
		WriteProperties: writeVersionGatedHeader,
		Generate:        generateMvhd,
	})

	reg.register(&typeDef{
		Type:            "tkhd",
		ReadProperties:  readTkhd,
		WriteProperties: writeVersionGatedHeader,
		Generate:        generateTkhd,
	})

	reg.register(&typeDef{
		Type:            "mdhd",
		ReadProperties:  readMdhd,
		WriteProperties: writeVersionGatedHeader,
		Generate:        generateMdhd,
	})

	reg.register(&typeDef{
		Type: "hdlr",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{
				boxval.NewInt("version", 8),
				boxval.NewInt("flags", 24),
				boxval.NewInt("predefined", 32),
				boxval.NewFixedString("handlerType", 4),
				boxval.NewBytes("reserved", 12),
				boxval.NewString("componentName", boxval.FramingNulTerminated),
			}
		},
	})

	reg.register(&typeDef{
		Type: "vmhd",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(),
				boxval.NewInt("graphicsMode", 16),
				boxval.NewBytes("opcolor", 6),
			)
		},
	})

	reg.register(&typeDef{
		Type: "smhd",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(),
				boxval.NewFixedPoint("balance", 8, 8),
				boxval.NewInt("reserved", 16),
			)
		},
	})

	reg.register(&typeDef{
		Type: "nmhd",
		NewProperties: func() []boxval.Property {
			return versionAndFlags()
		},
	})

	reg.register(&typeDef{
		Type:            "elst",
		ReadProperties:  readElst,
		WriteProperties: writeElst,
		Generate: func(a *Atom) {
			a.Properties = versionAndFlags()
			a.Properties = append(a.Properties, boxval.NewInt("entryCount", 32), newElstTable())
			for _, p := range a.Properties {
				p.Generate()
			}
		},
	})
}

func readFtyp(a *Atom, r *iobox.BitReader) error {
	major := boxval.NewFixedString("majorBrand", 4)
	if err := major.Read(r); err != nil {
		return err
	}
	minor := boxval.NewInt("minorVersion", 32)
	if err := minor.Read(r); err != nil {
		return err
	}
	props := []boxval.Property{major, minor}
	for i := 0; r.Remaining() >= 4; i++ {
		brand := boxval.NewFixedString(brandName(i), 4)
		if err := brand.Read(r); err != nil {
			return err
		}
		props = append(props, brand)
	}
	a.Properties = props
	return nil
}

func brandName(i int) string {
	return fmt.Sprintf("compatibleBrands[%d]", i)
}

// readVersionGatedTimes builds and reads the version-dependent leading
// fields shared by mvhd/tkhd/mdhd (creation/modification time at 32 or 64
// bits depending on the full-box version), returning the properties in
// declared order so the caller can append the type-specific tail.
func readVersionGatedTimes(a *Atom, r *iobox.BitReader, hasTrackReservedBeforeDuration bool) ([]boxval.Property, error) {
	version := boxval.NewInt("version", 8)
	flags := boxval.NewInt("flags", 24)
	if err := version.Read(r); err != nil {
		return nil, err
	}
	if err := flags.Read(r); err != nil {
		return nil, err
	}
	width := uint(32)
	if version.Value() == 1 {
		width = 64
	}
	props := []boxval.Property{version, flags}

	creation := boxval.NewInt("creationTime", width)
	if err := creation.Read(r); err != nil {
		return nil, err
	}
	modification := boxval.NewInt("modificationTime", width)
	if err := modification.Read(r); err != nil {
		return nil, err
	}
	props = append(props, creation, modification)

	if hasTrackReservedBeforeDuration {
		trackID := boxval.NewInt("trackId", 32)
		if err := trackID.Read(r); err != nil {
			return nil, err
		}
		reserved := boxval.NewInt("reserved1", 32)
		if err := reserved.Read(r); err != nil {
			return nil, err
		}
		props = append(props, trackID, reserved)
	} else {
		timescale := boxval.NewInt("timescale", 32)
		if err := timescale.Read(r); err != nil {
			return nil, err
		}
		props = append(props, timescale)
	}

	duration := boxval.NewInt("duration", width)
	if err := duration.Read(r); err != nil {
		return nil, err
	}
	props = append(props, duration)
	return props, nil
}

func readMvhd(a *Atom, r *iobox.BitReader) error {
	props, err := readVersionGatedTimes(a, r, false)
	if err != nil {
		return err
	}
	rate := boxval.NewFixedPoint("rate", 16, 16)
	volume := boxval.NewFixedPoint("volume", 8, 8)
	reserved1 := boxval.NewInt("reserved1", 16)
	reserved2 := boxval.NewBytes("reserved2", 8)
	matrix := boxval.NewBytes("matrix", 36)
	predefined := boxval.NewBytes("predefined", 24)
	nextTrackID := boxval.NewInt("nextTrackId", 32)
	for _, p := range []boxval.Property{rate, volume, reserved1, reserved2, matrix, predefined, nextTrackID} {
		if err := p.Read(r); err != nil {
			return err
		}
	}
	a.Properties = append(props, rate, volume, reserved1, reserved2, matrix, predefined, nextTrackID)
	return nil
}

func generateMvhd(a *Atom) {
	a.Properties = append(versionAndFlags(),
		boxval.NewInt("creationTime", 32),
		boxval.NewInt("modificationTime", 32),
		boxval.NewInt("timescale", 32),
		boxval.NewInt("duration", 32),
		boxval.NewFixedPoint("rate", 16, 16),
		boxval.NewFixedPoint("volume", 8, 8),
		boxval.NewInt("reserved1", 16),
		boxval.NewBytes("reserved2", 8),
		boxval.NewBytes("matrix", 36),
		boxval.NewBytes("predefined", 24),
		boxval.NewInt("nextTrackId", 32),
	)
	for _, p := range a.Properties {
		p.Generate()
	}
	a.Properties[6].(*boxval.FixedPointProperty).SetFloat(1.0) // rate
	a.Properties[7].(*boxval.FixedPointProperty).SetFloat(1.0) // volume
	a.Properties[len(a.Properties)-1].(*boxval.IntProperty).SetValue(1) // nextTrackId
}

func readTkhd(a *Atom, r *iobox.BitReader) error {
	props, err := readVersionGatedTimes(a, r, true)
	if err != nil {
		return err
	}
	reserved2 := boxval.NewBytes("reserved2", 8)
	layer := boxval.NewInt("layer", 16)
	alternateGroup := boxval.NewInt("alternateGroup", 16)
	volume := boxval.NewFixedPoint("volume", 8, 8)
	reserved3 := boxval.NewInt("reserved3", 16)
	matrix := boxval.NewBytes("matrix", 36)
	width := boxval.NewFixedPoint("width", 16, 16)
	height := boxval.NewFixedPoint("height", 16, 16)
	for _, p := range []boxval.Property{reserved2, layer, alternateGroup, volume, reserved3, matrix, width, height} {
		if err := p.Read(r); err != nil {
			return err
		}
	}
	a.Properties = append(props, reserved2, layer, alternateGroup, volume, reserved3, matrix, width, height)
	return nil
}

func generateTkhd(a *Atom) {
	a.Properties = append(versionAndFlags(),
		boxval.NewInt("creationTime", 32),
		boxval.NewInt("modificationTime", 32),
		boxval.NewInt("trackId", 32),
		boxval.NewInt("reserved1", 32),
		boxval.NewInt("duration", 32),
		boxval.NewBytes("reserved2", 8),
		boxval.NewInt("layer", 16),
		boxval.NewInt("alternateGroup", 16),
		boxval.NewFixedPoint("volume", 8, 8),
		boxval.NewInt("reserved3", 16),
		boxval.NewBytes("matrix", 36),
		boxval.NewFixedPoint("width", 16, 16),
		boxval.NewFixedPoint("height", 16, 16),
	)
	for _, p := range a.Properties {
		p.Generate()
	}
}

func readMdhd(a *Atom, r *iobox.BitReader) error {
	props, err := readVersionGatedTimes(a, r, false)
	if err != nil {
		return err
	}
	language := boxval.NewBitfield("language", 16)
	predefined := boxval.NewInt("predefined", 16)
	if err := language.Read(r); err != nil {
		return err
	}
	if err := predefined.Read(r); err != nil {
		return err
	}
	a.Properties = append(props, language, predefined)
	return nil
}

func generateMdhd(a *Atom) {
	a.Properties = append(versionAndFlags(),
		boxval.NewInt("creationTime", 32),
		boxval.NewInt("modificationTime", 32),
		boxval.NewInt("timescale", 32),
		boxval.NewInt("duration", 32),
		boxval.NewBitfield("language", 16),
		boxval.NewInt("predefined", 16),
	)
	for _, p := range a.Properties {
		p.Generate()
	}
	a.Properties[4].(*boxval.IntProperty).SetValue(1000) // timescale
}

// writeVersionGatedHeader writes whatever property list ReadProperties
// (or Generate) built; the widths were fixed at construction time, so the
// write path is just the generic sequential walk.
func writeVersionGatedHeader(a *Atom, w *iobox.BitWriter) error {
	return writeSequential(a.Properties, w)
}

func newElstTable() *boxval.TableProperty {
	return boxval.NewTable("entries", func() []boxval.Property {
		return []boxval.Property{
			boxval.NewInt("segmentDuration", 32),
			boxval.NewInt("mediaTime", 32),
			boxval.NewFixedPoint("mediaRate", 16, 16),
		}
	})
}

func readElst(a *Atom, r *iobox.BitReader) error {
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
	width := uint(32)
	if version.Value() == 1 {
		width = 64
	}
	table := boxval.NewTable("entries", func() []boxval.Property {
		return []boxval.Property{
			boxval.NewInt("segmentDuration", width),
			boxval.NewInt("mediaTime", width),
			boxval.NewFixedPoint("mediaRate", 16, 16),
		}
	})
	if err := table.ReadRows(r, uint32(entryCount.Value())); err != nil {
		return err
	}
	a.Properties = []boxval.Property{version, flags, entryCount, table}
	return nil
}

func writeElst(a *Atom, w *iobox.BitWriter) error {
	return writeSequential(a.Properties, w)
}
