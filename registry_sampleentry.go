package mp4box

import "ktkr.us/pkg/mp4box/boxval"

// sampleEntryBase returns the common SampleEntry prefix shared by every
// sample description leaf: 6 reserved bytes, then a 16-bit data reference
// index (ISO/IEC 14496-12 §8.5.2).
func sampleEntryBase() []boxval.Property {
	return []boxval.Property{
		boxval.NewBytes("reserved", 6),
		boxval.NewInt("dataReferenceIndex", 16),
	}
}

func audioSampleEntryProps() []boxval.Property {
	return append(sampleEntryBase(),
		boxval.NewBytes("reserved2", 8),
		boxval.NewInt("channelCount", 16),
		boxval.NewInt("sampleSize", 16),
		boxval.NewInt("predefined", 16),
		boxval.NewInt("reserved3", 16),
		boxval.NewFixedPoint("sampleRate", 16, 16),
	)
}

func videoSampleEntryProps() []boxval.Property {
	return append(sampleEntryBase(),
		boxval.NewInt("predefined1", 16),
		boxval.NewInt("reserved2", 16),
		boxval.NewBytes("predefined2", 12),
		boxval.NewInt("width", 16),
		boxval.NewInt("height", 16),
		boxval.NewFixedPoint("horizResolution", 16, 16),
		boxval.NewFixedPoint("vertResolution", 16, 16),
		boxval.NewInt("reserved3", 32),
		boxval.NewInt("frameCount", 16),
		boxval.NewFixedString("compressorName", 32),
		boxval.NewInt("depth", 16),
		boxval.NewInt("predefined3", 16),
	)
}

// registerSampleEntryTypes wires the sample description leaves hung off
// stsd: the MPEG-4 systems entries (mp4a/mp4v/mp4s with an esds child),
// the 3GPP speech/video entries, and the remaining passthrough
// audio/video fourcc families routed to two shared generic leaves,
// mirroring original_source/src/mp4atom.cpp's factory() switch.
func registerSampleEntryTypes(reg *Registry) {
	audioPassthrough := []string{
		"samr", "sawb", "alac", "sowt", "twos", "ima4", "raw ", "ulaw", "alaw", "Qclp",
	}
	for _, t := range audioPassthrough {
		reg.register(&typeDef{
			Type:             t,
			Container:        true,
			OpenChildren:     true,
			NewProperties:    audioSampleEntryProps,
			ExpectedChildren: nil,
		})
	}

	videoPassthrough := []string{
		"d263", "s263", "h263", "SVQ3", "dvc ", "dvcp", "dvpp", "jpeg", "mjpa", "mjpb",
	}
	for _, t := range videoPassthrough {
		reg.register(&typeDef{
			Type:          t,
			Container:     true,
			OpenChildren:  true,
			NewProperties: videoSampleEntryProps,
		})
	}

	reg.register(&typeDef{
		Type:          "mp4a",
		Container:     true,
		OpenChildren:  true,
		NewProperties: audioSampleEntryProps,
	})
	reg.register(&typeDef{
		Type:          "enca",
		Container:     true,
		OpenChildren:  true,
		NewProperties: audioSampleEntryProps,
	})
	reg.register(&typeDef{
		Type:          "damr",
		NewProperties: func() []boxval.Property { return []boxval.Property{boxval.NewBytesToEnd("decoderConfig")} },
	})

	reg.register(&typeDef{
		Type:          "mp4v",
		Container:     true,
		OpenChildren:  true,
		NewProperties: videoSampleEntryProps,
	})
	reg.register(&typeDef{
		Type:          "encv",
		Container:     true,
		OpenChildren:  true,
		NewProperties: videoSampleEntryProps,
	})
	reg.register(&typeDef{
		Type:          "avc1",
		Container:     true,
		OpenChildren:  true,
		NewProperties: videoSampleEntryProps,
	})
	reg.register(&typeDef{
		Type:          "avcC",
		NewProperties: func() []boxval.Property { return []boxval.Property{boxval.NewBytesToEnd("decoderConfig")} },
	})

	reg.register(&typeDef{
		Type:          "mp4s",
		Container:     true,
		OpenChildren:  true,
		NewProperties: sampleEntryBase,
	})

	reg.register(&typeDef{
		Type: "esds",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(), boxval.NewDescriptor("esDescriptor", 0x03))
		},
	})

	reg.register(&typeDef{
		Type: "text",
		NewProperties: func() []boxval.Property {
			return append(sampleEntryBase(),
				boxval.NewInt("displayFlags", 32),
				boxval.NewInt("textJustification", 32),
				boxval.NewBytes("backgroundColor", 6),
				boxval.NewBytes("defaultTextBox", 8),
				boxval.NewBytes("reserved2", 8),
				boxval.NewInt("fontNumber", 16),
				boxval.NewInt("fontFace", 16),
				boxval.NewInt("reserved3", 8),
				boxval.NewInt("reserved4", 16),
				boxval.NewBytes("foregroundColor", 6),
			)
		},
	})

	reg.register(&typeDef{
		Type:          "tx3g",
		Container:     true,
		OpenChildren:  true,
		NewProperties: func() []boxval.Property { return append(sampleEntryBase(), boxval.NewBytes("styleBox", 18)) },
	})

	reg.register(&typeDef{
		Type: "ftab",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{
				boxval.NewInt("entryCount", 16),
				boxval.NewBytesToEnd("fontRecords"),
			}
		},
	})
}
