package mp4box

import "ktkr.us/pkg/mp4box/boxval"

// registerHintTypes wires the RTP hint-track furniture atoms (ISO/IEC
// 14496-12 Annex on hint tracks / QTFF's hnti/hinf families). Most of
// these are single 32-bit counters or rate fields; sdp carries a raw SDP
// text blob, and tims/tsro/snro share a plain 32-bit-field shape.
func registerHintTypes(reg *Registry) {
	oneUint32 := func(name string) func() []boxval.Property {
		return func() []boxval.Property { return []boxval.Property{boxval.NewInt(name, 32)} }
	}

	reg.register(&typeDef{
		Type: "rtp ",
		NewProperties: func() []boxval.Property {
			return append(versionAndFlags(),
				boxval.NewInt("hintTrackId", 32),
				boxval.NewString("sdpText", boxval.FramingToEnd),
			)
		},
	})
	reg.register(&typeDef{
		Type: "sdp ",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{boxval.NewString("sdpText", boxval.FramingToEnd)}
		},
	})
	reg.register(&typeDef{Type: "tims", NewProperties: oneUint32("timescale")})
	reg.register(&typeDef{Type: "tsro", NewProperties: oneUint32("offset")})
	reg.register(&typeDef{Type: "snro", NewProperties: oneUint32("offset")})
	reg.register(&typeDef{Type: "trpy", NewProperties: oneUint32("bytes")})
	reg.register(&typeDef{Type: "nump", NewProperties: oneUint32("packets")})
	reg.register(&typeDef{Type: "tpyl", NewProperties: oneUint32("bytes")})
	reg.register(&typeDef{Type: "totl", NewProperties: oneUint32("bytes")})
	reg.register(&typeDef{Type: "npck", NewProperties: oneUint32("packets")})
	reg.register(&typeDef{Type: "dmed", NewProperties: oneUint32("bytes")})
	reg.register(&typeDef{Type: "dimm", NewProperties: oneUint32("bytes")})
	reg.register(&typeDef{Type: "drep", NewProperties: oneUint32("bytes")})
	reg.register(&typeDef{Type: "tmin", NewProperties: oneUint32("milliseconds")})
	reg.register(&typeDef{Type: "tmax", NewProperties: oneUint32("milliseconds")})
	reg.register(&typeDef{Type: "pmax", NewProperties: oneUint32("bytes")})
	reg.register(&typeDef{Type: "dmax", NewProperties: oneUint32("milliseconds")})
	reg.register(&typeDef{
		Type: "payt",
		NewProperties: func() []boxval.Property {
			return []boxval.Property{
				boxval.NewInt("payloadNumber", 32),
				boxval.NewString("rtpMapString", boxval.FramingCounted8),
			}
		},
	})
	reg.register(&typeDef{Type: "tpay", NewProperties: oneUint32("bytes")})
}
