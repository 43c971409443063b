package mp4box

import (
	"testing"

	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/iobox"
)

// buildDec3Payload packs the fixed 39-bit dec3 header (dataRate, numIndSub,
// fscod, bsid, bsmod, acmod, lfeon, reserved, numDepSub) followed by
// numDepSub's conditional tail, returning the raw big-endian bit-packed
// bytes a dec3 atom's payload would contain.
func buildDec3Payload(t *testing.T, numDepSub uint64, chanLoc uint64) []byte {
	t.Helper()
	sink := iobox.NewMemorySink(nil)
	w := iobox.NewBitWriter(sink)

	fields := []struct {
		val  uint64
		bits uint
	}{
		{0xAB, 13}, // dataRate
		{1, 3},     // numIndSub
		{0, 2},     // fscod
		{8, 5},     // bsid
		{0, 5},     // bsmod
		{2, 3},     // acmod
		{1, 1},     // lfeon
		{0, 3},     // reserved
		{numDepSub, 4},
	}
	for _, f := range fields {
		if err := w.WriteBits(f.val, f.bits); err != nil {
			t.Fatalf("WriteBits: %v", err)
		}
	}
	if numDepSub > 0 {
		if err := w.WriteBits(chanLoc, 9); err != nil {
			t.Fatalf("WriteBits chanLoc: %v", err)
		}
	} else {
		if err := w.WriteBits(0, 1); err != nil {
			t.Fatalf("WriteBits reserved2: %v", err)
		}
	}
	if err := w.AlignToByte(); err != nil {
		t.Fatalf("AlignToByte: %v", err)
	}
	return sink.Bytes()
}

// TestDec3ConditionalTail covers S5: numDepSub==0 ends the property list
// after the reserved bit with no chan_loc property; numDepSub>0 adds a
// 9-bit chan_loc property.
func TestDec3ConditionalTail(t *testing.T) {
	reg := NewRegistry()

	t.Run("no dependent substreams", func(t *testing.T) {
		payload := buildDec3Payload(t, 0, 0)
		a := &Atom{Type: "dec3", reg: reg, def: reg.byType["dec3"]}
		a.End = int64(len(payload))
		sink := iobox.NewMemorySink(payload)
		r := iobox.NewBitReader(sink, a.End)
		if err := a.readProperties(r); err != nil {
			t.Fatalf("readProperties: %v", err)
		}
		if a.Property("chanLoc") != nil {
			t.Fatal("chan_loc must not be present when numDepSub==0")
		}
		if a.Property("reserved2") == nil {
			t.Fatal("reserved2 must be present when numDepSub==0")
		}
	})

	t.Run("dependent substreams present", func(t *testing.T) {
		payload := buildDec3Payload(t, 5, 0x1A5)
		a := &Atom{Type: "dec3", reg: reg, def: reg.byType["dec3"]}
		a.End = int64(len(payload))
		sink := iobox.NewMemorySink(payload)
		r := iobox.NewBitReader(sink, a.End)
		if err := a.readProperties(r); err != nil {
			t.Fatalf("readProperties: %v", err)
		}
		chanLoc, ok := a.Property("chanLoc").(*boxval.BitfieldProperty)
		if !ok {
			t.Fatal("chan_loc must be present when numDepSub>0")
		}
		if chanLoc.Value() != 0x1A5 {
			t.Fatalf("chan_loc value mismatch: got %#x", chanLoc.Value())
		}
		if a.Property("reserved2") != nil {
			t.Fatal("reserved2 must not be present when numDepSub>0")
		}
	})
}

// TestDec3GenerateIdempotent covers spec.md §8 invariant 3: calling
// Generate() twice on a freshly constructed atom must equal calling it
// once. generateDec3 must rebuild a.Properties wholesale each call rather
// than appending a second conditional-tail field on top of the first.
func TestDec3GenerateIdempotent(t *testing.T) {
	reg := NewRegistry()
	a := reg.New(nil, "dec3")

	a.Generate()
	first := make([]boxval.Property, len(a.Properties))
	copy(first, a.Properties)

	a.Generate()
	second := a.Properties

	if len(second) != len(first) {
		t.Fatalf("property count changed across repeated Generate(): got %d, first had %d", len(second), len(first))
	}
	for i, p := range second {
		if p.Name() != first[i].Name() {
			t.Fatalf("property %d name changed: got %q, first had %q", i, p.Name(), first[i].Name())
		}
		if propertyValue(p) != propertyValue(first[i]) {
			t.Fatalf("property %q value changed across repeated Generate(): got %v, first had %v", p.Name(), propertyValue(p), propertyValue(first[i]))
		}
	}
}
