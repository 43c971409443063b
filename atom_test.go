package mp4box

import (
	"testing"

	"ktkr.us/pkg/mp4box/diag"
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// TestCreateMinimalEmpty covers S1: a freshly created file begins with a
// well-formed ftyp atom followed by a moov/mvhd, per spec.md S1.
func TestCreateMinimalEmpty(t *testing.T) {
	sink := iobox.NewMemorySink(nil)
	f := CreateSink(sink, 0)
	if err := f.Close(0); err != nil {
		t.Fatalf("Close: %v", err)
	}

	buf := sink.Bytes()
	if len(buf) < 8 {
		t.Fatalf("output too short: %d bytes", len(buf))
	}
	if string(buf[4:8]) != "ftyp" {
		t.Fatalf("expected leading ftyp atom, got type %q", buf[4:8])
	}

	reopened, err := OpenSink(iobox.NewMemorySink(buf))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Errs.Len() != 0 {
		t.Fatalf("unexpected diagnostics on a freshly generated file: %v", reopened.Errs.All())
	}
	ftyp := reopened.Root.Child("ftyp", 0)
	if ftyp == nil {
		t.Fatal("ftyp atom missing after round trip")
	}
	moov := reopened.Root.Child("moov", 0)
	if moov == nil {
		t.Fatal("moov atom missing after round trip")
	}
	if moov.Child("mvhd", 0) == nil {
		t.Fatal("mvhd missing from generated moov")
	}
}

// TestMalformedAtomSize covers S2: an atom whose declared size is smaller
// than the minimal header is reported as a single Malformed diagnostic and
// the parser continues past it without adding a child.
func TestMalformedAtomSize(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x04, 'm', 'o', 'o', 'v'}
	f, err := OpenSink(iobox.NewMemorySink(buf))
	if err != nil {
		t.Fatalf("OpenSink: %v", err)
	}
	if len(f.Root.Children) != 0 {
		t.Fatalf("expected no children added for a malformed atom, got %d", len(f.Root.Children))
	}
	errs := f.Errs.BySeverity(diag.SeverityError)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error diagnostic, got %d: %v", len(errs), f.Errs.All())
	}
	if errs[0].Category != diag.Malformed("moov") {
		t.Fatalf("expected Malformed atom 'moov' category, got %q", errs[0].Category)
	}
}

// TestLargeSizeAtom covers S3: an atom declared with size==1 switches to
// 64-bit large-size mode, and re-serializes with the same 16-byte header.
func TestLargeSizeAtom(t *testing.T) {
	const declaredTotal = 0x0000000100000010
	payloadLen := declaredTotal - 16

	buf := make([]byte, 0, 16+payloadLen)
	buf = append(buf, 0, 0, 0, 1)
	buf = append(buf, 'm', 'd', 'a', 't')
	sizeBytes := make([]byte, 8)
	for i := 0; i < 8; i++ {
		sizeBytes[7-i] = byte(declaredTotal >> (8 * i))
	}
	buf = append(buf, sizeBytes...)
	buf = append(buf, make([]byte, payloadLen)...)

	f, err := OpenSink(iobox.NewMemorySink(buf))
	if err != nil {
		t.Fatalf("OpenSink: %v", err)
	}
	mdat := f.Root.Child("mdat", 0)
	if mdat == nil {
		t.Fatalf("mdat not parsed; diagnostics: %v", f.Errs.All())
	}
	if !mdat.LargeSizeMode {
		t.Fatal("expected LargeSizeMode true")
	}
	if mdat.Size != int64(payloadLen) {
		t.Fatalf("expected payload size %d, got %d", payloadLen, mdat.Size)
	}

	out := iobox.NewMemorySink(nil)
	if err := mdat.Write(out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	written := out.Bytes()
	if len(written) < 16 {
		t.Fatalf("rewritten atom too short: %d", len(written))
	}
	if !bytesEqual(written[:16], buf[:16]) {
		t.Fatalf("rewritten header mismatch:\nwant %x\ngot  %x", buf[:16], written[:16])
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestAtomWriteThenReadInvariant covers invariant 1: a freshly generated
// moov's header/size/end bookkeeping is self-consistent once written.
func TestAtomWriteThenReadInvariant(t *testing.T) {
	reg := NewRegistry()
	moov := reg.New(nil, "moov")
	moov.Generate()

	sink := iobox.NewMemorySink(nil)
	if err := moov.Write(sink); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if moov.Start+moov.headerLen()+moov.Size != moov.End {
		t.Fatalf("header invariant broken: start=%d hdr=%d size=%d end=%d",
			moov.Start, moov.headerLen(), moov.Size, moov.End)
	}
	for _, c := range moov.Children {
		if !(moov.Start < c.Start && c.Start < c.End && c.End <= moov.End) {
			t.Fatalf("child containment invariant broken for %q: parent [%d,%d) child [%d,%d)",
				c.Type, moov.Start, moov.End, c.Start, c.End)
		}
	}

	errs := &diag.Sink{}
	log := mlog.New(mlog.LevelNone)
	reread := reg.NewRoot()
	reread.End = sink.Size()
	if err := sink.Seek(0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if err := reread.readChildAtoms(sink, errs, log); err != nil {
		t.Fatalf("readChildAtoms: %v", err)
	}
	if errs.Len() != 0 {
		t.Fatalf("unexpected diagnostics re-reading a freshly generated moov: %v", errs.All())
	}
	if reread.Child("moov", 0) == nil {
		t.Fatal("moov missing after round trip")
	}
}
