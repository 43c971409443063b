package mp4box

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/diag"
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// atomSnapshot is a comparable projection of an Atom used to assert
// invariant 2 (spec.md §8: "parse(write(parse(F))) yields a tree
// value-equal to parse(F)") without reaching into Atom's unexported
// bookkeeping fields.
type atomSnapshot struct {
	Type       string
	Properties map[string]interface{}
	Children   []atomSnapshot
}

func snapshot(a *Atom) atomSnapshot {
	props := make(map[string]interface{}, len(a.Properties))
	for _, p := range a.Properties {
		props[p.Name()] = propertyValue(p)
	}
	children := make([]atomSnapshot, len(a.Children))
	for i, c := range a.Children {
		children[i] = snapshot(c)
	}
	return atomSnapshot{Type: a.Type, Properties: props, Children: children}
}

// propertyValue extracts a comparable value from a Property without
// depending on any single accessor shared across every Kind.
func propertyValue(p boxval.Property) interface{} {
	switch v := p.(type) {
	case *boxval.IntProperty:
		return v.Value()
	case *boxval.BitfieldProperty:
		return v.Value()
	case *boxval.FixedPointProperty:
		return v.Raw()
	case *boxval.StringProperty:
		return v.Value()
	case *boxval.BytesProperty:
		return v.Value()
	case *boxval.DescriptorProperty:
		return v.Payload()
	case *boxval.TableProperty:
		rows := make([][]interface{}, len(v.Rows()))
		for i, row := range v.Rows() {
			cells := make([]interface{}, len(row))
			for j, cell := range row {
				cells[j] = propertyValue(cell)
			}
			rows[i] = cells
		}
		return rows
	default:
		return nil
	}
}

// TestRoundTripMinimalFile covers invariant 2 for the S1 minimal-create
// tree: parse(write(parse(F))) must be value-equal to parse(F).
func TestRoundTripMinimalFile(t *testing.T) {
	sink := iobox.NewMemorySink(nil)
	f := CreateSink(sink, 0)
	if err := f.Close(0); err != nil {
		t.Fatalf("Close: %v", err)
	}

	first, err := OpenSink(iobox.NewMemorySink(sink.Bytes()))
	if err != nil {
		t.Fatalf("first OpenSink: %v", err)
	}

	rewritten := iobox.NewMemorySink(nil)
	for _, c := range first.Root.Children {
		if err := c.Write(rewritten); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
	}

	second, err := OpenSink(iobox.NewMemorySink(rewritten.Bytes()))
	if err != nil {
		t.Fatalf("second OpenSink: %v", err)
	}

	want := snapshot(first.Root)
	got := snapshot(second.Root)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tree mismatch after round trip (-want +got):\n%s", diff)
	}
}

// TestRoundTripWithAC3Track covers invariant 2 against a tree exercising a
// Pattern A atom (dec3's conditional tail) nested inside a Pattern C
// container chain, confirming the snapshot-comparable round trip holds
// beyond the minimal S1 shape.
func TestRoundTripWithAC3Track(t *testing.T) {
	reg := NewRegistry()
	root := reg.NewRoot()

	moov := reg.New(root, "moov")
	moov.Generate()
	root.addChild(moov)

	trak := reg.New(moov, "trak")
	trak.Generate()
	moov.addChild(trak)

	stbl := trak.Child("mdia", 0).Child("minf", 0).Child("stbl", 0)
	stsd := stbl.Child("stsd", 0)

	ec3 := reg.New(stsd, "ec-3")
	ec3.Generate()
	dec3 := ec3.Child("dec3", 0)
	dec3.Property("numDepSub").(*boxval.BitfieldProperty).SetValue(0)
	stsd.addChild(ec3)
	stsd.Property("entryCount").(*boxval.IntProperty).SetValue(1)

	sink := iobox.NewMemorySink(nil)
	for _, c := range root.Children {
		if err := c.Write(sink); err != nil {
			t.Fatalf("Write: %v", err)
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

	rewritten := iobox.NewMemorySink(nil)
	for _, c := range reread.Children {
		if err := c.Write(rewritten); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
	}

	errs2 := &diag.Sink{}
	reread2 := reg.NewRoot()
	reread2.End = rewritten.Size()
	rewrittenSink := iobox.NewMemorySink(rewritten.Bytes())
	if err := reread2.readChildAtoms(rewrittenSink, errs2, log); err != nil {
		t.Fatalf("second readChildAtoms: %v", err)
	}

	if diff := cmp.Diff(snapshot(reread), snapshot(reread2)); diff != "" {
		t.Fatalf("tree mismatch after round trip (-want +got):\n%s", diff)
	}
}
