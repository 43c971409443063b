package mp4box

import (
	"testing"

	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/diag"
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// TestDrefEntryCountReconciliation covers S4: a dref atom declaring
// entryCount==2 but carrying three url children is reconciled to 3, with
// one Invalid-property-value diagnostic recorded.
func TestDrefEntryCountReconciliation(t *testing.T) {
	reg := NewRegistry()
	dref := reg.New(nil, "dref")
	dref.Start = 0

	entryCount := dref.Property("entryCount").(*boxval.IntProperty)
	entryCount.SetValue(2)

	for i := 0; i < 3; i++ {
		url := reg.New(dref, "url ")
		url.Generate()
		dref.addChild(url)
	}

	sink := iobox.NewMemorySink(nil)
	if err := dref.Write(sink); err != nil {
		t.Fatalf("Write: %v", err)
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

	parsed := reread.Child("dref", 0)
	if parsed == nil {
		t.Fatalf("dref not parsed; diagnostics: %v", errs.All())
	}
	if len(parsed.Children) != 3 {
		t.Fatalf("expected 3 url children, got %d", len(parsed.Children))
	}
	got := parsed.Property("entryCount").(*boxval.IntProperty).Value()
	if got != 3 {
		t.Fatalf("expected reconciled entryCount 3, got %d", got)
	}

	invalid := errs.BySeverity(diag.SeverityError)
	found := false
	for _, d := range invalid {
		if d.Category == diag.InvalidProperty("dref.entryCount") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an Invalid property 'dref.entryCount' value diagnostic, got: %v", errs.All())
	}
}

// TestStsdOpenChildrenNoDiagnostic confirms stsd's polymorphic sample-entry
// children never trigger the generic "unexpected child" diagnostic. The
// stsd is read directly under the file root, so the only diagnostic is the
// root-level error for stsd itself.
func TestStsdOpenChildrenNoDiagnostic(t *testing.T) {
	reg := NewRegistry()
	stsd := reg.New(nil, "stsd")

	mp4a := reg.New(stsd, "mp4a")
	mp4a.Generate()
	stsd.addChild(mp4a)
	stsd.Property("entryCount").(*boxval.IntProperty).SetValue(1)

	sink := iobox.NewMemorySink(nil)
	if err := stsd.Write(sink); err != nil {
		t.Fatalf("Write: %v", err)
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
	if errs.Len() != 1 {
		t.Fatalf("expected only the root-level diagnostic for stsd, got: %v", errs.All())
	}
	if d := errs.All()[0]; d.Severity != diag.SeverityError || d.Category != diag.Specification() || d.Message != "unexpected root-level atom 'stsd'" {
		t.Fatalf("expected the root-level error for stsd, got: %v", d)
	}
	parsed := reread.Child("stsd", 0)
	if parsed == nil || parsed.Child("mp4a", 0) == nil {
		t.Fatal("mp4a sample entry missing after round trip")
	}
}
