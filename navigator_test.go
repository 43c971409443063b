package mp4box

import (
	"testing"

	"ktkr.us/pkg/mp4box/boxval"
)

// buildMovieWithTracks constructs a moov containing n trak atoms, each with
// a distinct tkhd.trackId starting at 1.
func buildMovieWithTracks(n int) *Atom {
	reg := NewRegistry()
	moov := reg.New(nil, "moov")
	moov.Generate()

	for i := 0; i < n; i++ {
		trak := reg.New(moov, "trak")
		trak.Generate()
		tkhd := trak.Child("tkhd", 0)
		tkhd.Property("trackId").(*boxval.IntProperty).SetValue(uint64(i + 1))
		moov.addChild(trak)
	}
	return moov
}

// TestNavigationTrackIndexing covers S6: indexed path segments resolve to
// distinct tracks, and an out-of-range index resolves to nil with no
// diagnostic raised (FindAtom performs no I/O and cannot emit one).
func TestNavigationTrackIndexing(t *testing.T) {
	moov := buildMovieWithTracks(2)

	for i := 0; i < 2; i++ {
		tkhd := FindAtom(moov, pathFor(i))
		if tkhd == nil {
			t.Fatalf("trak[%d].tkhd not found", i)
		}
		got := tkhd.Property("trackId").(*boxval.IntProperty).Value()
		if got != uint64(i+1) {
			t.Fatalf("trak[%d].tkhd.trackId: expected %d, got %d", i, i+1, got)
		}
	}

	missing := FindAtom(moov, "trak[2].tkhd")
	if missing != nil {
		t.Fatalf("expected trak[2].tkhd to resolve to nil, got %v", missing)
	}
}

func pathFor(i int) string {
	if i == 0 {
		return "trak.tkhd"
	}
	return "trak[1].tkhd"
}

// TestFindPropertyTrackId exercises the worked path example from spec.md
// §4.7 against a two-track tree, fetching trackId as a property lookup.
func TestFindPropertyTrackId(t *testing.T) {
	moov := buildMovieWithTracks(2)

	p := FindProperty(moov, "trak[1].tkhd.trackId")
	if p == nil {
		t.Fatal("trak[1].tkhd.trackId not found")
	}
	got := p.(*boxval.IntProperty).Value()
	if got != 2 {
		t.Fatalf("expected trackId 2, got %d", got)
	}
}
