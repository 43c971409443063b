package mp4box

import (
	"os"

	"github.com/pkg/errors"

	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/diag"
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// CreateFlags controls optional structural behavior at creation time,
// mirroring mp4v2's public MP4_CREATE_* bitmask.
type CreateFlags uint32

const (
	// CreateFlags64BitData is accepted by Create and CreateSink but not
	// read: the tree they build holds no mdat, and no atom is switched to
	// large-size mode because of it.
	CreateFlags64BitData CreateFlags = 1 << iota
	// CreateFlags64BitTime makes CreateSink generate a version 1 mvhd with
	// 64-bit creation/modification/duration fields; incompatible with
	// QuickTime. tkhd/mdhd atoms added to the tree later are not affected.
	CreateFlags64BitTime
)

// CloseFlags controls optional behavior at finalize time, mirroring
// mp4v2's public MP4_CLOSE_* bitmask.
type CloseFlags uint32

const (
	// CloseDoNotComputeBitrate names the "skip avg/max bitrate
	// recomputation" option. Close never recomputes bitrates, so the flag
	// has no effect.
	CloseDoNotComputeBitrate CloseFlags = 1 << iota
)

// File is the open-tree handle binding a ByteSink, a Registry, the parsed
// (or generated) root atom, a diagnostic sink, and a log sink. It is the
// thin composition root the package exposes in place of the excluded
// public C-style handle API (spec.md §1's "external collaborators").
type File struct {
	Sink iobox.ByteSink
	Root *Atom
	Errs *diag.Sink
	Log  *mlog.Log

	reg   *Registry
	owned *iobox.FileSink // non-nil when Open/Create opened the backing file itself
}

// Open parses an existing ISO-BMFF tree from name. Parsing errors that
// are structural (malformed sizes, unexpected children, ...) are
// recorded on f.Errs rather than failing the call; only I/O failures
// return a non-nil error.
func Open(name string) (*File, error) {
	fs, err := iobox.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "mp4box: open %q", name)
	}
	f, err := openSink(fs)
	if err != nil {
		fs.Close()
		return nil, err
	}
	f.owned = fs
	return f, nil
}

// OpenSink parses an existing ISO-BMFF tree from an arbitrary ByteSink
// (a memory buffer in tests, a caller-supplied callback set in hosts that
// embed the engine).
func OpenSink(sink iobox.ByteSink) (*File, error) {
	return openSink(sink)
}

func openSink(sink iobox.ByteSink) (*File, error) {
	f := &File{
		Sink: sink,
		Errs: &diag.Sink{},
		Log:  mlog.New(mlog.LevelNone),
		reg:  NewRegistry(),
	}
	f.Root = f.reg.NewRoot()
	f.Root.End = sink.Size()
	if err := sink.Seek(0); err != nil {
		return nil, err
	}
	if err := f.Root.readChildAtoms(sink, f.Errs, f.Log); err != nil {
		return nil, err
	}
	return f, nil
}

// Create builds a new, minimal lawful tree in memory (ftyp + moov/mvhd,
// per spec.md S1) and opens name for writing it out on Close.
func Create(name string, flags CreateFlags) (*File, error) {
	fs, err := iobox.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "mp4box: create %q", name)
	}
	f := CreateSink(fs, flags)
	f.owned = fs
	return f, nil
}

// CreateSink builds a new, minimal lawful tree over an arbitrary
// ByteSink without touching disk.
func CreateSink(sink iobox.ByteSink, flags CreateFlags) *File {
	reg := NewRegistry()
	f := &File{
		Sink: sink,
		Errs: &diag.Sink{},
		Log:  mlog.New(mlog.LevelNone),
		reg:  reg,
	}
	f.Root = reg.NewRoot()

	ftyp := reg.New(f.Root, "ftyp")
	ftyp.Generate()
	f.Root.addChild(ftyp)

	moov := reg.New(f.Root, "moov")
	moov.Generate()
	f.Root.addChild(moov)

	if flags&CreateFlags64BitTime != 0 {
		mvhd := moov.Child("mvhd", 0)
		mvhd.Properties[0].(*boxval.IntProperty).SetValue(1) // version
		// creationTime, modificationTime, duration
		for _, i := range []int{2, 3, 5} {
			mvhd.Properties[i] = boxval.NewInt(mvhd.Properties[i].Name(), 64)
		}
	}

	return f
}

// Close finalizes the tree: writes every top-level atom to the sink in
// order and releases any file descriptor this File itself opened.
func (f *File) Close(_ CloseFlags) error {
	if err := f.Sink.Seek(0); err != nil {
		return err
	}
	for _, c := range f.Root.Children {
		if err := c.Write(f.Sink); err != nil {
			return err
		}
	}
	if f.owned != nil {
		return f.owned.Close()
	}
	return nil
}
