package mp4box

import (
	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/mlog"
)

// Dump renders the diagnostic text format from spec.md §6:
// `"filename": type TYPE (ancestor.path)` followed by one indented line
// per property, recursing into children. Table properties are suppressed
// below verbose level 2.
func Dump(a *Atom, filename string, log *mlog.Log) {
	dumpAtom(a, filename, log, 0)
}

func dumpAtom(a *Atom, filename string, log *mlog.Log, indent int) {
	if a.Type != "" {
		log.Dump(indent, mlog.LevelVerbose1, "%q: type %s (%s)", filename, a.Type, TypePath(a))
	}
	if a.def.Dump != nil {
		a.def.Dump(a, log, indent+1)
	} else {
		dumpProperties(a, log, indent+1)
	}
	for _, c := range a.Children {
		dumpAtom(c, filename, log, indent+1)
	}
}

func dumpProperties(a *Atom, log *mlog.Log, indent int) {
	for _, p := range a.Properties {
		if p.Kind() == boxval.KindTable && log.Verbosity < mlog.LevelVerbose2 {
			continue
		}
		p.Dump(log, indent)
	}
}
