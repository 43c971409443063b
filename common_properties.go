package mp4box

import "ktkr.us/pkg/mp4box/boxval"

// versionAndFlags returns the two leading properties shared by every
// "full box": an 8-bit version and a 24-bit flags word, per spec.md §4.2
// ("whether it is a 'version+flags' atom").
func versionAndFlags() []boxval.Property {
	return []boxval.Property{
		boxval.NewInt("version", 8),
		boxval.NewInt("flags", 24),
	}
}

func versionOf(a *Atom) uint64 {
	if p, ok := a.Property("version").(boxval.UintValuer); ok {
		return p.Value()
	}
	return 0
}
