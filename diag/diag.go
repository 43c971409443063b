// Package diag collects the non-fatal parsing diagnostics produced while
// reading a lawful-or-not ISO-BMFF tree. Diagnostics never abort a parse;
// they are recorded here and the caller continues with best-effort
// recovery, per the error taxonomy in mp4v2's src/log.h.
package diag

import "fmt"

// Severity ranks a Diagnostic. Only I/O failures are fatal, and fatal
// failures are reported as Go errors, not as Diagnostics.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "Info"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Category strings, ported from mp4v2's log.h error-category macros.
func Malformed(atomType string) string   { return fmt.Sprintf("Malformed atom '%s'", atomType) }
func Specification() string              { return "Specification" }
func InvalidProperty(name string) string { return fmt.Sprintf("Invalid property '%s' value", name) }
func MissingAtom(name string) string     { return fmt.Sprintf("Missing atom '%s'", name) }

// Location strings, ported from mp4v2's log.h error-location macros.
const (
	LocationContainer = "Container"
	LocationTrack     = "Track"
)

// Diagnostic is one recorded parsing issue.
type Diagnostic struct {
	Severity Severity
	Category string
	Location string
	TrackID  uint32 // 0 (MP4_INVALID_TRACK_ID equivalent) when not track-scoped
	Message  string
}

func (d Diagnostic) HasTrack() bool { return d.TrackID != 0 }

func (d Diagnostic) String() string {
	if d.HasTrack() {
		return fmt.Sprintf("[%s]: %s: %s: Track %d: %s", d.Severity, d.Category, d.Location, d.TrackID, d.Message)
	}
	return fmt.Sprintf("[%s]: %s: %s: %s", d.Severity, d.Category, d.Location, d.Message)
}

// Sink accumulates Diagnostics in emission order. The zero value is ready
// to use.
type Sink struct {
	records []Diagnostic
}

// Add appends a diagnostic in emission order.
func (s *Sink) Add(d Diagnostic) {
	s.records = append(s.records, d)
}

// Errorf appends an error-severity diagnostic.
func (s *Sink) Errorf(category, location string, trackID uint32, format string, args ...interface{}) {
	s.Add(Diagnostic{SeverityError, category, location, trackID, fmt.Sprintf(format, args...)})
}

// Warningf appends a warning-severity diagnostic.
func (s *Sink) Warningf(category, location string, trackID uint32, format string, args ...interface{}) {
	s.Add(Diagnostic{SeverityWarning, category, location, trackID, fmt.Sprintf(format, args...)})
}

// Infof appends an info-severity diagnostic.
func (s *Sink) Infof(category, location string, trackID uint32, format string, args ...interface{}) {
	s.Add(Diagnostic{SeverityInfo, category, location, trackID, fmt.Sprintf(format, args...)})
}

// All returns every recorded diagnostic, oldest first.
func (s *Sink) All() []Diagnostic {
	return s.records
}

// Len reports how many diagnostics have been recorded.
func (s *Sink) Len() int { return len(s.records) }

// BySeverity returns only diagnostics at or above the given severity.
func (s *Sink) BySeverity(min Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.records {
		if d.Severity >= min {
			out = append(out, d)
		}
	}
	return out
}

// Reset discards all recorded diagnostics.
func (s *Sink) Reset() {
	s.records = s.records[:0]
}
