// Package mlog provides the leveled logging sink used throughout mp4box.
//
// It mirrors the injectable logger mp4v2 exposes to its parser and writer
// internals: a caller may redirect every diagnostic and trace line through a
// callback, or fall back to a package default that writes to stderr via the
// standard library's log package.
package mlog

import (
	"fmt"
	"log"
	"os"
)

// Level is a verbosity level, ordered from least to most chatty.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelVerbose1
	LevelVerbose2
	LevelVerbose3
	LevelVerbose4
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARNING"
	case LevelInfo:
		return "INFO"
	case LevelVerbose1:
		return "VERBOSE1"
	case LevelVerbose2:
		return "VERBOSE2"
	case LevelVerbose3:
		return "VERBOSE3"
	case LevelVerbose4:
		return "VERBOSE4"
	default:
		return "UNKNOWN"
	}
}

// Callback receives a fully formatted line at the given level. Handle is an
// opaque value passed straight through from SetCallback, letting a host
// program attach per-tree context (e.g. a file handle) without a closure.
type Callback func(level Level, handle interface{}, line string)

// Log is a leveled, callback-redirectable log sink. The zero value logs at
// LevelNone (i.e. discards everything) through the standard library logger.
type Log struct {
	Verbosity Level

	cb     Callback
	handle interface{}
	std    *log.Logger
}

// New returns a Log writing to os.Stderr at the given verbosity unless
// SetCallback is called. mp4box's File constructors build their Log with
// New(LevelNone).
func New(verbosity Level) *Log {
	return &Log{
		Verbosity: verbosity,
		std:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SetCallback redirects all output through cb instead of the default
// stderr logger. Passing a nil cb restores the default.
func (l *Log) SetCallback(cb Callback, handle interface{}) {
	l.cb = cb
	l.handle = handle
}

func (l *Log) emit(level Level, format string, args ...interface{}) {
	if level > l.Verbosity {
		return
	}
	line := fmt.Sprintf(format, args...)
	if l.cb != nil {
		l.cb(level, l.handle, line)
		return
	}
	if l.std == nil {
		l.std = log.New(os.Stderr, "", log.LstdFlags)
	}
	l.std.Printf("[%s]: %s", level, line)
}

func (l *Log) Errorf(format string, args ...interface{})    { l.emit(LevelError, format, args...) }
func (l *Log) Warningf(format string, args ...interface{})  { l.emit(LevelWarning, format, args...) }
func (l *Log) Infof(format string, args ...interface{})     { l.emit(LevelInfo, format, args...) }
func (l *Log) Verbose1f(format string, args ...interface{}) { l.emit(LevelVerbose1, format, args...) }
func (l *Log) Verbose2f(format string, args ...interface{}) { l.emit(LevelVerbose2, format, args...) }

// Dump writes one indented dump line, used by the atom tree's text dump
// (spec §6). indent is measured in two-space steps.
func (l *Log) Dump(indent int, level Level, format string, args ...interface{}) {
	if level > l.Verbosity {
		return
	}
	pad := ""
	for i := 0; i < indent; i++ {
		pad += "  "
	}
	l.emit(level, pad+format, args...)
}

// FormatMsg renders a category/location-tagged diagnostic message, matching
// mp4v2's Log::formatMsg.
func FormatMsg(category, location, format string, args ...interface{}) string {
	return fmt.Sprintf("%s: %s: %s", category, location, fmt.Sprintf(format, args...))
}

// FormatTrackMsg renders a category/location/track-tagged diagnostic
// message, matching mp4v2's Log::formatTrackMsg.
func FormatTrackMsg(category, location string, trackID uint32, format string, args ...interface{}) string {
	return fmt.Sprintf("%s: %s: Track %d: %s", category, location, trackID, fmt.Sprintf(format, args...))
}

// Default is a package-wide logger at LevelNone, in the spirit of mp4v2's
// single global instance. mp4box does not use it: each File gets its own
// Log from New.
var Default = New(LevelNone)
