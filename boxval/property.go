// Package boxval implements the typed property system backing every atom's
// field list: fixed-width integers, bitfields, fixed-point numbers,
// strings, byte buffers, MPEG-4 descriptors, and row tables. Each
// Property knows how to read and write itself through an iobox bit cursor
// and how to render itself for the text dump format (spec §6).
package boxval

import (
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// Kind discriminates the closed set of property variants. It exists mainly
// so dump.go can decide dump verbosity (tables are suppressed below
// verbose level 2) without a type switch at every call site.
type Kind int

const (
	KindInt Kind = iota
	KindBitfield
	KindFixedPoint
	KindString
	KindBytes
	KindDescriptor
	KindTable
)

// Property is one named, typed, self-serializing field of an atom.
type Property interface {
	// Name is the field name used by the Navigator and by Dump, e.g.
	// "trackId" or "entryCount".
	Name() string

	// Kind reports which concrete variant this is.
	Kind() Kind

	// ReadOnly reports whether application code may mutate this value
	// directly (schema-level read-only properties may still be
	// rewritten transiently during parse-time reconciliation).
	ReadOnly() bool
	SetReadOnly(bool)

	// Read decodes the property from r, which is already positioned at
	// the property's first bit.
	Read(r *iobox.BitReader) error

	// Write encodes the property to w.
	Write(w *iobox.BitWriter) error

	// Generate resets the property to a lawful default value, used when
	// building a new atom from scratch instead of parsing one.
	Generate()

	// Dump renders one or more indented lines describing the property's
	// current value to log at the given indent level.
	Dump(log *mlog.Log, indent int)
}

// UintValuer is implemented by IntProperty and BitfieldProperty, letting
// callers that need a bare numeric value (track IDs, gating fields,
// counts) avoid a type switch over the concrete property type.
type UintValuer interface {
	Value() uint64
}

// base holds the fields every Property variant shares.
type base struct {
	name     string
	readOnly bool
}

func (b *base) Name() string       { return b.name }
func (b *base) ReadOnly() bool     { return b.readOnly }
func (b *base) SetReadOnly(v bool) { b.readOnly = v }

// dumpf is a small helper shared by every Dump implementation.
func dumpf(log *mlog.Log, indent int, format string, args ...interface{}) {
	log.Dump(indent, mlog.LevelVerbose1, format, args...)
}
