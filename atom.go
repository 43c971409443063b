// Package mp4box implements the atom ("box") tree engine at the core of an
// ISO-BMFF / QuickTime / 3GPP container library: a typed property schema
// per atom kind, a streaming big-endian binary codec, a path-addressable
// navigator, and a factory dispatching on four-character type codes (and
// parent context) to the correct atom variant.
package mp4box

import (
	"github.com/pkg/errors"

	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/diag"
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// ExpectedChild declares one entry in an atom's child schema: a type this
// atom's children are allowed (or required) to include.
type ExpectedChild struct {
	Type      string
	Mandatory bool
	OnlyOne   bool
	count     int
}

// Atom is one node of a parsed or constructed ISO-BMFF tree. The zero
// value is not useful; atoms are always built through a Registry so their
// type-specific schema and overrides are wired in.
type Atom struct {
	Type         string // exactly 4 bytes, space-padded where the format allows
	ExtendedType [16]byte
	HasExtended  bool // true iff Type == "uuid"

	Start         int64 // absolute offset of the size field
	End           int64 // exclusive
	Size          int64 // payload length, excluding the header
	LargeSizeMode bool

	Depth  int
	Parent *Atom // non-owning

	Properties []boxval.Property
	Children   []*Atom // owning

	ExpectedChildren []*ExpectedChild

	def          *typeDef // per-type schema/behavior; never nil after construction
	reg          *Registry
	openChildren bool // true for polymorphic containers like stsd/ilst; see typeDef.OpenChildren
}

// headerLen reports the byte length of this atom's size+type(+large
// size)(+extended type) header, per spec.md §4.5/§6.
func (a *Atom) headerLen() int64 {
	n := int64(8)
	if a.LargeSizeMode {
		n += 8
	}
	if a.HasExtended {
		n += 16
	}
	return n
}

// Property looks up a directly-owned property by name.
func (a *Atom) Property(name string) boxval.Property {
	for _, p := range a.Properties {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Child returns the index'th child whose Type matches typ, or nil.
func (a *Atom) Child(typ string, index int) *Atom {
	n := 0
	for _, c := range a.Children {
		if c.Type == typ {
			if n == index {
				return c
			}
			n++
		}
	}
	return nil
}

// ChildrenOfType returns every direct child whose Type matches typ.
func (a *Atom) ChildrenOfType(typ string) []*Atom {
	var out []*Atom
	for _, c := range a.Children {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// descendsFrom reports whether a or any ancestor of a has the given type.
func descendsFrom(a *Atom, typ string) bool {
	for n := a; n != nil; n = n.Parent {
		if n.Type == typ {
			return true
		}
	}
	return false
}

// addChild appends c as an owned child of a, wiring the back-pointer and
// incrementing the matching expected-child counter, if any.
func (a *Atom) addChild(c *Atom) {
	c.Parent = a
	c.Depth = a.Depth + 1
	a.Children = append(a.Children, c)
	for _, ec := range a.ExpectedChildren {
		if ec.Type == c.Type {
			ec.count++
			return
		}
	}
}

// expectChild declares a permitted child type, matching mp4v2's
// ExpectChildAtom.
func (a *Atom) expectChild(typ string, mandatory, onlyOne bool) {
	a.ExpectedChildren = append(a.ExpectedChildren, &ExpectedChild{
		Type: typ, Mandatory: mandatory, OnlyOne: onlyOne,
	})
}

// Generate populates a lawful minimal instance: each property takes its
// schema default, then every mandatory-and-only-one expected child is
// instantiated and generated in turn, recursively.
func (a *Atom) Generate() {
	for _, p := range a.Properties {
		p.Generate()
	}
	if a.def.Generate != nil {
		a.def.Generate(a)
	}
	for _, ec := range a.ExpectedChildren {
		if ec.Mandatory && ec.OnlyOne && ec.count == 0 {
			child := a.reg.New(a, ec.Type)
			a.addChild(child)
			child.Generate()
		}
	}
}

// readProperties runs this atom's property-read step: the type's
// ReadProperties override if one is registered (Pattern A atoms that
// append conditional tail fields), otherwise the generic sequential walk
// over the declared property list.
func (a *Atom) readProperties(r *iobox.BitReader) error {
	if a.def.ReadProperties != nil {
		return a.def.ReadProperties(a, r)
	}
	return readSequential(a.Properties, r)
}

// readSequential reads each property in order, the generic behavior
// shared by the vast majority of atom types.
func readSequential(props []boxval.Property, r *iobox.BitReader) error {
	for _, p := range props {
		if err := p.Read(r); err != nil {
			return errors.Wrapf(err, "property %q", p.Name())
		}
	}
	return nil
}

// writeSequential writes each property in declared order.
func writeSequential(props []boxval.Property, w *iobox.BitWriter) error {
	for _, p := range props {
		if err := p.Write(w); err != nil {
			return errors.Wrapf(err, "property %q", p.Name())
		}
	}
	return nil
}

// Read decodes this atom's properties, then its child atoms (if it is a
// container type or declares expected children), then runs any
// post-children reconciliation (Pattern B: count-governed tails). The
// sink must already be positioned at the first byte of the payload; Read
// leaves it at a.End on success.
func (a *Atom) Read(sink iobox.ByteSink, errs *diag.Sink, log *mlog.Log) error {
	r := iobox.NewBitReader(sink, a.End)
	if err := a.readProperties(r); err != nil {
		return err
	}
	r.AlignToByte()
	if a.def.Container || len(a.ExpectedChildren) > 0 {
		if err := a.readChildAtoms(sink, errs, log); err != nil {
			return err
		}
	}
	if a.def.AfterRead != nil {
		a.def.AfterRead(a, errs)
	}
	return Skip(a, sink)
}

// Skip advances sink to a.End regardless of how much of the payload was
// actually consumed, the recovery step after a malformed or unknown atom.
func Skip(a *Atom, sink iobox.ByteSink) error {
	if sink.Position() == a.End {
		return nil
	}
	return sink.Seek(a.End)
}

// Write serializes this atom: begin-write reserves the size field(s),
// properties and children are written in order, then finish-write patches
// the reserved size in place.
func (a *Atom) Write(sink iobox.ByteSink) error {
	if err := a.beginWrite(sink); err != nil {
		return err
	}
	w := iobox.NewBitWriter(sink)
	var writeErr error
	if a.def.WriteProperties != nil {
		writeErr = a.def.WriteProperties(a, w)
	} else {
		writeErr = writeSequential(a.Properties, w)
	}
	if writeErr != nil {
		return writeErr
	}
	if err := w.AlignToByte(); err != nil {
		return err
	}
	for _, c := range a.Children {
		if err := c.Write(sink); err != nil {
			return err
		}
	}
	return a.finishWrite(sink)
}

// beginWrite writes a placeholder header (size patched later by
// finishWrite) at the sink's current position, which becomes a.Start.
func (a *Atom) beginWrite(sink iobox.ByteSink) error {
	a.Start = sink.Position()
	if a.LargeSizeMode {
		if err := iobox.WriteUint32(sink, 1); err != nil {
			return err
		}
	} else {
		if err := iobox.WriteUint32(sink, 0); err != nil {
			return err
		}
	}
	if err := iobox.WriteBytes(sink, []byte(a.Type)); err != nil {
		return err
	}
	if a.LargeSizeMode {
		if err := iobox.WriteUint64(sink, 0); err != nil {
			return err
		}
	}
	if a.HasExtended {
		if err := iobox.WriteBytes(sink, a.ExtendedType[:]); err != nil {
			return err
		}
	}
	return nil
}

// finishWrite patches the size field(s) reserved by beginWrite, computing
// a.Size and a.End from the sink's current position.
func (a *Atom) finishWrite(sink iobox.ByteSink) error {
	end := sink.Position()
	a.End = end
	hdr := a.headerLen()
	a.Size = end - a.Start - hdr
	total := hdr + a.Size

	if err := sink.Seek(a.Start); err != nil {
		return err
	}
	if a.LargeSizeMode {
		if err := iobox.WriteUint32(sink, 1); err != nil {
			return err
		}
		if err := iobox.WriteBytes(sink, []byte(a.Type)); err != nil {
			return err
		}
		if err := iobox.WriteUint64(sink, uint64(total)); err != nil {
			return err
		}
	} else {
		if total > 0xFFFFFFFF {
			return errors.Errorf("mp4box: atom %q size %d exceeds 32-bit limit without large-size mode", a.Type, total)
		}
		if err := iobox.WriteUint32(sink, uint32(total)); err != nil {
			return err
		}
	}
	return sink.Seek(end)
}

// Rewrite re-serializes an already-written atom at its original Start,
// saving and restoring the sink's cursor around the operation, used when
// an edit to a child requires patching an ancestor's header in place.
func (a *Atom) Rewrite(sink iobox.ByteSink) error {
	saved := sink.Position()
	if err := sink.Seek(a.Start); err != nil {
		return err
	}
	if err := a.Write(sink); err != nil {
		return err
	}
	return sink.Seek(saved)
}
