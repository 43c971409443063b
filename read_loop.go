package mp4box

import (
	"ktkr.us/pkg/mp4box/boxval"
	"ktkr.us/pkg/mp4box/diag"
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// isReasonableType implements the reasonableness test from spec.md §7: a
// four-char type is reasonable iff bytes 0..2 are alphanumeric and byte 3
// is alphanumeric or space.
func isReasonableType(typ string) bool {
	if len(typ) != 4 {
		return false
	}
	isAlnum := func(b byte) bool {
		return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
	}
	for i := 0; i < 3; i++ {
		if !isAlnum(typ[i]) {
			return false
		}
	}
	return isAlnum(typ[3]) || typ[3] == ' '
}

// readChildAtoms is the core read loop of spec.md §4.5: it parses a
// concatenation of child atoms starting at the sink's current position
// and running until a.End, handling malformed sizes, large-size mode,
// size==0 end-extension, uuid extended types, and overflow clamping, then
// checks the mandatory/only-one cardinality of a's expected children.
func (a *Atom) readChildAtoms(sink iobox.ByteSink, errs *diag.Sink, log *mlog.Log) error {
	for sink.Position() < a.End {
		p := sink.Position()

		child, consumed, err := a.readOneChildAtom(sink, p, errs, log)
		if err != nil {
			return err
		}
		if !consumed {
			break
		}
		if child != nil {
			a.classifyChild(child, errs)
		}
	}

	a.checkCardinality(errs)
	return nil
}

// readOneChildAtom parses a single atom header (and, unless malformed,
// body) at position p. It returns the parsed atom (nil if the header was
// malformed, if the atom's own Read failed and it was dropped, or if the
// parent's tail was consumed), whether the caller should keep reading
// (false once the parent's tail has been consumed: the udta terminator,
// or a tail too short for a header), and a fatal I/O error, if any.
func (a *Atom) readOneChildAtom(sink iobox.ByteSink, p int64, errs *diag.Sink, log *mlog.Log) (*Atom, bool, error) {
	remaining := a.End - p

	// Tolerate udta's legacy 4-zero-byte terminator: if exactly 4 bytes
	// remain and they are all zero, consume them and stop.
	if a.Type == "udta" && remaining == 4 {
		buf, err := iobox.ReadBytes(sink, 4)
		if err != nil {
			return nil, false, err
		}
		allZero := true
		for _, b := range buf {
			if b != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			return nil, false, nil
		}
		errs.Warningf(diag.Specification(), diag.LocationContainer, trackIDOf(a), "udta: unexpected trailing bytes, consumed")
		return nil, false, nil
	}

	if remaining < 8 {
		// Not enough room for even a minimal header: record an error and
		// stop the loop here, consuming the rest.
		errs.Errorf(diag.Specification(), diag.LocationContainer, trackIDOf(a), "unexpected trailing bytes inside '%s'", a.Type)
		if err := sink.Seek(a.End); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	s0, err := iobox.ReadUint32(sink)
	if err != nil {
		return nil, false, err
	}
	typeBytes, err := iobox.ReadBytes(sink, 4)
	if err != nil {
		return nil, false, err
	}
	typ := string(typeBytes)

	var size int64
	hdr := int64(8)
	switch {
	case s0 == 1:
		s64, err := iobox.ReadUint64(sink)
		if err != nil {
			return nil, false, err
		}
		size = int64(s64)
		hdr = 16
	case s0 == 0:
		size = a.End - p
	default:
		size = int64(s0)
	}

	large := s0 == 1
	hasExtended := typ == "uuid"
	if hasExtended {
		hdr += 16
	}

	if size < hdr {
		errs.Errorf(diag.Malformed(typ), diag.LocationContainer, trackIDOf(a), "atom size %d smaller than header length %d", size, hdr)
		if err := sink.Seek(p + hdr); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	payload := size - hdr
	overflow := p+hdr+payload > a.End
	if overflow {
		payload = a.End - p - hdr
	}

	child := a.reg.New(a, typ)
	child.Start = p
	child.Size = payload
	child.End = p + hdr + payload
	child.LargeSizeMode = large
	child.HasExtended = hasExtended
	child.Parent = a
	child.Depth = a.Depth + 1

	if hasExtended {
		ext, err := iobox.ReadBytes(sink, 16)
		if err != nil {
			return nil, false, err
		}
		copy(child.ExtendedType[:], ext)
	}

	if !isReasonableType(typ) {
		errs.Warningf(diag.Malformed(typ), diag.LocationContainer, trackIDOf(a), "type %q fails the reasonableness test", typ)
	}

	if overflow {
		errs.Errorf(diag.Specification(), diag.LocationContainer, trackIDOf(a), "atom '%s' payload extends past its parent's end", typ)
		if err := Skip(child, sink); err != nil {
			return nil, false, err
		}
		return child, true, nil
	}

	if err := child.Read(sink, errs, log); err != nil {
		// Schema decode failure: drop this atom, resume at its end, per
		// spec.md §7 "schema decoding errors ... atom is destroyed and
		// skipped."
		if seekErr := sink.Seek(child.End); seekErr != nil {
			return nil, false, seekErr
		}
		return nil, true, nil
	}
	return child, true, nil
}

// classifyChild aggregates a successfully parsed child into a's
// expected-children bookkeeping, emitting diagnostics for unexpected
// children per spec.md §4.5 step 10.
func (a *Atom) classifyChild(child *Atom, errs *diag.Sink) {
	a.addChild(child)
	for _, ec := range a.ExpectedChildren {
		if ec.Type == child.Type {
			return
		}
	}
	if a.openChildren {
		return
	}
	if a.Type == "" {
		errs.Errorf(diag.Specification(), diag.LocationContainer, trackIDOf(a), "unexpected root-level atom '%s'", child.Type)
		return
	}
	if a.Type != "udta" {
		errs.Infof(diag.Specification(), diag.LocationContainer, trackIDOf(a), "unexpected child atom '%s' in '%s'", child.Type, a.Type)
	}
}

// checkCardinality emits missing-atom and duplicate-child diagnostics for
// this atom's expected children, per spec.md §4.5 end-of-read checks.
func (a *Atom) checkCardinality(errs *diag.Sink) {
	for _, ec := range a.ExpectedChildren {
		if ec.Mandatory && ec.count == 0 {
			errs.Errorf(diag.MissingAtom(ec.Type), diag.LocationContainer, trackIDOf(a), "mandatory child '%s' missing from '%s'", ec.Type, a.Type)
		}
		if ec.OnlyOne && ec.count > 1 {
			errs.Errorf(diag.Specification(), diag.LocationContainer, trackIDOf(a), "child '%s' appears %d times in '%s', expected at most one", ec.Type, ec.count, a.Type)
		}
	}
}

// trackIDOf walks up to the nearest ancestor 'trak' atom and returns its
// tkhd.trackId, or 0 if a does not descend from one.
func trackIDOf(a *Atom) uint32 {
	for n := a; n != nil; n = n.Parent {
		if n.Type == "trak" {
			tkhd := n.Child("tkhd", 0)
			if tkhd == nil {
				return 0
			}
			if p, ok := tkhd.Property("trackId").(boxval.UintValuer); ok {
				return uint32(p.Value())
			}
		}
	}
	return 0
}
