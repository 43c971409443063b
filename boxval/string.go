package boxval

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// Framing selects how a StringProperty finds its own length on the wire.
type Framing int

const (
	// FramingCounted8 is a one-byte length prefix followed by that many
	// bytes, the classic "Pascal string", used by chpl chapter titles,
	// href's base URL and payt's rtpmap string.
	FramingCounted8 Framing = iota

	// FramingCounted16 is a two-byte big-endian length prefix, used by
	// the legacy QTFF udta leaf atoms (©nam, ©day, ...) that predate the
	// iTunes data-atom convention.
	FramingCounted16

	// FramingNulTerminated reads until (and consumes) a single 0x00
	// byte, as used by hdlr's name field and url/urn location strings.
	FramingNulTerminated

	// FramingFixed reads a caller-declared fixed byte count with no
	// length prefix and no terminator.
	FramingFixed

	// FramingToEnd reads every remaining byte up to the atom's payload
	// boundary, used by the rtp /sdp  SDP text and the '----' mean/name
	// key strings.
	FramingToEnd
)

// Charset selects the byte encoding of a StringProperty's payload. Legacy
// QTFF counted strings are MacRoman; everything touched by the later
// iTunes metadata convention, and all of ISO-BMFF proper, is UTF-8.
type Charset int

const (
	CharsetUTF8 Charset = iota
	CharsetMacRoman
)

// StringProperty is a framed, charset-aware text field.
type StringProperty struct {
	base
	Framing  Framing
	Charset  Charset
	FixedLen int // only meaningful when Framing == FramingFixed
	value    string
}

// NewString declares a string property with the given framing and UTF-8
// charset, the overwhelmingly common case for ISO-BMFF atoms.
func NewString(name string, framing Framing) *StringProperty {
	return &StringProperty{base: base{name: name}, Framing: framing, Charset: CharsetUTF8}
}

// NewFixedString declares a fixed-length, non-terminated string property.
func NewFixedString(name string, length int) *StringProperty {
	return &StringProperty{base: base{name: name}, Framing: FramingFixed, Charset: CharsetUTF8, FixedLen: length}
}

// NewMacRomanString declares a MacRoman-encoded counted string, for the
// handful of legacy udta leaves that predate the iTunes UTF-8 convention.
func NewMacRomanString(name string, framing Framing) *StringProperty {
	return &StringProperty{base: base{name: name}, Framing: framing, Charset: CharsetMacRoman}
}

func (p *StringProperty) Kind() Kind { return KindString }

func (p *StringProperty) Value() string     { return p.value }
func (p *StringProperty) SetValue(v string) { p.value = v }

func (p *StringProperty) decode(raw []byte) (string, error) {
	if p.Charset == CharsetMacRoman {
		out, err := charmap.Macintosh.NewDecoder().Bytes(raw)
		if err != nil {
			return "", errors.Wrapf(err, "boxval: %s: decode MacRoman", p.name)
		}
		return string(out), nil
	}
	return string(raw), nil
}

func (p *StringProperty) encode(s string) ([]byte, error) {
	if p.Charset == CharsetMacRoman {
		out, err := charmap.Macintosh.NewEncoder().String(s)
		if err != nil {
			return nil, errors.Wrapf(err, "boxval: %s: encode MacRoman", p.name)
		}
		return []byte(out), nil
	}
	return []byte(s), nil
}

func (p *StringProperty) Read(r *iobox.BitReader) error {
	switch p.Framing {
	case FramingCounted8:
		n, err := r.ReadByte()
		if err != nil {
			return err
		}
		raw, err := r.Bytes(int(n))
		if err != nil {
			return err
		}
		s, err := p.decode(raw)
		if err != nil {
			return err
		}
		p.value = s
		return nil

	case FramingCounted16:
		hi, err := r.ReadByte()
		if err != nil {
			return err
		}
		lo, err := r.ReadByte()
		if err != nil {
			return err
		}
		n := int(hi)<<8 | int(lo)
		raw, err := r.Bytes(n)
		if err != nil {
			return err
		}
		s, err := p.decode(raw)
		if err != nil {
			return err
		}
		p.value = s
		return nil

	case FramingNulTerminated:
		var buf []byte
		for {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			if b == 0 {
				break
			}
			buf = append(buf, b)
		}
		s, err := p.decode(buf)
		if err != nil {
			return err
		}
		p.value = s
		return nil

	case FramingFixed:
		raw, err := r.Bytes(p.FixedLen)
		if err != nil {
			return err
		}
		s, err := p.decode(bytes.TrimRight(raw, "\x00"))
		if err != nil {
			return err
		}
		p.value = s
		return nil

	case FramingToEnd:
		remaining := r.Remaining()
		if remaining < 0 {
			return errors.Errorf("boxval: %s: FramingToEnd requires a bounded reader", p.name)
		}
		raw, err := r.Bytes(int(remaining))
		if err != nil {
			return err
		}
		s, err := p.decode(raw)
		if err != nil {
			return err
		}
		p.value = s
		return nil

	default:
		return errors.Errorf("boxval: %s: unknown framing %d", p.name, p.Framing)
	}
}

func (p *StringProperty) Write(w *iobox.BitWriter) error {
	raw, err := p.encode(p.value)
	if err != nil {
		return err
	}
	switch p.Framing {
	case FramingCounted8:
		if len(raw) > 255 {
			return errors.Errorf("boxval: %s: counted8 string too long (%d bytes)", p.name, len(raw))
		}
		if err := w.WriteByte(byte(len(raw))); err != nil {
			return err
		}
		return w.Bytes(raw)

	case FramingCounted16:
		if len(raw) > 0xFFFF {
			return errors.Errorf("boxval: %s: counted16 string too long (%d bytes)", p.name, len(raw))
		}
		if err := w.WriteByte(byte(len(raw) >> 8)); err != nil {
			return err
		}
		if err := w.WriteByte(byte(len(raw))); err != nil {
			return err
		}
		return w.Bytes(raw)

	case FramingNulTerminated:
		if err := w.Bytes(raw); err != nil {
			return err
		}
		return w.WriteByte(0)

	case FramingFixed:
		if len(raw) > p.FixedLen {
			raw = raw[:p.FixedLen]
		}
		padded := make([]byte, p.FixedLen)
		copy(padded, raw)
		return w.Bytes(padded)

	case FramingToEnd:
		return w.Bytes(raw)

	default:
		return errors.Errorf("boxval: %s: unknown framing %d", p.name, p.Framing)
	}
}

func (p *StringProperty) Generate() { p.value = "" }

func (p *StringProperty) Dump(log *mlog.Log, indent int) {
	dumpf(log, indent, "%s = %q", p.name, p.value)
}
