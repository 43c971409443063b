package boxval

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// BytesProperty is a raw byte buffer: either a fixed declared length (a
// reserved field, a fixed-size opaque payload) or variable length read to
// the end of the enclosing atom (sample description opaque tails, free
// space fillers).
type BytesProperty struct {
	base
	FixedLen int  // >= 0 for a fixed-length buffer
	ToEnd    bool // true to consume every remaining byte instead
	value    []byte
}

// NewBytes declares a fixed-length byte buffer property.
func NewBytes(name string, length int) *BytesProperty {
	return &BytesProperty{base: base{name: name}, FixedLen: length}
}

// NewBytesToEnd declares a byte buffer that consumes every byte remaining
// in the enclosing atom, used for opaque tails like free/skip payloads.
func NewBytesToEnd(name string) *BytesProperty {
	return &BytesProperty{base: base{name: name}, ToEnd: true}
}

func (p *BytesProperty) Kind() Kind { return KindBytes }

func (p *BytesProperty) Value() []byte     { return p.value }
func (p *BytesProperty) SetValue(v []byte) { p.value = v }

func (p *BytesProperty) Read(r *iobox.BitReader) error {
	n := p.FixedLen
	if p.ToEnd {
		remaining := r.Remaining()
		if remaining < 0 {
			return errors.Errorf("boxval: %s: ToEnd requires a bounded reader", p.name)
		}
		n = int(remaining)
	}
	raw, err := r.Bytes(n)
	if err != nil {
		return err
	}
	p.value = raw
	return nil
}

func (p *BytesProperty) Write(w *iobox.BitWriter) error {
	return w.Bytes(p.value)
}

func (p *BytesProperty) Generate() {
	if p.ToEnd {
		p.value = nil
		return
	}
	p.value = make([]byte, p.FixedLen)
}

func (p *BytesProperty) Dump(log *mlog.Log, indent int) {
	dumpf(log, indent, "%s = %s (%d bytes)", p.name, hex.EncodeToString(p.value), len(p.value))
}
