package boxval

import (
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// BitfieldProperty is a sub-byte-aligned field packed MSB-first alongside
// its siblings, e.g. dec3's "fscod":2 and "acmod":3. Atoms that pack
// several bitfields into shared bytes construct one BitfieldProperty per
// field and rely on the shared BitReader/BitWriter to track the partial
// byte across calls, mirroring mp4v2's MP4BitfieldProperty.
type BitfieldProperty struct {
	base
	NumBits uint
	value   uint64
}

// NewBitfield declares a bitfield property numBits wide (1-64).
func NewBitfield(name string, numBits uint) *BitfieldProperty {
	if numBits == 0 || numBits > 64 {
		panic("boxval: NewBitfield: invalid bit width")
	}
	return &BitfieldProperty{base: base{name: name}, NumBits: numBits}
}

func (p *BitfieldProperty) Kind() Kind { return KindBitfield }

// GetNumBits reports the field's declared width, mirroring mp4v2's
// MP4BitfieldProperty::GetNumBits (atom_dec3.cpp reads it back to size the
// conditional chan_loc tail field).
func (p *BitfieldProperty) GetNumBits() uint { return p.NumBits }

func (p *BitfieldProperty) Value() uint64     { return p.value }
func (p *BitfieldProperty) SetValue(v uint64) { p.value = v }

func (p *BitfieldProperty) Read(r *iobox.BitReader) error {
	v, err := r.ReadBits(p.NumBits)
	if err != nil {
		return err
	}
	p.value = v
	return nil
}

func (p *BitfieldProperty) Write(w *iobox.BitWriter) error {
	return w.WriteBits(p.value, p.NumBits)
}

func (p *BitfieldProperty) Generate() { p.value = 0 }

func (p *BitfieldProperty) Dump(log *mlog.Log, indent int) {
	dumpf(log, indent, "%s = %d (%d bits)", p.name, p.value, p.NumBits)
}
