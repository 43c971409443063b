package boxval

import (
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// IntProperty is a fixed-width, byte-aligned unsigned integer: the
// "version" byte, the 24-bit "flags" word, sample counts, track IDs, and
// similar fields mp4v2 models as Integer8/16/32/64Property.
type IntProperty struct {
	base
	Width uint // 8, 16, 24, 32, or 64
	value uint64
}

// NewInt declares a new integer property of the given bit width.
func NewInt(name string, width uint) *IntProperty {
	switch width {
	case 8, 16, 24, 32, 64:
	default:
		panic("boxval: NewInt: unsupported width")
	}
	return &IntProperty{base: base{name: name}, Width: width}
}

func (p *IntProperty) Kind() Kind { return KindInt }

func (p *IntProperty) Value() uint64     { return p.value }
func (p *IntProperty) SetValue(v uint64) { p.value = v }

func (p *IntProperty) Read(r *iobox.BitReader) error {
	v, err := r.ReadBits(p.Width)
	if err != nil {
		return err
	}
	p.value = v
	return nil
}

func (p *IntProperty) Write(w *iobox.BitWriter) error {
	return w.WriteBits(p.value, p.Width)
}

func (p *IntProperty) Generate() { p.value = 0 }

func (p *IntProperty) Dump(log *mlog.Log, indent int) {
	dumpf(log, indent, "%s = %d", p.name, p.value)
}
