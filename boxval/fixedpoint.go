package boxval

import (
	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// FixedPointProperty is a binary fixed-point number stored as IntBits.FracBits
// in IntBits+FracBits total bits, e.g. the 8.8 "volume" field or the 16.16
// "rate"/matrix entries used throughout mvhd/tkhd.
type FixedPointProperty struct {
	base
	IntBits  uint
	FracBits uint
	raw      uint64
}

// NewFixedPoint declares a fixed-point property with the given integer and
// fractional bit widths. Total width must be 8, 16, 32, or 64.
func NewFixedPoint(name string, intBits, fracBits uint) *FixedPointProperty {
	total := intBits + fracBits
	switch total {
	case 8, 16, 32, 64:
	default:
		panic("boxval: NewFixedPoint: unsupported total width")
	}
	return &FixedPointProperty{base: base{name: name}, IntBits: intBits, FracBits: fracBits}
}

func (p *FixedPointProperty) Kind() Kind { return KindFixedPoint }

// Raw returns the undecoded bit pattern.
func (p *FixedPointProperty) Raw() uint64     { return p.raw }
func (p *FixedPointProperty) SetRaw(v uint64) { p.raw = v }

// Float decodes the raw bits into a float64.
func (p *FixedPointProperty) Float() float64 {
	return float64(p.raw) / float64(uint64(1)<<p.FracBits)
}

// SetFloat encodes v into the raw bit pattern, truncating toward zero.
func (p *FixedPointProperty) SetFloat(v float64) {
	p.raw = uint64(v * float64(uint64(1)<<p.FracBits))
}

func (p *FixedPointProperty) width() uint { return p.IntBits + p.FracBits }

func (p *FixedPointProperty) Read(r *iobox.BitReader) error {
	v, err := r.ReadBits(p.width())
	if err != nil {
		return err
	}
	p.raw = v
	return nil
}

func (p *FixedPointProperty) Write(w *iobox.BitWriter) error {
	return w.WriteBits(p.raw, p.width())
}

func (p *FixedPointProperty) Generate() { p.raw = 0 }

func (p *FixedPointProperty) Dump(log *mlog.Log, indent int) {
	dumpf(log, indent, "%s = %g (%d.%d)", p.name, p.Float(), p.IntBits, p.FracBits)
}
