package boxval

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// DescriptorProperty is one MPEG-4 systems descriptor (ISO/IEC 14496-1
// §8.3.3): a one-byte tag, a BER-encoded variable-length size (1-4 bytes,
// each contributing 7 bits with bit 7 as the continuation flag), and that
// many bytes of payload. esds and its DecoderConfigDescriptor/
// SLConfigDescriptor children are built from these.
type DescriptorProperty struct {
	base
	ExpectedTag byte // 0 to accept any tag
	tag         byte
	payload     []byte
}

// NewDescriptor declares a descriptor property. If expectedTag is
// non-zero, Read returns an error for a mismatched tag; the atom read loop
// then drops the enclosing atom and resumes at its end, recording no
// diagnostic for it.
func NewDescriptor(name string, expectedTag byte) *DescriptorProperty {
	return &DescriptorProperty{base: base{name: name}, ExpectedTag: expectedTag}
}

func (p *DescriptorProperty) Kind() Kind { return KindDescriptor }

func (p *DescriptorProperty) Tag() byte           { return p.tag }
func (p *DescriptorProperty) Payload() []byte     { return p.payload }
func (p *DescriptorProperty) SetPayload(b []byte) { p.payload = b }

func (p *DescriptorProperty) Read(r *iobox.BitReader) error {
	tag, err := r.ReadByte()
	if err != nil {
		return err
	}
	if p.ExpectedTag != 0 && tag != p.ExpectedTag {
		return errors.Errorf("boxval: %s: expected descriptor tag 0x%02x, got 0x%02x", p.name, p.ExpectedTag, tag)
	}
	size, err := readBERSize(r)
	if err != nil {
		return err
	}
	payload, err := r.Bytes(int(size))
	if err != nil {
		return err
	}
	p.tag = tag
	p.payload = payload
	return nil
}

func readBERSize(r *iobox.BitReader) (uint32, error) {
	var size uint32
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		size = size<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return size, nil
		}
	}
	return 0, errors.Errorf("boxval: BER size exceeds 4 bytes")
}

func writeBERSize(w *iobox.BitWriter, size uint32) error {
	var bytes []byte
	bytes = append(bytes, byte(size&0x7f))
	size >>= 7
	for size > 0 {
		bytes = append(bytes, byte(size&0x7f)|0x80)
		size >>= 7
	}
	for i := len(bytes) - 1; i >= 0; i-- {
		if err := w.WriteByte(bytes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *DescriptorProperty) Write(w *iobox.BitWriter) error {
	if err := w.WriteByte(p.tag); err != nil {
		return err
	}
	if err := writeBERSize(w, uint32(len(p.payload))); err != nil {
		return err
	}
	return w.Bytes(p.payload)
}

func (p *DescriptorProperty) Generate() {
	p.tag = p.ExpectedTag
	p.payload = nil
}

func (p *DescriptorProperty) Dump(log *mlog.Log, indent int) {
	dumpf(log, indent, "%s = tag 0x%02x, %s (%d bytes)", p.name, p.tag, hex.EncodeToString(p.payload), len(p.payload))
}
