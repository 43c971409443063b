package iobox

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ReadUint8 reads one big-endian byte.
func ReadUint8(s ByteSink) (uint8, error) {
	var buf [1]byte
	if _, err := s.Read(buf[:]); err != nil {
		return 0, errors.Wrap(err, "iobox: ReadUint8")
	}
	return buf[0], nil
}

// ReadUint16 reads a big-endian uint16.
func ReadUint16(s ByteSink) (uint16, error) {
	var buf [2]byte
	if _, err := s.Read(buf[:]); err != nil {
		return 0, errors.Wrap(err, "iobox: ReadUint16")
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadUint24 reads a big-endian 24-bit integer into the low bits of a
// uint32, as used by MP4 "version+flags" atoms.
func ReadUint24(s ByteSink) (uint32, error) {
	var buf [3]byte
	if _, err := s.Read(buf[:]); err != nil {
		return 0, errors.Wrap(err, "iobox: ReadUint24")
	}
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2]), nil
}

// ReadUint32 reads a big-endian uint32.
func ReadUint32(s ByteSink) (uint32, error) {
	var buf [4]byte
	if _, err := s.Read(buf[:]); err != nil {
		return 0, errors.Wrap(err, "iobox: ReadUint32")
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadUint64 reads a big-endian uint64.
func ReadUint64(s ByteSink) (uint64, error) {
	var buf [8]byte
	if _, err := s.Read(buf[:]); err != nil {
		return 0, errors.Wrap(err, "iobox: ReadUint64")
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// ReadBytes reads n bytes into a new buffer. A short read at EOF is not
// reported: the bytes past EOF are left zero.
func ReadBytes(s ByteSink, n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := s.Read(buf); err != nil {
		return nil, errors.Wrap(err, "iobox: ReadBytes")
	}
	return buf, nil
}

// WriteUint8 writes one big-endian byte.
func WriteUint8(s ByteSink, v uint8) error {
	_, err := s.Write([]byte{v})
	return errors.Wrap(err, "iobox: WriteUint8")
}

// WriteUint16 writes a big-endian uint16.
func WriteUint16(s ByteSink, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := s.Write(buf[:])
	return errors.Wrap(err, "iobox: WriteUint16")
}

// WriteUint24 writes the low 24 bits of v, big-endian.
func WriteUint24(s ByteSink, v uint32) error {
	buf := [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
	_, err := s.Write(buf[:])
	return errors.Wrap(err, "iobox: WriteUint24")
}

// WriteUint32 writes a big-endian uint32.
func WriteUint32(s ByteSink, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := s.Write(buf[:])
	return errors.Wrap(err, "iobox: WriteUint32")
}

// WriteUint64 writes a big-endian uint64.
func WriteUint64(s ByteSink, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := s.Write(buf[:])
	return errors.Wrap(err, "iobox: WriteUint64")
}

// WriteBytes writes buf verbatim.
func WriteBytes(s ByteSink, buf []byte) error {
	_, err := s.Write(buf)
	return errors.Wrap(err, "iobox: WriteBytes")
}
