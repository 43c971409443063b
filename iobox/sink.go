// Package iobox implements the random-access byte sink the atom engine
// reads and writes through, plus the bit-aligned cursor atoms use to decode
// MP4/QTFF bitfield properties.
//
// A ByteSink is satisfied by a plain file, by an in-memory buffer (used
// throughout this module's tests in place of temp files), or by a
// caller-supplied set of callbacks, matching mp4v2's MP4FileProvider.
package iobox

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// ByteSink is the random-access binary I/O contract the atom engine is
// built on. Every operation is synchronous and blocking; there is no
// cancellation path short of dropping the ByteSink itself.
type ByteSink interface {
	// Size returns the current backing size, or -1 if it cannot be
	// determined.
	Size() int64

	// Seek repositions the cursor to an absolute offset.
	Seek(pos int64) error

	// Position reports the current absolute offset.
	Position() int64

	// Read fills buf and returns the number of bytes actually read. A
	// short read at EOF is reported via n < len(buf), not as an error.
	Read(buf []byte) (n int, err error)

	// Write writes buf at the current position and returns the number
	// of bytes written.
	Write(buf []byte) (n int, err error)

	// Truncate resizes the backing store. Implementations that cannot
	// support shrinking should return an error rather than silently
	// ignoring the request.
	Truncate(size int64) error
}

// FileSink is the default ByteSink backed by a random-access *os.File.
type FileSink struct {
	f   *os.File
	pos int64
}

// OpenFile opens name for random-access read/write, creating it if flag
// includes os.O_CREATE. The caller must Close the returned FileSink.
func OpenFile(name string, flag int, perm os.FileMode) (*FileSink, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, errors.Wrapf(err, "iobox: open %q", name)
	}
	return &FileSink{f: f}, nil
}

func (s *FileSink) Size() int64 {
	info, err := s.f.Stat()
	if err != nil {
		return -1
	}
	return info.Size()
}

func (s *FileSink) Seek(pos int64) error {
	n, err := s.f.Seek(pos, io.SeekStart)
	if err != nil {
		return errors.Wrap(err, "iobox: seek")
	}
	s.pos = n
	return nil
}

func (s *FileSink) Position() int64 { return s.pos }

func (s *FileSink) Read(buf []byte) (int, error) {
	n, err := io.ReadFull(s.f, buf)
	s.pos += int64(n)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return n, nil
	}
	if err != nil {
		return n, errors.Wrap(err, "iobox: read")
	}
	return n, nil
}

func (s *FileSink) Write(buf []byte) (int, error) {
	n, err := s.f.Write(buf)
	s.pos += int64(n)
	if err != nil {
		return n, errors.Wrap(err, "iobox: write")
	}
	return n, nil
}

func (s *FileSink) Truncate(size int64) error {
	if err := s.f.Truncate(size); err != nil {
		return errors.Wrap(err, "iobox: truncate")
	}
	return nil
}

// Close releases the underlying file descriptor.
func (s *FileSink) Close() error {
	return s.f.Close()
}

// MemorySink is an in-memory ByteSink, used by tests and by callers who
// want to build or rewrite a tree without touching disk.
type MemorySink struct {
	buf []byte
	pos int64
}

// NewMemorySink returns a MemorySink seeded with initial (which is copied).
func NewMemorySink(initial []byte) *MemorySink {
	buf := make([]byte, len(initial))
	copy(buf, initial)
	return &MemorySink{buf: buf}
}

func (s *MemorySink) Size() int64 { return int64(len(s.buf)) }

func (s *MemorySink) Seek(pos int64) error {
	if pos < 0 {
		return errors.New("iobox: negative seek")
	}
	s.pos = pos
	return nil
}

func (s *MemorySink) Position() int64 { return s.pos }

func (s *MemorySink) Read(buf []byte) (int, error) {
	if s.pos >= int64(len(s.buf)) {
		return 0, nil
	}
	n := copy(buf, s.buf[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *MemorySink) Write(buf []byte) (int, error) {
	end := s.pos + int64(len(buf))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	n := copy(s.buf[s.pos:end], buf)
	s.pos += int64(n)
	return n, nil
}

func (s *MemorySink) Truncate(size int64) error {
	if size < 0 {
		return errors.New("iobox: negative truncate")
	}
	if size <= int64(len(s.buf)) {
		s.buf = s.buf[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, s.buf)
	s.buf = grown
	return nil
}

// Bytes returns the sink's current contents. The returned slice aliases
// the sink's internal buffer and must not be retained across writes.
func (s *MemorySink) Bytes() []byte { return s.buf }
