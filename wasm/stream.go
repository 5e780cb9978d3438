package wasm

import (
	"io"
)

// Stream is the byte source the decoder pulls from. It wraps an io.Reader
// with a small pushback buffer (BlockType decoding needs one byte of
// lookahead), a running offset for diagnostics, and a sticky record of the
// first transport error.
type Stream struct {
	r      io.Reader
	unread []byte // pushback, last byte in is first byte out
	pos    int
	err    error
}

func NewStream(r io.Reader) *Stream {
	return &Stream{r: r}
}

// Pos is the offset of the next byte relative to where the stream (or the
// bounded view) started.
func (s *Stream) Pos() int {
	return s.pos
}

// Err reports the first non-EOF transport error seen, if any.
func (s *Stream) Err() error {
	return s.err
}

func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	fromBuffer := 0
	for len(s.unread) > 0 && fromBuffer < len(p) {
		p[fromBuffer] = s.unread[len(s.unread)-1]
		s.unread = s.unread[:len(s.unread)-1]
		fromBuffer++
	}
	if fromBuffer == len(p) {
		s.pos += fromBuffer
		return fromBuffer, nil
	}
	n, err := s.r.Read(p[fromBuffer:])
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	if fromBuffer+n > 0 && err == io.EOF {
		// Partial reads are not errors; the next Read reports EOF.
		err = nil
	}
	s.pos += fromBuffer + n
	return fromBuffer + n, err
}

func (s *Stream) ReadByte() (byte, error) {
	if len(s.unread) > 0 {
		b := s.unread[len(s.unread)-1]
		s.unread = s.unread[:len(s.unread)-1]
		s.pos++
		return b, nil
	}
	var buf [1]byte
	if _, err := io.ReadFull(s, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// UnreadByte pushes b back so the next read returns it again.
func (s *Stream) UnreadByte(b byte) {
	s.unread = append(s.unread, b)
	s.pos--
}

// PeekByte returns the next byte without consuming it.
func (s *Stream) PeekByte() (byte, error) {
	b, err := s.ReadByte()
	if err != nil {
		return 0, err
	}
	s.UnreadByte(b)
	return b, nil
}

// Discard drops the next n bytes.
func (s *Stream) Discard(n int) error {
	if n == 0 {
		return nil
	}
	copied, err := io.CopyN(io.Discard, s, int64(n))
	if err == io.EOF || (err == nil && copied < int64(n)) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Limit returns a view over exactly the next n bytes of s. Reads through
// the view consume from s; once the budget is spent the view reports EOF
// regardless of the state of s.
func (s *Stream) Limit(n int) *Stream {
	return &Stream{r: &boundedReader{s: s, n: n}}
}

// Remaining reports the unconsumed byte count of a bounded view, or -1
// when the stream is unbounded.
func (s *Stream) Remaining() int {
	if b, ok := s.r.(*boundedReader); ok {
		return b.n + len(s.unread)
	}
	return -1
}

type boundedReader struct {
	s *Stream
	n int
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if b.n == 0 {
		return 0, io.EOF
	}
	if len(p) > b.n {
		p = p[:b.n]
	}
	n, err := b.s.Read(p)
	b.n -= n
	return n, err
}
