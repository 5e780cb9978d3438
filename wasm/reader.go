package wasm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/Rafagd/ladybird/leb128"
)

// Local declarations in a single code body may not total more than this.
const maxFunctionLocals = 1 << 17

type parser struct {
	s *Stream
}

func newParser(s *Stream) *parser {
	return &parser{s: s}
}

// fail wraps kind with what was being read and where. Transport-level
// truncation becomes ErrUnexpectedEOF instead, so "the stream ended" stays
// distinguishable from "the stream contained something unexpected".
func (p *parser) fail(err, kind error, thing string) error {
	at := p.s.Pos()
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s at offset %d: %w", thing, at, ErrUnexpectedEOF)
	}
	if err == nil || errors.Is(err, kind) {
		return fmt.Errorf("%s at offset %d: %w", thing, at, kind)
	}
	return fmt.Errorf("%s at offset %d: %w: %v", thing, at, kind, err)
}

func (p *parser) readByte(thing string) (byte, error) {
	b, err := p.s.ReadByte()
	if err != nil {
		return 0, p.fail(err, ErrInvalidInput, thing)
	}
	return b, nil
}

func (p *parser) peekByte(thing string) (byte, error) {
	b, err := p.s.PeekByte()
	if err != nil {
		return 0, p.fail(err, ErrInvalidInput, thing)
	}
	return b, nil
}

func (p *parser) readN(thing string, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.s, buf); err != nil {
		return nil, p.fail(err, ErrInvalidInput, thing)
	}
	return buf, nil
}

func (p *parser) expect(thing string, want []byte, kind error) error {
	buf := make([]byte, len(want))
	if _, err := io.ReadFull(p.s, buf); err != nil {
		return p.fail(err, kind, thing)
	}
	for i := range buf {
		if buf[i] != want[i] {
			return p.fail(nil, kind, thing)
		}
	}
	return nil
}

func (p *parser) readU32(thing string) (uint32, error) {
	v, _, err := leb128.DecodeU32(p.s)
	if err != nil {
		return 0, p.fail(err, ErrInvalidInput, thing)
	}
	return v, nil
}

func (p *parser) readU64(thing string) (uint64, error) {
	v, _, err := leb128.DecodeU64(p.s)
	if err != nil {
		return 0, p.fail(err, ErrInvalidInput, thing)
	}
	return v, nil
}

func (p *parser) readS32(thing string) (int32, error) {
	v, _, err := leb128.DecodeS32(p.s)
	if err != nil {
		return 0, p.fail(err, ErrInvalidInput, thing)
	}
	return v, nil
}

func (p *parser) readS33(thing string) (int64, error) {
	v, _, err := leb128.DecodeS33(p.s)
	if err != nil {
		return 0, p.fail(err, ErrInvalidInput, thing)
	}
	return v, nil
}

func (p *parser) readS64(thing string) (int64, error) {
	v, _, err := leb128.DecodeS64(p.s)
	if err != nil {
		return 0, p.fail(err, ErrInvalidInput, thing)
	}
	return v, nil
}

// readSize reads the u32 size prefix of a section or code entry.
func (p *parser) readSize(thing string) (uint32, error) {
	v, _, err := leb128.DecodeU32(p.s)
	if err != nil {
		return 0, p.fail(err, ErrExpectedSize, thing)
	}
	return v, nil
}

func (p *parser) readF32(thing string) (float32, error) {
	buf, err := p.readN(thing, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf)), nil
}

func (p *parser) readF64(thing string) (float64, error) {
	buf, err := p.readN(thing, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// readIndex decodes a LEB-encoded index of a specific kind.
func readIndex[T ~uint32](p *parser, thing string) (T, error) {
	v, _, err := leb128.DecodeU32(p.s)
	if err != nil {
		if errors.Is(err, leb128.ErrOverflow) {
			return 0, p.fail(err, ErrInvalidIndex, thing)
		}
		return 0, p.fail(err, ErrExpectedIndex, thing)
	}
	return T(v), nil
}

// vecLen reads a vector's count prefix and sanity-checks it against the
// bytes actually left in the enclosing view: every element occupies at
// least one byte, so a larger count cannot be satisfied.
func (p *parser) vecLen(thing string) (int, error) {
	n, err := p.readU32(thing)
	if err != nil {
		return 0, err
	}
	if rem := p.s.Remaining(); rem >= 0 && int(n) > rem {
		return 0, p.fail(nil, ErrHugeAllocationRequested, thing)
	}
	return int(n), nil
}

// vec decodes a count-prefixed sequence.
func vec[T any](p *parser, thing string, f func(string) (T, error)) ([]T, error) {
	n, err := p.vecLen(thing)
	if err != nil {
		return nil, err
	}
	res := make([]T, n)
	for i := range res {
		v, err := f(thing)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

// readName reads a length-prefixed UTF-8 string.
func (p *parser) readName(thing string) (string, error) {
	n, err := p.vecLen(thing)
	if err != nil {
		return "", err
	}
	buf, err := p.readN(thing, n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", p.fail(nil, ErrInvalidInput, thing)
	}
	return string(buf), nil
}
