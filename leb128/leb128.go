// Package leb128 reads and writes LEB128-encoded integers with explicit
// bit-width bounds. Encoding delegates to github.com/jcalabro/leb128;
// decoding is implemented here so that a truncated number (the stream ends
// mid-encoding) stays distinguishable from an overlong or out-of-range one.
package leb128

import (
	"errors"
	"io"

	"github.com/jcalabro/leb128"
	"golang.org/x/exp/constraints"
)

// ErrOverflow is returned when an encoding is longer than its bit-width
// allows, when the final continuation bit is still set at the length
// bound, or when the decoded value does not fit the target width.
var ErrOverflow = leb128.ErrOverflow

func EncodeU64(v uint64) []byte {
	return leb128.EncodeU64(v)
}

func EncodeU32(v uint32) []byte {
	return leb128.EncodeU64(uint64(v))
}

func EncodeS64(v int64) []byte {
	return leb128.EncodeS64(v)
}

func EncodeS33(v int64) []byte {
	return leb128.EncodeS64(v)
}

// DecodeUnsigned reads an unsigned LEB128 integer carrying at most bits
// data bits. It returns io.EOF if the stream ends before the first byte
// and io.ErrUnexpectedEOF if it ends inside the number.
func DecodeUnsigned[T constraints.Unsigned](r io.ByteReader, bits int) (T, int, error) {
	maxBytes := (bits + 6) / 7
	var result uint64
	var shift uint
	n := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, n, eofErr(err, n)
		}
		n++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			// The final group may only use the bits the width leaves over.
			if used := bits - 7*(n-1); used < 7 && b>>uint(used) != 0 {
				return 0, n, ErrOverflow
			}
			return T(result), n, nil
		}
		if n == maxBytes {
			// Continuation bit still set in the final permitted group.
			return 0, n, ErrOverflow
		}
		shift += 7
	}
}

// DecodeSigned reads a signed LEB128 integer of at most bits total width,
// sign-extending from the highest data bit of the final group.
func DecodeSigned[T constraints.Signed](r io.ByteReader, bits int) (T, int, error) {
	maxBytes := (bits + 6) / 7
	var result int64
	var shift uint
	n := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, n, eofErr(err, n)
		}
		n++
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}
			if bits < 64 {
				min := int64(-1) << uint(bits-1)
				max := int64(1)<<uint(bits-1) - 1
				if result < min || result > max {
					return 0, n, ErrOverflow
				}
			} else if n == maxBytes && b != 0x00 && b != 0x7f {
				// The final group of a 64-bit value holds only sign bits
				// beyond bit 63.
				return 0, n, ErrOverflow
			}
			return T(result), n, nil
		}
		if n == maxBytes {
			return 0, n, ErrOverflow
		}
	}
}

func DecodeU32(r io.ByteReader) (uint32, int, error) {
	return DecodeUnsigned[uint32](r, 32)
}

func DecodeU64(r io.ByteReader) (uint64, int, error) {
	return DecodeUnsigned[uint64](r, 64)
}

func DecodeS32(r io.ByteReader) (int32, int, error) {
	return DecodeSigned[int32](r, 32)
}

// DecodeS33 reads the signed 33-bit integer used by block types.
func DecodeS33(r io.ByteReader) (int64, int, error) {
	return DecodeSigned[int64](r, 33)
}

func DecodeS64(r io.ByteReader) (int64, int, error) {
	return DecodeSigned[int64](r, 64)
}

func eofErr(err error, n int) error {
	if errors.Is(err, io.EOF) && n > 0 {
		return io.ErrUnexpectedEOF
	}
	return err
}
