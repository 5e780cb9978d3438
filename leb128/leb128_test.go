package leb128_test

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/Rafagd/ladybird/leb128"
	upstream "github.com/jcalabro/leb128"
	"github.com/stretchr/testify/require"
)

type errorReader struct{}

func (er *errorReader) ReadByte() (byte, error) {
	return 0, fmt.Errorf("test error")
}

func TestUnsigned(t *testing.T) {
	t.Run("round-trips low-range values", func(t *testing.T) {
		for ndx := uint64(0); ndx < 512; ndx++ {
			buf := leb128.EncodeU64(ndx)
			require.NotEmpty(t, buf)

			res, n, err := leb128.DecodeU64(bytes.NewBuffer(buf))
			require.NoError(t, err)
			require.Equal(t, len(buf), n)
			require.Equal(t, ndx, res)
		}
	})

	t.Run("max uint64", func(t *testing.T) {
		expected := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}

		buf := leb128.EncodeU64(math.MaxUint64)
		require.Equal(t, expected, buf)

		res, n, err := leb128.DecodeU64(bytes.NewBuffer(buf))
		require.NoError(t, err)
		require.Equal(t, 10, n)
		require.Equal(t, uint64(math.MaxUint64), res)
	})

	t.Run("max uint32 is five bytes", func(t *testing.T) {
		buf := leb128.EncodeU32(math.MaxUint32)
		require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, buf)

		res, n, err := leb128.DecodeU32(bytes.NewBuffer(buf))
		require.NoError(t, err)
		require.Equal(t, 5, n)
		require.Equal(t, uint32(math.MaxUint32), res)
	})

	t.Run("empty buffer", func(t *testing.T) {
		res, n, err := leb128.DecodeU64(bytes.NewBuffer(nil))
		require.ErrorIs(t, err, io.EOF)
		require.Equal(t, 0, n)
		require.Zero(t, res)
	})

	t.Run("truncated mid-number", func(t *testing.T) {
		_, _, err := leb128.DecodeU64(bytes.NewBuffer([]byte{0x80, 0x80}))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("read error", func(t *testing.T) {
		res, n, err := leb128.DecodeU64(&errorReader{})
		require.Error(t, err)
		require.Equal(t, 0, n)
		require.Zero(t, res)
	})

	t.Run("stops at the first group without a continuation bit", func(t *testing.T) {
		input := []byte{0x78, 0x10, 0xf, 0xa, 0xb, 0x90, 0x01, 0, 0xff, 0xff, 0xff}
		res, n, err := leb128.DecodeU64(bytes.NewBuffer(input))
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, uint64(120), res)
	})

	t.Run("overlong u32 encoding", func(t *testing.T) {
		// Zero padded out to six groups.
		input := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}
		_, _, err := leb128.DecodeU32(bytes.NewBuffer(input))
		require.ErrorIs(t, err, leb128.ErrOverflow)
	})

	t.Run("u32 final group with spilled bits", func(t *testing.T) {
		input := []byte{0xff, 0xff, 0xff, 0xff, 0x7f}
		_, _, err := leb128.DecodeU32(bytes.NewBuffer(input))
		require.ErrorIs(t, err, leb128.ErrOverflow)
	})

	t.Run("continuation bit set on the final permitted group", func(t *testing.T) {
		input := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0}
		res, n, err := leb128.DecodeU64(bytes.NewBuffer(input))
		require.ErrorIs(t, err, leb128.ErrOverflow)
		require.Equal(t, 10, n)
		require.Equal(t, uint64(0), res)
	})

	t.Run("agrees with the upstream encoder", func(t *testing.T) {
		for _, v := range []uint64{0, 1, 127, 128, 624485, math.MaxUint32, math.MaxUint64} {
			buf := upstream.EncodeU64(v)
			res, n, err := leb128.DecodeU64(bytes.NewBuffer(buf))
			require.NoError(t, err)
			require.Equal(t, len(buf), n)
			require.Equal(t, v, res)
		}
	})
}

func TestSigned(t *testing.T) {
	t.Run("round-trips low-range values", func(t *testing.T) {
		for ndx := int64(-512); ndx < 512; ndx++ {
			buf := leb128.EncodeS64(ndx)
			require.NotEmpty(t, buf)

			res, n, err := leb128.DecodeS64(bytes.NewBuffer(buf))
			require.NoError(t, err)
			require.Equal(t, len(buf), n)
			require.Equal(t, ndx, res)
		}
	})

	t.Run("max int64", func(t *testing.T) {
		expected := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0}

		buf := leb128.EncodeS64(math.MaxInt64)
		require.Equal(t, expected, buf)

		res, n, err := leb128.DecodeS64(bytes.NewBuffer(buf))
		require.NoError(t, err)
		require.Equal(t, 10, n)
		require.Equal(t, int64(math.MaxInt64), res)
	})

	t.Run("min int64", func(t *testing.T) {
		expected := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f}

		buf := leb128.EncodeS64(math.MinInt64)
		require.Equal(t, expected, buf)

		res, n, err := leb128.DecodeS64(bytes.NewBuffer(buf))
		require.NoError(t, err)
		require.Equal(t, 10, n)
		require.Equal(t, int64(math.MinInt64), res)
	})

	t.Run("sign-extends the final group", func(t *testing.T) {
		res, n, err := leb128.DecodeS64(bytes.NewBuffer([]byte{0x7f}))
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, int64(-1), res)

		res, n, err = leb128.DecodeS33(bytes.NewBuffer([]byte{0x40}))
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, int64(-64), res)
	})

	t.Run("s33 covers the full 33-bit range", func(t *testing.T) {
		for _, v := range []int64{0, 1, -1, math.MaxUint32, -(int64(1) << 32)} {
			buf := leb128.EncodeS33(v)
			res, _, err := leb128.DecodeS33(bytes.NewBuffer(buf))
			require.NoError(t, err)
			require.Equal(t, v, res)
		}
	})

	t.Run("s33 rejects values beyond the range", func(t *testing.T) {
		buf := leb128.EncodeS64(int64(1) << 33)
		_, _, err := leb128.DecodeS33(bytes.NewBuffer(buf))
		require.ErrorIs(t, err, leb128.ErrOverflow)
	})

	t.Run("empty buffer", func(t *testing.T) {
		res, n, err := leb128.DecodeS64(bytes.NewBuffer(nil))
		require.ErrorIs(t, err, io.EOF)
		require.Equal(t, 0, n)
		require.Zero(t, res)
	})

	t.Run("truncated mid-number", func(t *testing.T) {
		_, _, err := leb128.DecodeS32(bytes.NewBuffer([]byte{0xff}))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("read error", func(t *testing.T) {
		res, n, err := leb128.DecodeS64(&errorReader{})
		require.Error(t, err)
		require.Equal(t, 0, n)
		require.Zero(t, res)
	})

	t.Run("continuation bit set on the final permitted group", func(t *testing.T) {
		input := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0xff}
		res, n, err := leb128.DecodeS64(bytes.NewBuffer(input))
		require.ErrorIs(t, err, leb128.ErrOverflow)
		require.Equal(t, 10, n)
		require.Equal(t, int64(0), res)
	})

	t.Run("agrees with the upstream encoder", func(t *testing.T) {
		for _, v := range []int64{0, -1, 63, -64, 8191, -123456, math.MaxInt64, math.MinInt64} {
			buf := upstream.EncodeS64(v)
			res, n, err := leb128.DecodeS64(bytes.NewBuffer(buf))
			require.NoError(t, err)
			require.Equal(t, len(buf), n)
			require.Equal(t, v, res)
		}
	})
}
