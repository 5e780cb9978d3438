package wasm

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamPushback(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{0x01, 0x02, 0x03}))

	b, err := s.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), b)
	require.Equal(t, 1, s.Pos())

	s.UnreadByte(b)
	require.Equal(t, 0, s.Pos())

	b, err = s.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), b)

	peeked, err := s.PeekByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x02), peeked)
	require.Equal(t, 1, s.Pos())

	rest := make([]byte, 2)
	_, err = io.ReadFull(s, rest)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x03}, rest)

	_, err = s.ReadByte()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamBoundedView(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05}))

	sub := s.Limit(3)
	require.Equal(t, 3, sub.Remaining())

	buf := make([]byte, 2)
	_, err := io.ReadFull(sub, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, buf)
	require.Equal(t, 1, sub.Remaining())

	b, err := sub.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x03), b)
	require.Equal(t, 0, sub.Remaining())

	// The view is exhausted even though the parent is not.
	_, err = sub.ReadByte()
	require.ErrorIs(t, err, io.EOF)

	// The parent picks up where the view stopped.
	b, err = s.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x04), b)
}

func TestStreamBoundedViewBeyondSource(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{0x01}))

	sub := s.Limit(4)
	buf := make([]byte, 4)
	_, err := io.ReadFull(sub, buf)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStreamPushbackCountsAsRemaining(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{0x01, 0x02}))

	sub := s.Limit(2)
	b, err := sub.ReadByte()
	require.NoError(t, err)
	sub.UnreadByte(b)
	require.Equal(t, 2, sub.Remaining())
}

func TestStreamDiscard(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{0x01, 0x02, 0x03}))

	b, err := s.ReadByte()
	require.NoError(t, err)
	s.UnreadByte(b)

	require.NoError(t, s.Discard(2))
	b, err = s.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x03), b)

	require.ErrorIs(t, s.Discard(1), io.ErrUnexpectedEOF)
}

func TestStreamUnboundedRemaining(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{0x01}))
	require.Equal(t, -1, s.Remaining())
}
