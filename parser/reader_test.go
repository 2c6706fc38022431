package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigEndian(t *testing.T) {
	assert.Equal(t, uint64(0), BigEndian(nil))
	assert.Equal(t, uint64(0x7f), BigEndian([]byte{0x7f}))
	assert.Equal(t, uint64(0x0102), BigEndian([]byte{0x01, 0x02}))
	assert.Equal(t, uint64(0x010203), BigEndian([]byte{0x01, 0x02, 0x03}))
	assert.Equal(t, uint64(0xffffffffffffffff), BigEndian(bytes.Repeat([]byte{0xff}, 8)))
	assert.Equal(t, uint64(0x0100000000000000), BigEndian([]byte{1, 0, 0, 0, 0, 0, 0, 0}))
}

func TestReadExact(t *testing.T) {
	br := NewByteReader(bytes.NewReader([]byte{1, 2, 3, 4, 5}))

	got, err := br.ReadExact(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
	assert.Equal(t, int64(3), br.Position())
}

func TestReadExactTruncated(t *testing.T) {
	br := NewByteReader(bytes.NewReader([]byte{1, 2, 3}))

	_, err := br.ReadExact(5)
	require.Error(t, err)

	var truncated *TruncatedError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, int64(0), truncated.Offset)
	assert.Equal(t, 5, truncated.Expected)
	assert.Equal(t, 3, truncated.Got)
}

func TestReadIntoEOF(t *testing.T) {
	br := NewByteReader(bytes.NewReader(nil))

	buf := make([]byte, 1)
	n, err := br.ReadInto(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSeeks(t *testing.T) {
	br := NewByteReader(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7}))

	require.NoError(t, br.SeekAbsolute(4))
	assert.Equal(t, int64(4), br.Position())

	got, err := br.ReadExact(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, got)

	require.NoError(t, br.SeekRelative(-2))
	assert.Equal(t, int64(3), br.Position())

	got, err = br.ReadExact(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, got)
}
