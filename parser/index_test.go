package parser

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildIndex synthesizes an index file image: fixed prefix, base info at
// basePos, key and unique definitions, field records.
func buildIndex(t *testing.T) []byte {
	t.Helper()

	const basePos = 40

	prefix := make([]byte, 32)
	binary.BigEndian.PutUint16(prefix[4:6], 1) // options: pack_record
	binary.BigEndian.PutUint16(prefix[12:14], basePos)
	binary.BigEndian.PutUint16(prefix[14:16], 3) // key parts
	binary.BigEndian.PutUint16(prefix[16:18], 1) // unique key parts
	prefix[18] = 2                               // keys
	prefix[19] = 1                               // uniques
	prefix[22] = 0                               // fulltext keys

	buf := append([]byte{}, prefix...)
	buf = append(buf, make([]byte, basePos-32)...) // gap before base info

	baseInfo := make([]byte, 100)
	binary.BigEndian.PutUint32(baseInfo[64:68], 3) // fields
	buf = append(buf, baseInfo...)

	// Key definition 1: one keyseg
	keyDef := make([]byte, 12)
	keyDef[0] = 1
	buf = append(buf, keyDef...)
	buf = append(buf, make([]byte, 1*18)...)

	// Key definition 2: two keysegs
	keyDef = make([]byte, 12)
	keyDef[0] = 2
	buf = append(buf, keyDef...)
	buf = append(buf, make([]byte, 2*18)...)

	// Unique definition: one keyseg
	uniqueDef := make([]byte, 4)
	binary.BigEndian.PutUint16(uniqueDef[0:2], 1)
	buf = append(buf, uniqueDef...)
	buf = append(buf, make([]byte, 1*18)...)

	// Three field records
	for _, field := range []struct {
		rtype  uint16
		length uint16
	}{
		{0x0001, 0x0010},
		{0xffff, 0x00ff}, // rtype -1 in two's complement
		{0x0003, 0x0000},
	} {
		fieldRec := make([]byte, 7)
		binary.BigEndian.PutUint16(fieldRec[0:2], field.rtype)
		binary.BigEndian.PutUint16(fieldRec[2:4], field.length)
		buf = append(buf, fieldRec...)
	}

	return buf
}

func TestDecodeIndexHeaderRoundtrip(t *testing.T) {
	buf := buildIndex(t)
	br := NewByteReader(bytes.NewReader(buf))

	state, err := decodeIndex(br, int64(len(buf)))
	require.NoError(t, err)

	assert.Equal(t, TableOptions(1), state.Header.Options)
	assert.Equal(t, uint16(40), state.Header.BasePos)
	assert.Equal(t, uint16(3), state.Header.KeyParts)
	assert.Equal(t, uint16(1), state.Header.UniqueKeyParts)
	assert.Equal(t, uint8(2), state.Header.Keys)
	assert.Equal(t, uint8(1), state.Header.Uniques)
	assert.Equal(t, uint8(0), state.Header.FulltextKeys)
	assert.Equal(t, uint32(3), state.Base.Fields)
}

func TestDecodeIndexFieldRecords(t *testing.T) {
	buf := buildIndex(t)
	br := NewByteReader(bytes.NewReader(buf))

	state, err := decodeIndex(br, int64(len(buf)))
	require.NoError(t, err)

	require.Len(t, state.Records, 3)
	assert.Equal(t, RecordDef{RType: 1, Length: 0x10}, state.Records[0])
	assert.Equal(t, RecordDef{RType: -1, Length: 0xff}, state.Records[1])
	assert.Equal(t, RecordDef{RType: 3, Length: 0}, state.Records[2])
}

// The walk is purely forward and counter driven: after decoding, the cursor
// must sit exactly past the last field record.
func TestDecodeIndexWalkCompleteness(t *testing.T) {
	buf := buildIndex(t)
	br := NewByteReader(bytes.NewReader(buf))

	state, err := decodeIndex(br, int64(len(buf)))
	require.NoError(t, err)

	expected := int64(40 + 100 + (12 + 1*18) + (12 + 2*18) + (4 + 1*18) + 3*7)
	assert.Equal(t, expected, br.Position())
	assert.Equal(t, int64(len(buf)), br.Position())
	assert.Equal(t, uint32(3), state.Base.Fields)
}

func TestDecodeIndexMalformedBasePos(t *testing.T) {
	buf := buildIndex(t)
	// Point the base info past the end of the file
	binary.BigEndian.PutUint16(buf[12:14], uint16(len(buf)))
	br := NewByteReader(bytes.NewReader(buf))

	_, err := decodeIndex(br, int64(len(buf)))
	require.Error(t, err)

	var malformed *MalformedHeaderError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "base_pos", malformed.Field)
}

func TestDecodeIndexTruncatedPrefix(t *testing.T) {
	br := NewByteReader(bytes.NewReader(make([]byte, 10)))

	_, err := decodeIndex(br, 10)
	var truncated *TruncatedError
	require.ErrorAs(t, err, &truncated)
}

func TestDecodeIndexFromFile(t *testing.T) {
	buf := buildIndex(t)
	indexPath := filepath.Join(t.TempDir(), "users"+IndexExt)
	require.NoError(t, os.WriteFile(indexPath, buf, 0644))

	state, err := DecodeIndex(indexPath)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), state.Header.Keys)
	assert.Len(t, state.Records, 3)
}

func TestRecordFormat(t *testing.T) {
	assert.Equal(t, "static", TableOptions(0).RecordFormat())
	assert.Equal(t, "dynamic", TableOptions(OptionPackRecord).RecordFormat())
	assert.Equal(t, "packed", TableOptions(OptionCompressRecord).RecordFormat())
	// Pack-record wins over compress when both bits are set
	assert.Equal(t, "dynamic", TableOptions(OptionPackRecord|OptionCompressRecord).RecordFormat())
	assert.Equal(t, "static", TableOptions(OptionPackKeys).RecordFormat())
}

// The paths are built by literal concatenation; the caller supplies the
// trailing separator.
func TestFindTableFiles(t *testing.T) {
	files := FindTableFiles("/var/lib/mysql/db/", "users")
	assert.Equal(t, "/var/lib/mysql/db/users.MYI", files.Index)
	assert.Equal(t, "/var/lib/mysql/db/users.MYD", files.Data)

	files = FindTableFiles("prefix-", "t")
	assert.Equal(t, "prefix-t.MYI", files.Index)
	assert.Equal(t, "prefix-t.MYD", files.Data)
}
