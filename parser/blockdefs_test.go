package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockDefsKnownTypes(t *testing.T) {
	for _, blockType := range []int{0, 1, 2, 3, 4, 5, 7, 9, 11} {
		assert.NotNil(t, DefaultBlockDefs[blockType], "block type %d should be defined", blockType)
	}
}

func TestBlockDefsUnknownTypes(t *testing.T) {
	for _, blockType := range []int{6, 8, 10, 12, 13, 14, 42, 255} {
		assert.Nil(t, DefaultBlockDefs[blockType], "block type %d should be unknown", blockType)
	}
}

func TestBlockDefsShape(t *testing.T) {
	deleted := DefaultBlockDefs[0]
	require.NotNil(t, deleted)
	assert.True(t, deleted.Deleted)
	assert.Nil(t, deleted.RecordLen)
	assert.Nil(t, deleted.DataLen)
	assert.Equal(t, 19, deleted.HeaderLen)
	assert.Equal(t, &ByteRange{3, 11}, deleted.NextFilepos)

	head := DefaultBlockDefs[5]
	require.NotNil(t, head)
	assert.False(t, head.Deleted)
	assert.Equal(t, 12, head.HeaderLen)
	assert.Equal(t, &ByteRange{0, 2}, head.RecordLen)
	assert.Equal(t, &ByteRange{2, 4}, head.DataLen)
	assert.Equal(t, &ByteRange{4, 12}, head.NextFilepos)

	// Continuation-only encodings carry no record length
	for _, blockType := range []int{7, 9, 11} {
		def := DefaultBlockDefs[blockType]
		require.NotNil(t, def)
		assert.Nil(t, def.RecordLen, "block type %d is continuation-only", blockType)
	}
}

// Every field range must fit inside the header that follows the type byte.
func TestBlockDefsRangesInsideHeader(t *testing.T) {
	for blockType, def := range DefaultBlockDefs {
		if def == nil {
			continue
		}
		for name, r := range map[string]*ByteRange{
			"record_len":   def.RecordLen,
			"block_len":    def.BlockLen,
			"data_len":     def.DataLen,
			"unused_len":   def.UnusedLen,
			"next_filepos": def.NextFilepos,
		} {
			if r == nil {
				continue
			}
			assert.GreaterOrEqual(t, r.End, r.Start, "type %d field %s", blockType, name)
			assert.LessOrEqual(t, r.End, def.HeaderLen, "type %d field %s", blockType, name)
		}
	}
}
