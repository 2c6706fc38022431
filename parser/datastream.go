package parser

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// blockInfo is the decoded metadata of one block. Presence flags mirror the
// optional ranges of the block definition.
type blockInfo struct {
	recordLen    uint64
	hasRecordLen bool
	dataLen      uint64
	hasDataLen   bool
	nextFilepos  uint64
	hasNext      bool
	blockLen     int64
	deleted      bool
}

// decodeBlockInfo reads the present header fields and derives the block
// length: slack plus data when the block carries an unused count, the
// explicit length minus the consumed header for deleted blocks, data length
// otherwise.
func decodeBlockInfo(def *BlockDef, header []byte, position int64) (blockInfo, error) {
	info := blockInfo{deleted: def.Deleted}
	info.recordLen, info.hasRecordLen = field(header, def.RecordLen)
	info.dataLen, info.hasDataLen = field(header, def.DataLen)
	info.nextFilepos, info.hasNext = field(header, def.NextFilepos)
	unusedLen, hasUnused := field(header, def.UnusedLen)
	rawBlockLen, hasBlockLen := field(header, def.BlockLen)

	switch {
	case hasUnused && info.hasDataLen:
		info.blockLen = int64(info.dataLen + unusedLen)
	case info.deleted && hasBlockLen:
		info.blockLen = int64(rawBlockLen) - int64(1+def.HeaderLen)
		if info.blockLen < 0 {
			return info, &MalformedHeaderError{Field: "block_len", Offset: position}
		}
	default:
		info.blockLen = int64(info.dataLen)
	}
	return info, nil
}

// Record is one completed logical record: the reassembled bytes and the
// offset of the block that started it.
type Record struct {
	Data     []byte
	Position int64
}

// BlockObserver is notified once per processed block with its type byte and
// whether the block is a deleted (free-list) entry.
type BlockObserver func(blockType byte, deleted bool)

// DecodeDataStream scans the data file block by block, reassembling logical
// records and handing each completed one to emit. Records chained across
// continuation blocks are followed through their forward pointers and the
// scan resumes at the saved position once the chain ends. Returns the number
// of blocks processed.
//
// emit receives a copy it owns; returning an error from it aborts the scan.
// Observers run inline in the scan loop and must be cheap.
func DecodeDataStream(files TableFiles, defs *BlockDefs, emit func(Record) error, observers ...BlockObserver) (uint64, error) {
	f, err := os.Open(files.Data)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open data file")
	}
	defer f.Close()

	br := NewByteReader(f)

	var (
		blocks      uint64
		position    int64
		savedPos    *int64
		record      []byte
		recordPos   int
		recordStart int64
	)

	probe := make([]byte, 1)
	for {
		n, err := br.ReadInto(probe)
		if err != nil {
			return blocks, errors.Wrap(err, "failed to read block type")
		}
		if n == 0 {
			return blocks, nil
		}

		blockType := probe[0]
		blockStart := position
		def := defs[blockType]
		if def == nil {
			return blocks, &UnknownBlockTypeError{Byte: blockType, Offset: position}
		}

		header, err := br.ReadExact(def.HeaderLen)
		if err != nil {
			return blocks, err
		}
		position += int64(1 + def.HeaderLen)

		info, err := decodeBlockInfo(def, header, position)
		if err != nil {
			return blocks, err
		}
		log.Debugf("block at %016x type: %d len: %d", blockStart, blockType, info.blockLen)
		for _, observer := range observers {
			observer(blockType, info.deleted)
		}

		// A block carrying a record length starts a new logical record.
		if info.hasRecordLen {
			recordPos = 0
			recordStart = blockStart
			if uint64(cap(record)) >= info.recordLen {
				record = record[:info.recordLen]
			} else {
				record = make([]byte, info.recordLen)
			}
		}

		// Payload bytes count only for a head block or while a chain is
		// being followed; a stray continuation block is stepped over.
		shouldRead := info.hasDataLen && (info.hasRecordLen || savedPos != nil)
		if shouldRead {
			chunk, err := br.ReadExact(int(info.dataLen))
			if err != nil {
				return blocks, err
			}
			recordPos += copy(record[recordPos:], chunk)
			// The block-length seek below is the authoritative advance.
			if err := br.SeekRelative(-int64(info.dataLen)); err != nil {
				return blocks, errors.Wrap(err, "failed to rewind after payload read")
			}
		}

		if err := br.SeekRelative(info.blockLen); err != nil {
			return blocks, errors.Wrap(err, "failed to seek past block")
		}
		position += info.blockLen

		if info.hasNext {
			if shouldRead {
				// Only the first continuation stacks a return address; a
				// nested chain's return pointer is silently ignored.
				if savedPos == nil {
					resume := position
					savedPos = &resume
				}
				position = int64(info.nextFilepos)
				if err := br.SeekAbsolute(position); err != nil {
					return blocks, errors.Wrap(err, "failed to follow continuation pointer")
				}
			}
		} else if savedPos != nil {
			position = *savedPos
			savedPos = nil
			if err := br.SeekAbsolute(position); err != nil {
				return blocks, errors.Wrap(err, "failed to resume saved position")
			}
		}

		// A read block with no forward pointer terminates its record.
		if shouldRead && !info.hasNext {
			out := make([]byte, recordPos)
			copy(out, record[:recordPos])
			if err := emit(Record{Data: out, Position: recordStart}); err != nil {
				return blocks, err
			}
		}

		blocks++
	}
}
