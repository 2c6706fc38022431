package parser

// ByteRange addresses a field inside a block header buffer, inclusive start
// and exclusive end. A nil *ByteRange means the field is absent from that
// encoding, never a zero sentinel.
type ByteRange struct {
	Start int
	End   int
}

// BlockDef is the static description of one block encoding: which optional
// header fields it carries and where, the header length that follows the
// block-type byte, and whether the block is a deleted (free-list) entry.
type BlockDef struct {
	RecordLen   *ByteRange
	BlockLen    *ByteRange
	DataLen     *ByteRange
	UnusedLen   *ByteRange
	NextFilepos *ByteRange
	HeaderLen   int
	Deleted     bool
}

// BlockDefs maps a block-type byte to its definition. A nil slot is an
// unknown block type and fatal to the scan.
type BlockDefs [256]*BlockDef

func rng(start, end int) *ByteRange {
	return &ByteRange{Start: start, End: end}
}

// DefaultBlockDefs is the canonical block-type table. Every slot not listed
// here stays nil; earlier format revisions enumerated a few more types
// (6, 8, 10, 12, 13) but those conflict with this table and are rejected.
var DefaultBlockDefs = func() *BlockDefs {
	var defs BlockDefs
	defs[0] = &BlockDef{BlockLen: rng(0, 3), NextFilepos: rng(3, 11), HeaderLen: 19, Deleted: true}
	defs[1] = &BlockDef{RecordLen: rng(0, 2), BlockLen: rng(0, 2), DataLen: rng(0, 2), HeaderLen: 2}
	defs[2] = &BlockDef{RecordLen: rng(0, 3), BlockLen: rng(0, 3), DataLen: rng(0, 3), HeaderLen: 3}
	defs[3] = &BlockDef{RecordLen: rng(0, 2), DataLen: rng(0, 2), UnusedLen: rng(2, 3), HeaderLen: 3}
	defs[4] = &BlockDef{RecordLen: rng(0, 3), DataLen: rng(0, 3), UnusedLen: rng(3, 4), HeaderLen: 4}
	defs[5] = &BlockDef{RecordLen: rng(0, 2), BlockLen: rng(2, 4), DataLen: rng(2, 4), NextFilepos: rng(4, 12), HeaderLen: 12}
	defs[7] = &BlockDef{BlockLen: rng(0, 2), DataLen: rng(0, 2), HeaderLen: 2}
	defs[9] = &BlockDef{DataLen: rng(0, 2), UnusedLen: rng(2, 3), HeaderLen: 3}
	defs[11] = &BlockDef{BlockLen: rng(0, 2), DataLen: rng(0, 2), NextFilepos: rng(2, 10), HeaderLen: 10}
	return &defs
}()

// field extracts an optional header field, reporting presence.
func field(header []byte, r *ByteRange) (uint64, bool) {
	if r == nil {
		return 0, false
	}
	return BigEndian(header[r.Start:r.End]), true
}
