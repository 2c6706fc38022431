package parser

import (
	"os"

	"github.com/pkg/errors"
)

// File extensions of the paired table files.
const (
	IndexExt = ".MYI"
	DataExt  = ".MYD"
)

// Table option bits stored in the index header.
const (
	OptionPackRecord     uint64 = 1
	OptionPackKeys       uint64 = 2
	OptionCompressRecord uint64 = 4
)

// Sizes of the variable-length definitions walked past in the index file.
const (
	indexHeaderSize = 32
	baseInfoSize    = 100
	keyDefSize      = 12
	uniqueDefSize   = 4
	keysegSize      = 18
	fieldRecordSize = 7
)

// TableFiles is the pair of absolute paths making up one table.
type TableFiles struct {
	Index string
	Data  string
}

// FindTableFiles builds the index/data pair by literal concatenation, so the
// directory must carry its trailing separator if one is required.
func FindTableFiles(directory, tableName string) TableFiles {
	return TableFiles{
		Index: directory + tableName + IndexExt,
		Data:  directory + tableName + DataExt,
	}
}

// TableOptions holds the option bits from the index header.
type TableOptions uint64

// RecordFormat names the record layout selected by the option bits.
func (o TableOptions) RecordFormat() string {
	if o&TableOptions(OptionPackRecord) != 0 {
		return "dynamic"
	}
	if o&TableOptions(OptionCompressRecord) != 0 {
		return "packed"
	}
	return "static"
}

// TableHeader is the fixed 32-byte prefix of the index file.
type TableHeader struct {
	Options        TableOptions
	BasePos        uint16
	KeyParts       uint16
	UniqueKeyParts uint16
	Keys           uint8
	Uniques        uint8
	FulltextKeys   uint8
}

// TableBase is the extended metadata region located at BasePos.
type TableBase struct {
	Fields uint32
}

// RecordDef describes one field of the table.
type RecordDef struct {
	RType  int16
	Length uint16
}

// TableState is the decoded shape of a table, produced by the index walk and
// consumed by the data-stream decoder.
type TableState struct {
	Header  TableHeader
	Base    TableBase
	Records []RecordDef
}

// DecodeIndex reads the index file and walks the key, unique and field
// definitions to produce the table state.
func DecodeIndex(indexPath string) (*TableState, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open index file")
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat index file")
	}

	return decodeIndex(NewByteReader(f), stat.Size())
}

// decodeIndex is the walk itself, split out so tests can drive it over an
// in-memory reader.
func decodeIndex(br *ByteReader, fileSize int64) (*TableState, error) {
	prefix, err := br.ReadExact(indexHeaderSize)
	if err != nil {
		return nil, err
	}

	header := TableHeader{
		Options:        TableOptions(BigEndian(prefix[4:6])),
		BasePos:        uint16(BigEndian(prefix[12:14])),
		KeyParts:       uint16(BigEndian(prefix[14:16])),
		UniqueKeyParts: uint16(BigEndian(prefix[16:18])),
		Keys:           prefix[18],
		Uniques:        prefix[19],
		FulltextKeys:   prefix[22],
	}

	if int64(header.BasePos)+baseInfoSize > fileSize {
		return nil, &MalformedHeaderError{Field: "base_pos", Offset: 12}
	}

	if err := br.SeekAbsolute(int64(header.BasePos)); err != nil {
		return nil, errors.Wrap(err, "failed to seek to base info")
	}
	baseInfo, err := br.ReadExact(baseInfoSize)
	if err != nil {
		return nil, err
	}
	base := TableBase{
		Fields: uint32(BigEndian(baseInfo[64:68])),
	}

	// Key definitions carry their keyseg records inline; the keyseg contents
	// are opaque here and only need to be stepped over.
	for i := 0; i < int(header.Keys); i++ {
		keyDef, err := br.ReadExact(keyDefSize)
		if err != nil {
			return nil, err
		}
		keysegs := int64(keyDef[0])
		if err := br.SeekRelative(keysegs * keysegSize); err != nil {
			return nil, errors.Wrap(err, "failed to skip keyseg records")
		}
	}

	for i := 0; i < int(header.Uniques); i++ {
		uniqueDef, err := br.ReadExact(uniqueDefSize)
		if err != nil {
			return nil, err
		}
		keysegs := int(BigEndian(uniqueDef[0:2]))
		if _, err := br.ReadExact(keysegs * keysegSize); err != nil {
			return nil, err
		}
	}

	records := make([]RecordDef, 0, base.Fields)
	for i := uint32(0); i < base.Fields; i++ {
		fieldRec, err := br.ReadExact(fieldRecordSize)
		if err != nil {
			return nil, err
		}
		records = append(records, RecordDef{
			RType:  int16(BigEndian(fieldRec[0:2])),
			Length: uint16(BigEndian(fieldRec[2:4])),
		})
	}

	return &TableState{
		Header:  header,
		Base:    base,
		Records: records,
	}, nil
}
