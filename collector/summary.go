// Package collector aggregates per-scan statistics and renders them as JSON
// summary records for downstream dashboards.
package collector

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/dbarchive/myisam-shoveler/parser"
)

// ScanState accumulates counters while one table is being scanned. It is
// safe to feed from the decoder and the consumer goroutine at once.
type ScanState struct {
	table   string
	files   parser.TableFiles
	state   *parser.TableState
	started time.Time

	mu            sync.Mutex
	records       uint64
	bytes         uint64
	blocksByType  map[byte]uint64
	deletedBlocks uint64
}

// NewScanState starts tracking a scan of the given table.
func NewScanState(table string, files parser.TableFiles, state *parser.TableState) *ScanState {
	return &ScanState{
		table:        table,
		files:        files,
		state:        state,
		started:      time.Now(),
		blocksByType: make(map[byte]uint64),
	}
}

// RecordEmitted accounts one completed record of n bytes.
func (s *ScanState) RecordEmitted(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records++
	s.bytes += uint64(n)
}

// BlockSeen accounts one processed block. It satisfies parser.BlockObserver.
func (s *ScanState) BlockSeen(blockType byte, deleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocksByType[blockType]++
	if deleted {
		s.deletedBlocks++
	}
}

// Records returns the number of records seen so far.
func (s *ScanState) Records() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// Finish closes the scan and renders its summary record.
func (s *ScanState) Finish(blocks uint64) *ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocksByType := make(map[string]uint64, len(s.blocksByType))
	for blockType, count := range s.blocksByType {
		blocksByType[strconv.Itoa(int(blockType))] = count
	}

	now := time.Now()
	return &ScanRecord{
		Timestamp:     now,
		Table:         s.table,
		IndexPath:     s.files.Index,
		DataPath:      s.files.Data,
		RecordFormat:  s.state.Header.Options.RecordFormat(),
		Fields:        s.state.Base.Fields,
		Keys:          s.state.Header.Keys,
		Uniques:       s.state.Header.Uniques,
		FulltextKeys:  s.state.Header.FulltextKeys,
		Blocks:        blocks,
		BlocksByType:  blocksByType,
		DeletedBlocks: s.deletedBlocks,
		Records:       s.records,
		Bytes:         s.bytes,
		DurationMS:    now.Sub(s.started).Milliseconds(),
	}
}

// ScanRecord is the JSON summary of one completed table scan.
type ScanRecord struct {
	Timestamp     time.Time         `json:"@timestamp"`
	Table         string            `json:"table"`
	IndexPath     string            `json:"index_path"`
	DataPath      string            `json:"data_path"`
	RecordFormat  string            `json:"record_format"`
	Fields        uint32            `json:"fields"`
	Keys          uint8             `json:"keys"`
	Uniques       uint8             `json:"uniques"`
	FulltextKeys  uint8             `json:"fulltext_keys"`
	Blocks        uint64            `json:"blocks"`
	BlocksByType  map[string]uint64 `json:"blocks_by_type"`
	DeletedBlocks uint64            `json:"deleted_blocks"`
	Records       uint64            `json:"records"`
	Bytes         uint64            `json:"bytes"`
	DurationMS    int64             `json:"duration_ms"`
}

// JSON renders the summary record.
func (r *ScanRecord) JSON() ([]byte, error) {
	return json.Marshal(r)
}
