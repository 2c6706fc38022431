package shoveler

import (
	"context"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dbarchive/myisam-shoveler/collector"
	"github.com/dbarchive/myisam-shoveler/parser"
)

// RecordSink accepts completed record envelopes. The output connectors
// satisfy it; connectors.QueueConnector adapts the confirmation queue.
type RecordSink interface {
	Write(data []byte) error
}

// TableName derives the table name from its index path.
func TableName(files parser.TableFiles) string {
	return strings.TrimSuffix(path.Base(files.Index), parser.IndexExt)
}

// ShovelTable scans one table's data file and writes every record envelope
// to the sink. The decoder and the consumer run as separate goroutines
// joined by a bounded channel, so a slow sink backpressures the scan and a
// failed sink stops it. Returns the scan summary.
func ShovelTable(files parser.TableFiles, state *parser.TableState, sink RecordSink) (*collector.ScanRecord, error) {
	table := TableName(files)
	scan := collector.NewScanState(table, files, state)

	records := make(chan parser.Record, recordChannelSize)
	g, ctx := errgroup.WithContext(context.Background())

	var blocks uint64
	g.Go(func() error {
		defer close(records)
		var err error
		blocks, err = parser.DecodeDataStream(files, parser.DefaultBlockDefs, func(rec parser.Record) error {
			select {
			case records <- rec:
				return nil
			case <-ctx.Done():
				// The consumer is gone; its error surfaces from the group.
				return ctx.Err()
			}
		}, scan.BlockSeen)
		return err
	})

	g.Go(func() error {
		for rec := range records {
			scan.RecordEmitted(len(rec.Data))
			if err := sink.Write(PackageRecord(rec.Data, table, rec.Position)); err != nil {
				return err
			}
			RecordsShoveled.Inc()
		}
		return nil
	})

	err := g.Wait()
	BlocksProcessed.Add(float64(blocks))
	if err != nil {
		DecodeErrors.Inc()
		return nil, err
	}
	return scan.Finish(blocks), nil
}
