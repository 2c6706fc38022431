// Package input discovers tables for the shoveler service to scan.
package input

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dbarchive/myisam-shoveler/parser"
)

// TableSource is a common interface for table discovery sources
type TableSource interface {
	Start() error
	Stop() error
	Tables() <-chan parser.TableFiles
}

// DirectoryScanner finds index/data file pairs under a directory and feeds
// them over a channel. In follow mode it keeps rescanning on a ticker and
// re-emits a table whenever its data file has grown.
type DirectoryScanner struct {
	dir      string
	names    []string // explicit table names; empty means discover all
	follow   bool
	interval time.Duration
	tables   chan parser.TableFiles
	stopChan chan struct{}
	seen     map[string]int64 // data path -> last seen size
	logger   *logrus.Logger
}

// NewDirectoryScanner creates a scanner over dir. With follow set, the
// scanner keeps running and rescans every interval.
func NewDirectoryScanner(dir string, names []string, follow bool, interval time.Duration, logger *logrus.Logger) *DirectoryScanner {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DirectoryScanner{
		dir:      dir,
		names:    names,
		follow:   follow,
		interval: interval,
		tables:   make(chan parser.TableFiles, 100),
		stopChan: make(chan struct{}),
		seen:     make(map[string]int64),
		logger:   logger,
	}
}

// Tables returns the channel of discovered table file pairs
func (d *DirectoryScanner) Tables() <-chan parser.TableFiles {
	return d.tables
}

// Start begins scanning in a goroutine. The channel closes when the scan is
// done (single pass) or Stop is called (follow mode).
func (d *DirectoryScanner) Start() error {
	stat, err := os.Stat(d.dir)
	if err != nil {
		return errors.Wrap(err, "failed to stat source directory")
	}
	if !stat.IsDir() {
		return errors.Errorf("source path %s is not a directory", d.dir)
	}

	go d.scanLoop()
	return nil
}

// Stop halts a follow-mode scanner
func (d *DirectoryScanner) Stop() error {
	close(d.stopChan)
	return nil
}

func (d *DirectoryScanner) scanLoop() {
	defer close(d.tables)

	d.scanOnce()
	if !d.follow {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.scanOnce()
		}
	}
}

// scanOnce walks the directory and emits every table whose data file is new
// or has grown since the last pass.
func (d *DirectoryScanner) scanOnce() {
	var names []string
	if len(d.names) > 0 {
		names = d.names
	} else {
		entries, err := os.ReadDir(d.dir)
		if err != nil {
			d.logger.Errorln("Failed to read source directory:", err)
			return
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), parser.IndexExt) {
				continue
			}
			names = append(names, strings.TrimSuffix(entry.Name(), parser.IndexExt))
		}
	}

	for _, name := range names {
		files := parser.TableFiles{
			Index: filepath.Join(d.dir, name+parser.IndexExt),
			Data:  filepath.Join(d.dir, name+parser.DataExt),
		}
		dataStat, err := os.Stat(files.Data)
		if err != nil {
			d.logger.Warningln("Index file without data file, skipping table:", name)
			continue
		}
		size := dataStat.Size()
		if last, ok := d.seen[files.Data]; ok && size <= last {
			continue
		}
		d.seen[files.Data] = size

		select {
		case d.tables <- files:
		case <-d.stopChan:
			return
		}
	}
}
