package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	shoveler "github.com/dbarchive/myisam-shoveler"
	"github.com/dbarchive/myisam-shoveler/connectors"
	"github.com/dbarchive/myisam-shoveler/input"
)

var (
	version string
	commit  string
	date    string
	builtBy string
)

type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose debug information"`
	Config  string `short:"c" long:"config" description:"Configuration file to use"`
}

var options Options
var flagParser = flags.NewParser(&options, flags.Default)

func main() {
	shoveler.Version = version
	shoveler.Commit = commit
	shoveler.Date = date
	shoveler.BuiltBy = builtBy

	logger := logrus.New()
	textFormatter := logrus.TextFormatter{}
	textFormatter.DisableLevelTruncation = true
	textFormatter.FullTimestamp = true
	logger.SetFormatter(&textFormatter)
	logrus.SetFormatter(&textFormatter)

	shoveler.SetLogger(logger)

	if _, err := flagParser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		logger.Errorln(err)
		os.Exit(1)
	}

	// Load the configuration
	config := shoveler.Config{}
	config.ReadConfigWithPath(options.Config)

	if len(options.Verbose) > 0 || config.Debug {
		logger.SetLevel(logrus.DebugLevel)
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
		logrus.SetLevel(logrus.WarnLevel)
	}

	// Log the version information
	logger.Infoln("Starting myisam-shoveler", version, "commit:", commit, "built on:", date, "built by:", builtBy)

	// Start the confirmation queue
	cq := shoveler.NewConfirmationQueue(config.QueueDir)

	if config.MQ == "amqp" {
		// Start the AMQP go func
		go shoveler.StartAMQP(&config, cq)
	} else if config.MQ == "stomp" {
		// Start the STOMP go func
		go shoveler.StartStomp(&config, cq)
	}

	// Start the metrics
	if config.Metrics {
		shoveler.StartMetrics(config.MetricsPort)
	}

	// Start the profiler
	if config.Profile {
		shoveler.StartProfile(config.ProfilePort)
	}

	runShovelingMode(&config, cq, logger)
}

// runShovelingMode discovers tables and shovels their records to the
// configured outputs until the source is exhausted (or forever in follow
// mode).
func runShovelingMode(config *shoveler.Config, cq *shoveler.ConfirmationQueue, logger *logrus.Logger) {
	var outs []connectors.OutputConnector
	outs = append(outs, connectors.NewQueueConnector(cq))
	if config.OutputFile != "" {
		fileOut, err := connectors.NewFileConnector(config.OutputFile, logger)
		if err != nil {
			logger.Fatalln("Failed to open output file:", err)
		}
		defer func() {
			if err := fileOut.Close(); err != nil {
				logger.Errorln("Failed to close output file:", err)
			}
		}()
		outs = append(outs, fileOut)
	}
	sink := connectors.NewMultiOutputConnector(outs, logger)

	cache := shoveler.NewStateCache(config.CacheTTL)
	defer cache.Stop()

	scanner := input.NewDirectoryScanner(config.SourceDir, config.Tables, config.Follow, config.ScanInterval, logger)
	if err := scanner.Start(); err != nil {
		logger.Fatalln("Failed to start directory scanner:", err)
	}

	logger.Infoln("Shoveling mode: reading tables from directory:", config.SourceDir, "Follow:", config.Follow)

	for files := range scanner.Tables() {
		if !indexLooksSane(files.Index, logger) {
			continue
		}

		state, err := cache.Get(files.Index)
		if err != nil {
			logger.Errorln("Failed to decode index for table", shoveler.TableName(files), ":", err)
			continue
		}

		summary, err := shoveler.ShovelTable(files, state, sink)
		if err != nil {
			logger.Errorln("Scan of table", shoveler.TableName(files), "failed:", err)
			continue
		}
		summaryJSON, err := summary.JSON()
		if err != nil {
			logger.Errorln("Failed to render scan summary:", err)
			continue
		}
		logger.Infoln("Scan complete:", string(summaryJSON))
		if err := sink.Write(summaryJSON); err != nil {
			logger.Errorln("Failed to publish scan summary:", err)
		}
	}
}

// indexLooksSane runs the cheap prefix check before a full index decode.
func indexLooksSane(indexPath string, logger *logrus.Logger) bool {
	f, err := os.Open(indexPath)
	if err != nil {
		logger.Errorln("Failed to open index file:", err)
		return false
	}
	defer f.Close()

	prefix := make([]byte, 32)
	n, _ := f.Read(prefix)
	return shoveler.VerifyIndexPrefix(prefix[:n])
}
