package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	shoveler "github.com/dbarchive/myisam-shoveler"
	"github.com/dbarchive/myisam-shoveler/parser"
)

var (
	version string
	commit  string
	date    string
	builtBy string
)

type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose debug information, including a per-block trace"`
	Version bool   `short:"V" long:"version" description:"Print version information"`
	Args    struct {
		Directory string `positional-arg-name:"directory" description:"Directory holding the table files, including its trailing separator"`
		TableName string `positional-arg-name:"table_name" description:"Name of the table to read"`
	} `positional-args:"yes"`
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
	shoveler.SetLogger(logger)

	if _, err := flagParser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if options.Version {
		fmt.Println("myisam-dump", version, "commit:", commit, "built on:", date, "built by:", builtBy)
		os.Exit(0)
	}

	if options.Args.Directory == "" || options.Args.TableName == "" {
		fmt.Fprintln(os.Stderr, "usage: myisam-dump <directory> <table_name>")
		os.Exit(2)
	}

	if len(options.Verbose) > 0 {
		logger.SetLevel(logrus.DebugLevel)
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
		logrus.SetLevel(logrus.WarnLevel)
	}

	files := parser.FindTableFiles(options.Args.Directory, options.Args.TableName)

	state, err := parser.DecodeIndex(files.Index)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Infoln("Table", options.Args.TableName, "format:", state.Header.Options.RecordFormat(),
		"fields:", state.Base.Fields, "keys:", state.Header.Keys, "uniques:", state.Header.Uniques)

	var records uint64
	_, err = parser.DecodeDataStream(files, parser.DefaultBlockDefs, func(record parser.Record) error {
		records++
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(records)
}
