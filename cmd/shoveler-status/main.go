package main

import (
	"bufio"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jessevdk/go-flags"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	shoveler "github.com/dbarchive/myisam-shoveler"
)

var (
	version string
	commit  string
	date    string
	builtBy string
)

var logger *logrus.Logger

type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose debug information"`
	Version bool   `short:"V" long:"version" description:"Print version information"`
	Config  string `short:"c" long:"config" description:"Configuration file to use" default:"/etc/myisam-shoveler/config.yaml"`
	Period  int    `short:"p" long:"period" description:"Period in seconds to check the shoveler status" default:"10"`
}

type ShovelerStats struct {
	recordsShoveled       int64
	rabbitmqReconnections int64
	queueSize             int64
}

var options Options
var flagParser = flags.NewParser(&options, flags.Default)

func main() {
	shoveler.Version = version
	shoveler.Commit = commit
	shoveler.Date = date
	shoveler.BuiltBy = builtBy

	logger = logrus.New()
	shoveler.SetLogger(logger)

	if _, err := flagParser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			logger.Errorln(err)
			os.Exit(1)
		}
	}

	spinnerConfig, _ := pterm.DefaultSpinner.Start("Checking the shoveler configuration")

	// Load the configuration
	config := shoveler.Config{}
	config.ReadConfigWithPath(options.Config)

	if len(options.Verbose) > 0 {
		logger.SetLevel(logrus.DebugLevel)
		viper.Debug()
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	logger.Debugln("Using configuration file:", viper.ConfigFileUsed())
	spinnerConfig.Success()

	CheckToken(config)

	if !config.Metrics {
		pterm.Error.Println("Metrics are disabled in the configuration file")
		logger.Errorln("Metrics are disabled in the configuration file, unable to determine if shoveler is running")
	}
	// Try downloading the metrics page
	initialStats, err := CheckPrometheusEndpoint(config.MetricsPort)
	if err != nil {
		logger.Errorln("Unable to connect to the shoveler metrics endpoint, unable to determine if shoveler is running", err)
		os.Exit(1)
	}

	if initialStats.recordsShoveled == 0 {
		pterm.Warning.Println("The shoveler has not shoveled any records since it was started")
	}

	// Check the queue size
	if initialStats.queueSize > 100 {
		pterm.Error.Println("The shoveler has", strconv.FormatInt(initialStats.queueSize, 10), "records in the queue, which indicates that the bus is not keeping up with the scans")
		os.Exit(1)
	} else {
		pterm.Success.Println("The shoveler is running and the bus is keeping up with the scanned records (if any)")
	}

	// Wait for the next period
	spinnerPeriod, _ := pterm.DefaultSpinner.Start("Checking the shoveler after period of " + strconv.Itoa(options.Period) + " seconds")
	time.Sleep(time.Duration(options.Period) * time.Second)
	spinnerPeriod.Success()

	secondStats, err := CheckPrometheusEndpoint(config.MetricsPort)
	if err != nil {
		spinnerPeriod.Fail("Unable to connect to the shoveler metrics endpoint: ", err)
		os.Exit(1)
	}

	if secondStats.queueSize > 100 {
		pterm.Error.Println("The shoveler has", strconv.FormatInt(secondStats.queueSize, 10), "records in the queue, which indicates that the bus is not keeping up with the scans")
	} else {
		pterm.Success.Println("The shoveler queue is less than the error threshold of 100, the bus is keeping up with the scanned records (if any)")
	}

	if secondStats.recordsShoveled == initialStats.recordsShoveled {
		pterm.Warning.Println("The shoveler has not shoveled any records since the first check")
	} else {
		pterm.Success.Println("The shoveler has shoveled", strconv.FormatInt(secondStats.recordsShoveled-initialStats.recordsShoveled, 10), "records since the last check")
	}
}

// CheckToken validates the AMQP token file: readable, well-formed JWT, not
// expired. The signature is not verified here; the bus does that.
func CheckToken(config shoveler.Config) {
	if config.MQ != "amqp" {
		pterm.Success.Println("The shoveler is not using RabbitMQ, skipping token check")
		return
	}
	spinnerToken, _ := pterm.DefaultSpinner.Start("Checking the shoveler token validity")

	tokenContents, err := os.ReadFile(config.AmqpToken)
	if err != nil {
		spinnerToken.Fail("Unable to read the token file: " + err.Error())
		return
	}

	token, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(string(tokenContents)), jwt.MapClaims{})
	if err != nil {
		spinnerToken.Fail("The token file does not hold a valid JWT: " + err.Error())
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		spinnerToken.Fail("The token has expired")
		return
	}
	spinnerToken.Success()
}

// CheckPrometheusEndpoint scrapes the shoveler metrics page
func CheckPrometheusEndpoint(metricsPort int) (ShovelerStats, error) {
	stats := ShovelerStats{}
	resp, err := http.Get("http://localhost:" + strconv.Itoa(metricsPort) + "/metrics")
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "shoveler_records_shoveled":
			stats.recordsShoveled = int64(value)
		case "shoveler_rabbitmq_reconnects":
			stats.rabbitmqReconnections = int64(value)
		case "shoveler_queue_size":
			stats.queueSize = int64(value)
		}
	}
	return stats, scanner.Err()
}
