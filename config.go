package shoveler

import (
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration of the shoveler and its tools.
type Config struct {
	SourceDir    string        // Directory holding the table files
	Tables       []string      // Explicit table names; empty means discover all
	Follow       bool          // Keep watching the source directory for growth
	ScanInterval time.Duration // Rescan period in follow mode

	MQ           string   // Which bus to publish to: "amqp" or "stomp"
	AmqpURL      *url.URL // AMQP URL (password comes from the token)
	AmqpExchange string   // Exchange to shovel record envelopes to
	AmqpToken    string   // File location of the token

	StompUser     string
	StompPassword string
	StompURL      *url.URL
	StompHost     string
	StompTopic    string
	StompTLS      bool

	Metrics     bool
	MetricsPort int
	Profile     bool
	ProfilePort int

	OutputFile string        // Optional newline-delimited envelope sink
	QueueDir   string        // Backing directory of the confirmation queue
	CacheTTL   time.Duration // How long decoded table states stay cached

	Debug bool
}

// ReadConfig loads the configuration from the default search paths.
func (c *Config) ReadConfig() {
	c.ReadConfigWithPath("")
}

// ReadConfigWithPath loads the configuration, preferring an explicit file
// when one is given. Every key can be overridden from the environment.
func (c *Config) ReadConfigWithPath(configPath string) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")                  // name of config file (without extension)
		viper.SetConfigType("yaml")                    // REQUIRED if the config file does not have the extension in the name
		viper.AddConfigPath("/etc/myisam-shoveler/")   // path to look for the config file in
		viper.AddConfigPath("$HOME/.myisam-shoveler/") // call multiple times to add many search paths
		viper.AddConfigPath(".")                       // optionally look for config in the working directory
		viper.AddConfigPath("config/")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			log.Debugln("No config file found, using defaults:", err)
		} else {
			log.Fatalln("Fatal error reading config file:", err)
		}
	}

	// Automatically look to the ENV for all "Gets"
	viper.AutomaticEnv()
	// Look for environment variables with underscores
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("source.scan_interval", 30*time.Second)
	viper.SetDefault("mq", "amqp")
	viper.SetDefault("amqp.exchange", "shoveled-myisam")
	viper.SetDefault("amqp.token_location", "/etc/myisam-shoveler/token")
	viper.SetDefault("stomp.topic", "myisam.records")
	viper.SetDefault("metrics.port", 8000)
	viper.SetDefault("profile.port", 6060)
	viper.SetDefault("queue_directory", "/tmp/myisam-shoveler-queue")
	viper.SetDefault("cache.ttl", 5*time.Minute)

	c.SourceDir = viper.GetString("source.directory")
	c.Tables = viper.GetStringSlice("source.tables")
	c.Follow = viper.GetBool("source.follow")
	c.ScanInterval = viper.GetDuration("source.scan_interval")
	log.Debugln("Source directory:", c.SourceDir)

	c.MQ = viper.GetString("mq")

	var err error
	c.AmqpURL, err = url.Parse(viper.GetString("amqp.url"))
	if err != nil {
		log.Fatalln("Fatal error parsing AMQP URL:", err)
	}
	log.Debugln("AMQP URL:", c.AmqpURL.String())

	c.AmqpExchange = viper.GetString("amqp.exchange")
	log.Debugln("AMQP Exchange:", c.AmqpExchange)

	c.AmqpToken = viper.GetString("amqp.token_location")
	log.Debugln("AMQP Token location:", c.AmqpToken)

	c.StompUser = viper.GetString("stomp.user")
	c.StompPassword = viper.GetString("stomp.password")
	c.StompURL, err = url.Parse(viper.GetString("stomp.url"))
	if err != nil {
		log.Fatalln("Fatal error parsing STOMP URL:", err)
	}
	c.StompHost = viper.GetString("stomp.host")
	c.StompTopic = viper.GetString("stomp.topic")
	c.StompTLS = viper.GetBool("stomp.tls")

	c.Metrics = viper.GetBool("metrics.enable")
	c.MetricsPort = viper.GetInt("metrics.port")
	c.Profile = viper.GetBool("profile.enable")
	c.ProfilePort = viper.GetInt("profile.port")

	c.OutputFile = viper.GetString("output.file")
	c.QueueDir = viper.GetString("queue_directory")
	c.CacheTTL = viper.GetDuration("cache.ttl")

	c.Debug = viper.GetBool("debug")

	configureMap()
}
