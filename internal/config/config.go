// Package config loads runtime configuration for the ETL job.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SPARKIFY"

// ErrMissingDatabaseURL is returned when no database URL is configured.
var ErrMissingDatabaseURL = errors.New("missing database URL: set SPARKIFY_DATABASE_URL or --database-url")

// Config holds the job configuration.
type Config struct {
	DatabaseURL string        `mapstructure:"database_url"`
	SongData    string        `mapstructure:"song_data"`
	LogData     string        `mapstructure:"log_data"`
	Suffix      string        `mapstructure:"suffix"`
	Log         LogConfig     `mapstructure:"log"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig configures metrics exposure. Both fields are optional.
type MetricsConfig struct {
	// Listen is the address of the status server, e.g. ":9102".
	Listen string `mapstructure:"listen"`
	// Pushgateway is the URL metrics are pushed to when the run ends.
	Pushgateway string `mapstructure:"pushgateway"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"database-url":        "database_url",
	"song-data":           "song_data",
	"log-data":            "log_data",
	"suffix":              "suffix",
	"log-level":           "log.level",
	"log-format":          "log.format",
	"metrics-listen":      "metrics.listen",
	"metrics-pushgateway": "metrics.pushgateway",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("song_data", "data/song_data")
	v.SetDefault("log_data", "data/log_data")
	v.SetDefault("suffix", ".json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.pushgateway", "")
}

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a config file (default: ./sparkify.yaml if present)")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("song-data", "data/song_data", "root directory of the song metadata files")
	flags.String("log-data", "data/log_data", "root directory of the activity log files")
	flags.String("suffix", ".json", "file name suffix of input files")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log encoding (json or console)")
	flags.String("metrics-listen", "", "address for the status and metrics server; disabled when empty")
	flags.String("metrics-pushgateway", "", "Prometheus Pushgateway URL to push metrics to when the run ends")
}

// Load builds the configuration from, in decreasing priority, flags that were
// set explicitly, SPARKIFY_* environment variables, the config file and
// defaults. A .env file in the working directory is loaded into the
// environment first. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sparkify")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sparkify")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrMissingDatabaseURL
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}
