package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DefaultRefreshInterval = 5 * time.Minute
	DefaultFetchTimeout    = 30 * time.Second
	DefaultSourceID        = "1oyCjFS754qAW88vpEcqWeR_avTgwv3FWvVV66GJNqI4"
)

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type Config struct {
	SourceID        string        `mapstructure:"source_id"`
	SourceQuery     string        `mapstructure:"source_query"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Timezone        string        `mapstructure:"timezone"`

	// Default view filters
	Store     string `mapstructure:"store"`
	Brand     string `mapstructure:"brand"`
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`

	PairedRateMetrics []string `mapstructure:"paired_rate_metrics"`

	OutputFormat      string             `mapstructure:"output_format"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	OutputDestination string             `mapstructure:"output_destination"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`

	KafkaEnabled    bool   `mapstructure:"kafka_enabled"`
	KafkaBrokerList string `mapstructure:"kafka_broker_list"`
	KafkaTopic      string `mapstructure:"kafka_topic"`

	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`
}

// SetDefaults registers the default value of every config key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source_id", DefaultSourceID)
	v.SetDefault("source_query", "")
	v.SetDefault("fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("refresh_interval", DefaultRefreshInterval)
	v.SetDefault("timezone", "Local")
	v.SetDefault("store", FilterAll)
	v.SetDefault("brand", FilterAll)
	v.SetDefault("start_date", "")
	v.SetDefault("end_date", "")
	v.SetDefault("paired_rate_metrics", []string{string(MetricImportCutoff), string(MetricPickupCutoff)})
	v.SetDefault("output_format", "csv")
	v.SetDefault("output_path", ".")
	v.SetDefault("output_folder", "exports")
	v.SetDefault("output_destination", "local")
	v.SetDefault("cloud_storage.provider", "s3")
	v.SetDefault("cloud_storage.bucket_name", "")
	v.SetDefault("cloud_storage.region", "")
	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("kafka_topic", "darkstore_metrics_snapshots")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
}

// LoadConfig initializes and reads the configuration using Viper. A missing
// default config file is not an error; defaults, env and flags still apply.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("examples")
		v.SetConfigName("darkstoremetrics")
	}

	v.SetEnvPrefix("DSM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv() // Read in environment variables that match

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.SourceID) == "" {
		return errors.New("config: source_id is required")
	}
	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("config: refresh_interval must be positive, got %s", cfg.RefreshInterval)
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("config: fetch_timeout must be positive, got %s", cfg.FetchTimeout)
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	switch cfg.OutputFormat {
	case "csv", "json", "parquet":
	default:
		return fmt.Errorf("config: unsupported output format: %s", cfg.OutputFormat)
	}
	switch cfg.OutputDestination {
	case "local":
	case "s3":
		if cfg.CloudStorage.BucketName == "" {
			return errors.New("config: cloud_storage.bucket_name is required for s3 output")
		}
	default:
		return fmt.Errorf("config: unsupported output destination: %s", cfg.OutputDestination)
	}
	if _, _, err := cfg.RatePair(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone used to interpret timestamps.
func (cfg *Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(cfg.Timezone) {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}

// RatePair returns the two metrics used for the combined fast-tier rate.
func (cfg *Config) RatePair() (MetricKey, MetricKey, error) {
	if len(cfg.PairedRateMetrics) == 0 {
		return MetricImportCutoff, MetricPickupCutoff, nil
	}
	if len(cfg.PairedRateMetrics) != 2 {
		return "", "", fmt.Errorf("config: paired_rate_metrics needs exactly 2 metrics, got %d", len(cfg.PairedRateMetrics))
	}
	var pair [2]MetricKey
	for i, raw := range cfg.PairedRateMetrics {
		key, err := ParseMetricKey(raw)
		if err != nil || key == MetricAll {
			return "", "", fmt.Errorf("config: paired_rate_metrics: %w: %q", ErrUnknownMetric, raw)
		}
		pair[i] = key
	}
	return pair[0], pair[1], nil
}
