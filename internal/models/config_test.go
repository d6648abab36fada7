package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceID, cfg.SourceID)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, FilterAll, cfg.Store)
	assert.Equal(t, FilterAll, cfg.Brand)
	assert.Equal(t, "csv", cfg.OutputFormat)
	assert.Equal(t, "local", cfg.OutputDestination)
	assert.Equal(t, ":8080", cfg.ListenAddr)

	a, b, err := cfg.RatePair()
	require.NoError(t, err)
	assert.Equal(t, MetricImportCutoff, a)
	assert.Equal(t, MetricPickupCutoff, b)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "darkstoremetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source_id: https://example.com/orders.csv
refresh_interval: 1m
timezone: Asia/Kolkata
store: Andheri
paired_rate_metrics: [batchPick, labelPrint]
output_format: parquet
output_destination: s3
cloud_storage:
  bucket_name: metrics-exports
  region: ap-south-1
`), 0o644))

	cfg, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/orders.csv", cfg.SourceID)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "Andheri", cfg.Store)
	assert.Equal(t, "parquet", cfg.OutputFormat)
	assert.Equal(t, "metrics-exports", cfg.CloudStorage.BucketName)
	assert.Equal(t, "s3", cfg.CloudStorage.Provider)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	a, b, err := cfg.RatePair()
	require.NoError(t, err)
	assert.Equal(t, MetricBatchPick, a)
	assert.Equal(t, MetricLabelPrint, b)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("DSM_STORE", "Powai")
	t.Setenv("DSM_FETCH_TIMEOUT", "45s")
	t.Setenv("DSM_PAIRED_RATE_METRICS", "inventoryAssign,pickupCutoff")
	t.Setenv("DSM_START_DATE", "2025-08-01")

	cfg, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "Powai", cfg.Store)
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"inventoryAssign", "pickupCutoff"}, cfg.PairedRateMetrics)
	assert.Equal(t, "2025-08-01", cfg.StartDate)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		SourceID:          DefaultSourceID,
		FetchTimeout:      time.Second,
		RefreshInterval:   time.Minute,
		OutputFormat:      "csv",
		OutputDestination: "local",
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cases := map[string]func(*Config){
		"empty source":        func(c *Config) { c.SourceID = " " },
		"zero refresh":        func(c *Config) { c.RefreshInterval = 0 },
		"negative timeout":    func(c *Config) { c.FetchTimeout = -time.Second },
		"bad timezone":        func(c *Config) { c.Timezone = "Mars/Olympus" },
		"bad format":          func(c *Config) { c.OutputFormat = "xml" },
		"bad destination":     func(c *Config) { c.OutputDestination = "ftp" },
		"s3 without bucket":   func(c *Config) { c.OutputDestination = "s3" },
		"three rate metrics":  func(c *Config) { c.PairedRateMetrics = []string{"importCutoff", "batchPick", "labelPrint"} },
		"unknown rate metric": func(c *Config) { c.PairedRateMetrics = []string{"importCutoff", "teleport"} },
		"all as rate metric":  func(c *Config) { c.PairedRateMetrics = []string{"all", "batchPick"} },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
