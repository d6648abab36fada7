package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chrisdamba/darkstoremetrics/internal/cloudwriter"
	"github.com/chrisdamba/darkstoremetrics/internal/dataset"
	"github.com/chrisdamba/darkstoremetrics/internal/logging"
	"github.com/chrisdamba/darkstoremetrics/internal/metrics"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
	"github.com/chrisdamba/darkstoremetrics/internal/output"
	"github.com/chrisdamba/darkstoremetrics/internal/repositories/postgres"
	"github.com/chrisdamba/darkstoremetrics/internal/sources"
	"github.com/chrisdamba/darkstoremetrics/internal/timeparse"
)

// app holds the wiring shared by every command.
type app struct {
	cfg      *models.Config
	logger   *zap.Logger
	location *time.Location
	closers  []func()
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, location: loc}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func (a *app) source(ctx context.Context) (sources.Source, error) {
	deps := sources.Deps{HTTPClient: &http.Client{Timeout: a.cfg.FetchTimeout}}

	id := strings.ToLower(strings.TrimSpace(a.cfg.SourceID))
	switch {
	case strings.HasPrefix(id, "s3://"):
		factory, err := cloudwriter.NewS3WriterFactory(ctx, a.cfg.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		deps.S3 = factory
	case strings.HasPrefix(id, "postgres://"), strings.HasPrefix(id, "postgresql://"):
		pool, err := postgres.NewPool(ctx, strings.TrimSpace(a.cfg.SourceID))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		deps.Rows = postgres.NewOrderRowRepository(pool, a.cfg.SourceQuery, a.location)
	}
	return sources.New(a.cfg.SourceID, deps)
}

func (a *app) buildOptions() dataset.BuildOptions {
	first, second, _ := a.cfg.RatePair()
	return dataset.BuildOptions{
		Parser:        timeparse.New(a.location),
		PairedMetrics: [2]models.MetricKey{first, second},
	}
}

func (a *app) publisher() (dataset.Publisher, error) {
	if !a.cfg.KafkaEnabled {
		return nil, nil
	}
	pub, err := output.NewKafkaPublisher(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := pub.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", zap.Error(err))
		}
	})
	return pub, nil
}

func (a *app) refresher(ctx context.Context, store *dataset.Store) (*dataset.Refresher, error) {
	src, err := a.source(ctx)
	if err != nil {
		return nil, err
	}
	opts := []dataset.RefresherOption{
		dataset.WithBuildOptions(a.buildOptions()),
		dataset.WithInterval(a.cfg.RefreshInterval),
		dataset.WithFetchTimeout(a.cfg.FetchTimeout),
		dataset.WithLogger(a.logger),
	}
	pub, err := a.publisher()
	if err != nil {
		return nil, err
	}
	if pub != nil {
		opts = append(opts, dataset.WithPublisher(pub))
	}
	return dataset.NewRefresher(src, store, opts...), nil
}

func (a *app) exporter(ctx context.Context) (*output.Exporter, error) {
	var factory cloudwriter.CloudWriterFactory
	if a.cfg.OutputDestination == "s3" {
		f, err := cloudwriter.NewS3WriterFactory(ctx, a.cfg.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		factory = f
	}
	return output.NewExporter(a.cfg, factory)
}

// criteria returns the configured default filters.
func (a *app) criteria() (metrics.Criteria, error) {
	dates, err := metrics.ParseDateRange(a.cfg.StartDate, a.cfg.EndDate, a.location)
	if err != nil {
		return metrics.Criteria{}, err
	}
	return metrics.Criteria{Store: a.cfg.Store, Brand: a.cfg.Brand, Dates: dates}, nil
}

// loadOnce runs a single refresh and returns the resulting dataset.
func (a *app) loadOnce(ctx context.Context) (*dataset.Dataset, error) {
	store := dataset.NewStore(nil)
	r, err := a.refresher(ctx, store)
	if err != nil {
		return nil, err
	}
	return r.Refresh(ctx)
}
