package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrisdamba/darkstoremetrics/internal/logging"
	"github.com/chrisdamba/darkstoremetrics/internal/metrics"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
	"github.com/chrisdamba/darkstoremetrics/internal/sources"
)

var (
	ErrRefreshInProgress = errors.New("refresh already in progress")
	ErrInvalidPayload    = errors.New("payload does not look like csv")
)

const minPayloadLength = 10

// Fetcher is the part of sources.Source the refresher needs.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}

// Snapshot is the event emitted after every successful swap.
type Snapshot struct {
	Version   string          `json:"version"`
	Source    string          `json:"source"`
	Fallback  bool            `json:"fallback"`
	Notice    string          `json:"notice,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Summary   metrics.Summary `json:"summary"`
}

type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

func NewSnapshot(d *Dataset) Snapshot {
	return Snapshot{
		Version:   d.Version,
		Source:    d.Source,
		Fallback:  d.Fallback,
		Notice:    d.Notice,
		FetchedAt: d.FetchedAt,
		Summary:   d.View().Summary,
	}
}

type Refresher struct {
	source    Fetcher
	store     *Store
	build     BuildOptions
	interval  time.Duration
	timeout   time.Duration
	publisher Publisher
	logger    *zap.Logger

	mu sync.Mutex
}

type RefresherOption func(*Refresher)

func WithInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithFetchTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithPublisher(p Publisher) RefresherOption {
	return func(r *Refresher) {
		r.publisher = p
	}
}

func WithLogger(logger *zap.Logger) RefresherOption {
	return func(r *Refresher) {
		r.logger = logging.OrNop(logger)
	}
}

// WithBuildOptions sets the parser and metric pairing used for every build.
// Source and Fallback are always set by the refresher.
func WithBuildOptions(opts BuildOptions) RefresherOption {
	return func(r *Refresher) {
		r.build = opts
	}
}

func NewRefresher(source Fetcher, store *Store, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		source:   source,
		store:    store,
		interval: models.DefaultRefreshInterval,
		timeout:  models.DefaultFetchTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("refresher")
	return r
}

// Refresh fetches, builds and publishes a new dataset. Any fetch or build
// failure publishes the embedded sample dataset with an advisory notice
// instead. A call overlapping an in-flight refresh returns the current
// dataset and ErrRefreshInProgress. A cancelled ctx leaves the store untouched
// and returns ctx.Err().
func (r *Refresher) Refresh(ctx context.Context) (*Dataset, error) {
	if !r.mu.TryLock() {
		return r.store.Load(), ErrRefreshInProgress
	}
	defer r.mu.Unlock()

	start := time.Now()
	ds, err := r.load(ctx)
	if err != nil && ctx.Err() != nil {
		// the caller gave up; keep serving the current version
		r.logger.Info("refresh cancelled", zap.String("source", r.source.Name()), zap.Error(ctx.Err()))
		return r.store.Load(), ctx.Err()
	}
	if err != nil {
		r.logger.Warn("source unavailable, using sample data",
			zap.String("source", r.source.Name()),
			zap.Error(err),
		)
		ds, err = r.fallback(err)
		if err != nil {
			return r.store.Load(), fmt.Errorf("build fallback dataset: %w", err)
		}
	}
	if ds.UnparsedRows > 0 {
		ds.Notice = joinNotice(ds.Notice, fmt.Sprintf("%d orders have timestamps that could not be parsed", ds.UnparsedRows))
	}

	r.store.Swap(ds)
	r.logger.Info("dataset refreshed",
		zap.String("source", ds.Source),
		zap.String("version", ds.Version),
		zap.Bool("fallback", ds.Fallback),
		zap.Int("orders", len(ds.Orders)),
		zap.Int("skipped", ds.Skipped),
		zap.Int("unparsed", ds.UnparsedRows),
		zap.Duration("took", time.Since(start)),
	)

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, NewSnapshot(ds)); err != nil {
			r.logger.Error("failed to publish snapshot", zap.String("version", ds.Version), zap.Error(err))
		}
	}
	return ds, nil
}

func (r *Refresher) load(ctx context.Context) (*Dataset, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.source.Fetch(fetchCtx)
	if err != nil {
		return nil, err
	}
	if err := ValidatePayload(raw); err != nil {
		return nil, err
	}

	opts := r.build
	opts.Source = r.source.Name()
	opts.Fallback = false
	return Build(raw, opts)
}

func (r *Refresher) fallback(cause error) (*Dataset, error) {
	opts := r.build
	opts.Source = "sample"
	opts.Fallback = true
	opts.Notice = fmt.Sprintf("Data source connection failed (%v). Dashboard shows sample data only.", cause)
	return Build(sources.Fallback(), opts)
}

// Run refreshes immediately and then on every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	if _, err := r.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) && ctx.Err() == nil {
		r.logger.Error("refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) && ctx.Err() == nil {
				r.logger.Error("refresh failed", zap.Error(err))
			}
		}
	}
}

// ValidatePayload rejects payloads that are empty, too short, or contain no
// comma at all.
func ValidatePayload(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return sources.ErrEmptyPayload
	}
	if len(trimmed) <= minPayloadLength || !bytes.ContainsRune(trimmed, ',') {
		return ErrInvalidPayload
	}
	return nil
}

func joinNotice(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
