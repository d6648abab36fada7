package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chrisdamba/darkstoremetrics/internal/dataset"
	"github.com/chrisdamba/darkstoremetrics/internal/metrics"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
	"github.com/chrisdamba/darkstoremetrics/internal/output"
)

type metricPayload struct {
	Key   models.MetricKey `json:"key"`
	Title string           `json:"title"`
}

type datasetPayload struct {
	Version       string              `json:"version"`
	Source        string              `json:"source"`
	FetchedAt     time.Time           `json:"fetchedAt"`
	Fallback      bool                `json:"fallback"`
	Notice        string              `json:"notice,omitempty"`
	TotalOrders   int                 `json:"totalOrders"`
	Skipped       int                 `json:"skipped"`
	UnparsedRows  int                 `json:"unparsedRows"`
	HasDelivery   bool                `json:"hasDelivery"`
	Metrics       []metricPayload     `json:"metrics"`
	PairedMetrics [2]models.MetricKey `json:"pairedMetrics"`
}

type bucketCount struct {
	Range metrics.Bucket `json:"range"`
	Count int            `json:"count"`
}

type metricBuckets struct {
	Key     models.MetricKey `json:"key"`
	Title   string           `json:"title"`
	Total   int              `json:"total"`
	Buckets []bucketCount    `json:"buckets"`
}

type metricDetail struct {
	Key     models.MetricKey        `json:"key"`
	Title   string                  `json:"title"`
	Total   int                     `json:"total"`
	Buckets metrics.MetricBucketSet `json:"buckets"`
}

type orderList struct {
	Metric models.MetricKey `json:"metric,omitempty"`
	Range  metrics.Bucket   `json:"range,omitempty"`
	Count  int              `json:"count"`
	Orders []models.Order   `json:"orders"`
}

func newDatasetPayload(ds *dataset.Dataset) datasetPayload {
	keys := ds.MetricKeys()
	ms := make([]metricPayload, len(keys))
	for i, key := range keys {
		ms[i] = metricPayload{Key: key, Title: key.Title()}
	}
	return datasetPayload{
		Version:       ds.Version,
		Source:        ds.Source,
		FetchedAt:     ds.FetchedAt,
		Fallback:      ds.Fallback,
		Notice:        ds.Notice,
		TotalOrders:   len(ds.Orders),
		Skipped:       ds.Skipped,
		UnparsedRows:  ds.UnparsedRows,
		HasDelivery:   ds.HasDelivery,
		Metrics:       ms,
		PairedMetrics: ds.PairedMetrics(),
	}
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok"}
	if ds := h.store.Load(); ds != nil {
		payload["version"] = ds.Version
		payload["fallback"] = ds.Fallback
	}
	writeJSON(w, http.StatusOK, payload)
}

// current returns the published dataset, writing a 503 when there is none.
func (h *Handlers) current(w http.ResponseWriter) (*dataset.Dataset, bool) {
	ds := h.store.Load()
	if ds == nil {
		writeError(w, newError(http.StatusServiceUnavailable, "dataset_unavailable", "no dataset has been loaded yet"))
		return nil, false
	}
	return ds, true
}

// view applies the request's store, brand, start and end filters, falling
// back to the configured defaults.
func (h *Handlers) view(w http.ResponseWriter, r *http.Request) (dataset.View, bool) {
	ds, ok := h.current(w)
	if !ok {
		return dataset.View{}, false
	}
	q := r.URL.Query()
	criteria := metrics.Criteria{
		Store: queryOr(q.Get("store"), h.defaults.Store),
		Brand: queryOr(q.Get("brand"), h.defaults.Brand),
	}
	dates, err := metrics.ParseDateRange(
		queryOr(q.Get("start"), h.defaults.StartDate),
		queryOr(q.Get("end"), h.defaults.EndDate),
		h.location,
	)
	if err != nil {
		writeError(w, newError(http.StatusBadRequest, "invalid_date", err.Error()))
		return dataset.View{}, false
	}
	criteria.Dates = dates
	return ds.View(criteria), true
}

func queryOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// metricParam resolves the {metric} path value against the metrics the view
// reports. allowAll admits MetricAll.
func metricParam(w http.ResponseWriter, raw string, v dataset.View, allowAll bool) (models.MetricKey, bool) {
	key, err := models.ParseMetricKey(raw)
	if err != nil {
		writeError(w, newError(http.StatusBadRequest, "invalid_metric", err.Error()))
		return "", false
	}
	if key == models.MetricAll {
		if !allowAll {
			writeError(w, newError(http.StatusBadRequest, "invalid_metric", "metric \"all\" has no buckets"))
			return "", false
		}
		return key, true
	}
	if _, ok := v.Metrics[key]; !ok {
		writeError(w, newError(http.StatusNotFound, "metric_unavailable", fmt.Sprintf("metric %s is not reported by this dataset", key)))
		return "", false
	}
	return key, true
}

func bucketParam(w http.ResponseWriter, raw string) (metrics.Bucket, bool) {
	b, ok := metrics.ParseBucket(raw)
	if !ok {
		writeError(w, newError(http.StatusBadRequest, "invalid_bucket", fmt.Sprintf("unknown bucket %q", raw)))
		return "", false
	}
	return b, true
}

func (h *Handlers) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newDatasetPayload(ds))
}

func (h *Handlers) getSummary(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Summary)
}

func (h *Handlers) listMetrics(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	out := make([]metricBuckets, 0, len(v.MetricKeys))
	for _, key := range v.MetricKeys {
		set := v.Metrics[key]
		counts := make([]bucketCount, len(set))
		for i, g := range set {
			counts[i] = bucketCount{Range: g.Range, Count: g.Count}
		}
		out = append(out, metricBuckets{Key: key, Title: key.Title(), Total: set.Total(), Buckets: counts})
	}
	writeJSON(w, http.StatusOK, map[string]any{"metrics": out})
}

func (h *Handlers) getMetric(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	key, ok := metricParam(w, chi.URLParam(r, "metric"), v, false)
	if !ok {
		return
	}
	set := v.Metrics[key]
	writeJSON(w, http.StatusOK, metricDetail{Key: key, Title: key.Title(), Total: set.Total(), Buckets: set})
}

func (h *Handlers) listBucketOrders(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	key, ok := metricParam(w, chi.URLParam(r, "metric"), v, true)
	if !ok {
		return
	}
	bucket, ok := bucketParam(w, chi.URLParam(r, "bucket"))
	if !ok {
		return
	}
	orders := v.Drill(key, bucket)
	writeJSON(w, http.StatusOK, orderList{Metric: key, Range: bucket, Count: len(orders), Orders: orders})
}

func (h *Handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, orderList{Count: len(v.Orders), Orders: v.Orders})
}

func (h *Handlers) getFilters(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"stores": append([]string{models.FilterAll}, ds.Stores...),
		"brands": append([]string{models.FilterAll}, ds.Brands...),
	})
}

// export streams one bucket of one metric as a CSV attachment. metric=all
// exports every filtered order and needs no bucket.
func (h *Handlers) export(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	key, ok := metricParam(w, queryOr(q.Get("metric"), string(models.MetricAll)), v, true)
	if !ok {
		return
	}

	var bucket metrics.Bucket
	if key != models.MetricAll {
		if bucket, ok = bucketParam(w, q.Get("bucket")); !ok {
			return
		}
	}

	rows := output.ExportRows(v.Drill(key, bucket), key)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.ExportFileName(key, bucket, output.FormatCSV)))
	w.WriteHeader(http.StatusOK)
	if err := output.WriteCSV(w, rows); err != nil {
		h.logger.Error("failed to write export", zap.Error(err))
	}
}

func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeError(w, newError(http.StatusServiceUnavailable, "refresh_unavailable", "refresh is not configured"))
		return
	}
	ds, err := h.refresher.Refresh(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, dataset.ErrRefreshInProgress):
		writeError(w, newError(http.StatusConflict, "refresh_in_progress", err.Error()))
		return
	case err != nil:
		h.logger.Error("refresh failed", zap.Error(err))
		writeError(w, newError(http.StatusInternalServerError, "refresh_failed", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, newDatasetPayload(ds))
}
