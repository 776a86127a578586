// Package metrics provides Prometheus metrics for the sync pipeline.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Remote API metrics
	remoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photosync_remote_requests_total",
			Help: "Total number of remote library API requests",
		},
		[]string{"op", "status"},
	)

	remoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photosync_remote_request_duration_seconds",
			Help:    "Remote library API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Transfer metrics
	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photosync_downloads_total",
			Help: "Total number of item downloads",
		},
		[]string{"status"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photosync_uploads_total",
			Help: "Total number of item uploads",
		},
		[]string{"status"},
	)

	bytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photosync_bytes_downloaded_total",
			Help: "Total bytes downloaded from the remote library",
		},
	)

	bytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photosync_bytes_uploaded_total",
			Help: "Total bytes uploaded to the remote library",
		},
	)

	// Reconciliation metrics
	movesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photosync_moves_total",
			Help: "Total number of local file moves",
		},
	)

	prunesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photosync_prunes_total",
			Help: "Total number of pruned records",
		},
	)

	recordsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photosync_records_tracked",
			Help: "Number of item records in the state map",
		},
	)

	syncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photosync_sync_runs_total",
			Help: "Total number of sync pipeline runs",
		},
		[]string{"status"},
	)

	syncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photosync_sync_run_duration_seconds",
			Help:    "Full sync pipeline run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
)

// ObserveRemote records a remote API call.
func ObserveRemote(op, status string, duration time.Duration) {
	remoteRequestsTotal.WithLabelValues(op, status).Inc()
	remoteRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordDownload records a download attempt.
func RecordDownload(status string, bytes int64) {
	downloadsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		bytesDownloaded.Add(float64(bytes))
	}
}

// RecordUpload records an upload attempt.
func RecordUpload(status string, bytes int64) {
	uploadsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		bytesUploaded.Add(float64(bytes))
	}
}

// RecordMove records a local file move.
func RecordMove() {
	movesTotal.Inc()
}

// RecordPrune records a pruned record.
func RecordPrune() {
	prunesTotal.Inc()
}

// SetRecordsTracked sets the record count gauge.
func SetRecordsTracked(n int) {
	recordsTracked.Set(float64(n))
}

// RecordSyncRun records a completed pipeline run.
func RecordSyncRun(status string, duration time.Duration) {
	syncRunsTotal.WithLabelValues(status).Inc()
	syncRunDuration.Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve runs a metrics HTTP server until ctx is canceled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
