package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilesUploaded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "files_uploaded_total",
		Help: "Records created through the upload endpoint, by type",
	}, []string{"type"})

	JobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Background jobs handled by the worker, by kind and result",
	}, []string{"kind", "result"})

	ThumbnailDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "thumbnail_duration_seconds",
		Help:    "Time spent deriving and writing the variants of one image",
		Buckets: prometheus.DefBuckets,
	})
)

// Register adds the collectors to reg. Call once per process.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(FilesUploaded, JobsProcessed, ThumbnailDuration)
}

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
