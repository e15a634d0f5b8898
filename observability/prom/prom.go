// Package prom exports pipeline metrics to Prometheus.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KunalKalawant/Engineering-Drawing/observability"
)

// Recorder implements observability.Metrics on top of a Prometheus registry.
type Recorder struct {
	stageDuration        *prometheus.HistogramVec
	cacheEntries         prometheus.Gauge
	notificationsDropped prometheus.Counter
}

// New registers the pipeline collectors with reg and returns the recorder.
// Pass prometheus.DefaultRegisterer for the standard registry.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drawing_pipeline_stage_duration_seconds",
				Help:    "A histogram of rasterization and recognition stage durations.",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage", "outcome"},
		),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "drawing_page_cache_entries",
			Help: "Number of entries currently held by the page cache.",
		}),
		notificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drawing_pipeline_notifications_dropped_total",
			Help: "Notifications discarded because the subscriber queue was full.",
		}),
	}
	reg.MustRegister(r.stageDuration, r.cacheEntries, r.notificationsDropped)
	return r
}

func (r *Recorder) ObserveStage(stage, outcome string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage, outcome).Observe(d.Seconds())
}

func (r *Recorder) SetCacheEntries(n int) {
	r.cacheEntries.Set(float64(n))
}

func (r *Recorder) IncNotificationsDropped() {
	r.notificationsDropped.Inc()
}

var _ observability.Metrics = (*Recorder)(nil)
