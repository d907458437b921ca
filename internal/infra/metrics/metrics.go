package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "partypics",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "status"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partypics",
			Subsystem: "shared_media",
			Name:      "uploads_total",
			Help:      "Shared media uploads by detected content type and outcome",
		},
		[]string{"content_type", "outcome"},
	)

	StateChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partypics",
			Subsystem: "shared_media",
			Name:      "state_changes_total",
			Help:      "Moderation state changes by target state",
		},
		[]string{"state"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partypics",
			Subsystem: "relay",
			Name:      "notifications_total",
			Help:      "Notifications handled by the relay",
		},
		[]string{"outcome"},
	)
)

func RecordRequest(method, route, status string, seconds float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func RecordUpload(contentType, outcome string) {
	if contentType == "" {
		contentType = "unknown"
	}
	UploadsTotal.WithLabelValues(contentType, outcome).Inc()
}

func RecordStateChange(state string) {
	StateChangesTotal.WithLabelValues(state).Inc()
}

// RecordNotification counts a relay outcome: "delivered", "dropped" or "failed".
func RecordNotification(outcome string) {
	NotificationsTotal.WithLabelValues(outcome).Inc()
}

// Recorder exposes the package counters as a value for components that take
// their metrics sink as a dependency.
type Recorder struct{}

func (Recorder) RecordUpload(contentType, outcome string) { RecordUpload(contentType, outcome) }
func (Recorder) RecordStateChange(state string)           { RecordStateChange(state) }
func (Recorder) RecordNotification(outcome string)        { RecordNotification(outcome) }
