// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexusai_webhook_events_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"result"},
	)

	CreditDeductionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexusai_credit_deductions_total",
			Help: "Credit deduction attempts by outcome",
		},
		[]string{"result"},
	)

	GenerationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexusai_generation_requests_total",
			Help: "Generation backend calls by tool and outcome",
		},
		[]string{"tool", "result"},
	)

	VideoJobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexusai_video_jobs_active",
			Help: "Video generation jobs currently polling",
		},
	)

	VideoPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nexusai_video_poll_duration_seconds",
			Help:    "Time from video submission to completion or failure",
			Buckets: []float64{10, 30, 60, 120, 180, 300, 600},
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexusai_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordWebhook(result string) {
	WebhookEventsTotal.WithLabelValues(result).Inc()
}

func RecordDeduction(result string) {
	CreditDeductionsTotal.WithLabelValues(result).Inc()
}

func RecordGeneration(tool string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	GenerationRequestsTotal.WithLabelValues(tool, result).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware observes latency per chi route pattern so path parameters do
// not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
