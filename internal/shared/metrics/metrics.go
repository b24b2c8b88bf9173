package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultSuccess   = "success"
	ResultCached    = "cached"
	ResultGuideMiss = "guide_miss"
	ResultLLMError  = "llm_error"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

var (
	registry = prometheus.NewRegistry()

	uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actionplan_uploads_total",
		Help: "Action plan uploads by result.",
	}, []string{"result"})

	recommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendations_total",
		Help: "Recommendation requests by result.",
	}, []string{"result"})

	recommendationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_duration_seconds",
		Help:    "Wall time of LLM-backed recommendation generation.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_total",
		Help: "Exports rendered by format.",
	}, []string{"format"})
)

func init() {
	registry.MustRegister(
		uploadsTotal,
		recommendationsTotal,
		recommendationDuration,
		exportsTotal,
		collectors.NewGoCollector(),
	)
}

// IncUpload counts an upload attempt.
func IncUpload(result string) {
	uploadsTotal.WithLabelValues(result).Inc()
}

// IncRecommendation counts a recommendation attempt.
func IncRecommendation(result string) {
	recommendationsTotal.WithLabelValues(result).Inc()
}

// ObserveRecommendation records how long a generation took.
func ObserveRecommendation(d time.Duration) {
	if d < 0 {
		d = 0
	}
	recommendationDuration.Observe(d.Seconds())
}

// IncExport counts a rendered export.
func IncExport(format string) {
	exportsTotal.WithLabelValues(format).Inc()
}

// Registry exposes the private registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
