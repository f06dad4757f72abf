package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	PapersAssembled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_papers_assembled_total",
			Help: "Assembly runs by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	BucketShortfall = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_assembly_shortfall_questions_total",
			Help: "Questions requested but not available, per bucket",
		},
		[]string{"bucket"},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_submissions_total",
			Help: "Submit attempts by outcome",
		},
		[]string{"outcome"},
	)

	GradingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_gradings_total",
			Help: "Grading actions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	AutoScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exam_submission_auto_score_ratio",
			Help:    "Auto score as a fraction of the objective items",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			PapersAssembled,
			BucketShortfall,
			SubmissionsTotal,
			GradingsTotal,
			AutoScore,
		)
	})
}

func ObserveAssembly(mode, outcome string) {
	PapersAssembled.WithLabelValues(mode, outcome).Inc()
}

func ObserveShortfall(bucket string, missing int) {
	if missing > 0 {
		BucketShortfall.WithLabelValues(bucket).Add(float64(missing))
	}
}

func ObserveSubmission(outcome string) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveAutoScore(score float64, items int) {
	if items > 0 {
		AutoScore.Observe(score / float64(items))
	}
}

func ObserveGrading(kind, outcome string) {
	GradingsTotal.WithLabelValues(kind, outcome).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
