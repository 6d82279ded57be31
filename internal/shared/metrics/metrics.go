package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docqa"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	answerCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_cache_total",
			Help:      "Answer cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	oracleCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Oracle calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	oracleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_call_duration_seconds",
			Help:      "Oracle call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"op"},
	)

	rebuildDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuild_documents_total",
			Help:      "Documents processed by rebuild batches, by status",
		},
		[]string{"status"},
	)

	idempotencyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotency_decisions_total",
			Help:      "Idempotency guard decisions (admitted, rejected)",
		},
		[]string{"decision"},
	)

	workerJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_jobs_total",
			Help:      "Rebuild jobs seen by the worker, by outcome (received, completed, failed, dropped)",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestDuration,
		httpRequestsTotal,
		answerCacheTotal,
		oracleCallsTotal,
		oracleDuration,
		rebuildDocumentsTotal,
		idempotencyTotal,
		workerJobsTotal,
	)
}

// Middleware records HTTP request duration and count per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	}
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// ObserveCacheLookup counts an answer cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		answerCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	answerCacheTotal.WithLabelValues("miss").Inc()
}

// ObserveOracleCall records one oracle call.
func ObserveOracleCall(op string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	oracleCallsTotal.WithLabelValues(op, outcome).Inc()
	oracleDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveRebuildDocument counts one per-document rebuild outcome.
func ObserveRebuildDocument(status string) {
	rebuildDocumentsTotal.WithLabelValues(status).Inc()
}

// ObserveIdempotency counts one guard decision.
func ObserveIdempotency(admitted bool) {
	if admitted {
		idempotencyTotal.WithLabelValues("admitted").Inc()
		return
	}
	idempotencyTotal.WithLabelValues("rejected").Inc()
}

// ObserveWorkerJob counts one worker job transition.
func ObserveWorkerJob(outcome string) {
	workerJobsTotal.WithLabelValues(outcome).Inc()
}
