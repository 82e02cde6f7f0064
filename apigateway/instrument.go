package gateway

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Instrumentation records request counts, latency and sizes on reg. Requests
// for /metrics are not counted.
func Instrumentation(reg prometheus.Registerer) gin.HandlerFunc {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apikit",
		Subsystem: "request",
		Name:      "requests_count",
		Help:      "Number of requests per each endpoint",
	}, []string{"code", "method", "path"})

	resTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "apikit",
		Subsystem: "response",
		Name:      "response_time_hist",
		Help:      "Response duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"method", "path"})

	resSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "apikit",
		Subsystem: "response",
		Name:      "size_histogram",
		Help:      "Response size",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
	})

	reqSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "apikit",
		Subsystem: "request",
		Name:      "size_hist",
		Help:      "Request size",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
	})

	resTimeSum := prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace:  "apikit",
		Subsystem:  "response",
		Name:       "latency_summary",
		Help:       "Computes responses latency",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})

	counterVec = mustRegister(reg, counterVec).(*prometheus.CounterVec)
	resTime = mustRegister(reg, resTime).(*prometheus.HistogramVec)
	resSize = mustRegister(reg, resSize).(prometheus.Histogram)
	reqSize = mustRegister(reg, reqSize).(prometheus.Histogram)
	resTimeSum = mustRegister(reg, resTimeSum).(prometheus.Summary)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := float64(time.Since(start)) * 1e-6 // to millisecond

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		counterVec.WithLabelValues(status, c.Request.Method, path).Inc()
		resTime.WithLabelValues(c.Request.Method, path).Observe(duration)
		resSize.Observe(float64(c.Writer.Size()))
		if c.Request.ContentLength > 0 {
			reqSize.Observe(float64(c.Request.ContentLength))
		}
		resTimeSum.Observe(duration)
	}
}

// mustRegister returns the collector already registered under the same name
// so a second engine on the same registry shares the series.
func mustRegister(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
