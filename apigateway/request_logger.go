package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LogSamplingConfig limits how often successful requests are logged. Tick is
// the minimum gap between two sampled lines; requests slower than After are
// always logged. Zero values disable the limit.
type LogSamplingConfig struct {
	Tick  time.Duration
	After time.Duration
}

type logSampler struct {
	tick  time.Duration
	after time.Duration
	next  time.Time
	mu    sync.Mutex
	now   func() time.Time
}

func newLogSampler(cfg LogSamplingConfig) *logSampler {
	return &logSampler{tick: cfg.Tick, after: cfg.After, now: time.Now}
}

func (s *logSampler) Allow(duration time.Duration) bool {
	if s.after > 0 && duration >= s.after {
		return true
	}
	if s.tick <= 0 {
		return true
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next.IsZero() || now.After(s.next) {
		s.next = now.Add(s.tick)
		return true
	}
	return false
}

// RequestLogger writes one "http_request" line per request. Server errors and
// requests carrying gin errors are always logged; the rest go through the
// sampler.
func RequestLogger(logger *logrus.Logger, cfg LogSamplingConfig) gin.HandlerFunc {
	sampler := newLogSampler(cfg)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		routePath := c.FullPath()
		if routePath == "" {
			routePath = c.Request.URL.Path
		}
		failed := status >= http.StatusInternalServerError || len(c.Errors) > 0
		if !failed && !sampler.Allow(duration) {
			return
		}

		entry := logger.WithFields(logrus.Fields{
			"request_id":  RequestIDFromCtx(c),
			"method":      c.Request.Method,
			"path":        routePath,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"bytes_in":    c.Request.ContentLength,
			"bytes_out":   c.Writer.Size(),
			"ip":          c.ClientIP(),
		})
		if userAgent := c.Request.UserAgent(); userAgent != "" {
			entry = entry.WithField("user_agent", userAgent)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("http_request")
		case status >= http.StatusBadRequest || len(c.Errors) > 0:
			entry.Warn("http_request")
		default:
			entry.Info("http_request")
		}
	}
}
