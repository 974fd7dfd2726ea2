package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the REST surface.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	turnDuration prometheus.Histogram
	imageTurns   prometheus.Counter
}

// NewMetrics creates and registers the instruments on a private registry so
// tests can instantiate servers without duplicate-registration panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutor",
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tutor",
			Name:      "chat_turn_seconds",
			Help:      "Wall time of one conversational turn including the remote run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}),
		imageTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tutor",
			Name:      "chat_image_turns_total",
			Help:      "Turns that delivered an image artifact URL.",
		}),
	}
	reg.MustRegister(m.requests, m.turnDuration, m.imageTurns)
	return m
}

// middleware counts every request by path and final status.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		m.requests.WithLabelValues(c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// observeTurn records one chat turn.
func (m *Metrics) observeTurn(start time.Time, imageDelivered bool) {
	m.turnDuration.Observe(time.Since(start).Seconds())
	if imageDelivered {
		m.imageTurns.Inc()
	}
}
