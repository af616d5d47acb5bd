package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cognicore/meiyo/pkg/meiyo"
)

// EvaluationLatencyBuckets cover the engine call alone.
var EvaluationLatencyBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// Metrics holds the Prometheus collectors of one server. Each server owns
// its registry so tests can build many servers in one process.
type Metrics struct {
	Registry *prometheus.Registry

	// EvaluationsTotal counts verdicts
	EvaluationsTotal *prometheus.CounterVec

	// EvaluationDuration tracks engine latency
	EvaluationDuration prometheus.Histogram

	// HTTPRequestsTotal counts requests by route template and status code
	HTTPRequestsTotal *prometheus.CounterVec

	// SentimentErrors counts failed classifier calls
	SentimentErrors prometheus.Counter
}

// NewMetrics creates and registers the server metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meiyo_evaluations_total",
				Help: "Evaluations by verdict",
			},
			[]string{"verdict"},
		),
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "meiyo_evaluation_duration_seconds",
				Help:    "Engine evaluation latency in seconds",
				Buckets: EvaluationLatencyBuckets,
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meiyo_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		SentimentErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "meiyo_sentiment_errors_total",
				Help: "Failed sentiment classifier calls",
			},
		),
	}
	m.Registry.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.HTTPRequestsTotal,
		m.SentimentErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, v := range meiyo.Verdicts {
		m.EvaluationsTotal.WithLabelValues(string(v))
	}
	return m
}

// ObserveEvaluation records one engine call.
func (m *Metrics) ObserveEvaluation(v meiyo.Verdict, d time.Duration) {
	m.EvaluationsTotal.WithLabelValues(string(v)).Inc()
	m.EvaluationDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware counts every request by route template and final status.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			code := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					code = he.Code
				} else {
					code = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
			return err
		}
	}
}
