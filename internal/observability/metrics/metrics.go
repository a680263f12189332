package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success Outcome = "success"
	Error   Outcome = "error"
)

func (o Outcome) String() string {
	return string(o)
}

var defaultHistogramBucketsSeconds = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5}

var (
	once          sync.Once
	metricsRouter *chi.Mux

	httpRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of http request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"endpoint", "status"},
	)
	messageDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contract_message_duration_seconds",
			Help:    "Histogram of contract message execution durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"contract", "msg", "outcome"},
	)
	failedTxCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "failed_tx_total",
			Help: "Number of transactions rolled back.",
		},
		[]string{"contract"},
	)
	exchangeRateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_rate",
			Help: "Latest recorded share exchange rate per contract.",
		},
		[]string{"contract"},
	)
)

// Init registers the collectors and serves them on metricsPort.
// Recording before Init is allowed and simply not exported.
func Init(metricsPort int) {
	once.Do(func() {
		registerMetrics()
		initMetricsRouter(metricsPort)
	})
}

func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	go func() {
		metricsAddr := fmt.Sprintf(":%d", metricsPort)
		err := http.ListenAndServe(metricsAddr, metricsRouter)
		if err != nil {
			log.Fatal().Err(err).Msgf("error starting metrics server on %s", metricsAddr)
		}
	}()
}

func registerMetrics() {
	prometheus.MustRegister(
		httpRequestDurationHistogram,
		messageDurationHistogram,
		failedTxCounter,
		exchangeRateGauge,
	)
}

// StartHttpRequestDurationTimer starts a timer to measure http request handling duration.
func StartHttpRequestDurationTimer(endpoint string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		httpRequestDurationHistogram.WithLabelValues(endpoint, fmt.Sprintf("%d", statusCode)).Observe(duration)
	}
}

// StartMessageTimer measures one contract message, including the messages it dispatches.
func StartMessageTimer(contract, msg string) func(outcome Outcome) {
	startTime := time.Now()
	return func(outcome Outcome) {
		messageDurationHistogram.WithLabelValues(contract, msg, outcome.String()).Observe(time.Since(startTime).Seconds())
	}
}

func RecordFailedTx(contract string) {
	failedTxCounter.WithLabelValues(contract).Inc()
}

func SetExchangeRate(contract string, rate float64) {
	exchangeRateGauge.WithLabelValues(contract).Set(rate)
}
