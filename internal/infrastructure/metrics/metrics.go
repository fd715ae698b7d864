package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	"go.uber.org/zap"
)

const namespace = "gatedfetch"

type Config struct {
	Addr string `mapstructure:"addr" default:":9464"`
}

// Metrics counts run transitions and terminal results.
type Metrics struct {
	transitions   *prometheus.CounterVec
	results       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

var _ fetch.Observer = (*Metrics)(nil)

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Run state transitions by target state.",
		}, []string{"state"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by result kind.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the fetch and decode step.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.results, m.fetchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Observe(_ context.Context, t fetch.Transition) {
	m.transitions.WithLabelValues(t.To.Label()).Inc()
	if !t.To.Terminal() {
		return
	}
	result := "ok"
	if t.To == fetch.StateFailed {
		result = t.Kind.String()
	}
	m.results.WithLabelValues(result).Inc()
	if t.From == fetch.StateFetching || t.From == fetch.StateDecoding {
		m.fetchDuration.Observe(t.Elapsed.Seconds())
	}
}

// Serve exposes gatherer on addr/metrics in the background. The returned
// func shuts the server down.
func Serve(addr string, gatherer prometheus.Gatherer) func() error {
	lg := logger.Named("metrics")
	errorLog := slog.NewLogLogger(logger.NamedSlog("metrics").Handler(), slog.LevelError)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{ErrorLog: errorLog}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ErrorLog:          errorLog,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		lg.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
