package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stroppy-io/gatedfetch/internal/config"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/core/uow"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	"github.com/stroppy-io/gatedfetch/internal/infrastructure/metrics"
	"github.com/stroppy-io/gatedfetch/internal/infrastructure/valkey"
	"github.com/stroppy-io/gatedfetch/internal/workflows/gatedfetch"
	"go.uber.org/zap"
)

// newDeps wires observers for the workflow. Resources it opens are released
// by the returned unit of work.
func newDeps(cfg *config.Config) (*gatedfetch.Deps, *uow.Uow, error) {
	resources := uow.UnitOfWork()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	runMetrics, err := metrics.New(registry)
	if err != nil {
		return nil, nil, err
	}
	observers := fetch.Observers{runMetrics}
	if cfg.Metrics.Addr != "" {
		resources.Add("metrics server", metrics.Serve(cfg.Metrics.Addr, registry))
	}

	if cfg.Valkey.Enabled() {
		client, err := valkey.NewValkey(&cfg.Valkey)
		if err != nil {
			return nil, nil, resources.Rollback(err)
		}
		resources.Add("valkey", func() error {
			client.Close()
			return nil
		})
		observers = append(observers, valkey.NewJournal(client, &cfg.Valkey))
	} else {
		logger.Named("worker").Info("valkey is not configured, run journal disabled")
	}

	logger.Named("worker").Info("dependencies ready",
		zap.Int("gate_threshold", cfg.Gate.Threshold),
		zap.String("fetch_url", cfg.Fetch.URL),
		zap.Duration("fetch_timeout", cfg.Fetch.Timeout),
	)
	return &gatedfetch.Deps{
		Gate:     cfg.Gate,
		Fetch:    cfg.Fetch,
		Observer: observers,
	}, resources, nil
}
