package main

import (
	"log"

	"github.com/hatchet-dev/hatchet/pkg/cmdutils"
	hatchetLib "github.com/hatchet-dev/hatchet/sdks/go"
	"github.com/stroppy-io/gatedfetch/internal/config"
	"github.com/stroppy-io/gatedfetch/internal/core/build"
	hatchet_ext "github.com/stroppy-io/gatedfetch/internal/core/hatchet-ext"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/workflows/gatedfetch"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.NewFromConfig(&cfg.Logger)
	defer func() { _ = logger.Global().Sync() }()

	deps, resources, err := newDeps(cfg)
	if err != nil {
		log.Fatalf("Failed to build dependencies: %v", err)
	}
	defer func() {
		if err := resources.Close(); err != nil {
			logger.Global().Warn("failed to release resources", zap.Error(err))
		}
	}()

	c, err := hatchet_ext.HatchetClient()
	if err != nil {
		log.Fatalf("Failed to create Hatchet client: %v", err)
	}
	worker, err := c.NewWorker(
		cfg.Hatchet.WorkerName,
		hatchetLib.WithWorkflows(
			gatedfetch.Workflow(c, deps),
			gatedfetch.BatchWorkflow(c),
		),
	)
	if err != nil {
		log.Fatalf("Failed to create Hatchet worker: %v", err)
	}

	interruptCtx, cancel := cmdutils.NewInterruptContext()
	defer cancel()
	logger.Global().Info("starting worker",
		zap.String("worker", cfg.Hatchet.WorkerName),
		zap.String("instance", build.GlobalInstanceId),
	)
	if err := worker.StartBlocking(interruptCtx); err != nil {
		logger.Global().Error("worker stopped", zap.Error(err))
	}
}
