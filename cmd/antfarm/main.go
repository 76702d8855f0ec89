// Command antfarm runs the ant scheduling and execution engine: it loads
// configuration, opens the store, warm-starts timers for enabled ants, and
// serves the ops HTTP surface until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"antfarm/internal/ant"
	"antfarm/internal/broadcast"
	"antfarm/internal/config"
	"antfarm/internal/domain"
	"antfarm/internal/errors"
	"antfarm/internal/logging"
	"antfarm/internal/repository"
	"antfarm/internal/server"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "antfarm",
		Short: "Autonomous chat agents posting into rooms on per-agent timers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logging.SetLevel(logging.LevelDebug)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: antfarm.yaml in . or $HOME)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Debug logging")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger := logging.NewComponentLogger("Main")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}

	retry := errors.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   cfg.Engine.RetryBaseDelay,
		MaxDelay:    cfg.Engine.RetryMaxDelay,
	}
	prices := priceTable(cfg.Prices)

	runners, err := buildRunners(ctx, cfg.Models, retry, prices)
	if err != nil {
		return err
	}
	registry := ant.NewRegistry(runners...)
	logger.Info("model registry ready models=%v", registry.Models())

	pool := ant.NewWorkerPool(cfg.Engine.Workers, cfg.Engine.QueueCapacity, logging.NewComponentLogger("WorkerPool"))
	scheduler := ant.NewScheduler(pool, logging.NewComponentLogger("Scheduler"))
	hub := broadcast.NewHub(logging.NewComponentLogger("Hub"))
	orch := ant.NewOrchestrator(store, registry, scheduler, hub, cfg.Engine.SummaryWindow, logging.NewComponentLogger("Orchestrator"))
	svc := ant.NewService(store, scheduler, orch, logging.NewComponentLogger("Service"))

	if _, err := svc.WarmStart(ctx); err != nil {
		scheduler.Shutdown()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(hub, logging.NewComponentLogger("Server")).Run(gctx, cfg.Server.Listen)
	})

	err = g.Wait()
	logger.Info("shutting down")
	scheduler.Shutdown()
	return err
}

func openStore(cfg config.StoreConfig) (*repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return repository.OpenSQLite(cfg.Path)
	default:
		return repository.NewMemoryStore(), nil
	}
}

func buildRunners(ctx context.Context, models []config.ModelConfig, retry errors.RetryConfig, prices ant.PriceTable) ([]ant.Runner, error) {
	runners := make([]ant.Runner, 0, len(models))
	for _, m := range models {
		r, err := ant.NewEinoRunner(ctx, domain.ModelID(m.ID), ant.ProviderConfig{
			Provider:    m.Provider,
			APIKey:      m.APIKey,
			BaseURL:     m.BaseURL,
			ModelName:   m.ModelName,
			Temperature: float32(m.Temperature),
			MaxTokens:   m.MaxTokens,
		}, retry, prices, logging.NewComponentLogger("Runner"))
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.ID, err)
		}
		runners = append(runners, r)
	}
	return runners, nil
}

func priceTable(prices map[string]config.PriceConfig) ant.PriceTable {
	t := make(ant.PriceTable, len(prices))
	for id, p := range prices {
		t[domain.ModelID(id)] = ant.ModelPrice{
			InputPerMillion:  p.InputPerMillion,
			OutputPerMillion: p.OutputPerMillion,
		}
	}
	return t
}
