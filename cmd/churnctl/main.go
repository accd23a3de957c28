// churnctl is a command-line client for the customer churn analysis service:
// it submits dataset files, tracks analyses to completion, and browses prior
// runs. It is a thin renderer over the lifecycle controller and never mutates
// controller state directly.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ak0605-AI/Customer-Churn-System/internal/config"
	"github.com/ak0605-AI/Customer-Churn-System/internal/controller"
	"github.com/ak0605-AI/Customer-Churn-System/internal/dispatcher"
	"github.com/ak0605-AI/Customer-Churn-System/internal/health"
	"github.com/ak0605-AI/Customer-Churn-System/internal/history"
	"github.com/ak0605-AI/Customer-Churn-System/internal/observability"
	"github.com/ak0605-AI/Customer-Churn-System/internal/transport"
)

// app bundles the wired client components shared by all subcommands.
type app struct {
	cfg     *config.ClientConfig
	client  *transport.Client
	bus     *dispatcher.MemoryDispatcher
	cache   *history.Cache
	ctrl    *controller.Controller
	checker *health.Checker
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(); err != nil {
		slog.Error("churnctl failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadClientConfig()

	var (
		ctrlMetrics  controller.MetricsRecorder
		busMetrics   dispatcher.MetricsRecorder
		cacheMetrics history.MetricsRecorder
	)
	if cfg.MetricsPort != "" {
		metrics, metricsHandler, err := observability.NewMetrics(ctx)
		if err != nil {
			return err
		}
		ctrlMetrics, busMetrics, cacheMetrics = metrics, metrics, metrics

		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", metricsHandler)
		go func() {
			server := &http.Server{
				Addr:         ":" + cfg.MetricsPort,
				Handler:      metricsMux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	client := transport.NewClient(cfg.BaseURL, cfg.HTTPTimeout)
	bus := dispatcher.NewMemory(cfg.EventBuffer, busMetrics)
	cache := history.NewCache(client, cacheMetrics)
	cache.Bind(bus)

	ctrl := controller.New(client, bus, cache, ctrlMetrics, controller.Config{
		PollInterval:         cfg.PollInterval,
		PollFailureThreshold: cfg.PollFailureThreshold,
	})

	a := &app{
		cfg:     cfg,
		client:  client,
		bus:     bus,
		cache:   cache,
		ctrl:    ctrl,
		checker: health.NewChecker(client),
	}

	err := newRootCmd(ctx, a).Execute()

	ctrl.Close()
	drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = bus.Close(drainCtx)

	return err
}

func newRootCmd(ctx context.Context, a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "churnctl",
		Short:         "Client for the customer churn analysis service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSubmitCmd(ctx, a))
	root.AddCommand(newStatusCmd(ctx, a))
	root.AddCommand(newListCmd(ctx, a))
	root.AddCommand(newDeleteCmd(ctx, a))
	root.AddCommand(newSampleCmd(ctx, a))
	root.AddCommand(newHealthCmd(ctx, a))
	return root
}
