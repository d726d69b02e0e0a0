package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estateflow/estateflow/pkg/eventbus"
	"github.com/estateflow/estateflow/pkg/log"
	"github.com/estateflow/estateflow/pkg/metrics"
	"github.com/estateflow/estateflow/pkg/otelhelper"
	"github.com/estateflow/estateflow/pkg/persistence"
	"github.com/estateflow/estateflow/pkg/persistence/memory"
	"github.com/estateflow/estateflow/pkg/persistence/postgresql"
	"github.com/estateflow/estateflow/pkg/persistence/redisstore"
	"github.com/estateflow/estateflow/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("engine")

	cmd := &cli.Command{
		Name:                  "estateflow-engine",
		Usage:                 "Run the property automation workflow engine",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Scheduler poll interval for time-based triggers",
				Value:   60 * time.Second,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection URL for durable workflow storage",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for workflow storage (ignored when database-url is set)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.BoolFlag{
				Name:  "seed-templates",
				Usage: "Seed default template workflows when the registry is empty",
				Value: true,
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing estateflow engine")

			if command.Bool("tracing") {
				if _, err := otelhelper.NewTracer(ctx, "estateflow-engine"); err != nil {
					logger.WarnContext(ctx, "Failed to initialize tracing", "error", err)
				}
			}

			store, err := newStore(ctx, command)
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close store", "error", err)
				}
			}()

			bus := eventbus.NewGoChannelEventBus(logger)
			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			cfg := workflow.DefaultConfig()
			cfg.PollInterval = command.Duration("poll-interval")
			cfg.SeedTemplates = command.Bool("seed-templates")

			engine := workflow.NewEngine(logger, store, newCollaborators(logger), cfg).
				WithEventBus(bus).
				WithMetrics(metrics.New(prometheus.DefaultRegisterer))

			if err := engine.Start(ctx); err != nil {
				return err
			}

			waitCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			<-waitCtx.Done()

			return engine.Stop(context.WithoutCancel(ctx))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("Engine exited with error", "error", err)
		os.Exit(1)
	}
}

func newStore(ctx context.Context, command *cli.Command) (persistence.WorkflowStore, error) {
	logger := log.WithModule("persistence")

	if url := command.String("database-url"); url != "" {
		return postgresql.NewStore(ctx, logger, url)
	}

	if url := command.String("redis-url"); url != "" {
		return redisstore.NewStore(ctx, logger, url)
	}

	logger.InfoContext(ctx, "No store configured, using in-memory storage")

	return memory.NewStore(), nil
}
