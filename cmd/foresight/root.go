package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/marketlens/go-foresight/internal/audit"
	"github.com/marketlens/go-foresight/internal/configuration"
	"github.com/marketlens/go-foresight/internal/llm"
	"github.com/marketlens/go-foresight/internal/orchestrator"
	"github.com/marketlens/go-foresight/internal/persistence"
	"github.com/marketlens/go-foresight/internal/units"
	"github.com/marketlens/go-foresight/internal/worker"
	"github.com/marketlens/go-foresight/pkg/events"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "foresight",
		Short:         "Commercial viability forecast pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(newWorkerCmd(&configPath))
	root.AddCommand(newForecastCmd(&configPath))
	root.AddCommand(newGetCmd(&configPath))
	return root
}

// setup loads configuration and builds the logger every command shares.
func setup(configPath string) (configuration.Config, zerolog.Logger, error) {
	cfg, err := configuration.Load(configPath)
	if err != nil {
		return configuration.Config{}, zerolog.Logger{}, err
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Logging.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	logger = logger.Level(level).With().Timestamp().Logger()
	return cfg, logger, nil
}

func openDatabase(cfg configuration.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is not configured (set %s)", cfg.DSNEnv)
	}
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

func newWorkerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the Temporal worker hosting the pipeline activities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			store := persistence.NewPostgresStore(db)

			llmCfg := cfg.LLM
			llmCfg.Logger = logger
			llmClient, err := llm.NewClient(llmCfg)
			if err != nil {
				return fmt.Errorf("build model client: %w", err)
			}

			metrics := audit.NewMetrics()
			registry := prometheus.NewRegistry()
			if err := metrics.Register(registry); err != nil {
				return fmt.Errorf("register metrics: %w", err)
			}
			sink := audit.NewStoreSink(store, metrics, logger)

			runner := worker.NewRunner(llmClient, units.RunnerConfig{
				Provider: cfg.Pipeline.DefaultProvider,
				Model:    cfg.Pipeline.DefaultModel,
				Timeout:  cfg.Pipeline.UnitTimeout,
			}, units.WithAuditRecorder(sink), units.WithLogger(logger))

			temporalClient, err := client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
			})
			if err != nil {
				return fmt.Errorf("dial temporal: %w", err)
			}
			defer temporalClient.Close()

			if cfg.Metrics.Enabled {
				go serveMetrics(cfg.Metrics.Addr, registry, logger)
			}

			w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Deps{
				Runner:    runner,
				EventSink: events.NewNoOpEventSink(),
			})

			logger.Info().
				Str("task_queue", cfg.Temporal.TaskQueue).
				Str("host_port", cfg.Temporal.HostPort).
				Msg("worker starting")

			stopCh := make(chan interface{})
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				close(stopCh)
			}()
			return w.Run(stopCh)
		},
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics endpoint stopped")
	}
}

func newForecastCmd(configPath *string) *cobra.Command {
	var (
		productID string
		cityIDs   []string
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Request a viability forecast and wait for the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}

			pid, err := uuid.Parse(productID)
			if err != nil {
				return fmt.Errorf("invalid product id: %w", err)
			}
			cids := make([]uuid.UUID, 0, len(cityIDs))
			for _, raw := range cityIDs {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid city id %q: %w", raw, err)
				}
				cids = append(cids, id)
			}

			db, err := openDatabase(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			store := persistence.NewPostgresStore(db)

			temporalClient, err := client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
			})
			if err != nil {
				return fmt.Errorf("dial temporal: %w", err)
			}
			defer temporalClient.Close()

			coord := orchestrator.NewCoordinator(
				store,
				orchestrator.NewTemporalRunner(temporalClient, cfg.Temporal.TaskQueue),
				logger,
			)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := coord.CreateForecast(ctx, orchestrator.CreateForecastInput{
				ProductID: pid,
				CityIDs:   cids,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product UUID to forecast")
	cmd.Flags().StringSliceVar(&cityIDs, "cities", nil, "candidate city UUIDs (empty = all)")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func newGetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <forecast-id>",
		Short: "Fetch a stored forecast record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(*configPath)
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid forecast id: %w", err)
			}

			db, err := openDatabase(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			record, err := persistence.NewPostgresStore(db).GetForecast(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, record)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
