package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/secmon-lab/themis/pkg/cli/config"
	httpctrl "github.com/secmon-lab/themis/pkg/controller/http"
	"github.com/secmon-lab/themis/pkg/domain/model"
	domainConfig "github.com/secmon-lab/themis/pkg/domain/model/config"
	"github.com/secmon-lab/themis/pkg/service/controls"
	"github.com/secmon-lab/themis/pkg/service/evalcache"
	"github.com/secmon-lab/themis/pkg/service/evaluator"
	"github.com/secmon-lab/themis/pkg/service/ledger"
	"github.com/secmon-lab/themis/pkg/service/worker"
	"github.com/secmon-lab/themis/pkg/usecase"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"github.com/secmon-lab/themis/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var riskMatrixPath string
	var frameworksPath string
	var controlStatusPath string
	var deviationThreshold float64
	var repoCfg config.Repository
	var cacheCfg config.Cache

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("THEMIS_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "risk-matrix",
			Usage:       "Risk matrix TOML file (built-in default matrix when omitted)",
			Sources:     cli.EnvVars("THEMIS_RISK_MATRIX"),
			Destination: &riskMatrixPath,
		},
		&cli.StringFlag{
			Name:        "frameworks",
			Usage:       "Framework registry TOML file, synced into the repository at startup",
			Sources:     cli.EnvVars("THEMIS_FRAMEWORKS"),
			Destination: &frameworksPath,
		},
		&cli.StringFlag{
			Name:        "control-status",
			Usage:       "Control status TOML file for the static provider",
			Sources:     cli.EnvVars("THEMIS_CONTROL_STATUS"),
			Destination: &controlStatusPath,
		},
		&cli.FloatFlag{
			Name:        "deviation-threshold",
			Usage:       "Score deviation above which a completed assessment is flagged for review",
			Value:       usecase.DefaultDeviationThreshold,
			Sources:     cli.EnvVars("THEMIS_DEVIATION_THRESHOLD"),
			Destination: &deviationThreshold,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			ctx = model.WithActor(ctx, "system")

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			// Metrics registry shared by all components and the /metrics endpoint
			registry := prometheus.NewRegistry()
			m := metrics.New(registry)

			// Evaluation cache
			store, err := cacheCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize evaluation cache")
			}
			cache := evalcache.New(store,
				evalcache.WithTTL(cacheCfg.TTL()),
				evalcache.WithTimeout(cacheCfg.Timeout()),
				evalcache.WithMetrics(m),
			)
			defer func() {
				if err := cache.Close(); err != nil {
					logger.Error("failed to close evaluation cache", "error", err.Error())
				}
			}()

			// Control status provider
			provider := controls.NewStatic()
			if controlStatusPath != "" {
				provider, err = config.LoadControlStatus(controlStatusPath)
				if err != nil {
					return goerr.Wrap(err, "failed to load control status")
				}
				logger.Info("Loaded control status", "path", controlStatusPath)
			} else {
				logger.Warn("No control status file configured, all controls evaluate as unsatisfied")
			}

			eval := evaluator.New(repo, provider, cache)
			lg := ledger.New(repo.Audit(), ledger.WithMetrics(m))

			// Risk matrix
			matrix := domainConfig.DefaultMatrix()
			if riskMatrixPath != "" {
				matrix, err = config.LoadRiskMatrix(riskMatrixPath)
				if err != nil {
					return goerr.Wrap(err, "failed to load risk matrix")
				}
				logger.Info("Loaded risk matrix", "path", riskMatrixPath)
			}

			uc := usecase.New(repo, eval, lg,
				usecase.WithRiskMatrix(matrix),
				usecase.WithDeviationThreshold(deviationThreshold),
			)

			// Sync the framework registry before accepting requests
			if frameworksPath != "" {
				frameworks, err := config.LoadFrameworks(frameworksPath)
				if err != nil {
					return goerr.Wrap(err, "failed to load framework registry")
				}
				result, err := uc.Framework.SyncRegistry(ctx, frameworks)
				if err != nil {
					return goerr.Wrap(err, "failed to sync framework registry")
				}
				logger.Info("Framework registry synced",
					"registered", result.Registered,
					"updated", result.Updated,
					"unchanged", result.Unchanged,
					"invalidated_evaluations", result.Invalidated,
				)
			} else {
				logger.Warn("No framework registry configured, assessments require previously synced frameworks")
			}

			// Start expired cache entry sweeper
			sweeper := worker.NewCacheSweepWorker(cache, cacheCfg.SweepInterval())
			if err := sweeper.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start cache sweep worker")
			}

			// Create HTTP server
			httpHandler := httpctrl.New(uc,
				httpctrl.WithMetrics(registry),
				httpctrl.WithCacheAdmin(eval),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				sweeper.Stop()
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				sweeper.Stop()

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
