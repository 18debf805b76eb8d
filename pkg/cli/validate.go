package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/service/controls"
	"github.com/secmon-lab/themis/pkg/service/evalcache"
	"github.com/secmon-lab/themis/pkg/service/evaluator"
	"github.com/secmon-lab/themis/pkg/usecase"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var riskMatrixPath string
	var frameworksPath string
	var controlStatusPath string
	var sync bool
	var repoCfg config.Repository
	var cacheCfg config.Cache

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "risk-matrix",
			Usage:       "Risk matrix TOML file to validate",
			Sources:     cli.EnvVars("THEMIS_RISK_MATRIX"),
			Destination: &riskMatrixPath,
		},
		&cli.StringFlag{
			Name:        "frameworks",
			Usage:       "Framework registry TOML file to validate",
			Sources:     cli.EnvVars("THEMIS_FRAMEWORKS"),
			Destination: &frameworksPath,
		},
		&cli.StringFlag{
			Name:        "control-status",
			Usage:       "Control status TOML file to validate",
			Sources:     cli.EnvVars("THEMIS_CONTROL_STATUS"),
			Destination: &controlStatusPath,
		},
		&cli.BoolFlag{
			Name:        "sync",
			Usage:       "Sync the validated framework registry into the repository",
			Destination: &sync,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate configuration files and optionally sync the framework registry",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if riskMatrixPath == "" && frameworksPath == "" && controlStatusPath == "" {
				return goerr.New("no configuration files specified, nothing to validate")
			}

			if riskMatrixPath != "" {
				matrix, err := config.LoadRiskMatrix(riskMatrixPath)
				if err != nil {
					return goerr.Wrap(err, "risk matrix validation failed")
				}
				logger.Info("Risk matrix validated",
					"path", riskMatrixPath,
					"severity_levels", len(matrix.Severity),
					"likelihood_levels", len(matrix.Likelihood),
				)
			}

			var frameworks []*model.Framework
			if frameworksPath != "" {
				loaded, err := config.LoadFrameworks(frameworksPath)
				if err != nil {
					return goerr.Wrap(err, "framework registry validation failed")
				}
				frameworks = loaded
				logger.Info("Framework registry validated",
					"path", frameworksPath,
					"framework_count", len(frameworks),
				)
				for _, fw := range frameworks {
					logger.Info("Framework validated",
						"code", fw.Code,
						"version", fw.Version,
						"control_count", len(fw.Controls),
					)
				}
			}

			if controlStatusPath != "" {
				if _, err := config.LoadControlStatus(controlStatusPath); err != nil {
					return goerr.Wrap(err, "control status validation failed")
				}
				logger.Info("Control status validated", "path", controlStatusPath)
			}

			if !sync {
				return nil
			}
			if frameworksPath == "" {
				return goerr.New("sync requires a framework registry file")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			store, err := cacheCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize evaluation cache")
			}
			cache := evalcache.New(store, evalcache.WithTTL(cacheCfg.TTL()))
			defer func() {
				if err := cache.Close(); err != nil {
					logger.Error("failed to close evaluation cache", "error", err.Error())
				}
			}()

			eval := evaluator.New(repo, controls.NewStatic(), cache)
			fwUC := usecase.NewFrameworkUseCase(repo, eval)

			result, err := fwUC.SyncRegistry(ctx, frameworks)
			if err != nil {
				return goerr.Wrap(err, "failed to sync framework registry")
			}
			logger.Info("Framework registry synced",
				"registered", result.Registered,
				"updated", result.Updated,
				"unchanged", result.Unchanged,
				"invalidated_evaluations", result.Invalidated,
			)
			return nil
		},
	}
}
