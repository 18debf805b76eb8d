package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/service/archive"
	"github.com/secmon-lab/themis/pkg/service/ledger"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdExport() *cli.Command {
	var subjects []string
	var output string
	var gcsBucket string
	var gcsPrefix string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "subject",
			Usage:       "Audit subject to export in kind:id form (repeatable; all subjects when omitted)",
			Destination: &subjects,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file path for the evidence bundle",
			Sources:     cli.EnvVars("THEMIS_EXPORT_OUTPUT"),
			Destination: &output,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket to upload the evidence bundle to",
			Sources:     cli.EnvVars("THEMIS_EXPORT_GCS_BUCKET"),
			Destination: &gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix within the Cloud Storage bucket",
			Sources:     cli.EnvVars("THEMIS_EXPORT_GCS_PREFIX"),
			Destination: &gcsPrefix,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export verified audit chains as an evidence bundle",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if output == "" && gcsBucket == "" {
				return goerr.New("either --output or --gcs-bucket is required")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer repo.Close() //nolint:errcheck // read-only access

			exporter := archive.New(repo.Audit(), ledger.New(repo.Audit()))

			var bundle *archive.Bundle
			if len(subjects) == 0 {
				bundle, err = exporter.BuildAll(ctx)
			} else {
				parsed := make([]model.Subject, 0, len(subjects))
				for _, raw := range subjects {
					subject, perr := model.ParseSubject(raw)
					if perr != nil {
						return perr
					}
					parsed = append(parsed, subject)
				}
				bundle, err = exporter.Build(ctx, parsed)
			}
			if err != nil {
				return goerr.Wrap(err, "failed to build evidence bundle")
			}

			logger.Info("Evidence bundle built",
				"chains", len(bundle.Chains),
				"bundle_hash", bundle.BundleHash,
			)

			if output != "" {
				if err := exporter.WriteFile(ctx, bundle, output); err != nil {
					return goerr.Wrap(err, "failed to write evidence bundle")
				}
				logger.Info("Evidence bundle written", "path", output)
			}

			if gcsBucket != "" {
				uploader, err := archive.NewGCSUploader(ctx, gcsBucket, gcsPrefix)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize Cloud Storage uploader")
				}
				defer func() {
					if err := uploader.Close(); err != nil {
						logger.Error("failed to close Cloud Storage uploader", "error", err.Error())
					}
				}()

				object, err := uploader.Upload(ctx, bundle)
				if err != nil {
					return goerr.Wrap(err, "failed to upload evidence bundle")
				}
				logger.Info("Evidence bundle uploaded", "bucket", gcsBucket, "object", object)
			}

			return nil
		},
	}
}
