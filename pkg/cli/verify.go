package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/service/ledger"
	"github.com/secmon-lab/themis/pkg/usecase"
	"github.com/urfave/cli/v3"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).Sprint("PASS")
	failLabel = color.New(color.FgRed, color.Bold).Sprint("FAIL")
)

func cmdVerify() *cli.Command {
	var subjectStr string
	var all bool
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "subject",
			Usage:       "Audit subject to verify in kind:id form (e.g. assessment:42)",
			Destination: &subjectStr,
		},
		&cli.BoolFlag{
			Name:        "all",
			Usage:       "Verify every subject chain in the store",
			Destination: &all,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "verify",
		Usage: "Verify audit log hash chains",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if subjectStr == "" && !all {
				return goerr.New("either --subject or --all is required")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer repo.Close() //nolint:errcheck // read-only access

			auditUC := usecase.NewAuditUseCase(repo, ledger.New(repo.Audit()))

			var results []*model.ChainVerification
			if all {
				results, err = auditUC.VerifyAllAudits(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to verify audit chains")
				}
			} else {
				subject, err := model.ParseSubject(subjectStr)
				if err != nil {
					return err
				}
				result, err := auditUC.VerifyAudit(ctx, subject)
				if err != nil {
					return goerr.Wrap(err, "failed to verify audit chain")
				}
				results = append(results, result)
			}

			failed := 0
			for _, result := range results {
				printVerification(result)
				if !result.OK {
					failed++
				}
			}

			fmt.Printf("\n%d chain(s) verified, %d failed\n", len(results), failed)
			if failed > 0 {
				return goerr.New("audit chain verification failed", goerr.V("failed", failed))
			}
			return nil
		},
	}
}

func printVerification(result *model.ChainVerification) {
	if result.OK {
		fmt.Printf("%s %s (%d entries)\n", passLabel, result.Subject, result.Entries)
		return
	}

	fmt.Printf("%s %s (%d entries) at sequence %d: %s\n",
		failLabel, result.Subject, result.Entries, *result.OffendingSequence, result.Reason)
}
