package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/repository/memory"
	"github.com/secmon-lab/themis/pkg/service/controls"
	"github.com/secmon-lab/themis/pkg/service/evalcache"
	"github.com/secmon-lab/themis/pkg/service/evaluator"
	"github.com/secmon-lab/themis/pkg/service/ledger"
	"github.com/secmon-lab/themis/pkg/usecase"
)

type testEnv struct {
	repo      interfaces.Repository
	controls  *controls.Static
	evaluator *evaluator.Evaluator
	uc        *usecase.UseCases
}

func setupEnv(t *testing.T, opts ...usecase.Option) *testEnv {
	t.Helper()

	repo := memory.New()
	static := controls.NewStatic()
	cache := evalcache.New(evalcache.NewMemoryStore())
	t.Cleanup(func() {
		if err := cache.Close(); err != nil {
			t.Errorf("failed to close cache: %v", err)
		}
	})

	eval := evaluator.New(repo, static, cache)
	lg := ledger.New(repo.Audit())

	return &testEnv{
		repo:      repo,
		controls:  static,
		evaluator: eval,
		uc:        usecase.New(repo, eval, lg, opts...),
	}
}

// setupEnvWithProvider builds the stack around a custom control status
// provider, used to simulate collaborator failures.
func setupEnvWithProvider(t *testing.T, provider interfaces.ControlStatusProvider) *testEnv {
	t.Helper()

	repo := memory.New()
	cache := evalcache.New(evalcache.NewMemoryStore())
	t.Cleanup(func() {
		if err := cache.Close(); err != nil {
			t.Errorf("failed to close cache: %v", err)
		}
	})

	eval := evaluator.New(repo, provider, cache)
	lg := ledger.New(repo.Audit())

	return &testEnv{
		repo:      repo,
		evaluator: eval,
		uc:        usecase.New(repo, eval, lg),
	}
}

func (env *testEnv) seedOrganization(t *testing.T, name string) *model.Organization {
	t.Helper()

	org, err := env.uc.Organization.CreateOrganization(context.Background(), name, "finance", true)
	gt.NoError(t, err)
	return org
}

// seedNCAFramework registers the weighted reference framework used across
// the lifecycle tests: 200 total weight, 171 satisfied gives 85.5.
func (env *testEnv) seedNCAFramework(t *testing.T, satisfiedOrgID int64) {
	t.Helper()

	fw := &model.Framework{
		Code:     "nca-ecc",
		Name:     "NCA Essential Cybersecurity Controls",
		Regional: true,
		Version:  1,
		Controls: []model.Control{
			{ID: "ecc-1-1-1", Description: "Cybersecurity governance", Weight: 100},
			{ID: "ecc-2-1-1", Description: "Asset management", Weight: 71},
			{ID: "ecc-2-5-1", Description: "Multi factor authentication", Weight: 29},
		},
	}
	gt.NoError(t, env.repo.Framework().Put(context.Background(), fw))

	if satisfiedOrgID != 0 {
		env.controls.SetAll(satisfiedOrgID, []types.ControlID{"ecc-1-1-1", "ecc-2-1-1"})
	}
}

func auditEntries(t *testing.T, repo interfaces.Repository, subject model.Subject) []*model.AuditLogEntry {
	t.Helper()

	entries, err := repo.Audit().ListBySubject(context.Background(), subject)
	gt.NoError(t, err)
	return entries
}

func auditPayload(t *testing.T, entry *model.AuditLogEntry) map[string]any {
	t.Helper()

	var payload map[string]any
	gt.NoError(t, json.Unmarshal(entry.Payload, &payload))
	return payload
}

func TestUseCases_EndToEnd(t *testing.T) {
	ctx := model.WithActor(context.Background(), "auditor@example.com")
	env := setupEnv(t)

	org := env.seedOrganization(t, "Acme Bank")
	env.seedNCAFramework(t, org.ID)

	// Automated assessment lands on SCORED with the weighted score
	assessment, err := env.uc.Assessment.CreateAssessment(ctx, org.ID, "nca-ecc", types.AssessmentTypeAutomated)
	gt.NoError(t, err)
	gt.V(t, assessment.Status).Equal(types.AssessmentStatusScored)
	gt.B(t, assessment.AutomatedScore != nil).True()
	gt.V(t, *assessment.AutomatedScore).Equal(85.5)
	gt.B(t, assessment.FinalScore == nil).True()

	// Reviewer closes it with an override
	completed, err := env.uc.Assessment.CompleteAssessment(ctx, assessment.ID, 90)
	gt.NoError(t, err)
	gt.V(t, completed.Status).Equal(types.AssessmentStatusCompleted)
	gt.V(t, *completed.FinalScore).Equal(90.0)
	gt.V(t, *completed.AutomatedScore).Equal(85.5)
	gt.B(t, completed.CompletedAt != nil).True()

	// A risk for the same organization
	risk, err := env.uc.Risk.CreateRisk(ctx, &model.Risk{
		OrgID:      org.ID,
		Title:      "Unpatched internet-facing VPN",
		Category:   "vulnerability-management",
		Severity:   types.SeverityCritical,
		Likelihood: types.LikelihoodVeryHigh,
		Owner:      "infra-team",
	})
	gt.NoError(t, err)
	gt.V(t, risk.InherentScore).Equal(25)
	gt.V(t, risk.Level).Equal(types.RiskLevelCritical)

	// The dashboard reflects everything created above
	stats, err := env.uc.Analytics.DashboardStats(ctx, 0)
	gt.NoError(t, err)
	gt.V(t, stats.OrgCount).Equal(1)
	gt.V(t, stats.AssessmentCount).Equal(1)
	gt.V(t, stats.OpenRiskCount).Equal(1)
	gt.V(t, stats.FrameworkCount).Equal(1)

	// Every audit chain written along the way verifies
	results, err := env.uc.Audit.VerifyAllAudits(ctx)
	gt.NoError(t, err)
	gt.A(t, results).Length(3)
	for _, result := range results {
		gt.B(t, result.OK).
			Describef("chain %s should verify", result.Subject.String()).
			True()
	}

	// All entries carry the acting identity from the context
	entries := auditEntries(t, env.repo, completed.Subject())
	gt.A(t, entries).Length(4)
	for _, entry := range entries {
		gt.S(t, entry.Actor).Equal("auditor@example.com")
	}
}
