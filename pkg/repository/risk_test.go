package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/repository/memory"
)

func runRiskRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns IDs and keeps enum fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Risk().Create(ctx, &model.Risk{
			OrgID:      1,
			Title:      "Unpatched VPN gateway",
			Category:   "vulnerability-management",
			Severity:   types.SeverityCritical,
			Likelihood: types.LikelihoodVeryHigh,
			Owner:      "infra-team",
		})
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).NotEqual(int64(0))
		gt.Value(t, created.Title).Equal("Unpatched VPN gateway")
		gt.Value(t, created.Category).Equal(types.CategoryID("vulnerability-management"))
		gt.Value(t, created.Severity).Equal(types.SeverityCritical)
		gt.Value(t, created.Likelihood).Equal(types.LikelihoodVeryHigh)
		gt.Value(t, created.Owner).Equal("infra-team")
		gt.Bool(t, created.CreatedAt.IsZero()).False()

		second, err := repo.Risk().Create(ctx, &model.Risk{
			OrgID:      1,
			Title:      "Stale service accounts",
			Category:   "access-control",
			Severity:   types.SeverityMinor,
			Likelihood: types.LikelihoodRare,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, second.ID).NotEqual(created.ID)
	})

	t.Run("Get retrieves existing risk", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Risk().Create(ctx, &model.Risk{
			OrgID:      3,
			Title:      "Unencrypted backups",
			Category:   "data-protection",
			Severity:   types.SeverityMajor,
			Likelihood: types.LikelihoodLikely,
		})
		gt.NoError(t, err).Required()

		retrieved, err := repo.Risk().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, retrieved.ID).Equal(created.ID)
		gt.Value(t, retrieved.Title).Equal(created.Title)
		gt.Value(t, retrieved.Severity).Equal(created.Severity)
		gt.Value(t, retrieved.Likelihood).Equal(created.Likelihood)
	})

	t.Run("Get returns ErrNotFound for non-existent risk", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Risk().Get(ctx, 99999)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("List filters by organization", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, orgID := range []int64{1, 2, 1, 1} {
			_, err := repo.Risk().Create(ctx, &model.Risk{
				OrgID:      orgID,
				Title:      "seeded risk",
				Category:   "operations",
				Severity:   types.SeverityModerate,
				Likelihood: types.LikelihoodPossible,
			})
			gt.NoError(t, err).Required()
		}

		all, err := repo.Risk().List(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(4)
		for i := 1; i < len(all); i++ {
			gt.Bool(t, all[i].ID > all[i-1].ID).True()
		}

		scoped, err := repo.Risk().List(ctx, 1)
		gt.NoError(t, err).Required()
		gt.Array(t, scoped).Length(3)

		count, err := repo.Risk().Count(ctx, 2)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(1)

		total, err := repo.Risk().Count(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Value(t, total).Equal(4)
	})
}

func TestMemoryRiskRepository(t *testing.T) {
	runRiskRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreRiskRepository(t *testing.T) {
	runRiskRepositoryTest(t, newFirestoreRepository)
}

func TestPostgresRiskRepository(t *testing.T) {
	runRiskRepositoryTest(t, newPostgresRepository)
}
