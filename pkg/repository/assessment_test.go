package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/repository/memory"
)

func runAssessmentRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and preserves caller fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		score := 85.5
		completedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		created, err := repo.Assessment().Create(ctx, &model.Assessment{
			OrgID:          1,
			FrameworkCode:  "nca-ecc",
			Type:           types.AssessmentTypeAutomated,
			Status:         types.AssessmentStatusCompleted,
			AutomatedScore: &score,
			FinalScore:     &score,
			CompletedAt:    &completedAt,
		})
		if err != nil {
			t.Fatalf("failed to create assessment: %v", err)
		}

		if created.ID == 0 {
			t.Error("expected non-zero ID")
		}
		if created.CreatedAt.IsZero() {
			t.Error("expected non-zero CreatedAt")
		}
		if created.Status != types.AssessmentStatusCompleted {
			t.Errorf("expected status to be preserved, got %s", created.Status)
		}
		if created.AutomatedScore == nil || *created.AutomatedScore != 85.5 {
			t.Errorf("expected automated score to be preserved, got %v", created.AutomatedScore)
		}
		if created.CompletedAt == nil || !created.CompletedAt.Equal(completedAt) {
			t.Errorf("expected completedAt to be preserved, got %v", created.CompletedAt)
		}

		second, err := repo.Assessment().Create(ctx, &model.Assessment{
			OrgID:         1,
			FrameworkCode: "nca-ecc",
			Type:          types.AssessmentTypeManual,
			Status:        types.AssessmentStatusPending,
		})
		if err != nil {
			t.Fatalf("failed to create second assessment: %v", err)
		}
		if second.ID == created.ID {
			t.Errorf("expected distinct IDs, both got %d", second.ID)
		}
	})

	t.Run("Get retrieves existing assessment", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Assessment().Create(ctx, &model.Assessment{
			OrgID:         7,
			FrameworkCode: "iso-27001",
			Type:          types.AssessmentTypeAutomated,
			Status:        types.AssessmentStatusPending,
		})
		if err != nil {
			t.Fatalf("failed to create assessment: %v", err)
		}

		retrieved, err := repo.Assessment().Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("failed to get assessment: %v", err)
		}

		if retrieved.ID != created.ID {
			t.Errorf("expected ID=%d, got %d", created.ID, retrieved.ID)
		}
		if retrieved.OrgID != 7 {
			t.Errorf("expected orgID=7, got %d", retrieved.OrgID)
		}
		if retrieved.FrameworkCode != "iso-27001" {
			t.Errorf("expected framework=iso-27001, got %s", retrieved.FrameworkCode)
		}
		if retrieved.AutomatedScore != nil {
			t.Errorf("expected nil automated score, got %v", *retrieved.AutomatedScore)
		}
	})

	t.Run("Get returns ErrNotFound for non-existent assessment", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Assessment().Get(ctx, 99999)
		if err == nil {
			t.Error("expected error for non-existent assessment")
		}
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update replaces fields but keeps CreatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Assessment().Create(ctx, &model.Assessment{
			OrgID:         1,
			FrameworkCode: "nca-ecc",
			Type:          types.AssessmentTypeAutomated,
			Status:        types.AssessmentStatusScoring,
		})
		if err != nil {
			t.Fatalf("failed to create assessment: %v", err)
		}

		score := 72.5
		created.Status = types.AssessmentStatusScored
		created.AutomatedScore = &score
		created.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

		updated, err := repo.Assessment().Update(ctx, created)
		if err != nil {
			t.Fatalf("failed to update assessment: %v", err)
		}

		if updated.Status != types.AssessmentStatusScored {
			t.Errorf("expected status=SCORED, got %s", updated.Status)
		}
		if updated.AutomatedScore == nil || *updated.AutomatedScore != 72.5 {
			t.Errorf("expected automated score 72.5, got %v", updated.AutomatedScore)
		}
		if updated.CreatedAt.Year() == 1999 {
			t.Error("expected CreatedAt to be preserved from the stored record")
		}
	})

	t.Run("Update returns ErrNotFound for non-existent assessment", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Assessment().Update(ctx, &model.Assessment{
			ID:            99999,
			OrgID:         1,
			FrameworkCode: "nca-ecc",
			Type:          types.AssessmentTypeAutomated,
			Status:        types.AssessmentStatusScored,
		})
		if err == nil {
			t.Error("expected error for non-existent assessment")
		}
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List filters by organization", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, orgID := range []int64{1, 2, 1} {
			_, err := repo.Assessment().Create(ctx, &model.Assessment{
				OrgID:         orgID,
				FrameworkCode: "nca-ecc",
				Type:          types.AssessmentTypeAutomated,
				Status:        types.AssessmentStatusPending,
			})
			if err != nil {
				t.Fatalf("failed to create assessment: %v", err)
			}
		}

		all, err := repo.Assessment().List(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list assessments: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 assessments, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i].ID <= all[i-1].ID {
				t.Errorf("expected ascending IDs, got %d before %d", all[i-1].ID, all[i].ID)
			}
		}

		scoped, err := repo.Assessment().List(ctx, 1)
		if err != nil {
			t.Fatalf("failed to list scoped assessments: %v", err)
		}
		if len(scoped) != 2 {
			t.Errorf("expected 2 assessments for org 1, got %d", len(scoped))
		}
		for _, a := range scoped {
			if a.OrgID != 1 {
				t.Errorf("expected orgID=1, got %d", a.OrgID)
			}
		}

		count, err := repo.Assessment().Count(ctx, 2)
		if err != nil {
			t.Fatalf("failed to count assessments: %v", err)
		}
		if count != 1 {
			t.Errorf("expected count=1 for org 2, got %d", count)
		}
	})

	t.Run("ListCompletedBetween returns half-open window ordered by completion", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		day := func(d int) time.Time {
			return time.Date(2025, 6, d, 10, 0, 0, 0, time.UTC)
		}
		seed := func(orgID int64, completedAt time.Time, score float64) {
			t.Helper()
			_, err := repo.Assessment().Create(ctx, &model.Assessment{
				OrgID:         orgID,
				FrameworkCode: "nca-ecc",
				Type:          types.AssessmentTypeAutomated,
				Status:        types.AssessmentStatusCompleted,
				FinalScore:    &score,
				CompletedAt:   &completedAt,
			})
			if err != nil {
				t.Fatalf("failed to seed completed assessment: %v", err)
			}
		}

		seed(1, day(10), 80)
		seed(1, day(5), 60)
		seed(1, day(1), 40)
		seed(2, day(7), 99)

		// Never completed, must not appear
		if _, err := repo.Assessment().Create(ctx, &model.Assessment{
			OrgID:         1,
			FrameworkCode: "nca-ecc",
			Type:          types.AssessmentTypeAutomated,
			Status:        types.AssessmentStatusScored,
		}); err != nil {
			t.Fatalf("failed to create pending assessment: %v", err)
		}

		// [day(5) 00:00, day(10) 00:00) excludes both edges of the seed set
		from := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

		completed, err := repo.Assessment().ListCompletedBetween(ctx, 1, from, to)
		if err != nil {
			t.Fatalf("failed to list completed assessments: %v", err)
		}
		if len(completed) != 1 {
			t.Fatalf("expected 1 completed assessment in window, got %d", len(completed))
		}
		if *completed[0].FinalScore != 60 {
			t.Errorf("expected score 60, got %v", *completed[0].FinalScore)
		}

		// Inclusive lower bound picks up an entry exactly at from
		completed, err = repo.Assessment().ListCompletedBetween(ctx, 1, day(5), to)
		if err != nil {
			t.Fatalf("failed to list completed assessments: %v", err)
		}
		if len(completed) != 1 {
			t.Errorf("expected entry at the lower bound to be included, got %d entries", len(completed))
		}

		// Exclusive upper bound drops an entry exactly at to
		completed, err = repo.Assessment().ListCompletedBetween(ctx, 1, from, day(10))
		if err != nil {
			t.Fatalf("failed to list completed assessments: %v", err)
		}
		if len(completed) != 1 {
			t.Errorf("expected entry at the upper bound to be excluded, got %d entries", len(completed))
		}

		// Unscoped query spans organizations, ordered by completion time
		completed, err = repo.Assessment().ListCompletedBetween(ctx, 0, time.Time{}, day(30))
		if err != nil {
			t.Fatalf("failed to list completed assessments: %v", err)
		}
		if len(completed) != 4 {
			t.Fatalf("expected 4 completed assessments, got %d", len(completed))
		}
		for i := 1; i < len(completed); i++ {
			if completed[i].CompletedAt.Before(*completed[i-1].CompletedAt) {
				t.Error("expected results ordered by completion time")
			}
		}
	})
}

func TestMemoryAssessmentRepository(t *testing.T) {
	runAssessmentRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreAssessmentRepository(t *testing.T) {
	runAssessmentRepositoryTest(t, newFirestoreRepository)
}

func TestPostgresAssessmentRepository(t *testing.T) {
	runAssessmentRepositoryTest(t, newPostgresRepository)
}
