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

func testFramework(code types.FrameworkCode, version int) *model.Framework {
	return &model.Framework{
		Code:     code,
		Name:     "Test Framework " + string(code),
		Regional: true,
		Version:  version,
		Controls: []model.Control{
			{ID: "c-1-1", Description: "First control", Weight: 3},
			{ID: "c-1-2", Description: "Second control", Weight: 7},
		},
	}
}

func runFrameworkRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put stores framework retrievable by code", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		fw := testFramework("nca-ecc", 1)
		gt.NoError(t, repo.Framework().Put(ctx, fw)).Required()

		retrieved, err := repo.Framework().GetByCode(ctx, "nca-ecc")
		gt.NoError(t, err).Required()

		gt.Value(t, retrieved.Code).Equal(fw.Code)
		gt.Value(t, retrieved.Name).Equal(fw.Name)
		gt.Bool(t, retrieved.Regional).True()
		gt.Value(t, retrieved.Version).Equal(1)
		gt.Array(t, retrieved.Controls).Length(2)
		gt.Value(t, retrieved.Controls[1].ID).Equal(types.ControlID("c-1-2"))
		gt.Value(t, retrieved.Controls[1].Weight).Equal(7.0)
	})

	t.Run("Put replaces framework with the same code", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Framework().Put(ctx, testFramework("nca-ecc", 1))).Required()

		updated := testFramework("nca-ecc", 2)
		updated.Controls = append(updated.Controls, model.Control{
			ID: "c-2-1", Description: "Added control", Weight: 5,
		})
		gt.NoError(t, repo.Framework().Put(ctx, updated)).Required()

		retrieved, err := repo.Framework().GetByCode(ctx, "nca-ecc")
		gt.NoError(t, err).Required()
		gt.Value(t, retrieved.Version).Equal(2)
		gt.Array(t, retrieved.Controls).Length(3)

		count, err := repo.Framework().Count(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(1)
	})

	t.Run("GetByCode returns ErrNotFound for unknown code", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Framework().GetByCode(ctx, "no-such-framework")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("List returns frameworks ordered by code", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		frameworks, err := repo.Framework().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, frameworks).Length(0)

		for _, code := range []types.FrameworkCode{"nca-ecc", "iso-27001", "sama-csf"} {
			gt.NoError(t, repo.Framework().Put(ctx, testFramework(code, 1))).Required()
		}

		frameworks, err = repo.Framework().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, frameworks).Length(3)
		gt.Value(t, frameworks[0].Code).Equal(types.FrameworkCode("iso-27001"))
		gt.Value(t, frameworks[1].Code).Equal(types.FrameworkCode("nca-ecc"))
		gt.Value(t, frameworks[2].Code).Equal(types.FrameworkCode("sama-csf"))
	})

	t.Run("Stored controls are isolated from caller mutation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		fw := testFramework("nca-ecc", 1)
		gt.NoError(t, repo.Framework().Put(ctx, fw)).Required()

		fw.Controls[0].Weight = 999

		retrieved, err := repo.Framework().GetByCode(ctx, "nca-ecc")
		gt.NoError(t, err).Required()
		gt.Value(t, retrieved.Controls[0].Weight).Equal(3.0)

		retrieved.Controls[0].Weight = 555
		again, err := repo.Framework().GetByCode(ctx, "nca-ecc")
		gt.NoError(t, err).Required()
		gt.Value(t, again.Controls[0].Weight).Equal(3.0)
	})
}

func TestMemoryFrameworkRepository(t *testing.T) {
	runFrameworkRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreFrameworkRepository(t *testing.T) {
	runFrameworkRepositoryTest(t, newFirestoreRepository)
}

func TestPostgresFrameworkRepository(t *testing.T) {
	runFrameworkRepositoryTest(t, newPostgresRepository)
}
