package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/usecase"
)

func registryFrameworks() []*model.Framework {
	return []*model.Framework{
		{
			Code:     "nca-ecc",
			Name:     "NCA Essential Cybersecurity Controls",
			Regional: true,
			Version:  1,
			Controls: []model.Control{
				{ID: "ecc-1-1-1", Description: "Cybersecurity governance", Weight: 100},
				{ID: "ecc-2-1-1", Description: "Asset management", Weight: 71},
				{ID: "ecc-2-5-1", Description: "Multi factor authentication", Weight: 29},
			},
		},
		{
			Code:    "iso-27001",
			Name:    "ISO/IEC 27001",
			Version: 3,
			Controls: []model.Control{
				{ID: "a-5-1", Description: "Policies for information security", Weight: 10},
				{ID: "a-8-7", Description: "Protection against malware", Weight: 10},
			},
		},
	}
}

func TestSyncRegistry(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	result, err := env.uc.Framework.SyncRegistry(ctx, registryFrameworks())
	gt.NoError(t, err)
	gt.V(t, result).Equal(&usecase.SyncResult{Registered: 2})

	frameworks, err := env.uc.Framework.ListFrameworks(ctx)
	gt.NoError(t, err)
	gt.A(t, frameworks).Length(2)

	fw, err := env.uc.Framework.GetFramework(ctx, "nca-ecc")
	gt.NoError(t, err)
	gt.V(t, fw.Version).Equal(1)
	gt.A(t, fw.Controls).Length(3)
	gt.V(t, fw.TotalWeight()).Equal(200.0)
}

func TestSyncRegistry_SameVersionIsUnchanged(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	_, err := env.uc.Framework.SyncRegistry(ctx, registryFrameworks())
	gt.NoError(t, err)

	result, err := env.uc.Framework.SyncRegistry(ctx, registryFrameworks())
	gt.NoError(t, err)
	gt.V(t, result).Equal(&usecase.SyncResult{Unchanged: 2})
}

func TestSyncRegistry_VersionBumpInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	org := env.seedOrganization(t, "Acme Bank")
	env.controls.SetAll(org.ID, []types.ControlID{"ecc-1-1-1", "ecc-2-1-1"})

	_, err := env.uc.Framework.SyncRegistry(ctx, registryFrameworks())
	gt.NoError(t, err)

	evaluation, err := env.evaluator.Evaluate(ctx, org.ID, "nca-ecc")
	gt.NoError(t, err)
	gt.V(t, evaluation.Score).Equal(85.5)

	// Version 2 narrows the framework to a single satisfied control
	updated := registryFrameworks()
	updated[0].Version = 2
	updated[0].Controls = []model.Control{
		{ID: "ecc-1-1-1", Description: "Cybersecurity governance", Weight: 100},
	}

	result, err := env.uc.Framework.SyncRegistry(ctx, updated)
	gt.NoError(t, err)
	gt.V(t, result).Equal(&usecase.SyncResult{Updated: 1, Unchanged: 1, Invalidated: 1})

	// The next evaluation is computed against the new definition
	evaluation, err = env.evaluator.Evaluate(ctx, org.ID, "nca-ecc")
	gt.NoError(t, err)
	gt.V(t, evaluation.FrameworkVersion).Equal(2)
	gt.V(t, evaluation.Score).Equal(100.0)
}

func TestSyncRegistry_RejectsInvalidFramework(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	broken := registryFrameworks()
	broken[1].Controls[0].Weight = -1

	_, err := env.uc.Framework.SyncRegistry(ctx, broken)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrValidation)).True()

	// The valid framework before the broken one was still registered
	frameworks, err := env.uc.Framework.ListFrameworks(ctx)
	gt.NoError(t, err)
	gt.A(t, frameworks).Length(1)
	gt.V(t, frameworks[0].Code).Equal(types.FrameworkCode("nca-ecc"))
}

func TestGetFramework_Unknown(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	_, err := env.uc.Framework.GetFramework(ctx, "pci-dss")
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrFrameworkNotFound)).True()
}
