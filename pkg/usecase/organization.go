package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/service/ledger"
)

type OrganizationUseCase struct {
	repo   interfaces.Repository
	ledger *ledger.Ledger
}

func NewOrganizationUseCase(repo interfaces.Repository, lg *ledger.Ledger) *OrganizationUseCase {
	return &OrganizationUseCase{
		repo:   repo,
		ledger: lg,
	}
}

// CreateOrganization registers an organization and opens its audit chain
func (uc *OrganizationUseCase) CreateOrganization(ctx context.Context, name, sector string, regional bool) (*model.Organization, error) {
	if name == "" {
		return nil, goerr.Wrap(model.ErrValidation, "organization name is required")
	}

	org := &model.Organization{
		Name:     name,
		Sector:   sector,
		Regional: regional,
	}

	created, err := uc.repo.Organization().Create(ctx, org)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create organization")
	}

	subject := model.Subject{Kind: types.SubjectKindOrganization, ID: created.ID}
	if _, err := uc.ledger.Append(ctx, subject, model.ActionCreate, model.ActorFromContext(ctx), map[string]any{
		"name":     created.Name,
		"sector":   created.Sector,
		"regional": created.Regional,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to record organization creation",
			goerr.V(model.OrgIDKey, created.ID))
	}

	return created, nil
}

// GetOrganization retrieves an organization by ID
func (uc *OrganizationUseCase) GetOrganization(ctx context.Context, id int64) (*model.Organization, error) {
	return uc.repo.Organization().Get(ctx, id)
}

// ListOrganizations retrieves all organizations
func (uc *OrganizationUseCase) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	return uc.repo.Organization().List(ctx)
}
