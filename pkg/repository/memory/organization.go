package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

type organizationRepository struct {
	mu     sync.RWMutex
	orgs   map[int64]*model.Organization
	nextID int64
}

func newOrganizationRepository() *organizationRepository {
	return &organizationRepository{
		orgs:   make(map[int64]*model.Organization),
		nextID: 1,
	}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := &model.Organization{
		ID:        r.nextID,
		Name:      org.Name,
		Sector:    org.Sector,
		Regional:  org.Regional,
		CreatedAt: time.Now().UTC(),
	}
	r.nextID++

	r.orgs[created.ID] = created
	return created.Clone(), nil
}

func (r *organizationRepository) Get(ctx context.Context, id int64) (*model.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, exists := r.orgs[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "organization not found", goerr.V(model.OrgIDKey, id))
	}

	return org.Clone(), nil
}

func (r *organizationRepository) List(ctx context.Context) ([]*model.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orgs := make([]*model.Organization, 0, len(r.orgs))
	for _, org := range r.orgs {
		orgs = append(orgs, org.Clone())
	}
	sort.Slice(orgs, func(i, j int) bool {
		return orgs[i].ID < orgs[j].ID
	})

	return orgs, nil
}

func (r *organizationRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.orgs), nil
}
