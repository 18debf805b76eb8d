package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

type riskRepository struct {
	mu     sync.RWMutex
	risks  map[int64]*model.Risk
	nextID int64
}

func newRiskRepository() *riskRepository {
	return &riskRepository{
		risks:  make(map[int64]*model.Risk),
		nextID: 1,
	}
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := risk.Clone()
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	r.nextID++

	r.risks[created.ID] = created
	return created.Clone(), nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risk, exists := r.risks[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
	}

	return risk.Clone(), nil
}

func (r *riskRepository) List(ctx context.Context, orgID int64) ([]*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risks := make([]*model.Risk, 0, len(r.risks))
	for _, risk := range r.risks {
		if orgID != 0 && risk.OrgID != orgID {
			continue
		}
		risks = append(risks, risk.Clone())
	}
	sort.Slice(risks, func(i, j int) bool {
		return risks[i].ID < risks[j].ID
	})

	return risks, nil
}

func (r *riskRepository) Count(ctx context.Context, orgID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if orgID == 0 {
		return len(r.risks), nil
	}

	count := 0
	for _, risk := range r.risks {
		if risk.OrgID == orgID {
			count++
		}
	}

	return count, nil
}
