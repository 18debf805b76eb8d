package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

type assessmentRepository struct {
	mu          sync.RWMutex
	assessments map[int64]*model.Assessment
	nextID      int64
}

func newAssessmentRepository() *assessmentRepository {
	return &assessmentRepository{
		assessments: make(map[int64]*model.Assessment),
		nextID:      1,
	}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := assessment.Clone()
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	r.nextID++

	r.assessments[created.ID] = created
	return created.Clone(), nil
}

func (r *assessmentRepository) Get(ctx context.Context, id int64) (*model.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assessment, exists := r.assessments[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "assessment not found", goerr.V(model.AssessmentIDKey, id))
	}

	return assessment.Clone(), nil
}

func (r *assessmentRepository) List(ctx context.Context, orgID int64) ([]*model.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assessments := make([]*model.Assessment, 0, len(r.assessments))
	for _, assessment := range r.assessments {
		if orgID != 0 && assessment.OrgID != orgID {
			continue
		}
		assessments = append(assessments, assessment.Clone())
	}
	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].ID < assessments[j].ID
	})

	return assessments, nil
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.assessments[assessment.ID]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "assessment not found", goerr.V(model.AssessmentIDKey, assessment.ID))
	}

	updated := assessment.Clone()
	updated.CreatedAt = existing.CreatedAt

	r.assessments[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *assessmentRepository) ListCompletedBetween(ctx context.Context, orgID int64, from, to time.Time) ([]*model.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var assessments []*model.Assessment
	for _, assessment := range r.assessments {
		if orgID != 0 && assessment.OrgID != orgID {
			continue
		}
		if assessment.CompletedAt == nil {
			continue
		}
		at := *assessment.CompletedAt
		if at.Before(from) || !at.Before(to) {
			continue
		}
		assessments = append(assessments, assessment.Clone())
	}
	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].CompletedAt.Before(*assessments[j].CompletedAt)
	})

	return assessments, nil
}

func (r *assessmentRepository) Count(ctx context.Context, orgID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if orgID == 0 {
		return len(r.assessments), nil
	}

	count := 0
	for _, assessment := range r.assessments {
		if assessment.OrgID == orgID {
			count++
		}
	}

	return count, nil
}
