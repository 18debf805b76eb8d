package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

type frameworkRepository struct {
	mu         sync.RWMutex
	frameworks map[types.FrameworkCode]*model.Framework
}

func newFrameworkRepository() *frameworkRepository {
	return &frameworkRepository{
		frameworks: make(map[types.FrameworkCode]*model.Framework),
	}
}

func (r *frameworkRepository) Put(ctx context.Context, fw *model.Framework) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frameworks[fw.Code] = fw.Clone()
	return nil
}

func (r *frameworkRepository) GetByCode(ctx context.Context, code types.FrameworkCode) (*model.Framework, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fw, exists := r.frameworks[code]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "framework not found", goerr.V(model.FrameworkKey, code))
	}

	return fw.Clone(), nil
}

func (r *frameworkRepository) List(ctx context.Context) ([]*model.Framework, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	frameworks := make([]*model.Framework, 0, len(r.frameworks))
	for _, fw := range r.frameworks {
		frameworks = append(frameworks, fw.Clone())
	}
	sort.Slice(frameworks, func(i, j int) bool {
		return frameworks[i].Code < frameworks[j].Code
	})

	return frameworks, nil
}

func (r *frameworkRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.frameworks), nil
}
