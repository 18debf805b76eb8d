package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

type auditRepository struct {
	mu      sync.RWMutex
	entries map[string][]*model.AuditLogEntry
}

func newAuditRepository() *auditRepository {
	return &auditRepository{
		entries: make(map[string][]*model.AuditLogEntry),
	}
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entry.Subject.String()
	chain := r.entries[key]
	if len(chain) > 0 && chain[len(chain)-1].Sequence >= entry.Sequence {
		return goerr.New("sequence must be strictly increasing",
			goerr.V(model.SubjectKey, key),
			goerr.V(model.SequenceKey, entry.Sequence))
	}

	r.entries[key] = append(chain, entry.Clone())
	return nil
}

func (r *auditRepository) ListBySubject(ctx context.Context, subject model.Subject) ([]*model.AuditLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.entries[subject.String()]
	entries := make([]*model.AuditLogEntry, 0, len(chain))
	for _, entry := range chain {
		entries = append(entries, entry.Clone())
	}

	return entries, nil
}

func (r *auditRepository) LastBySubject(ctx context.Context, subject model.Subject) (*model.AuditLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.entries[subject.String()]
	if len(chain) == 0 {
		return nil, goerr.Wrap(model.ErrNotFound, "no audit entries for subject",
			goerr.V(model.SubjectKey, subject.String()))
	}

	return chain[len(chain)-1].Clone(), nil
}

func (r *auditRepository) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subjects := make([]model.Subject, 0, len(r.entries))
	for key := range r.entries {
		subject, err := model.ParseSubject(key)
		if err != nil {
			return nil, goerr.Wrap(err, "broken subject key in store", goerr.V(model.SubjectKey, key))
		}
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Kind != subjects[j].Kind {
			return subjects[i].Kind < subjects[j].Kind
		}
		return subjects[i].ID < subjects[j].ID
	})

	return subjects, nil
}
