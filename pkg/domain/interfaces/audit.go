package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/model"
)

// AuditLogRepository persists hash-chained audit entries. The contract is
// append-only: no update or delete operation exists.
type AuditLogRepository interface {
	// Append stores a fully formed entry. The caller guarantees sequence
	// ordering per subject.
	Append(ctx context.Context, entry *model.AuditLogEntry) error

	// ListBySubject retrieves all entries for a subject ordered by sequence
	// ascending
	ListBySubject(ctx context.Context, subject model.Subject) ([]*model.AuditLogEntry, error)

	// LastBySubject retrieves the entry with the highest sequence for a
	// subject, or ErrNotFound when the chain is empty
	LastBySubject(ctx context.Context, subject model.Subject) (*model.AuditLogEntry, error)

	// ListSubjects retrieves all subjects that have at least one entry
	ListSubjects(ctx context.Context) ([]model.Subject, error)
}
