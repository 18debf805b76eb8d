package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"gorm.io/gorm"
)

type auditRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	EntryID     string `gorm:"size:64;not null"`
	Subject     string `gorm:"size:128;not null;uniqueIndex:idx_audit_subject_sequence"`
	Sequence    int64  `gorm:"not null;uniqueIndex:idx_audit_subject_sequence"`
	Actor       string `gorm:"size:255;not null"`
	Action      string `gorm:"size:64;not null"`
	Payload     string `gorm:"type:text"`
	PayloadHash string `gorm:"size:128;not null"`
	PrevHash    string `gorm:"size:128;not null"`
	EntryHash   string `gorm:"size:128;not null"`
	Timestamp   time.Time
}

func (auditRecord) TableName() string {
	return "audit_entries"
}

func (r *auditRecord) toModel() (*model.AuditLogEntry, error) {
	subject, err := model.ParseSubject(r.Subject)
	if err != nil {
		return nil, goerr.Wrap(err, "broken subject in audit record", goerr.V(model.SubjectKey, r.Subject))
	}
	return &model.AuditLogEntry{
		EntryID:     r.EntryID,
		Subject:     subject,
		Sequence:    r.Sequence,
		Actor:       r.Actor,
		Action:      r.Action,
		Payload:     json.RawMessage(r.Payload),
		PayloadHash: r.PayloadHash,
		PrevHash:    r.PrevHash,
		EntryHash:   r.EntryHash,
		Timestamp:   r.Timestamp,
	}, nil
}

type auditRepository struct {
	db *gorm.DB
}

// Append inserts the entry. The unique index on (subject, sequence) rejects
// a concurrent writer racing on the same sequence number, so chain history
// cannot be silently overwritten.
func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	record := &auditRecord{
		EntryID:     entry.EntryID,
		Subject:     entry.Subject.String(),
		Sequence:    entry.Sequence,
		Actor:       entry.Actor,
		Action:      entry.Action,
		Payload:     string(entry.Payload),
		PayloadHash: entry.PayloadHash,
		PrevHash:    entry.PrevHash,
		EntryHash:   entry.EntryHash,
		Timestamp:   entry.Timestamp,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return goerr.New("audit entry already exists",
				goerr.V(model.SubjectKey, entry.Subject.String()),
				goerr.V(model.SequenceKey, entry.Sequence))
		}
		return goerr.Wrap(err, "failed to append audit entry",
			goerr.V(model.SubjectKey, entry.Subject.String()),
			goerr.V(model.SequenceKey, entry.Sequence))
	}

	return nil
}

func (r *auditRepository) ListBySubject(ctx context.Context, subject model.Subject) ([]*model.AuditLogEntry, error) {
	var records []auditRecord
	if err := r.db.WithContext(ctx).
		Where("subject = ?", subject.String()).
		Order("sequence ASC").
		Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list audit entries",
			goerr.V(model.SubjectKey, subject.String()))
	}

	entries := make([]*model.AuditLogEntry, 0, len(records))
	for i := range records {
		entry, err := records[i].toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *auditRepository) LastBySubject(ctx context.Context, subject model.Subject) (*model.AuditLogEntry, error) {
	var record auditRecord
	if err := r.db.WithContext(ctx).
		Where("subject = ?", subject.String()).
		Order("sequence DESC").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "no audit entries for subject",
				goerr.V(model.SubjectKey, subject.String()))
		}
		return nil, goerr.Wrap(err, "failed to get last audit entry",
			goerr.V(model.SubjectKey, subject.String()))
	}

	return record.toModel()
}

func (r *auditRepository) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var keys []string
	if err := r.db.WithContext(ctx).
		Model(&auditRecord{}).
		Distinct().
		Pluck("subject", &keys).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list audit subjects")
	}

	subjects := make([]model.Subject, 0, len(keys))
	for _, key := range keys {
		subject, err := model.ParseSubject(key)
		if err != nil {
			return nil, goerr.Wrap(err, "broken subject in audit record", goerr.V(model.SubjectKey, key))
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
