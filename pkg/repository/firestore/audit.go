package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type auditDocument struct {
	EntryID     string    `firestore:"entry_id"`
	Subject     string    `firestore:"subject"`
	Sequence    int64     `firestore:"sequence"`
	Actor       string    `firestore:"actor"`
	Action      string    `firestore:"action"`
	Payload     string    `firestore:"payload"`
	PayloadHash string    `firestore:"payload_hash"`
	PrevHash    string    `firestore:"prev_hash"`
	EntryHash   string    `firestore:"entry_hash"`
	Timestamp   time.Time `firestore:"timestamp"`
}

func (d *auditDocument) toModel() (*model.AuditLogEntry, error) {
	subject, err := model.ParseSubject(d.Subject)
	if err != nil {
		return nil, goerr.Wrap(err, "broken subject in audit document", goerr.V(model.SubjectKey, d.Subject))
	}
	return &model.AuditLogEntry{
		EntryID:     d.EntryID,
		Subject:     subject,
		Sequence:    d.Sequence,
		Actor:       d.Actor,
		Action:      d.Action,
		Payload:     json.RawMessage(d.Payload),
		PayloadHash: d.PayloadHash,
		PrevHash:    d.PrevHash,
		EntryHash:   d.EntryHash,
		Timestamp:   d.Timestamp,
	}, nil
}

type auditRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAuditRepository(client *firestore.Client) *auditRepository {
	return &auditRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *auditRepository) auditCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_audit_entries"
	}
	return "audit_entries"
}

// Append creates the entry document keyed by "subject_sequence". Create
// rejects an existing document, so a concurrent writer racing on the same
// sequence number cannot silently overwrite chain history.
func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	doc := &auditDocument{
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

	docID := fmt.Sprintf("%s_%d", entry.Subject.String(), entry.Sequence)
	docRef := r.client.Collection(r.auditCollection()).Doc(docID)
	if _, err := docRef.Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
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
	iter := r.client.Collection(r.auditCollection()).
		Where("subject", "==", subject.String()).
		OrderBy("sequence", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var entries []*model.AuditLogEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit entries",
				goerr.V(model.SubjectKey, subject.String()))
		}

		var auditDoc auditDocument
		if err := doc.DataTo(&auditDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal audit entry")
		}

		entry, err := auditDoc.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *auditRepository) LastBySubject(ctx context.Context, subject model.Subject) (*model.AuditLogEntry, error) {
	iter := r.client.Collection(r.auditCollection()).
		Where("subject", "==", subject.String()).
		OrderBy("sequence", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(model.ErrNotFound, "no audit entries for subject",
			goerr.V(model.SubjectKey, subject.String()))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get last audit entry",
			goerr.V(model.SubjectKey, subject.String()))
	}

	var auditDoc auditDocument
	if err := doc.DataTo(&auditDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal audit entry")
	}

	return auditDoc.toModel()
}

func (r *auditRepository) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	iter := r.client.Collection(r.auditCollection()).Documents(ctx)
	defer iter.Stop()

	seen := make(map[string]bool)
	var subjects []model.Subject
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit entries")
		}

		var auditDoc auditDocument
		if err := doc.DataTo(&auditDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal audit entry")
		}

		if seen[auditDoc.Subject] {
			continue
		}
		seen[auditDoc.Subject] = true

		subject, err := model.ParseSubject(auditDoc.Subject)
		if err != nil {
			return nil, goerr.Wrap(err, "broken subject in audit document",
				goerr.V(model.SubjectKey, auditDoc.Subject))
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
