package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
	"github.com/secmon-lab/themis/pkg/utils/keylock"
	"github.com/secmon-lab/themis/pkg/utils/metrics"
)

// Ledger appends hash-chained audit entries and verifies chain integrity.
//
// Each subject has its own chain: entry N links to entry N-1 through the
// previous entry hash, and the first entry links to the fixed genesis value.
// A per-subject lock serializes appends so sequence numbers never collide
// under concurrent writers.
type Ledger struct {
	repo    interfaces.AuditLogRepository
	locks   *keylock.KeyLock
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Ledger)

// WithMetrics wires Prometheus collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// WithClock replaces the time source for tests
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func New(repo interfaces.AuditLogRepository, opts ...Option) *Ledger {
	l := &Ledger{
		repo:  repo,
		locks: keylock.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records an action on the subject as the next entry of its chain.
// The transition that triggered the append is not durable until this call
// returns without error.
func (l *Ledger) Append(ctx context.Context, subject model.Subject, action, actor string, payload any) (*model.AuditLogEntry, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to serialize audit payload",
			goerr.V(model.SubjectKey, subject.String()), goerr.V("action", action))
	}

	unlock := l.locks.Lock(subject.String())
	defer unlock()

	sequence := int64(1)
	prevHash := model.GenesisHash
	last, err := l.repo.LastBySubject(ctx, subject)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if last != nil {
		sequence = last.Sequence + 1
		prevHash = last.EntryHash
	}

	entry := &model.AuditLogEntry{
		EntryID:     model.NewEntryID(),
		Subject:     subject,
		Sequence:    sequence,
		Actor:       actor,
		Action:      action,
		Payload:     raw,
		PayloadHash: model.HashPayload(raw),
		PrevHash:    prevHash,
		Timestamp:   l.now().UTC(),
	}
	entry.EntryHash = entry.ComputeHash()

	if err := l.repo.Append(ctx, entry); err != nil {
		return nil, err
	}

	l.metrics.RecordLedgerAppend()
	return entry, nil
}

// VerifyChain recomputes every hash in the subject's chain from the first
// entry and stops at the first mismatch. A mismatch is reported to the
// operator and never repaired automatically; the returned result carries the
// offending sequence number.
func (l *Ledger) VerifyChain(ctx context.Context, subject model.Subject) (*model.ChainVerification, error) {
	entries, err := l.repo.ListBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	result := &model.ChainVerification{
		Subject: subject,
		Entries: len(entries),
		OK:      true,
	}

	prevHash := model.GenesisHash
	var prevSequence int64
	for _, entry := range entries {
		if reason := l.verifyEntry(entry, prevHash, prevSequence); reason != "" {
			seq := entry.Sequence
			result.OK = false
			result.OffendingSequence = &seq
			result.Reason = reason

			l.metrics.RecordIntegrityFailure()
			errutil.Report(ctx, goerr.Wrap(model.ErrAuditIntegrity, reason,
				goerr.V(model.SubjectKey, subject.String()),
				goerr.V(model.SequenceKey, seq)),
				"audit chain verification failed")

			return result, nil
		}

		prevHash = entry.EntryHash
		prevSequence = entry.Sequence
	}

	return result, nil
}

func (l *Ledger) verifyEntry(entry *model.AuditLogEntry, prevHash string, prevSequence int64) string {
	if entry.Sequence != prevSequence+1 {
		return fmt.Sprintf("sequence gap: expected %d, found %d", prevSequence+1, entry.Sequence)
	}
	if entry.PrevHash != prevHash {
		return "previous hash does not match preceding entry"
	}
	if entry.PayloadHash != model.HashPayload(entry.Payload) {
		return "payload does not match its recorded hash"
	}
	if entry.EntryHash != entry.ComputeHash() {
		return "entry hash does not match recomputed chain hash"
	}
	return ""
}

// VerifyAll verifies every subject chain in the store
func (l *Ledger) VerifyAll(ctx context.Context) ([]*model.ChainVerification, error) {
	subjects, err := l.repo.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*model.ChainVerification, 0, len(subjects))
	for _, subject := range subjects {
		result, err := l.VerifyChain(ctx, subject)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}
