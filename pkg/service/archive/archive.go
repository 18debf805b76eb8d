package archive

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/service/ledger"
)

// Bundle is a portable evidence snapshot of audit chains. Every chain is
// verified before inclusion, and the bundle hash covers the serialized
// chains so a recipient can detect truncation or reordering.
type Bundle struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Chains      []SubjectChain `json:"chains"`
	BundleHash  string         `json:"bundle_hash"`
}

// SubjectChain is one subject's full entry sequence plus its chain head
type SubjectChain struct {
	Subject   string        `json:"subject"`
	ChainHead string        `json:"chain_head"`
	Entries   []BundleEntry `json:"entries"`
}

// BundleEntry is the wire form of one audit entry
type BundleEntry struct {
	EntryID     string          `json:"entry_id"`
	Sequence    int64           `json:"sequence"`
	Actor       string          `json:"actor"`
	Action      string          `json:"action"`
	Payload     json.RawMessage `json:"payload"`
	PayloadHash string          `json:"payload_hash"`
	PrevHash    string          `json:"prev_hash"`
	EntryHash   string          `json:"entry_hash"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Exporter builds evidence bundles from the audit store. Export is
// fail-closed: a chain that does not verify aborts the whole bundle.
type Exporter struct {
	repo   interfaces.AuditLogRepository
	ledger *ledger.Ledger
	now    func() time.Time
}

type Option func(*Exporter)

// WithClock replaces the time source for tests
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

func New(repo interfaces.AuditLogRepository, lg *ledger.Ledger, opts ...Option) *Exporter {
	e := &Exporter{
		repo:   repo,
		ledger: lg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build verifies and bundles the chains of the given subjects
func (e *Exporter) Build(ctx context.Context, subjects []model.Subject) (*Bundle, error) {
	bundle := &Bundle{
		GeneratedAt: e.now().UTC(),
		Chains:      make([]SubjectChain, 0, len(subjects)),
	}

	for _, subject := range subjects {
		verification, err := e.ledger.VerifyChain(ctx, subject)
		if err != nil {
			return nil, err
		}
		if !verification.OK {
			return nil, goerr.Wrap(model.ErrAuditIntegrity, "refusing to export unverifiable chain",
				goerr.V(model.SubjectKey, subject.String()),
				goerr.V("reason", verification.Reason))
		}

		entries, err := e.repo.ListBySubject(ctx, subject)
		if err != nil {
			return nil, err
		}

		chain := SubjectChain{
			Subject: subject.String(),
			Entries: make([]BundleEntry, 0, len(entries)),
		}
		for _, entry := range entries {
			chain.Entries = append(chain.Entries, BundleEntry{
				EntryID:     entry.EntryID,
				Sequence:    entry.Sequence,
				Actor:       entry.Actor,
				Action:      entry.Action,
				Payload:     entry.Payload,
				PayloadHash: entry.PayloadHash,
				PrevHash:    entry.PrevHash,
				EntryHash:   entry.EntryHash,
				Timestamp:   entry.Timestamp,
			})
		}
		if len(entries) > 0 {
			chain.ChainHead = entries[len(entries)-1].EntryHash
		} else {
			chain.ChainHead = model.GenesisHash
		}

		bundle.Chains = append(bundle.Chains, chain)
	}

	raw, err := json.Marshal(bundle.Chains)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to serialize bundle chains")
	}
	bundle.BundleHash = model.HashPayload(raw)

	return bundle, nil
}

// BuildAll bundles every subject present in the audit store
func (e *Exporter) BuildAll(ctx context.Context) (*Bundle, error) {
	subjects, err := e.repo.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	return e.Build(ctx, subjects)
}

// WriteFile writes the bundle as indented JSON to the given path
func (e *Exporter) WriteFile(ctx context.Context, bundle *Bundle, path string) error {
	raw, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to serialize bundle")
	}

	if err := os.WriteFile(path, raw, 0600); err != nil {
		return goerr.Wrap(err, "failed to write bundle file", goerr.V("path", path))
	}

	return nil
}
