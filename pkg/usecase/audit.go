package usecase

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/service/ledger"
)

// AuditUseCase exposes the audit trail for inspection and verification
type AuditUseCase struct {
	repo   interfaces.Repository
	ledger *ledger.Ledger
}

func NewAuditUseCase(repo interfaces.Repository, lg *ledger.Ledger) *AuditUseCase {
	return &AuditUseCase{
		repo:   repo,
		ledger: lg,
	}
}

// ListAuditEntries retrieves a subject's chain ordered by sequence
func (uc *AuditUseCase) ListAuditEntries(ctx context.Context, subject model.Subject) ([]*model.AuditLogEntry, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	return uc.repo.Audit().ListBySubject(ctx, subject)
}

// VerifyAudit recomputes a subject's hash chain and reports the first
// mismatch, if any
func (uc *AuditUseCase) VerifyAudit(ctx context.Context, subject model.Subject) (*model.ChainVerification, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	return uc.ledger.VerifyChain(ctx, subject)
}

// VerifyAllAudits verifies every subject chain in the store
func (uc *AuditUseCase) VerifyAllAudits(ctx context.Context) ([]*model.ChainVerification, error) {
	return uc.ledger.VerifyAll(ctx)
}
