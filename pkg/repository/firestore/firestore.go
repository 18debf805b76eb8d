package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
)

type Firestore struct {
	client       *firestore.Client
	organization *organizationRepository
	framework    *frameworkRepository
	assessment   *assessmentRepository
	risk         *riskRepository
	audit        *auditRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.organization.collectionPrefix = prefix
		f.framework.collectionPrefix = prefix
		f.assessment.collectionPrefix = prefix
		f.risk.collectionPrefix = prefix
		f.audit.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:       client,
		organization: newOrganizationRepository(client),
		framework:    newFrameworkRepository(client),
		assessment:   newAssessmentRepository(client),
		risk:         newRiskRepository(client),
		audit:        newAuditRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Organization() interfaces.OrganizationRepository {
	return f.organization
}

func (f *Firestore) Framework() interfaces.FrameworkRepository {
	return f.framework
}

func (f *Firestore) Assessment() interfaces.AssessmentRepository {
	return f.assessment
}

func (f *Firestore) Risk() interfaces.RiskRepository {
	return f.risk
}

func (f *Firestore) Audit() interfaces.AuditLogRepository {
	return f.audit
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
