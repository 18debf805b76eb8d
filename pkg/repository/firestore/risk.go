package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type riskDocument struct {
	ID         int64     `firestore:"id"`
	OrgID      int64     `firestore:"org_id"`
	Title      string    `firestore:"title"`
	Category   string    `firestore:"category"`
	Severity   string    `firestore:"severity"`
	Likelihood string    `firestore:"likelihood"`
	Owner      string    `firestore:"owner"`
	CreatedAt  time.Time `firestore:"created_at"`
}

func (d *riskDocument) toModel() *model.Risk {
	return &model.Risk{
		ID:         d.ID,
		OrgID:      d.OrgID,
		Title:      d.Title,
		Category:   types.CategoryID(d.Category),
		Severity:   types.Severity(d.Severity),
		Likelihood: types.Likelihood(d.Likelihood),
		Owner:      d.Owner,
		CreatedAt:  d.CreatedAt,
	}
}

type riskRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRiskRepository(client *firestore.Client) *riskRepository {
	return &riskRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *riskRepository) risksCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_risks"
	}
	return "risks"
}

func (r *riskRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *riskRepository) getNextID(ctx context.Context) (int64, error) {
	return nextID(ctx, r.client, r.counterCollection(), "risk_counter")
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	id, err := r.getNextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := &riskDocument{
		ID:         id,
		OrgID:      risk.OrgID,
		Title:      risk.Title,
		Category:   risk.Category.String(),
		Severity:   risk.Severity.String(),
		Likelihood: risk.Likelihood.String(),
		Owner:      risk.Owner,
		CreatedAt:  time.Now().UTC(),
	}

	docRef := r.client.Collection(r.risksCollection()).Doc(fmt.Sprintf("%d", id))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create risk")
	}

	return doc.toModel(), nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	docRef := r.client.Collection(r.risksCollection()).Doc(fmt.Sprintf("%d", id))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, id))
	}

	var riskDoc riskDocument
	if err := doc.DataTo(&riskDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V(model.RiskIDKey, id))
	}

	return riskDoc.toModel(), nil
}

func (r *riskRepository) List(ctx context.Context, orgID int64) ([]*model.Risk, error) {
	query := r.client.Collection(r.risksCollection()).Query
	if orgID != 0 {
		query = query.Where("org_id", "==", orgID)
	}

	iter := query.OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var risks []*model.Risk
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risks")
		}

		var riskDoc riskDocument
		if err := doc.DataTo(&riskDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal risk")
		}

		risks = append(risks, riskDoc.toModel())
	}

	return risks, nil
}

func (r *riskRepository) Count(ctx context.Context, orgID int64) (int, error) {
	query := r.client.Collection(r.risksCollection()).Query
	if orgID != 0 {
		query = query.Where("org_id", "==", orgID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count risks")
		}
		count++
	}

	return count, nil
}
