package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type organizationDocument struct {
	ID        int64     `firestore:"id"`
	Name      string    `firestore:"name"`
	Sector    string    `firestore:"sector"`
	Regional  bool      `firestore:"regional"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (d *organizationDocument) toModel() *model.Organization {
	return &model.Organization{
		ID:        d.ID,
		Name:      d.Name,
		Sector:    d.Sector,
		Regional:  d.Regional,
		CreatedAt: d.CreatedAt,
	}
}

type organizationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newOrganizationRepository(client *firestore.Client) *organizationRepository {
	return &organizationRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *organizationRepository) organizationsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_organizations"
	}
	return "organizations"
}

func (r *organizationRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *organizationRepository) getNextID(ctx context.Context) (int64, error) {
	return nextID(ctx, r.client, r.counterCollection(), "organization_counter")
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	id, err := r.getNextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := &organizationDocument{
		ID:        id,
		Name:      org.Name,
		Sector:    org.Sector,
		Regional:  org.Regional,
		CreatedAt: time.Now().UTC(),
	}

	docRef := r.client.Collection(r.organizationsCollection()).Doc(fmt.Sprintf("%d", id))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create organization")
	}

	return doc.toModel(), nil
}

func (r *organizationRepository) Get(ctx context.Context, id int64) (*model.Organization, error) {
	docRef := r.client.Collection(r.organizationsCollection()).Doc(fmt.Sprintf("%d", id))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "organization not found", goerr.V(model.OrgIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get organization", goerr.V(model.OrgIDKey, id))
	}

	var orgDoc organizationDocument
	if err := doc.DataTo(&orgDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal organization", goerr.V(model.OrgIDKey, id))
	}

	return orgDoc.toModel(), nil
}

func (r *organizationRepository) List(ctx context.Context) ([]*model.Organization, error) {
	iter := r.client.Collection(r.organizationsCollection()).OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var orgs []*model.Organization
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate organizations")
		}

		var orgDoc organizationDocument
		if err := doc.DataTo(&orgDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal organization")
		}

		orgs = append(orgs, orgDoc.toModel())
	}

	return orgs, nil
}

func (r *organizationRepository) Count(ctx context.Context) (int, error) {
	iter := r.client.Collection(r.organizationsCollection()).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count organizations")
		}
		count++
	}

	return count, nil
}
