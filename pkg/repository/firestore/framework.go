package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type controlDocument struct {
	ID          string  `firestore:"id"`
	Description string  `firestore:"description"`
	Weight      float64 `firestore:"weight"`
}

type frameworkDocument struct {
	Code      string            `firestore:"code"`
	Name      string            `firestore:"name"`
	Regional  bool              `firestore:"regional"`
	Version   int               `firestore:"version"`
	Controls  []controlDocument `firestore:"controls"`
	UpdatedAt time.Time         `firestore:"updated_at"`
}

func (d *frameworkDocument) toModel() *model.Framework {
	controls := make([]model.Control, 0, len(d.Controls))
	for _, c := range d.Controls {
		controls = append(controls, model.Control{
			ID:          types.ControlID(c.ID),
			Description: c.Description,
			Weight:      c.Weight,
		})
	}
	return &model.Framework{
		Code:     types.FrameworkCode(d.Code),
		Name:     d.Name,
		Regional: d.Regional,
		Version:  d.Version,
		Controls: controls,
	}
}

type frameworkRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newFrameworkRepository(client *firestore.Client) *frameworkRepository {
	return &frameworkRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *frameworkRepository) frameworksCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_frameworks"
	}
	return "frameworks"
}

func (r *frameworkRepository) Put(ctx context.Context, fw *model.Framework) error {
	controls := make([]controlDocument, 0, len(fw.Controls))
	for _, c := range fw.Controls {
		controls = append(controls, controlDocument{
			ID:          c.ID.String(),
			Description: c.Description,
			Weight:      c.Weight,
		})
	}
	doc := &frameworkDocument{
		Code:      fw.Code.String(),
		Name:      fw.Name,
		Regional:  fw.Regional,
		Version:   fw.Version,
		Controls:  controls,
		UpdatedAt: time.Now().UTC(),
	}

	docRef := r.client.Collection(r.frameworksCollection()).Doc(fw.Code.String())
	if _, err := docRef.Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put framework", goerr.V(model.FrameworkKey, fw.Code))
	}

	return nil
}

func (r *frameworkRepository) GetByCode(ctx context.Context, code types.FrameworkCode) (*model.Framework, error) {
	docRef := r.client.Collection(r.frameworksCollection()).Doc(code.String())
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "framework not found", goerr.V(model.FrameworkKey, code))
		}
		return nil, goerr.Wrap(err, "failed to get framework", goerr.V(model.FrameworkKey, code))
	}

	var fwDoc frameworkDocument
	if err := doc.DataTo(&fwDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal framework", goerr.V(model.FrameworkKey, code))
	}

	return fwDoc.toModel(), nil
}

func (r *frameworkRepository) List(ctx context.Context) ([]*model.Framework, error) {
	iter := r.client.Collection(r.frameworksCollection()).OrderBy("code", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var frameworks []*model.Framework
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate frameworks")
		}

		var fwDoc frameworkDocument
		if err := doc.DataTo(&fwDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal framework")
		}

		frameworks = append(frameworks, fwDoc.toModel())
	}

	return frameworks, nil
}

func (r *frameworkRepository) Count(ctx context.Context) (int, error) {
	iter := r.client.Collection(r.frameworksCollection()).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count frameworks")
		}
		count++
	}

	return count, nil
}
