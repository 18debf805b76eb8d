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

type assessmentDocument struct {
	ID             int64      `firestore:"id"`
	OrgID          int64      `firestore:"org_id"`
	FrameworkCode  string     `firestore:"framework_code"`
	Type           string     `firestore:"type"`
	Status         string     `firestore:"status"`
	AutomatedScore *float64   `firestore:"automated_score"`
	FinalScore     *float64   `firestore:"final_score"`
	CreatedAt      time.Time  `firestore:"created_at"`
	CompletedAt    *time.Time `firestore:"completed_at"`
}

func (d *assessmentDocument) toModel() *model.Assessment {
	return &model.Assessment{
		ID:             d.ID,
		OrgID:          d.OrgID,
		FrameworkCode:  types.FrameworkCode(d.FrameworkCode),
		Type:           types.AssessmentType(d.Type),
		Status:         types.AssessmentStatus(d.Status),
		AutomatedScore: d.AutomatedScore,
		FinalScore:     d.FinalScore,
		CreatedAt:      d.CreatedAt,
		CompletedAt:    d.CompletedAt,
	}
}

type assessmentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAssessmentRepository(client *firestore.Client) *assessmentRepository {
	return &assessmentRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *assessmentRepository) assessmentsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_assessments"
	}
	return "assessments"
}

func (r *assessmentRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *assessmentRepository) getNextID(ctx context.Context) (int64, error) {
	return nextID(ctx, r.client, r.counterCollection(), "assessment_counter")
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	id, err := r.getNextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := &assessmentDocument{
		ID:             id,
		OrgID:          assessment.OrgID,
		FrameworkCode:  assessment.FrameworkCode.String(),
		Type:           assessment.Type.String(),
		Status:         assessment.Status.String(),
		AutomatedScore: assessment.AutomatedScore,
		FinalScore:     assessment.FinalScore,
		CreatedAt:      time.Now().UTC(),
		CompletedAt:    assessment.CompletedAt,
	}

	docRef := r.client.Collection(r.assessmentsCollection()).Doc(fmt.Sprintf("%d", id))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create assessment")
	}

	return doc.toModel(), nil
}

func (r *assessmentRepository) Get(ctx context.Context, id int64) (*model.Assessment, error) {
	docRef := r.client.Collection(r.assessmentsCollection()).Doc(fmt.Sprintf("%d", id))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "assessment not found", goerr.V(model.AssessmentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V(model.AssessmentIDKey, id))
	}

	var assessmentDoc assessmentDocument
	if err := doc.DataTo(&assessmentDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal assessment", goerr.V(model.AssessmentIDKey, id))
	}

	return assessmentDoc.toModel(), nil
}

func (r *assessmentRepository) List(ctx context.Context, orgID int64) ([]*model.Assessment, error) {
	query := r.client.Collection(r.assessmentsCollection()).Query
	if orgID != 0 {
		query = query.Where("org_id", "==", orgID)
	}

	iter := query.OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var assessments []*model.Assessment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate assessments")
		}

		var assessmentDoc assessmentDocument
		if err := doc.DataTo(&assessmentDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal assessment")
		}

		assessments = append(assessments, assessmentDoc.toModel())
	}

	return assessments, nil
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	docRef := r.client.Collection(r.assessmentsCollection()).Doc(fmt.Sprintf("%d", assessment.ID))

	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "assessment not found", goerr.V(model.AssessmentIDKey, assessment.ID))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V(model.AssessmentIDKey, assessment.ID))
	}

	var existing assessmentDocument
	if err := doc.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal assessment", goerr.V(model.AssessmentIDKey, assessment.ID))
	}

	updated := &assessmentDocument{
		ID:             existing.ID,
		OrgID:          assessment.OrgID,
		FrameworkCode:  assessment.FrameworkCode.String(),
		Type:           assessment.Type.String(),
		Status:         assessment.Status.String(),
		AutomatedScore: assessment.AutomatedScore,
		FinalScore:     assessment.FinalScore,
		CreatedAt:      existing.CreatedAt,
		CompletedAt:    assessment.CompletedAt,
	}

	if _, err := docRef.Set(ctx, updated); err != nil {
		return nil, goerr.Wrap(err, "failed to update assessment", goerr.V(model.AssessmentIDKey, assessment.ID))
	}

	return updated.toModel(), nil
}

func (r *assessmentRepository) ListCompletedBetween(ctx context.Context, orgID int64, from, to time.Time) ([]*model.Assessment, error) {
	query := r.client.Collection(r.assessmentsCollection()).Query
	if orgID != 0 {
		query = query.Where("org_id", "==", orgID)
	}

	iter := query.
		Where("completed_at", ">=", from).
		Where("completed_at", "<", to).
		OrderBy("completed_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var assessments []*model.Assessment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate completed assessments")
		}

		var assessmentDoc assessmentDocument
		if err := doc.DataTo(&assessmentDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal assessment")
		}

		assessments = append(assessments, assessmentDoc.toModel())
	}

	return assessments, nil
}

func (r *assessmentRepository) Count(ctx context.Context, orgID int64) (int, error) {
	query := r.client.Collection(r.assessmentsCollection()).Query
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
			return 0, goerr.Wrap(err, "failed to count assessments")
		}
		count++
	}

	return count, nil
}
