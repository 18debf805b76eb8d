package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"gorm.io/gorm"
)

type assessmentRecord struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	OrgID          int64  `gorm:"index;not null"`
	FrameworkCode  string `gorm:"size:64;not null"`
	Type           string `gorm:"size:20;not null"`
	Status         string `gorm:"size:20;not null"`
	AutomatedScore *float64
	FinalScore     *float64
	CreatedAt      time.Time
	CompletedAt    *time.Time `gorm:"index"`
}

func (assessmentRecord) TableName() string {
	return "assessments"
}

func (r *assessmentRecord) toModel() *model.Assessment {
	return &model.Assessment{
		ID:             r.ID,
		OrgID:          r.OrgID,
		FrameworkCode:  types.FrameworkCode(r.FrameworkCode),
		Type:           types.AssessmentType(r.Type),
		Status:         types.AssessmentStatus(r.Status),
		AutomatedScore: r.AutomatedScore,
		FinalScore:     r.FinalScore,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
	}
}

type assessmentRepository struct {
	db *gorm.DB
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	record := &assessmentRecord{
		OrgID:          assessment.OrgID,
		FrameworkCode:  assessment.FrameworkCode.String(),
		Type:           assessment.Type.String(),
		Status:         assessment.Status.String(),
		AutomatedScore: assessment.AutomatedScore,
		FinalScore:     assessment.FinalScore,
		CreatedAt:      time.Now().UTC(),
		CompletedAt:    assessment.CompletedAt,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create assessment")
	}

	return record.toModel(), nil
}

func (r *assessmentRepository) Get(ctx context.Context, id int64) (*model.Assessment, error) {
	var record assessmentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "assessment not found", goerr.V(model.AssessmentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V(model.AssessmentIDKey, id))
	}

	return record.toModel(), nil
}

func (r *assessmentRepository) List(ctx context.Context, orgID int64) ([]*model.Assessment, error) {
	query := r.db.WithContext(ctx)
	if orgID != 0 {
		query = query.Where("org_id = ?", orgID)
	}

	var records []assessmentRecord
	if err := query.Order("id ASC").Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments")
	}

	assessments := make([]*model.Assessment, 0, len(records))
	for i := range records {
		assessments = append(assessments, records[i].toModel())
	}

	return assessments, nil
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	var existing assessmentRecord
	if err := r.db.WithContext(ctx).First(&existing, "id = ?", assessment.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "assessment not found", goerr.V(model.AssessmentIDKey, assessment.ID))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V(model.AssessmentIDKey, assessment.ID))
	}

	updated := &assessmentRecord{
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

	if err := r.db.WithContext(ctx).Save(updated).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to update assessment", goerr.V(model.AssessmentIDKey, assessment.ID))
	}

	return updated.toModel(), nil
}

func (r *assessmentRepository) ListCompletedBetween(ctx context.Context, orgID int64, from, to time.Time) ([]*model.Assessment, error) {
	query := r.db.WithContext(ctx).
		Where("completed_at IS NOT NULL").
		Where("completed_at >= ? AND completed_at < ?", from, to)
	if orgID != 0 {
		query = query.Where("org_id = ?", orgID)
	}

	var records []assessmentRecord
	if err := query.Order("completed_at ASC").Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list completed assessments")
	}

	assessments := make([]*model.Assessment, 0, len(records))
	for i := range records {
		assessments = append(assessments, records[i].toModel())
	}

	return assessments, nil
}

func (r *assessmentRepository) Count(ctx context.Context, orgID int64) (int, error) {
	query := r.db.WithContext(ctx).Model(&assessmentRecord{})
	if orgID != 0 {
		query = query.Where("org_id = ?", orgID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, goerr.Wrap(err, "failed to count assessments")
	}

	return int(count), nil
}
