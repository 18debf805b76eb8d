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

type riskRecord struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	OrgID      int64  `gorm:"index;not null"`
	Title      string `gorm:"size:255;not null"`
	Category   string `gorm:"size:64;not null"`
	Severity   string `gorm:"size:20;not null"`
	Likelihood string `gorm:"size:20;not null"`
	Owner      string `gorm:"size:255"`
	CreatedAt  time.Time
}

func (riskRecord) TableName() string {
	return "risks"
}

func (r *riskRecord) toModel() *model.Risk {
	return &model.Risk{
		ID:         r.ID,
		OrgID:      r.OrgID,
		Title:      r.Title,
		Category:   types.CategoryID(r.Category),
		Severity:   types.Severity(r.Severity),
		Likelihood: types.Likelihood(r.Likelihood),
		Owner:      r.Owner,
		CreatedAt:  r.CreatedAt,
	}
}

type riskRepository struct {
	db *gorm.DB
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	record := &riskRecord{
		OrgID:      risk.OrgID,
		Title:      risk.Title,
		Category:   risk.Category.String(),
		Severity:   risk.Severity.String(),
		Likelihood: risk.Likelihood.String(),
		Owner:      risk.Owner,
		CreatedAt:  time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create risk")
	}

	return record.toModel(), nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	var record riskRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, id))
	}

	return record.toModel(), nil
}

func (r *riskRepository) List(ctx context.Context, orgID int64) ([]*model.Risk, error) {
	query := r.db.WithContext(ctx)
	if orgID != 0 {
		query = query.Where("org_id = ?", orgID)
	}

	var records []riskRecord
	if err := query.Order("id ASC").Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}

	risks := make([]*model.Risk, 0, len(records))
	for i := range records {
		risks = append(risks, records[i].toModel())
	}

	return risks, nil
}

func (r *riskRepository) Count(ctx context.Context, orgID int64) (int, error) {
	query := r.db.WithContext(ctx).Model(&riskRecord{})
	if orgID != 0 {
		query = query.Where("org_id = ?", orgID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, goerr.Wrap(err, "failed to count risks")
	}

	return int(count), nil
}
