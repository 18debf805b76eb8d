package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"gorm.io/gorm"
)

type organizationRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;not null"`
	Sector    string `gorm:"size:100"`
	Regional  bool
	CreatedAt time.Time
}

func (organizationRecord) TableName() string {
	return "organizations"
}

func (r *organizationRecord) toModel() *model.Organization {
	return &model.Organization{
		ID:        r.ID,
		Name:      r.Name,
		Sector:    r.Sector,
		Regional:  r.Regional,
		CreatedAt: r.CreatedAt,
	}
}

type organizationRepository struct {
	db *gorm.DB
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	record := &organizationRecord{
		Name:      org.Name,
		Sector:    org.Sector,
		Regional:  org.Regional,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create organization")
	}

	return record.toModel(), nil
}

func (r *organizationRepository) Get(ctx context.Context, id int64) (*model.Organization, error) {
	var record organizationRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "organization not found", goerr.V(model.OrgIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get organization", goerr.V(model.OrgIDKey, id))
	}

	return record.toModel(), nil
}

func (r *organizationRepository) List(ctx context.Context) ([]*model.Organization, error) {
	var records []organizationRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list organizations")
	}

	orgs := make([]*model.Organization, 0, len(records))
	for i := range records {
		orgs = append(orgs, records[i].toModel())
	}

	return orgs, nil
}

func (r *organizationRepository) Count(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&organizationRecord{}).Count(&count).Error; err != nil {
		return 0, goerr.Wrap(err, "failed to count organizations")
	}

	return int(count), nil
}
