package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type frameworkControl struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

type frameworkRecord struct {
	Code      string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255;not null"`
	Regional  bool
	Version   int    `gorm:"not null"`
	Controls  string `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (frameworkRecord) TableName() string {
	return "frameworks"
}

func (r *frameworkRecord) toModel() (*model.Framework, error) {
	var controls []frameworkControl
	if r.Controls != "" {
		if err := json.Unmarshal([]byte(r.Controls), &controls); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal framework controls", goerr.V(model.FrameworkKey, r.Code))
		}
	}

	fw := &model.Framework{
		Code:     types.FrameworkCode(r.Code),
		Name:     r.Name,
		Regional: r.Regional,
		Version:  r.Version,
		Controls: make([]model.Control, 0, len(controls)),
	}
	for _, c := range controls {
		fw.Controls = append(fw.Controls, model.Control{
			ID:          types.ControlID(c.ID),
			Description: c.Description,
			Weight:      c.Weight,
		})
	}

	return fw, nil
}

type frameworkRepository struct {
	db *gorm.DB
}

func (r *frameworkRepository) Put(ctx context.Context, fw *model.Framework) error {
	controls := make([]frameworkControl, 0, len(fw.Controls))
	for _, c := range fw.Controls {
		controls = append(controls, frameworkControl{
			ID:          c.ID.String(),
			Description: c.Description,
			Weight:      c.Weight,
		})
	}
	raw, err := json.Marshal(controls)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal framework controls", goerr.V(model.FrameworkKey, fw.Code))
	}

	record := &frameworkRecord{
		Code:      fw.Code.String(),
		Name:      fw.Name,
		Regional:  fw.Regional,
		Version:   fw.Version,
		Controls:  string(raw),
		UpdatedAt: time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(record).Error; err != nil {
		return goerr.Wrap(err, "failed to put framework", goerr.V(model.FrameworkKey, fw.Code))
	}

	return nil
}

func (r *frameworkRepository) GetByCode(ctx context.Context, code types.FrameworkCode) (*model.Framework, error) {
	var record frameworkRecord
	if err := r.db.WithContext(ctx).First(&record, "code = ?", code.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "framework not found", goerr.V(model.FrameworkKey, code))
		}
		return nil, goerr.Wrap(err, "failed to get framework", goerr.V(model.FrameworkKey, code))
	}

	return record.toModel()
}

func (r *frameworkRepository) List(ctx context.Context) ([]*model.Framework, error) {
	var records []frameworkRecord
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list frameworks")
	}

	frameworks := make([]*model.Framework, 0, len(records))
	for i := range records {
		fw, err := records[i].toModel()
		if err != nil {
			return nil, err
		}
		frameworks = append(frameworks, fw)
	}

	return frameworks, nil
}

func (r *frameworkRepository) Count(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&frameworkRecord{}).Count(&count).Error; err != nil {
		return 0, goerr.Wrap(err, "failed to count frameworks")
	}

	return int(count), nil
}
