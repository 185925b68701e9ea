package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
)

type GymRepository struct {
	db *gorm.DB
}

func NewGymRepository(db *gorm.DB) *GymRepository {
	return &GymRepository{db: db}
}

func (r *GymRepository) conn(ctx context.Context) *gorm.DB {
	return dbtx.GetTxFromContext(ctx, r.db)
}

func (r *GymRepository) GetPlan(ctx context.Context, tenantID, id int64) (*model.GymPlan, error) {
	var p model.GymPlan
	err := r.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GymRepository) CreateMembership(ctx context.Context, m *model.GymMembership) error {
	return r.conn(ctx).Create(m).Error
}

func (r *GymRepository) GetMembership(ctx context.Context, id int64) (*model.GymMembership, error) {
	var m model.GymMembership
	err := r.conn(ctx).Preload("Plan").Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GymRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.conn(ctx).Model(&model.GymMembership{}).Where("id = ?", id).Updates(fields).Error
}
