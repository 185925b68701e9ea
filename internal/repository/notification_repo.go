package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) conn(ctx context.Context) *gorm.DB {
	return dbtx.GetTxFromContext(ctx, r.db)
}

// Create 写入通知；带去重键且已存在时不写入并返回 false
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) (bool, error) {
	res := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, tenantID, recipientID int64, unreadOnly bool, page, pageSize int) ([]model.Notification, int64, error) {
	q := r.conn(ctx).Model(&model.Notification{}).
		Where("tenant_id = ? AND recipient_id = ?", tenantID, recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Notification
	err := q.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error
	return items, total, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64) (int64, error) {
	res := r.conn(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
