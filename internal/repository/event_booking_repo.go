package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
)

type EventBookingRepository struct {
	db *gorm.DB
}

func NewEventBookingRepository(db *gorm.DB) *EventBookingRepository {
	return &EventBookingRepository{db: db}
}

func (r *EventBookingRepository) conn(ctx context.Context) *gorm.DB {
	return dbtx.GetTxFromContext(ctx, r.db)
}

func (r *EventBookingRepository) Create(ctx context.Context, b *model.EventBooking) error {
	return r.conn(ctx).Create(b).Error
}

func (r *EventBookingRepository) GetByID(ctx context.Context, id int64) (*model.EventBooking, error) {
	var b model.EventBooking
	err := r.conn(ctx).Where("id = ?", id).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *EventBookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.EventBooking, error) {
	var b model.EventBooking
	err := r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ConflictExists 同一会议厅上是否存在与 [start, end) 重叠的占用预订
func (r *EventBookingRepository) ConflictExists(ctx context.Context, hallID int64, start, end time.Time, excludeID int64) (bool, error) {
	q := r.conn(ctx).Model(&model.EventBooking{}).
		Where("hall_id = ? AND status IN ?", hallID, model.BlockingStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *EventBookingRepository) TransitionStatus(ctx context.Context, id int64, from []string, to string) (int64, error) {
	res := r.conn(ctx).Model(&model.EventBooking{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *EventBookingRepository) ListAbandoned(ctx context.Context, cutoff time.Time, limit int) ([]model.EventBooking, error) {
	var bookings []model.EventBooking
	err := r.conn(ctx).
		Where("status = ? AND created_at < ?", model.BookingPending, cutoff).
		Order("id ASC").Limit(limit).
		Find(&bookings).Error
	return bookings, err
}
