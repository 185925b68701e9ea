package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) conn(ctx context.Context) *gorm.DB {
	return dbtx.GetTxFromContext(ctx, r.db)
}

func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	return r.conn(ctx).Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	var b model.Booking
	err := r.conn(ctx).Where("id = ?", id).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Booking, error) {
	var b model.Booking
	err := r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ConflictExists 同一房间上是否存在与 [start, end) 重叠的占用预订
func (r *BookingRepository) ConflictExists(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error) {
	q := r.conn(ctx).Model(&model.Booking{}).
		Where("room_id = ? AND status IN ?", roomID, model.BlockingStatuses).
		Where("check_in < ? AND check_out > ?", end, start)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

// GuestInRoom 房间当前是否有已入住的客人
func (r *BookingRepository) GuestInRoom(ctx context.Context, roomID int64) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Booking{}).
		Where("room_id = ? AND status = ?", roomID, model.BookingCheckedIn).
		Count(&count).Error
	return count > 0, err
}

// TransitionStatus 仅当当前状态属于 from 时才更新，返回受影响行数
func (r *BookingRepository) TransitionStatus(ctx context.Context, id int64, from []string, to string) (int64, error) {
	res := r.conn(ctx).Model(&model.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *BookingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.conn(ctx).Model(&model.Booking{}).Where("id = ?", id).Updates(fields).Error
}

// ListAbandoned 创建早于 cutoff 仍未确认的预订
func (r *BookingRepository) ListAbandoned(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.conn(ctx).
		Where("status = ? AND created_at < ?", model.BookingPending, cutoff).
		Order("id ASC").Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// ListOverdueCheckedIn 已过离店时间仍在住的预订
func (r *BookingRepository) ListOverdueCheckedIn(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.conn(ctx).
		Where("status = ? AND check_out < ?", model.BookingCheckedIn, now).
		Order("id ASC").Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// ListCheckedInEndingBetween 在住且离店时间落在 (from, to] 内的预订
func (r *BookingRepository) ListCheckedInEndingBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.conn(ctx).
		Where("status = ? AND check_out > ? AND check_out <= ?", model.BookingCheckedIn, from, to).
		Order("id ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) ListByTenant(ctx context.Context, tenantID int64, status string, page, pageSize int) ([]model.Booking, int64, error) {
	q := r.conn(ctx).Model(&model.Booking{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []model.Booking
	err := q.Order("check_in DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&bookings).Error
	return bookings, total, err
}
