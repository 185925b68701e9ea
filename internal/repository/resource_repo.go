package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
)

// ResourceFilter 可用资源查询的附加条件
type ResourceFilter struct {
	MinCapacity int
	RoomTypeID  int64
}

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) conn(ctx context.Context) *gorm.DB {
	return dbtx.GetTxFromContext(ctx, r.db)
}

func (r *ResourceRepository) CreateRoomType(ctx context.Context, rt *model.RoomType) error {
	return r.conn(ctx).Create(rt).Error
}

func (r *ResourceRepository) CreateRoom(ctx context.Context, room *model.Room) error {
	return r.conn(ctx).Create(room).Error
}

func (r *ResourceRepository) CreateHall(ctx context.Context, hall *model.EventHall) error {
	return r.conn(ctx).Create(hall).Error
}

func (r *ResourceRepository) GetRoom(ctx context.Context, tenantID, id int64) (*model.Room, error) {
	var room model.Room
	err := r.conn(ctx).Preload("RoomType").
		Where("id = ? AND tenant_id = ?", id, tenantID).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// LockRoom 对房间行加排他锁，串行化同一房间上的预订写入
func (r *ResourceRepository) LockRoom(ctx context.Context, tenantID, id int64) (*model.Room, error) {
	var room model.Room
	err := r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", id, tenantID).First(&room).Error
	if err != nil {
		return nil, err
	}

	var rt model.RoomType
	if err := r.conn(ctx).Where("id = ?", room.RoomTypeID).First(&rt).Error; err != nil {
		return nil, err
	}
	room.RoomType = &rt
	return &room, nil
}

func (r *ResourceRepository) UpdateRoomStatus(ctx context.Context, id int64, status string) error {
	return r.conn(ctx).Model(&model.Room{}).Where("id = ?", id).Update("status", status).Error
}

// ListFreeRooms 未维护且在 [start, end) 内没有占用预订的房间
func (r *ResourceRepository) ListFreeRooms(ctx context.Context, tenantID int64, start, end time.Time, f ResourceFilter) ([]model.Room, error) {
	busy := r.conn(ctx).Model(&model.Booking{}).Select("room_id").
		Where("tenant_id = ? AND status IN ?", tenantID, model.BlockingStatuses).
		Where("check_in < ? AND check_out > ?", end, start)

	q := r.conn(ctx).Model(&model.Room{}).Select("rooms.*").
		Joins("JOIN room_types ON room_types.id = rooms.room_type_id").
		Where("rooms.tenant_id = ? AND rooms.status <> ?", tenantID, model.ResourceMaintenance).
		Where("rooms.id NOT IN (?)", busy)
	if f.MinCapacity > 0 {
		q = q.Where("room_types.capacity >= ?", f.MinCapacity)
	}
	if f.RoomTypeID > 0 {
		q = q.Where("rooms.room_type_id = ?", f.RoomTypeID)
	}

	var rooms []model.Room
	err := q.Preload("RoomType").Order("rooms.number ASC").Find(&rooms).Error
	return rooms, err
}

func (r *ResourceRepository) GetHall(ctx context.Context, tenantID, id int64) (*model.EventHall, error) {
	var hall model.EventHall
	err := r.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&hall).Error
	if err != nil {
		return nil, err
	}
	return &hall, nil
}

// LockHall 对会议厅行加排他锁
func (r *ResourceRepository) LockHall(ctx context.Context, tenantID, id int64) (*model.EventHall, error) {
	var hall model.EventHall
	err := r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", id, tenantID).First(&hall).Error
	if err != nil {
		return nil, err
	}
	return &hall, nil
}

func (r *ResourceRepository) UpdateHallStatus(ctx context.Context, id int64, status string) error {
	return r.conn(ctx).Model(&model.EventHall{}).Where("id = ?", id).Update("status", status).Error
}

// ListFreeHalls 启用中、未维护且在 [start, end) 内没有占用预订的会议厅
func (r *ResourceRepository) ListFreeHalls(ctx context.Context, tenantID int64, start, end time.Time, f ResourceFilter) ([]model.EventHall, error) {
	busy := r.conn(ctx).Model(&model.EventBooking{}).Select("hall_id").
		Where("tenant_id = ? AND status IN ?", tenantID, model.BlockingStatuses).
		Where("start_time < ? AND end_time > ?", end, start)

	q := r.conn(ctx).Model(&model.EventHall{}).
		Where("tenant_id = ? AND is_active = ? AND status <> ?", tenantID, true, model.ResourceMaintenance).
		Where("id NOT IN (?)", busy)
	if f.MinCapacity > 0 {
		q = q.Where("capacity >= ?", f.MinCapacity)
	}

	var halls []model.EventHall
	err := q.Order("name ASC").Find(&halls).Error
	return halls, err
}
