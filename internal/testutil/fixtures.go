package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/model"
)

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := next()
	user := &model.User{
		Email:        fmt.Sprintf("test_%d@example.com", n),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		FullName:     fmt.Sprintf("Test User %d", n),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithSuperuser 设置平台超级管理员
func WithSuperuser() func(*model.User) {
	return func(u *model.User) {
		u.IsSuperuser = true
	}
}

// TestPlan 创建测试套餐
func TestPlan(t *testing.T, db *gorm.DB, price int64) *model.Plan {
	t.Helper()

	plan := &model.Plan{
		Name:              fmt.Sprintf("plan-%d", next()),
		Price:             decimal.NewFromInt(price),
		Currency:          "NGN",
		MaxRooms:          50,
		MaxUsers:          10,
		ModuleEvents:      true,
		ModuleGym:         true,
		ModuleRestaurant:  true,
		AllowCustomDomain: true,
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// TestTenant 创建测试租户，默认订阅有效期为 30 天
func TestTenant(t *testing.T, db *gorm.DB, ownerID int64, opts ...func(*model.Tenant)) *model.Tenant {
	t.Helper()

	n := next()
	end := time.Now().UTC().Add(30 * 24 * time.Hour)
	tenant := &model.Tenant{
		Name:                fmt.Sprintf("Tenant %d", n),
		Slug:                fmt.Sprintf("tenant-%d", n),
		Subdomain:           fmt.Sprintf("tenant%d", n),
		OwnerID:             ownerID,
		IsActive:            true,
		SubscriptionStatus:  model.SubscriptionActive,
		SubscriptionEndDate: &end,
		BillingCycle:        model.BillingMonthly,
	}

	for _, opt := range opts {
		opt(tenant)
	}

	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}

	return tenant
}

// WithSubdomain 设置子域名
func WithSubdomain(sub string) func(*model.Tenant) {
	return func(tn *model.Tenant) {
		tn.Subdomain = sub
		tn.Slug = sub
	}
}

// WithTenantName 设置租户名称
func WithTenantName(name string) func(*model.Tenant) {
	return func(tn *model.Tenant) {
		tn.Name = name
	}
}

// WithHotelName 设置酒店名称
func WithHotelName(name string) func(*model.Tenant) {
	return func(tn *model.Tenant) {
		tn.HotelName = name
	}
}

// WithSubscriptionEnd 设置订阅到期时间
func WithSubscriptionEnd(end time.Time) func(*model.Tenant) {
	return func(tn *model.Tenant) {
		tn.SubscriptionEndDate = &end
	}
}

// WithAutoRenew 开启自动续费并设置授权码
func WithAutoRenew(authCode string) func(*model.Tenant) {
	return func(tn *model.Tenant) {
		tn.AutoRenew = true
		tn.PaymentAuthCode = authCode
	}
}

// WithPlan 设置套餐
func WithPlan(planID int64) func(*model.Tenant) {
	return func(tn *model.Tenant) {
		tn.PlanID = &planID
	}
}

// WithBillingCycle 设置计费周期
func WithBillingCycle(cycle string) func(*model.Tenant) {
	return func(tn *model.Tenant) {
		tn.BillingCycle = cycle
	}
}

// TestDomain 绑定自定义域名
func TestDomain(t *testing.T, db *gorm.DB, tenantID int64, domain string) *model.Domain {
	t.Helper()

	d := &model.Domain{TenantID: tenantID, Domain: domain, IsPrimary: true}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("Failed to create test domain: %v", err)
	}
	return d
}

// TestMembership 创建租户成员
func TestMembership(t *testing.T, db *gorm.DB, userID, tenantID int64, role string) *model.Membership {
	t.Helper()

	m := &model.Membership{UserID: userID, TenantID: tenantID, Role: role, IsActive: true}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to create test membership: %v", err)
	}
	return m
}

// TestRoom 创建房型及房间
func TestRoom(t *testing.T, db *gorm.DB, tenantID int64, pricePerNight int64, opts ...func(*model.Room)) *model.Room {
	t.Helper()

	roomType := &model.RoomType{
		TenantID:      tenantID,
		Name:          "Standard Room",
		PricePerNight: decimal.NewFromInt(pricePerNight),
		Capacity:      2,
	}
	if err := db.Create(roomType).Error; err != nil {
		t.Fatalf("Failed to create test room type: %v", err)
	}

	room := &model.Room{
		TenantID:   tenantID,
		RoomTypeID: roomType.ID,
		Number:     fmt.Sprintf("%d", 100+next()),
		Floor:      1,
		Status:     model.ResourceAvailable,
	}

	for _, opt := range opts {
		opt(room)
	}

	if err := db.Create(room).Error; err != nil {
		t.Fatalf("Failed to create test room: %v", err)
	}

	room.RoomType = roomType
	return room
}

// WithRoomStatus 设置房间物理状态
func WithRoomStatus(status string) func(*model.Room) {
	return func(r *model.Room) {
		r.Status = status
	}
}

// TestHall 创建会议厅
func TestHall(t *testing.T, db *gorm.DB, tenantID int64, pricingType string, price int64) *model.EventHall {
	t.Helper()

	hall := &model.EventHall{
		TenantID:    tenantID,
		Name:        fmt.Sprintf("Hall %d", next()),
		Capacity:    200,
		PricingType: pricingType,
		Price:       decimal.NewFromInt(price),
		IsActive:    true,
		Status:      model.ResourceAvailable,
	}
	if err := db.Create(hall).Error; err != nil {
		t.Fatalf("Failed to create test hall: %v", err)
	}
	return hall
}

// TestBooking 直接写入一条预订记录
func TestBooking(t *testing.T, db *gorm.DB, room *model.Room, start, end time.Time, status string, opts ...func(*model.Booking)) *model.Booking {
	t.Helper()

	n := next()
	b := &model.Booking{
		TenantID:       room.TenantID,
		RoomID:         room.ID,
		GuestName:      fmt.Sprintf("Guest %d", n),
		GuestEmail:     fmt.Sprintf("guest_%d@example.com", n),
		CheckIn:        start,
		CheckOut:       end,
		Status:         status,
		TotalPrice:     decimal.NewFromInt(100),
		Reference:      fmt.Sprintf("TST-%d-%06d", start.Year(), n),
		SequenceNumber: n,
	}

	for _, opt := range opts {
		opt(b)
	}

	if err := db.Create(b).Error; err != nil {
		t.Fatalf("Failed to create test booking: %v", err)
	}
	return b
}

// WithBookingUser 关联注册用户
func WithBookingUser(userID int64) func(*model.Booking) {
	return func(b *model.Booking) {
		b.UserID = &userID
	}
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.Booking) {
	return func(b *model.Booking) {
		b.CreatedAt = at
	}
}

// TestInvoice 创建账单
func TestInvoice(t *testing.T, db *gorm.DB, tenantID int64, target model.InvoiceTarget, amount int64, status string) *model.Invoice {
	t.Helper()

	inv := &model.Invoice{
		TenantID: tenantID,
		Amount:   decimal.NewFromInt(amount),
		Currency: "NGN",
		Status:   status,
	}
	inv.SetTarget(target)

	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("Failed to create test invoice: %v", err)
	}
	return inv
}

// TestGymPlan 创建健身套餐
func TestGymPlan(t *testing.T, db *gorm.DB, tenantID int64, price int64, days int) *model.GymPlan {
	t.Helper()

	p := &model.GymPlan{
		TenantID:     tenantID,
		Name:         fmt.Sprintf("Gym %d", next()),
		Price:        decimal.NewFromInt(price),
		DurationDays: days,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to create test gym plan: %v", err)
	}
	return p
}

// TestMenuItem 创建菜品
func TestMenuItem(t *testing.T, db *gorm.DB, tenantID int64, category string, price int64) *model.MenuItem {
	t.Helper()

	item := &model.MenuItem{
		TenantID:    tenantID,
		Name:        fmt.Sprintf("%s item %d", category, next()),
		Price:       decimal.NewFromInt(price),
		Category:    category,
		IsAvailable: true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to create test menu item: %v", err)
	}
	return item
}
