package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) conn(ctx context.Context) *gorm.DB {
	return dbtx.GetTxFromContext(ctx, r.db)
}

func (r *TenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	return r.conn(ctx).Create(tenant).Error
}

func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.conn(ctx).Preload("Plan").Where("id = ?", id).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByIDForUpdate 加行锁读取租户（不预加载套餐）
func (r *TenantRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetBySubdomain 不过滤未激活租户，是否放行由订阅守卫判断
func (r *TenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.conn(ctx).Preload("Plan").
		Where("subdomain = ?", subdomain).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByDomain 按自定义域名精确匹配
func (r *TenantRepository) GetByDomain(ctx context.Context, host string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.conn(ctx).Preload("Plan").
		Joins("JOIN domains ON domains.tenant_id = tenants.id").
		Where("domains.domain = ?", host).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.conn(ctx).Model(&model.Tenant{}).Where("id = ?", id).Updates(fields).Error
}

func (r *TenantRepository) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Tenant{}).Where("subdomain = ?", subdomain).Count(&count).Error
	return count > 0, err
}

// ListDueForRenewal 已到期且开启自动续费、保存了支付授权的租户，包括上次扣款被拒的 past_due 租户
func (r *TenantRepository) ListDueForRenewal(ctx context.Context, now time.Time) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := r.conn(ctx).Preload("Plan").
		Scopes(dueForRenewal(now)).
		Order("id ASC").
		Find(&tenants).Error
	return tenants, err
}

// LockDueForRenewal 加行锁后重新确认租户仍需续费，已被其他进程续费时返回 gorm.ErrRecordNotFound
func (r *TenantRepository) LockDueForRenewal(ctx context.Context, id int64, now time.Time) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(dueForRenewal(now)).
		Where("id = ?", id).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func dueForRenewal(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ? AND auto_renew = ? AND plan_id IS NOT NULL", true, true).
			Where("payment_auth_code <> ''").
			Where("subscription_end_date IS NOT NULL AND subscription_end_date <= ?", now)
	}
}

// ListExpiringBetween 未开启自动续费、在 [from, to) 内到期的租户
func (r *TenantRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := r.conn(ctx).
		Where("is_active = ? AND auto_renew = ?", true, false).
		Where("subscription_end_date >= ? AND subscription_end_date < ?", from, to).
		Order("id ASC").
		Find(&tenants).Error
	return tenants, err
}

func (r *TenantRepository) CreateDomain(ctx context.Context, domain *model.Domain) error {
	return r.conn(ctx).Create(domain).Error
}

func (r *TenantRepository) CreatePlan(ctx context.Context, plan *model.Plan) error {
	return r.conn(ctx).Create(plan).Error
}

func (r *TenantRepository) GetPlan(ctx context.Context, id int64) (*model.Plan, error) {
	var plan model.Plan
	err := r.conn(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *TenantRepository) CreateMembership(ctx context.Context, m *model.Membership) error {
	return r.conn(ctx).Create(m).Error
}

func (r *TenantRepository) GetMembership(ctx context.Context, userID, tenantID int64) (*model.Membership, error) {
	var m model.Membership
	err := r.conn(ctx).Where("user_id = ? AND tenant_id = ?", userID, tenantID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembershipsByUser 用户加入的全部租户
func (r *TenantRepository) ListMembershipsByUser(ctx context.Context, userID int64) ([]model.Membership, error) {
	var ms []model.Membership
	err := r.conn(ctx).Where("user_id = ?", userID).Order("tenant_id ASC").Find(&ms).Error
	return ms, err
}

// ListStaffIDs 租户内指定角色的在职成员
func (r *TenantRepository) ListStaffIDs(ctx context.Context, tenantID int64, roles []string) ([]int64, error) {
	var ids []int64
	err := r.conn(ctx).Model(&model.Membership{}).
		Where("tenant_id = ? AND is_active = ? AND role IN ?", tenantID, true, roles).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// NextCounter 锁定计数器行并返回递增后的值，必须在事务中调用
func (r *TenantRepository) NextCounter(ctx context.Context, tenantID int64, name string) (int64, error) {
	conn := r.conn(ctx)

	seed := &model.TenantCounter{TenantID: tenantID, Name: name, Value: 0}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return 0, err
	}

	var counter model.TenantCounter
	err := conn.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&counter).Error
	if err != nil {
		return 0, err
	}

	counter.Value++
	if err := conn.Model(&model.TenantCounter{}).Where("id = ?", counter.ID).
		Update("value", counter.Value).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}
