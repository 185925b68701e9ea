// Package tenancy 请求级租户上下文，随 context.Context 逐层传递
package tenancy

import (
	"context"
	"errors"
	"time"

	"github.com/qs3c/hms_go_server/internal/model"
)

// ErrNoTenant 当前请求没有绑定租户
var ErrNoTenant = errors.New("tenant not resolved")

// 解析来源
const (
	SourceDomain    = "domain"
	SourceSubdomain = "subdomain"
)

// TenantContext 一次请求解析出的租户绑定
type TenantContext struct {
	Tenant *model.Tenant
	Host   string
	Source string
}

func (tc *TenantContext) TenantID() int64 {
	return tc.Tenant.ID
}

// SubscriptionExpired 订阅到期时间早于 now
func (tc *TenantContext) SubscriptionExpired(now time.Time) bool {
	end := tc.Tenant.SubscriptionEndDate
	return end != nil && end.Before(now)
}

type ctxKey struct{}

// WithTenant 将租户绑定写入 context
func WithTenant(ctx context.Context, tc *TenantContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext 读取租户绑定，未绑定时返回 nil
func FromContext(ctx context.Context) *TenantContext {
	tc, _ := ctx.Value(ctxKey{}).(*TenantContext)
	return tc
}

// Require 租户范围的操作必须有租户绑定
func Require(ctx context.Context) (*TenantContext, error) {
	tc := FromContext(ctx)
	if tc == nil || tc.Tenant == nil {
		return nil, ErrNoTenant
	}
	return tc, nil
}
