package service

import (
	"context"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/pkg/tenancy"
	"github.com/qs3c/hms_go_server/internal/repository"
)

// TenantResolver 根据请求 Host 解析租户
type TenantResolver struct {
	tenantRepo *repository.TenantRepository
	reserved   map[string]struct{}
}

func NewTenantResolver(tenantRepo *repository.TenantRepository, platformHost string) *TenantResolver {
	reserved := map[string]struct{}{
		"www":       {},
		"localhost": {},
		"127":       {},
	}
	if label := firstLabel(normalizeHost(platformHost)); label != "" {
		reserved[label] = struct{}{}
	}
	return &TenantResolver{tenantRepo: tenantRepo, reserved: reserved}
}

// Resolve 自定义域名精确匹配优先，其次按子域名查找；都未命中时返回 nil, nil
// 未激活的租户照常解析，由订阅守卫拒绝
func (r *TenantResolver) Resolve(ctx context.Context, host string) (*tenancy.TenantContext, error) {
	h := normalizeHost(host)
	if h == "" {
		return nil, nil
	}

	tenant, err := r.tenantRepo.GetByDomain(ctx, h)
	if err == nil {
		return &tenancy.TenantContext{Tenant: tenant, Host: h, Source: tenancy.SourceDomain}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	label := firstLabel(h)
	if _, ok := r.reserved[label]; ok || label == "" {
		return nil, nil
	}

	tenant, err = r.tenantRepo.GetBySubdomain(ctx, label)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenancy.TenantContext{Tenant: tenant, Host: h, Source: tenancy.SourceSubdomain}, nil
}

// normalizeHost 去掉端口和末尾的点并转小写
func normalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	return strings.TrimSuffix(h, ".")
}

func firstLabel(host string) string {
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[:i]
	}
	return host
}
