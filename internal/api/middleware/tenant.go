package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/pkg/tenancy"
	"github.com/qs3c/hms_go_server/internal/service"
)

const TenantKey = "tenant"

// Tenant 按 Host 绑定租户；未命中的 Host 视为平台请求，不绑定租户
func Tenant(resolver *service.TenantResolver) gin.HandlerFunc {
	log := logger.WithComponent("tenant")
	return func(c *gin.Context) {
		tc, err := resolver.Resolve(c.Request.Context(), c.Request.Host)
		if err != nil {
			log.Error("failed to resolve tenant", "host", c.Request.Host, "error", err)
			response.ServerError(c, "")
			c.Abort()
			return
		}

		if tc != nil {
			c.Request = c.Request.WithContext(tenancy.WithTenant(c.Request.Context(), tc))
			c.Set(TenantKey, tc)
		}
		c.Next()
	}
}

// RequireTenant 租户范围的接口必须通过酒店域名访问
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetTenant(c) == nil {
			response.TenantError(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetTenant 当前请求绑定的租户，平台请求返回 nil
func GetTenant(c *gin.Context) *tenancy.TenantContext {
	v, ok := c.Get(TenantKey)
	if !ok {
		return nil
	}
	tc, _ := v.(*tenancy.TenantContext)
	return tc
}
