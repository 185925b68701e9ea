package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

// RequireCapability 要求当前用户在当前租户内具备指定能力，需挂在 Auth 之后
func RequireCapability(policy *service.Policy, authService *service.AuthService, capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c, authService)
		if user == nil {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		var membership *model.Membership
		if tc := GetTenant(c); tc != nil {
			m, err := authService.Membership(c.Request.Context(), user.ID, tc.TenantID())
			if err != nil {
				response.ServerError(c, "")
				c.Abort()
				return
			}
			membership = m
		}

		if !policy.Can(user, membership, capability) {
			response.PermissionError(c, "")
			c.Abort()
			return
		}

		c.Set(MembershipKey, membership)
		c.Next()
	}
}
