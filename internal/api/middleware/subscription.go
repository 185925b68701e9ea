package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

// SubscriptionGuard 订阅过期或租户未激活时拦截请求并返回支付页地址
func SubscriptionGuard(subscriptionService *service.SubscriptionService, authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := GetTenant(c)
		if tc == nil {
			c.Next()
			return
		}

		user := CurrentUser(c, authService)
		decision := subscriptionService.CheckAccess(tc, user, c.Request.URL.Path)
		if !decision.Allowed {
			if decision.Reason == service.ReasonTenantInactive {
				response.ErrorWithData(c, response.CodeSubscriptionExpired, "酒店尚未激活，请先完成订阅支付",
					gin.H{"redirect": decision.Redirect, "reason": decision.Reason})
			} else {
				response.SubscriptionExpiredError(c, decision.Redirect)
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
