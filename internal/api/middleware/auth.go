package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/jwt"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

const (
	UserIDKey     = "userID"
	UserKey       = "user"
	MembershipKey = "membership"
)

// Auth JWT 认证中间件
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "请提供认证信息")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "认证失败或已过期")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuth 可选认证中间件（不强制要求登录）
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.Next()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err == nil {
			c.Set(UserIDKey, claims.UserID)
		}

		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// CurrentUser 读取当前登录用户，同一请求内只查一次库；未登录或用户已删除时返回 nil
func CurrentUser(c *gin.Context, authService *service.AuthService) *model.User {
	if v, ok := c.Get(UserKey); ok {
		user, _ := v.(*model.User)
		return user
	}

	userID, ok := GetUserID(c)
	if !ok {
		return nil
	}
	user, err := authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return nil
	}
	c.Set(UserKey, user)
	return user
}

// GetMembership RequireCapability 写入的成员关系
func GetMembership(c *gin.Context) *model.Membership {
	v, ok := c.Get(MembershipKey)
	if !ok {
		return nil
	}
	m, _ := v.(*model.Membership)
	return m
}
