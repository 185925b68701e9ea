package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/api/middleware"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册；在酒店域名下注册的用户成为该酒店的住客
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "注册成功", resp)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}

// Me 当前用户及其在当前酒店的角色
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c, h.authService)
	if user == nil {
		response.AuthError(c, "")
		return
	}

	info := &dto.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Phone:       user.Phone,
		IsSuperuser: user.IsSuperuser,
	}
	if tc := middleware.GetTenant(c); tc != nil {
		m, err := h.authService.Membership(c.Request.Context(), user.ID, tc.TenantID())
		if err != nil {
			respondError(c, err)
			return
		}
		if m != nil && m.IsActive {
			info.Role = m.Role
		}
	}

	response.Success(c, info)
}
