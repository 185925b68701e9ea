package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	FullName string `json:"full_name" binding:"required,max=100"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	UserID int64 `json:"user_id"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
	Role        string `json:"role,omitempty"` // 当前租户内角色
	CreatedAt   string `json:"created_at,omitempty"`
}

// UpdateProfileRequest 更新个人资料，字段为空时不修改
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1,max=100"`
	Phone    *string `json:"phone" binding:"omitempty,max=30"`
}

// ChangePasswordRequest 修改密码
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// MembershipInfo 用户在某个酒店的角色
type MembershipInfo struct {
	TenantID int64  `json:"tenant_id"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// ProfileInfo 个人资料
type ProfileInfo struct {
	*UserInfo
	Memberships []MembershipInfo `json:"memberships"`
}
