package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/repository"
)

type UserService struct {
	userRepo   *repository.UserRepository
	tenantRepo *repository.TenantRepository
}

func NewUserService(userRepo *repository.UserRepository, tenantRepo *repository.TenantRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
	}
}

// GetProfile 获取用户详情及所属酒店
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.ProfileInfo, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

// UpdateProfile 更新用户信息
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.ProfileInfo, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.FullName != nil {
		user.FullName = *req.FullName
		fields["full_name"] = user.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
		fields["phone"] = user.Phone
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}

	return s.buildProfile(ctx, user)
}

// ChangePassword 校验旧密码后更新
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, req.OldPassword) {
		return ErrInvalidCredentials
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": hashed})
}

func (s *UserService) getUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) buildProfile(ctx context.Context, user *model.User) (*dto.ProfileInfo, error) {
	ms, err := s.tenantRepo.ListMembershipsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profile := &dto.ProfileInfo{
		UserInfo:    buildUserInfo(user),
		Memberships: make([]dto.MembershipInfo, 0, len(ms)),
	}
	for _, m := range ms {
		profile.Memberships = append(profile.Memberships, dto.MembershipInfo{
			TenantID: m.TenantID,
			Role:     m.Role,
			IsActive: m.IsActive,
		})
	}
	return profile, nil
}
