package service

import (
	"context"
	"errors"
	"fmt"

	"crowdguard/internal/auth"
	"crowdguard/internal/models"
	"crowdguard/internal/repository"

	"go.uber.org/zap"
)

// PasswordHasher 密码哈希
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

var _ PasswordHasher = (*auth.Hasher)(nil)

// UserService 用户服务
type UserService struct {
	users  repository.UsersRepository
	hasher PasswordHasher
	audit  *Auditor
	logger *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(users repository.UsersRepository, hasher PasswordHasher, audit *Auditor, logger *zap.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, audit: audit, logger: logger}
}

// Login 校验用户名（user_id）和密码
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.UserProfile, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrInvalidCredentials, "Invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Warn("Stored password hash is unreadable",
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
		return nil, newError(ErrInvalidCredentials, "Invalid credentials")
	}
	if !ok {
		return nil, newError(ErrInvalidCredentials, "Invalid credentials")
	}

	s.audit.Record(ctx, fmt.Sprintf("User %s logged in", user.Name), user.Name)

	return &models.UserProfile{
		UserID:       user.UserID,
		Name:         user.Name,
		Role:         user.Role,
		ZoneAssigned: user.ZoneAssigned,
	}, nil
}

// ListUsers 全部用户
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser 查询用户
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser 创建用户，密码哈希后入库
func (s *UserService) CreateUser(ctx context.Context, req models.NewUserRequest) (*models.User, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UserID:       req.UserID,
		Name:         req.Name,
		Role:         req.Role,
		Contact:      req.Contact,
		ZoneAssigned: req.ZoneAssigned,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "User ID already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, fmt.Sprintf("User %s created", user.UserID), models.SystemActor)
	return user, nil
}

// UpdateUser 部分更新用户；没有实际变化时返回 ErrNoChange
func (s *UserService) UpdateUser(ctx context.Context, userID string, patch models.UserPatch) error {
	if err := validate(&patch); err != nil {
		return err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return newError(ErrNoChange, "No changes made")
	}

	changed, err := s.applyPatch(user, patch)
	if err != nil {
		return err
	}
	if !changed {
		return newError(ErrNoChange, "No changes made")
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "User not found")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	s.audit.Record(ctx, fmt.Sprintf("User %s updated", userID), models.SystemActor)
	return nil
}

// applyPatch 新密码与原密码相同视为没有变化
func (s *UserService) applyPatch(user *models.User, patch models.UserPatch) (bool, error) {
	changed := false
	if patch.Name != nil && *patch.Name != user.Name {
		user.Name = *patch.Name
		changed = true
	}
	if patch.Role != nil && *patch.Role != user.Role {
		user.Role = *patch.Role
		changed = true
	}
	if patch.Contact != nil && *patch.Contact != user.Contact {
		user.Contact = *patch.Contact
		changed = true
	}
	if patch.ZoneAssigned != nil && (user.ZoneAssigned == nil || *patch.ZoneAssigned != *user.ZoneAssigned) {
		v := *patch.ZoneAssigned
		user.ZoneAssigned = &v
		changed = true
	}
	if patch.Password != nil {
		same, err := s.hasher.Verify(*patch.Password, user.PasswordHash)
		if err != nil || !same {
			hash, err := s.hasher.Hash(*patch.Password)
			if err != nil {
				return false, fmt.Errorf("failed to hash password: %w", err)
			}
			user.PasswordHash = hash
			changed = true
		}
	}
	return changed, nil
}

// DeleteUser 删除用户
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "User not found")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.audit.Record(ctx, fmt.Sprintf("User %s deleted", userID), models.SystemActor)
	return nil
}
