package models

// Role 用户角色
type Role string

const (
	RoleAdmin           Role = "Admin"
	RoleSecurityOfficer Role = "Security Officer"
	RoleEventOrganizer  Role = "Event Organizer"
)

// User 用户（对应 users 表）
// PasswordHash 永远不会被序列化到响应中
type User struct {
	UserID       string  `json:"user_id" db:"user_id"`
	Name         string  `json:"name" db:"name"`
	Role         Role    `json:"role" db:"role"`
	Contact      string  `json:"contact" db:"contact"`
	ZoneAssigned *string `json:"zone_assigned" db:"zone_assigned"`
	PasswordHash string  `json:"-" db:"password_hash"`
}

// NewUserRequest 创建用户请求（POST /users），password 为明文，仅在入库前哈希
type NewUserRequest struct {
	UserID       string  `json:"user_id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Role         Role    `json:"role" validate:"required,oneof=Admin 'Security Officer' 'Event Organizer'"`
	Contact      string  `json:"contact" validate:"required"`
	ZoneAssigned *string `json:"zone_assigned,omitempty"`
	Password     string  `json:"password" validate:"required"`
}

// UserPatch 用户可修改字段（PUT /users/{id}）
type UserPatch struct {
	Name         *string `json:"name,omitempty"`
	Role         *Role   `json:"role,omitempty" validate:"omitempty,oneof=Admin 'Security Officer' 'Event Organizer'"`
	Contact      *string `json:"contact,omitempty"`
	ZoneAssigned *string `json:"zone_assigned,omitempty"`
	Password     *string `json:"password,omitempty"`
}

// IsEmpty 是否没有任何待修改字段
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Role == nil && p.Contact == nil && p.ZoneAssigned == nil && p.Password == nil
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserProfile 登录成功后返回的用户信息
type UserProfile struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Role         Role    `json:"role"`
	ZoneAssigned *string `json:"zone_assigned"`
}
