package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crowdguard/internal/models"

	"go.uber.org/zap"
)

// PostgresUsersRepository 用户仓库（PostgreSQL）
type PostgresUsersRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresUsersRepository 创建用户仓库
func NewPostgresUsersRepository(db *sql.DB, logger *zap.Logger) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, logger: logger}
}

const userColumns = `user_id, name, role, contact, zone_assigned, password_hash`

// ListUsers 返回全部用户
func (r *PostgresUsersRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// GetUser 根据 user_id 获取用户
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateUser 创建用户
func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.UserID, user.Name, string(user.Role), user.Contact, nullString(user.ZoneAssigned), user.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(r.logger, err, "users", user.UserID) {
			return fmt.Errorf("user %s: %w", user.UserID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser 覆盖用户的可变字段
func (r *PostgresUsersRepository) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, role = $3, contact = $4, zone_assigned = $5, password_hash = $6 WHERE user_id = $1`,
		user.UserID, user.Name, string(user.Role), user.Contact, nullString(user.ZoneAssigned), user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectAffected(res, "user", user.UserID)
}

// DeleteUser 删除用户
func (r *PostgresUsersRepository) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectAffected(res, "user", userID)
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u            models.User
		role         string
		zoneAssigned sql.NullString
	)
	if err := row.Scan(&u.UserID, &u.Name, &role, &u.Contact, &zoneAssigned, &u.PasswordHash); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if zoneAssigned.Valid {
		u.ZoneAssigned = &zoneAssigned.String
	}
	return &u, nil
}
