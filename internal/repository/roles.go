package repository

import (
	"context"

	"gorm.io/gorm"
)

// UserRole is one role grant; a user may hold several.
type UserRole struct {
	UserID string `gorm:"column:user_id;primaryKey"`
	Role   string `gorm:"primaryKey"`
}

// TableName matches the hosted backend's table.
func (UserRole) TableName() string { return "user_roles" }

// RoleRepository answers role lookups for the auth middleware.
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository wraps the database handle.
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// IsAdmin reports whether the user holds the admin role.
func (r *RoleRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&UserRole{}).
		Where("user_id = ? AND role = ?", userID, "admin").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
