// Package repository holds the gorm-backed relational access used by the
// inbox, dashboard and role lookups.
package repository

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/codefyre/backend/internal/model/contact"
	"github.com/codefyre/backend/internal/model/project"
)

// Open connects to the relational backend.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate keeps the schema aligned with the models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&contact.Message{},
		&project.Project{},
		&project.ActivityLog{},
		&UserRole{},
	)
}
