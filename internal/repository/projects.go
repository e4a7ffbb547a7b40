package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/codefyre/backend/internal/model/project"
)

// ProjectRepository is the gorm-backed dashboard access.
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository wraps the database handle.
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// InsertProject stores a new project.
func (r *ProjectRepository) InsertProject(ctx context.Context, p *project.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetProject returns one project by id.
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (project.Project, error) {
	var p project.Project
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return p, err
}

// SetProjectStatus moves a project to the given dashboard state.
func (r *ProjectRepository) SetProjectStatus(ctx context.Context, id string, status project.Status) error {
	return r.db.WithContext(ctx).
		Model(&project.Project{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

// ListProjects returns projects newest first, scoped to ownerID unless it is
// empty.
func (r *ProjectRepository) ListProjects(ctx context.Context, ownerID string) ([]project.Project, error) {
	var out []project.Project
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	err := q.Find(&out).Error
	return out, err
}

// InsertActivity stores a new activity feed row.
func (r *ProjectRepository) InsertActivity(ctx context.Context, a *project.ActivityLog) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListActivity returns activity rows newest first, scoped to ownerID unless
// it is empty.
func (r *ProjectRepository) ListActivity(ctx context.Context, ownerID string) ([]project.ActivityLog, error) {
	var out []project.ActivityLog
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	err := q.Find(&out).Error
	return out, err
}
