// Package project backs the client dashboard: project requests and the
// activity feed derived from them.
package project

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/codefyre/backend/internal/model/identity"
	"github.com/codefyre/backend/internal/model/project"
)

var (
	ErrMissingFields = errors.New("title and project type are required")
	ErrNotAdmin      = errors.New("admin role required")
	ErrInvalidStatus = errors.New("unknown project status")
)

// Repository is the relational access the dashboard needs. An empty ownerID
// on the list calls means "no scoping" (admin view).
type Repository interface {
	InsertProject(ctx context.Context, p *project.Project) error
	GetProject(ctx context.Context, id string) (project.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]project.Project, error)
	SetProjectStatus(ctx context.Context, id string, status project.Status) error
	InsertActivity(ctx context.Context, a *project.ActivityLog) error
	ListActivity(ctx context.Context, ownerID string) ([]project.ActivityLog, error)
}

// CreateInput is the dashboard's new-project form.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ProjectType string `json:"projectType"`
	BudgetRange string `json:"budgetRange"`
	Timeline    string `json:"timeline"`
}

// Service validates dashboard actions and keeps the activity feed in step.
type Service struct {
	repo Repository
}

// NewService wires the dashboard to its repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a new pending project and its "created" activity row.
func (s *Service) Create(ctx context.Context, caller identity.Identity, in CreateInput) (project.Project, error) {
	if in.Title == "" || in.ProjectType == "" {
		return project.Project{}, ErrMissingFields
	}

	now := time.Now().UTC()
	p := project.Project{
		ID:          uuid.NewString(),
		OwnerID:     caller.UID,
		Title:       in.Title,
		Description: in.Description,
		ProjectType: in.ProjectType,
		BudgetRange: in.BudgetRange,
		Timeline:    in.Timeline,
		Status:      project.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertProject(ctx, &p); err != nil {
		return project.Project{}, fmt.Errorf("insert project: %w", err)
	}

	activity := project.ActivityLog{
		ID:        uuid.NewString(),
		OwnerID:   caller.UID,
		ProjectID: p.ID,
		Action:    "Project created",
		Details:   p.Title,
		CreatedAt: now,
	}
	if err := s.repo.InsertActivity(ctx, &activity); err != nil {
		// The project itself landed; a missing feed row is not worth failing
		// the request over.
		log.Printf("[project] activity log insert failed for %s: %v", p.ID, err)
	}
	return p, nil
}

// UpdateStatus walks a project through the dashboard states. Only admins move
// projects; the owner sees the change through their activity feed.
func (s *Service) UpdateStatus(ctx context.Context, caller identity.Identity, projectID string, status project.Status) error {
	if !caller.IsAdmin() {
		return ErrNotAdmin
	}
	if !project.ValidStatus(status) {
		return ErrInvalidStatus
	}

	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if err := s.repo.SetProjectStatus(ctx, projectID, status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	activity := project.ActivityLog{
		ID:        uuid.NewString(),
		OwnerID:   p.OwnerID,
		ProjectID: projectID,
		Action:    "Status changed",
		Details:   string(status),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertActivity(ctx, &activity); err != nil {
		log.Printf("[project] activity log insert failed for %s: %v", projectID, err)
	}
	return nil
}

// List returns the caller's projects, or every project for admins.
func (s *Service) List(ctx context.Context, caller identity.Identity) ([]project.Project, error) {
	if caller.IsAdmin() {
		return s.repo.ListProjects(ctx, "")
	}
	return s.repo.ListProjects(ctx, caller.UID)
}

// Activity returns the caller's activity feed, or the full feed for admins.
func (s *Service) Activity(ctx context.Context, caller identity.Identity) ([]project.ActivityLog, error) {
	if caller.IsAdmin() {
		return s.repo.ListActivity(ctx, "")
	}
	return s.repo.ListActivity(ctx, caller.UID)
}
