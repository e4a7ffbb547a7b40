package project

import "time"

// Status values a project moves through on the client dashboard.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on_hold"
)

// ValidStatus reports whether s is a known dashboard status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusReview, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Project is a client project request tracked on the dashboard.
type Project struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID     string    `json:"ownerId" gorm:"column:owner_id;index"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ProjectType string    `json:"projectType" gorm:"column:project_type"`
	BudgetRange string    `json:"budgetRange" gorm:"column:budget_range"`
	Timeline    string    `json:"timeline"`
	Status      Status    `json:"status" gorm:"default:pending"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// ActivityLog is one dashboard activity feed row.
type ActivityLog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID   string    `json:"ownerId" gorm:"column:owner_id;index"`
	ProjectID string    `json:"projectId" gorm:"column:project_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
}

// TableName matches the hosted backend's table.
func (ActivityLog) TableName() string { return "activity_logs" }
