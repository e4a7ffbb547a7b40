package contact

import "time"

// Message statuses mirror the inbox UI: unread until an admin opens it.
const (
	MessageUnread = "unread"
	MessageRead   = "read"
)

// Message is a contact-form message persisted in the relational store.
type Message struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	SenderID    string    `json:"senderId" gorm:"column:sender_id;index"`
	SenderEmail string    `json:"senderEmail" gorm:"column:sender_email"`
	SenderName  string    `json:"senderName" gorm:"column:sender_name"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Status      string    `json:"status" gorm:"default:unread"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at"`
}

// TableName keeps the table aligned with the hosted backend's schema.
func (Message) TableName() string { return "contact_messages" }
