package models

import "gorm.io/gorm"

// Activity event types
const (
	ActivityWorkspaceCreated = "workspace.created"
	ActivityContactCreated   = "contact.created"
	ActivityContactDeleted   = "contact.deleted"
	ActivitySequenceCreated  = "sequence.created"
	ActivitySequenceDeleted  = "sequence.deleted"
	ActivityContactEnrolled  = "contact.enrolled"
	ActivityEmailSent        = "email.sent"
	ActivityEmailFailed      = "email.failed"
)

// ActivityLog is the append-only event feed. Entries are never updated or
// deleted. UserID is nil for events raised by the send worker.
type ActivityLog struct {
	gorm.Model
	WorkspaceID uint  `gorm:"not null;index:idx_activity_workspace_created" json:"workspace_id"`
	UserID      *uint `gorm:"index" json:"user_id"`

	Type    string                 `gorm:"not null" json:"type"`
	Payload map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"payload"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
