package models

import (
	"time"

	"gorm.io/gorm"
)

// Outbound email statuses
const (
	EmailStatusQueued = "queued"
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// OutboundEmail is one attempted send. SequenceID, StepID and EnrollmentID
// are nil for ad-hoc test sends. The rendered subject and body are frozen at
// creation; only the status/sent_at/error_message transition mutates the row.
type OutboundEmail struct {
	gorm.Model
	WorkspaceID  uint  `gorm:"not null;index" json:"workspace_id"`
	ContactID    uint  `gorm:"not null;index" json:"contact_id"`
	SequenceID   *uint `gorm:"index" json:"sequence_id"`
	StepID       *uint `gorm:"index" json:"step_id"`
	EnrollmentID *uint `gorm:"index" json:"enrollment_id"`

	Subject      string     `gorm:"type:text;not null" json:"subject"`
	Body         string     `gorm:"type:text;not null" json:"body"`
	Status       string     `gorm:"default:'queued'" json:"status"` // queued, sent, failed
	SentAt       *time.Time `json:"sent_at"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`

	// Relations
	Workspace Workspace `json:"-"`
	Contact   Contact   `json:"-"`
}
