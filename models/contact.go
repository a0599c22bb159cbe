package models

import "gorm.io/gorm"

// Contact statuses
const (
	ContactStatusActive       = "active"
	ContactStatusBounced      = "bounced"
	ContactStatusUnsubscribed = "unsubscribed"
)

// Contact is an outbound email target. Email is unique per workspace.
// A contact whose status is not active can neither be enrolled nor advanced.
type Contact struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;index;uniqueIndex:idx_workspace_email" json:"workspace_id"`

	Email     string `gorm:"not null;uniqueIndex:idx_workspace_email" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Title     string `json:"title"`
	Status    string `gorm:"default:'active'" json:"status"` // active, bounced, unsubscribed

	// Relations
	Enrollments    []SequenceEnrollment `gorm:"foreignKey:ContactID" json:"enrollments,omitempty"`
	OutboundEmails []OutboundEmail      `gorm:"foreignKey:ContactID" json:"outbound_emails,omitempty"`
}

// DisplayName returns the contact's human name, falling back to the email.
func (c *Contact) DisplayName() string {
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	if name == "" {
		return c.Email
	}
	return name
}
