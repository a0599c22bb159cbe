package models

import "gorm.io/gorm"

// User is the local shadow of an identity-provider user. Rows are created
// lazily the first time a bearer token with an unknown subject shows up.
type User struct {
	gorm.Model
	AuthSubject string `gorm:"uniqueIndex;not null" json:"auth_subject"`
	Email       string `gorm:"not null" json:"email"`
	FullName    string `json:"full_name"`

	// Relations
	Memberships []WorkspaceMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}
