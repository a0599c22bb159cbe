package models

import "gorm.io/gorm"

// Workspace member roles
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Workspace is the tenancy root. Every other entity carries a workspace ID
// and every request is scoped to one workspace.
type Workspace struct {
	gorm.Model
	Name string `gorm:"not null" json:"name"`

	// Relations
	Members   []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	Contacts  []Contact         `gorm:"foreignKey:WorkspaceID" json:"contacts,omitempty"`
	Sequences []Sequence        `gorm:"foreignKey:WorkspaceID" json:"sequences,omitempty"`
}

// WorkspaceMember joins users to workspaces with a role
type WorkspaceMember struct {
	gorm.Model
	WorkspaceID uint   `gorm:"not null;index;uniqueIndex:idx_workspace_user" json:"workspace_id"`
	UserID      uint   `gorm:"not null;index;uniqueIndex:idx_workspace_user" json:"user_id"`
	Role        string `gorm:"default:'member'" json:"role"` // owner, member

	// Relations
	Workspace Workspace `json:"-"`
	User      User      `json:"-"`
}
