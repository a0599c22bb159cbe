package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusStopped   = "stopped"
)

// Sequence is an ordered set of timed email steps. Deactivating a sequence
// blocks new enrollments but does not stop existing ones.
type Sequence struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;index" json:"workspace_id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `json:"is_active"`

	// Relations
	Steps       []SequenceStep       `gorm:"foreignKey:SequenceID" json:"steps,omitempty"`
	Enrollments []SequenceEnrollment `gorm:"foreignKey:SequenceID" json:"enrollments,omitempty"`
}

// SequenceStep is one templated email within a sequence. StepOrder is a
// sparse, monotonically increasing key: new steps get max+1 and deleted
// orders are never reused, so enrollment references stay stable. DelayDays
// is measured from the previous step's send time (from enrollment creation
// for the first step).
type SequenceStep struct {
	gorm.Model
	SequenceID uint `gorm:"not null;index;uniqueIndex:idx_sequence_step_order" json:"sequence_id"`

	StepOrder       int    `gorm:"not null;uniqueIndex:idx_sequence_step_order" json:"step_order"`
	SubjectTemplate string `gorm:"type:text;not null" json:"subject_template"`
	BodyTemplate    string `gorm:"type:text;not null" json:"body_template"`
	DelayDays       int    `gorm:"not null;default:0" json:"delay_days"`

	// Relations
	Sequence Sequence `json:"-"`
}

// Delay converts the step's relative delay to a duration.
func (s *SequenceStep) Delay() time.Duration {
	return time.Duration(s.DelayDays) * 24 * time.Hour
}

// SequenceEnrollment tracks one contact's progress through one sequence.
// At most one active enrollment may exist per (sequence, contact) pair; the
// enroll transaction checks this and the partial unique index enforces it
// against racing enrolls the check cannot see. NextScheduledAt is when the
// step after LastStepSent becomes due, or nil once the enrollment is
// completed or stopped.
type SequenceEnrollment struct {
	gorm.Model
	SequenceID uint `gorm:"not null;index;index:idx_enrollment_pair;uniqueIndex:udx_enrollment_active,where:status = 'active'" json:"sequence_id"`
	ContactID  uint `gorm:"not null;index;index:idx_enrollment_pair;uniqueIndex:udx_enrollment_active" json:"contact_id"`

	Status          string     `gorm:"default:'active';index" json:"status"` // active, completed, stopped
	LastStepSent    *int       `json:"last_step_sent"`
	LastSentAt      *time.Time `json:"last_sent_at"`
	NextScheduledAt *time.Time `gorm:"index" json:"next_scheduled_at"`

	// Relations
	Sequence Sequence `json:"-"`
	Contact  *Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
}
