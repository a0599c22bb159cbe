package utils

import (
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/models"
)

// RecordActivity appends one entry to the workspace activity log. Recording
// must never fail the triggering operation: errors are logged and dropped.
// userID is nil for events raised by the send worker.
func RecordActivity(db *gorm.DB, workspaceID uint, userID *uint, activityType string, payload map[string]interface{}) {
	entry := models.ActivityLog{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Type:        activityType,
		Payload:     payload,
	}

	if err := db.Create(&entry).Error; err != nil {
		LogError(err, "activity_record_failed", map[string]interface{}{
			"workspace_id":  workspaceID,
			"activity_type": activityType,
		})
	}
}
