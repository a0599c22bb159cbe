package controller

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

type ActivityController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewActivityController(db *gorm.DB, logger *log.Logger) *ActivityController {
	return &ActivityController{
		DB:     db,
		Logger: logger,
	}
}

// ListActivity returns the workspace feed in reverse chronological order,
// each entry with its acting user embedded when one exists.
func (ac *ActivityController) ListActivity(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var entries []models.ActivityLog
	if err := ac.DB.Preload("User").
		Where("workspace_id = ?", workspace.ID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load activity")
	}

	return c.JSON(entries)
}
