package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/middleware"
	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

type SequenceController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSequenceController(db *gorm.DB, logger *log.Logger) *SequenceController {
	return &SequenceController{
		DB:     db,
		Logger: logger,
	}
}

// findSequence loads a sequence scoped to the workspace. Cross-tenant ids
// read as not found.
func (sc *SequenceController) findSequence(workspaceID, sequenceID uint) (*models.Sequence, error) {
	var sequence models.Sequence
	if err := sc.DB.Where("id = ? AND workspace_id = ?", sequenceID, workspaceID).
		First(&sequence).Error; err != nil {
		return nil, &utils.NotFoundError{Message: "Sequence not found"}
	}
	return &sequence, nil
}

// ListSequences returns the workspace's sequences, newest first.
func (sc *SequenceController) ListSequences(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)

	var sequences []models.Sequence
	if err := sc.DB.Where("workspace_id = ?", workspace.ID).
		Order("created_at DESC").Find(&sequences).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load sequences")
	}

	return c.JSON(sequences)
}

// CreateSequence creates an empty sequence. New sequences accept
// enrollments until deactivated.
func (sc *SequenceController) CreateSequence(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		WorkspaceID uint   `json:"workspace_id" validate:"required"`
		Name        string `json:"name" validate:"required,max=200"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.Fail(c, err)
	}

	if _, err := middleware.ResolveWorkspace(sc.DB, input.WorkspaceID, user.ID); err != nil {
		return utils.Fail(c, err)
	}

	sequence := models.Sequence{
		WorkspaceID: input.WorkspaceID,
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}
	if err := sc.DB.Create(&sequence).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create sequence")
	}

	utils.RecordActivity(sc.DB, sequence.WorkspaceID, &user.ID, models.ActivitySequenceCreated, map[string]interface{}{
		"sequence_id":   sequence.ID,
		"sequence_name": sequence.Name,
	})

	return c.Status(fiber.StatusCreated).JSON(sequence)
}

// GetSequence returns a sequence with its steps ordered by step_order.
func (sc *SequenceController) GetSequence(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))

	var sequence models.Sequence
	if err := sc.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order ASC")
	}).Where("id = ? AND workspace_id = ?", sequenceID, workspace.ID).
		First(&sequence).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Sequence not found"})
	}

	return c.JSON(sequence)
}

// UpdateSequence changes a sequence's name, description, or active flag.
// Deactivation blocks new enrollments but leaves existing ones running.
func (sc *SequenceController) UpdateSequence(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))

	sequence, err := sc.findSequence(workspace.ID, sequenceID)
	if err != nil {
		return utils.Fail(c, err)
	}

	var input struct {
		Name        *string `json:"name" validate:"omitempty,max=200"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.Fail(c, err)
	}

	if input.Name != nil {
		sequence.Name = *input.Name
	}
	if input.Description != nil {
		sequence.Description = *input.Description
	}
	if input.IsActive != nil {
		sequence.IsActive = *input.IsActive
	}

	if err := sc.DB.Save(sequence).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update sequence")
	}

	return c.JSON(sequence)
}

// DeleteSequence removes a sequence and its steps. Enrollments have an
// independent lifecycle: the send worker completes any that are left with
// nothing to send.
func (sc *SequenceController) DeleteSequence(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))

	sequence, err := sc.findSequence(workspace.ID, sequenceID)
	if err != nil {
		return utils.Fail(c, err)
	}

	utils.RecordActivity(sc.DB, workspace.ID, &user.ID, models.ActivitySequenceDeleted, map[string]interface{}{
		"sequence_id":   sequence.ID,
		"sequence_name": sequence.Name,
	})

	err = sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sequence_id = ?", sequence.ID).
			Delete(&models.SequenceStep{}).Error; err != nil {
			return err
		}
		return tx.Delete(sequence).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete sequence")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
