package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

// Step catalog operations. step_order is assigned server-side as max+1 and
// orders are never reused or renumbered after a delete, so an enrollment's
// last_step_sent stays a stable reference for the rest of its life.

// AddStep appends a step to a sequence.
func (sc *SequenceController) AddStep(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))

	sequence, err := sc.findSequence(workspace.ID, sequenceID)
	if err != nil {
		return utils.Fail(c, err)
	}

	var input struct {
		SubjectTemplate string `json:"subject_template"`
		BodyTemplate    string `json:"body_template"`
		DelayDays       int    `json:"delay_days"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(input.SubjectTemplate) == "" {
		return utils.Fail(c, &utils.ValidationError{Message: "subject_template must not be empty"})
	}
	if strings.TrimSpace(input.BodyTemplate) == "" {
		return utils.Fail(c, &utils.ValidationError{Message: "body_template must not be empty"})
	}
	if input.DelayDays < 0 {
		return utils.Fail(c, &utils.ValidationError{Message: "delay_days must not be negative"})
	}

	var step models.SequenceStep
	err = sc.DB.Transaction(func(tx *gorm.DB) error {
		// Deleted rows are included so their orders are never handed out
		// again.
		var maxOrder int
		if err := tx.Unscoped().Model(&models.SequenceStep{}).
			Where("sequence_id = ?", sequence.ID).
			Select("COALESCE(MAX(step_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		step = models.SequenceStep{
			SequenceID:      sequence.ID,
			StepOrder:       maxOrder + 1,
			SubjectTemplate: input.SubjectTemplate,
			BodyTemplate:    input.BodyTemplate,
			DelayDays:       input.DelayDays,
		}
		return tx.Create(&step).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add step")
	}

	return c.Status(fiber.StatusCreated).JSON(step)
}

// findStep loads a step through its sequence so workspace scoping holds.
func (sc *SequenceController) findStep(workspaceID, sequenceID, stepID uint) (*models.SequenceStep, error) {
	var step models.SequenceStep
	err := sc.DB.
		Joins("JOIN sequences ON sequences.id = sequence_steps.sequence_id AND sequences.deleted_at IS NULL").
		Where("sequence_steps.id = ? AND sequence_steps.sequence_id = ? AND sequences.workspace_id = ?",
			stepID, sequenceID, workspaceID).
		First(&step).Error
	if err != nil {
		return nil, &utils.NotFoundError{Message: "Step not found"}
	}
	return &step, nil
}

// UpdateStep edits a step's templates or delay. A step that a sent email
// already references is frozen.
func (sc *SequenceController) UpdateStep(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))
	stepID := utils.ParseUint(c.Params("stepID"))

	step, err := sc.findStep(workspace.ID, sequenceID, stepID)
	if err != nil {
		return utils.Fail(c, err)
	}

	var sentCount int64
	if err := sc.DB.Model(&models.OutboundEmail{}).
		Where("step_id = ? AND status = ?", step.ID, models.EmailStatusSent).
		Count(&sentCount).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check step usage")
	}
	if sentCount > 0 {
		return utils.Fail(c, &utils.StateError{
			Message: "Step has already been sent and can no longer be edited",
		})
	}

	var input struct {
		SubjectTemplate *string `json:"subject_template"`
		BodyTemplate    *string `json:"body_template"`
		DelayDays       *int    `json:"delay_days"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if input.SubjectTemplate != nil {
		if strings.TrimSpace(*input.SubjectTemplate) == "" {
			return utils.Fail(c, &utils.ValidationError{Message: "subject_template must not be empty"})
		}
		step.SubjectTemplate = *input.SubjectTemplate
	}
	if input.BodyTemplate != nil {
		if strings.TrimSpace(*input.BodyTemplate) == "" {
			return utils.Fail(c, &utils.ValidationError{Message: "body_template must not be empty"})
		}
		step.BodyTemplate = *input.BodyTemplate
	}
	if input.DelayDays != nil {
		if *input.DelayDays < 0 {
			return utils.Fail(c, &utils.ValidationError{Message: "delay_days must not be negative"})
		}
		step.DelayDays = *input.DelayDays
	}

	if err := sc.DB.Save(step).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update step")
	}

	return c.JSON(step)
}

// DeleteStep removes a step. The remaining orders keep their values; the
// scheduler always picks the smallest order greater than last_step_sent, so
// gaps are harmless.
func (sc *SequenceController) DeleteStep(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))
	stepID := utils.ParseUint(c.Params("stepID"))

	step, err := sc.findStep(workspace.ID, sequenceID, stepID)
	if err != nil {
		return utils.Fail(c, err)
	}

	if err := sc.DB.Delete(step).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete step")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
