package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
	"github.com/mikesol/inboxpilot/worker"
)

type EnrollmentController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewEnrollmentController(db *gorm.DB, logger *log.Logger) *EnrollmentController {
	return &EnrollmentController{
		DB:     db,
		Logger: logger,
	}
}

// EnrollContact enrolls a contact into a sequence. Rejected when the
// sequence is inactive, the contact is not active, or an active enrollment
// for the pair already exists. The uniqueness check and the insert run in
// one transaction so two racing enrolls cannot both succeed.
func (ec *EnrollmentController) EnrollContact(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))

	var input struct {
		ContactID uint `json:"contact_id" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.Fail(c, err)
	}

	var sequence models.Sequence
	if err := ec.DB.Where("id = ? AND workspace_id = ?", sequenceID, workspace.ID).
		First(&sequence).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Sequence not found"})
	}

	var contact models.Contact
	if err := ec.DB.Where("id = ? AND workspace_id = ?", input.ContactID, workspace.ID).
		First(&contact).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Contact not found"})
	}

	if !sequence.IsActive {
		return utils.Fail(c, &utils.StateError{
			Message: "Sequence is not active and cannot accept enrollments",
		})
	}
	if contact.Status != models.ContactStatusActive {
		return utils.Fail(c, &utils.StateError{
			Message: "Contact is " + contact.Status + " and cannot be enrolled",
		})
	}

	var enrollment models.SequenceEnrollment
	txErr := ec.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.SequenceEnrollment
		err := tx.Where("sequence_id = ? AND contact_id = ? AND status = ?",
			sequence.ID, contact.ID, models.EnrollmentStatusActive).
			First(&existing).Error
		if err == nil {
			return &utils.ConflictError{Message: "Contact is already enrolled in this sequence"}
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		// Step 1's delay is measured from enrollment creation.
		var nextScheduled *time.Time
		if first := ec.firstStep(tx, sequence.ID); first != nil {
			t := time.Now().UTC().Add(first.Delay())
			nextScheduled = &t
		}

		enrollment = models.SequenceEnrollment{
			SequenceID:      sequence.ID,
			ContactID:       contact.ID,
			Status:          models.EnrollmentStatusActive,
			NextScheduledAt: nextScheduled,
		}
		return tx.Create(&enrollment).Error
	})
	if txErr != nil {
		return utils.Fail(c, txErr)
	}

	utils.RecordActivity(ec.DB, workspace.ID, &user.ID, models.ActivityContactEnrolled, map[string]interface{}{
		"enrollment_id": enrollment.ID,
		"sequence_id":   sequence.ID,
		"sequence_name": sequence.Name,
		"contact_id":    contact.ID,
		"contact_email": contact.Email,
	})

	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func (ec *EnrollmentController) firstStep(tx *gorm.DB, sequenceID uint) *models.SequenceStep {
	var steps []models.SequenceStep
	if err := tx.Where("sequence_id = ?", sequenceID).Find(&steps).Error; err != nil {
		return nil
	}
	return worker.NextStep(steps, nil)
}

// ListEnrollments returns a sequence's enrollments, newest first, each with
// its contact embedded.
func (ec *EnrollmentController) ListEnrollments(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))

	var sequence models.Sequence
	if err := ec.DB.Where("id = ? AND workspace_id = ?", sequenceID, workspace.ID).
		First(&sequence).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Sequence not found"})
	}

	var enrollments []models.SequenceEnrollment
	if err := ec.DB.Preload("Contact").
		Where("sequence_id = ?", sequence.ID).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load enrollments")
	}

	return c.JSON(enrollments)
}

// StopEnrollment stops an enrollment. Irreversible; completed enrollments
// reject the stop. Guarded by status so a send in flight cannot revive the
// enrollment afterwards.
func (ec *EnrollmentController) StopEnrollment(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	sequenceID := utils.ParseUint(c.Params("id"))
	enrollmentID := utils.ParseUint(c.Params("enrollmentID"))

	var enrollment models.SequenceEnrollment
	err := ec.DB.
		Joins("JOIN sequences ON sequences.id = sequence_enrollments.sequence_id AND sequences.deleted_at IS NULL").
		Where("sequence_enrollments.id = ? AND sequence_enrollments.sequence_id = ? AND sequences.workspace_id = ?",
			enrollmentID, sequenceID, workspace.ID).
		First(&enrollment).Error
	if err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Enrollment not found"})
	}

	if enrollment.Status == models.EnrollmentStatusCompleted {
		return utils.Fail(c, &utils.StateError{
			Message: "Enrollment has already completed and cannot be stopped",
		})
	}

	if err := ec.DB.Model(&enrollment).Updates(map[string]interface{}{
		"status":            models.EnrollmentStatusStopped,
		"next_scheduled_at": nil,
	}).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to stop enrollment")
	}

	enrollment.Status = models.EnrollmentStatusStopped
	enrollment.NextScheduledAt = nil

	return c.JSON(enrollment)
}
