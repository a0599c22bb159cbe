package controller

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/middleware"
	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

type EmailController struct {
	DB     *gorm.DB
	Mailer utils.EmailSender
	Logger *log.Logger
}

func NewEmailController(db *gorm.DB, mailer utils.EmailSender, logger *log.Logger) *EmailController {
	return &EmailController{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
	}
}

// SendTest fires an ad-hoc email outside any sequence: sequence_id and
// step_id stay nil. The recipient contact is created on the fly if the
// workspace doesn't have it yet. Transport failure is recorded on the
// OutboundEmail, not surfaced as a request error.
func (ec *EmailController) SendTest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		WorkspaceID  uint   `json:"workspace_id" validate:"required"`
		ContactEmail string `json:"contact_email" validate:"required,email"`
		Subject      string `json:"subject" validate:"required"`
		Body         string `json:"body" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.Fail(c, err)
	}

	workspace, err := middleware.ResolveWorkspace(ec.DB, input.WorkspaceID, user.ID)
	if err != nil {
		return utils.Fail(c, err)
	}

	email := strings.ToLower(input.ContactEmail)

	// Find or create the contact
	var contact models.Contact
	err = ec.DB.Where("workspace_id = ? AND email = ?", workspace.ID, email).
		First(&contact).Error
	if err == gorm.ErrRecordNotFound {
		contact = models.Contact{
			WorkspaceID: workspace.ID,
			Email:       email,
			Status:      models.ContactStatusActive,
		}
		if err := ec.DB.Create(&contact).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create contact")
		}
	} else if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up contact")
	}

	outbound := models.OutboundEmail{
		WorkspaceID: workspace.ID,
		ContactID:   contact.ID,
		Subject:     input.Subject,
		Body:        input.Body,
		Status:      models.EmailStatusQueued,
	}
	if err := ec.DB.Create(&outbound).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create email record")
	}

	activityType := models.ActivityEmailSent
	sendErr := ec.Mailer.Send(contact.Email, input.Subject, input.Body)
	if sendErr != nil {
		ec.Logger.Printf("Test send to %s failed: %v", contact.Email, sendErr)
		activityType = models.ActivityEmailFailed
		outbound.Status = models.EmailStatusFailed
		outbound.ErrorMessage = sendErr.Error()
		if err := ec.DB.Model(&outbound).Updates(map[string]interface{}{
			"status":        models.EmailStatusFailed,
			"error_message": sendErr.Error(),
		}).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update email record")
		}
	} else {
		now := time.Now().UTC()
		outbound.Status = models.EmailStatusSent
		outbound.SentAt = &now
		if err := ec.DB.Model(&outbound).Updates(map[string]interface{}{
			"status":  models.EmailStatusSent,
			"sent_at": now,
		}).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update email record")
		}
	}

	utils.RecordActivity(ec.DB, workspace.ID, &user.ID, activityType, map[string]interface{}{
		"email_id":      outbound.ID,
		"contact_email": contact.Email,
		"subject":       outbound.Subject,
	})

	return c.Status(fiber.StatusCreated).JSON(outbound)
}
