package controller

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/middleware"
	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

type ContactController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewContactController(db *gorm.DB, logger *log.Logger) *ContactController {
	return &ContactController{
		DB:     db,
		Logger: logger,
	}
}

// ListContacts returns the workspace's contacts with optional search and
// status filtering, newest first.
func (cc *ContactController) ListContacts(c *fiber.Ctx) error {
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

	query := cc.DB.Where("workspace_id = ?", workspace.ID)

	if search := c.Query("search"); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(company) LIKE ?",
			term, term, term, term,
		)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var contacts []models.Contact
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&contacts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load contacts")
	}

	return c.JSON(contacts)
}

// CreateContact creates a contact. Email must be unique within the
// workspace.
func (cc *ContactController) CreateContact(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		WorkspaceID uint   `json:"workspace_id" validate:"required"`
		Email       string `json:"email" validate:"required,email"`
		FirstName   string `json:"first_name" validate:"omitempty,max=100"`
		LastName    string `json:"last_name" validate:"omitempty,max=100"`
		Company     string `json:"company" validate:"omitempty,max=200"`
		Title       string `json:"title" validate:"omitempty,max=200"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.Fail(c, err)
	}

	if _, err := middleware.ResolveWorkspace(cc.DB, input.WorkspaceID, user.ID); err != nil {
		return utils.Fail(c, err)
	}

	email := strings.ToLower(input.Email)

	var existing models.Contact
	if err := cc.DB.Where("workspace_id = ? AND email = ?", input.WorkspaceID, email).
		First(&existing).Error; err == nil {
		return utils.Fail(c, &utils.ConflictError{
			Message: "A contact with this email already exists in this workspace",
		})
	}

	contact := models.Contact{
		WorkspaceID: input.WorkspaceID,
		Email:       email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Company:     input.Company,
		Title:       input.Title,
		Status:      models.ContactStatusActive,
	}
	if err := cc.DB.Create(&contact).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create contact")
	}

	utils.RecordActivity(cc.DB, contact.WorkspaceID, &user.ID, models.ActivityContactCreated, map[string]interface{}{
		"contact_id":    contact.ID,
		"contact_email": contact.Email,
		"contact_name":  contact.DisplayName(),
	})

	return c.Status(fiber.StatusCreated).JSON(contact)
}

// GetContact returns a single contact scoped to the workspace.
func (cc *ContactController) GetContact(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	contactID := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := cc.DB.Where("id = ? AND workspace_id = ?", contactID, workspace.ID).
		First(&contact).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Contact not found"})
	}

	return c.JSON(contact)
}

// UpdateContact updates contact fields, including status transitions to
// bounced or unsubscribed.
func (cc *ContactController) UpdateContact(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(*models.Workspace)
	contactID := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := cc.DB.Where("id = ? AND workspace_id = ?", contactID, workspace.ID).
		First(&contact).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Contact not found"})
	}

	var input struct {
		Email     *string `json:"email" validate:"omitempty,email"`
		FirstName *string `json:"first_name" validate:"omitempty,max=100"`
		LastName  *string `json:"last_name" validate:"omitempty,max=100"`
		Company   *string `json:"company" validate:"omitempty,max=200"`
		Title     *string `json:"title" validate:"omitempty,max=200"`
		Status    *string `json:"status" validate:"omitempty,oneof=active bounced unsubscribed"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.Fail(c, err)
	}

	if input.Email != nil {
		email := strings.ToLower(*input.Email)
		var existing models.Contact
		if err := cc.DB.Where("workspace_id = ? AND email = ? AND id <> ?", workspace.ID, email, contact.ID).
			First(&existing).Error; err == nil {
			return utils.Fail(c, &utils.ConflictError{
				Message: "A contact with this email already exists in this workspace",
			})
		}
		contact.Email = email
	}
	if input.FirstName != nil {
		contact.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		contact.LastName = *input.LastName
	}
	if input.Company != nil {
		contact.Company = *input.Company
	}
	if input.Title != nil {
		contact.Title = *input.Title
	}
	if input.Status != nil {
		contact.Status = *input.Status
	}

	if err := cc.DB.Save(&contact).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update contact")
	}

	return c.JSON(contact)
}

// DeleteContact removes a contact from the workspace.
func (cc *ContactController) DeleteContact(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspace := c.Locals("workspace").(*models.Workspace)
	contactID := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := cc.DB.Where("id = ? AND workspace_id = ?", contactID, workspace.ID).
		First(&contact).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Contact not found"})
	}

	// Log before deletion so the payload still has the contact's fields
	utils.RecordActivity(cc.DB, workspace.ID, &user.ID, models.ActivityContactDeleted, map[string]interface{}{
		"contact_id":    contact.ID,
		"contact_email": contact.Email,
	})

	if err := cc.DB.Delete(&contact).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete contact")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
