package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/middleware"
	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

type WorkspaceController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewWorkspaceController(db *gorm.DB, logger *log.Logger) *WorkspaceController {
	return &WorkspaceController{
		DB:     db,
		Logger: logger,
	}
}

// GetMe returns the current shadow user and their workspaces with roles.
func (wc *WorkspaceController) GetMe(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var memberships []models.WorkspaceMember
	if err := wc.DB.Preload("Workspace").Where("user_id = ?", user.ID).Find(&memberships).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load workspaces")
	}

	workspaces := make([]fiber.Map, 0, len(memberships))
	for _, m := range memberships {
		workspaces = append(workspaces, fiber.Map{
			"id":         m.Workspace.ID,
			"name":       m.Workspace.Name,
			"created_at": m.Workspace.CreatedAt,
			"role":       m.Role,
		})
	}

	return c.JSON(fiber.Map{
		"user":       user,
		"workspaces": workspaces,
	})
}

// ListWorkspaces returns every workspace the current user is a member of.
func (wc *WorkspaceController) ListWorkspaces(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var memberships []models.WorkspaceMember
	if err := wc.DB.Preload("Workspace").Where("user_id = ?", user.ID).Find(&memberships).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load workspaces")
	}

	workspaces := make([]models.Workspace, 0, len(memberships))
	for _, m := range memberships {
		workspaces = append(workspaces, m.Workspace)
	}

	return c.JSON(workspaces)
}

// CreateWorkspace creates a workspace with the caller as owner.
func (wc *WorkspaceController) CreateWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name string `json:"name" validate:"required,max=200"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.Fail(c, err)
	}

	workspace := models.Workspace{Name: input.Name}

	err := wc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&workspace).Error; err != nil {
			return err
		}
		membership := models.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      user.ID,
			Role:        models.RoleOwner,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create workspace")
	}

	utils.RecordActivity(wc.DB, workspace.ID, &user.ID, models.ActivityWorkspaceCreated, map[string]interface{}{
		"workspace_name": workspace.Name,
	})

	return c.Status(fiber.StatusCreated).JSON(workspace)
}

// GetWorkspace returns workspace details for members.
func (wc *WorkspaceController) GetWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	workspace, err := middleware.ResolveWorkspace(wc.DB, workspaceID, user.ID)
	if err != nil {
		return utils.Fail(c, err)
	}

	return c.JSON(workspace)
}

// UpdateWorkspace renames a workspace. Owner only.
func (wc *WorkspaceController) UpdateWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	var membership models.WorkspaceMember
	if err := wc.DB.Where("workspace_id = ? AND user_id = ?", workspaceID, user.ID).
		First(&membership).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Workspace not found"})
	}
	if membership.Role != models.RoleOwner {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Only workspace owners can update workspace settings")
	}

	var input struct {
		Name string `json:"name" validate:"required,max=200"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.Fail(c, err)
	}

	var workspace models.Workspace
	if err := wc.DB.First(&workspace, workspaceID).Error; err != nil {
		return utils.Fail(c, &utils.NotFoundError{Message: "Workspace not found"})
	}

	workspace.Name = input.Name
	if err := wc.DB.Save(&workspace).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update workspace")
	}

	return c.JSON(workspace)
}
