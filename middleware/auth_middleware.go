package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/config"
	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

// Protected validates the identity-provider bearer token and resolves the
// local shadow user, creating it on first sight. The user is stashed in
// c.Locals("user").
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required")
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization format")
		}

		claims, err := utils.ParseBearerToken(tokenParts[1])
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		// Find or create the shadow user for this subject
		var user models.User
		err = config.DB.Where("auth_subject = ?", claims.Subject).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			user = models.User{
				AuthSubject: claims.Subject,
				Email:       claims.Email,
				FullName:    claims.FullName,
			}
			if err := config.DB.Create(&user).Error; err != nil {
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to provision user")
			}
		} else if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up user")
		}

		c.Locals("user", &user)
		c.Locals("userID", user.ID)

		return c.Next()
	}
}

// RequireWorkspace resolves the workspace_id query parameter and verifies
// the current user is a member. Unknown and forbidden workspaces both read
// as not found. The workspace is stashed in c.Locals("workspace").
func RequireWorkspace() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals("user").(*models.User)

		workspaceID := utils.ParseUint(c.Query("workspace_id"))
		if workspaceID == 0 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "workspace_id is required")
		}

		workspace, err := ResolveWorkspace(config.DB, workspaceID, user.ID)
		if err != nil {
			return utils.Fail(c, err)
		}

		c.Locals("workspace", workspace)
		return c.Next()
	}
}

// ResolveWorkspace loads a workspace the user is a member of. Also used by
// handlers that take the workspace id from the request body instead of the
// query string.
func ResolveWorkspace(db *gorm.DB, workspaceID, userID uint) (*models.Workspace, error) {
	var membership models.WorkspaceMember
	if err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&membership).Error; err != nil {
		return nil, &utils.NotFoundError{Message: "Workspace not found"}
	}

	var workspace models.Workspace
	if err := db.First(&workspace, workspaceID).Error; err != nil {
		return nil, &utils.NotFoundError{Message: "Workspace not found"}
	}

	return &workspace, nil
}
