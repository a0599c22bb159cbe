package controller

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mikesol/inboxpilot/utils"
)

type AIController struct {
	Rewriter *utils.Rewriter
	Logger   *log.Logger
}

func NewAIController(rewriter *utils.Rewriter, logger *log.Logger) *AIController {
	return &AIController{
		Rewriter: rewriter,
		Logger:   logger,
	}
}

// Rewrite improves email copy for a given tone and purpose. Stateless and
// synchronous; the client decides whether to retry.
func (ai *AIController) Rewrite(c *fiber.Ctx) error {
	var input struct {
		Text    string `json:"text"`
		Tone    string `json:"tone"`
		Purpose string `json:"purpose"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if input.Tone == "" {
		input.Tone = "professional"
	}
	if input.Purpose == "" {
		input.Purpose = "cold_outreach"
	}

	if !contains(utils.RewriteTones, input.Tone) {
		return utils.Fail(c, &utils.ValidationError{
			Message: "Invalid tone. Must be one of: " + strings.Join(utils.RewriteTones, ", "),
		})
	}
	if !contains(utils.RewritePurposes, input.Purpose) {
		return utils.Fail(c, &utils.ValidationError{
			Message: "Invalid purpose. Must be one of: " + strings.Join(utils.RewritePurposes, ", "),
		})
	}
	if strings.TrimSpace(input.Text) == "" {
		return utils.Fail(c, &utils.ValidationError{Message: "Text cannot be empty"})
	}

	rewritten, err := ai.Rewriter.Rewrite(c.Context(), input.Text, input.Tone, input.Purpose)
	if err != nil {
		ai.Logger.Printf("Rewrite failed: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to rewrite text")
	}

	return c.JSON(fiber.Map{
		"rewritten": rewritten,
	})
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
