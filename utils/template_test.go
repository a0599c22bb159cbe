package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikesol/inboxpilot/models"
)

func TestRenderTemplate(t *testing.T) {
	contact := &models.Contact{
		Email:     "jordan@example.com",
		FirstName: "Jordan",
		LastName:  "Reyes",
		Company:   "Example Co",
		Title:     "Head of Ops",
	}

	got := RenderTemplate("Hi {{first_name}}, how are things at {{company}}?", contact)
	assert.Equal(t, "Hi Jordan, how are things at Example Co?", got)

	got = RenderTemplate("{{full_name}} <{{email}}>", contact)
	assert.Equal(t, "Jordan Reyes <jordan@example.com>", got)
}

func TestRenderTemplateUnknownTokens(t *testing.T) {
	contact := &models.Contact{Email: "jordan@example.com"}

	got := RenderTemplate("Your {{discount}} is waiting, {{first_name}}", contact)
	assert.Equal(t, "Your {{discount}} is waiting, ", got)
}

func TestRenderTemplateEmptyFields(t *testing.T) {
	contact := &models.Contact{Email: "jordan@example.com"}

	// DisplayName falls back to the email when no name is set
	got := RenderTemplate("Dear {{full_name}}", contact)
	assert.Equal(t, "Dear jordan@example.com", got)
}
