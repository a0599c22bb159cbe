package utils

import (
	"strings"

	"github.com/mikesol/inboxpilot/models"
)

// RenderTemplate substitutes {{placeholder}} tokens in a step template with
// the contact's fields. Unknown tokens are left intact, matching the
// contract the AI rewrite capability promises to preserve.
func RenderTemplate(tmpl string, contact *models.Contact) string {
	replacer := strings.NewReplacer(
		"{{first_name}}", contact.FirstName,
		"{{last_name}}", contact.LastName,
		"{{full_name}}", contact.DisplayName(),
		"{{company}}", contact.Company,
		"{{title}}", contact.Title,
		"{{email}}", contact.Email,
	)
	return replacer.Replace(tmpl)
}
