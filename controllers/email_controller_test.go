package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesol/inboxpilot/models"
)

func TestSendTestEmail(t *testing.T) {
	e := newEnv(t)

	resp := e.do(http.MethodPost, "/emails/send-test", map[string]interface{}{
		"workspace_id":  e.workspace.ID,
		"contact_email": "Prospect@Example.com",
		"subject":       "Quick question",
		"body":          "Do you have five minutes this week?",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var email models.OutboundEmail
	decode(t, resp, &email)
	assert.Equal(t, models.EmailStatusSent, email.Status)
	assert.Nil(t, email.SequenceID)
	assert.Nil(t, email.StepID)
	require.NotNil(t, email.SentAt)
	assert.Equal(t, []string{"prospect@example.com"}, e.mailer.sent)

	// The recipient was created as a workspace contact on the fly
	var contact models.Contact
	require.NoError(t, e.db.
		Where("workspace_id = ? AND email = ?", e.workspace.ID, "prospect@example.com").
		First(&contact).Error)
	assert.Equal(t, models.ContactStatusActive, contact.Status)

	var activityCount int64
	require.NoError(t, e.db.Model(&models.ActivityLog{}).
		Where("workspace_id = ? AND type = ?", e.workspace.ID, models.ActivityEmailSent).
		Count(&activityCount).Error)
	assert.EqualValues(t, 1, activityCount)
}

func TestSendTestEmailReusesExistingContact(t *testing.T) {
	e := newEnv(t)
	existing := e.seedContact("prospect@example.com", models.ContactStatusActive)

	resp := e.do(http.MethodPost, "/emails/send-test", map[string]interface{}{
		"workspace_id":  e.workspace.ID,
		"contact_email": "prospect@example.com",
		"subject":       "Quick question",
		"body":          "Ping",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var email models.OutboundEmail
	decode(t, resp, &email)
	assert.Equal(t, existing.ID, email.ContactID)

	var count int64
	require.NoError(t, e.db.Model(&models.Contact{}).
		Where("workspace_id = ?", e.workspace.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSendTestEmailTransportFailure(t *testing.T) {
	e := newEnv(t)
	e.mailer.fail = true

	resp := e.do(http.MethodPost, "/emails/send-test", map[string]interface{}{
		"workspace_id":  e.workspace.ID,
		"contact_email": "prospect@example.com",
		"subject":       "Quick question",
		"body":          "Ping",
	})
	// The attempt is recorded, not surfaced as a request error
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var email models.OutboundEmail
	decode(t, resp, &email)
	assert.Equal(t, models.EmailStatusFailed, email.Status)
	assert.NotEmpty(t, email.ErrorMessage)
	assert.Nil(t, email.SentAt)

	var activityCount int64
	require.NoError(t, e.db.Model(&models.ActivityLog{}).
		Where("workspace_id = ? AND type = ?", e.workspace.ID, models.ActivityEmailFailed).
		Count(&activityCount).Error)
	assert.EqualValues(t, 1, activityCount)
}

func TestSendTestEmailValidation(t *testing.T) {
	e := newEnv(t)

	resp := e.do(http.MethodPost, "/emails/send-test", map[string]interface{}{
		"workspace_id":  e.workspace.ID,
		"contact_email": "not-an-email",
		"subject":       "Hi",
		"body":          "There",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	drain(resp)

	resp = e.do(http.MethodPost, "/emails/send-test", map[string]interface{}{
		"workspace_id":  e.workspace.ID,
		"contact_email": "prospect@example.com",
		"subject":       "",
		"body":          "There",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	drain(resp)
}
