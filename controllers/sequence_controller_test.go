package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

func TestCreateAndGetSequence(t *testing.T) {
	e := newEnv(t)

	resp := e.do(http.MethodPost, "/sequences", map[string]interface{}{
		"workspace_id": e.workspace.ID,
		"name":         "Launch outreach",
		"description":  "Three-touch intro",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var sequence models.Sequence
	decode(t, resp, &sequence)
	assert.Equal(t, "Launch outreach", sequence.Name)
	assert.True(t, sequence.IsActive)

	e.seedStep(sequence.ID, 1, 0)
	e.seedStep(sequence.ID, 2, 3)

	resp = e.do(http.MethodGet, e.wsPath("/sequences/%d", sequence.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Sequence
	decode(t, resp, &got)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, 1, got.Steps[0].StepOrder)
	assert.Equal(t, 2, got.Steps[1].StepOrder)
}

func TestAddStepAssignsNextOrder(t *testing.T) {
	e := newEnv(t)
	sequence := e.seedSequence("Launch outreach", true)

	resp := e.do(http.MethodPost, e.wsPath("/sequences/%d/steps", sequence.ID),
		map[string]interface{}{
			"subject_template": "Hi {{first_name}}",
			"body_template":    "Quick intro",
			"delay_days":       0,
		})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var first models.SequenceStep
	decode(t, resp, &first)
	assert.Equal(t, 1, first.StepOrder)

	resp = e.do(http.MethodPost, e.wsPath("/sequences/%d/steps", sequence.ID),
		map[string]interface{}{
			"subject_template": "Following up",
			"body_template":    "Bumping this",
			"delay_days":       3,
		})
	var second models.SequenceStep
	decode(t, resp, &second)
	assert.Equal(t, 2, second.StepOrder)
}

func TestAddStepValidation(t *testing.T) {
	e := newEnv(t)
	sequence := e.seedSequence("Launch outreach", true)

	cases := []map[string]interface{}{
		{"subject_template": "", "body_template": "Body", "delay_days": 0},
		{"subject_template": "Subject", "body_template": "  ", "delay_days": 0},
		{"subject_template": "Subject", "body_template": "Body", "delay_days": -1},
	}
	for _, body := range cases {
		resp := e.do(http.MethodPost, e.wsPath("/sequences/%d/steps", sequence.ID), body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		drain(resp)
	}
}

func TestDeletedStepOrderIsNotReused(t *testing.T) {
	e := newEnv(t)
	sequence := e.seedSequence("Launch outreach", true)
	e.seedStep(sequence.ID, 1, 0)
	last := e.seedStep(sequence.ID, 2, 3)

	resp := e.do(http.MethodDelete, e.wsPath("/sequences/%d/steps/%d", sequence.ID, last.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	drain(resp)

	resp = e.do(http.MethodPost, e.wsPath("/sequences/%d/steps", sequence.ID),
		map[string]interface{}{
			"subject_template": "One more thing",
			"body_template":    "Closing note",
			"delay_days":       1,
		})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var step models.SequenceStep
	decode(t, resp, &step)
	// Order 2 belonged to the deleted step and stays retired
	assert.Equal(t, 3, step.StepOrder)
}

func TestUpdateStepFrozenAfterSend(t *testing.T) {
	e := newEnv(t)
	contact := e.seedContact("jordan@example.com", models.ContactStatusActive)
	sequence := e.seedSequence("Launch outreach", true)
	step := e.seedStep(sequence.ID, 1, 0)

	body := map[string]interface{}{"subject_template": "Edited"}

	resp := e.do(http.MethodPut, e.wsPath("/sequences/%d/steps/%d", sequence.ID, step.ID), body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	drain(resp)

	require.NoError(t, e.db.Create(&models.OutboundEmail{
		WorkspaceID: e.workspace.ID,
		ContactID:   contact.ID,
		SequenceID:  &sequence.ID,
		StepID:      &step.ID,
		Subject:     "Edited",
		Body:        "Just checking in",
		Status:      models.EmailStatusSent,
		SentAt:      utils.Pointer(step.CreatedAt),
	}).Error)

	resp = e.do(http.MethodPut, e.wsPath("/sequences/%d/steps/%d", sequence.ID, step.ID), body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, detail(t, resp), "no longer be edited")
}

func TestDeleteSequence(t *testing.T) {
	e := newEnv(t)
	sequence := e.seedSequence("Launch outreach", true)
	e.seedStep(sequence.ID, 1, 0)

	resp := e.do(http.MethodDelete, e.wsPath("/sequences/%d", sequence.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	drain(resp)

	resp = e.do(http.MethodGet, e.wsPath("/sequences/%d", sequence.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	drain(resp)

	// Steps went with the sequence
	var stepCount int64
	require.NoError(t, e.db.Model(&models.SequenceStep{}).
		Where("sequence_id = ?", sequence.ID).
		Count(&stepCount).Error)
	assert.EqualValues(t, 0, stepCount)
}

func TestSequenceNotFoundAcrossWorkspaces(t *testing.T) {
	e := newEnv(t)
	_, _, otherSequence := e.otherWorkspace()

	resp := e.do(http.MethodGet, e.wsPath("/sequences/%d", otherSequence.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	drain(resp)
}
