package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mikesol/inboxpilot/config"
	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/routes"
	"github.com/mikesol/inboxpilot/utils"
)

type stubMailer struct {
	fail bool
	sent []string
}

func (m *stubMailer) Send(to, subject, body string) error {
	if m.fail {
		return &utils.TransportError{Message: fmt.Sprintf("failed to send email to %s", to)}
	}
	m.sent = append(m.sent, to)
	return nil
}

// env is one fully wired API instance over an in-memory database, with a
// seeded user who owns one workspace.
type env struct {
	t         *testing.T
	app       *fiber.App
	db        *gorm.DB
	mailer    *stubMailer
	user      models.User
	workspace models.Workspace
	token     string
}

func newEnv(t *testing.T) *env {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.MigrateDB(db))

	// The auth middleware reads these globals
	config.DB = db
	config.AppConfig.AuthTokenSecret = "test-secret"
	config.AppConfig.RateLimitTestSend = 1000
	config.AppConfig.Redis.Enabled = false

	e := &env{t: t, db: db, mailer: &stubMailer{}}

	e.user = models.User{
		AuthSubject: "auth0|tester",
		Email:       "tester@example.com",
		FullName:    "Test User",
	}
	require.NoError(t, db.Create(&e.user).Error)

	e.workspace = models.Workspace{Name: "Acme"}
	require.NoError(t, db.Create(&e.workspace).Error)
	require.NoError(t, db.Create(&models.WorkspaceMember{
		WorkspaceID: e.workspace.ID,
		UserID:      e.user.ID,
		Role:        models.RoleOwner,
	}).Error)

	e.token, err = utils.MintToken(e.user.AuthSubject, e.user.Email, e.user.FullName)
	require.NoError(t, err)

	e.app = fiber.New()
	routes.SetupRoutes(e.app, db, e.mailer)

	return e
}

// do sends an authenticated JSON request through the app.
func (e *env) do(method, path string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// detail extracts the error envelope's message.
func detail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	decode(t, resp, &body)
	return body.Detail
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func mintFor(subject, email string) (string, error) {
	return utils.MintToken(subject, email, "")
}

// Seed helpers bypass the API so each test only exercises the handler under
// test.

func (e *env) seedContact(email, status string) models.Contact {
	c := models.Contact{
		WorkspaceID: e.workspace.ID,
		Email:       email,
		FirstName:   "Jordan",
		Status:      status,
	}
	require.NoError(e.t, e.db.Create(&c).Error)
	return c
}

func (e *env) seedSequence(name string, active bool) models.Sequence {
	s := models.Sequence{
		WorkspaceID: e.workspace.ID,
		Name:        name,
		IsActive:    active,
	}
	require.NoError(e.t, e.db.Create(&s).Error)
	return s
}

func (e *env) seedStep(sequenceID uint, order, delayDays int) models.SequenceStep {
	s := models.SequenceStep{
		SequenceID:      sequenceID,
		StepOrder:       order,
		SubjectTemplate: "Hi {{first_name}}",
		BodyTemplate:    "Just checking in",
		DelayDays:       delayDays,
	}
	require.NoError(e.t, e.db.Create(&s).Error)
	return s
}

// otherWorkspace creates a workspace the seeded user is NOT a member of,
// with one contact and one sequence in it.
func (e *env) otherWorkspace() (models.Workspace, models.Contact, models.Sequence) {
	ws := models.Workspace{Name: "Rival Corp"}
	require.NoError(e.t, e.db.Create(&ws).Error)

	c := models.Contact{
		WorkspaceID: ws.ID,
		Email:       "outsider@rival.test",
		Status:      models.ContactStatusActive,
	}
	require.NoError(e.t, e.db.Create(&c).Error)

	s := models.Sequence{WorkspaceID: ws.ID, Name: "Rival sequence", IsActive: true}
	require.NoError(e.t, e.db.Create(&s).Error)

	return ws, c, s
}

func (e *env) wsPath(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...) + fmt.Sprintf("?workspace_id=%d", e.workspace.ID)
}
