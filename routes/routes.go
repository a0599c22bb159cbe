package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "github.com/mikesol/inboxpilot/controllers"
	"github.com/mikesol/inboxpilot/middleware"
	"github.com/mikesol/inboxpilot/utils"
)

// SetupRoutes wires the full API surface. Everything except the health
// check sits behind bearer auth; workspace-scoped groups additionally
// resolve and authorize the workspace_id query parameter.
func SetupRoutes(app *fiber.App, db *gorm.DB, mailer utils.EmailSender) {
	workspaceController := controller.NewWorkspaceController(db, log.New(os.Stdout, "WORKSPACE: ", log.LstdFlags))
	contactController := controller.NewContactController(db, log.New(os.Stdout, "CONTACT: ", log.LstdFlags))
	sequenceController := controller.NewSequenceController(db, log.New(os.Stdout, "SEQUENCE: ", log.LstdFlags))
	enrollmentController := controller.NewEnrollmentController(db, log.New(os.Stdout, "ENROLLMENT: ", log.LstdFlags))
	emailController := controller.NewEmailController(db, mailer, log.New(os.Stdout, "EMAIL: ", log.LstdFlags))
	activityController := controller.NewActivityController(db, log.New(os.Stdout, "ACTIVITY: ", log.LstdFlags))
	aiController := controller.NewAIController(utils.NewRewriter(), log.New(os.Stdout, "AI: ", log.LstdFlags))

	requestLogger := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Me / identity
	me := app.Group("/me", middleware.Protected(), requestLogger)
	me.Get("/", workspaceController.GetMe)

	// Workspaces
	workspaces := app.Group("/workspaces", middleware.Protected(), requestLogger)
	workspaces.Get("/", workspaceController.ListWorkspaces)
	workspaces.Post("/", workspaceController.CreateWorkspace)
	workspaces.Get("/:id", workspaceController.GetWorkspace)
	workspaces.Put("/:id", workspaceController.UpdateWorkspace)

	// Contacts
	contacts := app.Group("/contacts", middleware.Protected(), requestLogger)
	contacts.Post("/", contactController.CreateContact)
	contacts.Get("/", middleware.RequireWorkspace(), contactController.ListContacts)
	contacts.Get("/:id", middleware.RequireWorkspace(), contactController.GetContact)
	contacts.Put("/:id", middleware.RequireWorkspace(), contactController.UpdateContact)
	contacts.Delete("/:id", middleware.RequireWorkspace(), contactController.DeleteContact)

	// Sequences, steps, enrollments
	sequences := app.Group("/sequences", middleware.Protected(), requestLogger)
	sequences.Post("/", sequenceController.CreateSequence)
	sequences.Get("/", middleware.RequireWorkspace(), sequenceController.ListSequences)
	sequences.Get("/:id", middleware.RequireWorkspace(), sequenceController.GetSequence)
	sequences.Put("/:id", middleware.RequireWorkspace(), sequenceController.UpdateSequence)
	sequences.Delete("/:id", middleware.RequireWorkspace(), sequenceController.DeleteSequence)

	sequences.Post("/:id/steps", middleware.RequireWorkspace(), sequenceController.AddStep)
	sequences.Put("/:id/steps/:stepID", middleware.RequireWorkspace(), sequenceController.UpdateStep)
	sequences.Delete("/:id/steps/:stepID", middleware.RequireWorkspace(), sequenceController.DeleteStep)

	sequences.Post("/:id/enroll", middleware.RequireWorkspace(), enrollmentController.EnrollContact)
	sequences.Get("/:id/enrollments", middleware.RequireWorkspace(), enrollmentController.ListEnrollments)
	sequences.Post("/:id/enrollments/:enrollmentID/stop", middleware.RequireWorkspace(), enrollmentController.StopEnrollment)

	// Emails (rate limited: test sends hit real SMTP)
	emails := app.Group("/emails", middleware.Protected(), requestLogger)
	emails.Post("/send-test", middleware.SendRateLimiter(), emailController.SendTest)

	// AI
	ai := app.Group("/ai", middleware.Protected(), requestLogger)
	ai.Post("/rewrite", aiController.Rewrite)

	// Activity feed
	activity := app.Group("/activity", middleware.Protected(), requestLogger)
	activity.Get("/", middleware.RequireWorkspace(), activityController.ListActivity)
}
