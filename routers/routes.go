// Package routers mounts every API area under /api.
package routers

import (
	"ninma/config"
	healthController "ninma/controllers/health"
	"ninma/routers/attendanceRoutes"
	"ninma/routers/authRoutes"
	"ninma/routers/certificateRoutes"
	"ninma/routers/eventRoutes"
	"ninma/routers/registrationRoutes"
	"ninma/routers/submissionRoutes"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	health := healthController.NewHealthController(db)
	app.Get("/health", health.Health)

	api := app.Group("/api")
	api.Get("/health", health.Health)

	authRoutes.SetupAuthRoutes(api, db)
	eventRoutes.SetupEventRoutes(api, db)
	registrationRoutes.SetupRegistrationRoutes(api, db)
	attendanceRoutes.SetupAttendanceRoutes(api, db, cfg.QRSigningSecret)
	submissionRoutes.SetupSubmissionRoutes(api, db, cfg.UploadDir, cfg.MaxUploadSize)
	certificateRoutes.SetupCertificateRoutes(api, db, cfg.PublicBaseURL)
}
