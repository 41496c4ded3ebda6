package submissionRoutes

import (
	submissionController "ninma/controllers/submission"
	"ninma/middleware"
	"ninma/policy"
	submissionValidator "ninma/validators/submission"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSubmissionRoutes(api fiber.Router, db *gorm.DB, uploadDir string, maxUploadSize int64) {
	ctrl := submissionController.NewSubmissionController(db, uploadDir, maxUploadSize)
	submissionGroup := api.Group("/submissions")

	submissionGroup.Get("/", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionList), submissionValidator.ListSubmissions(), ctrl.ListSubmissions)
	submissionGroup.Post("/", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionCreate), submissionValidator.CreateSubmission(), ctrl.CreateSubmission)
	submissionGroup.Get("/reviewer", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceReview, policy.ActionList), ctrl.ReviewerSubmissions)
	submissionGroup.Get("/stats/me", middleware.JWTMiddleware, ctrl.MySubmissionStats)

	// File uploads
	submissionGroup.Post("/upload", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionCreate), ctrl.UploadFile)
	submissionGroup.Delete("/upload", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionDelete), submissionValidator.DeleteFile(), ctrl.DeleteFile)

	submissionGroup.Get("/:id", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionRead), ctrl.GetSubmission)
	submissionGroup.Patch("/:id", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionUpdate), submissionValidator.UpdateSubmission(), ctrl.UpdateSubmission)
	submissionGroup.Delete("/:id", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionDelete), ctrl.DeleteSubmission)
	submissionGroup.Post("/:id/send-to-review", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionManage), ctrl.SendToReview)
	submissionGroup.Post("/:id/review", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceReview, policy.ActionCreate), submissionValidator.Review(), ctrl.Review)

	api.Get("/events/:id/submissions/stats", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceSubmission, policy.ActionManage), ctrl.EventSubmissionStats)
}
